package text

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/davidmdm/ansi"
)

type DiffFunc func(actual, expected File, context int) string

type File struct {
	Name    string
	Content string
}

func Diff(actual, expected File, context int) string {
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(actual.Content),
		B:        difflib.SplitLines(expected.Content),
		FromFile: actual.Name,
		ToFile:   expected.Name,
		Context:  context,
	})
	return diff
}

func DiffColorized(actual, expected File, context int) string {
	return colorize(Diff(actual, expected, context))
}

var (
	green = ansi.MakeStyle(ansi.FgGreen)
	red   = ansi.MakeStyle(ansi.FgRed)
)

func colorize(value string) string {
	lines := strings.Split(value, "\n")
	colorized := make([]string, len(lines))
	for i, line := range lines {
		if len(line) == 0 {
			continue
		}
		switch {
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
			colorized[i] = line
		case line[0] == '-':
			colorized[i] = red.Sprint(line)
		case line[0] == '+':
			colorized[i] = green.Sprint(line)
		default:
			colorized[i] = line
		}
	}

	return strings.Join(colorized, "\n")
}
