package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"strings"

	"github.com/davidmdm/wasmdist/internal"
	"github.com/davidmdm/wasmdist/internal/text"
	"github.com/davidmdm/wasmdist/pkg/wasmdist"
)

type CheckParams struct {
	GlobalSettings
	Only    []string
	Context int
}

//go:embed cmd_check_help.txt
var checkHelp string

func init() {
	checkHelp = strings.TrimSpace(internal.Colorize(checkHelp))
}

func GetCheckParams(settings GlobalSettings, args []string) (*CheckParams, error) {
	flagset := flag.NewFlagSet("check", flag.ExitOnError)

	flagset.Usage = func() {
		fmt.Fprintln(flagset.Output(), checkHelp)
		flagset.PrintDefaults()
	}

	params := CheckParams{GlobalSettings: settings}

	RegisterGlobalFlags(flagset, &params.GlobalSettings)

	flagset.Func("only", "comma separated output directories of the variants to check", splitList(&params.Only))
	flagset.IntVar(&params.Context, "context", 4, "number of lines of context in diffs")

	flagset.Parse(args)

	if flagset.NArg() > 0 {
		return nil, fmt.Errorf("unexpected positional args: %s", strings.Join(flagset.Args(), " "))
	}

	return &params, nil
}

func Check(ctx context.Context, params CheckParams) error {
	ctx = params.WithLogger(ctx)

	build, err := LoadBuild(ctx, params.GlobalSettings, params.Only)
	if err != nil {
		return err
	}

	diff := text.Diff
	if params.Color {
		diff = text.DiffColorized
	}

	drifts, err := wasmdist.Check(ctx, wasmdist.CheckParams{
		Params:  build,
		Context: params.Context,
		Diff:    diff,
	})
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	stdout := internal.Stdout(ctx)

	if len(drifts) == 0 {
		fmt.Fprintf(stdout, "%s is up to date\n", build.DistRoot)
		return nil
	}

	for _, drift := range drifts {
		fmt.Fprintf(stdout, "%s: %s\n", drift.Kind, drift.Path)
		if drift.Diff != "" {
			fmt.Fprintln(stdout, drift.Diff)
		}
	}

	return fmt.Errorf("%s is out of date: %d file(s) differ from a fresh build", build.DistRoot, len(drifts))
}
