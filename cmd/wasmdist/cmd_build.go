package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/davidmdm/wasmdist/internal"
	"github.com/davidmdm/wasmdist/pkg/wasmdist"
)

type BuildParams struct {
	GlobalSettings
	Only         []string
	Report       string
	Concurrency  int
	SkipValidate bool
}

//go:embed cmd_build_help.txt
var buildHelp string

func init() {
	buildHelp = strings.TrimSpace(internal.Colorize(buildHelp))
}

func GetBuildParams(settings GlobalSettings, args []string) (*BuildParams, error) {
	flagset := flag.NewFlagSet("build", flag.ExitOnError)

	flagset.Usage = func() {
		fmt.Fprintln(flagset.Output(), buildHelp)
		flagset.PrintDefaults()
	}

	params := BuildParams{GlobalSettings: settings}

	RegisterGlobalFlags(flagset, &params.GlobalSettings)

	flagset.Func("only", "comma separated output directories of the variants to build", splitList(&params.Only))
	flagset.StringVar(&params.Report, "report", "", "write the build report as yaml to this file, - for stdout")
	flagset.IntVar(&params.Concurrency, "concurrency", -1, "variants emitted at once: 0 for all, 1 for sequential (defaults to config)")
	flagset.BoolVar(&params.SkipValidate, "skip-validate", false, "do not compile the payload to validate it before packaging")

	flagset.Parse(args)

	if flagset.NArg() > 0 {
		return nil, fmt.Errorf("unexpected positional args: %s", strings.Join(flagset.Args(), " "))
	}

	return &params, nil
}

func Build(ctx context.Context, params BuildParams) error {
	ctx = params.WithLogger(ctx)

	build, err := LoadBuild(ctx, params.GlobalSettings, params.Only)
	if err != nil {
		return err
	}

	if params.Concurrency >= 0 {
		build.Concurrency = params.Concurrency
	}
	build.SkipValidate = params.SkipValidate

	report, err := wasmdist.Build(ctx, build)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	if params.Report == "-" {
		return internal.EncodeYAML(internal.Stdout(ctx), report)
	}

	fmt.Fprintln(internal.Stdout(ctx), RenderReport(*report, build.DistRoot))

	if params.Report != "" {
		if err := internal.WriteYAML(params.Report, report); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	return nil
}

func RenderReport(report wasmdist.Report, dist string) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleRounded)
	tbl.SetTitle(fmt.Sprintf("%s (sha1 %s)", report.Name, report.Checksum))

	tbl.AppendHeader(table.Row{"variant", "format", "environment", "delivery", "module", "bytes"})

	for _, result := range report.Results {
		tbl.AppendRow(table.Row{
			result.Dir,
			result.Format,
			result.Env,
			result.Delivery,
			relative(dist, result.Module),
			result.Size,
		})
	}

	for _, declaration := range report.Declarations {
		tbl.AppendFooter(table.Row{"types", "", "", "", relative(dist, declaration), ""})
	}

	return tbl.Render()
}

func relative(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
