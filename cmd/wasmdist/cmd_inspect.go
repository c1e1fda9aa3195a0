package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/davidmdm/wasmdist/internal"
	"github.com/davidmdm/wasmdist/internal/wasm"
	"github.com/davidmdm/wasmdist/pkg/wasmdist"
)

type InspectParams struct {
	GlobalSettings
	// Payload overrides the payload of the config file when set.
	Payload string
}

//go:embed cmd_inspect_help.txt
var inspectHelp string

func init() {
	inspectHelp = strings.TrimSpace(internal.Colorize(inspectHelp))
}

func GetInspectParams(settings GlobalSettings, args []string) (*InspectParams, error) {
	flagset := flag.NewFlagSet("inspect", flag.ExitOnError)

	flagset.Usage = func() {
		fmt.Fprintln(flagset.Output(), inspectHelp)
		flagset.PrintDefaults()
	}

	params := InspectParams{GlobalSettings: settings}

	RegisterGlobalFlags(flagset, &params.GlobalSettings)

	flagset.Parse(args)

	switch flagset.NArg() {
	case 0:
	case 1:
		params.Payload = flagset.Arg(0)
	default:
		return nil, fmt.Errorf("expected at most one payload but got %d", flagset.NArg())
	}

	return &params, nil
}

func Inspect(ctx context.Context, params InspectParams) error {
	ctx = params.WithLogger(ctx)

	ref := params.Payload
	if ref == "" {
		cfg, err := wasmdist.LoadConfig(params.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cfg.Payload == "" {
			return &wasmdist.ConfigError{Field: "payload", Reason: "payload is required"}
		}
		ref = cfg.Payload
	}

	payload, err := wasmdist.LoadPayload(ctx, ref)
	if err != nil {
		return fmt.Errorf("failed to load payload: %w", err)
	}

	summary, err := wasm.Inspect(ctx, payload)
	if err != nil {
		return fmt.Errorf("invalid payload %s: %w", ref, err)
	}

	fmt.Fprintln(internal.Stdout(ctx), RenderSummary(wasmdist.PayloadName(ref), internal.Checksum(payload), summary))

	if len(summary.Exports) == 0 {
		return internal.Warning("payload exports no functions: bindings will have nothing to call")
	}

	return nil
}

func RenderSummary(name, checksum string, summary wasm.Summary) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleRounded)
	tbl.SetTitle(fmt.Sprintf("%s (%d bytes, sha1 %s)", name, summary.Size, checksum))

	tbl.AppendHeader(table.Row{"kind", "module", "name", "signature"})

	for _, fn := range summary.Imports {
		tbl.AppendRow(table.Row{"import", fn.Module, fn.Name, fn.Signature})
	}
	for _, fn := range summary.Exports {
		tbl.AppendRow(table.Row{"export", "", fn.Name, fn.Signature})
	}
	for _, memory := range summary.Memories {
		limits := fmt.Sprintf("min %d", memory.Min)
		if memory.Bounded {
			limits += fmt.Sprintf(", max %d", memory.Max)
		}
		tbl.AppendRow(table.Row{"memory", "", memory.Name, limits})
	}

	return tbl.Render()
}
