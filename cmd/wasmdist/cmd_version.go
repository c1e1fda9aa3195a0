package main

import (
	"context"
	"fmt"
	"runtime/debug"
	"slices"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/davidmdm/wasmdist/internal"
)

func Version(ctx context.Context) error {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return fmt.Errorf("build information unavailable")
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleRounded)

	tbl.AppendRow(table.Row{"wasmdist", info.Main.Version})

	for _, mod := range info.Deps {
		if !slices.Contains([]string{"github.com/evanw/esbuild", "github.com/tetratelabs/wazero"}, mod.Path) {
			continue
		}
		tbl.AppendRow(table.Row{mod.Path, mod.Version})
	}

	fmt.Fprintln(internal.Stdout(ctx), tbl.Render())

	return nil
}
