package wasmdist

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

var entries = Entries{Full: "index.ts", Minimal: "index_slim.ts"}

func TestDefaultMatrix(t *testing.T) {
	matrix := DefaultMatrix(entries)
	require.NoError(t, matrix.Validate())

	type row struct {
		Dir   string
		Entry string
		Ext   string
		Embed bool
	}

	var rows []row
	for _, variant := range matrix {
		rows = append(rows, row{variant.Dir, variant.Entry, variant.Ext(), variant.Embed()})
	}

	require.Equal(
		t,
		[]row{
			{"iife", "index.ts", "js", true},
			{"es", "index.ts", "js", true},
			{"cjs", "index.ts", "cjs", true},
			{"node", "index.ts", "cjs", true},
			{"es-slim", "index_slim.ts", "js", false},
			{"cjs-slim", "index_slim.ts", "cjs", false},
		},
		rows,
	)
}

func TestDefaultDirUniqueAcrossCrossProduct(t *testing.T) {
	seen := map[string]string{}
	for _, format := range []Format{FormatIIFE, FormatESModule, FormatCommonJS} {
		for _, env := range []Environment{EnvBrowser, EnvStandalone, EnvNode, EnvSlim} {
			dir := DefaultDir(format, env)
			previous, ok := seen[dir]
			require.False(t, ok, "%s/%s collides with %s on %q", format, env, previous, dir)
			seen[dir] = string(format) + "/" + string(env)
		}
	}
	require.Len(t, seen, 12)
}

func TestMatrixValidate(t *testing.T) {
	cases := []struct {
		Name   string
		Matrix Matrix
		Error  string
	}{
		{
			Name:   "empty",
			Matrix: Matrix{},
			Error:  "invalid config: variants: at least one variant is required",
		},
		{
			Name: "duplicate dir",
			Matrix: Matrix{
				NewVariant(FormatCommonJS, EnvBrowser, entries),
				{Format: FormatESModule, Environment: EnvBrowser, Entry: "index.ts", Dir: "cjs"},
			},
			Error: `invalid config: dir "cjs": shared by cjs/browser and es/browser`,
		},
		{
			Name:   "unknown environment",
			Matrix: Matrix{{Format: FormatCommonJS, Environment: "deno", Entry: "index.ts", Dir: "deno"}},
			Error:  `invalid config: environment "deno": must be one of browser, standalone, node, slim`,
		},
		{
			Name:   "unknown format",
			Matrix: Matrix{{Format: "amd", Environment: EnvBrowser, Entry: "index.ts", Dir: "amd"}},
			Error:  `invalid config: format "amd": must be one of iife, es, cjs`,
		},
		{
			Name:   "format alias",
			Matrix: Matrix{{Format: "esm", Environment: EnvBrowser, Entry: "index.ts", Dir: "es"}},
			Error:  `invalid config: format "esm": must be one of iife, es, cjs`,
		},
		{
			Name:   "format casing",
			Matrix: Matrix{{Format: "CJS", Environment: EnvBrowser, Entry: "index.ts", Dir: "cjs"}},
			Error:  `invalid config: format "CJS": must be one of iife, es, cjs`,
		},
		{
			Name:   "nested dir",
			Matrix: Matrix{{Format: FormatCommonJS, Environment: EnvBrowser, Entry: "index.ts", Dir: "a/b"}},
			Error:  `invalid config: dir "a/b": must be a single non-reserved directory name`,
		},
		{
			Name:   "reserved types dir",
			Matrix: Matrix{{Format: FormatCommonJS, Environment: EnvBrowser, Entry: "index.ts", Dir: "types"}},
			Error:  `invalid config: dir "types": must be a single non-reserved directory name`,
		},
		{
			Name:   "missing minimal entry",
			Matrix: Matrix{NewVariant(FormatCommonJS, EnvSlim, Entries{Full: "index.ts"})},
			Error:  `invalid config: entry "cjs/slim": variant has no entry source`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			err := tc.Matrix.Validate()
			require.EqualError(t, err, tc.Error)

			var configErr *ConfigError
			require.True(t, errors.As(err, &configErr))
		})
	}
}

func TestParse(t *testing.T) {
	for input, expected := range map[string]Format{"iife": FormatIIFE, "global": FormatIIFE, "ESM": FormatESModule, "es": FormatESModule, " commonjs ": FormatCommonJS} {
		format, err := ParseFormat(input)
		require.NoError(t, err)
		require.Equal(t, expected, format)
	}

	for input, expected := range map[string]Environment{"fat": EnvBrowser, "standalone": EnvStandalone, "server": EnvNode, "minimal": EnvSlim} {
		env, err := ParseEnvironment(input)
		require.NoError(t, err)
		require.Equal(t, expected, env)
	}

	_, err := ParseFormat("umd")
	require.EqualError(t, err, `invalid config: format "umd": must be one of iife, es, cjs`)

	_, err = ParseEnvironment("edge")
	require.EqualError(t, err, `invalid config: environment "edge": must be one of browser, standalone, node, slim`)
}

func TestMatrixLookup(t *testing.T) {
	matrix := DefaultMatrix(entries)

	variant, ok := matrix.Lookup("node")
	require.True(t, ok)
	require.Equal(t, FormatCommonJS, variant.Format)
	require.Equal(t, EnvNode, variant.Environment)

	_, ok = matrix.Lookup("umd")
	require.False(t, ok)
}

func TestVariantEntryName(t *testing.T) {
	require.Equal(t, "index_slim", NewVariant(FormatESModule, EnvSlim, entries).EntryName())
	require.Equal(t, "main", Variant{Entry: "lib/main.mts"}.EntryName())
}
