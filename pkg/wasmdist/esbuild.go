package wasmdist

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// CompileRequest is everything a Compiler needs to turn one glue entry into a
// single module.
type CompileRequest struct {
	// Entry is the absolute path of the glue entry point.
	Entry      string
	Outfile    string
	Format     Format
	Target     Target
	Platform   Platform
	GlobalName string
	Banner     string
	// Rewrite is applied to every glue file before compilation. Its output is
	// loaded as JavaScript.
	Rewrite func(path string, source []byte) ([]byte, error)
	// PayloadModule replaces every .wasm import when set. A nil value leaves
	// .wasm imports unresolvable.
	PayloadModule *string
}

type Target string

const (
	TargetES2017 Target = "es2017"
	TargetES2022 Target = "es2022"
)

type Platform string

const (
	PlatformBrowser Platform = "browser"
	PlatformNode    Platform = "node"
)

type Compiler interface {
	Compile(ctx context.Context, req CompileRequest) ([]byte, error)
}

// ESBuild compiles and bundles glue sources in memory with esbuild.
type ESBuild struct{}

var _ Compiler = ESBuild{}

const payloadNamespace = "wasmdist-payload"

func (ESBuild) Compile(ctx context.Context, req CompileRequest) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format, err := esbuildFormat(req.Format)
	if err != nil {
		return nil, err
	}

	opts := api.BuildOptions{
		EntryPoints:   []string{req.Entry},
		Outfile:       req.Outfile,
		AbsWorkingDir: filepath.Dir(req.Entry),
		Bundle:        true,
		Write:         false,
		LogLevel:      api.LogLevelSilent,
		Format:        format,
		Target:        esbuildTarget(req.Target),
		Platform:      esbuildPlatform(req.Platform),
		Plugins:       []api.Plugin{rewritePlugin(req.Rewrite)},
	}

	if req.Format == FormatIIFE {
		opts.GlobalName = req.GlobalName
	}
	if req.Banner != "" {
		opts.Banner = map[string]string{"js": req.Banner}
	}
	if req.PayloadModule != nil {
		opts.Plugins = append(opts.Plugins, payloadPlugin(*req.PayloadModule, filepath.Dir(req.Entry)))
	}

	result := api.Build(opts)
	if len(result.Errors) > 0 {
		return nil, &CompilationError{
			Messages: api.FormatMessages(result.Errors, api.FormatMessagesOptions{Kind: api.ErrorMessage}),
		}
	}

	for _, file := range result.OutputFiles {
		if strings.HasSuffix(file.Path, ".map") {
			continue
		}
		return file.Contents, nil
	}

	return nil, &CompilationError{Messages: []string{"compiler produced no output"}}
}

func esbuildFormat(format Format) (api.Format, error) {
	switch format {
	case FormatIIFE:
		return api.FormatIIFE, nil
	case FormatESModule:
		return api.FormatESModule, nil
	case FormatCommonJS:
		return api.FormatCommonJS, nil
	default:
		return api.FormatDefault, &ConfigError{Field: "format", Value: string(format), Reason: "must be one of iife, es, cjs"}
	}
}

func esbuildTarget(target Target) api.Target {
	if target == TargetES2022 {
		return api.ES2022
	}
	return api.ES2017
}

func esbuildPlatform(platform Platform) api.Platform {
	if platform == PlatformNode {
		return api.PlatformNode
	}
	return api.PlatformBrowser
}

func rewritePlugin(rewrite func(string, []byte) ([]byte, error)) api.Plugin {
	return api.Plugin{
		Name: "wasmdist-rewrite",
		Setup: func(build api.PluginBuild) {
			build.OnLoad(
				api.OnLoadOptions{Filter: `\.(ts|mts|cts|tsx|js|mjs|cjs|jsx)$`, Namespace: "file"},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					source, err := os.ReadFile(args.Path)
					if err != nil {
						return api.OnLoadResult{}, fmt.Errorf("failed to read glue source: %w", err)
					}
					loader := loaderFor(args.Path)
					if rewrite != nil {
						if source, err = rewrite(args.Path, source); err != nil {
							return api.OnLoadResult{}, err
						}
						loader = api.LoaderJS
					}
					contents := string(source)
					return api.OnLoadResult{
						Contents:   &contents,
						ResolveDir: filepath.Dir(args.Path),
						Loader:     loader,
					}, nil
				},
			)
		},
	}
}

func payloadPlugin(module, resolveDir string) api.Plugin {
	return api.Plugin{
		Name: "wasmdist-payload",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(
				api.OnResolveOptions{Filter: `\.wasm$`},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{Path: args.Path, Namespace: payloadNamespace}, nil
				},
			)
			build.OnLoad(
				api.OnLoadOptions{Filter: `.*`, Namespace: payloadNamespace},
				func(api.OnLoadArgs) (api.OnLoadResult, error) {
					contents := module
					return api.OnLoadResult{
						Contents:   &contents,
						ResolveDir: resolveDir,
						Loader:     api.LoaderJS,
					}, nil
				},
			)
		},
	}
}

func loaderFor(path string) api.Loader {
	switch filepath.Ext(path) {
	case ".ts", ".mts", ".cts":
		return api.LoaderTS
	case ".tsx":
		return api.LoaderTSX
	case ".jsx":
		return api.LoaderJSX
	default:
		return api.LoaderJS
	}
}
