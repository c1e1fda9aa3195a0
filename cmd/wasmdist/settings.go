package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/davidmdm/conf"
	"golang.org/x/term"

	"github.com/davidmdm/wasmdist/internal"
	"github.com/davidmdm/wasmdist/internal/gitinfo"
	"github.com/davidmdm/wasmdist/pkg/wasmdist"
)

type GlobalSettings struct {
	ConfigPath string
	Debug      bool
	Color      bool
}

// LoadEnvSettings reads the defaults of the global flags from the environment.
func LoadEnvSettings() (GlobalSettings, error) {
	var settings GlobalSettings
	settings.Color = term.IsTerminal(int(os.Stdout.Fd()))

	conf.Var(conf.Environ, &settings.ConfigPath, "WASMDIST_CONFIG")
	conf.Var(conf.Environ, &settings.Debug, "WASMDIST_DEBUG")
	if err := conf.Environ.Parse(); err != nil {
		return GlobalSettings{}, err
	}

	if settings.ConfigPath == "" {
		settings.ConfigPath = "wasmdist.yaml"
	}

	return settings, nil
}

func RegisterGlobalFlags(flagset *flag.FlagSet, settings *GlobalSettings) {
	flagset.StringVar(&settings.ConfigPath, "config", settings.ConfigPath, "path to the wasmdist build config")
	flagset.BoolVar(&settings.Debug, "debug", settings.Debug, "log build stages and timings")
	flagset.BoolVar(&settings.Color, "color", settings.Color, "use colored output")
}

func (settings GlobalSettings) WithLogger(ctx context.Context) context.Context {
	return internal.WithLogger(ctx, internal.NewLogger(internal.Stderr(ctx), settings.Debug))
}

// LoadBuild turns the config file into build parameters. When only is not empty
// the matrix is narrowed to the variants with those output directories.
func LoadBuild(ctx context.Context, settings GlobalSettings, only []string) (wasmdist.Params, error) {
	cfg, err := wasmdist.LoadConfig(settings.ConfigPath)
	if err != nil {
		return wasmdist.Params{}, fmt.Errorf("failed to load config: %w", err)
	}

	matrix, err := cfg.Matrix()
	if err != nil {
		return wasmdist.Params{}, err
	}

	if len(only) > 0 {
		var selected wasmdist.Matrix
		for _, dir := range only {
			variant, ok := matrix.Lookup(dir)
			if !ok {
				return wasmdist.Params{}, &wasmdist.ConfigError{Field: "only", Value: dir, Reason: "no variant emits into this directory"}
			}
			selected = append(selected, variant)
		}
		matrix = selected
	}

	if cfg.Payload == "" {
		return wasmdist.Params{}, &wasmdist.ConfigError{Field: "payload", Reason: "payload is required"}
	}

	payload, err := wasmdist.LoadPayload(ctx, cfg.Payload)
	if err != nil {
		return wasmdist.Params{}, fmt.Errorf("failed to load payload: %w", err)
	}

	info, err := gitinfo.Describe(filepath.Dir(settings.ConfigPath), "")
	if err != nil {
		internal.Logger(ctx).Sugar().Warnf("version stamping disabled: %v", err)
	}

	return wasmdist.Params{
		Name:         cfg.Name,
		SourceDir:    cfg.Source,
		Matrix:       matrix,
		Payload:      payload,
		PayloadName:  wasmdist.PayloadName(cfg.Payload),
		Declaration:  cfg.Declaration,
		TypesSubpath: cfg.Types,
		DistRoot:     cfg.Dist,
		Version:      info.Version,
		Banner:       Banner(cfg.Name, info),
		Concurrency:  cfg.Concurrency,
	}, nil
}

func Banner(name string, info gitinfo.Info) string {
	parts := []string{name}
	if version := info.String(); version != "" {
		parts = append(parts, version)
	}
	return "/*! " + strings.Join(parts, " ") + " */"
}

// splitList parses comma separated flag values.
func splitList(values *[]string) func(string) error {
	return func(value string) error {
		for _, elem := range strings.Split(value, ",") {
			if elem = strings.TrimSpace(elem); elem != "" {
				*values = append(*values, elem)
			}
		}
		return nil
	}
}
