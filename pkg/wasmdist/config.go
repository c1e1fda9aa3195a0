package wasmdist

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/davidmdm/wasmdist/internal"
)

// Config is the on-disk description of a build. Relative paths are resolved
// against the directory of the config file.
type Config struct {
	Name        string          `yaml:"name"`
	Source      string          `yaml:"source"`
	Entries     Entries         `yaml:"entries"`
	Payload     string          `yaml:"payload"`
	Declaration string          `yaml:"declaration"`
	Types       string          `yaml:"types"`
	Dist        string          `yaml:"dist"`
	Concurrency int             `yaml:"concurrency"`
	Variants    []VariantConfig `yaml:"variants"`
}

type VariantConfig struct {
	Formats     internal.List[string] `yaml:"formats"`
	Environment string                `yaml:"environment"`
	Dir         string                `yaml:"dir"`
}

func DefaultConfig() Config {
	return Config{
		Name:    "bindings_wasm",
		Source:  "src",
		Entries: Entries{Full: "index.ts", Minimal: "index_slim.ts"},
		Types:   "pkg",
		Dist:    "dist",
	}
}

func LoadConfig(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, &FilesystemError{Op: "open config", Path: path, Err: err}
	}
	defer file.Close()

	cfg, err := ParseConfig(file)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}

	cfg.resolve(filepath.Dir(path))

	return cfg, nil
}

func ParseConfig(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, &ConfigError{Field: "file", Reason: err.Error()}
	}

	return cfg, nil
}

func (cfg *Config) resolve(base string) {
	for _, path := range []*string{&cfg.Source, &cfg.Declaration, &cfg.Dist} {
		if *path != "" && !filepath.IsAbs(*path) {
			*path = filepath.Join(base, *path)
		}
	}
	if cfg.Payload != "" && !isRemote(cfg.Payload) && !filepath.IsAbs(cfg.Payload) {
		cfg.Payload = filepath.Join(base, cfg.Payload)
	}
}

// Matrix expands the configured variants, or returns the default matrix when
// none are configured.
func (cfg Config) Matrix() (Matrix, error) {
	if len(cfg.Variants) == 0 {
		return DefaultMatrix(cfg.Entries), nil
	}

	var matrix Matrix
	for _, vc := range cfg.Variants {
		env, err := ParseEnvironment(vc.Environment)
		if err != nil {
			return nil, err
		}
		if len(vc.Formats) == 0 {
			return nil, &ConfigError{Field: "formats", Value: vc.Environment, Reason: "variant declares no formats"}
		}
		if vc.Dir != "" && len(vc.Formats) > 1 {
			return nil, &ConfigError{Field: "dir", Value: vc.Dir, Reason: "cannot override the directory of more than one format"}
		}
		for _, name := range vc.Formats {
			format, err := ParseFormat(name)
			if err != nil {
				return nil, err
			}
			variant := NewVariant(format, env, cfg.Entries)
			if vc.Dir != "" {
				variant.Dir = vc.Dir
			}
			matrix = append(matrix, variant)
		}
	}

	return matrix, matrix.Validate()
}
