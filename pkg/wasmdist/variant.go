package wasmdist

import (
	"path/filepath"
	"strings"

	"github.com/davidmdm/wasmdist/internal"
)

type Format string

const (
	FormatIIFE     Format = "iife"
	FormatESModule Format = "es"
	FormatCommonJS Format = "cjs"
)

func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "iife", "global":
		return FormatIIFE, nil
	case "es", "esm":
		return FormatESModule, nil
	case "cjs", "commonjs":
		return FormatCommonJS, nil
	default:
		return "", &ConfigError{Field: "format", Value: value, Reason: "must be one of iife, es, cjs"}
	}
}

func (format Format) known() bool {
	switch format {
	case FormatIIFE, FormatESModule, FormatCommonJS:
		return true
	}
	return false
}

type Environment string

const (
	EnvBrowser    Environment = "browser"
	EnvStandalone Environment = "standalone"
	EnvNode       Environment = "node"
	EnvSlim       Environment = "slim"
)

func ParseEnvironment(value string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "browser", "fat":
		return EnvBrowser, nil
	case "standalone":
		return EnvStandalone, nil
	case "node", "server":
		return EnvNode, nil
	case "slim", "minimal":
		return EnvSlim, nil
	default:
		return "", &ConfigError{Field: "environment", Value: value, Reason: "must be one of browser, standalone, node, slim"}
	}
}

func (env Environment) known() bool {
	switch env {
	case EnvBrowser, EnvStandalone, EnvNode, EnvSlim:
		return true
	}
	return false
}

// Entries names the glue entry points relative to the source root.
type Entries struct {
	Full    string `yaml:"full"`
	Minimal string `yaml:"minimal"`
}

type Variant struct {
	Format      Format
	Environment Environment
	Entry       string
	Dir         string
}

// NewVariant returns the variant for format and env using the entry that env requires
// and the default output directory name.
func NewVariant(format Format, env Environment, entries Entries) Variant {
	entry := entries.Full
	if env == EnvSlim {
		entry = entries.Minimal
	}
	return Variant{
		Format:      format,
		Environment: env,
		Entry:       entry,
		Dir:         DefaultDir(format, env),
	}
}

// DefaultDir derives the output directory name of a variant. Names are unique
// across every format and environment pair.
func DefaultDir(format Format, env Environment) string {
	switch env {
	case EnvNode:
		if format == FormatCommonJS {
			return "node"
		}
		return "node-" + string(format)
	case EnvSlim:
		return string(format) + "-slim"
	case EnvStandalone:
		return string(format) + "-standalone"
	default:
		return string(format)
	}
}

// Ext is the extension of the emitted module. Some consumers infer module
// semantics from it.
func (variant Variant) Ext() string {
	if variant.Format == FormatCommonJS {
		return "cjs"
	}
	return "js"
}

// Embed reports whether the variant carries any payload delivery logic.
func (variant Variant) Embed() bool {
	return variant.Environment != EnvSlim
}

func (variant Variant) EntryName() string {
	base := filepath.Base(variant.Entry)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (variant Variant) String() string {
	return string(variant.Format) + "/" + string(variant.Environment)
}

type Matrix []Variant

func DefaultMatrix(entries Entries) Matrix {
	return Matrix{
		NewVariant(FormatIIFE, EnvBrowser, entries),
		NewVariant(FormatESModule, EnvBrowser, entries),
		NewVariant(FormatCommonJS, EnvBrowser, entries),
		NewVariant(FormatCommonJS, EnvNode, entries),
		NewVariant(FormatESModule, EnvSlim, entries),
		NewVariant(FormatCommonJS, EnvSlim, entries),
	}
}

func (matrix Matrix) Validate() error {
	if len(matrix) == 0 {
		return &ConfigError{Field: "variants", Reason: "at least one variant is required"}
	}

	seen := make(map[string]Variant, len(matrix))
	for _, variant := range matrix {
		// Aliases are only resolved when parsing config.
		if !variant.Format.known() {
			return &ConfigError{Field: "format", Value: string(variant.Format), Reason: "must be one of iife, es, cjs"}
		}
		if !variant.Environment.known() {
			return &ConfigError{Field: "environment", Value: string(variant.Environment), Reason: "must be one of browser, standalone, node, slim"}
		}
		if variant.Entry == "" {
			return &ConfigError{Field: "entry", Value: variant.String(), Reason: "variant has no entry source"}
		}
		if variant.Dir == "" || variant.Dir == "types" || strings.ContainsAny(variant.Dir, `/\`) || variant.Dir == "." || variant.Dir == ".." {
			return &ConfigError{Field: "dir", Value: variant.Dir, Reason: "must be a single non-reserved directory name"}
		}
		if previous, ok := seen[variant.Dir]; ok {
			return &ConfigError{Field: "dir", Value: variant.Dir, Reason: "shared by " + previous.String() + " and " + variant.String()}
		}
		seen[variant.Dir] = variant
	}

	return nil
}

func (matrix Matrix) Lookup(dir string) (Variant, bool) {
	return internal.Find(matrix, func(variant Variant) bool { return variant.Dir == dir })
}
