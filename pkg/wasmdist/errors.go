package wasmdist

import (
	"fmt"
	"strings"
)

// ConfigError reports an unrecognized or inconsistent build configuration value.
// It is always fatal for the whole run.
type ConfigError struct {
	Field  string
	Value  string
	Reason string
}

func (err *ConfigError) Error() string {
	if err.Value == "" {
		return fmt.Sprintf("invalid config: %s: %s", err.Field, err.Reason)
	}
	return fmt.Sprintf("invalid config: %s %q: %s", err.Field, err.Value, err.Reason)
}

// CompilationError reports that the glue source could not be compiled for a variant.
type CompilationError struct {
	Variant  string
	Messages []string
}

func (err *CompilationError) Error() string {
	return fmt.Sprintf("failed to compile variant %s: %s", err.Variant, strings.TrimSpace(strings.Join(err.Messages, "\n")))
}

type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (err *FilesystemError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", err.Op, err.Path, err.Err)
}

func (err *FilesystemError) Unwrap() error { return err.Err }
