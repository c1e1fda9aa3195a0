package wasmdist

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// moduleLocation is the module location reference emitted by wasm-bindgen's web target.
const moduleLocation = "import.meta.url"

// Rewrite resolves every module location reference in the glue source at path
// to an empty string. The reference is only meaningful in the bundling context
// that produced it; once repackaged it either dangles or breaks the target
// format. Code that dereferences it fails at runtime, which is the documented
// contract: consumers who need it take on loading the payload themselves.
//
// Only the expression is replaced. The same text inside string literals or
// comments is left alone. The result is JavaScript whichever loader path
// selects, and never aliases source.
func Rewrite(path string, source []byte) ([]byte, error) {
	result := api.Transform(string(source), api.TransformOptions{
		Sourcefile: path,
		Loader:     loaderFor(path),
		Target:     api.ESNext,
		Define:     map[string]string{moduleLocation: `""`},
		LogLevel:   api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		messages := api.FormatMessages(result.Errors, api.FormatMessagesOptions{Kind: api.ErrorMessage})
		return nil, fmt.Errorf("failed to parse %s: %s", path, strings.TrimSpace(strings.Join(messages, "\n")))
	}
	return result.Code, nil
}
