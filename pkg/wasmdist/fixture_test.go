package wasmdist

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	fullEntry = `import payload from "./pkg/bindings_wasm_bg.wasm";
import { greet, init } from "./pkg/bindings_wasm.js";

export const location: string = import.meta.url;

export function load(): WebAssembly.Module | Uint8Array {
  return init(payload());
}

export { greet };
`

	slimEntry = `export { greet, init } from "./pkg/bindings_wasm.js";
`

	glue = `export function greet(name) {
  return "hello " + name;
}

export function init(bytes) {
  if (bytes === undefined) {
    bytes = new URL("bindings_wasm_bg.wasm", import.meta.url);
  }
  return bytes;
}
`

	declaration = `/* tslint:disable */
export function greet(name: string): string;
export function init(bytes?: Uint8Array): Uint8Array;
`
)

// uleb128 encodes value the way wasm section sizes are encoded.
func uleb128(value uint32) []byte {
	var out []byte
	for {
		b := byte(value & 0x7f)
		value >>= 7
		if value != 0 {
			out = append(out, b|0x80)
			continue
		}
		return append(out, b)
	}
}

// testPayload is a valid empty module padded with a custom section of size bytes.
func testPayload(size int) []byte {
	payload := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	if size == 0 {
		return payload
	}

	name := []byte("pad")
	body := append(uleb128(uint32(len(name))), name...)
	for i := 0; i < size; i++ {
		body = append(body, byte(i*31))
	}

	payload = append(payload, 0x00)
	payload = append(payload, uleb128(uint32(len(body)))...)
	return append(payload, body...)
}

type fixture struct {
	Root   string
	Source string
	Dist   string
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	root := t.TempDir()
	fx := fixture{
		Root:   root,
		Source: filepath.Join(root, "src"),
		Dist:   filepath.Join(root, "dist"),
	}

	files := map[string]string{
		"index.ts":               fullEntry,
		"index_slim.ts":          slimEntry,
		"pkg/bindings_wasm.js":   glue,
		"pkg/bindings_wasm.d.ts": declaration,
	}
	for name, content := range files {
		path := filepath.Join(fx.Source, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	return fx
}

func (fx fixture) params(payload []byte) Params {
	entries := Entries{Full: "index.ts", Minimal: "index_slim.ts"}
	return Params{
		Name:         "bindings_wasm",
		SourceDir:    fx.Source,
		Matrix:       DefaultMatrix(entries),
		Payload:      payload,
		PayloadName:  "bindings_wasm_bg.wasm",
		Declaration:  filepath.Join(fx.Source, "pkg", "bindings_wasm.d.ts"),
		TypesSubpath: "pkg",
		DistRoot:     fx.Dist,
	}
}

var (
	base64Literal  = regexp.MustCompile(`"([A-Za-z0-9+/]{16,}={0,2})"`)
	siblingLiteral = regexp.MustCompile(`"(\.\./[^"]+\.wasm)"`)
)

// inlined decodes every long base64 string literal found in code.
func inlined(t *testing.T, code []byte) [][]byte {
	t.Helper()

	var result [][]byte
	for _, match := range base64Literal.FindAllSubmatch(code, -1) {
		decoded, err := base64.StdEncoding.DecodeString(string(match[1]))
		if err != nil {
			continue
		}
		result = append(result, decoded)
	}
	return result
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}
