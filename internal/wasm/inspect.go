package wasm

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/davidmdm/x/xerr"
)

var magic = []byte{0x00, 0x61, 0x73, 0x6d}

type Function struct {
	Module    string
	Name      string
	Signature string
}

type Memory struct {
	Name string
	Min  uint32
	Max  uint32
	// Bounded is false when the memory has no maximum.
	Bounded bool
}

// Summary describes the exported and imported surface of a payload.
type Summary struct {
	Size     int
	Imports  []Function
	Exports  []Function
	Memories []Memory
}

// Inspect validates payload by compiling it. The module is never instantiated.
func Inspect(ctx context.Context, payload []byte) (summary Summary, err error) {
	if !bytes.HasPrefix(payload, magic) {
		return Summary{}, fmt.Errorf("missing wasm magic header")
	}

	// Compilation is only used for validation, the interpreter avoids generating machine code.
	runtime := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfigInterpreter())
	defer func() {
		err = xerr.MultiErrFrom("", err, runtime.Close(ctx))
	}()

	mod, err := runtime.CompileModule(ctx, payload)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to compile module: %w", err)
	}
	defer func() {
		err = xerr.MultiErrFrom("", err, mod.Close(ctx))
	}()

	summary.Size = len(payload)

	for _, def := range mod.ImportedFunctions() {
		module, name, _ := def.Import()
		summary.Imports = append(summary.Imports, Function{
			Module:    module,
			Name:      name,
			Signature: signature(def),
		})
	}

	for name, def := range mod.ExportedFunctions() {
		summary.Exports = append(summary.Exports, Function{Name: name, Signature: signature(def)})
	}
	slices.SortFunc(summary.Exports, func(a, b Function) int { return strings.Compare(a.Name, b.Name) })

	for name, def := range mod.ExportedMemories() {
		memory := Memory{Name: name, Min: def.Min()}
		if limit, bounded := def.Max(); bounded {
			memory.Max, memory.Bounded = limit, true
		}
		summary.Memories = append(summary.Memories, memory)
	}
	slices.SortFunc(summary.Memories, func(a, b Memory) int { return strings.Compare(a.Name, b.Name) })

	return summary, nil
}

func signature(def api.FunctionDefinition) string {
	return fmt.Sprintf("(%s) -> (%s)", valueTypes(def.ParamTypes()), valueTypes(def.ResultTypes()))
}

func valueTypes(types []api.ValueType) string {
	names := make([]string, len(types))
	for i, typ := range types {
		names[i] = api.ValueTypeName(typ)
	}
	return strings.Join(names, ", ")
}
