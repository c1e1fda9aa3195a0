package wasmdist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// recordingCompiler echoes the payload stub so delivery assertions can run
// without bundling.
type recordingCompiler struct {
	mu       sync.Mutex
	requests []CompileRequest
	err      error
}

func (compiler *recordingCompiler) Compile(_ context.Context, req CompileRequest) ([]byte, error) {
	compiler.mu.Lock()
	defer compiler.mu.Unlock()

	compiler.requests = append(compiler.requests, req)
	if compiler.err != nil {
		return nil, compiler.err
	}
	if req.PayloadModule == nil {
		return []byte("export {};\n"), nil
	}
	return []byte(*req.PayloadModule), nil
}

func TestEmitCompileRequest(t *testing.T) {
	fx := newFixture(t)
	payload := testPayload(32)

	cases := []struct {
		Variant  Variant
		Target   Target
		Platform Platform
		Stub     bool
	}{
		{Variant: NewVariant(FormatIIFE, EnvBrowser, entries), Target: TargetES2017, Platform: PlatformBrowser, Stub: true},
		{Variant: NewVariant(FormatESModule, EnvBrowser, entries), Target: TargetES2022, Platform: PlatformBrowser, Stub: true},
		{Variant: NewVariant(FormatCommonJS, EnvNode, entries), Target: TargetES2017, Platform: PlatformNode, Stub: true},
		{Variant: NewVariant(FormatESModule, EnvSlim, entries), Target: TargetES2022, Platform: PlatformBrowser, Stub: false},
	}

	for _, tc := range cases {
		t.Run(tc.Variant.Dir, func(t *testing.T) {
			compiler := new(recordingCompiler)
			emitter := Emitter{Compiler: compiler, SourceDir: fx.Source, GlobalName: "bindings_wasm", Banner: "/*! test */"}

			job := Job{Variant: tc.Variant, Root: fx.Dist}
			if tc.Variant.Embed() {
				delivery, err := Select(tc.Variant.Environment, "bindings_wasm_bg.wasm")
				require.NoError(t, err)
				job.Delivery = delivery
			}

			result, err := emitter.Emit(context.Background(), job, payload)
			require.NoError(t, err)
			require.Equal(t, job.Outfile(), result.Module)

			require.Len(t, compiler.requests, 1)
			req := compiler.requests[0]

			require.Equal(t, filepath.Join(fx.Source, tc.Variant.Entry), req.Entry)
			require.Equal(t, tc.Target, req.Target)
			require.Equal(t, tc.Platform, req.Platform)
			require.Equal(t, tc.Variant.Format, req.Format)
			require.Equal(t, "bindings_wasm", req.GlobalName)
			require.Equal(t, "/*! test */", req.Banner)
			require.NotNil(t, req.Rewrite)
			require.Equal(t, tc.Stub, req.PayloadModule != nil)

			require.FileExists(t, job.Outfile())
		})
	}
}

func TestEmitSiblingWritesPayloadAtReference(t *testing.T) {
	fx := newFixture(t)
	payload := testPayload(128)

	delivery, err := Select(EnvNode, "bindings_wasm_bg.wasm")
	require.NoError(t, err)

	job := Job{Variant: NewVariant(FormatCommonJS, EnvNode, entries), Delivery: delivery, Root: fx.Dist}

	result, err := Emitter{Compiler: new(recordingCompiler), SourceDir: fx.Source}.Emit(context.Background(), job, payload)
	require.NoError(t, err)

	require.Equal(t, filepath.Join(fx.Dist, "bindings_wasm_bg.wasm"), result.Payload)
	require.Equal(t, payload, readFile(t, result.Payload))
	require.Equal(t, filepath.Join(fx.Dist, "node", "index.cjs"), result.Module)
}

func TestEmitCompilationErrorCarriesVariant(t *testing.T) {
	fx := newFixture(t)

	compiler := &recordingCompiler{err: &CompilationError{Messages: []string{"syntax error"}}}
	job := Job{Variant: NewVariant(FormatCommonJS, EnvSlim, entries), Root: fx.Dist}

	_, err := Emitter{Compiler: compiler, SourceDir: fx.Source}.Emit(context.Background(), job, nil)
	require.EqualError(t, err, "failed to compile variant cjs-slim: syntax error")

	_, statErr := os.Stat(job.Outfile())
	require.True(t, errors.Is(statErr, os.ErrNotExist))
}

type staticCompiler string

func (compiler staticCompiler) Compile(context.Context, CompileRequest) ([]byte, error) {
	return []byte(compiler), nil
}

func TestEmitRejectsUnreferencedPayload(t *testing.T) {
	fx := newFixture(t)

	for _, env := range []Environment{EnvBrowser, EnvNode} {
		delivery, err := Select(env, "bindings_wasm_bg.wasm")
		require.NoError(t, err)

		job := Job{Variant: NewVariant(FormatCommonJS, env, entries), Delivery: delivery, Root: fx.Dist}

		_, err = Emitter{Compiler: staticCompiler("module.exports = {};"), SourceDir: fx.Source}.Emit(context.Background(), job, testPayload(16))

		var compileErr *CompilationError
		require.True(t, errors.As(err, &compileErr), "%s: %v", env, err)
		require.Equal(t, job.Variant.Dir, compileErr.Variant)
	}

	_, err := os.Stat(filepath.Join(fx.Dist, "bindings_wasm_bg.wasm"))
	require.True(t, errors.Is(err, os.ErrNotExist))
}
