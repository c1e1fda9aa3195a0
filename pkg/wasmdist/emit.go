package wasmdist

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/davidmdm/wasmdist/internal"
)

// Job is the ephemeral record of one variant's emission.
type Job struct {
	Variant  Variant
	Delivery Delivery
	Root     string
}

// Outfile is <root>/<dir>/<entry-name>.<ext>.
func (job Job) Outfile() string {
	return filepath.Join(job.Root, job.Variant.Dir, job.Variant.EntryName()+"."+job.Variant.Ext())
}

// PayloadFile is where sibling delivery writes the payload. It is empty for
// every other delivery kind.
func (job Job) PayloadFile() string {
	if job.Delivery.Kind != DeliverySibling {
		return ""
	}
	return filepath.Clean(filepath.Join(filepath.Dir(job.Outfile()), filepath.FromSlash(job.Delivery.Reference())))
}

type Result struct {
	Dir      string      `yaml:"dir"`
	Format   Format      `yaml:"format"`
	Env      Environment `yaml:"environment"`
	Delivery string      `yaml:"delivery"`
	Module   string      `yaml:"module"`
	Payload  string      `yaml:"payload,omitempty"`
	Size     int         `yaml:"size"`
}

type Emitter struct {
	Compiler   Compiler
	SourceDir  string
	GlobalName string
	Banner     string
}

func (emitter Emitter) Emit(ctx context.Context, job Job, payload []byte) (Result, error) {
	defer internal.DebugTimer(ctx, "emit "+job.Variant.Dir)()

	variant := job.Variant

	entry, err := filepath.Abs(filepath.Join(emitter.SourceDir, variant.Entry))
	if err != nil {
		return Result{}, &FilesystemError{Op: "resolve entry", Path: variant.Entry, Err: err}
	}

	outfile, err := filepath.Abs(job.Outfile())
	if err != nil {
		return Result{}, &FilesystemError{Op: "resolve output", Path: job.Outfile(), Err: err}
	}

	req := CompileRequest{
		Entry:      entry,
		Outfile:    outfile,
		Format:     variant.Format,
		Target:     TargetES2017,
		Platform:   PlatformBrowser,
		GlobalName: emitter.GlobalName,
		Banner:     emitter.Banner,
		Rewrite:    Rewrite,
	}
	if variant.Format == FormatESModule {
		req.Target = TargetES2022
	}
	if variant.Environment == EnvNode {
		req.Platform = PlatformNode
	}
	if module, ok := job.Delivery.Module(payload, variant.Format); ok {
		req.PayloadModule = &module
	}

	compiler := emitter.Compiler
	if compiler == nil {
		compiler = ESBuild{}
	}

	code, err := compiler.Compile(ctx, req)
	if err != nil {
		var compileErr *CompilationError
		if errors.As(err, &compileErr) {
			compileErr.Variant = variant.Dir
		}
		return Result{}, err
	}

	result := Result{
		Dir:      variant.Dir,
		Format:   variant.Format,
		Env:      variant.Environment,
		Delivery: job.Delivery.Kind.String(),
		Module:   job.Outfile(),
		Size:     len(code),
	}

	switch job.Delivery.Kind {
	case DeliveryInline:
		literal := strconv.Quote(base64.StdEncoding.EncodeToString(payload))
		if !bytes.Contains(code, []byte(literal)) {
			return Result{}, &CompilationError{Variant: variant.Dir, Messages: []string{"inlined payload missing from compiled module: is the .wasm import used by the entry?"}}
		}
	case DeliverySibling:
		if !bytes.Contains(code, []byte(strconv.Quote(job.Delivery.Reference()))) {
			return Result{}, &CompilationError{Variant: variant.Dir, Messages: []string{"payload reference missing from compiled module: is the .wasm import used by the entry?"}}
		}
		target := job.PayloadFile()
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return Result{}, &FilesystemError{Op: "create directory", Path: filepath.Dir(target), Err: err}
		}
		if err := writeFileAtomic(target, payload); err != nil {
			return Result{}, err
		}
		result.Payload = target
	}

	dir := filepath.Dir(job.Outfile())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, &FilesystemError{Op: "create directory", Path: dir, Err: err}
	}
	if err := writeFileAtomic(job.Outfile(), code); err != nil {
		return Result{}, err
	}

	internal.Logger(ctx).Info(
		"emitted variant",
		zap.String("variant", variant.Dir),
		zap.Stringer("delivery", job.Delivery.Kind),
		zap.String("module", job.Outfile()),
		zap.Int("bytes", len(code)),
	)

	return result, nil
}
