package wasmdist

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/davidmdm/wasmdist/internal"
	"github.com/davidmdm/wasmdist/internal/wasm"
)

type Params struct {
	// Name is the global name attached by iife variants and used in bundle banners.
	Name        string
	SourceDir   string
	Matrix      Matrix
	Payload     []byte
	PayloadName string
	Declaration string
	// TypesSubpath is the directory under <dist>/types receiving the declaration.
	TypesSubpath string
	DistRoot     string
	// Version is the release version recorded in the report, empty when unknown.
	Version string
	Banner  string
	// Concurrency bounds how many variants are emitted at once. Zero runs every
	// variant concurrently and one runs them sequentially.
	Concurrency  int
	SkipValidate bool
	Compiler     Compiler
}

type Report struct {
	Name         string   `yaml:"name"`
	Version      string   `yaml:"version,omitempty"`
	Checksum     string   `yaml:"checksum"`
	Results      []Result `yaml:"variants"`
	Declarations []string `yaml:"declarations,omitempty"`
}

func (params Params) validate() error {
	if params.SourceDir == "" {
		return &ConfigError{Field: "source", Reason: "glue source directory is required"}
	}
	if params.DistRoot == "" {
		return &ConfigError{Field: "dist", Reason: "dist root is required"}
	}
	if filepath.Clean(params.DistRoot) == filepath.Clean(params.SourceDir) {
		return &ConfigError{Field: "dist", Value: params.DistRoot, Reason: "must differ from the source directory"}
	}
	if params.Concurrency < 0 {
		return &ConfigError{Field: "concurrency", Value: fmt.Sprint(params.Concurrency), Reason: "must not be negative"}
	}
	return params.Matrix.Validate()
}

// Plan resolves the delivery of every variant. It performs no writes, so a
// configuration error surfaces before any variant is emitted.
func Plan(params Params) ([]Job, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	jobs := make([]Job, len(params.Matrix))
	for i, variant := range params.Matrix {
		job := Job{Variant: variant, Root: params.DistRoot}
		if variant.Embed() {
			delivery, err := Select(variant.Environment, params.PayloadName)
			if err != nil {
				return nil, fmt.Errorf("variant %s: %w", variant.Dir, err)
			}
			job.Delivery = delivery
		}
		jobs[i] = job
	}

	return jobs, nil
}

// Build emits every variant of the matrix and propagates the declaration once
// per output root. The first failure cancels the remaining variants; output
// already written by a failed build is not cleaned up.
func Build(ctx context.Context, params Params) (*Report, error) {
	defer internal.DebugTimer(ctx, "build")()

	jobs, err := Plan(params)
	if err != nil {
		return nil, err
	}

	if !params.SkipValidate {
		if _, err := wasm.Inspect(ctx, params.Payload); err != nil {
			return nil, fmt.Errorf("invalid payload %s: %w", params.PayloadName, err)
		}
	}

	if err := os.MkdirAll(params.DistRoot, 0o755); err != nil {
		return nil, &FilesystemError{Op: "create directory", Path: params.DistRoot, Err: err}
	}

	emitter := Emitter{
		Compiler:   params.Compiler,
		SourceDir:  params.SourceDir,
		GlobalName: params.Name,
		Banner:     params.Banner,
	}

	propagator := Propagator{
		Declaration: params.Declaration,
		Subpath:     params.TypesSubpath,
	}

	logger := internal.Logger(ctx)

	var (
		results      = make([]Result, len(jobs))
		declarations = make([]string, len(jobs))
	)

	group, ctx := errgroup.WithContext(ctx)
	if params.Concurrency > 0 {
		group.SetLimit(params.Concurrency)
	}

	for i, job := range jobs {
		i, job := i, job
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			logger.Debug("emitting variant", zap.String("variant", job.Variant.Dir), zap.Stringer("delivery", job.Delivery.Kind))

			result, err := emitter.Emit(ctx, job, params.Payload)
			if err != nil {
				return fmt.Errorf("variant %s: %w", job.Variant.Dir, err)
			}
			results[i] = result

			target, err := propagator.Propagate(job.Root)
			if err != nil {
				return fmt.Errorf("failed to propagate declaration: %w", err)
			}
			declarations[i] = target

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	report := Report{
		Name:     params.Name,
		Version:  params.Version,
		Checksum: internal.Checksum(params.Payload),
		Results:  results,
	}

	seen := map[string]bool{}
	for _, target := range declarations {
		if target == "" || seen[target] {
			continue
		}
		seen[target] = true
		report.Declarations = append(report.Declarations, target)
	}

	logger.Info("build complete", zap.Int("variants", len(results)), zap.String("dist", params.DistRoot))

	return &report, nil
}
