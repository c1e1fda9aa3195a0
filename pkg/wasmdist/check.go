package wasmdist

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"unicode/utf8"

	"github.com/davidmdm/x/xerr"

	"github.com/davidmdm/wasmdist/internal"
	"github.com/davidmdm/wasmdist/internal/text"
)

type DriftKind string

const (
	DriftMissing  DriftKind = "missing"
	DriftModified DriftKind = "modified"
	DriftStale    DriftKind = "stale"
)

// Drift is a file under the dist root that does not match a fresh build.
type Drift struct {
	Path string
	Kind DriftKind
	// Diff is a unified diff for modified text files.
	Diff string
}

type CheckParams struct {
	Params
	Context int
	Diff    text.DiffFunc
}

// Check builds the matrix into a scratch directory and compares it with the
// existing dist root. It never writes to the dist root.
func Check(ctx context.Context, params CheckParams) (drifts []Drift, err error) {
	scratch, err := os.MkdirTemp("", "wasmdist-check-*")
	if err != nil {
		return nil, &FilesystemError{Op: "create scratch directory", Path: os.TempDir(), Err: err}
	}
	defer func() {
		err = xerr.MultiErrFrom("", err, os.RemoveAll(scratch))
	}()

	dist := params.DistRoot
	build := params.Params
	build.DistRoot = scratch

	if _, err := Build(ctx, build); err != nil {
		return nil, err
	}

	diff := params.Diff
	if diff == nil {
		diff = text.Diff
	}

	var produced []string
	walkErr := filepath.WalkDir(scratch, func(path string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return err
		}
		rel, err := filepath.Rel(scratch, path)
		if err != nil {
			return err
		}
		produced = append(produced, rel)

		expected, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		actual, err := os.ReadFile(filepath.Join(dist, rel))
		if errors.Is(err, fs.ErrNotExist) {
			drifts = append(drifts, Drift{Path: rel, Kind: DriftMissing})
			return nil
		}
		if err != nil {
			return err
		}

		if internal.Checksum(expected) == internal.Checksum(actual) {
			return nil
		}

		drift := Drift{Path: rel, Kind: DriftModified}
		if filepath.Ext(rel) != ".wasm" && utf8.Valid(expected) && utf8.Valid(actual) {
			drift.Diff = diff(
				text.File{Name: filepath.Join(dist, rel), Content: string(actual)},
				text.File{Name: "expected/" + filepath.ToSlash(rel), Content: string(expected)},
				params.Context,
			)
		}
		drifts = append(drifts, drift)

		return nil
	})
	if walkErr != nil {
		return nil, &FilesystemError{Op: "compare", Path: dist, Err: walkErr}
	}

	for _, variant := range params.Matrix {
		root := filepath.Join(dist, variant.Dir)
		err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if errors.Is(err, fs.ErrNotExist) && path == root {
				return fs.SkipDir
			}
			if err != nil || entry.IsDir() {
				return err
			}
			rel, err := filepath.Rel(dist, path)
			if err != nil {
				return err
			}
			if !slices.Contains(produced, rel) {
				drifts = append(drifts, Drift{Path: rel, Kind: DriftStale})
			}
			return nil
		})
		if err != nil {
			return nil, &FilesystemError{Op: "compare", Path: root, Err: err}
		}
	}

	slices.SortFunc(drifts, func(a, b Drift) int {
		switch {
		case a.Path < b.Path:
			return -1
		case a.Path > b.Path:
			return 1
		default:
			return 0
		}
	})

	return drifts, nil
}
