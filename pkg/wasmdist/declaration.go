package wasmdist

import (
	"os"
	"path/filepath"
	"sync"
)

// PropagateDeclaration copies the declaration file byte-for-byte into
// <root>/types/<subpath>/ under its original name. Running it again with the
// same inputs leaves the filesystem unchanged.
func PropagateDeclaration(declaration, root, subpath string) (string, error) {
	data, err := os.ReadFile(declaration)
	if err != nil {
		return "", &FilesystemError{Op: "read declaration", Path: declaration, Err: err}
	}

	dir := filepath.Join(root, "types", subpath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &FilesystemError{Op: "create directory", Path: dir, Err: err}
	}

	target := filepath.Join(dir, filepath.Base(declaration))
	if err := writeFileAtomic(target, data); err != nil {
		return "", err
	}

	return target, nil
}

// Propagator propagates a declaration at most once per output root. It is safe
// for concurrent use.
type Propagator struct {
	Declaration string
	Subpath     string

	mu    sync.Mutex
	roots map[string]*propagation
}

type propagation struct {
	once   sync.Once
	target string
	err    error
}

func (propagator *Propagator) Propagate(root string) (string, error) {
	if propagator.Declaration == "" {
		return "", nil
	}

	key := filepath.Clean(root)

	propagator.mu.Lock()
	if propagator.roots == nil {
		propagator.roots = map[string]*propagation{}
	}
	state, ok := propagator.roots[key]
	if !ok {
		state = new(propagation)
		propagator.roots[key] = state
	}
	propagator.mu.Unlock()

	state.once.Do(func() {
		state.target, state.err = PropagateDeclaration(propagator.Declaration, key, propagator.Subpath)
	})

	return state.target, state.err
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return &FilesystemError{Op: "create temp file for", Path: path, Err: err}
	}

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmp.Name(), 0o644)
	}
	if err == nil {
		err = os.Rename(tmp.Name(), path)
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return &FilesystemError{Op: "write", Path: path, Err: err}
	}

	return nil
}
