package loader

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/meigma/warexec/internal/pathutil"
)

// Env is a code-resolution environment consulted before a loader's own roots.
//
// Both methods return an error matching ErrNotFound when the environment
// does not know the name; any other error aborts resolution.
type Env interface {
	FindProgram(name string) (Program, error)
	OpenResource(name string) (io.ReadCloser, error)
}

// NoEnv resolves nothing.
var NoEnv Env = noEnv{}

type noEnv struct{}

func (noEnv) FindProgram(string) (Program, error) { return nil, ErrNotFound }

func (noEnv) OpenResource(string) (io.ReadCloser, error) { return nil, ErrNotFound }

// Host is the environment of the running process: programs linked into the
// binary and resources from a filesystem (often an embed.FS).
type Host struct {
	programs  *Registry
	resources fs.FS
}

var _ Env = (*Host)(nil)

// NewHost returns a Host. Either argument may be nil.
func NewHost(programs *Registry, resources fs.FS) *Host {
	return &Host{programs: programs, resources: resources}
}

// FindProgram returns the linked-in program registered under name.
func (h *Host) FindProgram(name string) (Program, error) {
	if h.programs == nil {
		return nil, ErrNotFound
	}
	f, ok := h.programs.Lookup(name)
	if !ok {
		return nil, ErrNotFound
	}
	return f(&Unit{Name: name})
}

// OpenResource opens name from the host filesystem.
func (h *Host) OpenResource(name string) (io.ReadCloser, error) {
	if h.resources == nil {
		return nil, ErrNotFound
	}
	path, ok := pathutil.ResourcePath(name)
	if !ok {
		return nil, ErrNotFound
	}
	f, err := h.resources.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("open %s: is a directory: %w", name, ErrNotFound)
	}
	return f, nil
}
