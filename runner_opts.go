package warexec

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/meigma/warexec/archive"
	"github.com/meigma/warexec/loader"
	"github.com/meigma/warexec/vfs"
)

// Option configures a Runner.
type Option func(*Runner) error

// --- Environment Options ---

// WithParent sets the environment consulted before the archive. Names it
// resolves are never taken from the archive.
func WithParent(env loader.Env) Option {
	return func(r *Runner) error {
		if env == nil {
			return errors.New("parent environment must not be nil")
		}
		r.parent = env
		return nil
	}
}

// WithHost uses the programs linked into the binary and a resource
// filesystem as the parent environment. Either argument may be nil.
func WithHost(programs *loader.Registry, resources fs.FS) Option {
	return func(r *Runner) error {
		r.parent = loader.NewHost(programs, resources)
		return nil
	}
}

// WithDefiner sets how code units found in the archive become programs.
// A *loader.Registry is the usual choice.
func WithDefiner(d loader.Definer) Option {
	return func(r *Runner) error {
		if d == nil {
			return errors.New("definer must not be nil")
		}
		r.definer = d
		return nil
	}
}

// --- Entry Point Options ---

// WithMainClass overrides the archive's War-Main-Class attribute.
// The archive must still carry the attribute.
func WithMainClass(name string) Option {
	return func(r *Runner) error {
		if name == "" {
			return errors.New("main class must not be empty")
		}
		r.mainClass = name
		return nil
	}
}

// --- Limit Options ---

// WithMaxManifestSize limits the size of META-INF/MANIFEST.MF.
// Set limit to 0 to disable the limit.
func WithMaxManifestSize(limit uint64) Option {
	return func(r *Runner) error {
		r.archiveOpts = append(r.archiveOpts, archive.WithMaxManifestSize(limit))
		return nil
	}
}

// WithMaxDecoderMemory limits the memory a zstd decoder may allocate.
// Set limit to 0 to disable the limit.
func WithMaxDecoderMemory(limit uint64) Option {
	return func(r *Runner) error {
		r.archiveOpts = append(r.archiveOpts, archive.WithMaxDecoderMemory(limit))
		return nil
	}
}

// WithMaxUnitSize limits the size of a single code unit.
// Set limit to 0 to disable the limit.
func WithMaxUnitSize(limit uint64) Option {
	return func(r *Runner) error {
		r.loaderOpts = append(r.loaderOpts, loader.WithMaxUnitSize(limit))
		return nil
	}
}

// WithMaxLibrarySize limits the size of a compressed nested jar, which is
// inflated into memory while it is read.
// Set limit to 0 to disable the limit.
func WithMaxLibrarySize(limit uint64) Option {
	return func(r *Runner) error {
		r.resolverOpts = append(r.resolverOpts, vfs.WithMaxLibrarySize(limit))
		return nil
	}
}

// --- Logging Options ---

// WithLogger sets the logger passed to every component.
// A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) error {
		r.logger = logger
		return nil
	}
}
