package warexec

import (
	"context"
	"log/slog"

	"github.com/meigma/warexec/archive"
	"github.com/meigma/warexec/loader"
	"github.com/meigma/warexec/vfs"
)

// Runner opens archives and runs their entry points.
//
// A Runner holds configuration only; each Load or Run opens its own archive
// handle, so one Runner may serve several archives.
type Runner struct {
	logger *slog.Logger

	// Resolution environment
	parent    loader.Env
	definer   loader.Definer
	mainClass string

	// Options forwarded to the lower-level packages
	archiveOpts  []archive.Option
	loaderOpts   []loader.Option
	resolverOpts []vfs.Option
}

// NewRunner creates a Runner with the given options.
//
// Without [WithParent] or [WithHost] only the archive is searched. Without
// [WithDefiner] every unit found in the archive fails with [ErrUnlinked].
func NewRunner(opts ...Option) (*Runner, error) {
	r := &Runner{}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// log returns the logger, falling back to a discard logger if nil.
func (r *Runner) log() *slog.Logger {
	if r.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.logger
}

// Load opens the archive at path and returns a Loader that owns it.
// An empty path selects the running executable (see [DefaultArchivePath]).
// The caller must Close the Loader.
func (r *Runner) Load(path string) (*loader.Loader, error) {
	if path == "" {
		exe, err := DefaultArchivePath()
		if err != nil {
			return nil, err
		}
		path = exe
	}

	idx, err := archive.Open(path, r.archiveOptions()...)
	if err != nil {
		return nil, err
	}
	return loader.Open(r.parent, idx, r.loaderOptions()...)
}

// Run loads the archive at path, executes its entry point with args and
// closes the archive.
//
// An error returned by the entry point is returned unchanged; a Close error
// is reported only when the entry point succeeded. Panics are not recovered.
func (r *Runner) Run(ctx context.Context, path string, args []string) (err error) {
	l, err := r.Load(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := l.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return l.Execute(ctx, args)
}

// Run is shorthand for NewRunner(opts...) followed by Runner.Run.
func Run(ctx context.Context, path string, args []string, opts ...Option) error {
	r, err := NewRunner(opts...)
	if err != nil {
		return err
	}
	return r.Run(ctx, path, args)
}

func (r *Runner) archiveOptions() []archive.Option {
	opts := []archive.Option{archive.WithLogger(r.logger)}
	return append(opts, r.archiveOpts...)
}

func (r *Runner) loaderOptions() []loader.Option {
	opts := []loader.Option{
		loader.WithLogger(r.logger),
		loader.WithResolverOptions(r.resolverOpts...),
	}
	if r.definer != nil {
		opts = append(opts, loader.WithDefiner(r.definer))
	}
	if r.mainClass != "" {
		opts = append(opts, loader.WithMainClass(r.mainClass))
	}
	return append(opts, r.loaderOpts...)
}
