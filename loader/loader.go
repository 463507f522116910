package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/meigma/warexec/archive"
	"github.com/meigma/warexec/internal/pathutil"
	"github.com/meigma/warexec/internal/sizing"
	"github.com/meigma/warexec/vfs"
)

// DefaultMaxUnitSize bounds the size of a single code unit (64MB).
const DefaultMaxUnitSize = 64 << 20

// Opener opens a stream for an address. *vfs.Mux implements it.
type Opener interface {
	Open(addr string) (io.ReadCloser, error)
}

// Loader resolves names against a parent environment and then against an
// ordered list of archive sources.
//
// A Loader is not safe for concurrent resolution; see package vfs.
type Loader struct {
	parent      Env
	sources     []vfs.Source
	opener      Opener
	definer     Definer
	mainClass   string
	closer      io.Closer
	maxUnitSize uint64
	logger      *slog.Logger
	vfsOpts     []vfs.Option

	mu      sync.Mutex
	closed  bool
	defined map[string]Program
}

var _ Env = (*Loader)(nil)

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithDefiner sets how resolved units become programs.
// The default definer reports ErrUnlinked for every unit.
func WithDefiner(d Definer) Option {
	return func(l *Loader) {
		l.definer = d
	}
}

// WithMainClass sets the entry point run by Execute.
// Open uses the archive's War-Main-Class by default.
func WithMainClass(name string) Option {
	return func(l *Loader) {
		l.mainClass = name
	}
}

// WithCloser sets a resource released by Close.
func WithCloser(c io.Closer) Option {
	return func(l *Loader) {
		l.closer = c
	}
}

// WithMaxUnitSize limits the size of a code unit read from the archive.
// Set limit to 0 to disable the limit.
func WithMaxUnitSize(limit uint64) Option {
	return func(l *Loader) {
		l.maxUnitSize = limit
	}
}

// WithResolverOptions configures the resolver built by Open.
func WithResolverOptions(opts ...vfs.Option) Option {
	return func(l *Loader) {
		l.vfsOpts = append(l.vfsOpts, opts...)
	}
}

// New creates a Loader that consults parent first and then sources in order,
// opening located units through opener. A nil parent is treated as NoEnv.
func New(parent Env, sources []vfs.Source, opener Opener, opts ...Option) *Loader {
	if parent == nil {
		parent = NoEnv
	}
	l := &Loader{
		parent:      parent,
		sources:     sources,
		opener:      opener,
		definer:     NewRegistry(),
		maxUnitSize: DefaultMaxUnitSize,
		defined:     make(map[string]Program),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open creates a Loader over the roots of idx and takes ownership of idx:
// closing the loader closes the index.
func Open(parent Env, idx *archive.Index, opts ...Option) (*Loader, error) {
	base := []Option{WithMainClass(idx.MainClass()), WithCloser(idx)}
	l := New(parent, nil, nil, append(base, opts...)...)

	r := vfs.NewResolver(idx, append([]vfs.Option{vfs.WithLogger(l.logger)}, l.vfsOpts...)...)
	mux := vfs.NewMux()
	if err := r.Register(mux); err != nil {
		_ = idx.Close()
		return nil, err
	}
	l.sources = vfs.Sources(r)
	l.opener = mux
	return l, nil
}

// log returns the logger, falling back to a discard logger if nil.
func (l *Loader) log() *slog.Logger {
	if l.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l.logger
}

// MainClass returns the entry point run by Execute.
func (l *Loader) MainClass() string {
	return l.mainClass
}

// Roots returns the roots searched after the parent, in order.
func (l *Loader) Roots() []archive.Root {
	roots := make([]archive.Root, len(l.sources))
	for i, s := range l.sources {
		roots[i] = s.Root()
	}
	return roots
}

func (l *Loader) checkOpen() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	return nil
}

// LoadProgram resolves name to a Program: the parent first, then the
// archive roots. Programs defined from the archive are reused by later calls.
func (l *Loader) LoadProgram(name string) (Program, error) {
	if err := l.checkOpen(); err != nil {
		return nil, err
	}

	p, err := l.parent.FindProgram(name)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	l.mu.Lock()
	p, ok := l.defined[name]
	l.mu.Unlock()
	if ok {
		return p, nil
	}

	u, err := l.FindUnit(name)
	if err != nil {
		return nil, err
	}
	p, err = l.definer.Define(u)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.defined[name] = p
	l.mu.Unlock()
	l.log().Debug("program defined", "name", name, "location", u.Location.String(), "size", len(u.Code))
	return p, nil
}

// FindProgram implements Env, so a Loader can be the parent of another.
func (l *Loader) FindProgram(name string) (Program, error) {
	return l.LoadProgram(name)
}

// FindUnit resolves a class name against the archive roots only and returns
// the unit's bytes. The parent is not consulted.
func (l *Loader) FindUnit(name string) (*Unit, error) {
	path, ok := pathutil.ClassPath(name)
	if !ok {
		return nil, fmt.Errorf("load %s: %w", name, ErrNotFound)
	}
	loc, err := l.locate(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	rc, err := l.opener.Open(loc.String())
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	defer rc.Close()

	code, err := sizing.ReadAllWithLimit(rc, l.maxUnitSize, ErrSizeOverflow)
	if err != nil {
		return nil, fmt.Errorf("load %s from %s: %w", name, loc, err)
	}
	return &Unit{Name: name, Location: loc, Code: code}, nil
}

// FindResource returns the location of the first root holding name.
// The parent is not consulted.
func (l *Loader) FindResource(name string) (archive.Location, error) {
	path, ok := pathutil.ResourcePath(name)
	if !ok {
		return archive.Location{}, fmt.Errorf("find %s: %w", name, ErrNotFound)
	}
	loc, err := l.locate(path)
	if err != nil {
		return archive.Location{}, fmt.Errorf("find %s: %w", name, err)
	}
	return loc, nil
}

// FindResources returns the locations of name in every root that holds it,
// in root order. An empty result is not an error.
func (l *Loader) FindResources(name string) ([]archive.Location, error) {
	if err := l.checkOpen(); err != nil {
		return nil, err
	}
	path, ok := pathutil.ResourcePath(name)
	if !ok {
		return nil, nil
	}
	var locs []archive.Location
	for _, s := range l.sources {
		loc, err := s.Locate(path)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		locs = append(locs, loc)
	}
	return locs, nil
}

// OpenResource opens name from the parent or, failing that, from the first
// archive root holding it.
func (l *Loader) OpenResource(name string) (io.ReadCloser, error) {
	if err := l.checkOpen(); err != nil {
		return nil, err
	}
	rc, err := l.parent.OpenResource(name)
	if err == nil {
		return rc, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	loc, err := l.FindResource(name)
	if err != nil {
		return nil, err
	}
	return l.opener.Open(loc.String())
}

// locate returns the first source location for path. Misses in individual
// sources are not errors; only exhaustion of all sources is.
func (l *Loader) locate(path string) (archive.Location, error) {
	if err := l.checkOpen(); err != nil {
		return archive.Location{}, err
	}
	for _, s := range l.sources {
		loc, err := s.Locate(path)
		if err == nil {
			return loc, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return archive.Location{}, err
		}
	}
	return archive.Location{}, ErrNotFound
}

// Execute resolves the main class and runs it with args. The program sees
// this loader through FromContext. Errors and panics from the program reach
// the caller unchanged.
func (l *Loader) Execute(ctx context.Context, args []string) error {
	if l.mainClass == "" {
		return fmt.Errorf("%w: no main class", ErrConfiguration)
	}
	p, err := l.LoadProgram(l.mainClass)
	if err != nil {
		return err
	}
	l.log().Debug("executing", "main_class", l.mainClass, "args", len(args))
	return p.Main(WithLoader(ctx, l), args)
}

// Close releases the archive. Calls after the first return nil.
func (l *Loader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	clear(l.defined)
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
