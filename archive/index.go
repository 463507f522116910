package archive

import (
	"fmt"
	"io"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"github.com/meigma/warexec/internal/decompress"
	"github.com/meigma/warexec/internal/sizing"
)

// Path conventions recognized inside the outer archive.
const (
	ClassesDir    = "WEB-INF/classes/"
	LibDir        = "WEB-INF/lib/"
	ClassSuffix   = ".class"
	LibrarySuffix = ".jar"
)

// Kind classifies an indexed entry or a root.
type Kind uint8

const (
	// KindClass marks compiled code units under WEB-INF/classes/.
	KindClass Kind = iota + 1

	// KindLibrary marks dependency archives under WEB-INF/lib/.
	KindLibrary
)

// String returns the human-readable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindClass:
		return "classes"
	case KindLibrary:
		return "library"
	default:
		return "unknown"
	}
}

// Classify reports the kind of an archive entry name.
// ok is false for entries the index ignores.
func Classify(name string) (kind Kind, ok bool) {
	switch {
	case strings.HasPrefix(name, ClassesDir) && strings.HasSuffix(name, ClassSuffix):
		return KindClass, true
	case strings.HasPrefix(name, LibDir) && strings.HasSuffix(name, LibrarySuffix):
		return KindLibrary, true
	default:
		return 0, false
	}
}

// Entry describes an indexed archive entry.
type Entry struct {
	// Path is the internal path in the outer archive.
	Path string

	// Kind is the classification of the entry.
	Kind Kind

	// Method is the zip compression method.
	Method uint16

	// Size is the uncompressed size in bytes.
	Size uint64

	// CompressedSize is the stored size in bytes.
	CompressedSize uint64

	// ModTime is the entry's modification time.
	ModTime time.Time

	file *zip.File
}

// Location returns the address of the entry.
func (e Entry) Location() Location {
	return Location{Path: e.Path}
}

// Root is one element of the ordered resolution roots.
type Root struct {
	Kind     Kind
	Location Location
}

// Index is the entry table of an outer archive.
//
// Index owns the archive handle passed to New (when it implements io.Closer)
// or opened by Open, and releases it on Close. The table is immutable, so
// lookups are safe from any goroutine; streams opened from it share the
// underlying reader and should be consumed by one goroutine at a time.
type Index struct {
	name            string
	src             io.ReaderAt
	closer          io.Closer
	zr              *zip.Reader
	manifest        *Manifest
	mainClass       string
	entries         []Entry
	byPath          map[string]int
	roots           []Root
	maxManifestSize uint64
	decoderOpts     []decompress.Option
	pool            *decompress.Pool
	logger          *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// log returns the logger, falling back to a discard logger if nil.
func (idx *Index) log() *slog.Logger {
	if idx.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return idx.logger
}

// Open opens the archive at path and builds its index.
//
// The file stays open until Close. If construction fails the file is closed
// before Open returns.
func Open(path string, opts ...Option) (*Index, error) {
	f, err := os.Open(path) //nolint:gosec // archive path is chosen by the caller
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArchiveFormat, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %w", ErrArchiveFormat, err)
	}
	if !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrArchiveFormat, path)
	}
	return New(f, info.Size(), append([]Option{WithName(path)}, opts...)...)
}

// New builds an index over the archive bytes in r.
//
// If r implements io.Closer, the index takes ownership of it: r is closed by
// Close, or before New returns when construction fails.
func New(r io.ReaderAt, size int64, opts ...Option) (*Index, error) {
	idx := &Index{
		src:             r,
		byPath:          make(map[string]int),
		maxManifestSize: DefaultMaxManifestSize,
	}
	if c, ok := r.(io.Closer); ok {
		idx.closer = c
	}
	for _, opt := range opts {
		opt(idx)
	}
	if err := idx.build(size); err != nil {
		if idx.closer != nil {
			_ = idx.closer.Close()
		}
		return nil, err
	}
	idx.log().Debug("archive indexed",
		"archive", idx.name,
		"main_class", idx.mainClass,
		"entries", len(idx.entries),
		"roots", len(idx.roots))
	return idx, nil
}

func (idx *Index) build(size int64) error {
	zr, err := zip.NewReader(idx.src, size)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrArchiveFormat, err)
	}
	idx.pool = decompress.NewPool(idx.decoderOpts...)
	idx.pool.Register(zr)
	idx.zr = zr

	if err := idx.readManifest(); err != nil {
		return err
	}

	hasClasses := false
	var libs []Root
	for _, f := range zr.File {
		kind, ok := Classify(f.Name)
		if !ok {
			continue
		}
		if _, dup := idx.byPath[f.Name]; dup {
			continue
		}
		idx.byPath[f.Name] = len(idx.entries)
		idx.entries = append(idx.entries, Entry{
			Path:           f.Name,
			Kind:           kind,
			Method:         f.Method,
			Size:           f.UncompressedSize64,
			CompressedSize: f.CompressedSize64,
			ModTime:        f.Modified,
			file:           f,
		})
		switch kind {
		case KindClass:
			hasClasses = true
		case KindLibrary:
			libs = append(libs, Root{Kind: KindLibrary, Location: Location{Path: f.Name}})
		}
	}

	if hasClasses {
		idx.roots = append(idx.roots, Root{Kind: KindClass, Location: Location{Path: ClassesDir}})
	}
	idx.roots = append(idx.roots, libs...)
	return nil
}

func (idx *Index) readManifest() error {
	f := idx.manifestFile()
	if f == nil {
		return fmt.Errorf("%w: %s attribute is not found: archive has no %s",
			ErrConfiguration, MainClassAttribute, ManifestPath)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrArchiveFormat, ManifestPath, err)
	}
	defer rc.Close()

	data, err := sizing.ReadAllWithLimit(rc, idx.maxManifestSize, ErrSizeOverflow)
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", ErrArchiveFormat, ManifestPath, err)
	}
	m, err := parseManifestBytes(data)
	if err != nil {
		return err
	}
	idx.manifest = m

	mainClass, _ := m.Get(MainClassAttribute)
	mainClass = strings.TrimSpace(mainClass)
	if mainClass == "" {
		return fmt.Errorf("%w: %s attribute is not found in manifest", ErrConfiguration, MainClassAttribute)
	}
	idx.mainClass = mainClass
	return nil
}

// manifestFile finds the manifest entry, preferring an exact name match.
func (idx *Index) manifestFile() *zip.File {
	var folded *zip.File
	for _, f := range idx.zr.File {
		if f.Name == ManifestPath {
			return f
		}
		if folded == nil && strings.EqualFold(f.Name, ManifestPath) {
			folded = f
		}
	}
	return folded
}

// Name returns the archive name (the file path when opened with Open).
func (idx *Index) Name() string {
	return idx.name
}

// MainClass returns the War-Main-Class attribute. It is never empty.
func (idx *Index) MainClass() string {
	return idx.mainClass
}

// Manifest returns the parsed manifest main section.
func (idx *Index) Manifest() *Manifest {
	return idx.manifest
}

// Roots returns the resolution roots in search order: the classes root first
// (when any class entry exists), then one root per library in archive order.
func (idx *Index) Roots() []Root {
	roots := make([]Root, len(idx.roots))
	copy(roots, idx.roots)
	return roots
}

// Len returns the number of indexed entries.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Lookup returns the indexed entry at path.
func (idx *Index) Lookup(path string) (Entry, bool) {
	i, ok := idx.byPath[path]
	if !ok {
		return Entry{}, false
	}
	return idx.entries[i], true
}

// Entries returns an iterator over indexed entries in archive order.
func (idx *Index) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, e := range idx.entries {
			if !yield(e) {
				return
			}
		}
	}
}

// OpenEntry returns a fresh stream over the uncompressed content of the
// indexed entry at path.
//
// Each call is independent; streams carry no shared read position.
func (idx *Index) OpenEntry(path string) (io.ReadCloser, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return nil, &fs.PathError{Op: "open", Path: path, Err: ErrClosed}
	}

	e, ok := idx.Lookup(path)
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: ErrNotFound}
	}
	rc, err := e.file.Open()
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: path, Err: err}
	}
	return rc, nil
}

// Section returns a random-access view of the raw bytes of a stored
// (uncompressed) entry, read in place from the outer archive.
// ok is false when the entry is compressed.
func (idx *Index) Section(path string) (section *io.SectionReader, ok bool, err error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return nil, false, &fs.PathError{Op: "section", Path: path, Err: ErrClosed}
	}

	e, found := idx.Lookup(path)
	if !found {
		return nil, false, &fs.PathError{Op: "section", Path: path, Err: ErrNotFound}
	}
	if e.Method != zip.Store {
		return nil, false, nil
	}
	offset, err := e.file.DataOffset()
	if err != nil {
		return nil, false, &fs.PathError{Op: "section", Path: path, Err: err}
	}
	length, err := sizing.ToInt64(e.CompressedSize, ErrSizeOverflow)
	if err != nil {
		return nil, false, &fs.PathError{Op: "section", Path: path, Err: err}
	}
	return io.NewSectionReader(idx.src, offset, length), true, nil
}

// ConfigureReader installs the index's decompressors on a nested archive
// reader so nested entries support the same compression methods.
func (idx *Index) ConfigureReader(zr *zip.Reader) {
	idx.pool.Register(zr)
}

// Decompressor returns the decoder for a zip compression method, or nil when
// the method is not supported.
func (idx *Index) Decompressor(method uint16) zip.Decompressor {
	switch method {
	case zip.Store:
		return io.NopCloser
	case zip.Deflate:
		return flate.NewReader
	case decompress.MethodZstd:
		return idx.pool.Decompressor()
	default:
		return nil
	}
}

// Closed reports whether Close has been called.
func (idx *Index) Closed() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.closed
}

// Close releases the archive handle. Calls after the first return nil and
// have no effect.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return nil
	}
	idx.closed = true
	if idx.closer == nil {
		return nil
	}
	return idx.closer.Close()
}
