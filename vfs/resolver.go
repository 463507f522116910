package vfs

import (
	"bytes"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/klauspost/compress/zip"
	"golang.org/x/sync/singleflight"

	"github.com/meigma/warexec/archive"
	"github.com/meigma/warexec/internal/sizing"
)

// DefaultMaxLibrarySize bounds how large a compressed dependency archive may
// be when it has to be inflated into memory (512MB).
const DefaultMaxLibrarySize = 512 << 20

// Resolver opens war locations against an archive index.
//
// Every Open performs a fresh lookup and a fresh stream open; the only state
// kept between calls is the member listing of each dependency archive.
type Resolver struct {
	idx            *archive.Index
	maxLibrarySize uint64
	logger         *slog.Logger

	mu        sync.Mutex
	dirs      map[string]*directory
	loadGroup singleflight.Group
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithMaxLibrarySize limits the size of a compressed dependency archive that
// is inflated into memory to build its member listing. This happens once per
// library; later member opens stream from the library without buffering it.
// Set limit to 0 to disable the limit.
func WithMaxLibrarySize(limit uint64) Option {
	return func(r *Resolver) {
		r.maxLibrarySize = limit
	}
}

// NewResolver creates a Resolver over idx. The resolver does not own idx.
func NewResolver(idx *archive.Index, opts ...Option) *Resolver {
	r := &Resolver{
		idx:            idx,
		maxLibrarySize: DefaultMaxLibrarySize,
		dirs:           make(map[string]*directory),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// log returns the logger, falling back to a discard logger if nil.
func (r *Resolver) log() *slog.Logger {
	if r.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.logger
}

// Index returns the archive index the resolver reads from.
func (r *Resolver) Index() *archive.Index {
	return r.idx
}

// Open returns a stream positioned at the start of the uncompressed content
// of loc. Streams are not seekable and are independent of each other.
func (r *Resolver) Open(loc archive.Location) (io.ReadCloser, error) {
	if r.idx.Closed() {
		return nil, &fs.PathError{Op: "open", Path: loc.String(), Err: ErrClosed}
	}
	if !loc.Nested() {
		return r.idx.OpenEntry(loc.Path)
	}
	return r.openMember(loc)
}

// Handler adapts the resolver to a Mux handler for the war scheme.
func (r *Resolver) Handler() HandlerFunc {
	return func(addr string) (io.ReadCloser, error) {
		loc, err := archive.ParseLocation(addr)
		if err != nil {
			return nil, err
		}
		return r.Open(loc)
	}
}

// Register installs the resolver on m under the war scheme.
func (r *Resolver) Register(m *Mux) error {
	return m.Handle(archive.Scheme, r.Handler())
}

// Locate reports the location of member inside the dependency archive at
// libPath, or ErrNotFound when the archive does not list it.
func (r *Resolver) Locate(libPath, member string) (archive.Location, error) {
	dir, err := r.directory(libPath)
	if err != nil {
		return archive.Location{}, err
	}
	if _, ok := dir.index[member]; !ok {
		return archive.Location{}, ErrNotFound
	}
	return archive.Location{Path: libPath, Entry: member}, nil
}

// Members returns the member names of the dependency archive at libPath in
// archive order.
func (r *Resolver) Members(libPath string) ([]string, error) {
	dir, err := r.directory(libPath)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(dir.names))
	copy(names, dir.names)
	return names, nil
}

func (r *Resolver) openMember(loc archive.Location) (io.ReadCloser, error) {
	dir, err := r.directory(loc.Path)
	if err != nil {
		return nil, err
	}
	i, ok := dir.index[loc.Entry]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: loc.String(), Err: ErrNotFound}
	}

	if dir.zr == nil {
		return r.openSpan(loc, dir.spans[i])
	}
	if i >= len(dir.zr.File) || dir.zr.File[i].Name != loc.Entry {
		return nil, &fs.PathError{Op: "open", Path: loc.String(), Err: ErrNotFound}
	}
	rc, err := dir.zr.File[i].Open()
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: loc.String(), Err: err}
	}
	return rc, nil
}

// directory is the member listing of one dependency archive.
type directory struct {
	names []string
	index map[string]int // member name -> position in the archive's file list

	// zr reads a stored library in place; nil for compressed libraries.
	zr *zip.Reader

	// spans locate each member inside a compressed library's uncompressed
	// stream, by position in the archive's file list.
	spans []span
}

// span is the extent of one member in the uncompressed stream of a
// compressed library.
type span struct {
	offset           int64
	compressedSize   int64
	uncompressedSize uint64
	method           uint16
	crc32            uint32
}

func (r *Resolver) directory(libPath string) (*directory, error) {
	if r.idx.Closed() {
		return nil, &fs.PathError{Op: "open", Path: libPath, Err: ErrClosed}
	}
	if e, ok := r.idx.Lookup(libPath); !ok || e.Kind != archive.KindLibrary {
		return nil, &fs.PathError{Op: "open", Path: libPath, Err: ErrNotFound}
	}

	r.mu.Lock()
	dir, ok := r.dirs[libPath]
	r.mu.Unlock()
	if ok {
		return dir, nil
	}

	v, err, _ := r.loadGroup.Do(libPath, func() (any, error) {
		dir, err := r.loadDirectory(libPath)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.dirs[libPath] = dir
		r.mu.Unlock()
		return dir, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*directory), nil //nolint:errcheck // type assertion always succeeds when err is nil
}

func (r *Resolver) loadDirectory(libPath string) (*directory, error) {
	section, stored, err := r.idx.Section(libPath)
	if err != nil {
		return nil, err
	}

	var zr *zip.Reader
	if stored {
		zr, err = zip.NewReader(section, section.Size())
		if err != nil {
			return nil, &fs.PathError{Op: "open", Path: libPath, Err: fmt.Errorf("%w: %w", archive.ErrArchiveFormat, err)}
		}
		r.idx.ConfigureReader(zr)
	} else {
		zr, err = r.inflate(libPath)
		if err != nil {
			return nil, err
		}
	}

	dir := &directory{index: make(map[string]int, len(zr.File))}
	for i, f := range zr.File {
		if _, dup := dir.index[f.Name]; dup {
			continue
		}
		dir.index[f.Name] = i
		dir.names = append(dir.names, f.Name)
	}
	if stored {
		dir.zr = zr
	} else {
		dir.spans = make([]span, len(zr.File))
		for i, f := range zr.File {
			offset, err := f.DataOffset()
			if err != nil {
				return nil, &fs.PathError{Op: "open", Path: libPath, Err: fmt.Errorf("%w: %w", archive.ErrArchiveFormat, err)}
			}
			size, err := sizing.ToInt64(f.CompressedSize64, ErrSizeOverflow)
			if err != nil {
				return nil, &fs.PathError{Op: "open", Path: libPath, Err: err}
			}
			dir.spans[i] = span{
				offset:           offset,
				compressedSize:   size,
				uncompressedSize: f.UncompressedSize64,
				method:           f.Method,
				crc32:            f.CRC32,
			}
		}
	}
	r.log().Debug("library listed", "library", libPath, "members", len(dir.names), "stored", stored)
	return dir, nil
}

// openSpan streams one member of a compressed library. The library is
// decompressed up to the member's data and the member is decoded from there,
// so memory stays bounded by the member rather than the library.
func (r *Resolver) openSpan(loc archive.Location, s span) (io.ReadCloser, error) {
	dcomp := r.idx.Decompressor(s.method)
	if dcomp == nil {
		return nil, &fs.PathError{Op: "open", Path: loc.String(), Err: zip.ErrAlgorithm}
	}
	outer, err := r.idx.OpenEntry(loc.Path)
	if err != nil {
		return nil, err
	}
	if _, err := io.CopyN(io.Discard, outer, s.offset); err != nil {
		_ = outer.Close()
		return nil, &fs.PathError{Op: "open", Path: loc.String(), Err: fmt.Errorf("%w: %w", archive.ErrArchiveFormat, err)}
	}
	return &memberReader{
		rc:    dcomp(io.LimitReader(outer, s.compressedSize)),
		outer: outer,
		span:  s,
		hash:  crc32.NewIEEE(),
	}, nil
}

// memberReader decodes a member and verifies its size and checksum at EOF.
type memberReader struct {
	rc    io.ReadCloser
	outer io.ReadCloser
	span  span
	hash  hash.Hash32
	nread uint64
	err   error
}

func (m *memberReader) Read(p []byte) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	n, err := m.rc.Read(p)
	m.hash.Write(p[:n])
	m.nread += uint64(n)
	if m.nread > m.span.uncompressedSize {
		m.err = zip.ErrFormat
		return 0, m.err
	}
	if err == nil {
		return n, nil
	}
	if err == io.EOF {
		switch {
		case m.nread != m.span.uncompressedSize:
			err = io.ErrUnexpectedEOF
		case m.span.crc32 != 0 && m.hash.Sum32() != m.span.crc32:
			err = zip.ErrChecksum
		}
	}
	m.err = err
	return n, err
}

func (m *memberReader) Close() error {
	err := m.rc.Close()
	if cerr := m.outer.Close(); err == nil {
		err = cerr
	}
	return err
}

// inflate reads a compressed library into memory and opens it.
func (r *Resolver) inflate(libPath string) (*zip.Reader, error) {
	rc, err := r.idx.OpenEntry(libPath)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := sizing.ReadAllWithLimit(rc, r.maxLibrarySize, ErrSizeOverflow)
	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: libPath, Err: err}
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: libPath, Err: fmt.Errorf("%w: %w", archive.ErrArchiveFormat, err)}
	}
	r.idx.ConfigureReader(zr)
	return zr, nil
}
