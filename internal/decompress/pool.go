// Package decompress provides pooled zstd decoders for zip entries stored
// with the zstd compression method.
package decompress

import (
	"io"
	"sync"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
)

// MethodZstd is the zip compression method id for zstd (APPNOTE 4.4.5).
const MethodZstd = zstd.ZipMethodWinZip

// DefaultMaxDecoderMemory is the default maximum decoder memory (256MB).
const DefaultMaxDecoderMemory = 256 << 20

// Pool manages reusable zstd decoders to reduce allocation overhead.
type Pool struct {
	pool             *sync.Pool
	maxDecoderMemory uint64
	lowmem           bool
}

// Option configures a Pool.
type Option func(*Pool)

// WithMaxDecoderMemory sets the maximum decoder memory limit.
// Set to 0 to disable the limit.
func WithMaxDecoderMemory(limit uint64) Option {
	return func(p *Pool) {
		p.maxDecoderMemory = limit
	}
}

// WithLowmem enables or disables low-memory mode for decoders.
func WithLowmem(enabled bool) Option {
	return func(p *Pool) {
		p.lowmem = enabled
	}
}

// NewPool creates a new pool for zstd decoders.
func NewPool(opts ...Option) *Pool {
	p := &Pool{maxDecoderMemory: DefaultMaxDecoderMemory}
	for _, opt := range opts {
		opt(p)
	}
	p.pool = &sync.Pool{
		New: func() any {
			dec, err := p.newDecoder(nil)
			if err != nil {
				return nil
			}
			return dec
		},
	}
	return p
}

// Register installs the pool as the zstd decompressor of zr.
func (p *Pool) Register(zr *zip.Reader) {
	zr.RegisterDecompressor(MethodZstd, p.Decompressor())
}

// Decompressor adapts the pool to the zip.Decompressor signature.
// Each returned reader holds one decoder until it is closed.
func (p *Pool) Decompressor() zip.Decompressor {
	return func(r io.Reader) io.ReadCloser {
		dec, release, err := p.Get(r)
		if err != nil {
			return errReader{err: err}
		}
		return &pooledReader{dec: dec, release: release}
	}
}

// Get returns a decoder configured to read from r.
// The caller must call the returned release function when done.
// If an error is returned, no release function needs to be called.
func (p *Pool) Get(r io.Reader) (*zstd.Decoder, func(), error) {
	value := p.pool.Get()
	dec, ok := value.(*zstd.Decoder)
	if !ok {
		// Pool's New function failed, try directly
		newDec, err := p.newDecoder(r)
		if err != nil {
			return nil, nil, err
		}
		return newDec, newDec.Close, nil
	}

	if err := dec.Reset(r); err != nil {
		dec.Close()
		newDec, err := p.newDecoder(r)
		if err != nil {
			return nil, nil, err
		}
		return newDec, newDec.Close, nil
	}

	return dec, func() {
		_ = dec.Reset(nil) //nolint:errcheck // clearing state before pool return
		p.pool.Put(dec)
	}, nil
}

// newDecoder creates a new zstd decoder with the configured memory limit.
// Decoders run synchronously; entries are consumed on the calling goroutine.
func (p *Pool) newDecoder(r io.Reader) (*zstd.Decoder, error) {
	opts := []zstd.DOption{
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(p.lowmem),
	}
	if p.maxDecoderMemory != 0 {
		opts = append(opts, zstd.WithDecoderMaxMemory(p.maxDecoderMemory))
	}
	return zstd.NewReader(r, opts...)
}

type pooledReader struct {
	dec     *zstd.Decoder
	release func()
}

func (r *pooledReader) Read(p []byte) (int, error) {
	if r.dec == nil {
		return 0, io.ErrClosedPipe
	}
	return r.dec.Read(p)
}

func (r *pooledReader) Close() error {
	if r.release != nil {
		r.release()
		r.release = nil
		r.dec = nil
	}
	return nil
}

type errReader struct {
	err error
}

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

func (r errReader) Close() error { return nil }
