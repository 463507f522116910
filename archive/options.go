package archive

import (
	"log/slog"

	"github.com/meigma/warexec/internal/decompress"
)

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(idx *Index) {
		idx.logger = logger
	}
}

// WithName sets the name reported by Index.Name.
// Open uses the file path by default.
func WithName(name string) Option {
	return func(idx *Index) {
		idx.name = name
	}
}

// WithMaxManifestSize limits how many manifest bytes are read.
// Set limit to 0 to disable the limit.
func WithMaxManifestSize(limit uint64) Option {
	return func(idx *Index) {
		idx.maxManifestSize = limit
	}
}

// WithMaxDecoderMemory limits the memory used by zstd decoders.
// Set limit to 0 to disable the limit.
func WithMaxDecoderMemory(limit uint64) Option {
	return func(idx *Index) {
		idx.decoderOpts = append(idx.decoderOpts, decompress.WithMaxDecoderMemory(limit))
	}
}
