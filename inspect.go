package warexec

import (
	_ "crypto/sha256" // registers digest.Canonical
	"fmt"
	"sync"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/warexec/archive"
	"github.com/meigma/warexec/vfs"
)

// InspectResult describes an archive without running it.
type InspectResult struct {
	// Name is the archive path.
	Name string

	// MainClass is the entry point named by the manifest.
	MainClass string

	// Manifest holds the manifest main section.
	Manifest *archive.Manifest

	// Roots lists the resolution roots in search order.
	Roots []RootInfo

	// Entries lists the indexed entries in archive order.
	Entries []EntryInfo

	// Lazy computed stats
	statsOnce              sync.Once
	totalUncompressedSize  uint64
	totalCompressedSize    uint64
	compressionRatioResult float64
}

// RootInfo describes one resolution root.
type RootInfo struct {
	archive.Root

	// Members lists the names under the root. It is nil unless
	// InspectWithMembers was given.
	Members []string
}

// EntryInfo describes one indexed entry.
type EntryInfo struct {
	archive.Entry

	// Digest is the digest of the uncompressed content. It is empty when
	// InspectWithoutDigests was given.
	Digest digest.Digest
}

// EntryCount returns the number of indexed entries.
func (r *InspectResult) EntryCount() int {
	return len(r.Entries)
}

// TotalUncompressedSize returns the sum of all uncompressed entry sizes.
func (r *InspectResult) TotalUncompressedSize() uint64 {
	r.computeStats()
	return r.totalUncompressedSize
}

// TotalCompressedSize returns the sum of all stored entry sizes.
func (r *InspectResult) TotalCompressedSize() uint64 {
	r.computeStats()
	return r.totalCompressedSize
}

// CompressionRatio returns the ratio of compressed to uncompressed size.
// Returns 1.0 if the archive has no indexed entries.
func (r *InspectResult) CompressionRatio() float64 {
	r.computeStats()
	return r.compressionRatioResult
}

// computeStats computes aggregate statistics by iterating all entries.
func (r *InspectResult) computeStats() {
	r.statsOnce.Do(func() {
		for _, e := range r.Entries {
			r.totalUncompressedSize += e.Size
			r.totalCompressedSize += e.CompressedSize
		}
		if r.totalUncompressedSize > 0 {
			r.compressionRatioResult = float64(r.totalCompressedSize) / float64(r.totalUncompressedSize)
		} else {
			r.compressionRatioResult = 1.0
		}
	})
}

// InspectOption configures an Inspect operation.
type InspectOption func(*inspectConfig)

type inspectConfig struct {
	skipDigests bool
	members     bool
}

// InspectWithoutDigests skips reading entry content.
func InspectWithoutDigests() InspectOption {
	return func(cfg *inspectConfig) {
		cfg.skipDigests = true
	}
}

// InspectWithMembers lists the names under every root, reading the
// directory of each nested jar.
func InspectWithMembers() InspectOption {
	return func(cfg *inspectConfig) {
		cfg.members = true
	}
}

// Inspect opens the archive at path and reports its entry point, roots and
// indexed entries. The archive is closed before Inspect returns.
// An empty path selects the running executable.
func (r *Runner) Inspect(path string, opts ...InspectOption) (*InspectResult, error) {
	cfg := inspectConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

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
	defer idx.Close()

	result := &InspectResult{
		Name:      idx.Name(),
		MainClass: idx.MainClass(),
		Manifest:  idx.Manifest(),
		Entries:   make([]EntryInfo, 0, idx.Len()),
	}

	for e := range idx.Entries() {
		info := EntryInfo{Entry: e}
		if !cfg.skipDigests {
			info.Digest, err = entryDigest(idx, e.Path)
			if err != nil {
				return nil, err
			}
		}
		result.Entries = append(result.Entries, info)
	}

	resolver := vfs.NewResolver(idx, append([]vfs.Option{vfs.WithLogger(r.logger)}, r.resolverOpts...)...)
	for _, src := range vfs.Sources(resolver) {
		info := RootInfo{Root: src.Root()}
		if cfg.members {
			info.Members, err = src.List("")
			if err != nil {
				return nil, err
			}
		}
		result.Roots = append(result.Roots, info)
	}
	r.log().Debug("archive inspected", "path", path, "entries", len(result.Entries), "roots", len(result.Roots))
	return result, nil
}

// Inspect is shorthand for NewRunner(opts...) followed by Runner.Inspect.
func Inspect(path string, opts ...Option) (*InspectResult, error) {
	r, err := NewRunner(opts...)
	if err != nil {
		return nil, err
	}
	return r.Inspect(path)
}

func entryDigest(idx *archive.Index, path string) (digest.Digest, error) {
	rc, err := idx.OpenEntry(path)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	d, err := digest.Canonical.FromReader(rc)
	if err != nil {
		return "", fmt.Errorf("digest %s: %w", path, err)
	}
	return d, nil
}
