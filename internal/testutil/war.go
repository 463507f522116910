// Package testutil builds in-memory web-application archives for tests.
package testutil

import (
	"bytes"
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
)

// Compression methods accepted by Entry.Method.
const (
	Store   = zip.Store
	Deflate = zip.Deflate
	Zstd    = zstd.ZipMethodWinZip
)

// ManifestPath is the location of the manifest inside an archive.
const ManifestPath = "META-INF/MANIFEST.MF"

// Entry is one file written into a test archive.
type Entry struct {
	Name   string
	Data   []byte
	Method uint16
}

// BuildZip writes entries, in order, into a zip archive.
func BuildZip(tb testing.TB, entries ...Entry) []byte {
	tb.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(Zstd, zstd.ZipCompressor())
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.Name, Method: e.Method})
		if err != nil {
			tb.Fatalf("create %s: %v", e.Name, err)
		}
		if strings.HasSuffix(e.Name, "/") {
			continue
		}
		if _, err := w.Write(e.Data); err != nil {
			tb.Fatalf("write %s: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		tb.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

// Manifest renders a jar manifest main section from key/value pairs.
func Manifest(kv ...string) []byte {
	var b strings.Builder
	b.WriteString("Manifest-Version: 1.0\r\n")
	for i := 0; i+1 < len(kv); i += 2 {
		b.WriteString(kv[i])
		b.WriteString(": ")
		b.WriteString(kv[i+1])
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	return []byte(b.String())
}

// BuildWar writes a manifest naming mainClass followed by entries.
func BuildWar(tb testing.TB, mainClass string, entries ...Entry) []byte {
	tb.Helper()
	all := make([]Entry, 0, len(entries)+1)
	all = append(all, Entry{Name: ManifestPath, Data: Manifest("War-Main-Class", mainClass), Method: Deflate})
	all = append(all, entries...)
	return BuildZip(tb, all...)
}

// Class returns an entry under WEB-INF/classes/ for a dotted class name.
func Class(name string, data []byte) Entry {
	return Entry{
		Name:   "WEB-INF/classes/" + strings.ReplaceAll(name, ".", "/") + ".class",
		Data:   data,
		Method: Deflate,
	}
}

// Jar returns an entry under WEB-INF/lib/ holding a nested archive.
func Jar(tb testing.TB, name string, method uint16, entries ...Entry) Entry {
	tb.Helper()
	return Entry{
		Name:   "WEB-INF/lib/" + name,
		Data:   BuildZip(tb, entries...),
		Method: method,
	}
}

// Source is an in-memory archive that records how often it was closed.
type Source struct {
	*bytes.Reader
	closes atomic.Int32
}

var _ io.ReaderAt = (*Source)(nil)

// NewSource returns a Source over data.
func NewSource(data []byte) *Source {
	return &Source{Reader: bytes.NewReader(data)}
}

// Close records the call.
func (s *Source) Close() error {
	s.closes.Add(1)
	return nil
}

// Closes reports how many times Close was called.
func (s *Source) Closes() int {
	return int(s.closes.Load())
}
