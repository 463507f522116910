package archive

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

const (
	// ManifestPath is the conventional manifest location.
	ManifestPath = "META-INF/MANIFEST.MF"

	// MainClassAttribute names the entry point in the manifest main section.
	MainClassAttribute = "War-Main-Class"

	// DefaultMaxManifestSize bounds how much of the manifest is read (1MB).
	DefaultMaxManifestSize = 1 << 20
)

// Attribute is a single manifest header.
type Attribute struct {
	Name  string
	Value string
}

// Manifest holds the main section of a jar manifest.
type Manifest struct {
	Main []Attribute
}

// Get returns the value of the named main attribute.
// Names are compared case-insensitively.
func (m *Manifest) Get(name string) (string, bool) {
	if m == nil {
		return "", false
	}
	for _, a := range m.Main {
		if strings.EqualFold(a.Name, name) {
			return a.Value, true
		}
	}
	return "", false
}

// ParseManifest reads the main section of a manifest.
//
// Header lines are "Name: value"; a line starting with a single space
// continues the previous value. The main section ends at the first blank
// line; per-entry sections after it are not read.
func ParseManifest(r io.Reader) (*Manifest, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 512), 64<<10)

	m := &Manifest{}
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSuffix(sc.Text(), "\r")
		if line == 1 {
			text = strings.TrimPrefix(text, "\ufeff")
		}
		if text == "" {
			break
		}
		if text[0] == ' ' {
			if len(m.Main) == 0 {
				return nil, fmt.Errorf("%w: manifest line %d: continuation without header", ErrArchiveFormat, line)
			}
			m.Main[len(m.Main)-1].Value += text[1:]
			continue
		}
		name, value, ok := strings.Cut(text, ": ")
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: manifest line %d: invalid header %q", ErrArchiveFormat, line, text)
		}
		m.Main = append(m.Main, Attribute{Name: name, Value: value})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: manifest: %v", ErrArchiveFormat, err)
	}
	return m, nil
}

func parseManifestBytes(data []byte) (*Manifest, error) {
	return ParseManifest(bytes.NewReader(data))
}
