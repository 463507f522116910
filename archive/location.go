package archive

import (
	"fmt"
	"strings"
)

// Scheme is the address scheme of every Location.
const Scheme = "war"

const (
	schemePrefix = Scheme + "://"
	nestedSep    = "!/"
)

// Paths escape '!' so the first "!/" of an address always separates the
// outer path from the member.
var (
	pathEscaper   = strings.NewReplacer("%", "%25", "!", "%21")
	pathUnescaper = strings.NewReplacer("%25", "%", "%21", "!")
)

// Location addresses an entry of the outer archive, or a member of a nested
// archive when Entry is set.
//
// Location values are comparable and safe to use as map keys.
type Location struct {
	// Path is the internal path in the outer archive (e.g. "WEB-INF/lib/a.jar").
	// A trailing slash marks a directory root.
	Path string

	// Entry is the member path inside the nested archive at Path, or empty.
	Entry string
}

// String renders the location as war://<path>[!/<entry>]. Any '!' or '%' in
// the path is percent-encoded; the entry is written as is.
func (l Location) String() string {
	path := pathEscaper.Replace(l.Path)
	if l.Entry == "" {
		return schemePrefix + path
	}
	return schemePrefix + path + nestedSep + l.Entry
}

// Nested reports whether the location names a member of a nested archive.
func (l Location) Nested() bool {
	return l.Entry != ""
}

// IsDir reports whether the location names a directory root.
func (l Location) IsDir() bool {
	return l.Entry == "" && strings.HasSuffix(l.Path, "/")
}

// Join resolves name against l. For a directory root the name is appended to
// the path; otherwise it becomes the member of the nested archive at l.Path.
func (l Location) Join(name string) Location {
	if l.IsDir() {
		return Location{Path: l.Path + name}
	}
	return Location{Path: l.Path, Entry: name}
}

// ParseLocation parses an address produced by Location.String.
func ParseLocation(addr string) (Location, error) {
	rest, ok := strings.CutPrefix(addr, schemePrefix)
	if !ok {
		return Location{}, fmt.Errorf("%w: %q: scheme is not %s", ErrInvalidLocation, addr, Scheme)
	}
	path, entry, _ := strings.Cut(rest, nestedSep)
	path = pathUnescaper.Replace(path)
	if path == "" {
		return Location{}, fmt.Errorf("%w: %q: empty path", ErrInvalidLocation, addr)
	}
	if strings.HasSuffix(path, "/") && entry != "" {
		return Location{}, fmt.Errorf("%w: %q: directory cannot hold members", ErrInvalidLocation, addr)
	}
	return Location{Path: path, Entry: entry}, nil
}
