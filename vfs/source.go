package vfs

import (
	"io/fs"
	"strings"

	"github.com/meigma/warexec/archive"
)

// Source is one root of a resolution chain.
type Source interface {
	// Root returns the archive root the source searches.
	Root() archive.Root

	// Locate returns the location of name under the root, or ErrNotFound.
	// name is a slash-separated path such as "com/example/Main.class".
	Locate(name string) (archive.Location, error)

	// List returns the names under the root that start with prefix, in
	// archive order. An empty prefix lists everything.
	List(prefix string) ([]string, error)
}

// Sources returns one Source per root of the resolver's index, in root order.
func Sources(r *Resolver) []Source {
	roots := r.idx.Roots()
	sources := make([]Source, 0, len(roots))
	for _, root := range roots {
		switch root.Kind {
		case archive.KindClass:
			sources = append(sources, &classesSource{r: r, root: root})
		case archive.KindLibrary:
			sources = append(sources, &librarySource{r: r, root: root})
		}
	}
	return sources
}

// classesSource resolves names against the individually indexed class entries.
type classesSource struct {
	r    *Resolver
	root archive.Root
}

func (s *classesSource) Root() archive.Root { return s.root }

func (s *classesSource) Locate(name string) (archive.Location, error) {
	if s.r.idx.Closed() {
		return archive.Location{}, ErrClosed
	}
	if !fs.ValidPath(name) {
		return archive.Location{}, ErrNotFound
	}
	loc := s.root.Location.Join(name)
	if _, ok := s.r.idx.Lookup(loc.Path); !ok {
		return archive.Location{}, ErrNotFound
	}
	return loc, nil
}

func (s *classesSource) List(prefix string) ([]string, error) {
	if s.r.idx.Closed() {
		return nil, ErrClosed
	}
	var names []string
	for e := range s.r.idx.Entries() {
		if e.Kind != archive.KindClass {
			continue
		}
		name := strings.TrimPrefix(e.Path, archive.ClassesDir)
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	return names, nil
}

// librarySource resolves names against the member listing of one nested archive.
type librarySource struct {
	r    *Resolver
	root archive.Root
}

func (s *librarySource) Root() archive.Root { return s.root }

func (s *librarySource) Locate(name string) (archive.Location, error) {
	if !fs.ValidPath(name) {
		return archive.Location{}, ErrNotFound
	}
	return s.r.Locate(s.root.Location.Path, name)
}

func (s *librarySource) List(prefix string) ([]string, error) {
	members, err := s.r.Members(s.root.Location.Path)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, name := range members {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	return names, nil
}
