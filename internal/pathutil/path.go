// Package pathutil provides path manipulation for slash-separated archive paths.
package pathutil

import (
	"io/fs"
	"strings"
)

// ClassSuffix is appended to a class name to form its entry path.
const ClassSuffix = ".class"

// ClassPath converts a fully qualified class name to its entry path:
// "com.example.Main" becomes "com/example/Main.class".
// ok is false when the name cannot map to a valid path.
func ClassPath(name string) (path string, ok bool) {
	if name == "" || strings.ContainsAny(name, "/\\") ||
		strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return "", false
	}
	path = strings.ReplaceAll(name, ".", "/") + ClassSuffix
	if !fs.ValidPath(path) {
		return "", false
	}
	return path, true
}

// ResourcePath validates a resource name for lookup. Archive paths never
// start with a slash, and a trailing slash never names an entry.
// ok is false when name is not a valid path.
func ResourcePath(name string) (path string, ok bool) {
	if name == "" || strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		return "", false
	}
	return name, fs.ValidPath(name)
}
