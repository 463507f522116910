package warexec

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultArchivePath returns the path of the running executable, which is
// the archive used when no path is given. It fails with ErrFatal when the
// executable cannot be located or is not a regular local file.
func DefaultArchivePath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("%w: a war file is missing: %w", ErrFatal, err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	if err := checkLocalFile(exe); err != nil {
		return "", err
	}
	return exe, nil
}

func checkLocalFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: a war file is missing: %w", ErrFatal, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: a war file is missing: %s is not a regular file", ErrFatal, path)
	}
	return nil
}
