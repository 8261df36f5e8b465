// Package sentinel derives the swap files an editor creates for open buffers
// and reports whether any of them still exists.
package sentinel

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	prefix = "."
	suffix = ".swp"
)

// PathFor returns the swap file path for source: dir/name.ext becomes
// dir/.name.ext.swp.
func PathFor(source string) string {
	dir, base := filepath.Split(source)
	return filepath.Join(dir, prefix+base+suffix)
}

// SourceFor recovers the source file name from a swap file name. It returns
// false when name does not follow the swap naming convention or the source
// does not end in ext (for example ".tex").
func SourceFor(name, ext string) (string, bool) {
	base := filepath.Base(name)
	if !strings.HasPrefix(base, prefix) || !strings.HasSuffix(base, ext+suffix) {
		return "", false
	}
	source := strings.TrimSuffix(strings.TrimPrefix(base, prefix), suffix)
	if len(source) <= len(ext) {
		return "", false
	}
	return filepath.Join(filepath.Dir(name), source), true
}

// Sentinel watches the swap files of a primary source and its extra files.
type Sentinel struct {
	paths []string
	stat  func(string) (os.FileInfo, error)
}

// New derives the sentinel paths for primary and extras.
func New(primary string, extras []string) *Sentinel {
	paths := make([]string, 0, 1+len(extras))
	paths = append(paths, PathFor(primary))
	for _, extra := range extras {
		paths = append(paths, PathFor(extra))
	}
	return &Sentinel{paths: paths, stat: os.Stat}
}

// Paths returns a copy of the derived sentinel paths.
func (s *Sentinel) Paths() []string {
	return append([]string(nil), s.paths...)
}

// IsAlive reports whether at least one sentinel currently exists. The
// filesystem is consulted on every call.
func (s *Sentinel) IsAlive() bool {
	for _, p := range s.paths {
		if _, err := s.stat(p); err == nil {
			return true
		}
	}
	return false
}
