package removal

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/aymanbagabas/go-udiff"
)

// SearchPathStore persists the user-scope executable search path.
type SearchPathStore interface {
	Load() (string, error)
	Store(value string) error
}

// RemoveFromSearchPath returns searchPath with every segment belonging to
// the installation at oldPath removed: the path itself and entries beneath
// it (conda-family installs add bin/, condabin/, and Scripts/ entries).
// Matching is segment-aware after Clean; a segment that merely contains
// oldPath as a substring is left untouched.
func RemoveFromSearchPath(oldPath string, searchPath string) string {
	return removeFromSearchPath(oldPath, searchPath, os.PathListSeparator)
}

func removeFromSearchPath(oldPath string, searchPath string, sep byte) string {
	root := filepath.Clean(oldPath)
	prefix := root + string(os.PathSeparator)
	segments := strings.Split(searchPath, string(sep))
	kept := segments[:0]
	for _, segment := range segments {
		clean := filepath.Clean(segment)
		if segment != "" && (clean == root || strings.HasPrefix(clean, prefix)) {
			continue
		}
		kept = append(kept, segment)
	}
	return strings.Join(kept, string(sep))
}

// SearchPathDiff renders a unified diff of a search-path change with one
// segment per line, for dry-run previews.
func SearchPathDiff(before string, after string) string {
	sep := string(os.PathListSeparator)
	left := strings.ReplaceAll(before, sep, "\n") + "\n"
	right := strings.ReplaceAll(after, sep, "\n") + "\n"
	return udiff.Unified("search path (current)", "search path (updated)", left, right)
}
