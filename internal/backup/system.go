package backup

import (
	"os"

	"github.com/conn-castle/envshift/internal/fsutil"
)

// System abstracts filesystem operations needed by the backup manager.
// This interface is intentionally package-local to enable parallel-safe unit
// tests without shared global state. Other packages define their own System
// interfaces with operations specific to their needs.
type System interface {
	Stat(name string) (os.FileInfo, error)
	MkdirAll(path string, perm os.FileMode) error
	CopyFile(src string, dst string) error
	CopyDir(src string, dst string) error
	WriteFileAtomic(filename string, data []byte, perm os.FileMode) error
}

// RealSystem implements System using the OS filesystem.
type RealSystem struct{}

// Stat returns a FileInfo describing the named file.
func (RealSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

// MkdirAll creates a directory named path, along with any necessary parents.
func (RealSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// CopyFile copies a regular file preserving permission bits.
func (RealSystem) CopyFile(src string, dst string) error {
	return fsutil.CopyFile(src, dst)
}

// CopyDir recursively copies a directory tree.
func (RealSystem) CopyDir(src string, dst string) error {
	return fsutil.CopyDir(src, dst)
}

// WriteFileAtomic writes data to a file atomically by writing a temp file and renaming.
func (RealSystem) WriteFileAtomic(filename string, data []byte, perm os.FileMode) error {
	return fsutil.WriteFileAtomic(filename, data, perm)
}
