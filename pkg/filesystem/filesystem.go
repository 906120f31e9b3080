// Package filesystem abstracts the file operations the CSS cache and style
// loader need so hosts can swap the OS implementation for an in-memory one.
package filesystem

import (
	"errors"
	"io/fs"
	"time"
)

// FS is the subset of file operations used by the cache.
type FS interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error
	Remove(name string) error
	MkdirAll(dir string, perm fs.FileMode) error
	Stat(name string) (FileInfo, error)
	// ReadDir lists the direct children of dir. A missing directory yields
	// an error wrapping fs.ErrNotExist.
	ReadDir(dir string) ([]FileInfo, error)
}

// FileInfo describes a file or directory.
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// Exists reports whether name can be stat'ed.
func Exists(fsys FS, name string) bool {
	if fsys == nil {
		return false
	}
	_, err := fsys.Stat(name)
	return err == nil
}

// IsNotExist reports whether err signals a missing path.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
