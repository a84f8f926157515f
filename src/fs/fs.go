// Package fs abstracts the filesystem operations the build core needs,
// so the core can be driven deterministically in tests without touching
// real disk.
package fs

import (
	"io/fs"
	"time"

	"gopkg.in/op/go-logging.v1"
)

var log = logging.MustGetLogger("fs")

// DirPermissions are the default permission bits applied to created directories.
const DirPermissions = fs.ModeDir | 0775

// FilePermissions are the default permission bits applied to created files.
const FilePermissions = 0664

// Filesystem abstracts the disk operations forge needs. The real
// implementation delegates to the os package; the mock implementation
// keeps an in-memory tree for tests.
type Filesystem interface {
	Getcwd() (string, error)
	Chdir(path string) error

	ExistsFile(path string) bool
	ExistsDirectory(path string) bool

	Mkdir(path string) error

	ReadFile(path string) ([]byte, error)
	ReadText(path string) (string, error)
	WriteFile(path string, data []byte, mode fs.FileMode) error

	RemoveFile(path string, force bool) error
	RemoveDir(path string, force bool) error

	IterateDirectory(path string) ([]DirEntry, error)

	SetTimes(path string, atime, mtime time.Time) error
	SetAttributes(path string, mode fs.FileMode) error

	// HardLinkFile installs the file at src as dst via a hard link, used
	// by the cache to publish an artifact into a user-visible path. It
	// falls back to a plain copy when the link can't be made (e.g. across
	// devices).
	HardLinkFile(src, dst string) error
}

// DirEntry is one entry returned by IterateDirectory.
type DirEntry struct {
	Name    string
	IsDir   bool
	ModTime time.Time
	Mode    fs.FileMode
	Size    int64
}
