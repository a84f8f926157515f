package fs

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio"
)

// RealFilesystem implements Filesystem against the host disk.
type RealFilesystem struct{}

// NewRealFilesystem returns a Filesystem backed by the real disk.
func NewRealFilesystem() *RealFilesystem { return &RealFilesystem{} }

func (RealFilesystem) Getcwd() (string, error) { return os.Getwd() }

func (RealFilesystem) Chdir(path string) error { return os.Chdir(path) }

func (RealFilesystem) ExistsFile(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && !info.IsDir()
}

func (RealFilesystem) ExistsDirectory(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.IsDir()
}

func (RealFilesystem) Mkdir(path string) error {
	return os.MkdirAll(path, DirPermissions)
}

func (RealFilesystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (fs RealFilesystem) ReadText(path string) (string, error) {
	b, err := fs.ReadFile(path)
	return string(b), err
}

// WriteFile atomically replaces the contents of path, creating parent
// directories as needed. Atomicity matters here: a build artifact or
// cache-metadata file must never be observed half-written by a concurrent
// freshness check.
func (RealFilesystem) WriteFile(path string, data []byte, mode fs.FileMode) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, DirPermissions); err != nil {
			return err
		}
	}
	if mode == 0 {
		mode = FilePermissions
	}
	return renameio.WriteFile(path, data, mode)
}

func (RealFilesystem) RemoveFile(path string, force bool) error {
	err := os.Remove(path)
	if err != nil && force && os.IsNotExist(err) {
		return nil
	}
	return err
}

func (RealFilesystem) RemoveDir(path string, force bool) error {
	if force {
		return os.RemoveAll(path)
	}
	err := os.Remove(path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

func (RealFilesystem) IterateDirectory(path string) ([]DirEntry, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	out := make([]DirEntry, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		out = append(out, DirEntry{
			Name:    e.Name(),
			IsDir:   e.IsDir(),
			ModTime: info.ModTime(),
			Mode:    info.Mode(),
			Size:    info.Size(),
		})
	}
	return out, nil
}

func (RealFilesystem) SetTimes(path string, atime, mtime time.Time) error {
	return os.Chtimes(path, atime, mtime)
}

func (RealFilesystem) SetAttributes(path string, mode fs.FileMode) error {
	return os.Chmod(path, mode)
}

// HardLinkFile links dst to src, falling back to a copy when the link
// syscall fails (typically because src and dst live on different devices,
// which happens when the cache directory and the package directory are on
// separate mounts).
func (fsys RealFilesystem) HardLinkFile(src, dst string) error {
	if dir := filepath.Dir(dst); dir != "" {
		if err := os.MkdirAll(dir, DirPermissions); err != nil {
			return err
		}
	}
	_ = os.Remove(dst)
	if err := os.Link(src, dst); err == nil {
		return nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	info, err := os.Stat(src)
	mode := FilePermissions
	if err == nil {
		mode = int(info.Mode().Perm())
	}
	return fsys.WriteFile(dst, data, fs.FileMode(mode))
}
