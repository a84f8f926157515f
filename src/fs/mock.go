package fs

import (
	"archive/zip"
	"bytes"
	"io"
	gofs "io/fs"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
)

// FSEntry is one node of a MockFilesystem tree: either a directory (Dir
// non-nil, Data nil) or a file (Data non-nil).
type FSEntry struct {
	Dir     map[string]*FSEntry
	Data    []byte
	ModTime time.Time
	Mode    gofs.FileMode
}

func newDirEntry() *FSEntry {
	return &FSEntry{Dir: map[string]*FSEntry{}, ModTime: time.Time{}, Mode: DirPermissions}
}

// MockFilesystem is an in-memory Filesystem for deterministic tests.
type MockFilesystem struct {
	root *FSEntry
	cwd  string
	Now  time.Time
}

// NewMockFilesystem returns an empty mock filesystem rooted at "/".
func NewMockFilesystem() *MockFilesystem {
	return &MockFilesystem{root: newDirEntry(), cwd: "/", Now: time.Unix(1700000000, 0)}
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func (m *MockFilesystem) resolve(path string) (*FSEntry, string, error) {
	if !strings.HasPrefix(path, "/") {
		path = m.cwd + "/" + path
	}
	parts := splitPath(path)
	if len(parts) == 0 {
		return m.root, "", nil
	}
	dir := m.root
	for _, p := range parts[:len(parts)-1] {
		child, ok := dir.Dir[p]
		if !ok || child.Dir == nil {
			return nil, "", &gofs.PathError{Op: "open", Path: path, Err: gofs.ErrNotExist}
		}
		dir = child
	}
	return dir, parts[len(parts)-1], nil
}

func (m *MockFilesystem) Getcwd() (string, error) { return m.cwd, nil }

func (m *MockFilesystem) Chdir(path string) error {
	if !m.ExistsDirectory(path) {
		return &gofs.PathError{Op: "chdir", Path: path, Err: gofs.ErrNotExist}
	}
	if strings.HasPrefix(path, "/") {
		m.cwd = path
	} else {
		m.cwd = m.cwd + "/" + path
	}
	return nil
}

func (m *MockFilesystem) ExistsFile(path string) bool {
	dir, name, err := m.resolve(path)
	if err != nil {
		return false
	}
	e, ok := dir.Dir[name]
	return ok && e.Dir == nil
}

func (m *MockFilesystem) ExistsDirectory(path string) bool {
	if path == "/" || path == "" {
		return true
	}
	dir, name, err := m.resolve(path)
	if err != nil {
		return false
	}
	e, ok := dir.Dir[name]
	return ok && e.Dir != nil
}

func (m *MockFilesystem) Mkdir(path string) error {
	parts := splitPath(path)
	if !strings.HasPrefix(path, "/") {
		parts = splitPath(m.cwd + "/" + path)
	}
	dir := m.root
	for _, p := range parts {
		child, ok := dir.Dir[p]
		if !ok {
			child = newDirEntry()
			child.ModTime = m.Now
			dir.Dir[p] = child
		} else if child.Dir == nil {
			return &gofs.PathError{Op: "mkdir", Path: path, Err: gofs.ErrExist}
		}
		dir = child
	}
	return nil
}

func (m *MockFilesystem) ReadFile(path string) ([]byte, error) {
	dir, name, err := m.resolve(path)
	if err != nil {
		return nil, err
	}
	e, ok := dir.Dir[name]
	if !ok || e.Dir != nil {
		return nil, &gofs.PathError{Op: "read", Path: path, Err: gofs.ErrNotExist}
	}
	return append([]byte{}, e.Data...), nil
}

func (m *MockFilesystem) ReadText(path string) (string, error) {
	b, err := m.ReadFile(path)
	return string(b), err
}

func (m *MockFilesystem) WriteFile(path string, data []byte, mode gofs.FileMode) error {
	parentPath := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		parentPath = path[:i]
	}
	if parentPath != "" && !m.ExistsDirectory(parentPath) {
		if err := m.Mkdir(parentPath); err != nil {
			return err
		}
	}
	dir, name, err := m.resolve(path)
	if err != nil {
		return err
	}
	if mode == 0 {
		mode = FilePermissions
	}
	dir.Dir[name] = &FSEntry{Data: append([]byte{}, data...), ModTime: m.Now, Mode: mode}
	return nil
}

func (m *MockFilesystem) RemoveFile(path string, force bool) error {
	dir, name, err := m.resolve(path)
	if err != nil {
		if force {
			return nil
		}
		return err
	}
	if _, ok := dir.Dir[name]; !ok {
		if force {
			return nil
		}
		return &gofs.PathError{Op: "remove", Path: path, Err: gofs.ErrNotExist}
	}
	delete(dir.Dir, name)
	return nil
}

func (m *MockFilesystem) RemoveDir(path string, force bool) error {
	dir, name, err := m.resolve(path)
	if err != nil {
		if force {
			return nil
		}
		return err
	}
	e, ok := dir.Dir[name]
	if !ok {
		if force {
			return nil
		}
		return &gofs.PathError{Op: "rmdir", Path: path, Err: gofs.ErrNotExist}
	}
	if !force && len(e.Dir) > 0 {
		return &gofs.PathError{Op: "rmdir", Path: path, Err: gofs.ErrInvalid}
	}
	delete(dir.Dir, name)
	return nil
}

func (m *MockFilesystem) IterateDirectory(path string) ([]DirEntry, error) {
	var dir *FSEntry
	if path == "/" || path == "" {
		dir = m.root
	} else {
		parent, name, err := m.resolve(path)
		if err != nil {
			return nil, err
		}
		e, ok := parent.Dir[name]
		if !ok || e.Dir == nil {
			return nil, &gofs.PathError{Op: "open", Path: path, Err: gofs.ErrNotExist}
		}
		dir = e
	}
	out := make([]DirEntry, 0, len(dir.Dir))
	for name, e := range dir.Dir {
		size := int64(len(e.Data))
		out = append(out, DirEntry{Name: name, IsDir: e.Dir != nil, ModTime: e.ModTime, Mode: e.Mode, Size: size})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockFilesystem) SetTimes(path string, atime, mtime time.Time) error {
	dir, name, err := m.resolve(path)
	if err != nil {
		return err
	}
	e, ok := dir.Dir[name]
	if !ok {
		return &gofs.PathError{Op: "chtimes", Path: path, Err: gofs.ErrNotExist}
	}
	e.ModTime = mtime
	return nil
}

func (m *MockFilesystem) SetAttributes(path string, mode gofs.FileMode) error {
	dir, name, err := m.resolve(path)
	if err != nil {
		return err
	}
	e, ok := dir.Dir[name]
	if !ok {
		return &gofs.PathError{Op: "chmod", Path: path, Err: gofs.ErrNotExist}
	}
	e.Mode = mode
	return nil
}

// HardLinkFile copies src's bytes and mtime to dst; a mock has no inode
// concept, so the link is simulated as a snapshot copy.
func (m *MockFilesystem) HardLinkFile(src, dst string) error {
	data, err := m.ReadFile(src)
	if err != nil {
		return err
	}
	if err := m.WriteFile(dst, data, FilePermissions); err != nil {
		return err
	}
	sdir, sname, err := m.resolve(src)
	if err == nil {
		if se, ok := sdir.Dir[sname]; ok {
			return m.SetTimes(dst, se.ModTime, se.ModTime)
		}
	}
	return nil
}

// ToZip serializes the whole tree to a zip archive, for snapshotting test
// fixtures.
func (m *MockFilesystem) ToZip(w io.Writer) error {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.DefaultCompression)
	})
	var walk func(prefix string, e *FSEntry) error
	walk = func(prefix string, e *FSEntry) error {
		names := make([]string, 0, len(e.Dir))
		for name := range e.Dir {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			child := e.Dir[name]
			full := prefix + name
			if child.Dir != nil {
				if err := walk(full+"/", child); err != nil {
					return err
				}
				continue
			}
			fw, err := zw.CreateHeader(&zip.FileHeader{Name: full, Modified: child.ModTime, Method: zip.Deflate})
			if err != nil {
				return err
			}
			if _, err := fw.Write(child.Data); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk("", m.root); err != nil {
		return err
	}
	return zw.Close()
}

// FromZip replaces the tree's contents with the files stored in a zip
// archive, for loading test fixtures.
func (m *MockFilesystem) FromZip(data []byte) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return err
	}
	m.root = newDirEntry()
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return err
		}
		if err := m.WriteFile("/"+f.Name, content, FilePermissions); err != nil {
			return err
		}
		if err := m.SetTimes("/"+f.Name, f.Modified, f.Modified); err != nil {
			return err
		}
	}
	return nil
}
