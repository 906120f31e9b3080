package filesystem

import (
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"
)

// Memory implements FS in memory. It is safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	files map[string]*memFile
	dirs  map[string]bool
	now   func() time.Time
}

type memFile struct {
	content []byte
	modTime time.Time
}

var _ FS = (*Memory)(nil)

// NewMemory creates an empty in-memory file system.
func NewMemory() *Memory {
	return &Memory{
		files: make(map[string]*memFile),
		dirs:  map[string]bool{"/": true},
		now:   time.Now,
	}
}

// SetClock overrides the time source used for modification times.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if now != nil {
		m.now = now
	}
}

// Chtimes sets the modification time of an existing file.
func (m *Memory) Chtimes(name string, modTime time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	name = cleanPath(name)
	f, ok := m.files[name]
	if !ok {
		return &fs.PathError{Op: "chtimes", Path: name, Err: fs.ErrNotExist}
	}
	f.modTime = modTime
	return nil
}

func (m *Memory) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name = cleanPath(name)
	f, ok := m.files[name]
	if !ok {
		if m.dirs[name] {
			return nil, &fs.PathError{Op: "read", Path: name, Err: syscall.EISDIR}
		}
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
	}
	content := make([]byte, len(f.content))
	copy(content, f.content)
	return content, nil
}

func (m *Memory) WriteFile(name string, data []byte, _ fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	name = cleanPath(name)
	if m.dirs[name] {
		return &fs.PathError{Op: "write", Path: name, Err: syscall.EISDIR}
	}
	if !m.dirs[path.Dir(name)] {
		return &fs.PathError{Op: "write", Path: name, Err: fs.ErrNotExist}
	}
	content := make([]byte, len(data))
	copy(content, data)
	m.files[name] = &memFile{content: content, modTime: m.now()}
	return nil
}

func (m *Memory) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	name = cleanPath(name)
	if _, ok := m.files[name]; ok {
		delete(m.files, name)
		return nil
	}
	if m.dirs[name] {
		prefix := name + "/"
		for other := range m.files {
			if strings.HasPrefix(other, prefix) {
				return &fs.PathError{Op: "remove", Path: name, Err: syscall.ENOTEMPTY}
			}
		}
		for other := range m.dirs {
			if strings.HasPrefix(other, prefix) {
				return &fs.PathError{Op: "remove", Path: name, Err: syscall.ENOTEMPTY}
			}
		}
		delete(m.dirs, name)
		return nil
	}
	return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
}

func (m *Memory) MkdirAll(dir string, _ fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	dir = cleanPath(dir)
	for current := dir; ; current = path.Dir(current) {
		if _, isFile := m.files[current]; isFile {
			return &fs.PathError{Op: "mkdir", Path: current, Err: syscall.ENOTDIR}
		}
		m.dirs[current] = true
		if current == "/" {
			return nil
		}
	}
}

func (m *Memory) Stat(name string) (FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name = cleanPath(name)
	if f, ok := m.files[name]; ok {
		return FileInfo{Path: name, Name: path.Base(name), Size: int64(len(f.content)), ModTime: f.modTime}, nil
	}
	if m.dirs[name] {
		return FileInfo{Path: name, Name: path.Base(name), IsDir: true}, nil
	}
	return FileInfo{}, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
}

func (m *Memory) ReadDir(dir string) ([]FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	dir = cleanPath(dir)
	if !m.dirs[dir] {
		return nil, &fs.PathError{Op: "readdir", Path: dir, Err: fs.ErrNotExist}
	}
	var out []FileInfo
	for name, f := range m.files {
		if path.Dir(name) == dir {
			out = append(out, FileInfo{Path: name, Name: path.Base(name), Size: int64(len(f.content)), ModTime: f.modTime})
		}
	}
	for name := range m.dirs {
		if name != dir && path.Dir(name) == dir {
			out = append(out, FileInfo{Path: name, Name: path.Base(name), IsDir: true})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func cleanPath(p string) string {
	p = path.Clean(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
