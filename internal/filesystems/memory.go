package filesystems

import (
	"fmt"
	"io/fs"
	"iter"
	"path"
	"sort"
	"strings"
	"time"
)

// MemoryFS implements FileSystem in memory. Paths use forward slashes and may
// be absolute ("/repo/app/.env") or relative to ".".
type MemoryFS struct {
	files map[string][]byte
	dirs  map[string]bool
}

// NewMemoryFS creates a new MemoryFS instance
func NewMemoryFS() *MemoryFS {
	return &MemoryFS{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

// AddFile adds a file and its parent directories
func (mfs *MemoryFS) AddFile(name string, content []byte) {
	name = path.Clean(name)
	mfs.files[name] = content
	mfs.addParents(name)
}

// AddDir adds a directory and its parents
func (mfs *MemoryFS) AddDir(name string) {
	name = path.Clean(name)
	mfs.dirs[name] = true
	mfs.addParents(name)
}

func (mfs *MemoryFS) addParents(name string) {
	for dir := path.Dir(name); dir != "." && dir != "/"; dir = path.Dir(dir) {
		mfs.dirs[dir] = true
	}
	if strings.HasPrefix(name, "/") {
		mfs.dirs["/"] = true
	}
}

func (mfs *MemoryFS) isDir(name string) bool {
	return name == "." || mfs.dirs[name]
}

func (mfs *MemoryFS) ReadFile(name string) ([]byte, error) {
	content, exists := mfs.files[path.Clean(name)]
	if !exists {
		return nil, fmt.Errorf("file not found: %s", name)
	}
	return content, nil
}

// children returns the sorted direct child names of dir
func (mfs *MemoryFS) children(dir string) []string {
	seen := make(map[string]bool)
	collect := func(p string) {
		if p == dir || path.Dir(p) != dir {
			return
		}
		seen[path.Base(p)] = true
	}
	for p := range mfs.files {
		collect(p)
	}
	for p := range mfs.dirs {
		collect(p)
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (mfs *MemoryFS) ReadDir(name string) iter.Seq2[DirEntry, error] {
	return func(yield func(DirEntry, error) bool) {
		dir := path.Clean(name)
		if !mfs.isDir(dir) {
			yield(nil, fmt.Errorf("directory not found: %s", name))
			return
		}

		for _, child := range mfs.children(dir) {
			info, err := mfs.Stat(path.Join(dir, child))
			if !yield(fs.FileInfoToDirEntry(info), err) {
				return
			}
		}
	}
}

func (mfs *MemoryFS) Stat(name string) (FileInfo, error) {
	clean := path.Clean(name)
	if mfs.isDir(clean) {
		return &memoryFileInfo{name: path.Base(clean), mode: fs.ModeDir | 0755, isDir: true}, nil
	}
	if content, ok := mfs.files[clean]; ok {
		return &memoryFileInfo{name: path.Base(clean), size: int64(len(content)), mode: 0644}, nil
	}
	return nil, fmt.Errorf("stat %s: %w", name, fs.ErrNotExist)
}

func (mfs *MemoryFS) Walk(root string, fn WalkFunc) error {
	var walk func(string) error
	walk = func(p string) error {
		info, err := mfs.Stat(p)
		if err != nil {
			return fn(p, nil, err)
		}

		if err := fn(p, info, nil); err != nil {
			if err == SkipDir && info.IsDir() {
				return nil
			}
			return err
		}

		if !info.IsDir() {
			return nil
		}
		for _, child := range mfs.children(p) {
			if err := walk(path.Join(p, child)); err != nil {
				return err
			}
		}
		return nil
	}

	return walk(path.Clean(root))
}

func (mfs *MemoryFS) Join(elem ...string) string {
	return path.Join(elem...)
}

func (mfs *MemoryFS) Dir(p string) string {
	return path.Dir(p)
}

func (mfs *MemoryFS) Rel(basepath, targpath string) (string, error) {
	base := path.Clean(basepath)
	target := path.Clean(targpath)

	if base == target {
		return ".", nil
	}
	if base == "." && !strings.HasPrefix(target, "/") {
		return target, nil
	}
	if strings.HasPrefix(target, strings.TrimSuffix(base, "/")+"/") {
		return strings.TrimPrefix(target, strings.TrimSuffix(base, "/")+"/"), nil
	}
	return "", fmt.Errorf("%s is not under %s", targpath, basepath)
}

// memoryFileInfo implements FileInfo for memory filesystem
type memoryFileInfo struct {
	name  string
	size  int64
	mode  fs.FileMode
	isDir bool
}

func (fi *memoryFileInfo) Name() string       { return fi.name }
func (fi *memoryFileInfo) Size() int64        { return fi.size }
func (fi *memoryFileInfo) Mode() fs.FileMode  { return fi.mode }
func (fi *memoryFileInfo) ModTime() time.Time { return time.Time{} }
func (fi *memoryFileInfo) IsDir() bool        { return fi.isDir }
func (fi *memoryFileInfo) Sys() interface{}   { return nil }
