package filesystems

import (
	"iter"
	"os"
	"path/filepath"
)

// LocalFS reads from the local disk
type LocalFS struct{}

func NewLocalFS() *LocalFS {
	return &LocalFS{}
}

func (lfs *LocalFS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

func (lfs *LocalFS) ReadDir(name string) iter.Seq2[DirEntry, error] {
	return func(yield func(DirEntry, error) bool) {
		entries, err := os.ReadDir(name)
		for _, entry := range entries {
			if !yield(entry, nil) {
				return
			}
		}
		if err != nil {
			yield(nil, err)
		}
	}
}

func (lfs *LocalFS) Stat(name string) (FileInfo, error) {
	return os.Stat(name)
}

func (lfs *LocalFS) Walk(root string, fn WalkFunc) error {
	return filepath.Walk(root, filepath.WalkFunc(fn))
}

func (lfs *LocalFS) Join(elem ...string) string {
	return filepath.Join(elem...)
}

func (lfs *LocalFS) Dir(path string) string {
	return filepath.Dir(path)
}

func (lfs *LocalFS) Rel(basepath, targpath string) (string, error) {
	return filepath.Rel(basepath, targpath)
}
