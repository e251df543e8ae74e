// Package filesystems provides the read-only file access scans run on: the
// local disk, an in-memory tree for tests and transient git worktrees.
package filesystems

import (
	"io/fs"
	"iter"
)

// FileSystem is what discovery and the format parsers read through. Paths
// are passed through as given; implementations decide the separator.
type FileSystem interface {
	ReadFile(name string) ([]byte, error)

	// ReadDir yields the entries of a directory in name order
	ReadDir(name string) iter.Seq2[DirEntry, error]

	Stat(name string) (FileInfo, error)

	// Walk visits root and everything below it in lexical order
	Walk(root string, fn WalkFunc) error

	Join(elem ...string) string
	Dir(path string) string
	Rel(basepath, targpath string) (string, error)
}

type (
	FileInfo = fs.FileInfo
	DirEntry = fs.DirEntry
)

// WalkFunc is called for every visited path. Returning SkipDir from a
// directory skips its contents.
type WalkFunc func(path string, info FileInfo, err error) error

var SkipDir = fs.SkipDir
