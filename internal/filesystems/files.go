package filesystems

import (
	"strings"
)

// FindFile looks in dir for the first of names (case-insensitive).
// Returns the actual path with correct case if found, empty string if not found.
func FindFile(filesystem FileSystem, dir string, names ...string) (string, error) {
	found := make(map[string]string)
	for entry, err := range filesystem.ReadDir(dir) {
		if err != nil {
			return "", err
		}
		if !entry.IsDir() {
			found[strings.ToLower(entry.Name())] = entry.Name()
		}
	}

	for _, name := range names {
		if actual, ok := found[strings.ToLower(name)]; ok {
			return filesystem.Join(dir, actual), nil
		}
	}
	return "", nil
}
