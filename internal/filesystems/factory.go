package filesystems

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// NewFileSystem resolves source to an absolute local root and the filesystem
// serving it. Supports plain paths and file:// URIs.
func NewFileSystem(source string) (FileSystem, string, error) {
	root, err := ResolveRoot(source)
	if err != nil {
		return nil, "", err
	}
	return NewLocalFS(), root, nil
}

// ResolveRoot converts source into an absolute, cleaned local path
func ResolveRoot(source string) (string, error) {
	p := source
	if strings.Contains(source, "://") {
		parsedURL, err := url.Parse(source)
		if err != nil {
			return "", fmt.Errorf("invalid URI %s: %w", source, err)
		}
		if parsedURL.Scheme != "file" {
			return "", fmt.Errorf("unsupported scheme: %s", parsedURL.Scheme)
		}
		p = parsedURL.Path
	}

	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for %s: %w", source, err)
	}
	return abs, nil
}
