// Package storage writes generated posts to disk and reads them back.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// maxCollisions bounds the numeric suffix search
const maxCollisions = 1000

type PostStore struct {
	dir       string
	extension string
}

func NewPostStore(dir, extension string) *PostStore {
	if extension != "" && !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}
	return &PostStore{dir: dir, extension: extension}
}

func (s *PostStore) Dir() string {
	return s.dir
}

// Save writes doc as filename plus the store extension and returns the final
// path. An existing post is never overwritten; a -1, -2, ... suffix is added
// instead.
func (s *PostStore) Save(filename string, doc []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	base := strings.TrimSuffix(filename, s.extension)
	path, err := s.freePath(base)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, ".post-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write post: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to move post into place: %w", err)
	}

	slog.Info("Post saved", "path", path, "bytes", len(doc))
	return path, nil
}

func (s *PostStore) freePath(base string) (string, error) {
	path := filepath.Join(s.dir, base+s.extension)
	for i := 1; i <= maxCollisions; i++ {
		_, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			return path, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check %s: %w", path, err)
		}
		path = filepath.Join(s.dir, base+"-"+strconv.Itoa(i)+s.extension)
	}
	return "", fmt.Errorf("too many posts named %s", base)
}
