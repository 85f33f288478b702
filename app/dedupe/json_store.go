package dedupe

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lysyi3m/rss-digest/app/feed"
)

// JSONStore keeps the whole cache in memory and rewrites the file on every
// MarkProcessed.
type JSONStore struct {
	path    string
	records map[string]Record
	now     func() time.Time
}

// NewJSONStore never fails: a missing or unreadable cache starts empty.
func NewJSONStore(path string) *JSONStore {
	s := &JSONStore{
		path:    path,
		records: make(map[string]Record),
		now:     time.Now,
	}
	s.load()
	return s
}

func (s *JSONStore) load() {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("Duplicate cache not found, starting empty", "path", s.path)
		return
	}
	if err != nil {
		slog.Warn("Failed to read duplicate cache, starting empty", "path", s.path, "error", err)
		return
	}

	var records map[string]Record
	if err := json.Unmarshal(data, &records); err != nil {
		slog.Warn("Duplicate cache is corrupt, starting empty", "path", s.path, "error", err)
		return
	}
	if records != nil {
		s.records = records
	}

	slog.Info("Duplicate cache loaded", "path", s.path, "records", len(s.records))
}

func (s *JSONStore) IsDuplicate(article feed.Article) (bool, error) {
	_, ok := s.records[article.DedupeKey()]
	return ok, nil
}

// MarkProcessed leaves the in-memory cache unchanged when the file cannot be
// written.
func (s *JSONStore) MarkProcessed(article feed.Article) error {
	key := article.DedupeKey()
	previous, existed := s.records[key]

	s.records[key] = newRecord(article, s.now())
	if err := s.save(); err != nil {
		if existed {
			s.records[key] = previous
		} else {
			delete(s.records, key)
		}
		return err
	}
	return nil
}

// Lookup returns the stored record for an article, if any.
func (s *JSONStore) Lookup(article feed.Article) (*Record, error) {
	record, ok := s.records[article.DedupeKey()]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (s *JSONStore) Len() int {
	return len(s.records)
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) save() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode duplicate cache: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write duplicate cache: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync duplicate cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close duplicate cache: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace duplicate cache: %w", err)
	}
	return nil
}
