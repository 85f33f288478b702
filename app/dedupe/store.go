// Package dedupe remembers which articles have already been published so
// later runs skip them.
package dedupe

import (
	"fmt"
	"time"

	"github.com/lysyi3m/rss-digest/app/feed"
)

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

type Record struct {
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	ProcessedAt time.Time `json:"processed_at"`
	Source      string    `json:"source"`
}

// Store is single-writer: exactly one pipeline run owns it at a time.
type Store interface {
	IsDuplicate(article feed.Article) (bool, error)
	// MarkProcessed persists the record before returning.
	MarkProcessed(article feed.Article) error
	Len() int
	Close() error
}

// RecordLookup is implemented by backends that can report when an article
// was first processed.
type RecordLookup interface {
	Lookup(article feed.Article) (*Record, error)
}

type RunRecord struct {
	ID               string
	StartedAt        time.Time
	FinishedAt       time.Time
	Fetched          int
	Downloaded       int
	Summarized       int
	SummaryFallbacks int
	Saved            int
	SkippedDuplicate int
	SkippedError     int
	Cancelled        bool
}

// RunRecorder is implemented by backends that keep a run history.
type RunRecorder interface {
	RecordRun(run RunRecord) error
	RecentRuns(limit int) ([]RunRecord, error)
}

func Open(backend, path string) (Store, error) {
	switch backend {
	case "", BackendJSON:
		return NewJSONStore(path), nil
	case BackendSQLite:
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown dedupe backend %q", backend)
	}
}

func newRecord(article feed.Article, now time.Time) Record {
	return Record{
		Title:       article.Title,
		Link:        article.Link,
		ProcessedAt: now.UTC(),
		Source:      article.SourceName,
	}
}
