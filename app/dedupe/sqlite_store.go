package dedupe

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lysyi3m/rss-digest/app/feed"
	_ "modernc.org/sqlite"
)

const (
	articlesTable = "processed_articles"
	runsTable     = "runs"
)

type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer; also keeps in-memory databases on a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	version, dirty, err := RunMigrations(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db, now: time.Now}
	slog.Info("Duplicate database ready", "path", path, "schema_version", version, "dirty", dirty, "records", s.Len())

	return s, nil
}

func (s *SQLiteStore) IsDuplicate(article feed.Article) (bool, error) {
	query, args, err := sq.Select("1").
		From(articlesTable).
		Where(sq.Eq{"dedupe_key": article.DedupeKey()}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build query: %w", err)
	}

	var found int
	err = s.db.QueryRow(query, args...).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check duplicate: %w", err)
	}
	return true, nil
}

func (s *SQLiteStore) MarkProcessed(article feed.Article) error {
	record := newRecord(article, s.now())

	query, args, err := sq.Insert(articlesTable).
		Columns("dedupe_key", "title", "link", "source", "processed_at").
		Values(article.DedupeKey(), record.Title, record.Link, record.Source, record.ProcessedAt.Format(time.RFC3339Nano)).
		Suffix(`ON CONFLICT (dedupe_key) DO UPDATE SET
			title = excluded.title,
			link = excluded.link,
			source = excluded.source,
			processed_at = excluded.processed_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to mark article processed: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Len() int {
	query, args, err := sq.Select("COUNT(*)").From(articlesTable).ToSql()
	if err != nil {
		return 0
	}

	var count int
	if err := s.db.QueryRow(query, args...).Scan(&count); err != nil {
		slog.Error("Failed to count processed articles", "error", err)
		return 0
	}
	return count
}

// Lookup returns the stored record for an article, if any.
func (s *SQLiteStore) Lookup(article feed.Article) (*Record, error) {
	query, args, err := sq.Select("title", "link", "source", "processed_at").
		From(articlesTable).
		Where(sq.Eq{"dedupe_key": article.DedupeKey()}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var record Record
	var processedAt string
	err = s.db.QueryRow(query, args...).Scan(&record.Title, &record.Link, &record.Source, &processedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	record.ProcessedAt, err = time.Parse(time.RFC3339Nano, processedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse processed_at: %w", err)
	}
	return &record, nil
}

func (s *SQLiteStore) RecordRun(run RunRecord) error {
	query, args, err := sq.Insert(runsTable).
		Columns("id", "started_at", "finished_at", "fetched", "downloaded", "summarized",
			"summary_fallbacks", "saved", "skipped_duplicate", "skipped_error", "cancelled").
		Values(run.ID, run.StartedAt.UTC().Format(time.RFC3339Nano), run.FinishedAt.UTC().Format(time.RFC3339Nano),
			run.Fetched, run.Downloaded, run.Summarized, run.SummaryFallbacks, run.Saved,
			run.SkippedDuplicate, run.SkippedError, run.Cancelled).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecentRuns(limit int) ([]RunRecord, error) {
	query, args, err := sq.Select("id", "started_at", "finished_at", "fetched", "downloaded", "summarized",
		"summary_fallbacks", "saved", "skipped_duplicate", "skipped_error", "cancelled").
		From(runsTable).
		OrderBy("started_at DESC").
		Limit(uint64(max(limit, 1))).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var run RunRecord
		var startedAt, finishedAt string
		if err := rows.Scan(&run.ID, &startedAt, &finishedAt, &run.Fetched, &run.Downloaded, &run.Summarized,
			&run.SummaryFallbacks, &run.Saved, &run.SkippedDuplicate, &run.SkippedError, &run.Cancelled); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("failed to parse started_at of run %s: %w", run.ID, err)
		}
		if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt); err != nil {
			return nil, fmt.Errorf("failed to parse finished_at of run %s: %w", run.ID, err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
