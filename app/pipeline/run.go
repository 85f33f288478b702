package pipeline

import (
	"time"

	"github.com/google/uuid"
	"github.com/lysyi3m/rss-digest/app/dedupe"
)

// Outcome is the terminal state of one article
type Outcome int

const (
	Saved Outcome = iota
	SkippedDuplicate
	SkippedError
)

func (o Outcome) String() string {
	switch o {
	case Saved:
		return "saved"
	case SkippedDuplicate:
		return "skipped_duplicate"
	default:
		return "skipped_error"
	}
}

type Stats struct {
	Fetched          int
	Downloaded       int // articles whose full text was resolved, inline or downloaded
	Summarized       int
	SummaryFallbacks int
	Saved            int
	SkippedDuplicate int
	SkippedError     int
}

// Run holds the state of a single pipeline pass
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Cancelled  bool
	Stats      Stats
}

func newRun() *Run {
	return &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
}

func (r *Run) record(outcome Outcome) {
	switch outcome {
	case Saved:
		r.Stats.Saved++
	case SkippedDuplicate:
		r.Stats.SkippedDuplicate++
	default:
		r.Stats.SkippedError++
	}
}

func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *Run) toRecord() dedupe.RunRecord {
	return dedupe.RunRecord{
		ID:               r.ID,
		StartedAt:        r.StartedAt,
		FinishedAt:       r.FinishedAt,
		Fetched:          r.Stats.Fetched,
		Downloaded:       r.Stats.Downloaded,
		Summarized:       r.Stats.Summarized,
		SummaryFallbacks: r.Stats.SummaryFallbacks,
		Saved:            r.Stats.Saved,
		SkippedDuplicate: r.Stats.SkippedDuplicate,
		SkippedError:     r.Stats.SkippedError,
		Cancelled:        r.Cancelled,
	}
}
