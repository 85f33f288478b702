package preview

import (
	"time"

	"github.com/lysyi3m/rss-digest/app/dedupe"
)

type Handler struct {
	postsDir string
	runs     dedupe.RunRecorder
	version  string
	now      func() time.Time
}

type postSummary struct {
	Name      string    `json:"name"`
	Title     string    `json:"title"`
	Date      time.Time `json:"date"`
	Source    string    `json:"source,omitempty"`
	SourceURL string    `json:"source_url,omitempty"`
	Tags      []string  `json:"tags"`
	URL       string    `json:"url"`
}

type runSummary struct {
	ID               string    `json:"id"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
	Fetched          int       `json:"fetched"`
	Downloaded       int       `json:"downloaded"`
	Summarized       int       `json:"summarized"`
	SummaryFallbacks int       `json:"summary_fallbacks"`
	Saved            int       `json:"saved"`
	SkippedDuplicate int       `json:"skipped_duplicate"`
	SkippedError     int       `json:"skipped_error"`
	Cancelled        bool      `json:"cancelled"`
}
