// Package pipeline drives one batch run: ingest, dedupe, resolve content,
// summarize, render, persist.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lysyi3m/rss-digest/app/dedupe"
	"github.com/lysyi3m/rss-digest/app/extract"
	"github.com/lysyi3m/rss-digest/app/feed"
	"github.com/lysyi3m/rss-digest/app/llm"
	"github.com/lysyi3m/rss-digest/app/render"
)

const (
	inlineContentRunes   = 200
	fallbackSummaryRunes = 200
	NoSummary            = "No summary available."
)

type Source struct {
	Name    string
	URL     string
	Type    string
	Filters []feed.Filter
}

type Components struct {
	Feeds      FeedSource
	Filterer   *feed.Filterer
	Store      dedupe.Store
	Extractor  TextExtractor
	Downloader Downloader
	Summarizer Summarizer
	Tagger     *feed.Tagger
	Renderer   render.Renderer
	Persister  Persister
	Limiter    Limiter
}

type Orchestrator struct {
	Components
	maxArticles int
}

func NewOrchestrator(c Components, maxArticles int) *Orchestrator {
	if c.Filterer == nil {
		c.Filterer = feed.NewFilterer()
	}
	if c.Tagger == nil {
		c.Tagger = feed.NewTagger(nil, nil)
	}
	return &Orchestrator{Components: c, maxArticles: maxArticles}
}

// Run processes sources in order until they are exhausted, the save ceiling
// is reached or ctx is cancelled. Cancellation is only checked before each
// source and each article; calls already in flight complete.
func (o *Orchestrator) Run(ctx context.Context, sources []Source) *Run {
	run := newRun()
	work := context.WithoutCancel(ctx)

	slog.Info("Run started", "run_id", run.ID, "sources", len(sources), "max_articles", o.maxArticles)

sourceLoop:
	for _, source := range sources {
		if o.stopRequested(ctx, run) || o.ceilingReached(run) {
			break
		}
		if err := o.Limiter.Wait(ctx); err != nil {
			o.stopRequested(ctx, run)
			break
		}

		start := time.Now()
		articles := o.Feeds.Parse(work, source.URL, source.Name, source.Type)
		articles = o.Filterer.Run(articles, source.Filters)
		run.Stats.Fetched += len(articles)

		saved := 0
		for i := range articles {
			if o.stopRequested(ctx, run) || o.ceilingReached(run) {
				break sourceLoop
			}
			if err := o.Limiter.Wait(ctx); err != nil {
				o.stopRequested(ctx, run)
				break sourceLoop
			}

			outcome := o.ProcessArticle(work, run, &articles[i])
			run.record(outcome)
			if outcome == Saved {
				saved++
			}
		}

		slog.Info("Source processed",
			"source", source.Name,
			"duration", time.Since(start),
			"articles", len(articles),
			"saved", saved)
	}

	run.FinishedAt = time.Now().UTC()
	o.finish(run)
	return run
}

// ProcessArticle moves one article to a terminal state and updates the
// intermediate counters of run.
func (o *Orchestrator) ProcessArticle(ctx context.Context, run *Run, article *feed.Article) Outcome {
	duplicate, err := o.Store.IsDuplicate(*article)
	if err != nil {
		slog.Error("Duplicate check failed", "title", article.Title, "error", err)
		return SkippedError
	}
	if duplicate {
		attrs := []any{"title", article.Title, "source", article.SourceName}
		if lookup, ok := o.Store.(dedupe.RecordLookup); ok {
			if record, err := lookup.Lookup(*article); err == nil && record != nil {
				attrs = append(attrs, "processed_at", record.ProcessedAt)
			}
		}
		slog.Info("Skipping duplicate article", attrs...)
		return SkippedDuplicate
	}

	article.Content = o.resolveContent(ctx, article)
	if article.Content == "" {
		slog.Warn("No content available, skipping", "title", article.Title, "link", article.Link)
		return SkippedError
	}
	run.Stats.Downloaded++

	summary := o.summarize(ctx, run, article)
	o.Tagger.Enrich(article, summary)

	path, err := o.persist(article, summary)
	if err != nil {
		slog.Error("Failed to save article", "title", article.Title, "error", err)
		return SkippedError
	}

	if err := o.Store.MarkProcessed(*article); err != nil {
		slog.Error("Failed to record processed article", "title", article.Title, "path", path, "error", err)
	}
	return Saved
}

func (o *Orchestrator) resolveContent(ctx context.Context, article *feed.Article) string {
	if utf8.RuneCountInString(article.RawContent) >= inlineContentRunes {
		text := o.Extractor.StripMarkup(article.RawContent)
		if text != "" {
			return extract.Truncate(text, o.Extractor.MaxChars())
		}
	}

	if article.Link == "" {
		return ""
	}

	slog.Debug("Downloading content", "title", article.Title, "link", article.Link)
	content, err := o.Downloader.Fetch(ctx, article.Link)
	if err != nil {
		slog.Warn("Content download failed", "title", article.Title, "link", article.Link, "error", err)
		return ""
	}
	return content
}

func (o *Orchestrator) summarize(ctx context.Context, run *Run, article *feed.Article) string {
	summary, err := o.Summarizer.Summarize(ctx, article.Content, article.Title)
	if err == nil && strings.TrimSpace(summary) != "" {
		run.Stats.Summarized++
		return summary
	}

	if errors.Is(err, llm.ErrContentTooShort) {
		slog.Info("Content too short for summarization, using feed summary", "title", article.Title)
	} else {
		slog.Warn("Summarization failed, using feed summary", "title", article.Title, "error", err)
	}
	run.Stats.SummaryFallbacks++

	if fallback := firstRunes(strings.TrimSpace(article.Summary), fallbackSummaryRunes); fallback != "" {
		return fallback
	}
	return NoSummary
}

func (o *Orchestrator) persist(article *feed.Article, summary string) (string, error) {
	doc, err := o.Renderer.Render(*article, summary, article.Content)
	if err != nil {
		return "", fmt.Errorf("failed to render: %w", err)
	}

	path, err := o.Persister.Save(o.Renderer.Filename(*article), doc)
	if err != nil {
		return "", fmt.Errorf("failed to persist: %w", err)
	}
	if path == "" {
		return "", fmt.Errorf("persister returned no path")
	}
	return path, nil
}

func (o *Orchestrator) stopRequested(ctx context.Context, run *Run) bool {
	if ctx.Err() == nil {
		return false
	}
	if !run.Cancelled {
		slog.Info("Stop requested, no new work will be started", "run_id", run.ID)
	}
	run.Cancelled = true
	return true
}

func (o *Orchestrator) ceilingReached(run *Run) bool {
	if o.maxArticles > 0 && run.Stats.Saved >= o.maxArticles {
		slog.Info("Reached maximum saved articles", "max_articles", o.maxArticles)
		return true
	}
	return false
}

func (o *Orchestrator) finish(run *Run) {
	slog.Info("Run completed",
		"run_id", run.ID,
		"duration", run.Duration(),
		"cancelled", run.Cancelled,
		"fetched", run.Stats.Fetched,
		"downloaded", run.Stats.Downloaded,
		"summarized", run.Stats.Summarized,
		"summary_fallbacks", run.Stats.SummaryFallbacks,
		"saved", run.Stats.Saved,
		"skipped_duplicate", run.Stats.SkippedDuplicate,
		"skipped_error", run.Stats.SkippedError,
		"known_articles", o.Store.Len())

	if recorder, ok := o.Store.(dedupe.RunRecorder); ok {
		if err := recorder.RecordRun(run.toRecord()); err != nil {
			slog.Error("Failed to record run", "run_id", run.ID, "error", err)
		}
	}
}

func firstRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
