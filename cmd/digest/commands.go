package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/lysyi3m/rss-digest/app/cfg"
	"github.com/lysyi3m/rss-digest/app/config"
	"github.com/lysyi3m/rss-digest/app/dedupe"
	"github.com/lysyi3m/rss-digest/app/extract"
	"github.com/lysyi3m/rss-digest/app/feed"
	"github.com/lysyi3m/rss-digest/app/fetch"
	"github.com/lysyi3m/rss-digest/app/llm"
	"github.com/lysyi3m/rss-digest/app/notify"
	"github.com/lysyi3m/rss-digest/app/pipeline"
	"github.com/lysyi3m/rss-digest/app/preview"
	"github.com/lysyi3m/rss-digest/app/render"
	"github.com/lysyi3m/rss-digest/app/report"
	"github.com/lysyi3m/rss-digest/app/storage"
)

func runDigest(ctx context.Context, conf *config.Config) error {
	if err := conf.RequireLLM(); err != nil {
		return err
	}

	crawler := conf.Crawler
	extractor := extract.NewContentExtractor(
		extract.WithSiteRules(conf.Extraction.SiteRules...),
		extract.WithMaxChars(conf.Extraction.MaxChars),
		extract.WithReadabilityFallback(conf.Extraction.ReadabilityFallback),
	)

	renderer, err := render.New(conf.Output.Format, crawler.Categories)
	if err != nil {
		return err
	}

	store, err := dedupe.Open(conf.Dedupe.Backend, conf.Dedupe.Path)
	if err != nil {
		return fmt.Errorf("failed to open dedupe store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("Failed to close dedupe store", "error", err)
		}
	}()

	llmCfg := conf.LLM
	summarizer := llm.NewClient(nil, llmCfg.Endpoint, llmCfg.APIKey, llmCfg.Model, llmCfg.MaxTokens, llmCfg.Temperature, llmCfg.Timeout.Std())

	orchestrator := pipeline.NewOrchestrator(pipeline.Components{
		Feeds:      feed.NewIngestor(nil, extractor, crawler.UserAgent, crawler.Timeout.Std(), crawler.DaysBack),
		Store:      store,
		Extractor:  extractor,
		Downloader: fetch.NewDownloader(extractor, crawler.UserAgent, crawler.Timeout.Std(), crawler.Retries),
		Summarizer: summarizer,
		Tagger:     feed.NewTagger(crawler.BaseTags, crawler.KeywordTags),
		Renderer:   renderer,
		Persister:  storage.NewPostStore(crawler.OutputDir, renderer.Extension()),
		Limiter:    fetch.NewRateLimiter(crawler.RequestDelay.Std()),
	}, crawler.MaxArticles)

	run := orchestrator.Run(ctx, enabledSources(conf))
	if run.Cancelled {
		slog.Warn("Run interrupted", "saved", run.Stats.Saved)
	}

	writeSiteFiles(conf)
	return nil
}

func generateReport(ctx context.Context, conf *config.Config) error {
	if err := conf.RequireLLM(); err != nil {
		return err
	}

	crawler := conf.Crawler
	extractor := extract.NewContentExtractor(
		extract.WithSiteRules(conf.Extraction.SiteRules...),
		extract.WithMaxChars(conf.Extraction.MaxChars),
	)

	renderer, err := render.New(conf.Output.Format, crawler.Categories)
	if err != nil {
		return err
	}

	llmCfg := conf.LLM
	completer := llm.NewClient(nil, llmCfg.Endpoint, llmCfg.APIKey, llmCfg.Model, llmCfg.MaxTokens, llmCfg.Temperature, llmCfg.Timeout.Std())

	builder := report.NewBuilder(report.Components{
		Feeds:     feed.NewIngestor(nil, extractor, crawler.UserAgent, crawler.Timeout.Std(), crawler.DaysBack),
		Completer: completer,
		Renderer:  renderer,
		Persister: storage.NewPostStore(crawler.OutputDir, renderer.Extension()),
		Limiter:   fetch.NewRateLimiter(crawler.RequestDelay.Std()),
	}, report.Options{
		Title:       conf.Report.Title,
		MaxArticles: conf.Report.MaxArticles,
		MaxTokens:   conf.Report.MaxTokens,
	})

	if _, err := builder.Build(ctx, enabledSources(conf)); err != nil {
		return err
	}

	writeSiteFiles(conf)
	return nil
}

func enabledSources(conf *config.Config) []pipeline.Source {
	enabled := conf.EnabledSources()
	sources := make([]pipeline.Source, 0, len(enabled))
	for _, source := range enabled {
		sources = append(sources, pipeline.Source{
			Name:    source.Name,
			URL:     source.URL,
			Type:    source.Type,
			Filters: source.Filters,
		})
	}
	return sources
}

// writeSiteFiles refreshes sitemap.xml and index.html in the site root, the
// parent of the posts directory. Nothing is written without a base URL.
func writeSiteFiles(conf *config.Config) {
	if conf.Output.BaseURL == "" {
		return
	}

	postsDir := conf.Crawler.OutputDir
	posts, err := storage.List(postsDir)
	if err != nil {
		slog.Error("Failed to list posts for site files", "error", err)
		return
	}

	filenames := make([]string, 0, len(posts))
	entries := make([]render.IndexEntry, 0, len(posts))
	for _, post := range posts {
		filenames = append(filenames, post.Filename)
		if permalink, ok := render.Permalink(post.Filename); ok {
			entries = append(entries, render.IndexEntry{Title: post.Title, URL: permalink, Date: post.Date})
		}
	}

	root := filepath.Dir(filepath.Clean(postsDir))
	files := map[string][]byte{
		"sitemap.xml": render.Sitemap(conf.Output.BaseURL, filenames),
		"index.html":  render.Index(conf.Output.Title, entries),
	}
	for name, doc := range files {
		path := filepath.Join(root, name)
		if err := os.WriteFile(path, doc, 0644); err != nil {
			slog.Error("Failed to write site file", "path", path, "error", err)
			continue
		}
		slog.Info("Site file written", "path", path, "posts", len(entries))
	}
}

func sendNotification(ctx context.Context, conf *config.Config) error {
	if err := conf.RequireEmail(); err != nil {
		return err
	}

	notifier := notify.NewNotifier(conf.Crawler.OutputDir, notify.Settings{
		Server:    conf.Email.SMTPServer,
		Port:      conf.Email.SMTPPort,
		User:      conf.Email.User,
		Password:  conf.Email.Password,
		Recipient: conf.Email.Recipient,
		Timeout:   conf.Email.Timeout.Std(),
	})
	return notifier.SendLatest(ctx)
}

func servePreview(ctx context.Context, appCfg *cfg.Cfg, conf *config.Config) error {
	var runs dedupe.RunRecorder
	if conf.Dedupe.Backend == dedupe.BackendSQLite {
		store, err := dedupe.NewSQLiteStore(conf.Dedupe.Path)
		if err != nil {
			return fmt.Errorf("failed to open run history: %w", err)
		}
		defer store.Close()
		runs = store
	}

	handler := preview.NewHandler(conf.Crawler.OutputDir, runs, appCfg.Version)
	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      preview.NewServer(handler, appCfg.AccessKey),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting preview server", "port", appCfg.Port, "posts", conf.Crawler.OutputDir)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down preview server")
	case err := <-serverErr:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown error: %w", err)
	}
	slog.Info("Preview server stopped")
	return nil
}
