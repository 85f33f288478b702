package pipeline

import (
	"context"

	"github.com/lysyi3m/rss-digest/app/dedupe"
	"github.com/lysyi3m/rss-digest/app/extract"
	"github.com/lysyi3m/rss-digest/app/feed"
	"github.com/lysyi3m/rss-digest/app/fetch"
	"github.com/lysyi3m/rss-digest/app/llm"
	"github.com/lysyi3m/rss-digest/app/render"
	"github.com/lysyi3m/rss-digest/app/storage"
)

type FeedSource interface {
	Parse(ctx context.Context, feedURL, sourceName, sourceType string) []feed.Article
}

type TextExtractor interface {
	StripMarkup(raw string) string
	MaxChars() int
}

type Downloader interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, text, title string) (string, error)
}

type Persister interface {
	Save(filename string, doc []byte) (string, error)
}

type Limiter interface {
	Wait(ctx context.Context) error
}

var (
	_ FeedSource      = (*feed.Ingestor)(nil)
	_ TextExtractor   = (*extract.ContentExtractor)(nil)
	_ Downloader      = (*fetch.Downloader)(nil)
	_ Summarizer      = (*llm.Client)(nil)
	_ Persister       = (*storage.PostStore)(nil)
	_ Limiter         = (*fetch.RateLimiter)(nil)
	_ render.Renderer = (*render.Markdown)(nil)
	_ render.Renderer = (*render.HTML)(nil)
	_ dedupe.Store    = (*dedupe.JSONStore)(nil)
	_ dedupe.Store    = (*dedupe.SQLiteStore)(nil)

	_ dedupe.RecordLookup = (*dedupe.JSONStore)(nil)
	_ dedupe.RecordLookup = (*dedupe.SQLiteStore)(nil)
)
