// Package report composes one aggregate post from the recent articles of all
// sources with a single model call.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lysyi3m/rss-digest/app/feed"
	"github.com/lysyi3m/rss-digest/app/llm"
	"github.com/lysyi3m/rss-digest/app/pipeline"
	"github.com/lysyi3m/rss-digest/app/render"
	"github.com/lysyi3m/rss-digest/app/storage"
)

const (
	summaryRunes = 800

	NoArticles = "No new articles were published in this period."

	systemPrompt = "You are a technology columnist writing a weekly review of AI news for a blog."
)

type Completer interface {
	Complete(ctx context.Context, system, user string, maxTokens int) (string, error)
}

var (
	_ Completer          = (*llm.Client)(nil)
	_ pipeline.Persister = (*storage.PostStore)(nil)
)

type Options struct {
	Title       string
	MaxArticles int
	MaxTokens   int
}

type Components struct {
	Feeds     pipeline.FeedSource
	Filterer  *feed.Filterer
	Completer Completer
	Renderer  render.Renderer
	Persister pipeline.Persister
	Limiter   pipeline.Limiter
}

// Result describes a saved report
type Result struct {
	Path      string
	Articles  int
	Generated bool // false when the body is the fallback text
}

type Builder struct {
	Components
	opts Options
	now  func() time.Time
}

func NewBuilder(c Components, opts Options) *Builder {
	if c.Filterer == nil {
		c.Filterer = feed.NewFilterer()
	}
	return &Builder{Components: c, opts: opts, now: time.Now}
}

// Build collects articles from sources, asks the model for one article about
// them and saves it as a dated post. A failed model call still saves a post
// that lists the collected articles.
func (b *Builder) Build(ctx context.Context, sources []pipeline.Source) (*Result, error) {
	articles, err := b.collect(ctx, sources)
	if err != nil {
		return nil, err
	}

	feed.SortByRecency(articles)
	if b.opts.MaxArticles > 0 && len(articles) > b.opts.MaxArticles {
		articles = articles[:b.opts.MaxArticles]
	}

	body, generated := b.compose(context.WithoutCancel(ctx), articles)
	date := b.now().UTC()

	doc, err := b.Renderer.RenderReport(render.Report{
		Title:    fmt.Sprintf("%s | %s", b.opts.Title, date.Format("2006-01-02")),
		Date:     date,
		Body:     body,
		Articles: articles,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	path, err := b.Persister.Save(render.ReportFilename(date), doc)
	if err != nil {
		return nil, fmt.Errorf("failed to save report: %w", err)
	}

	slog.Info("Report saved", "path", path, "articles", len(articles), "generated", generated)
	return &Result{Path: path, Articles: len(articles), Generated: generated}, nil
}

func (b *Builder) collect(ctx context.Context, sources []pipeline.Source) ([]feed.Article, error) {
	work := context.WithoutCancel(ctx)
	var articles []feed.Article

	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := b.Limiter.Wait(ctx); err != nil {
			return nil, err
		}

		found := b.Feeds.Parse(work, source.URL, source.Name, source.Type)
		found = b.Filterer.Run(found, source.Filters)
		slog.Info("Source collected", "source", source.Name, "articles", len(found))
		articles = append(articles, found...)
	}
	return articles, nil
}

func (b *Builder) compose(ctx context.Context, articles []feed.Article) (string, bool) {
	if len(articles) == 0 {
		return NoArticles, false
	}

	body, err := b.Completer.Complete(ctx, systemPrompt, prompt(articles), b.opts.MaxTokens)
	if err == nil && strings.TrimSpace(body) != "" {
		return strings.TrimSpace(body), true
	}

	slog.Warn("Report generation failed, listing articles only", "articles", len(articles), "error", err)
	return fmt.Sprintf("Report generation failed; %d articles were collected and are listed below.", len(articles)), false
}

func prompt(articles []feed.Article) string {
	var sb strings.Builder
	sb.WriteString("Write a blog article of about 800 words reviewing this week's AI news listed below.\n")
	sb.WriteString("- Give it a clear structure: introduction, main developments, outlook\n")
	sb.WriteString("- Keep the language professional but easy to follow\n")
	sb.WriteString("- Mention the sources of the key developments\n")
	sb.WriteString("Output the article body only, in Markdown, without a title.\n\n")
	sb.WriteString("This week's news:\n")

	for _, a := range articles {
		fmt.Fprintf(&sb, "- **%s** (source: %s)\n", oneLine(a.Title), a.SourceName)
		if summary := oneLine(a.Summary); summary != "" {
			fmt.Fprintf(&sb, "  Summary: %s\n", firstRunes(summary, summaryRunes))
		}
		if a.Link != "" {
			fmt.Fprintf(&sb, "  Link: %s\n", a.Link)
		}
	}
	return sb.String()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func firstRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
