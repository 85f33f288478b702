package report

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/rss-digest/app/feed"
	"github.com/lysyi3m/rss-digest/app/pipeline"
	"github.com/lysyi3m/rss-digest/app/render"
	"github.com/lysyi3m/rss-digest/app/storage"
)

type fakeFeeds struct {
	articles map[string][]feed.Article
	calls    []string
}

func (f *fakeFeeds) Parse(ctx context.Context, feedURL, sourceName, sourceType string) []feed.Article {
	f.calls = append(f.calls, feedURL)
	return f.articles[feedURL]
}

type fakeCompleter struct {
	reply     string
	err       error
	calls     int
	prompt    string
	maxTokens int
}

func (f *fakeCompleter) Complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	f.calls++
	f.prompt = user
	f.maxTokens = maxTokens
	return f.reply, f.err
}

type noWait struct{}

func (noWait) Wait(ctx context.Context) error {
	return ctx.Err()
}

func newsItem(title, source string, day int) feed.Article {
	return feed.Article{
		Title:       title,
		Link:        "https://example.com/" + strings.ToLower(strings.ReplaceAll(title, " ", "-")),
		Summary:     "Summary of\n" + title,
		PublishedAt: time.Date(2024, 3, day, 12, 0, 0, 0, time.UTC),
		SourceName:  source,
	}
}

func newBuilder(t *testing.T, feeds *fakeFeeds, completer *fakeCompleter, maxArticles int) (*Builder, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "_posts")

	b := NewBuilder(Components{
		Feeds:     feeds,
		Completer: completer,
		Renderer:  render.NewMarkdown([]string{"AI News"}),
		Persister: storage.NewPostStore(dir, ".md"),
		Limiter:   noWait{},
	}, Options{Title: "AI Weekly Report", MaxArticles: maxArticles, MaxTokens: 3000})
	b.now = func() time.Time { return time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC) }
	return b, dir
}

func readReport(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

var sources = []pipeline.Source{
	{Name: "Alpha", URL: "alpha"},
	{Name: "Beta", URL: "beta"},
}

func TestBuild_GeneratedReport(t *testing.T) {
	feeds := &fakeFeeds{articles: map[string][]feed.Article{
		"alpha": {newsItem("Old story", "Alpha", 4)},
		"beta":  {newsItem("New story", "Beta", 9)},
	}}
	completer := &fakeCompleter{reply: "  Agents had a big week.\n"}
	b, dir := newBuilder(t, feeds, completer, 10)

	result, err := b.Build(context.Background(), sources)
	if err != nil {
		t.Fatal(err)
	}

	if !result.Generated || result.Articles != 2 {
		t.Errorf("Expected generated report over 2 articles, got %+v", result)
	}
	if result.Path != filepath.Join(dir, "2024-03-10-weekly-report.md") {
		t.Errorf("Expected dated report path, got %s", result.Path)
	}
	if completer.calls != 1 {
		t.Errorf("Expected exactly one model call, got %d", completer.calls)
	}
	if completer.maxTokens != 3000 {
		t.Errorf("Expected max tokens 3000, got %d", completer.maxTokens)
	}
	if strings.Index(completer.prompt, "New story") > strings.Index(completer.prompt, "Old story") {
		t.Errorf("Expected newest article first in prompt, got %s", completer.prompt)
	}
	if !strings.Contains(completer.prompt, "Summary: Summary of New story") {
		t.Errorf("Expected flattened summary in prompt, got %s", completer.prompt)
	}

	doc := readReport(t, result.Path)
	if !strings.Contains(doc, `title: "AI Weekly Report | 2024-03-10"`) {
		t.Errorf("Expected dated title, got %s", doc)
	}
	if !strings.Contains(doc, "Agents had a big week.\n") {
		t.Errorf("Expected model body, got %s", doc)
	}
	if !strings.Contains(doc, "- [New story](https://example.com/new-story) (Beta, 2024-03-09)") {
		t.Errorf("Expected article list, got %s", doc)
	}
}

func TestBuild_ModelFailureFallsBackToList(t *testing.T) {
	feeds := &fakeFeeds{articles: map[string][]feed.Article{
		"alpha": {newsItem("Only story", "Alpha", 5)},
	}}
	completer := &fakeCompleter{err: errors.New("quota exceeded")}
	b, _ := newBuilder(t, feeds, completer, 10)

	result, err := b.Build(context.Background(), sources)
	if err != nil {
		t.Fatal(err)
	}

	if result.Generated {
		t.Errorf("Expected fallback report")
	}
	doc := readReport(t, result.Path)
	if !strings.Contains(doc, "Report generation failed; 1 articles were collected") {
		t.Errorf("Expected fallback notice, got %s", doc)
	}
	if !strings.Contains(doc, "- [Only story]") {
		t.Errorf("Expected article list in fallback, got %s", doc)
	}
}

func TestBuild_EmptyReplyFallsBack(t *testing.T) {
	feeds := &fakeFeeds{articles: map[string][]feed.Article{
		"alpha": {newsItem("Story", "Alpha", 5)},
	}}
	b, _ := newBuilder(t, feeds, &fakeCompleter{reply: "   "}, 10)

	result, err := b.Build(context.Background(), sources)
	if err != nil {
		t.Fatal(err)
	}
	if result.Generated {
		t.Errorf("Expected blank reply to be treated as a failure")
	}
}

func TestBuild_NoArticlesSkipsModel(t *testing.T) {
	completer := &fakeCompleter{reply: "unused"}
	b, _ := newBuilder(t, &fakeFeeds{}, completer, 10)

	result, err := b.Build(context.Background(), sources)
	if err != nil {
		t.Fatal(err)
	}

	if completer.calls != 0 {
		t.Errorf("Expected no model call, got %d", completer.calls)
	}
	if result.Articles != 0 || result.Generated {
		t.Errorf("Expected empty report, got %+v", result)
	}
	if !strings.Contains(readReport(t, result.Path), NoArticles) {
		t.Errorf("Expected no-articles notice")
	}
}

func TestBuild_CapsArticles(t *testing.T) {
	feeds := &fakeFeeds{articles: map[string][]feed.Article{
		"alpha": {newsItem("Day one", "Alpha", 1), newsItem("Day three", "Alpha", 3)},
		"beta":  {newsItem("Day two", "Beta", 2)},
	}}
	completer := &fakeCompleter{reply: "Body"}
	b, _ := newBuilder(t, feeds, completer, 2)

	result, err := b.Build(context.Background(), sources)
	if err != nil {
		t.Fatal(err)
	}

	if result.Articles != 2 {
		t.Errorf("Expected 2 articles, got %d", result.Articles)
	}
	if strings.Contains(completer.prompt, "Day one") {
		t.Errorf("Expected oldest article dropped, got %s", completer.prompt)
	}
}

func TestBuild_SecondReportSameDayIsSuffixed(t *testing.T) {
	b, dir := newBuilder(t, &fakeFeeds{}, &fakeCompleter{}, 10)

	if _, err := b.Build(context.Background(), sources); err != nil {
		t.Fatal(err)
	}
	result, err := b.Build(context.Background(), sources)
	if err != nil {
		t.Fatal(err)
	}
	if result.Path != filepath.Join(dir, "2024-03-10-weekly-report-1.md") {
		t.Errorf("Expected suffixed path, got %s", result.Path)
	}
}

func TestBuild_Cancelled(t *testing.T) {
	feeds := &fakeFeeds{articles: map[string][]feed.Article{
		"alpha": {newsItem("Story", "Alpha", 5)},
	}}
	completer := &fakeCompleter{reply: "Body"}
	b, dir := newBuilder(t, feeds, completer, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := b.Build(ctx, sources); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if len(feeds.calls) != 0 || completer.calls != 0 {
		t.Errorf("Expected no work after cancellation, got %d parses and %d calls", len(feeds.calls), completer.calls)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("Expected no report written")
	}
}
