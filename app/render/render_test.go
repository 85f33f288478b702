package render

import (
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/rss-digest/app/feed"
	"github.com/mmcdole/gofeed"
)

func testArticle() feed.Article {
	return feed.Article{
		Title:       `GPT-5 "Turbo": What's New?`,
		Link:        "https://example.com/gpt5",
		PublishedAt: time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC),
		SourceName:  "Example Blog",
		Tags:        []string{"AI", "GPT"},
	}
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		`GPT-5 "Turbo": What's New?`: "gpt-5-turbo-whats-new",
		"  Hello   --  World  ":      "hello-world",
		"!!!":                        "untitled",
		"":                           "untitled",
		"Über Café":                  "über-café",
		strings.Repeat("word ", 40):  strings.TrimRight(strings.Repeat("word-", 16), "-"),
	}

	for input, expected := range cases {
		if got := Slug(input); got != expected {
			t.Errorf("Slug(%q): expected %q, got %q", input, expected, got)
		}
	}
}

func TestSlugLength(t *testing.T) {
	slug := Slug(strings.Repeat("abcdefghij", 20))
	if len([]rune(slug)) > maxSlugRunes {
		t.Errorf("Expected at most %d runes, got %d", maxSlugRunes, len([]rune(slug)))
	}
}

func TestFilename(t *testing.T) {
	a := testArticle()
	a.PublishedAt = time.Date(2024, 3, 9, 23, 30, 0, 0, time.FixedZone("X", -5*3600))

	if got := Filename(a); got != "2024-03-10-gpt-5-turbo-whats-new" {
		t.Errorf("Expected UTC-dated filename, got %q", got)
	}
}

func TestMarkdownRender(t *testing.T) {
	r := NewMarkdown([]string{"AI News"})
	doc, err := r.Render(testArticle(), "A short summary.", "Full text of the article.")
	if err != nil {
		t.Fatal(err)
	}
	out := string(doc)

	expected := []string{
		"---\nlayout: post\n",
		`title: "GPT-5 \"Turbo\": What's New?"`,
		"date: 2024-03-09 14:30:00 +0000",
		`categories: ["AI News"]`,
		`tags: ["AI","GPT","Example Blog"]`,
		`source: "Example Blog"`,
		`source_url: "https://example.com/gpt5"`,
		"## AI Summary\n\nA short summary.",
		"## Original Text\n\nFull text of the article.",
		"[View the original article](https://example.com/gpt5)",
	}
	for _, want := range expected {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "content truncated") {
		t.Errorf("Expected no truncation notice for short text")
	}
	if r.Extension() != ".md" {
		t.Errorf("Expected .md extension, got %s", r.Extension())
	}
}

func TestMarkdownRenderParsesAsFrontMatter(t *testing.T) {
	doc, err := NewMarkdown(nil).Render(testArticle(), "s", "t")
	if err != nil {
		t.Fatal(err)
	}

	parts := strings.SplitN(string(doc), "---\n", 3)
	if len(parts) != 3 || parts[0] != "" {
		t.Fatalf("Expected front matter block, got %q", doc)
	}
	if !strings.Contains(parts[1], "categories: []") {
		t.Errorf("Expected empty categories list, got %q", parts[1])
	}
}

func TestMarkdownRenderTruncatesPreview(t *testing.T) {
	full := strings.Repeat("x", previewRunes+500)
	doc, err := NewMarkdown(nil).Render(testArticle(), "s", full)
	if err != nil {
		t.Fatal(err)
	}
	out := string(doc)

	if strings.Contains(out, strings.Repeat("x", previewRunes+1)) {
		t.Errorf("Expected preview cut at %d runes", previewRunes)
	}
	if !strings.Contains(out, "content truncated, 2500 characters in total") {
		t.Errorf("Expected truncation notice, got %s", out)
	}
}

func TestHTMLRender(t *testing.T) {
	r, err := New(FormatHTML, []string{"AI News"})
	if err != nil {
		t.Fatal(err)
	}

	a := testArticle()
	a.Title = "<b>Bold</b> claims"
	doc, err := r.Render(a, "Line one\nLine two", "Body")
	if err != nil {
		t.Fatal(err)
	}
	out := string(doc)

	if !strings.Contains(out, "<title>&lt;b&gt;Bold&lt;/b&gt; claims</title>") {
		t.Errorf("Expected escaped title, got %s", out)
	}
	if !strings.Contains(out, "<p>Line one</p>") || !strings.Contains(out, "<p>Line two</p>") {
		t.Errorf("Expected summary paragraphs, got %s", out)
	}
	if !strings.Contains(out, `<meta name="source_url" content="https://example.com/gpt5">`) {
		t.Errorf("Expected source_url meta, got %s", out)
	}
	if r.Extension() != ".html" {
		t.Errorf("Expected .html extension, got %s", r.Extension())
	}
}

func TestNewUnknownFormat(t *testing.T) {
	if _, err := New("pdf", nil); err == nil {
		t.Errorf("Expected error for unknown format")
	}
}

func TestSitemap(t *testing.T) {
	out := string(Sitemap("https://blog.example.com/", []string{
		"2024-03-09-gpt-5.md",
		"notes.txt",
		"2024-03-10-other.html",
	}))

	if !strings.Contains(out, "<loc>https://blog.example.com/2024/03/09/gpt-5.html</loc>") {
		t.Errorf("Expected permalink for markdown post, got %s", out)
	}
	if !strings.Contains(out, "<loc>https://blog.example.com/2024/03/10/other.html</loc>") {
		t.Errorf("Expected permalink for html post, got %s", out)
	}
	if strings.Count(out, "<url>") != 2 {
		t.Errorf("Expected 2 urls, got %d", strings.Count(out, "<url>"))
	}
}

func TestRSS(t *testing.T) {
	items := []FeedItem{
		{Title: "First & best", Link: "http://localhost/posts/a", PublishedAt: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), Categories: []string{"AI"}},
		{Title: "Second", Link: "http://localhost/posts/b"},
	}
	doc := RSS("Digest", "http://localhost/", "http://localhost/feed.xml", "test", items)

	parsed, err := gofeed.NewParser().ParseString(string(doc))
	if err != nil {
		t.Fatalf("Expected valid feed, got: %v", err)
	}
	if len(parsed.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(parsed.Items))
	}
	if parsed.Items[0].Title != "First & best" {
		t.Errorf("Expected escaped title to round trip, got %q", parsed.Items[0].Title)
	}
	if parsed.Items[1].Description != "No description available" {
		t.Errorf("Expected default description, got %q", parsed.Items[1].Description)
	}
}

func TestPermalink(t *testing.T) {
	cases := map[string]string{
		"2024-03-09-gpt-5.md":           "/2024/03/09/gpt-5.html",
		"2024-03-10-weekly-report.html": "/2024/03/10/weekly-report.html",
		"2024-02-30-impossible-date.md": "",
		"notes.md":                      "",
		"2024-03-09-gpt-5.txt":          "",
	}

	for name, expected := range cases {
		got, ok := Permalink(name)
		if ok != (expected != "") || got != expected {
			t.Errorf("Permalink(%q): expected %q, got %q (ok=%v)", name, expected, got, ok)
		}
	}
}

func testReport() Report {
	first := testArticle()
	second := testArticle()
	second.Title = "Second [story]"
	second.Link = "https://other.example.com/second"
	second.SourceName = "Other Blog"
	second.PublishedAt = time.Date(2024, 3, 8, 9, 0, 0, 0, time.UTC)

	return Report{
		Title:    "AI Weekly Report",
		Date:     time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC),
		Body:     "## Highlights\n\nModels got faster.",
		Articles: []feed.Article{first, second},
	}
}

func TestReportFilename(t *testing.T) {
	date := time.Date(2024, 3, 9, 23, 30, 0, 0, time.FixedZone("X", -5*3600))
	if got := ReportFilename(date); got != "2024-03-10-weekly-report" {
		t.Errorf("Expected UTC-dated report filename, got %q", got)
	}
}

func TestMarkdownRenderReport(t *testing.T) {
	doc, err := NewMarkdown([]string{"AI News"}).RenderReport(testReport())
	if err != nil {
		t.Fatal(err)
	}
	out := string(doc)

	expected := []string{
		"---\nlayout: post\n",
		`title: "AI Weekly Report"`,
		"date: 2024-03-10 08:00:00 +0000",
		`categories: ["AI News"]`,
		`tags: ["Example Blog","Other Blog"]`,
		"articles: 2",
		"## Highlights\n\nModels got faster.\n",
		"## Articles\n\n",
		"- [GPT-5 \"Turbo\": What's New?](https://example.com/gpt5) (Example Blog, 2024-03-09)",
		"- [Second [story]](https://other.example.com/second) (Other Blog, 2024-03-08)",
	}
	for _, want := range expected {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q\n%s", want, out)
		}
	}
}

func TestMarkdownRenderReportWithoutArticles(t *testing.T) {
	r := testReport()
	r.Articles = nil
	doc, err := NewMarkdown(nil).RenderReport(r)
	if err != nil {
		t.Fatal(err)
	}

	if strings.Contains(string(doc), "## Articles") {
		t.Errorf("Expected no article list, got %s", doc)
	}
	if !strings.Contains(string(doc), "tags: []") {
		t.Errorf("Expected empty tags, got %s", doc)
	}
}

func TestHTMLRenderReport(t *testing.T) {
	doc, err := NewHTML(nil).RenderReport(testReport())
	if err != nil {
		t.Fatal(err)
	}
	out := string(doc)

	if !strings.Contains(out, "<h1>AI Weekly Report</h1>") {
		t.Errorf("Expected report heading, got %s", out)
	}
	if !strings.Contains(out, "<p>Models got faster.</p>") {
		t.Errorf("Expected body paragraphs, got %s", out)
	}
	if !strings.Contains(out, `<li><a href="https://other.example.com/second">Second [story]</a> (Other Blog, 2024-03-08)</li>`) {
		t.Errorf("Expected article link, got %s", out)
	}
}

func TestIndex(t *testing.T) {
	out := string(Index("Tom & Co", []IndexEntry{
		{Title: "Weekly <report>", URL: "/2024/03/10/weekly-report.html", Date: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)},
		{Title: "Undated", URL: "/about.html"},
	}))

	if !strings.Contains(out, "<title>Tom &amp; Co</title>") {
		t.Errorf("Expected escaped title, got %s", out)
	}
	if !strings.Contains(out, `<li><a href="/2024/03/10/weekly-report.html">Weekly &lt;report&gt;</a> (2024-03-10)</li>`) {
		t.Errorf("Expected dated entry, got %s", out)
	}
	if !strings.Contains(out, `<li><a href="/about.html">Undated</a></li>`) {
		t.Errorf("Expected undated entry without date, got %s", out)
	}
}
