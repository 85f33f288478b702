package storage

import (
	"cmp"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/lysyi3m/rss-digest/app/dates"
	"github.com/lysyi3m/rss-digest/app/extract"
	"gopkg.in/yaml.v3"
)

const untitled = "Untitled"

var (
	datedName    = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)
	titleLine    = regexp.MustCompile(`(?m)^title:\s*['"]?(.+?)['"]?\s*$`)
	firstHeading = regexp.MustCompile(`(?m)^#\s+(.+)$`)
)

// Post is a generated post read back from disk
type Post struct {
	Filename   string
	Path       string
	Date       time.Time
	Title      string
	Source     string
	SourceURL  string
	Categories []string
	Tags       []string
	Body       string
}

type frontMatter struct {
	Title      string   `yaml:"title"`
	Date       string   `yaml:"date"`
	Categories []string `yaml:"categories"`
	Tags       []string `yaml:"tags"`
	Source     string   `yaml:"source"`
	SourceURL  string   `yaml:"source_url"`
}

// List returns the dated posts in dir, newest first. Files without a
// YYYY-MM-DD in their name are ignored.
func List(dir string) ([]Post, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read posts directory: %w", err)
	}

	posts := make([]Post, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !isPostFile(name) {
			continue
		}

		post, err := Read(filepath.Join(dir, name))
		if err != nil {
			slog.Warn("Skipping unreadable post", "file", name, "error", err)
			continue
		}
		posts = append(posts, *post)
	}

	slices.SortStableFunc(posts, func(a, b Post) int {
		return cmp.Or(
			strings.Compare(fileDate(b.Filename), fileDate(a.Filename)),
			strings.Compare(b.Filename, a.Filename),
		)
	})
	return posts, nil
}

// Latest returns the post whose filename carries the newest date
func Latest(dir string) (*Post, error) {
	posts, err := List(dir)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, fmt.Errorf("no posts found in %s", dir)
	}
	return &posts[0], nil
}

// Read loads a Markdown or HTML post and extracts its title and body
func Read(path string) (*Post, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read post: %w", err)
	}

	name := filepath.Base(path)
	post := &Post{Filename: name, Path: path}

	if strings.EqualFold(filepath.Ext(name), ".html") {
		if err := readHTML(post, string(data)); err != nil {
			return nil, err
		}
	} else {
		readMarkdown(post, string(data))
	}

	if post.Date.IsZero() {
		if day, err := time.Parse("2006-01-02", fileDate(name)); err == nil {
			post.Date = day
		}
	}
	post.Title = cmp.Or(post.Title, untitled)
	return post, nil
}

func readMarkdown(post *Post, content string) {
	raw, body, found := splitFrontMatter(content)
	post.Body = strings.TrimSpace(body)

	if found {
		var meta frontMatter
		if err := yaml.Unmarshal([]byte(raw), &meta); err == nil {
			post.Title = strings.TrimSpace(meta.Title)
			post.Source = meta.Source
			post.SourceURL = meta.SourceURL
			post.Categories = meta.Categories
			post.Tags = meta.Tags
			if date, err := dates.ParseString(meta.Date); err == nil {
				post.Date = date
			}
		} else if m := titleLine.FindStringSubmatch(raw); m != nil {
			post.Title = strings.TrimSpace(m[1])
		}
	}

	if post.Title == "" {
		if m := firstHeading.FindStringSubmatch(post.Body); m != nil {
			post.Title = strings.TrimSpace(m[1])
		}
	}
}

func readHTML(post *Post, content string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return fmt.Errorf("failed to parse post: %w", err)
	}

	post.Title = strings.TrimSpace(cmp.Or(doc.Find("title").First().Text(), doc.Find("h1").First().Text()))
	post.Source = metaContent(doc, "source")
	post.SourceURL = metaContent(doc, "source_url")
	if date, err := dates.ParseString(metaContent(doc, "date")); err == nil {
		post.Date = date
	}
	if keywords := metaContent(doc, "keywords"); keywords != "" {
		for _, tag := range strings.Split(keywords, ",") {
			post.Tags = append(post.Tags, strings.TrimSpace(tag))
		}
	}
	if categories := metaContent(doc, "categories"); categories != "" {
		for _, category := range strings.Split(categories, ",") {
			post.Categories = append(post.Categories, strings.TrimSpace(category))
		}
	}

	body := doc.Find("article").First()
	if body.Length() == 0 {
		body = doc.Find("body")
	}

	var blocks []string
	body.Find("h1, h2, h3, p, li").Each(func(_ int, s *goquery.Selection) {
		if text := extract.NormalizeWhitespace(s.Text()); text != "" {
			blocks = append(blocks, text)
		}
	})
	if len(blocks) == 0 {
		blocks = append(blocks, extract.NormalizeWhitespace(body.Text()))
	}
	post.Body = strings.Join(blocks, "\n\n")
	return nil
}

func metaContent(doc *goquery.Document, name string) string {
	value, _ := doc.Find(`meta[name="` + name + `"]`).Attr("content")
	return strings.TrimSpace(value)
}

// splitFrontMatter separates a leading --- block from the rest of the post
func splitFrontMatter(content string) (string, string, bool) {
	content = strings.TrimPrefix(content, "\ufeff")
	if !strings.HasPrefix(content, "---") {
		return "", content, false
	}

	lines := strings.SplitAfter(content, "\n")
	if strings.TrimSpace(lines[0]) != "---" {
		return "", content, false
	}

	offset := len(lines[0])
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "---" {
			raw := content[len(lines[0]):offset]
			return raw, content[offset+len(line):], true
		}
		offset += len(line)
	}
	return "", content, false
}

func isPostFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return (ext == ".md" || ext == ".html") && fileDate(name) != ""
}

func fileDate(name string) string {
	return datedName.FindString(name)
}
