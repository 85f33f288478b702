// Package render turns summarized articles into blog posts.
package render

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/lysyi3m/rss-digest/app/feed"
)

const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"

	maxSlugRunes   = 80
	previewRunes   = 2000
	untitledSlug   = "untitled"
	frontMatterSep = "---"
)

type Renderer interface {
	Render(a feed.Article, summary, fullText string) ([]byte, error)
	RenderReport(r Report) ([]byte, error)
	Filename(a feed.Article) string
	Extension() string
}

// New returns the renderer for an output format
func New(format string, categories []string) (Renderer, error) {
	switch format {
	case "", FormatMarkdown:
		return NewMarkdown(categories), nil
	case FormatHTML:
		return NewHTML(categories), nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
}

var (
	nonWord     = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	dashOrSpace = regexp.MustCompile(`[-\s]+`)
)

// Slug lowercases the title, drops non-word characters and joins words with
// single hyphens.
func Slug(title string) string {
	slug := strings.ToLower(title)
	slug = nonWord.ReplaceAllString(slug, "")
	slug = strings.Trim(dashOrSpace.ReplaceAllString(slug, "-"), "-")

	if utf8.RuneCountInString(slug) > maxSlugRunes {
		slug = strings.TrimRight(string([]rune(slug)[:maxSlugRunes]), "-")
	}
	if slug == "" {
		return untitledSlug
	}
	return slug
}

// Filename is the dated post name without extension: YYYY-MM-DD-slug
func Filename(a feed.Article) string {
	return a.PublishedAt.UTC().Format("2006-01-02") + "-" + Slug(a.Title)
}

// postTags returns the article tags with the source name appended
func postTags(a feed.Article) []string {
	tags := slices.Clone(a.Tags)
	if tags == nil {
		tags = []string{}
	}
	if a.SourceName != "" && !slices.Contains(tags, a.SourceName) {
		tags = append(tags, a.SourceName)
	}
	return tags
}

// preview cuts text to previewRunes and reports the full length when it did
func preview(text string) (string, int, bool) {
	total := utf8.RuneCountInString(text)
	if total <= previewRunes {
		return text, total, false
	}
	return string([]rune(text)[:previewRunes]), total, true
}
