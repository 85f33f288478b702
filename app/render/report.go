package render

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/lysyi3m/rss-digest/app/feed"
)

// Report is one aggregate post covering many articles.
type Report struct {
	Title    string
	Date     time.Time
	Body     string
	Articles []feed.Article
}

// ReportFilename is YYYY-MM-DD-weekly-report, without extension
func ReportFilename(date time.Time) string {
	return date.UTC().Format("2006-01-02") + "-weekly-report"
}

func reportTags(r Report) []string {
	tags := []string{}
	seen := map[string]bool{}
	for _, a := range r.Articles {
		if a.SourceName != "" && !seen[a.SourceName] {
			seen[a.SourceName] = true
			tags = append(tags, a.SourceName)
		}
	}
	return tags
}

func (m *Markdown) RenderReport(r Report) ([]byte, error) {
	var buf bytes.Buffer

	categories, err := json.Marshal(m.categoryList())
	if err != nil {
		return nil, fmt.Errorf("failed to encode categories: %w", err)
	}
	tags, err := json.Marshal(reportTags(r))
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}

	buf.WriteString(frontMatterSep + "\n")
	buf.WriteString("layout: post\n")
	fmt.Fprintf(&buf, "title: %s\n", quoteYAML(cmp.Or(r.Title, "Weekly Report")))
	fmt.Fprintf(&buf, "date: %s\n", r.Date.UTC().Format("2006-01-02 15:04:05 -0700"))
	fmt.Fprintf(&buf, "categories: %s\n", categories)
	fmt.Fprintf(&buf, "tags: %s\n", tags)
	fmt.Fprintf(&buf, "articles: %d\n", len(r.Articles))
	buf.WriteString(frontMatterSep + "\n\n")

	buf.WriteString(r.Body)
	buf.WriteString("\n")

	if len(r.Articles) > 0 {
		buf.WriteString("\n## Articles\n\n")
		for _, a := range r.Articles {
			fmt.Fprintf(&buf, "- [%s](%s) (%s, %s)\n",
				cmp.Or(a.Title, "Untitled"),
				cmp.Or(a.Link, "#"),
				cmp.Or(a.SourceName, "Unknown"),
				a.PublishedAt.UTC().Format("2006-01-02"))
		}
	}

	return buf.Bytes(), nil
}

func (h *HTML) RenderReport(r Report) ([]byte, error) {
	var buf bytes.Buffer
	title := cmp.Or(r.Title, "Weekly Report")

	buf.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	buf.WriteString("  <meta charset=\"utf-8\">\n")
	h.writeElement(&buf, "title", title, 2)
	h.writeMeta(&buf, "date", r.Date.UTC().Format(time.RFC3339))
	h.writeMeta(&buf, "categories", strings.Join(h.categories, ", "))
	h.writeMeta(&buf, "keywords", strings.Join(reportTags(r), ", "))
	buf.WriteString("</head>\n<body>\n<article>\n")

	h.writeElement(&buf, "h1", title, 2)
	buf.WriteString("  <section class=\"report\">\n")
	h.writeParagraphs(&buf, r.Body)
	buf.WriteString("  </section>\n")

	if len(r.Articles) > 0 {
		buf.WriteString("  <section class=\"articles\">\n")
		h.writeElement(&buf, "h2", "Articles", 4)
		buf.WriteString("    <ul>\n")
		for _, a := range r.Articles {
			fmt.Fprintf(&buf, "      <li><a href=\"%s\">%s</a> (%s, %s)</li>\n",
				html.EscapeString(cmp.Or(a.Link, "#")),
				html.EscapeString(cmp.Or(a.Title, "Untitled")),
				html.EscapeString(cmp.Or(a.SourceName, "Unknown")),
				a.PublishedAt.UTC().Format("2006-01-02"))
		}
		buf.WriteString("    </ul>\n  </section>\n")
	}

	buf.WriteString("</article>\n</body>\n</html>\n")
	return buf.Bytes(), nil
}
