package render

import (
	"bytes"
	"cmp"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/lysyi3m/rss-digest/app/feed"
)

// HTML renders standalone pages
type HTML struct {
	categories []string
}

func NewHTML(categories []string) *HTML {
	return &HTML{categories: categories}
}

func (h *HTML) Extension() string {
	return ".html"
}

func (h *HTML) Filename(a feed.Article) string {
	return Filename(a)
}

func (h *HTML) Render(a feed.Article, summary, fullText string) ([]byte, error) {
	var buf bytes.Buffer
	title := cmp.Or(a.Title, "Untitled")

	buf.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	buf.WriteString("  <meta charset=\"utf-8\">\n")
	h.writeElement(&buf, "title", title, 2)
	h.writeMeta(&buf, "date", a.PublishedAt.UTC().Format(time.RFC3339))
	h.writeMeta(&buf, "source", a.SourceName)
	h.writeMeta(&buf, "source_url", a.Link)
	h.writeMeta(&buf, "categories", strings.Join(h.categories, ", "))
	h.writeMeta(&buf, "keywords", strings.Join(postTags(a), ", "))
	buf.WriteString("</head>\n<body>\n<article>\n")

	h.writeElement(&buf, "h1", title, 2)
	fmt.Fprintf(&buf, "  <p class=\"meta\">%s &middot; %s</p>\n",
		html.EscapeString(a.PublishedAt.UTC().Format("2006-01-02")),
		html.EscapeString(cmp.Or(a.SourceName, "Unknown")))

	buf.WriteString("  <section class=\"summary\">\n")
	h.writeElement(&buf, "h2", "AI Summary", 4)
	h.writeParagraphs(&buf, summary)
	buf.WriteString("  </section>\n")

	buf.WriteString("  <section class=\"original\">\n")
	h.writeElement(&buf, "h2", "Original Text", 4)
	text, total, truncated := preview(fullText)
	h.writeParagraphs(&buf, text)
	if truncated {
		h.writeElement(&buf, "p", fmt.Sprintf("... (content truncated, %d characters in total) ...", total), 4)
	}
	buf.WriteString("  </section>\n")

	fmt.Fprintf(&buf, "  <p><a href=\"%s\">View the original article</a></p>\n", html.EscapeString(cmp.Or(a.Link, "#")))
	buf.WriteString("</article>\n</body>\n</html>\n")

	return buf.Bytes(), nil
}

func (h *HTML) writeParagraphs(buf *bytes.Buffer, text string) {
	for _, paragraph := range strings.Split(text, "\n") {
		if strings.TrimSpace(paragraph) != "" {
			h.writeElement(buf, "p", paragraph, 4)
		}
	}
}

func (h *HTML) writeMeta(buf *bytes.Buffer, name, content string) {
	if content == "" {
		return
	}
	fmt.Fprintf(buf, "  <meta name=\"%s\" content=\"%s\">\n", name, html.EscapeString(content))
}

func (h *HTML) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	buf.WriteString(strings.Repeat(" ", indent))
	buf.WriteString("<" + tag + ">")
	buf.WriteString(html.EscapeString(content))
	buf.WriteString("</" + tag + ">\n")
}
