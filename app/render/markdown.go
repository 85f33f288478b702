package render

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lysyi3m/rss-digest/app/feed"
)

// Markdown renders Jekyll posts with YAML front matter
type Markdown struct {
	categories []string
}

func NewMarkdown(categories []string) *Markdown {
	return &Markdown{categories: categories}
}

func (m *Markdown) Extension() string {
	return ".md"
}

func (m *Markdown) Filename(a feed.Article) string {
	return Filename(a)
}

func (m *Markdown) Render(a feed.Article, summary, fullText string) ([]byte, error) {
	var buf bytes.Buffer

	if err := m.writeFrontMatter(&buf, a); err != nil {
		return nil, err
	}

	buf.WriteString("## AI Summary\n\n")
	buf.WriteString(summary)
	buf.WriteString("\n\n---\n\n")

	buf.WriteString("## Original Text\n\n")
	text, total, truncated := preview(fullText)
	buf.WriteString(text)
	if truncated {
		fmt.Fprintf(&buf, "\n\n... (content truncated, %d characters in total) ...\n\n", total)
	} else {
		buf.WriteString("\n\n")
	}

	buf.WriteString("## Read the Original\n\n")
	fmt.Fprintf(&buf, "[View the original article](%s)\n", cmp.Or(a.Link, "#"))

	return buf.Bytes(), nil
}

func (m *Markdown) writeFrontMatter(buf *bytes.Buffer, a feed.Article) error {
	categories, err := json.Marshal(m.categoryList())
	if err != nil {
		return fmt.Errorf("failed to encode categories: %w", err)
	}
	tags, err := json.Marshal(postTags(a))
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	buf.WriteString(frontMatterSep + "\n")
	buf.WriteString("layout: post\n")
	fmt.Fprintf(buf, "title: %s\n", quoteYAML(cmp.Or(a.Title, "Untitled")))
	fmt.Fprintf(buf, "date: %s\n", a.PublishedAt.UTC().Format("2006-01-02 15:04:05 -0700"))
	fmt.Fprintf(buf, "categories: %s\n", categories)
	fmt.Fprintf(buf, "tags: %s\n", tags)
	fmt.Fprintf(buf, "source: %s\n", quoteYAML(cmp.Or(a.SourceName, "Unknown")))
	fmt.Fprintf(buf, "source_url: %s\n", quoteYAML(a.Link))
	buf.WriteString(frontMatterSep + "\n\n")
	return nil
}

func (m *Markdown) categoryList() []string {
	if len(m.categories) == 0 {
		return []string{}
	}
	return m.categories
}

var yamlQuoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", " ", "\r", " ")

// quoteYAML returns a double-quoted YAML scalar
func quoteYAML(s string) string {
	return `"` + yamlQuoter.Replace(s) + `"`
}
