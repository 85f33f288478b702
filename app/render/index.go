package render

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"
)

type IndexEntry struct {
	Title string
	URL   string
	Date  time.Time
}

// Index renders a static home page linking entries in the given order.
func Index(title string, entries []IndexEntry) []byte {
	var buf bytes.Buffer
	escapedTitle := html.EscapeString(title)

	buf.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	buf.WriteString("  <meta charset=\"utf-8\">\n")
	fmt.Fprintf(&buf, "  <title>%s</title>\n", escapedTitle)
	buf.WriteString("</head>\n<body>\n")
	fmt.Fprintf(&buf, "  <header><h1>%s</h1></header>\n", escapedTitle)
	buf.WriteString("  <main>\n    <h2>Latest posts</h2>\n    <ul>\n")

	for _, entry := range entries {
		date := ""
		if !entry.Date.IsZero() {
			date = " (" + entry.Date.UTC().Format("2006-01-02") + ")"
		}
		fmt.Fprintf(&buf, "      <li><a href=\"%s\">%s</a>%s</li>\n",
			html.EscapeString(entry.URL),
			html.EscapeString(strings.TrimSpace(entry.Title)),
			date)
	}

	buf.WriteString("    </ul>\n  </main>\n</body>\n</html>\n")
	return buf.Bytes()
}
