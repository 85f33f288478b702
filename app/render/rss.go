package render

import (
	"bytes"
	"cmp"
	"fmt"
	"html"
	"time"
)

// FeedItem is one generated post in the digest feed
type FeedItem struct {
	Title       string
	Link        string
	Description string
	PublishedAt time.Time
	Categories  []string
}

// RSS builds an RSS 2.0 document over generated posts, newest first as given
func RSS(title, link, selfLink, version string, items []FeedItem) []byte {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	writeXMLElement(&buf, "title", title, 4)
	writeXMLElement(&buf, "link", link, 4)
	writeXMLElement(&buf, "description", "Summarized articles from configured feeds", 4)
	if selfLink != "" {
		fmt.Fprintf(&buf, "    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n", html.EscapeString(selfLink))
	}

	lastBuildDate := time.Now().UTC()
	if len(items) > 0 {
		lastBuildDate = cmp.Or(items[0].PublishedAt, lastBuildDate)
	}
	writeXMLElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	writeXMLElement(&buf, "generator", "rss-digest/"+version, 4)

	for _, item := range items {
		buf.WriteString("    <item>\n")
		writeXMLElement(&buf, "title", item.Title, 6)
		writeXMLElement(&buf, "link", item.Link, 6)
		if item.Link != "" {
			fmt.Fprintf(&buf, "      <guid isPermaLink=\"true\">%s</guid>\n", html.EscapeString(item.Link))
		}
		writeXMLElement(&buf, "description", cmp.Or(item.Description, "No description available"), 6)
		if !item.PublishedAt.IsZero() {
			writeXMLElement(&buf, "pubDate", item.PublishedAt.Format(time.RFC1123Z), 6)
		}
		for _, category := range item.Categories {
			writeXMLElement(&buf, "category", category, 6)
		}
		buf.WriteString("    </item>\n")
	}

	buf.WriteString("  </channel>\n</rss>")
	return buf.Bytes()
}
