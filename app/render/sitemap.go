package render

import (
	"bytes"
	"encoding/xml"
	"regexp"
	"strings"
	"time"
)

var postName = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})-(.+)\.(md|html)$`)

// Sitemap lists Jekyll permalinks (/YYYY/MM/DD/slug.html) for post files.
// Names that are not dated posts are skipped.
func Sitemap(baseURL string, filenames []string) []byte {
	var buf bytes.Buffer
	baseURL = strings.TrimRight(baseURL, "/")

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	buf.WriteString("\n")

	for _, name := range filenames {
		permalink, ok := Permalink(name)
		if !ok {
			continue
		}
		buf.WriteString("  <url>\n")
		writeXMLElement(&buf, "loc", baseURL+permalink, 4)
		writeXMLElement(&buf, "lastmod", name[:len("2006-01-02")], 4)
		buf.WriteString("  </url>\n")
	}

	buf.WriteString("</urlset>\n")
	return buf.Bytes()
}

// Permalink maps a dated post file to its Jekyll URL path.
func Permalink(filename string) (string, bool) {
	m := postName.FindStringSubmatch(filename)
	if m == nil {
		return "", false
	}
	if _, err := time.Parse("2006-01-02", m[1]+"-"+m[2]+"-"+m[3]); err != nil {
		return "", false
	}
	return "/" + m[1] + "/" + m[2] + "/" + m[3] + "/" + m[4] + ".html", true
}

func writeXMLElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	buf.WriteString(strings.Repeat(" ", indent))
	buf.WriteString("<" + tag + ">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</" + tag + ">\n")
}
