package extract

import (
	stdhtml "html"
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

const (
	DefaultMaxChars = 8000
	ellipsis        = "..."
)

// Elements with no reader-facing value, removed before any text is read.
const noiseSelector = "script, style, nav, footer, header, aside, iframe, noscript"

// SiteRule pins the content container for pages whose URL contains Match.
type SiteRule struct {
	Match    string `yaml:"match"`
	Selector string `yaml:"selector"`
}

var DefaultSiteRules = []SiteRule{
	{Match: "arxiv.org", Selector: "div.ltx_page_main"},
	{Match: "openai.com", Selector: "div.f-body-1"},
}

// GenericSelectors are tried in order; the first one with any match decides
// the container.
var GenericSelectors = []string{
	"article",
	"main",
	`[role="main"]`,
	".post-content",
	".entry-content",
	".article-content",
	".content",
	"#content",
	".post-body",
	".markdown-body",
}

var angleReplacer = strings.NewReplacer("<", " ", ">", " ")

type ContentExtractor struct {
	siteRules           []SiteRule
	maxChars            int
	readabilityFallback bool
}

type Option func(*ContentExtractor)

// WithSiteRules puts rules ahead of the built-in ones.
func WithSiteRules(rules ...SiteRule) Option {
	return func(e *ContentExtractor) {
		merged := make([]SiteRule, 0, len(rules)+len(e.siteRules))
		for _, rule := range rules {
			if rule.Match != "" && rule.Selector != "" {
				merged = append(merged, rule)
			}
		}
		e.siteRules = append(merged, e.siteRules...)
	}
}

func WithMaxChars(n int) Option {
	return func(e *ContentExtractor) {
		if n > 0 {
			e.maxChars = n
		}
	}
}

// WithReadabilityFallback runs go-readability on pages where no generic
// selector matched, before settling for the whole body.
func WithReadabilityFallback(enabled bool) Option {
	return func(e *ContentExtractor) {
		e.readabilityFallback = enabled
	}
}

func NewContentExtractor(opts ...Option) *ContentExtractor {
	e := &ContentExtractor{
		siteRules: append([]SiteRule(nil), DefaultSiteRules...),
		maxChars:  DefaultMaxChars,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *ContentExtractor) MaxChars() int {
	return e.maxChars
}

// StripMarkup returns the visible text of an HTML fragment on a single line.
func (e *ContentExtractor) StripMarkup(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	decoded := stdhtml.UnescapeString(raw)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(decoded))
	if err != nil {
		return NormalizeWhitespace(angleReplacer.Replace(decoded))
	}
	doc.Find(noiseSelector).Remove()

	return NormalizeWhitespace(angleReplacer.Replace(nodeText(doc.Nodes...)))
}

// ExtractMainContent locates the primary content block of a full page and
// returns its text, truncated to the configured budget.
func (e *ContentExtractor) ExtractMainContent(raw, originHint string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		slog.Debug("Failed to parse HTML", "url", originHint, "error", err)
		return ""
	}
	doc.Find(noiseSelector).Remove()

	text, strategy := e.siteRuleText(doc, originHint), "site_rule"
	if text == "" {
		text, strategy = genericText(doc), "selector"
	}
	if text == "" && e.readabilityFallback {
		text, strategy = readabilityText(raw, originHint), "readability"
	}
	if text == "" {
		text, strategy = selectionText(doc.Find("body")), "body"
	}

	slog.Debug("Main content located", "url", originHint, "strategy", strategy, "content_length", utf8.RuneCountInString(text))

	return Truncate(text, e.maxChars)
}

func (e *ContentExtractor) siteRuleText(doc *goquery.Document, originHint string) string {
	if originHint == "" {
		return ""
	}
	for _, rule := range e.siteRules {
		if !strings.Contains(originHint, rule.Match) {
			continue
		}
		if found := doc.Find(rule.Selector).First(); found.Length() > 0 {
			return selectionText(found)
		}
	}
	return ""
}

func genericText(doc *goquery.Document) string {
	for _, selector := range GenericSelectors {
		matches := doc.Find(selector)
		if matches.Length() == 0 {
			continue
		}

		longest, longestLen := "", -1
		matches.Each(func(_ int, s *goquery.Selection) {
			text := selectionText(s)
			if n := utf8.RuneCountInString(text); n > longestLen {
				longest, longestLen = text, n
			}
		})
		return longest
	}
	return ""
}

func readabilityText(raw, originHint string) string {
	pageURL, err := url.Parse(originHint)
	if err != nil || pageURL.Host == "" {
		pageURL = nil
	}

	article, err := readability.FromReader(strings.NewReader(raw), pageURL)
	if err != nil {
		slog.Debug("Readability extraction failed", "url", originHint, "error", err)
		return ""
	}
	return NormalizeWhitespace(angleReplacer.Replace(article.TextContent))
}

func selectionText(s *goquery.Selection) string {
	return NormalizeWhitespace(angleReplacer.Replace(nodeText(s.Nodes...)))
}

// nodeText joins text nodes with spaces so adjacent blocks do not run
// together the way Selection.Text() does.
func nodeText(nodes ...*html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
			return
		case html.CommentNode, html.DoctypeNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return sb.String()
}
