package feed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lysyi3m/rss-digest/app/dates"
	"github.com/lysyi3m/rss-digest/app/extract"
	"github.com/mmcdole/gofeed"
)

const (
	summaryPreviewRunes = 300
	maxFeedSize         = 10 << 20
)

type Ingestor struct {
	httpClient *http.Client
	parser     *gofeed.Parser
	extractor  *extract.ContentExtractor
	userAgent  string
	timeout    time.Duration
	daysBack   int
	now        func() time.Time
}

func NewIngestor(httpClient *http.Client, extractor *extract.ContentExtractor, userAgent string, timeout time.Duration, daysBack int) *Ingestor {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Ingestor{
		httpClient: httpClient,
		parser:     gofeed.NewParser(),
		extractor:  extractor,
		userAgent:  userAgent,
		timeout:    timeout,
		daysBack:   daysBack,
		now:        time.Now,
	}
}

// Parse fetches one feed and returns its recent entries in feed order. Any
// failure is logged and yields an empty slice.
func (i *Ingestor) Parse(ctx context.Context, feedURL, sourceName, sourceType string) []Article {
	start := time.Now()
	if sourceType == "" {
		sourceType = DefaultSourceType
	}

	data, err := i.fetchFeed(ctx, feedURL)
	if err != nil {
		slog.Error("Failed to fetch feed", "source", sourceName, "url", feedURL, "error", err)
		return []Article{}
	}

	parsed, err := i.parseFeed(data, sourceName)
	if err != nil {
		slog.Error("Failed to parse feed", "source", sourceName, "url", feedURL, "error", err)
		return []Article{}
	}
	if len(parsed.Items) == 0 {
		slog.Warn("Feed has no entries", "source", sourceName)
		return []Article{}
	}

	now := i.now().UTC()
	var cutoff time.Time
	if i.daysBack > 0 {
		cutoff = now.AddDate(0, 0, -i.daysBack)
	}

	articles := make([]Article, 0, len(parsed.Items))
	untitled, stale := 0, 0
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		article := i.normalizeItem(item, sourceName, sourceType, now)
		if article.Title == "" {
			untitled++
			continue
		}
		if !cutoff.IsZero() && article.PublishedAt.Before(cutoff) {
			stale++
			continue
		}
		articles = append(articles, article)
	}

	slog.Info("Feed parsed",
		"source", sourceName,
		"duration", time.Since(start),
		"entries", len(parsed.Items),
		"articles", len(articles),
		"untitled", untitled,
		"stale", stale)

	return articles
}

func (i *Ingestor) fetchFeed(ctx context.Context, feedURL string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", i.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.5")

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// parseFeed retries once on a sanitized copy of the document when the
// first parse fails.
func (i *Ingestor) parseFeed(data []byte, sourceName string) (*gofeed.Feed, error) {
	parsed, err := i.parser.Parse(bytes.NewReader(data))
	if err == nil {
		return parsed, nil
	}

	recovered, retryErr := i.parser.Parse(bytes.NewReader(sanitizeXML(data)))
	if retryErr != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	slog.Warn("Feed recovered after sanitizing", "source", sourceName, "error", err, "entries", len(recovered.Items))
	return recovered, nil
}

func (i *Ingestor) normalizeItem(item *gofeed.Item, sourceName, sourceType string, now time.Time) Article {
	article := Article{
		Title:       i.extractor.StripMarkup(item.Title),
		Link:        strings.TrimSpace(item.Link),
		PublishedAt: publishedAt(item, now),
		Summary:     i.extractor.StripMarkup(item.Description),
		SourceName:  sourceName,
		SourceType:  sourceType,
		RawContent:  item.Content,
	}

	if article.Link == "" {
		for _, link := range item.Links {
			if link = strings.TrimSpace(link); link != "" {
				article.Link = link
				break
			}
		}
	}

	if strings.TrimSpace(article.RawContent) == "" {
		article.RawContent = item.Description
	}

	if article.Summary == "" && article.RawContent != "" {
		article.Summary = firstRunes(i.extractor.StripMarkup(article.RawContent), summaryPreviewRunes)
	}

	article.AddTags(item.Categories...)

	return article
}

func publishedAt(item *gofeed.Item, now time.Time) time.Time {
	// Raw strings first: gofeed reads unknown zone abbreviations such as PDT
	// as UTC.
	candidates := []any{item.Published, item.Updated}
	if item.DublinCoreExt != nil {
		for _, date := range item.DublinCoreExt.Date {
			candidates = append(candidates, date)
		}
	}
	candidates = append(candidates, item.PublishedParsed, item.UpdatedParsed)

	for _, candidate := range candidates {
		if t, err := dates.Normalize(candidate); err == nil {
			return t
		}
	}
	return now
}

// sanitizeXML drops bytes that are illegal in XML 1.0 along with anything
// before the first tag.
func sanitizeXML(data []byte) []byte {
	if idx := bytes.IndexByte(data, '<'); idx > 0 {
		data = data[idx:]
	}

	clean := make([]byte, 0, len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r != utf8.RuneError || size > 1 {
			if isXMLChar(r) {
				clean = append(clean, data[:size]...)
			}
		}
		data = data[size:]
	}
	return clean
}

func isXMLChar(r rune) bool {
	return r == '\t' || r == '\n' || r == '\r' ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0x10FFFF)
}

func firstRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}
