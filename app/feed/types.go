package feed

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"time"
)

const DefaultSourceType = "news"

type Article struct {
	Title       string
	Link        string
	PublishedAt time.Time // always UTC, never zero once ingested
	Summary     string
	SourceName  string
	SourceType  string
	RawContent  string
	Tags        []string
	Content     string
}

// DedupeKey identifies an article across runs. The title is part of the key,
// so an entry reissued under a corrected title is treated as new.
func (a Article) DedupeKey() string {
	content := fmt.Sprintf("%s|%s", a.Title, NormalizeLink(a.Link))

	hash := md5.Sum([]byte(content))
	return hex.EncodeToString(hash[:])
}

// AddTags appends tags that are non-empty and not already present, keeping
// insertion order.
func (a *Article) AddTags(tags ...string) {
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || slices.Contains(a.Tags, tag) {
			continue
		}
		a.Tags = append(a.Tags, tag)
	}
}

// NormalizeLink drops the query string and fragment.
func NormalizeLink(link string) string {
	if idx := strings.IndexAny(link, "?#"); idx >= 0 {
		return link[:idx]
	}
	return link
}

// SortByRecency orders articles newest first, keeping feed order for equal
// timestamps.
func SortByRecency(articles []Article) {
	slices.SortStableFunc(articles, func(a, b Article) int {
		return b.PublishedAt.Compare(a.PublishedAt)
	})
}

type Filter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

var FilterFields = []string{"title", "summary", "content", "link", "tags"}
