package feed

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run drops articles rejected by any of the source's filters.
func (f *Filterer) Run(articles []Article, filters []Filter) []Article {
	if len(filters) == 0 {
		return articles
	}

	kept := make([]Article, 0, len(articles))
	for _, article := range articles {
		if isFiltered, reason := f.applyFilters(article, filters); isFiltered {
			slog.Debug("Article filtered", "source", article.SourceName, "title", article.Title, "reason", reason)
			continue
		}
		kept = append(kept, article)
	}

	return kept
}

func (f *Filterer) applyFilters(article Article, filters []Filter) (bool, string) {
	for _, filter := range filters {
		value := strings.ToLower(f.getFieldValue(article, filter.Field))
		contains := func(term string) bool {
			return strings.Contains(value, strings.ToLower(term))
		}

		if idx := slices.IndexFunc(filter.Excludes, contains); idx >= 0 {
			return true, fmt.Sprintf("%s contains excluded term %q", filter.Field, filter.Excludes[idx])
		}
		if len(filter.Includes) > 0 && !slices.ContainsFunc(filter.Includes, contains) {
			return true, fmt.Sprintf("%s matches none of %v", filter.Field, filter.Includes)
		}
	}

	return false, ""
}

func (f *Filterer) getFieldValue(article Article, field string) string {
	switch field {
	case "title":
		return article.Title
	case "summary":
		return article.Summary
	case "content":
		return article.RawContent
	case "link":
		return article.Link
	case "tags":
		return strings.Join(article.Tags, " ")
	default:
		return ""
	}
}
