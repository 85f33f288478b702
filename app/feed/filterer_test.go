package feed

import (
	"testing"
)

func TestFilterer_Run_NoFilters(t *testing.T) {
	filterer := NewFilterer()

	articles := []Article{
		{Title: "Test Article 1", Summary: "Test summary"},
		{Title: "Test Article 2", Summary: "Another summary"},
	}

	result := filterer.Run(articles, nil)

	if len(result) != 2 {
		t.Errorf("Expected 2 articles, got %d", len(result))
	}
}

func TestFilterer_Run_TitleInclude(t *testing.T) {
	filterer := NewFilterer()

	articles := []Article{
		{Title: "Breaking News: Important Update"},
		{Title: "Sports Update"},
		{Title: "Weather Report"},
	}

	result := filterer.Run(articles, []Filter{
		{Field: "title", Includes: []string{"news", "UPDATE"}},
	})

	if len(result) != 2 {
		t.Fatalf("Expected 2 articles, got %d", len(result))
	}
	if result[0].Title != "Breaking News: Important Update" || result[1].Title != "Sports Update" {
		t.Errorf("Expected matching articles in feed order, got: %q, %q", result[0].Title, result[1].Title)
	}
}

func TestFilterer_Run_ExcludeWins(t *testing.T) {
	filterer := NewFilterer()

	articles := []Article{
		{Title: "Model release", Summary: "Sponsored post about a model"},
		{Title: "Model release", Summary: "Benchmarks and weights"},
	}

	result := filterer.Run(articles, []Filter{
		{Field: "title", Includes: []string{"model"}},
		{Field: "summary", Excludes: []string{"sponsored"}},
	})

	if len(result) != 1 {
		t.Fatalf("Expected 1 article, got %d", len(result))
	}
	if result[0].Summary != "Benchmarks and weights" {
		t.Errorf("Expected unsponsored article, got: %q", result[0].Summary)
	}
}

func TestFilterer_Run_LinkTagsAndContent(t *testing.T) {
	filterer := NewFilterer()

	articles := []Article{
		{Title: "A", Link: "https://example.com/jobs/1"},
		{Title: "B", Link: "https://example.com/posts/2", Tags: []string{"Research", "Vision"}},
		{Title: "C", Link: "https://example.com/posts/3", RawContent: "<p>Podcast episode</p>"},
	}

	result := filterer.Run(articles, []Filter{
		{Field: "link", Excludes: []string{"/jobs/"}},
		{Field: "content", Excludes: []string{"podcast"}},
	})
	if len(result) != 1 || result[0].Title != "B" {
		t.Errorf("Expected only article B, got %+v", result)
	}

	result = filterer.Run(articles, []Filter{{Field: "tags", Includes: []string{"vision"}}})
	if len(result) != 1 || result[0].Title != "B" {
		t.Errorf("Expected tag filter to keep only B, got %+v", result)
	}
}

func TestFilterer_Run_UnknownFieldMatchesNothing(t *testing.T) {
	filterer := NewFilterer()

	articles := []Article{{Title: "Anything"}}

	result := filterer.Run(articles, []Filter{{Field: "author", Includes: []string{"someone"}}})
	if len(result) != 0 {
		t.Errorf("Expected include on unknown field to drop article, got %d", len(result))
	}
}
