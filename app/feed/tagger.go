package feed

import "strings"

const MaxTags = 8

type KeywordTag struct {
	Keyword string `yaml:"keyword"`
	Tag     string `yaml:"tag"`
}

var DefaultBaseTags = []string{"AI"}

var DefaultKeywordTags = []KeywordTag{
	{Keyword: "machine learning", Tag: "Machine Learning"},
	{Keyword: "deep learning", Tag: "Deep Learning"},
	{Keyword: "llm", Tag: "LLM"},
	{Keyword: "gpt", Tag: "GPT"},
	{Keyword: "transformer", Tag: "Transformer"},
	{Keyword: "nlp", Tag: "NLP"},
	{Keyword: "computer vision", Tag: "Computer Vision"},
	{Keyword: "reinforcement learning", Tag: "Reinforcement Learning"},
	{Keyword: "robot", Tag: "Robotics"},
	{Keyword: "generative", Tag: "Generative AI"},
	{Keyword: "openai", Tag: "OpenAI"},
	{Keyword: "google", Tag: "Google"},
	{Keyword: "deepmind", Tag: "DeepMind"},
	{Keyword: "arxiv", Tag: "ArXiv"},
	{Keyword: "chatgpt", Tag: "ChatGPT"},
	{Keyword: "diffusion", Tag: "Diffusion Models"},
	{Keyword: "multimodal", Tag: "Multimodal"},
	{Keyword: "agent", Tag: "Agents"},
}

type Tagger struct {
	baseTags []string
	keywords []KeywordTag
}

// NewTagger falls back to the built-in tables when given nil slices.
func NewTagger(baseTags []string, keywords []KeywordTag) *Tagger {
	if baseTags == nil {
		baseTags = DefaultBaseTags
	}
	if keywords == nil {
		keywords = DefaultKeywordTags
	}
	return &Tagger{baseTags: baseTags, keywords: keywords}
}

// Enrich adds base tags and keyword tags matched in the title, feed summary
// and AI summary, then caps the set at MaxTags.
func (t *Tagger) Enrich(article *Article, aiSummary string) {
	article.AddTags(t.baseTags...)

	text := strings.ToLower(strings.Join([]string{article.Title, article.Summary, aiSummary}, " "))
	for _, kw := range t.keywords {
		if kw.Keyword != "" && strings.Contains(text, strings.ToLower(kw.Keyword)) {
			article.AddTags(kw.Tag)
		}
	}

	if len(article.Tags) > MaxTags {
		article.Tags = article.Tags[:MaxTags]
	}
}
