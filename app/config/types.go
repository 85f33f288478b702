package config

import (
	"github.com/lysyi3m/rss-digest/app/extract"
	"github.com/lysyi3m/rss-digest/app/feed"
)

// Config represents a complete run configuration file
type Config struct {
	LLM        LLMConfig        `yaml:"llm"`
	Sources    []Source         `yaml:"rss_sources"`
	Crawler    CrawlerConfig    `yaml:"crawler"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Dedupe     DedupeConfig     `yaml:"dedupe"`
	Output     OutputConfig     `yaml:"output"`
	Report     ReportConfig     `yaml:"report"`
	Email      EmailConfig      `yaml:"email"`
}

// LLMConfig describes an OpenAI-compatible chat completions endpoint
type LLMConfig struct {
	APIKey      string   `yaml:"api_key"`
	Endpoint    string   `yaml:"endpoint"`
	Model       string   `yaml:"model"`
	MaxTokens   int      `yaml:"max_tokens"`
	Temperature float64  `yaml:"temperature"`
	Timeout     Duration `yaml:"timeout"`
}

// Source is a single RSS/Atom feed
type Source struct {
	Name    string        `yaml:"name"`
	URL     string        `yaml:"url"`
	Type    string        `yaml:"type"`
	Enabled *bool         `yaml:"enabled"`
	Filters []feed.Filter `yaml:"filters"`
}

// CrawlerConfig contains fetching and publishing limits
type CrawlerConfig struct {
	MaxArticles  int               `yaml:"max_articles"`
	DaysBack     int               `yaml:"days_back"`
	OutputDir    string            `yaml:"output_dir"`
	Timeout      Duration          `yaml:"timeout"` // per request
	Retries      int               `yaml:"retries"` // total attempts per article download
	UserAgent    string            `yaml:"user_agent"`
	RequestDelay Duration          `yaml:"request_delay"`
	Categories   []string          `yaml:"categories"`
	BaseTags     []string          `yaml:"base_tags"`
	KeywordTags  []feed.KeywordTag `yaml:"keyword_tags"`
}

// ExtractionConfig tunes main-content extraction
type ExtractionConfig struct {
	MaxChars            int                `yaml:"max_chars"`
	ReadabilityFallback bool               `yaml:"readability_fallback"`
	SiteRules           []extract.SiteRule `yaml:"site_rules"`
}

type DedupeConfig struct {
	Backend string `yaml:"backend"` // json or sqlite
	Path    string `yaml:"path"`
}

type OutputConfig struct {
	Format  string `yaml:"format"`   // markdown or html
	BaseURL string `yaml:"base_url"` // enables sitemap.xml and index.html next to output_dir when set
	Title   string `yaml:"title"`    // index.html heading
}

// ReportConfig is only needed by the report command
type ReportConfig struct {
	Title       string `yaml:"title"`
	MaxArticles int    `yaml:"max_articles"` // most recent articles passed to the model
	MaxTokens   int    `yaml:"max_tokens"`
}

// EmailConfig is only needed by the notify command
type EmailConfig struct {
	SMTPServer string   `yaml:"smtp_server"`
	SMTPPort   int      `yaml:"smtp_port"` // 0 tries 465 then 587
	User       string   `yaml:"user"`
	Password   string   `yaml:"password"`
	Recipient  string   `yaml:"recipient"`
	Timeout    Duration `yaml:"timeout"`
}
