package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/lysyi3m/rss-digest/app/dedupe"
	"github.com/lysyi3m/rss-digest/app/extract"
	"github.com/lysyi3m/rss-digest/app/feed"
	"github.com/lysyi3m/rss-digest/app/fetch"
	"gopkg.in/yaml.v3"
)

const (
	DefaultLLMEndpoint = "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions"
	DefaultLLMModel    = "qwen-plus"

	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// Default returns a configuration with every optional field filled in.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Endpoint:    DefaultLLMEndpoint,
			Model:       DefaultLLMModel,
			MaxTokens:   800,
			Temperature: 0.3,
			Timeout:     Duration(60 * time.Second),
		},
		Crawler: CrawlerConfig{
			MaxArticles:  20,
			DaysBack:     7,
			OutputDir:    "_posts",
			Timeout:      Duration(10 * time.Second),
			Retries:      3,
			UserAgent:    fetch.DefaultUserAgent,
			RequestDelay: Duration(time.Second),
			Categories:   []string{"AI News"},
		},
		Extraction: ExtractionConfig{
			MaxChars: extract.DefaultMaxChars,
		},
		Dedupe: DedupeConfig{
			Backend: dedupe.BackendJSON,
			Path:    "crawler_cache.json",
		},
		Output: OutputConfig{
			Format: FormatMarkdown,
			Title:  "AI News Digest",
		},
		Report: ReportConfig{
			Title:       "AI Weekly Report",
			MaxArticles: 50,
			MaxTokens:   3000,
		},
		Email: EmailConfig{
			Timeout: Duration(10 * time.Second),
		},
	}
}

// Load reads, overrides from the environment and validates a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	config, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	slog.Info("Loaded configuration", "path", path, "sources", len(config.Sources), "enabled", len(config.EnabledSources()))
	return config, nil
}

func Parse(data []byte) (*Config, error) {
	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	applyEnv(config)
	setDefaults(config)

	if err := validate(config); err != nil {
		return nil, err
	}
	return config, nil
}

func applyEnv(config *Config) {
	overrideFromEnv(&config.LLM.APIKey, "LLM_API_KEY", "DASHSCOPE_API_KEY")
	overrideFromEnv(&config.LLM.Endpoint, "LLM_ENDPOINT")
	overrideFromEnv(&config.LLM.Model, "LLM_MODEL")
	overrideFromEnv(&config.Email.SMTPServer, "SMTP_SERVER")
	overrideFromEnv(&config.Email.User, "SMTP_USER", "EMAIL_USER")
	overrideFromEnv(&config.Email.Password, "SMTP_PASSWORD", "EMAIL_PASSWORD")
	overrideFromEnv(&config.Email.Recipient, "RECIPIENT_EMAIL")
}

// setDefaults fills values that an explicit empty entry in the file cleared
func setDefaults(config *Config) {
	for i := range config.Sources {
		if config.Sources[i].Type == "" {
			config.Sources[i].Type = feed.DefaultSourceType
		}
	}
	if config.Crawler.UserAgent == "" {
		config.Crawler.UserAgent = fetch.DefaultUserAgent
	}
	if config.Dedupe.Backend == "" {
		config.Dedupe.Backend = dedupe.BackendJSON
	}
	if config.Dedupe.Path == "" {
		config.Dedupe.Path = "crawler_cache.json"
	}
	if config.Output.Format == "" {
		config.Output.Format = FormatMarkdown
	}
	if config.Report.Title == "" {
		config.Report.Title = "AI Weekly Report"
	}
}

func validate(config *Config) error {
	if len(config.Sources) == 0 {
		return fmt.Errorf("rss_sources must not be empty")
	}

	for i, source := range config.Sources {
		if source.URL == "" {
			return fmt.Errorf("source at index %d: url is required", i)
		}
		if source.Name == "" {
			return fmt.Errorf("source at index %d: name is required", i)
		}

		for j, filter := range source.Filters {
			if !slices.Contains(feed.FilterFields, filter.Field) {
				return fmt.Errorf("source %q: invalid filter field at index %d: %s", source.Name, j, filter.Field)
			}
			if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
				return fmt.Errorf("source %q: filter at index %d must have at least one include or exclude rule", source.Name, j)
			}
		}
	}

	crawler := config.Crawler
	if crawler.MaxArticles <= 0 {
		return fmt.Errorf("crawler max_articles must be positive")
	}
	if crawler.DaysBack <= 0 {
		return fmt.Errorf("crawler days_back must be positive")
	}
	if crawler.OutputDir == "" {
		return fmt.Errorf("crawler output_dir is required")
	}
	if crawler.Timeout <= 0 {
		return fmt.Errorf("crawler timeout must be positive")
	}
	if crawler.Retries <= 0 {
		return fmt.Errorf("crawler retries must be positive")
	}
	if crawler.RequestDelay < 0 {
		return fmt.Errorf("crawler request_delay must be non-negative")
	}

	if config.Extraction.MaxChars <= 0 {
		return fmt.Errorf("extraction max_chars must be positive")
	}
	for i, rule := range config.Extraction.SiteRules {
		if rule.Match == "" || rule.Selector == "" {
			return fmt.Errorf("extraction site rule at index %d needs match and selector", i)
		}
	}

	if config.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm max_tokens must be positive")
	}

	if config.Report.MaxArticles <= 0 {
		return fmt.Errorf("report max_articles must be positive")
	}
	if config.Report.MaxTokens <= 0 {
		return fmt.Errorf("report max_tokens must be positive")
	}

	switch config.Dedupe.Backend {
	case dedupe.BackendJSON, dedupe.BackendSQLite:
	default:
		return fmt.Errorf("dedupe backend must be %q or %q, got %q", dedupe.BackendJSON, dedupe.BackendSQLite, config.Dedupe.Backend)
	}

	switch config.Output.Format {
	case FormatMarkdown, FormatHTML:
	default:
		return fmt.Errorf("output format must be %q or %q, got %q", FormatMarkdown, FormatHTML, config.Output.Format)
	}

	return nil
}
