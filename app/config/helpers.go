package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration accepts either a number of seconds or a Go duration string.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var seconds float64
	if err := value.Decode(&seconds); err == nil {
		*d = Duration(seconds * float64(time.Second))
		return nil
	}

	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("invalid duration at line %d", value.Line)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q at line %d: %w", raw, value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// IsEnabled reports whether the source takes part in runs; sources are enabled
// unless switched off explicitly.
func (s *Source) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// EnabledSources returns enabled sources in configuration order
func (c *Config) EnabledSources() []Source {
	sources := make([]Source, 0, len(c.Sources))
	for _, source := range c.Sources {
		if source.IsEnabled() {
			sources = append(sources, source)
		}
	}
	return sources
}

// RequireLLM checks the summarizer credentials needed by the run command
func (c *Config) RequireLLM() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm api_key is required (set it in the config or LLM_API_KEY)")
	}
	if c.LLM.Endpoint == "" {
		return fmt.Errorf("llm endpoint is required")
	}
	return nil
}

// RequireEmail checks the SMTP settings needed by the notify command
func (c *Config) RequireEmail() error {
	if c.Email.SMTPServer == "" {
		return fmt.Errorf("email smtp_server is required (set it in the config or SMTP_SERVER)")
	}
	if c.Email.User == "" {
		return fmt.Errorf("email user is required (set it in the config or SMTP_USER)")
	}
	if c.Email.Password == "" {
		return fmt.Errorf("email password is required (set it in the config or SMTP_PASSWORD)")
	}
	if c.Email.Recipient == "" {
		return fmt.Errorf("email recipient is required (set it in the config or RECIPIENT_EMAIL)")
	}
	return nil
}

func overrideFromEnv(target *string, keys ...string) {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			*target = value
			return
		}
	}
}
