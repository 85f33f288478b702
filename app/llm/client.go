// Package llm talks to an OpenAI-compatible chat completions endpoint.
package llm

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lysyi3m/rss-digest/app/extract"
	"github.com/sashabaranov/go-openai"
)

var ErrContentTooShort = errors.New("content too short to summarize")

const (
	MaxInputRunes = 4000
	MinInputRunes = 50

	chatCompletionsPath = "/chat/completions"

	systemPrompt = "You are a technology news editor who condenses long articles into precise, factual summaries."
	userPrompt   = "Read the article below and write a 200-300 word summary covering its core argument and key facts.\n\nTitle: %s\n\nText:\n%s"
)

var leadingHeading = regexp.MustCompile(`^#+\s*`)

type Client struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
}

// NewClient accepts either an API base URL or a full chat completions URL as
// endpoint.
func NewClient(httpClient *http.Client, endpoint, apiKey, model string, maxTokens int, temperature float64, timeout time.Duration) *Client {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = strings.TrimSuffix(strings.TrimRight(endpoint, "/"), chatCompletionsPath)
	if httpClient != nil {
		config.HTTPClient = httpClient
	}

	return &Client{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		timeout:     timeout,
	}
}

// Summarize returns a short summary of text. Inputs under MinInputRunes
// return ErrContentTooShort without a request.
func (c *Client) Summarize(ctx context.Context, text, title string) (string, error) {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < MinInputRunes {
		return "", ErrContentTooShort
	}

	prompt := fmt.Sprintf(userPrompt, title, extract.Truncate(text, MaxInputRunes))
	content, err := c.Complete(ctx, systemPrompt, prompt, c.maxTokens)
	if err != nil {
		return "", err
	}

	summary := strings.TrimSpace(leadingHeading.ReplaceAllString(content, ""))
	if summary == "" {
		return "", fmt.Errorf("summarizer returned an empty summary")
	}

	slog.Debug("Summary generated", "title", title, "summary_length", utf8.RuneCountInString(summary))
	return summary, nil
}

// Complete sends one system and one user message and returns the trimmed
// reply. maxTokens of zero falls back to the client default.
func (c *Client) Complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(timeoutCtx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   cmp.Or(maxTokens, c.maxTokens),
		Temperature: float32(c.temperature),
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("summarizer error (HTTP %d): %s", apiErr.HTTPStatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("failed to call summarizer: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("summarizer returned no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	slog.Debug("Completion received",
		"model", c.model,
		"duration", time.Since(start),
		"total_tokens", resp.Usage.TotalTokens,
		"length", utf8.RuneCountInString(content))
	return content, nil
}
