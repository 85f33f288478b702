package fetch

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

var (
	ErrTLS              = errors.New("tls verification failed")
	ErrRetriesExhausted = errors.New("retries exhausted")
)

const (
	DefaultUserAgent = "Mozilla/5.0 (compatible; rss-digest/1.0; +https://github.com/lysyi3m/rss-digest)"
	maxBodySize      = 5 << 20
)

// Extractor turns a decoded HTML page into article text.
type Extractor interface {
	ExtractMainContent(html, originHint string) string
}

type Downloader struct {
	httpClient  *http.Client
	extractor   Extractor
	userAgent   string
	timeout     time.Duration
	retries     int
	backoffUnit time.Duration
}

type Option func(*Downloader)

func WithHTTPClient(client *http.Client) Option {
	return func(d *Downloader) {
		if client != nil {
			d.httpClient = client
		}
	}
}

// WithBackoffUnit scales the 2^attempt delay. Defaults to one second.
func WithBackoffUnit(unit time.Duration) Option {
	return func(d *Downloader) {
		d.backoffUnit = unit
	}
}

func NewDownloader(extractor Extractor, userAgent string, timeout time.Duration, retries int, opts ...Option) *Downloader {
	d := &Downloader{
		httpClient:  &http.Client{},
		extractor:   extractor,
		userAgent:   userAgent,
		timeout:     timeout,
		retries:     max(retries, 1),
		backoffUnit: time.Second,
	}
	if d.userAgent == "" {
		d.userAgent = DefaultUserAgent
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type attemptError struct {
	err       error
	retryable bool
}

func (e *attemptError) Error() string { return e.err.Error() }
func (e *attemptError) Unwrap() error { return e.err }

// Fetch downloads url and returns its extracted main text. An empty string is
// always accompanied by an error describing why.
func (d *Downloader) Fetch(ctx context.Context, rawURL string) (string, error) {
	pageURL, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (pageURL.Scheme != "http" && pageURL.Scheme != "https") || pageURL.Host == "" {
		slog.Warn("Skipping invalid article URL", "url", rawURL)
		return "", fmt.Errorf("invalid url %q", rawURL)
	}

	target := pageURL.String()

	var lastErr error
	for attempt := 0; attempt < d.retries; attempt++ {
		slog.Debug("Downloading article", "url", target, "attempt", attempt+1, "max_attempts", d.retries)

		body, contentType, err := d.get(ctx, target)
		if err == nil {
			text, err := d.decode(body, contentType)
			if err != nil {
				slog.Warn("Failed to decode article body", "url", target, "error", err)
				return "", err
			}

			content := d.extractor.ExtractMainContent(text, target)
			if content == "" {
				return "", fmt.Errorf("no content extracted from %s", target)
			}
			return content, nil
		}

		if errors.Is(err, ErrTLS) {
			slog.Warn("TLS failure, not retrying", "url", target, "error", err)
			return "", err
		}

		var attemptErr *attemptError
		if !errors.As(err, &attemptErr) || !attemptErr.retryable {
			slog.Warn("Article download failed", "url", target, "error", err)
			return "", err
		}

		lastErr = err
		if attempt < d.retries-1 {
			delay := d.backoffUnit * time.Duration(1<<attempt)
			slog.Warn("Article download failed, retrying", "url", target, "attempt", attempt+1, "delay", delay, "error", err)
			if err := sleep(ctx, delay); err != nil {
				return "", err
			}
		}
	}

	slog.Warn("Article download gave up", "url", target, "attempts", d.retries, "error", lastErr)
	return "", fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, d.retries, lastErr)
}

func (d *Downloader) get(ctx context.Context, pageURL string) ([]byte, string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,zh-CN;q=0.8")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		if isTLSError(err) {
			return nil, "", fmt.Errorf("%w: %v", ErrTLS, err)
		}
		return nil, "", &attemptError{err: fmt.Errorf("failed to fetch URL: %w", err), retryable: isTransient(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, "", &attemptError{err: fmt.Errorf("HTTP error: %s", resp.Status), retryable: true}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("HTTP error: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, "", &attemptError{err: fmt.Errorf("failed to read response body: %w", err), retryable: isTransient(err)}
	}

	return data, resp.Header.Get("Content-Type"), nil
}

// decode honours a declared charset unless it is missing or the ISO-8859-1
// default many servers send blindly; then the body is sniffed.
func (d *Downloader) decode(body []byte, contentType string) (string, error) {
	enc := declaredEncoding(contentType)
	if enc == nil {
		enc, _, _ = charset.DetermineEncoding(body, "text/html")
	}

	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return "", fmt.Errorf("failed to decode body: %w", err)
	}
	return string(decoded), nil
}

func declaredEncoding(contentType string) encoding.Encoding {
	if contentType == "" {
		return nil
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil
	}

	label := strings.ToLower(strings.TrimSpace(params["charset"]))
	switch label {
	case "", "iso-8859-1", "iso8859-1", "latin1", "latin-1":
		return nil
	}

	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil
	}
	return enc
}

func isTLSError(err error) bool {
	var verifyErr *tls.CertificateVerificationError
	var unknownAuthority x509.UnknownAuthorityError
	var hostname x509.HostnameError
	var invalid x509.CertificateInvalidError
	var recordHeader tls.RecordHeaderError
	var alert tls.AlertError

	return errors.As(err, &verifyErr) ||
		errors.As(err, &unknownAuthority) ||
		errors.As(err, &hostname) ||
		errors.As(err, &invalid) ||
		errors.As(err, &recordHeader) ||
		errors.As(err, &alert)
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
