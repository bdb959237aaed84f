// Package fetch is the shared HTTP retrieval primitive used by every source adapter.
package fetch

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"

	"github.com/vnknews/vnknews/internal/retry"
)

const (
	DefaultTimeout        = 15 * time.Second
	DefaultMaxRetries     = 2
	DefaultRetryDelay     = 1 * time.Second
	DefaultMaxBodySize    = 8 << 20
	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	DefaultAcceptLanguage = "vi-VN,vi;q=0.9,ko;q=0.8,en-US;q=0.7,en;q=0.6"
	defaultAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"
)

// Config holds the client-wide fetch policy.
type Config struct {
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
	UserAgent      string
	AcceptLanguage string
	MaxBodySize    int64
}

// DefaultConfig returns the policy used by the crawlers.
func DefaultConfig() Config {
	return Config{
		Timeout:        DefaultTimeout,
		MaxRetries:     DefaultMaxRetries,
		RetryDelay:     DefaultRetryDelay,
		UserAgent:      DefaultUserAgent,
		AcceptLanguage: DefaultAcceptLanguage,
		MaxBodySize:    DefaultMaxBodySize,
	}
}

// Options are per-request overrides.
type Options struct {
	Headers map[string]string
	Timeout time.Duration
	// InsecureTLS routes the request through a transport that skips certificate
	// verification and allows renegotiation. Only set for sites that need it.
	InsecureTLS bool
}

// Observer receives one callback per HTTP attempt.
type Observer interface {
	ObserveFetch(host string, attempt int, status int, err error)
}

// Fetcher is the capability adapters depend on.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, opts Options) (*Response, error)
}

// Client implements Fetcher with retry, timeout and header policy.
type Client struct {
	cfg      Config
	client   *http.Client
	logger   *slog.Logger
	observer Observer

	insecureOnce   sync.Once
	insecureClient *http.Client
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default (verifying) http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.client = hc }
}

// WithObserver attaches an attempt observer, typically the metrics collector.
func WithObserver(o Observer) ClientOption {
	return func(c *Client) { c.observer = o }
}

// NewClient builds a client. Zero config fields fall back to defaults.
func NewClient(cfg Config, logger *slog.Logger, opts ...ClientOption) *Client {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.AcceptLanguage == "" {
		cfg.AcceptLanguage = def.AcceptLanguage
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = def.MaxBodySize
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		cfg:    cfg,
		client: &http.Client{Transport: newTransport(false)},
		logger: logger.With("component", "fetch"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newTransport(insecure bool) *http.Transport {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableCompression:  true, // decoded in decompressReader, brotli included
	}
	if insecure {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // per-site opt-in only
			Renegotiation:      tls.RenegotiateOnceAsClient,
			MinVersion:         tls.VersionTLS10,
		}
	}
	return transport
}

func (c *Client) httpClient(insecure bool) *http.Client {
	if !insecure {
		return c.client
	}
	c.insecureOnce.Do(func() {
		c.insecureClient = &http.Client{Transport: newTransport(true)}
	})
	return c.insecureClient
}

// Fetch retrieves rawURL, retrying transient failures with a fixed delay.
// The returned body is transcoded to UTF-8.
func (c *Client) Fetch(ctx context.Context, rawURL string, opts Options) (*Response, error) {
	timeout := c.cfg.Timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	policy := retry.FixedPolicy(c.cfg.MaxRetries, c.cfg.RetryDelay)

	var resp *Response
	var lastStatus int
	attempts, err := retry.Do(ctx, policy, func(attempt int) error {
		r, status, err := c.do(ctx, rawURL, opts, timeout)
		lastStatus = status
		if c.observer != nil {
			c.observer.ObserveFetch(hostOf(rawURL), attempt, status, err)
		}
		if err != nil {
			c.logger.Debug("fetch attempt failed",
				"url", rawURL,
				"attempt", attempt,
				"status", status,
				"error", err)
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, &FetchError{URL: rawURL, StatusCode: lastStatus, Attempts: attempts, Err: unwrapRetry(err)}
	}

	return resp, nil
}

func (c *Client) do(ctx context.Context, rawURL string, opts Options, timeout time.Duration) (*Response, int, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", defaultAccept)
	req.Header.Set("Accept-Language", c.cfg.AcceptLanguage)
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	httpResp, err := c.httpClient(opts.InsecureTLS).Do(req)
	if err != nil {
		// The caller's context ending is final; an attempt timeout is not.
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		return nil, 0, retry.NewRetryableError(err)
	}
	defer httpResp.Body.Close()

	status := httpResp.StatusCode
	switch {
	case status == http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, io.LimitReader(httpResp.Body, 512))
		return nil, status, retry.NewRetryableErrorWithDelay(
			fmt.Errorf("HTTP %d: rate limited", status),
			parseRetryAfter(httpResp.Header.Get("Retry-After")))
	case status >= 500:
		_, _ = io.Copy(io.Discard, io.LimitReader(httpResp.Body, 1024))
		return nil, status, retry.NewRetryableError(fmt.Errorf("HTTP %d: %s", status, http.StatusText(status)))
	case status >= 400:
		return nil, status, fmt.Errorf("HTTP %d: %s", status, http.StatusText(status))
	}

	reader, err := decompressReader(httpResp.Header.Get("Content-Encoding"), io.LimitReader(httpResp.Body, c.cfg.MaxBodySize))
	if err != nil {
		return nil, status, fmt.Errorf("decompress body: %w", err)
	}

	utf8Reader, err := charset.NewReader(reader, httpResp.Header.Get("Content-Type"))
	if err != nil {
		return nil, status, fmt.Errorf("decode charset: %w", err)
	}

	body, err := io.ReadAll(utf8Reader)
	if err != nil {
		if ctx.Err() != nil {
			return nil, status, ctx.Err()
		}
		return nil, status, retry.NewRetryableError(fmt.Errorf("read body: %w", err))
	}

	c.logger.Debug("fetch complete",
		"url", rawURL,
		"status", status,
		"size", len(body),
		"duration_ms", time.Since(start).Milliseconds())

	return &Response{
		URL:        rawURL,
		FinalURL:   httpResp.Request.URL.String(),
		StatusCode: status,
		Header:     httpResp.Header.Clone(),
		Body:       body,
	}, status, nil
}

// Response is a fetched page with its body already decoded to UTF-8.
type Response struct {
	URL        string
	FinalURL   string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Document parses the body as HTML.
func (r *Response) Document() (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// FetchError is returned once every attempt for a URL has failed.
type FetchError struct {
	URL        string
	StatusCode int
	Attempts   int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s failed after %d attempt(s) (status %d): %v", e.URL, e.Attempts, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// unwrapRetry strips the retry bookkeeping wrappers so FetchError carries the cause.
func unwrapRetry(err error) error {
	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		err = exhausted.Err
	}
	var retryable *retry.RetryableError
	if errors.As(err, &retryable) {
		return retryable.Err
	}
	return err
}

func decompressReader(encoding string, reader io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}

// parseRetryAfter accepts integer seconds or an HTTP date, capped at 30s.
func parseRetryAfter(header string) time.Duration {
	const maxWait = 30 * time.Second

	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil {
		d := time.Duration(secs) * time.Second
		if d > maxWait {
			d = maxWait
		}
		return d
	}
	if t, err := http.ParseTime(header); err == nil {
		d := time.Until(t)
		if d < 0 {
			return 0
		}
		if d > maxWait {
			return maxWait
		}
		return d
	}
	return 0
}

func hostOf(rawURL string) string {
	rest := rawURL
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	return rest
}
