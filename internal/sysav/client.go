package sysav

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	DefaultUserAgent        = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124 Safari/537.36"
	DefaultPageURLTemplate  = "https://www.sysav.se/privat/min-sophamtning/%s"
	DefaultDiscoveryTimeout = 20 * time.Second
	DefaultQueryTimeout     = 25 * time.Second

	maxBodyBytes = 8 << 20
)

// Options configures a Client. Zero values fall back to the defaults above.
type Options struct {
	// APIBase skips discovery when set.
	APIBase           string
	PageURLTemplate   string
	UserAgent         string
	DiscoveryTimeout  time.Duration
	QueryTimeout      time.Duration
	RequestsPerSecond float64 // <= 0 disables throttling
	HTTPClient        *http.Client
}

// Client talks to the SYSAV website and its undocumented collection API.
// It owns its connection pool; call Close when done with it.
type Client struct {
	http             *http.Client
	limiter          *rate.Limiter
	userAgent        string
	pageURLTemplate  string
	discoveryTimeout time.Duration
	queryTimeout     time.Duration
	logger           zerolog.Logger

	mu      sync.RWMutex
	apiBase string
	closed  bool
}

type response struct {
	StatusCode int
	Body       []byte
}

// NewClient builds a Client. A supplied APIBase must be an absolute http(s) URL.
func NewClient(opts Options, logger zerolog.Logger) (*Client, error) {
	apiBase, err := normalizeAPIBase(opts.APIBase)
	if err != nil {
		return nil, err
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	c := &Client{
		http:             httpClient,
		limiter:          limiter,
		userAgent:        firstNonEmpty(opts.UserAgent, DefaultUserAgent),
		pageURLTemplate:  firstNonEmpty(opts.PageURLTemplate, DefaultPageURLTemplate),
		discoveryTimeout: opts.DiscoveryTimeout,
		queryTimeout:     opts.QueryTimeout,
		logger:           logger,
		apiBase:          apiBase,
	}
	if c.discoveryTimeout <= 0 {
		c.discoveryTimeout = DefaultDiscoveryTimeout
	}
	if c.queryTimeout <= 0 {
		c.queryTimeout = DefaultQueryTimeout
	}
	return c, nil
}

// Close releases pooled connections. The client is unusable afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *Client) get(ctx context.Context, rawURL string, query url.Values, timeout time.Duration) (*response, error) {
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		rawURL += sep + query.Encode()
	}
	return c.do(ctx, http.MethodGet, rawURL, nil, "", timeout)
}

func (c *Client) postJSON(ctx context.Context, rawURL string, payload any, timeout time.Duration) (*response, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, rawURL, b, "application/json", timeout)
}

func (c *Client) do(ctx context.Context, method, rawURL string, body []byte, contentType string, timeout time.Duration) (*response, error) {
	if c.isClosed() {
		return nil, ErrClientClosed
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &response{StatusCode: resp.StatusCode, Body: data}, nil
}

func normalizeAPIBase(raw string) (string, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return "", nil
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", NewInvalidAPIBaseError(raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", NewInvalidAPIBaseError(raw, nil)
	}
	return trimmed, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
