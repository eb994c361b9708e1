package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/matzehuels/skillpkgs/pkg/buildinfo"
	"github.com/matzehuels/skillpkgs/pkg/cache"
	"github.com/matzehuels/skillpkgs/pkg/httputil"
	"github.com/matzehuels/skillpkgs/pkg/observability"
)

const (
	defaultAttempts = 3
	defaultDelay    = time.Second
)

// Client provides shared HTTP functionality for the listing and GitHub
// clients. It handles response caching, retry logic, and common request
// headers.
type Client struct {
	http      *http.Client
	cache     cache.Cache
	keyer     cache.Keyer
	namespace string
	ttl       time.Duration
	headers   map[string]string
	attempts  int
	delay     time.Duration
}

// NewClient creates a Client with the given cache and default headers.
// Cached responses are stored under namespace with the given TTL; a zero
// TTL disables response caching. Headers are applied to all requests made
// through this client. Pass nil for headers if no default headers are
// needed.
func NewClient(c cache.Cache, namespace string, ttl time.Duration, headers map[string]string) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Client{
		http:      NewHTTPClient(),
		cache:     c,
		keyer:     cache.NewDefaultKeyer(),
		namespace: namespace,
		ttl:       ttl,
		headers:   headers,
		attempts:  defaultAttempts,
		delay:     defaultDelay,
	}
}

// SetRetry overrides the number of attempts and the fixed delay used by
// [Client.Cached]. The defaults are 3 attempts one second apart.
func (c *Client) SetRetry(attempts int, delay time.Duration) {
	c.attempts = attempts
	c.delay = delay
}

// SetHTTPClient replaces the underlying HTTP client, e.g. with one suited
// to long downloads.
func (c *Client) SetHTTPClient(h *http.Client) {
	c.http = h
}

// Cached retrieves a value from cache or executes fetch and caches the
// result. If refresh is true, the cache is bypassed and fetch is always
// called. The fetch function should populate v; on success, v is stored in
// the cache. fetch is retried with a fixed delay while it returns a
// [httputil.RetryableError].
func (c *Client) Cached(ctx context.Context, key string, refresh bool, v any, fetch func() error) error {
	cacheKey := c.keyer.HTTPKey(c.namespace, key)
	if !refresh && c.ttl > 0 {
		if data, ok, _ := c.cache.Get(ctx, cacheKey); ok && json.Unmarshal(data, v) == nil {
			observability.Cache().OnCacheHit(ctx, "http")
			return nil
		}
		observability.Cache().OnCacheMiss(ctx, "http")
	}
	if err := httputil.RetryConstant(ctx, c.attempts, c.delay, fetch); err != nil {
		return err
	}
	if c.ttl > 0 {
		if data, err := json.Marshal(v); err == nil {
			if c.cache.Set(ctx, cacheKey, data, c.ttl) == nil {
				observability.Cache().OnCacheSet(ctx, "http", len(data))
			}
		}
	}
	return nil
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
func (c *Client) Get(ctx context.Context, url string, v any) error {
	return c.GetWithHeaders(ctx, url, nil, v)
}

// GetWithHeaders performs an HTTP GET with additional headers merged with defaults.
// Request-specific headers override client defaults for the same key.
func (c *Client) GetWithHeaders(ctx context.Context, url string, headers map[string]string, v any) error {
	body, err := c.doRequest(ctx, url, headers)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// GetText performs an HTTP GET request and returns the response body as a string.
func (c *Client) GetText(ctx context.Context, url string, headers map[string]string) (string, error) {
	body, err := c.doRequest(ctx, url, headers)
	if err != nil {
		return "", err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	return string(data), err
}

// Open performs an HTTP GET request and returns the response body for
// streaming. The caller must close it.
func (c *Client) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	return c.doRequest(ctx, url, nil)
}

func (c *Client) doRequest(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusTooManyRequests, code >= 500:
		return &httputil.RetryableError{Err: fmt.Errorf("%w: status %d", ErrNetwork, code)}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
