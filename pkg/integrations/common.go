package integrations

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

const httpTimeout = 10 * time.Second

var (
	// ErrNotFound is returned when a resource doesn't exist upstream.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// NewHTTPClient creates an HTTP client with a standard timeout for API requests.
// Archive downloads use a client without a timeout; see [NewStreamingClient].
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// NewStreamingClient creates an HTTP client for large downloads, which are
// bounded by the request context rather than a fixed timeout.
func NewStreamingClient() *http.Client {
	return &http.Client{}
}

var repoIDReplacer = strings.NewReplacer(
	"git@github.com:", "",
	"git://github.com/", "",
	"https://github.com/", "",
	"http://github.com/", "",
)

// NormalizeRepositoryID converts GitHub URLs and "owner/repo" strings to
// the canonical "owner/repo" form. Trailing slashes and .git suffixes are
// removed. It does not validate the result.
func NormalizeRepositoryID(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "git+")
	s = repoIDReplacer.Replace(s)
	s = strings.TrimSuffix(s, "/")
	return strings.TrimSuffix(s, ".git")
}
