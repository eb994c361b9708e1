package github

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/matzehuels/skillpkgs/pkg/integrations"
)

// Default endpoints.
const (
	DefaultAPIURL     = "https://api.github.com"
	DefaultArchiveURL = "https://github.com"
)

// Client resolves default branch heads and builds archive URLs.
// Revisions must always be fresh, so responses are never cached.
type Client struct {
	*integrations.Client
	baseURL    string
	archiveURL string
}

// NewClient creates a GitHub client. Empty URLs select the public
// endpoints. Pass an empty token for unauthenticated requests, which are
// limited to 60 requests/hour.
func NewClient(apiURL, archiveURL, token string) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if archiveURL == "" {
		archiveURL = DefaultArchiveURL
	}
	headers := map[string]string{"Accept": "application/vnd.github.v3+json"}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return &Client{
		Client:     integrations.NewClient(nil, "github", 0, headers),
		baseURL:    strings.TrimSuffix(apiURL, "/"),
		archiveURL: strings.TrimSuffix(archiveURL, "/"),
	}
}

// NewArchiveClient creates a client for downloading archives. It has no
// request timeout; downloads are bounded by the caller's context.
func NewArchiveClient(archiveURL string) *Client {
	c := NewClient("", archiveURL, "")
	c.SetHTTPClient(integrations.NewStreamingClient())
	return c
}

// HeadCommit returns the commit id at the head of the repository's default
// branch. It makes a single request; callers fall back to a clone rather
// than retrying.
func (c *Client) HeadCommit(ctx context.Context, repository string) (string, error) {
	owner, repo, err := SplitRepository(repository)
	if err != nil {
		return "", err
	}
	url := fmt.Sprintf("%s/repos/%s/%s/commits/HEAD", c.baseURL, owner, repo)
	body, err := c.GetText(ctx, url, map[string]string{"Accept": "application/vnd.github.sha"})
	if err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return "", fmt.Errorf("%w: github repo %s", err, repository)
		}
		return "", err
	}
	sha := strings.TrimSpace(body)
	if !IsCommitSHA(sha) {
		return "", fmt.Errorf("unexpected commit response for %s: %.60q", repository, sha)
	}
	return sha, nil
}

// ArchiveURL returns the tarball URL of repository at rev.
func (c *Client) ArchiveURL(repository, rev string) string {
	return fmt.Sprintf("%s/%s/archive/%s.tar.gz", c.archiveURL, repository, rev)
}

// CloneURL returns the HTTPS clone URL of repository.
func (c *Client) CloneURL(repository string) string {
	return fmt.Sprintf("%s/%s.git", c.archiveURL, repository)
}
