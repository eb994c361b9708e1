// Package skillsdirectory lists skills from skillsdirectory.com.
//
// The listing is paged by page number, starting at 1:
//
//	GET https://www.skillsdirectory.com/api/skills?page=1
//	{"skills": [{"name": "pdf", "githubRepoFullName": "anthropics/skills",
//	             "skillFilePath": "pdf/SKILL.md"}]}
//
// Paging stops at the first empty page.
package skillsdirectory

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/matzehuels/skillpkgs/pkg/cache"
	"github.com/matzehuels/skillpkgs/pkg/errors"
	"github.com/matzehuels/skillpkgs/pkg/integrations"
	"github.com/matzehuels/skillpkgs/pkg/source"
)

// DefaultBaseURL is the public skillsdirectory.com endpoint.
const DefaultBaseURL = "https://www.skillsdirectory.com"

// Client pages the skillsdirectory.com listing.
type Client struct {
	*integrations.Client
	baseURL string
	refresh bool
}

// NewClient creates a skillsdirectory.com client. An empty baseURL selects
// [DefaultBaseURL].
func NewClient(baseURL string, c cache.Cache, ttl time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		Client:  integrations.NewClient(c, source.SkillsDirectory, ttl, nil),
		baseURL: baseURL,
	}
}

// SetRefresh makes the client bypass cached pages.
func (c *Client) SetRefresh(refresh bool) { c.refresh = refresh }

// Name returns "skillsdirectory.com".
func (c *Client) Name() string { return source.SkillsDirectory }

// List pages through the listing.
func (c *Client) List(ctx context.Context) iter.Seq2[source.Record, error] {
	return func(yield func(source.Record, error) bool) {
		for page := 1; ; page++ {
			resp, err := c.fetchPage(ctx, page)
			if err != nil {
				yield(source.Record{}, errors.Wrap(errors.ErrCodeNetwork, err, "fetch skillsdirectory.com page=%d", page))
				return
			}
			if len(resp.Skills) == 0 {
				return
			}
			for _, s := range resp.Skills {
				rec := source.Record{
					Name:         s.Name,
					RepositoryID: integrations.NormalizeRepositoryID(s.GithubRepoFullName),
					Path:         s.SkillFilePath,
				}
				if !yield(rec, nil) {
					return
				}
			}
		}
	}
}

func (c *Client) fetchPage(ctx context.Context, page int) (*pageResponse, error) {
	var resp pageResponse
	key := fmt.Sprintf("page=%d", page)
	url := fmt.Sprintf("%s/api/skills?page=%d", c.baseURL, page)
	err := c.Cached(ctx, key, c.refresh, &resp, func() error {
		resp = pageResponse{}
		return c.Get(ctx, url, &resp)
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

type pageResponse struct {
	Skills []struct {
		Name               string `json:"name"`
		GithubRepoFullName string `json:"githubRepoFullName"`
		SkillFilePath      string `json:"skillFilePath"`
	} `json:"skills"`
}

var _ source.Lister = (*Client)(nil)
