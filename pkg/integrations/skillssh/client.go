// Package skillssh lists skills from the skills.sh directory.
//
// The listing is paged by offset, 100 records per page:
//
//	GET https://skills.sh/api/skills?limit=100&offset=0
//	{"skills": [{"skillId": "pdf", "source": "anthropics/skills"}]}
//
// Paging stops at the first empty page.
package skillssh

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

// DefaultBaseURL is the public skills.sh endpoint.
const DefaultBaseURL = "https://skills.sh"

const pageSize = 100

// Client pages the skills.sh listing.
type Client struct {
	*integrations.Client
	baseURL string
	refresh bool
}

// NewClient creates a skills.sh client. An empty baseURL selects
// [DefaultBaseURL]. Pages are cached in c for ttl; pass a nil cache or zero
// ttl to always fetch.
func NewClient(baseURL string, c cache.Cache, ttl time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		Client:  integrations.NewClient(c, source.SkillsSh, ttl, nil),
		baseURL: baseURL,
	}
}

// SetRefresh makes the client bypass cached pages.
func (c *Client) SetRefresh(refresh bool) { c.refresh = refresh }

// Name returns "skills.sh".
func (c *Client) Name() string { return source.SkillsSh }

// List pages through the listing. A page that still fails after retries
// ends the sequence with an error.
func (c *Client) List(ctx context.Context) iter.Seq2[source.Record, error] {
	return func(yield func(source.Record, error) bool) {
		for offset := 0; ; offset += pageSize {
			page, err := c.fetchPage(ctx, offset)
			if err != nil {
				yield(source.Record{}, errors.Wrap(errors.ErrCodeNetwork, err, "fetch skills.sh offset=%d", offset))
				return
			}
			if len(page.Skills) == 0 {
				return
			}
			for _, s := range page.Skills {
				rec := source.Record{
					Name:         s.SkillID,
					RepositoryID: integrations.NormalizeRepositoryID(s.Source),
				}
				if !yield(rec, nil) {
					return
				}
			}
		}
	}
}

func (c *Client) fetchPage(ctx context.Context, offset int) (*pageResponse, error) {
	var page pageResponse
	key := fmt.Sprintf("offset=%d", offset)
	url := fmt.Sprintf("%s/api/skills?limit=%d&offset=%d", c.baseURL, pageSize, offset)
	err := c.Cached(ctx, key, c.refresh, &page, func() error {
		page = pageResponse{}
		return c.Get(ctx, url, &page)
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

type pageResponse struct {
	Skills []struct {
		SkillID string `json:"skillId"`
		Source  string `json:"source"`
	} `json:"skills"`
}

var _ source.Lister = (*Client)(nil)
