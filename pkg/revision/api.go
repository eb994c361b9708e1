package revision

import "context"

// HeadCommitter looks up a default branch head over an API.
// The github client implements it.
type HeadCommitter interface {
	HeadCommit(ctx context.Context, repo string) (string, error)
}

// APIStrategy resolves revisions with a single metadata API request.
type APIStrategy struct {
	client HeadCommitter
}

// NewAPIStrategy creates an API strategy.
func NewAPIStrategy(client HeadCommitter) *APIStrategy {
	return &APIStrategy{client: client}
}

func (s *APIStrategy) Name() string { return "api" }

func (s *APIStrategy) Resolve(ctx context.Context, repo string) (string, error) {
	return s.client.HeadCommit(ctx, repo)
}
