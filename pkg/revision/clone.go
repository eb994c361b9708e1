package revision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	skerrors "github.com/matzehuels/skillpkgs/pkg/errors"
)

// CloneFunc clones url into dir and returns the head commit id.
type CloneFunc func(ctx context.Context, dir, url string) (string, error)

// CloneStrategy resolves revisions by shallow-cloning the repository into a
// deterministic directory under root and reading HEAD.
type CloneStrategy struct {
	root     string
	cloneURL func(repo string) string
	clone    CloneFunc
}

// NewCloneStrategy creates a clone strategy. cloneURL maps "owner/repo" to
// a remote URL. A non-empty token is sent as HTTP basic auth.
func NewCloneStrategy(root string, cloneURL func(repo string) string, token string) *CloneStrategy {
	return &CloneStrategy{
		root:     root,
		cloneURL: cloneURL,
		clone:    shallowClone(token),
	}
}

func (s *CloneStrategy) Name() string { return "clone" }

// Resolve removes any stale clone at [CacheDir], clones afresh, and returns
// the head commit. Access failures wrap [ErrNoAccess].
func (s *CloneStrategy) Resolve(ctx context.Context, repo string) (string, error) {
	if err := skerrors.ValidateRepositoryID(repo); err != nil {
		return "", err
	}
	dir := CacheDir(s.root, repo)
	if err := os.RemoveAll(dir); err != nil {
		return "", skerrors.Wrap(skerrors.ErrCodeTransport, err, "remove stale clone %s", dir)
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return "", skerrors.Wrap(skerrors.ErrCodeTransport, err, "create clone cache")
	}

	rev, err := s.clone(ctx, dir, s.cloneURL(repo))
	if err != nil {
		if isNoAccess(err) {
			return "", fmt.Errorf("%w: %s: %v", ErrNoAccess, repo, err)
		}
		return "", skerrors.Wrap(skerrors.ErrCodeTransport, err, "clone %s", repo)
	}
	return rev, nil
}

func isNoAccess(err error) bool {
	return errors.Is(err, transport.ErrAuthenticationRequired) ||
		errors.Is(err, transport.ErrAuthorizationFailed) ||
		errors.Is(err, transport.ErrRepositoryNotFound)
}

func shallowClone(token string) CloneFunc {
	var auth transport.AuthMethod
	if token != "" {
		auth = &githttp.BasicAuth{Username: "x-access-token", Password: token}
	}
	return func(ctx context.Context, dir, url string) (string, error) {
		_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
			URL:          url,
			Auth:         auth,
			Depth:        1,
			SingleBranch: true,
			NoCheckout:   true,
			Tags:         git.NoTags,
		})
		if err != nil {
			return "", err
		}
		return HeadOf(dir)
	}
}

// HeadOf returns the commit id HEAD points to in the repository at dir.
func HeadOf(dir string) (string, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return "", err
	}
	ref, err := repo.Head()
	if err != nil {
		return "", err
	}
	return ref.Hash().String(), nil
}

// CacheDir returns the clone directory for repo: "<root>/<owner>--<repo>".
func CacheDir(root, repo string) string {
	return filepath.Join(root, strings.Replace(repo, "/", "--", 1))
}

// Clean removes the whole clone cache.
func Clean(root string) error {
	return os.RemoveAll(root)
}

var _ Strategy = (*CloneStrategy)(nil)
