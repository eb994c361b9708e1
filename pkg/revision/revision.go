// Package revision resolves the current commit of a repository's default
// branch.
//
// Two strategies are combined by [Fallback]: a fast GitHub API lookup
// ([APIStrategy]) and a shallow single-commit clone read locally
// ([CloneStrategy]). A repository that cannot be cloned because it is
// private, gone, or requires credentials resolves to the empty revision
// without an error; the caller treats it as unresolved for this run. Any
// other clone failure is a TRANSPORT_ERROR.
//
// Resolution is not memoized here. The update pipeline wraps a [Resolver]
// in a per-run memo keyed by repository.
package revision

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	skerrors "github.com/matzehuels/skillpkgs/pkg/errors"
	"github.com/matzehuels/skillpkgs/pkg/observability"
)

// ErrNoAccess marks a repository that exists behind authentication or does
// not exist at all. It is an expected condition, not a transport failure.
var ErrNoAccess = errors.New("repository not accessible")

// Resolver returns the head revision of a repository. An empty revision
// with a nil error means the repository is unresolved.
type Resolver interface {
	Resolve(ctx context.Context, repo string) (string, error)
}

// Strategy is a named [Resolver].
type Strategy interface {
	Resolver
	Name() string
}

// Fallback tries primary and, on any failure or empty result, secondary.
type Fallback struct {
	primary   Strategy
	secondary Strategy
	logger    *log.Logger
}

// NewFallback combines two strategies. A nil logger uses log.Default().
func NewFallback(primary, secondary Strategy, logger *log.Logger) *Fallback {
	if logger == nil {
		logger = log.Default()
	}
	return &Fallback{primary: primary, secondary: secondary, logger: logger}
}

// Resolve implements [Resolver].
func (f *Fallback) Resolve(ctx context.Context, repo string) (string, error) {
	rev, err := f.try(ctx, f.primary, repo)
	if err == nil && rev != "" {
		return rev, nil
	}
	f.logger.Debug("revision lookup failed, trying fallback",
		"repo", repo, "strategy", f.primary.Name(), "fallback", f.secondary.Name(), "err", err)

	rev, err = f.try(ctx, f.secondary, repo)
	switch {
	case errors.Is(err, ErrNoAccess):
		f.logger.Warn("repository not accessible", "repo", repo, "err", err)
		return "", nil
	case err != nil:
		if skerrors.GetCode(err) == "" {
			err = skerrors.Wrap(skerrors.ErrCodeTransport, err, "resolve %s", repo)
		}
		return "", err
	}
	return rev, nil
}

func (f *Fallback) try(ctx context.Context, s Strategy, repo string) (string, error) {
	start := time.Now()
	rev, err := s.Resolve(ctx, repo)
	observability.Sync().OnResolve(ctx, repo, s.Name(), time.Since(start), err)
	return rev, err
}

var _ Resolver = (*Fallback)(nil)
