// Package snapshot produces content-addressed snapshots of a repository at
// a revision.
//
// A [Snapshot] pairs the NAR hash of the unpacked tree, in SRI form
// ("sha256-<base64>"), with the local directory holding it. Two backends
// implement [Prefetcher]:
//
//   - [ArchivePrefetcher] downloads the GitHub tarball, unpacks it into a
//     local store, and hashes it in-process.
//   - [NixPrefetcher] runs nix-prefetch-url and uses the Nix store.
//
// Both produce the hash Nix computes for the same tarball, so catalog
// entries are interchangeable between backends. [Fetcher] adds the retry
// policy shared by both.
package snapshot

import (
	"context"
	"time"

	"github.com/matzehuels/skillpkgs/pkg/errors"
	"github.com/matzehuels/skillpkgs/pkg/httputil"
	"github.com/matzehuels/skillpkgs/pkg/observability"
)

// Snapshot is an unpacked repository revision.
type Snapshot struct {
	Hash string `json:"hash"`
	Path string `json:"path"`
	// Cached is true when the store already held the revision.
	Cached bool `json:"-"`
}

// Prefetcher fetches one revision. Transient failures are returned as
// [httputil.RetryableError].
type Prefetcher interface {
	Prefetch(ctx context.Context, repo, rev string) (*Snapshot, error)
}

// Fetcher retries a Prefetcher with a fixed delay.
type Fetcher struct {
	prefetcher Prefetcher
	attempts   int
	delay      time.Duration
}

// NewFetcher wraps p with the default policy of 3 attempts one second apart.
func NewFetcher(p Prefetcher) *Fetcher {
	return &Fetcher{prefetcher: p, attempts: 3, delay: time.Second}
}

// SetRetry overrides the retry policy.
func (f *Fetcher) SetRetry(attempts int, delay time.Duration) {
	f.attempts = attempts
	f.delay = delay
}

// Fetch returns the snapshot of repo at rev. Exhausted retries and
// permanent failures are reported as FETCH_FAILED.
func (f *Fetcher) Fetch(ctx context.Context, repo, rev string) (*Snapshot, error) {
	start := time.Now()
	var snap *Snapshot
	err := httputil.RetryConstant(ctx, f.attempts, f.delay, func() error {
		s, err := f.prefetcher.Prefetch(ctx, repo, rev)
		if err != nil {
			return err
		}
		snap = s
		return nil
	})
	observability.Sync().OnSnapshot(ctx, repo, snap != nil && snap.Cached, time.Since(start), err)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFetchFailed, err, "fetch %s@%s", repo, rev)
	}
	return snap, nil
}
