package pipeline

import (
	"context"
	stderrors "errors"
	"path"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/skillpkgs/pkg/catalog"
	"github.com/matzehuels/skillpkgs/pkg/errors"
	"github.com/matzehuels/skillpkgs/pkg/manifest"
	"github.com/matzehuels/skillpkgs/pkg/memo"
	"github.com/matzehuels/skillpkgs/pkg/observability"
	"github.com/matzehuels/skillpkgs/pkg/revision"
	"github.com/matzehuels/skillpkgs/pkg/shard"
	"github.com/matzehuels/skillpkgs/pkg/snapshot"
	"github.com/matzehuels/skillpkgs/pkg/source"
)

// SnapshotFetcher fetches the content-addressed snapshot of a revision.
type SnapshotFetcher interface {
	Fetch(ctx context.Context, repo, rev string) (*snapshot.Snapshot, error)
}

// ManifestLocator finds a skill's manifest directory inside a snapshot.
type ManifestLocator interface {
	Locate(root, hint string) (string, error)
}

// Runner executes update runs.
//
// The Runner keeps no state between runs: memo caches are created per
// call to [Runner.Update], so a Runner may be reused.
type Runner struct {
	Resolver revision.Resolver
	Fetcher  SnapshotFetcher
	Locator  ManifestLocator
	Logger   *log.Logger

	opts Options
}

// NewRunner creates a runner. A nil logger uses log.Default().
func NewRunner(resolver revision.Resolver, fetcher SnapshotFetcher, locator ManifestLocator, opts Options, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Resolver: resolver,
		Fetcher:  fetcher,
		Locator:  locator,
		Logger:   logger,
		opts:     opts,
	}
}

// run is the state of a single update run.
type run struct {
	*Runner
	opts     Options
	logger   *log.Logger
	baseline catalog.Catalog

	revs  memo.Group[string]
	snaps memo.Group[*snapshot.Snapshot]
	locs  memo.Group[string]

	mu       sync.Mutex
	outcomes map[OutcomeKind]int
}

// Update syncs the shard of the repositories named in lists against the
// baseline catalog. Lists are merged in order; a record that appears in
// several lists is processed once.
//
// Only an invalid shard, invalid options, or cancellation of ctx make
// Update fail. Per-package and per-repository failures are reported in
// the result.
func (r *Runner) Update(ctx context.Context, baseline catalog.Catalog, spec shard.Spec, lists ...[]source.Record) (*Result, error) {
	opts := r.opts
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options")
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if baseline == nil {
		baseline = catalog.Catalog{}
	}

	start := time.Now()
	id := uuid.NewString()
	ru := &run{
		Runner:   r,
		opts:     opts,
		logger:   r.Logger.With("run", id[:8]),
		baseline: baseline,
		outcomes: make(map[OutcomeKind]int),
	}

	ids, byRepo := source.GroupByRepository(ru.valid(lists)...)
	repos := shard.Partition(ids, spec)
	ru.logger.Info("update shard", "shard", spec.String(), "repositories", len(repos), "total", len(ids))

	outputs := make([][]catalog.Entry, len(repos))
	failures := make([]error, len(repos))

	var g errgroup.Group
	g.SetLimit(opts.Concurrency)
	for i, repo := range repos {
		g.Go(func() error {
			entries, err := ru.syncRepository(ctx, repo, byRepo[repo])
			if err != nil {
				failures[i] = err
				observability.Sync().OnPipelineFailure(ctx, repo, err)
				ru.logger.Error("repository pipeline aborted", "repo", repo, "err", err)
				return nil
			}
			outputs[i] = entries
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:        id,
		Shard:        spec,
		Repositories: repos,
		Failed:       make(map[string]error),
		createdAt:    opts.Now().UTC(),
	}
	for i, repo := range repos {
		if failures[i] != nil {
			result.Failed[repo] = failures[i]
			continue
		}
		result.Entries = append(result.Entries, outputs[i]...)
	}
	result.Stats = Stats{
		Outcomes:    ru.outcomes,
		Resolutions: ru.revs.Calls(),
		Fetches:     ru.snaps.Calls(),
		Locates:     ru.locs.Calls(),
		Duration:    time.Since(start),
	}

	ru.logger.Info("update complete",
		"entries", len(result.Entries),
		"updated", ru.outcomes[Updated],
		"unchanged", ru.outcomes[Unchanged],
		"retained", ru.outcomes[Retained],
		"dropped", ru.outcomes[Dropped],
		"failed", len(result.Failed),
		"duration", result.Stats.Duration)
	return result, nil
}

// valid filters out records that cannot name a repository or a skill.
func (ru *run) valid(lists [][]source.Record) [][]source.Record {
	out := make([][]source.Record, len(lists))
	for i, list := range lists {
		for _, rec := range list {
			if err := rec.Validate(); err != nil {
				ru.logger.Warn("skipping invalid record", "repo", rec.RepositoryID, "skill", rec.Name, "err", errors.UserMessage(err))
				continue
			}
			out[i] = append(out[i], rec)
		}
	}
	return out
}

// syncRepository processes the packages of one repository in listing
// order. An error aborts the pipeline and discards its output.
func (ru *run) syncRepository(ctx context.Context, repo string, recs []source.Record) ([]catalog.Entry, error) {
	var entries []catalog.Entry
	for _, rec := range recs {
		out, err := ru.syncPackage(ctx, rec)
		if err != nil {
			return nil, err
		}
		ru.record(ctx, out.Kind)
		if out.Entry != nil {
			entries = append(entries, *out.Entry)
		}
	}
	return catalog.Dedupe(entries), nil
}

// syncPackage resolves one package to an [Outcome]. The returned error is
// reserved for conditions that abort the repository pipeline.
func (ru *run) syncPackage(ctx context.Context, rec source.Record) (Outcome, error) {
	repo, owner, name := rec.RepositoryID, rec.Owner(), rec.Repo()
	logger := ru.logger.With("repo", repo, "skill", rec.Name)
	prev := ru.previous(rec)

	rev, err := ru.resolve(ctx, repo)
	if err != nil {
		return Outcome{}, err
	}
	if rev == "" {
		reason := errors.New(errors.ErrCodeResolutionFailed, "no revision for %s", repo)
		logger.Warn("repository unresolved", "previous", prev != nil)
		if ru.opts.DropOnResolveFailure {
			return dropped(reason), nil
		}
		return fallback(prev, reason), nil
	}

	if prev != nil && prev.Source.Rev == rev {
		logger.Debug("revision unchanged", "rev", rev)
		return unchanged(*prev), nil
	}

	snap, err := ru.fetch(ctx, repo, rev)
	if err != nil {
		if ctx.Err() != nil {
			return Outcome{}, ctx.Err()
		}
		logger.Warn("snapshot fetch failed", "rev", rev, "previous", prev != nil, "err", errors.UserMessage(err))
		return fallback(prev, err), nil
	}

	dir, err := ru.locate(snap.Path, rec.Name)
	if stderrors.Is(err, manifest.ErrNotFound) {
		observability.Sync().OnLocate(ctx, repo, rec.Name, "")
		logger.Warn("skill not found", "rev", rev)
		return dropped(errors.Wrap(errors.ErrCodeManifestNotFound, err, "%s in %s@%s", rec.Name, repo, rev)), nil
	}
	if err != nil {
		logger.Warn("manifest lookup failed", "rev", rev, "err", err)
		return fallback(prev, err), nil
	}
	phase := "frontmatter"
	if path.Base(dir) == rec.Name {
		phase = "directory"
	}
	observability.Sync().OnLocate(ctx, repo, rec.Name, phase)

	entry := catalog.Entry{
		Name: catalog.PackageName(owner, name, dir),
		Source: catalog.Source{
			Type:  catalog.SourceType,
			Owner: owner,
			Repo:  name,
			Rev:   rev,
			Hash:  snap.Hash,
		},
		Path:        dir,
		LastUpdated: catalog.NewTimestamp(ru.opts.Now()),
	}

	// The package may be known under a name other than its listing name.
	if base, ok := ru.baseline.Lookup(entry.Name); ok &&
		base.Source.Rev == rev && base.Source.Hash == snap.Hash && base.Path == dir {
		return unchanged(base), nil
	}
	logger.Info("updated", "pname", entry.Name, "rev", rev)
	return updated(entry), nil
}

// previous returns the baseline entry named after the listing name.
func (ru *run) previous(rec source.Record) *catalog.Entry {
	e, ok := ru.baseline.Lookup(catalog.PackageName(rec.Owner(), rec.Repo(), rec.Name))
	if !ok {
		return nil
	}
	return &e
}

func (ru *run) resolve(ctx context.Context, repo string) (string, error) {
	return ru.revs.Do(repo, func() (string, error) {
		return ru.Resolver.Resolve(ctx, repo)
	})
}

func (ru *run) fetch(ctx context.Context, repo, rev string) (*snapshot.Snapshot, error) {
	return ru.snaps.Do(repo+"@"+rev, func() (*snapshot.Snapshot, error) {
		return ru.Fetcher.Fetch(ctx, repo, rev)
	})
}

func (ru *run) locate(root, hint string) (string, error) {
	return ru.locs.Do(root+"\x00"+hint, func() (string, error) {
		return ru.Locator.Locate(root, hint)
	})
}

func (ru *run) record(ctx context.Context, kind OutcomeKind) {
	observability.Sync().OnOutcome(ctx, kind.String())
	ru.mu.Lock()
	ru.outcomes[kind]++
	ru.mu.Unlock()
}
