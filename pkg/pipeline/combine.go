package pipeline

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/skillpkgs/pkg/artifact"
	"github.com/matzehuels/skillpkgs/pkg/catalog"
	"github.com/matzehuels/skillpkgs/pkg/errors"
)

// CombineResult summarises a combine run.
type CombineResult struct {
	Artifacts  int
	Entries    int
	Partitions []string
}

// Combine merges every stored shard artifact into the catalog, in shard
// index order, saves the catalog and clears the artifacts. It fails with
// NO_SHARD_ARTIFACTS, leaving the catalog untouched, when there is
// nothing to merge.
func Combine(ctx context.Context, store *catalog.Store, arts artifact.Store, logger *log.Logger) (*CombineResult, error) {
	if logger == nil {
		logger = log.Default()
	}

	list, err := arts.List(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read shard artifacts")
	}
	if len(list) == 0 {
		return nil, errors.New(errors.ErrCodeNoShardArtifacts, "no shard artifacts found")
	}

	baseline, err := store.Load()
	if err != nil {
		return nil, err
	}
	merged := catalog.Merge(baseline, artifact.Entries(list)...)

	prefixes, err := store.Save(merged)
	if err != nil {
		return nil, err
	}
	logger.Info("combined shards",
		"artifacts", len(list),
		"baseline", len(baseline),
		"entries", len(merged),
		"prefixes", len(prefixes))

	if err := arts.Clear(ctx); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "clear shard artifacts")
	}
	return &CombineResult{Artifacts: len(list), Entries: len(merged), Partitions: prefixes}, nil
}
