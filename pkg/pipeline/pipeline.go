// Package pipeline implements the catalog update engine for skillpkgs.
//
// The engine turns source listings into catalog entries for one shard of
// the repository set and merges shard outputs into the persisted catalog.
// CLI commands and tests share it so that scheduling, memoization and
// failure handling behave the same everywhere.
//
// # Architecture
//
// An update run has three stages:
//
//  1. Plan: group the listings by repository, sort the distinct
//     repositories and keep the contiguous slice owned by the shard.
//  2. Sync: run one pipeline per repository with bounded concurrency.
//     Within a pipeline, packages are processed in listing order, each
//     through resolve → fetch → locate, with per-run memoization of all
//     three calls.
//  3. Emit: dedupe and sort each pipeline's entries by package name and
//     concatenate them in repository order.
//
// [Combine] is the separate, sequential merge step run after every shard
// has written its artifact.
//
// # Failure handling
//
// Every package ends in one [OutcomeKind]. Unresolved repositories and
// exhausted snapshot fetches fall back to the previous catalog entry
// when there is one; a missing manifest drops the package. A transport
// error aborts only the repository pipeline that raised it; its sibling
// pipelines keep running and the run still succeeds.
//
// # Usage
//
//	runner := pipeline.NewRunner(resolver, fetcher, locator, pipeline.Options{}, logger)
//	result, err := runner.Update(ctx, baseline, spec, custom, skillsSh, skillsDir)
//	if err != nil {
//	    return err
//	}
//	err = artifacts.Put(ctx, result.Artifact())
package pipeline

import (
	"fmt"
	"time"

	"github.com/matzehuels/skillpkgs/pkg/artifact"
	"github.com/matzehuels/skillpkgs/pkg/catalog"
	"github.com/matzehuels/skillpkgs/pkg/shard"
)

// =============================================================================
// Default Values
// =============================================================================

// DefaultConcurrency is the number of repository pipelines run at once
// within a shard.
const DefaultConcurrency = 10

// =============================================================================
// Options
// =============================================================================

// Options configures an update run.
type Options struct {
	// Concurrency bounds the repository pipelines running at once.
	Concurrency int

	// DropOnResolveFailure omits a package whose repository could not be
	// resolved even when the baseline has an entry for it. By default the
	// previous entry is retained.
	DropOnResolveFailure bool

	// Now stamps updated entries. Defaults to time.Now.
	Now func() time.Time

	validated bool
}

// ValidateAndSetDefaults checks the options and fills in defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Concurrency < 0 {
		return fmt.Errorf("concurrency must be positive, got %d", o.Concurrency)
	}
	if o.Concurrency == 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	o.validated = true
	return nil
}

// =============================================================================
// Result
// =============================================================================

// Result contains the outputs of an update run.
type Result struct {
	// RunID identifies the run in logs and artifact metadata.
	RunID string

	// Shard is the shard that was processed.
	Shard shard.Spec

	// Repositories lists the repositories of the shard in processing
	// order.
	Repositories []string

	// Entries is the shard output: per repository deduped and sorted by
	// package name, repositories in order.
	Entries []catalog.Entry

	// Failed maps repositories whose pipeline aborted to the error.
	Failed map[string]error

	// Stats contains timing and counters.
	Stats Stats

	createdAt time.Time
}

// Stats contains run statistics.
type Stats struct {
	Outcomes    map[OutcomeKind]int
	Resolutions int
	Fetches     int
	Locates     int
	Duration    time.Duration
}

// Artifact packages the result for an [artifact.Store].
func (r *Result) Artifact() *artifact.Artifact {
	return &artifact.Artifact{
		Index:     r.Shard.Index,
		Total:     r.Shard.Total,
		RunID:     r.RunID,
		CreatedAt: r.createdAt,
		Entries:   r.Entries,
	}
}
