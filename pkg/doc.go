// Package pkg provides the libraries behind skillpkgs, an incremental sync
// engine for a catalog of agent skills.
//
// # Overview
//
// Upstream directories list skills as (repository, name) pairs. skillpkgs
// pins each listed skill to the head revision of its repository, records
// the content hash of that revision and the directory holding the skill's
// manifest, and keeps the results in a partitioned JSON catalog that Nix
// expressions build packages from.
//
// # Architecture
//
// The data flow of one synchronization:
//
//	upstream listings ([integrations], [source])
//	         ↓
//	    source lists, grouped by repository and split into shards ([shard])
//	         ↓
//	    per repository: revision ([revision]) → snapshot ([snapshot]) → manifest ([manifest])
//	         ↓
//	    shard artifacts ([artifact])
//	         ↓
//	    merged catalog ([catalog])
//
// [pipeline] runs the middle step for one shard with a bounded number of
// concurrent repositories, memoizing every lookup for the run ([memo]),
// and merges the shard artifacts into the catalog.
//
// # Main Packages
//
// ## Domain
//
// [catalog] - Catalog entries, package names, partitioning by first
// letter, and the merge of shard outputs over a baseline.
//
// [source] - Listing records, the source registry, and list files.
//
// [shard] - "index/total" shard specs and contiguous partitioning.
//
// ## Synchronization
//
// [revision] - Head revision lookup: GitHub API first, shallow clone second.
//
// [snapshot] - Content-addressed snapshots of a revision, either unpacked
// locally with a NAR hash or prefetched into the Nix store.
//
// [manifest] - Finds the directory of a skill by name or by frontmatter.
//
// [pipeline] - The update engine and combine step.
//
// ## Infrastructure
//
// [integrations] - HTTP clients for the listings and GitHub.
//
// [cache] - File, Redis and null caches for listing pages and the snapshot
// index.
//
// [artifact] - File and Redis stores for shard outputs.
//
// [httputil] - Retry helpers.
//
// [observability] - Hooks for metrics collection.
//
// [errors] - Coded errors shared by all packages.
//
// # Testing
//
//	go test ./...
//	SKILLPKGS_TEST_REDIS=localhost:6379 go test ./pkg/artifact/...
//
// [catalog]: https://pkg.go.dev/github.com/matzehuels/skillpkgs/pkg/catalog
// [source]: https://pkg.go.dev/github.com/matzehuels/skillpkgs/pkg/source
// [shard]: https://pkg.go.dev/github.com/matzehuels/skillpkgs/pkg/shard
// [revision]: https://pkg.go.dev/github.com/matzehuels/skillpkgs/pkg/revision
// [snapshot]: https://pkg.go.dev/github.com/matzehuels/skillpkgs/pkg/snapshot
// [manifest]: https://pkg.go.dev/github.com/matzehuels/skillpkgs/pkg/manifest
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/skillpkgs/pkg/pipeline
// [memo]: https://pkg.go.dev/github.com/matzehuels/skillpkgs/pkg/memo
// [integrations]: https://pkg.go.dev/github.com/matzehuels/skillpkgs/pkg/integrations
// [cache]: https://pkg.go.dev/github.com/matzehuels/skillpkgs/pkg/cache
// [artifact]: https://pkg.go.dev/github.com/matzehuels/skillpkgs/pkg/artifact
// [httputil]: https://pkg.go.dev/github.com/matzehuels/skillpkgs/pkg/httputil
// [observability]: https://pkg.go.dev/github.com/matzehuels/skillpkgs/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/skillpkgs/pkg/errors
package pkg
