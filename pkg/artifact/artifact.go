// Package artifact stores the per-shard output of an update run until the
// combine step merges it into the catalog.
//
// Each shard writes exactly one [Artifact], keyed by its index; a second
// write for the same index replaces the first. Backends:
//   - file: one JSON file per shard under a directory (committed or
//     uploaded between CI jobs)
//   - redis: one hash field per shard, shared by every job of a run
//
// # Usage
//
//	store := artifact.NewFileStore(afero.NewOsFs(), "data/shard")
//	err := store.Put(ctx, &artifact.Artifact{Index: 1, Total: 4, Entries: entries})
//
//	arts, err := store.List(ctx) // sorted by index
//	if len(arts) == 0 {
//	    // nothing to combine
//	}
package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/skillpkgs/pkg/catalog"
)

// ErrMalformed is returned for stored artifacts that cannot be decoded.
var ErrMalformed = errors.New("malformed shard artifact")

// Artifact is the output of one shard.
type Artifact struct {
	Index     int             `json:"index"`
	Total     int             `json:"total"`
	RunID     string          `json:"runId,omitempty"`
	CreatedAt time.Time       `json:"createdAt,omitzero"`
	Entries   []catalog.Entry `json:"entries"`
}

// Store is the interface for shard artifact backends.
type Store interface {
	// Put stores a, replacing any artifact with the same index.
	Put(ctx context.Context, a *Artifact) error

	// List returns every stored artifact sorted by index. An empty store
	// yields an empty slice and no error.
	List(ctx context.Context) ([]*Artifact, error)

	// Clear removes all artifacts.
	Clear(ctx context.Context) error
}

// Entries concatenates the entries of arts in order.
func Entries(arts []*Artifact) [][]catalog.Entry {
	out := make([][]catalog.Entry, 0, len(arts))
	for _, a := range arts {
		out = append(out, a.Entries)
	}
	return out
}

// decode accepts the artifact envelope or a bare array of entries. A bare
// array takes its index from fallbackIndex.
func decode(data []byte, fallbackIndex int) (*Artifact, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		entries, err := catalog.DecodeEntries(data)
		if err != nil {
			return nil, errors.Join(ErrMalformed, err)
		}
		return &Artifact{Index: fallbackIndex, Entries: entries}, nil
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, errors.Join(ErrMalformed, err)
	}
	if a.Index == 0 {
		a.Index = fallbackIndex
	}
	return &a, nil
}

func encode(a *Artifact) ([]byte, error) {
	if a.Entries == nil {
		a.Entries = []catalog.Entry{}
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func indexOf(name string) (int, bool) {
	n, err := strconv.Atoi(name)
	return n, err == nil && n > 0
}
