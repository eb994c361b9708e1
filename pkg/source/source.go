// Package source defines the skill listing records produced by the upstream
// listings and the operations that turn a listing into a canonical list.
//
// A [Record] names one skill and the GitHub repository that hosts it. A
// [Lister] produces records lazily; [Collect] drains it into a list that is
// deduplicated by (repository, name) and sorted by the same key. The list
// is persisted with [WriteList] and read back by the update command with
// [ReadList].
package source

import (
	"context"
	"iter"
	"slices"
	"strings"

	"github.com/matzehuels/skillpkgs/pkg/errors"
)

// Record is one skill as reported by an upstream listing.
type Record struct {
	Name         string `json:"name"`
	RepositoryID string `json:"source"`
	Path         string `json:"path,omitempty"`
}

// Owner returns the repository owner.
func (r Record) Owner() string {
	owner, _, _ := strings.Cut(r.RepositoryID, "/")
	return owner
}

// Repo returns the repository name without the owner.
func (r Record) Repo() string {
	_, repo, _ := strings.Cut(r.RepositoryID, "/")
	return repo
}

// Key returns the uniqueness key "<repositoryId>.<name>".
func (r Record) Key() string {
	return r.RepositoryID + "." + r.Name
}

// Lister produces the records of one upstream listing.
type Lister interface {
	// Name is the source name accepted by the fetch command.
	Name() string
	// List pages through the upstream. Iteration stops at the first error.
	List(ctx context.Context) iter.Seq2[Record, error]
}

// Collect drains seq and returns the records deduplicated by
// (RepositoryID, Name) and sorted by the same pair. The first occurrence of
// a duplicate wins. An error from seq aborts collection.
func Collect(seq iter.Seq2[Record, error]) ([]Record, error) {
	var out []Record
	seen := make(map[string]bool)
	for rec, err := range seq {
		if err != nil {
			return nil, err
		}
		if seen[rec.Key()] {
			continue
		}
		seen[rec.Key()] = true
		out = append(out, rec)
	}
	Sort(out)
	return out, nil
}

// Sort orders records by (RepositoryID, Name).
func Sort(recs []Record) {
	slices.SortFunc(recs, compare)
}

func compare(a, b Record) int {
	if c := strings.Compare(a.RepositoryID, b.RepositoryID); c != 0 {
		return c
	}
	return strings.Compare(a.Name, b.Name)
}

// Validate checks that the record has a usable repository identifier and
// skill name.
func (r Record) Validate() error {
	if err := errors.ValidateRepositoryID(r.RepositoryID); err != nil {
		return err
	}
	return errors.ValidateSkillName(r.Name)
}
