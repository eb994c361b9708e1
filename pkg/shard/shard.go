// Package shard splits a run's repositories across parallel jobs.
//
// A shard is written "index/total" with 1 <= index <= total. The sorted
// repository list is cut into contiguous slices of ceil(N/total) items;
// trailing shards may be short or empty. Every repository lands in
// exactly one shard.
package shard

import (
	"strconv"
	"strings"

	"github.com/matzehuels/skillpkgs/pkg/errors"
)

// Spec identifies one shard of a run.
type Spec struct {
	Index int
	Total int
}

// Default is the single shard covering everything.
var Default = Spec{Index: 1, Total: 1}

// Parse reads "index/total". An empty string yields [Default].
func Parse(s string) (Spec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Default, nil
	}
	a, b, ok := strings.Cut(s, "/")
	if !ok {
		return Spec{}, errors.New(errors.ErrCodeInvalidShard, "invalid shard %q (want index/total)", s)
	}
	index, err := strconv.Atoi(a)
	if err != nil {
		return Spec{}, errors.New(errors.ErrCodeInvalidShard, "invalid shard index %q", a)
	}
	total, err := strconv.Atoi(b)
	if err != nil {
		return Spec{}, errors.New(errors.ErrCodeInvalidShard, "invalid shard total %q", b)
	}
	spec := Spec{Index: index, Total: total}
	if err := spec.Validate(); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

// Validate checks 1 <= Index <= Total.
func (s Spec) Validate() error {
	if s.Total < 1 {
		return errors.New(errors.ErrCodeInvalidShard, "shard total must be at least 1, got %d", s.Total)
	}
	if s.Index < 1 || s.Index > s.Total {
		return errors.New(errors.ErrCodeInvalidShard, "shard index %d out of range 1..%d", s.Index, s.Total)
	}
	return nil
}

func (s Spec) String() string {
	return strconv.Itoa(s.Index) + "/" + strconv.Itoa(s.Total)
}

// Partition returns the slice of ids assigned to s. ids should already be
// sorted; the result shares its backing array.
func Partition[T any](ids []T, s Spec) []T {
	if len(ids) == 0 || s.Total < 1 {
		return nil
	}
	unit := (len(ids) + s.Total - 1) / s.Total
	start := min((s.Index-1)*unit, len(ids))
	end := min(start+unit, len(ids))
	return ids[start:end]
}
