// Package catalog defines catalog entries and the merge of shard outputs
// into the persisted catalog.
//
// The catalog maps a package name (owner.repo.<manifest dir>) to the
// pinned source of that package. It is persisted as one JSON array per
// name prefix (the lowercase first character of the package name), each
// array sorted by package name:
//
//	<dir>/a/skills.json
//	<dir>/b/skills.json
//	...
//
// [Merge] applies shard outputs on top of a baseline with last-write-wins
// semantics per package name.
package catalog

import (
	"fmt"
	"path"
	"sort"
	"strconv"
	"time"
	"unicode"
	"unicode/utf8"
)

// SourceType is the only supported source kind.
const SourceType = "git"

// Source pins a package to a repository revision.
type Source struct {
	Type  string `json:"type"`
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	Rev   string `json:"rev"`
	Hash  string `json:"hash"`
}

// Repository returns "owner/repo".
func (s Source) Repository() string {
	return s.Owner + "/" + s.Repo
}

// Entry is one package in the catalog.
type Entry struct {
	Name        string    `json:"pname"`
	Source      Source    `json:"source"`
	Path        string    `json:"path"`
	LastUpdated Timestamp `json:"lastUpdated"`
}

// TimestampLayout is the persisted time format: UTC with milliseconds.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Timestamp is a UTC instant serialised with millisecond precision.
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to milliseconds in UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t.UTC().Truncate(time.Millisecond)}
}

func (t Timestamp) String() string {
	return t.UTC().Format(TimestampLayout)
}

// MarshalJSON renders the timestamp as a JSON string. It shadows the
// method promoted from time.Time.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON accepts any RFC 3339 time.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	*t = NewTimestamp(parsed)
	return nil
}

// PackageName derives the catalog key for a manifest directory. A manifest
// at the snapshot root is named after the repository.
func PackageName(owner, repo, manifestDir string) string {
	base := path.Base(manifestDir)
	if base == "." || base == "/" || base == "" {
		base = repo
	}
	return owner + "." + repo + "." + base
}

// Prefix returns the partition key for a package name: its first
// character, lowercased. Empty names map to "_".
func Prefix(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if size == 0 || r == utf8.RuneError || r == '/' || r == '.' {
		return "_"
	}
	return string(unicode.ToLower(r))
}

// Catalog maps package names to entries.
type Catalog map[string]Entry

// New builds a catalog from entries; later entries win on duplicate names.
func New(entries ...Entry) Catalog {
	c := make(Catalog, len(entries))
	for _, e := range entries {
		c.Set(e)
	}
	return c
}

// Set inserts or replaces e.
func (c Catalog) Set(e Entry) {
	c[e.Name] = e
}

// Lookup returns the entry for name.
func (c Catalog) Lookup(name string) (Entry, bool) {
	e, ok := c[name]
	return e, ok
}

// Sorted returns all entries ordered by package name.
func (c Catalog) Sorted() []Entry {
	out := make([]Entry, 0, len(c))
	for _, e := range c {
		out = append(out, e)
	}
	SortEntries(out)
	return out
}

// Partitions groups entries by [Prefix], each group sorted by name.
func (c Catalog) Partitions() map[string][]Entry {
	parts := make(map[string][]Entry)
	for _, e := range c.Sorted() {
		p := Prefix(e.Name)
		parts[p] = append(parts[p], e)
	}
	return parts
}

// Merge applies artifacts, in order, on top of a copy of baseline.
func Merge(baseline Catalog, artifacts ...[]Entry) Catalog {
	out := make(Catalog, len(baseline))
	for k, v := range baseline {
		out[k] = v
	}
	for _, entries := range artifacts {
		for _, e := range entries {
			out.Set(e)
		}
	}
	return out
}

// SortEntries sorts entries by package name.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
}

// Dedupe keeps the first entry per package name and sorts the result.
func Dedupe(entries []Entry) []Entry {
	seen := make(map[string]bool, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if seen[e.Name] {
			continue
		}
		seen[e.Name] = true
		out = append(out, e)
	}
	SortEntries(out)
	return out
}
