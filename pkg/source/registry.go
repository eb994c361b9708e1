package source

import (
	"slices"
	"strings"

	"github.com/matzehuels/skillpkgs/pkg/errors"
)

// Known source names.
const (
	SkillsSh        = "skills.sh"
	SkillsDirectory = "skillsdirectory.com"
	// Custom is the hand-maintained list. It has no upstream and is never
	// fetched.
	Custom = "custom"
)

// FileName returns the list file name for a source, e.g.
// "source-skills-sh.json" for "skills.sh".
func FileName(name string) string {
	return "source-" + strings.ReplaceAll(name, ".", "-") + ".json"
}

// Registry maps source names to listers.
type Registry struct {
	listers map[string]Lister
}

// NewRegistry returns a registry holding listers.
func NewRegistry(listers ...Lister) *Registry {
	r := &Registry{listers: make(map[string]Lister)}
	for _, l := range listers {
		r.listers[l.Name()] = l
	}
	return r
}

// Lookup returns the lister for name, or an UNKNOWN_SOURCE error.
func (r *Registry) Lookup(name string) (Lister, error) {
	if l, ok := r.listers[name]; ok {
		return l, nil
	}
	return nil, errors.New(errors.ErrCodeUnknownSource, "unknown source: %s (available: %s)",
		name, strings.Join(r.Names(), ", "))
}

// Names returns the registered source names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.listers))
	for name := range r.listers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Files returns the list file names read by the update command, custom
// first so that hand-maintained records win deduplication.
func (r *Registry) Files() []string {
	files := []string{FileName(Custom)}
	for _, name := range r.Names() {
		files = append(files, FileName(name))
	}
	return files
}
