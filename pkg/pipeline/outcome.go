package pipeline

import "github.com/matzehuels/skillpkgs/pkg/catalog"

// OutcomeKind classifies the result of syncing one package.
type OutcomeKind int

const (
	// Updated: a new or changed entry was built.
	Updated OutcomeKind = iota
	// Unchanged: the revision matched the previous entry, which is
	// emitted as is.
	Unchanged
	// Retained: syncing failed and the previous entry is kept.
	Retained
	// Dropped: the package is omitted from the shard output.
	Dropped
)

var outcomeNames = [...]string{"updated", "unchanged", "retained", "dropped"}

func (k OutcomeKind) String() string {
	if int(k) < len(outcomeNames) {
		return outcomeNames[k]
	}
	return "unknown"
}

// Outcome is the result of syncing one package. Entry is nil for
// [Dropped]; Reason is set for [Retained] and [Dropped].
type Outcome struct {
	Kind   OutcomeKind
	Entry  *catalog.Entry
	Reason error
}

func updated(e catalog.Entry) Outcome   { return Outcome{Kind: Updated, Entry: &e} }
func unchanged(e catalog.Entry) Outcome { return Outcome{Kind: Unchanged, Entry: &e} }

// fallback keeps prev when there is one and drops the package otherwise.
func fallback(prev *catalog.Entry, reason error) Outcome {
	if prev != nil {
		return Outcome{Kind: Retained, Entry: prev, Reason: reason}
	}
	return Outcome{Kind: Dropped, Reason: reason}
}

func dropped(reason error) Outcome { return Outcome{Kind: Dropped, Reason: reason} }
