package source

import "slices"

// GroupByRepository merges several source lists into the work set of the
// update command. Records are deduplicated by (RepositoryID, Name) across
// all lists, first occurrence winning. It returns the sorted distinct
// repository identifiers and each repository's records in listing order.
func GroupByRepository(lists ...[]Record) ([]string, map[string][]Record) {
	seen := make(map[string]bool)
	byRepo := make(map[string][]Record)
	for _, list := range lists {
		for _, rec := range list {
			if seen[rec.Key()] {
				continue
			}
			seen[rec.Key()] = true
			byRepo[rec.RepositoryID] = append(byRepo[rec.RepositoryID], rec)
		}
	}

	ids := make([]string, 0, len(byRepo))
	for id := range byRepo {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, byRepo
}
