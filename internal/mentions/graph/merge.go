package graph

// Merge deep-merges secondary into primary across all three levels and
// returns the result, which the caller should use as the new primary.
//
// Merge rules, per level: a key present only in secondary has its entire
// subtree adopted by deep copy (adopting by reference would alias the two
// graphs); a key present in both recurses; at the leaf, mention lists are
// concatenated primary-then-secondary with no deduplication. Merging a graph
// with a copy of itself therefore doubles every leaf list.
//
// secondary is never mutated. primary may be mutated in place and must not
// be reused by the caller afterwards; only the returned graph is live.
func Merge(primary, secondary Graph) Graph {
	if primary == nil {
		primary = New()
	}
	for drug, journals := range secondary {
		existing, ok := primary[drug]
		if !ok {
			primary[drug] = journals.clone()
			continue
		}
		mergeJournals(existing, journals)
	}
	return primary
}

func mergeJournals(primary, secondary Journals) {
	for journal, sources := range secondary {
		existing, ok := primary[journal]
		if !ok {
			primary[journal] = sources.clone()
			continue
		}
		mergeSources(existing, sources)
	}
}

func mergeSources(primary, secondary Sources) {
	for tag, mentions := range secondary {
		// append copies the mention values, so the merged leaf never
		// aliases secondary's backing array.
		primary[tag] = append(primary[tag], mentions...)
	}
}
