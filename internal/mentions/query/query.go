// Package query implements the read-only analytical traversals over a
// completed mention graph. Queries never mutate the graph and are safe to run
// concurrently over the same instance.
package query

import (
	"strings"

	"github.com/sciwatch/drug-mentions-platform/internal/mentions/graph"
)

// TopJournal returns the journal mentioning the most unique drugs, with the
// count. Drug names are lowercased before counting so cross-case duplicates
// collapse. Ties are broken deterministically by the lexicographically
// smallest journal name.
func TopJournal(g graph.Graph) (string, int) {
	journalDrugs := make(map[string]map[string]struct{})
	for drug, journals := range g {
		lowered := strings.ToLower(drug)
		for journal := range journals {
			set, ok := journalDrugs[journal]
			if !ok {
				set = make(map[string]struct{})
				journalDrugs[journal] = set
			}
			set[lowered] = struct{}{}
		}
	}

	var best string
	bestCount := -1
	for journal, drugs := range journalDrugs {
		count := len(drugs)
		if count > bestCount || (count == bestCount && journal < best) {
			best = journal
			bestCount = count
		}
	}
	if bestCount < 0 {
		return "", 0
	}
	return best, bestCount
}

// RelatedDrugsExclusiveToPubMed returns the set of drugs other than target
// that share at least one journal where both they and target have PubMed
// mentions and zero clinical-trial mentions.
//
// The result is empty (never nil) when target has no PubMed-exclusive
// journals or no other drug shares one. Two passes over the graph: one to
// collect target's exclusive journals, one to test every other drug against
// that set.
func RelatedDrugsExclusiveToPubMed(g graph.Graph, target string) map[string]struct{} {
	related := make(map[string]struct{})

	exclusive := make(map[string]struct{})
	for journal, sources := range g[target] {
		if pubMedExclusive(sources) {
			exclusive[journal] = struct{}{}
		}
	}
	if len(exclusive) == 0 {
		return related
	}

	for drug, journals := range g {
		if drug == target {
			continue
		}
		for journal, sources := range journals {
			if _, ok := exclusive[journal]; !ok {
				continue
			}
			if pubMedExclusive(sources) {
				related[drug] = struct{}{}
				break
			}
		}
	}
	return related
}

// pubMedExclusive reports whether a drug/journal node has at least one PubMed
// mention and no clinical-trial mentions.
func pubMedExclusive(s graph.Sources) bool {
	return len(s[graph.SourcePubMed]) > 0 && len(s[graph.SourceClinicalTrial]) == 0
}
