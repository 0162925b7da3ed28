// Package graph defines the drug mention graph: a three-level index of
// drug -> journal -> source tag -> mentions, plus its builder and merge
// operations. A completed Graph is immutable by convention; concurrent
// readers are safe, concurrent mutation is not.
package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	apperrors "github.com/sciwatch/drug-mentions-platform/pkg/errors"
)

// The two fixed source tags. The strings are part of the persisted JSON
// format and must round-trip byte-for-byte.
const (
	SourcePubMed        = "PubMed"
	SourceClinicalTrial = "Clinical Trial"
)

// SourceTags lists the fixed tags every drug/journal node carries.
var SourceTags = []string{SourcePubMed, SourceClinicalTrial}

// Mention is one matched occurrence of a drug in a titled record. Date is an
// ISO calendar date (YYYY-MM-DD); Title is stored verbatim.
type Mention struct {
	Title string `json:"title"`
	Date  string `json:"date"`
}

// Sources maps a source tag to its mention list, in insertion order.
type Sources map[string][]Mention

// Journals maps a journal name to its per-source mentions.
type Journals map[string]Sources

// Graph is the three-level mention index keyed by canonical drug name.
type Graph map[string]Journals

// New returns an empty Graph.
func New() Graph {
	return make(Graph)
}

// Node returns the Sources for (drug, journal), creating the node with both
// source buckets if it does not exist. A drug/journal node is never partially
// shaped: both tags are present from creation, possibly empty.
func (g Graph) Node(drug, journal string) Sources {
	journals, ok := g[drug]
	if !ok {
		journals = make(Journals)
		g[drug] = journals
	}
	sources, ok := journals[journal]
	if !ok {
		sources = Sources{
			SourcePubMed:        []Mention{},
			SourceClinicalTrial: []Mention{},
		}
		journals[journal] = sources
	}
	return sources
}

// Append adds one mention to the given source bucket, creating the
// drug/journal node as needed.
func (g Graph) Append(drug, journal, sourceTag string, m Mention) {
	sources := g.Node(drug, journal)
	sources[sourceTag] = append(sources[sourceTag], m)
}

// Drugs returns the drug names in the graph, sorted.
func (g Graph) Drugs() []string {
	drugs := make([]string, 0, len(g))
	for drug := range g {
		drugs = append(drugs, drug)
	}
	sort.Strings(drugs)
	return drugs
}

// MentionCount returns the total number of mentions across all leaves,
// counted with multiplicity.
func (g Graph) MentionCount() int {
	var n int
	for _, journals := range g {
		for _, sources := range journals {
			for _, mentions := range sources {
				n += len(mentions)
			}
		}
	}
	return n
}

// Clone returns a deep copy of the graph sharing no mutable state with the
// receiver.
func (g Graph) Clone() Graph {
	out := make(Graph, len(g))
	for drug, journals := range g {
		out[drug] = journals.clone()
	}
	return out
}

func (j Journals) clone() Journals {
	out := make(Journals, len(j))
	for journal, sources := range j {
		out[journal] = sources.clone()
	}
	return out
}

func (s Sources) clone() Sources {
	out := make(Sources, len(s))
	for tag, mentions := range s {
		copied := make([]Mention, len(mentions))
		copy(copied, mentions)
		out[tag] = copied
	}
	return out
}

// MarshalIndented serialises the graph as indented JSON. Map keys are emitted
// in sorted order, so the output is deterministic and round-trips
// byte-for-byte through Decode.
func (g Graph) MarshalIndented() ([]byte, error) {
	data, err := json.MarshalIndent(g, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("marshaling mention graph: %w", err)
	}
	return data, nil
}

// Decode reads a persisted graph from r. Structural deviations (wrong leaf
// type) are reported as malformed input.
func Decode(r io.Reader) (Graph, error) {
	var g Graph
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&g); err != nil {
		return nil, fmt.Errorf("%w: decoding mention graph: %v", apperrors.ErrMalformedRecord, err)
	}
	return g, nil
}
