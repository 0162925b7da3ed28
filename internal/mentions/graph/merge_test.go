package graph

import (
	"reflect"
	"testing"
)

func singleNode(drug, journal, tag string, mentions ...Mention) Graph {
	g := New()
	g.Node(drug, journal)
	for _, m := range mentions {
		g.Append(drug, journal, tag, m)
	}
	return g
}

func TestMergeDisjointDrugs(t *testing.T) {
	primary := singleNode("Drug1", "Journal1", SourcePubMed, Mention{Title: "Title1", Date: "2020-01-01"})
	secondary := singleNode("Drug2", "Journal2", SourceClinicalTrial, Mention{Title: "Title2", Date: "2020-01-01"})

	merged := Merge(primary, secondary)

	if len(merged) != 2 {
		t.Fatalf("merged has %d drugs, want 2", len(merged))
	}
	if got := merged["Drug1"]["Journal1"][SourcePubMed][0].Title; got != "Title1" {
		t.Errorf("Drug1 mention = %q, want Title1", got)
	}
	if got := merged["Drug2"]["Journal2"][SourceClinicalTrial][0].Title; got != "Title2" {
		t.Errorf("Drug2 mention = %q, want Title2", got)
	}
}

func TestMergeOverlappingNodeConcatenates(t *testing.T) {
	primary := singleNode("Drug1", "Journal1", SourcePubMed,
		Mention{Title: "P1", Date: "2020-01-01"},
	)
	secondary := singleNode("Drug1", "Journal1", SourcePubMed,
		Mention{Title: "P2", Date: "2020-01-02"},
	)

	merged := Merge(primary, secondary)

	got := merged["Drug1"]["Journal1"][SourcePubMed]
	want := []Mention{
		{Title: "P1", Date: "2020-01-01"},
		{Title: "P2", Date: "2020-01-02"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("leaf concatenation = %v, want primary-then-secondary %v", got, want)
	}
}

func TestMergeCompleteness(t *testing.T) {
	primary := singleNode("Drug1", "Journal1", SourcePubMed,
		Mention{Title: "A", Date: "2020-01-01"},
		Mention{Title: "A", Date: "2020-01-01"}, // duplicate counted with multiplicity
	)
	secondary := singleNode("Drug1", "Journal2", SourceClinicalTrial,
		Mention{Title: "B", Date: "2020-02-01"},
	)
	total := primary.MentionCount() + secondary.MentionCount()
	merged := Merge(primary, secondary)
	if merged.MentionCount() != total {
		t.Errorf("merged count = %d, want %d (no silent loss)", merged.MentionCount(), total)
	}
}

func TestMergeSelfDoublesLeaves(t *testing.T) {
	g := singleNode("Drug1", "Journal1", SourcePubMed,
		Mention{Title: "T", Date: "2020-01-01"},
	)
	g.Append("Drug1", "Journal1", SourceClinicalTrial, Mention{Title: "C", Date: "2020-01-02"})

	before := g.MentionCount()
	merged := Merge(g, g.Clone())

	if got := merged.MentionCount(); got != 2*before {
		t.Errorf("self-merge count = %d, want %d (concatenation, no dedup)", got, 2*before)
	}
	if got := len(merged["Drug1"]["Journal1"][SourcePubMed]); got != 2 {
		t.Errorf("PubMed leaf length = %d, want 2", got)
	}
}

func TestMergeDoesNotMutateSecondary(t *testing.T) {
	primary := New()
	secondary := singleNode("Drug1", "Journal1", SourcePubMed,
		Mention{Title: "T", Date: "2020-01-01"},
	)
	snapshot := secondary.Clone()

	Merge(primary, secondary)

	if !reflect.DeepEqual(secondary, snapshot) {
		t.Errorf("secondary mutated by merge:\ngot  %#v\nwant %#v", secondary, snapshot)
	}
}

func TestMergeAdoptsByDeepCopy(t *testing.T) {
	primary := New()
	secondary := singleNode("Drug1", "Journal1", SourcePubMed,
		Mention{Title: "T", Date: "2020-01-01"},
	)

	merged := Merge(primary, secondary)

	// Mutating the merged result must not leak into secondary.
	merged.Append("Drug1", "Journal1", SourcePubMed, Mention{Title: "extra", Date: "2021-01-01"})
	merged["Drug1"]["Journal1"][SourcePubMed][0].Title = "changed"

	if got := len(secondary["Drug1"]["Journal1"][SourcePubMed]); got != 1 {
		t.Errorf("secondary leaf grew to %d entries after mutating merged graph", got)
	}
	if got := secondary["Drug1"]["Journal1"][SourcePubMed][0].Title; got != "T" {
		t.Errorf("secondary mention title = %q, aliased by merged graph", got)
	}
}

func TestMergeIntoNilPrimary(t *testing.T) {
	secondary := singleNode("Drug1", "Journal1", SourceClinicalTrial,
		Mention{Title: "T", Date: "2020-01-01"},
	)
	merged := Merge(nil, secondary)
	if merged.MentionCount() != 1 {
		t.Errorf("merge into nil primary lost mentions: count = %d", merged.MentionCount())
	}
}
