package query

import (
	"reflect"
	"testing"

	"github.com/sciwatch/drug-mentions-platform/internal/mentions/graph"
)

func mention(title string) graph.Mention {
	return graph.Mention{Title: title, Date: "2020-01-01"}
}

func TestTopJournal(t *testing.T) {
	g := graph.New()
	g.Append("Aspirin", "J1", graph.SourcePubMed, mention("a"))
	g.Append("Paracetamol", "J1", graph.SourcePubMed, mention("b"))
	g.Append("Morphine", "J1", graph.SourceClinicalTrial, mention("c"))
	g.Append("Aspirin", "J2", graph.SourcePubMed, mention("d"))

	journal, count := TopJournal(g)
	if journal != "J1" || count != 3 {
		t.Errorf("TopJournal = (%q, %d), want (J1, 3)", journal, count)
	}
}

func TestTopJournalCollapsesCaseDuplicates(t *testing.T) {
	g := graph.New()
	g.Append("Aspirin", "J1", graph.SourcePubMed, mention("a"))
	g.Append("ASPIRIN", "J1", graph.SourcePubMed, mention("b"))
	g.Append("Morphine", "J2", graph.SourcePubMed, mention("c"))
	g.Append("Aspirin", "J2", graph.SourcePubMed, mention("d"))

	journal, count := TopJournal(g)
	// J1 holds one unique drug after lowercasing; J2 holds two.
	if journal != "J2" || count != 2 {
		t.Errorf("TopJournal = (%q, %d), want (J2, 2)", journal, count)
	}
}

func TestTopJournalDeterministicTieBreak(t *testing.T) {
	g := graph.New()
	g.Append("Aspirin", "Zeta Journal", graph.SourcePubMed, mention("a"))
	g.Append("Aspirin", "Alpha Journal", graph.SourcePubMed, mention("b"))
	g.Append("Morphine", "Zeta Journal", graph.SourcePubMed, mention("c"))
	g.Append("Morphine", "Alpha Journal", graph.SourcePubMed, mention("d"))

	wantJournal, wantCount := "Alpha Journal", 2
	for i := 0; i < 50; i++ {
		journal, count := TopJournal(g)
		if journal != wantJournal || count != wantCount {
			t.Fatalf("run %d: TopJournal = (%q, %d), want (%q, %d)",
				i, journal, count, wantJournal, wantCount)
		}
	}
}

func TestTopJournalEmptyGraph(t *testing.T) {
	journal, count := TopJournal(graph.New())
	if journal != "" || count != 0 {
		t.Errorf("TopJournal on empty graph = (%q, %d), want (\"\", 0)", journal, count)
	}
}

func TestRelatedDrugsExclusiveToPubMed(t *testing.T) {
	g := graph.New()
	g.Append("DrugA", "J1", graph.SourcePubMed, mention("m1"))
	g.Append("DrugB", "J1", graph.SourcePubMed, mention("m2"))

	got := RelatedDrugsExclusiveToPubMed(g, "DrugA")
	want := map[string]struct{}{"DrugB": {}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RelatedDrugsExclusiveToPubMed = %v, want %v", got, want)
	}
}

func TestRelatedDrugsExcludesClinicalTrialJournals(t *testing.T) {
	g := graph.New()
	// J1 is PubMed-exclusive for DrugA; J2 is not (has a trial mention).
	g.Append("DrugA", "J1", graph.SourcePubMed, mention("m1"))
	g.Append("DrugA", "J2", graph.SourcePubMed, mention("m2"))
	g.Append("DrugA", "J2", graph.SourceClinicalTrial, mention("m3"))
	// DrugB shares only J2 with DrugA.
	g.Append("DrugB", "J2", graph.SourcePubMed, mention("m4"))
	// DrugC shares J1 but only via clinical trials there.
	g.Append("DrugC", "J1", graph.SourceClinicalTrial, mention("m5"))
	// DrugD shares J1 with a PubMed-only presence.
	g.Append("DrugD", "J1", graph.SourcePubMed, mention("m6"))

	got := RelatedDrugsExclusiveToPubMed(g, "DrugA")
	want := map[string]struct{}{"DrugD": {}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RelatedDrugsExclusiveToPubMed = %v, want %v", got, want)
	}
}

func TestRelatedDrugsNoExclusiveJournals(t *testing.T) {
	g := graph.New()
	g.Append("DrugA", "J1", graph.SourcePubMed, mention("m1"))
	g.Append("DrugA", "J1", graph.SourceClinicalTrial, mention("m2"))
	g.Append("DrugB", "J1", graph.SourcePubMed, mention("m3"))

	got := RelatedDrugsExclusiveToPubMed(g, "DrugA")
	if len(got) != 0 {
		t.Errorf("expected empty set, got %v", got)
	}
	if got == nil {
		t.Error("result must be an empty set, not nil")
	}
}

func TestRelatedDrugsUnknownTarget(t *testing.T) {
	g := graph.New()
	g.Append("DrugA", "J1", graph.SourcePubMed, mention("m1"))

	got := RelatedDrugsExclusiveToPubMed(g, "Nonexistent")
	if len(got) != 0 {
		t.Errorf("expected empty set for unknown target, got %v", got)
	}
}

func TestQueriesDoNotMutateGraph(t *testing.T) {
	g := graph.New()
	g.Append("DrugA", "J1", graph.SourcePubMed, mention("m1"))
	g.Append("DrugB", "J1", graph.SourcePubMed, mention("m2"))
	snapshot := g.Clone()

	TopJournal(g)
	RelatedDrugsExclusiveToPubMed(g, "DrugA")

	if !reflect.DeepEqual(g, snapshot) {
		t.Error("query mutated the graph")
	}
}
