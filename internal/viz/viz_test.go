package viz

import (
	"strings"
	"testing"

	"github.com/sciwatch/drug-mentions-platform/internal/mentions/graph"
)

func TestWriteDOT(t *testing.T) {
	g := graph.New()
	g.Append("Aspirin", "J1", graph.SourcePubMed, graph.Mention{Title: "Aspirin trial", Date: "2020-01-01"})
	g.Append("Aspirin", "J1", graph.SourcePubMed, graph.Mention{Title: "Aspirin again", Date: "2020-01-02"})
	g.Append("Aspirin", "J2", graph.SourceClinicalTrial, graph.Mention{Title: "Aspirin study", Date: "2020-01-03"})

	var sb strings.Builder
	if err := WriteDOT(&sb, g); err != nil {
		t.Fatalf("WriteDOT: %v", err)
	}
	out := sb.String()

	for _, want := range []string{
		`"drug: Aspirin" [shape=ellipse`,
		`"journal: J1" [shape=box`,
		`"drug: Aspirin" -> "journal: J1" [label="PubMed: 2"];`,
		`"drug: Aspirin" -> "journal: J2" [label="Clinical Trial: 1"];`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteDOTDeterministic(t *testing.T) {
	g := graph.New()
	g.Append("Paracetamol", "J2", graph.SourcePubMed, graph.Mention{Title: "a", Date: "2020-01-01"})
	g.Append("Aspirin", "J1", graph.SourcePubMed, graph.Mention{Title: "b", Date: "2020-01-01"})
	g.Append("Aspirin", "J2", graph.SourceClinicalTrial, graph.Mention{Title: "c", Date: "2020-01-01"})

	var first, second strings.Builder
	if err := WriteDOT(&first, g); err != nil {
		t.Fatal(err)
	}
	if err := WriteDOT(&second, g); err != nil {
		t.Fatal(err)
	}
	if first.String() != second.String() {
		t.Error("repeated renderings differ")
	}
}

func TestQuoteEscapes(t *testing.T) {
	got := quote(`a "quoted" name`)
	want := `"a \"quoted\" name"`
	if got != want {
		t.Errorf("quote = %s, want %s", got, want)
	}
}
