package graph

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/sciwatch/drug-mentions-platform/internal/mentions/matcher"
	apperrors "github.com/sciwatch/drug-mentions-platform/pkg/errors"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestBuildIndexesMentions(t *testing.T) {
	vocab := matcher.NewVocabulary([]string{"Aspirin", "Paracetamol"})
	records := []Record{
		{ID: "1", Title: "Aspirin trial", Journal: "J1", Date: date("2020-01-01")},
		{ID: "2", Title: "Paracetamol and aspirin combined", Journal: "J2", Date: date("2020-02-03")},
		{ID: "3", Title: "Nothing relevant", Journal: "J1", Date: date("2020-03-01")},
	}

	g, err := Build(records, vocab, SourcePubMed, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := Graph{
		"Aspirin": Journals{
			"J1": Sources{
				SourcePubMed:        []Mention{{Title: "Aspirin trial", Date: "2020-01-01"}},
				SourceClinicalTrial: []Mention{},
			},
			"J2": Sources{
				SourcePubMed:        []Mention{{Title: "Paracetamol and aspirin combined", Date: "2020-02-03"}},
				SourceClinicalTrial: []Mention{},
			},
		},
		"Paracetamol": Journals{
			"J2": Sources{
				SourcePubMed:        []Mention{{Title: "Paracetamol and aspirin combined", Date: "2020-02-03"}},
				SourceClinicalTrial: []Mention{},
			},
		},
	}
	if !reflect.DeepEqual(g, want) {
		t.Errorf("Build mismatch:\ngot  %#v\nwant %#v", g, want)
	}
}

func TestBuildShapeInvariant(t *testing.T) {
	vocab := matcher.NewVocabulary([]string{"Aspirin"})
	records := []Record{
		{ID: "1", Title: "Aspirin study", Journal: "J1", Date: date("2019-05-05")},
	}
	g, err := Build(records, vocab, SourceClinicalTrial, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for drug, journals := range g {
		for journal, sources := range journals {
			for _, tag := range SourceTags {
				mentions, ok := sources[tag]
				if !ok {
					t.Errorf("node (%s, %s) missing source tag %q", drug, journal, tag)
				}
				if mentions == nil {
					t.Errorf("node (%s, %s) tag %q is nil, want empty list", drug, journal, tag)
				}
			}
		}
	}
}

func TestBuildAccumulatesIntoBase(t *testing.T) {
	vocab := matcher.NewVocabulary([]string{"Aspirin"})

	base, err := Build([]Record{
		{ID: "1", Title: "Aspirin first", Journal: "J1", Date: date("2020-01-01")},
	}, vocab, SourcePubMed, nil)
	if err != nil {
		t.Fatalf("Build base: %v", err)
	}

	g, err := Build([]Record{
		{ID: "2", Title: "Aspirin second", Journal: "J1", Date: date("2020-01-02")},
	}, vocab, SourcePubMed, base)
	if err != nil {
		t.Fatalf("Build accumulate: %v", err)
	}

	mentions := g["Aspirin"]["J1"][SourcePubMed]
	if len(mentions) != 2 {
		t.Fatalf("expected 2 accumulated mentions, got %d", len(mentions))
	}
	// Insertion order is preserved.
	if mentions[0].Title != "Aspirin first" || mentions[1].Title != "Aspirin second" {
		t.Errorf("insertion order lost: %v", mentions)
	}
}

func TestBuildNoDeduplication(t *testing.T) {
	vocab := matcher.NewVocabulary([]string{"Aspirin"})
	rec := Record{ID: "1", Title: "Aspirin twice", Journal: "J1", Date: date("2020-01-01")}

	g, err := Build([]Record{rec, rec}, vocab, SourcePubMed, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := len(g["Aspirin"]["J1"][SourcePubMed]); got != 2 {
		t.Errorf("duplicate title indexed %d times, want 2", got)
	}
}

func TestBuildMalformedRecord(t *testing.T) {
	vocab := matcher.NewVocabulary([]string{"Aspirin"})

	tests := []struct {
		name string
		rec  Record
	}{
		{"missing title", Record{ID: "1", Journal: "J1", Date: date("2020-01-01")}},
		{"missing journal", Record{ID: "2", Title: "Aspirin", Date: date("2020-01-01")}},
		{"missing date", Record{ID: "3", Title: "Aspirin", Journal: "J1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build([]Record{tt.rec}, vocab, SourcePubMed, nil)
			if !errors.Is(err, apperrors.ErrMalformedRecord) {
				t.Errorf("Build = %v, want ErrMalformedRecord", err)
			}
		})
	}
}
