package matcher

import (
	"reflect"
	"testing"
)

func TestFindMentions(t *testing.T) {
	vocab := []string{"Paracetamol", "Ibuprofen", "Aspirin"}

	tests := []struct {
		name  string
		title string
		want  []string
	}{
		{
			name:  "single match",
			title: "A study of Paracetamol in adults",
			want:  []string{"Paracetamol"},
		},
		{
			name:  "no match",
			title: "A study with no drugs at all",
			want:  nil,
		},
		{
			name:  "multiple matches follow vocabulary order",
			title: "Aspirin versus Ibuprofen versus Paracetamol",
			want:  []string{"Paracetamol", "Ibuprofen", "Aspirin"},
		},
		{
			name:  "case insensitive",
			title: "efficacy of PARACETAMOL and ibuprofen",
			want:  []string{"Paracetamol", "Ibuprofen"},
		},
		{
			name:  "superstring must not match",
			title: "A study of Paracetamole in adults",
			want:  nil,
		},
		{
			name:  "substring inside word must not match",
			title: "Pseudoaspirin is not aspirin-free",
			want:  []string{"Aspirin"},
		},
		{
			name:  "match at string edges",
			title: "Paracetamol",
			want:  []string{"Paracetamol"},
		},
		{
			name:  "punctuation is a boundary",
			title: "Randomized trial (aspirin, placebo-controlled)",
			want:  []string{"Aspirin"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindMentions(tt.title, vocab)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FindMentions(%q) = %v, want %v", tt.title, got, tt.want)
			}
		})
	}
}

func TestFindMentionsEscapesMetaCharacters(t *testing.T) {
	vocab := []string{"St. John's Wort"}
	got := FindMentions("a trial of st. john's wort extract", vocab)
	want := []string{"St. John's Wort"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	// The dot must match literally, not as a wildcard.
	if got := FindMentions("a trial of stx john's wort extract", vocab); got != nil {
		t.Errorf("expected no match without the literal dot, got %v", got)
	}
}

func TestVocabularyReuse(t *testing.T) {
	v := NewVocabulary([]string{"Aspirin", "Diphenhydramine"})
	if v.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", v.Len())
	}

	first := v.FindInTitle("aspirin trial")
	second := v.FindInTitle("ASPIRIN TRIAL")
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated scans disagree: %v vs %v", first, second)
	}
	if !reflect.DeepEqual(first, []string{"Aspirin"}) {
		t.Errorf("FindInTitle = %v, want [Aspirin]", first)
	}
}

func TestFindMentionsDeterministic(t *testing.T) {
	vocab := []string{"Epinephrine", "Isoprenaline", "Tetracycline"}
	title := "tetracycline and epinephrine and isoprenaline combined"
	want := FindMentions(title, vocab)
	for i := 0; i < 10; i++ {
		if got := FindMentions(title, vocab); !reflect.DeepEqual(got, want) {
			t.Fatalf("run %d: got %v, want %v", i, got, want)
		}
	}
}
