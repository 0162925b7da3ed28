// Package matcher finds drug-name mentions in free-text titles. Matching is
// whole-word and case-insensitive, and the output preserves vocabulary order,
// not position-in-title order.
package matcher

import (
	"regexp"
	"strings"
)

// Vocabulary is an ordered list of canonical drug names with one pre-compiled
// boundary-anchored pattern per entry, so scanning large record sets does not
// recompile patterns per title.
type Vocabulary struct {
	names    []string
	patterns []*regexp.Regexp
}

// NewVocabulary compiles the given canonical names. The canonical case is
// preserved for output; matching is case-insensitive.
func NewVocabulary(names []string) *Vocabulary {
	v := &Vocabulary{
		names:    make([]string, 0, len(names)),
		patterns: make([]*regexp.Regexp, 0, len(names)),
	}
	for _, name := range names {
		v.names = append(v.names, name)
		v.patterns = append(v.patterns, compilePattern(name))
	}
	return v
}

// Names returns the vocabulary entries in their original order.
func (v *Vocabulary) Names() []string {
	return v.names
}

// Len returns the number of vocabulary entries.
func (v *Vocabulary) Len() int {
	return len(v.names)
}

// FindInTitle returns the canonical names mentioned in title, in vocabulary
// order. A name matches only when it occurs as a whole word: an occurrence
// embedded in a longer word is rejected.
func (v *Vocabulary) FindInTitle(title string) []string {
	lower := strings.ToLower(title)
	var found []string
	for i, pattern := range v.patterns {
		if pattern.MatchString(lower) {
			found = append(found, v.names[i])
		}
	}
	return found
}

// FindMentions is a convenience wrapper for one-off scans over a plain name
// list.
func FindMentions(title string, vocabulary []string) []string {
	return NewVocabulary(vocabulary).FindInTitle(title)
}

// compilePattern builds a word-boundary pattern for a single name. The name
// is lowercased and quoted, so names containing regex metacharacters
// (e.g. "St. John's Wort") match literally.
func compilePattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(name)) + `\b`)
}
