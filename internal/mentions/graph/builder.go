package graph

import (
	"fmt"
	"time"

	"github.com/sciwatch/drug-mentions-platform/internal/mentions/matcher"
	apperrors "github.com/sciwatch/drug-mentions-platform/pkg/errors"
)

// isoDate is the rendering layout for persisted mention dates.
const isoDate = "2006-01-02"

// Record is one tabular input row after loading and date parsing. Source
// files with a scientific_title column have already been renamed to Title.
type Record struct {
	ID      string
	Title   string
	Journal string
	Date    time.Time
}

// Build scans records once, in input order, and indexes every drug mention
// found in their titles under the given source tag.
//
// When base is nil a fresh graph is returned; a non-nil base is used as an
// explicit accumulator and mutated in place (the caller hands over ownership
// for the duration of the call). No deduplication is performed: a title
// matched twice appears twice.
func Build(records []Record, vocab *matcher.Vocabulary, sourceTag string, base Graph) (Graph, error) {
	g := base
	if g == nil {
		g = New()
	}
	for i, rec := range records {
		if err := validateRecord(rec, sourceTag, i); err != nil {
			return nil, err
		}
		mention := Mention{
			Title: rec.Title,
			Date:  rec.Date.Format(isoDate),
		}
		for _, drug := range vocab.FindInTitle(rec.Title) {
			g.Append(drug, rec.Journal, sourceTag, mention)
		}
	}
	return g, nil
}

// validateRecord rejects records missing a required field. Failures are
// fatal for the batch; the caller decides whether to abort the run.
func validateRecord(rec Record, sourceTag string, position int) error {
	switch {
	case rec.Title == "":
		return fmt.Errorf("%w: source %s record %d (id=%q): empty title",
			apperrors.ErrMalformedRecord, sourceTag, position, rec.ID)
	case rec.Journal == "":
		return fmt.Errorf("%w: source %s record %d (id=%q): empty journal",
			apperrors.ErrMalformedRecord, sourceTag, position, rec.ID)
	case rec.Date.IsZero():
		return fmt.Errorf("%w: source %s record %d (id=%q): missing date",
			apperrors.ErrMalformedRecord, sourceTag, position, rec.ID)
	}
	return nil
}
