// Package dates parses the free-text publication dates found in the source
// files. Parse is a pure function injected into the loaders.
package dates

import (
	"fmt"
	"time"

	apperrors "github.com/sciwatch/drug-mentions-platform/pkg/errors"
)

// layouts are tried in this fixed order; the first successful parse wins.
var layouts = []string{
	"02/01/2006",     // DD/MM/YYYY
	"2006-01-02",     // YYYY-MM-DD
	"2 January 2006", // D Month YYYY
}

// Parse converts a free-text date string to a calendar date. It fails when
// the string matches none of the accepted formats.
func Parse(s string) (time.Time, error) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", apperrors.ErrDateFormat, s)
}
