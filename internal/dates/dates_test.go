package dates

import (
	"errors"
	"testing"

	apperrors "github.com/sciwatch/drug-mentions-platform/pkg/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"01/01/2020", "2020-01-01"},
		{"25/12/2019", "2019-12-25"},
		{"2020-01-01", "2020-01-01"},
		{"1 January 2020", "2020-01-01"},
		{"27 April 2020", "2020-04-27"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.in, err)
			}
			if iso := got.Format("2006-01-02"); iso != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.in, iso, tt.want)
			}
		})
	}
}

func TestParseAmbiguousDayMonth(t *testing.T) {
	// DD/MM/YYYY is tried first, so 02/03/2020 is March 2nd, not February 3rd.
	got, err := Parse("02/03/2020")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if iso := got.Format("2006-01-02"); iso != "2020-03-02" {
		t.Errorf("Parse(02/03/2020) = %s, want 2020-03-02", iso)
	}
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{"01-01-2020", "January 1 2020", "2020/01/01", "not a date", ""} {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			if !errors.Is(err, apperrors.ErrDateFormat) {
				t.Errorf("Parse(%q) = %v, want ErrDateFormat", in, err)
			}
		})
	}
}
