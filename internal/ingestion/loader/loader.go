// Package loader reads the batch input files (drug vocabulary, PubMed and
// clinical-trial records) from a data directory and applies the preprocessing
// steps: drug-name capitalization, scientific_title renaming, per-source
// title deduplication, and date parsing.
//
// Failures are terminal and carry the source name, file path, and offending
// value: a source whose parsing fails produces no record set rather than a
// partial one.
package loader

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/sciwatch/drug-mentions-platform/internal/dates"
	"github.com/sciwatch/drug-mentions-platform/internal/mentions/graph"
	apperrors "github.com/sciwatch/drug-mentions-platform/pkg/errors"
)

// Source describes one record source on disk: the files named
// <BaseName><ext> for each extension are loaded and concatenated.
type Source struct {
	Tag        string
	BaseName   string
	Extensions []string
}

// PubMed and ClinicalTrials are the two standard sources of the original
// data layout. PubMed records arrive both as CSV and as JSON.
var (
	PubMed = Source{
		Tag:        graph.SourcePubMed,
		BaseName:   "pubmed",
		Extensions: []string{".csv", ".json"},
	}
	ClinicalTrials = Source{
		Tag:        graph.SourceClinicalTrial,
		BaseName:   "clinical_trials",
		Extensions: []string{".csv"},
	}
)

// rawRecord is one row as it appears in the files, before preprocessing.
type rawRecord struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	ScientificTitle string `json:"scientific_title"`
	Date            string `json:"date"`
	Journal         string `json:"journal"`
}

// LoadDrugs reads the drug table {id, drug}, capitalizes the names, and
// drops duplicates while preserving file order.
func LoadDrugs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: drug table %s", apperrors.ErrMissingInput, path)
		}
		return nil, fmt.Errorf("opening drug table %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading drug table header %s: %v", apperrors.ErrUnsupportedFormat, path, err)
	}
	drugCol := -1
	for i, col := range header {
		if strings.TrimSpace(col) == "drug" {
			drugCol = i
		}
	}
	if drugCol < 0 {
		return nil, fmt.Errorf("%w: drug table %s has no 'drug' column", apperrors.ErrUnsupportedFormat, path)
	}

	seen := make(map[string]struct{})
	var drugs []string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading drug table %s: %v", apperrors.ErrMalformedRecord, path, err)
		}
		name := capitalize(strings.TrimSpace(row[drugCol]))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		drugs = append(drugs, name)
	}
	return drugs, nil
}

// LoadSource reads all files of a source from dataDir, renames
// scientific_title to title, drops duplicate titles (first occurrence wins),
// and parses dates. It fails with ErrMissingInput when none of the source's
// files exist.
func LoadSource(dataDir string, src Source) ([]graph.Record, error) {
	var raws []rawRecord
	var found bool
	for _, ext := range src.Extensions {
		path := filepath.Join(dataDir, src.BaseName+ext)
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("checking %s: %w", path, err)
		}
		found = true
		loaded, err := loadFile(path, ext)
		if err != nil {
			return nil, err
		}
		raws = append(raws, loaded...)
	}
	if !found {
		return nil, fmt.Errorf("%w: source %s has no input files under %s",
			apperrors.ErrMissingInput, src.Tag, dataDir)
	}
	return preprocess(raws, src)
}

// loadFile dispatches on extension.
func loadFile(path, ext string) ([]rawRecord, error) {
	switch ext {
	case ".csv":
		return loadCSV(path)
	case ".json":
		return loadJSON(path)
	default:
		return nil, fmt.Errorf("%w: %s has unexpected extension %s", apperrors.ErrUnsupportedFormat, path, ext)
	}
}

// loadCSV reads a record file with a header row. Required columns are date
// and journal, plus either title or scientific_title.
func loadCSV(path string) ([]rawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading header of %s: %v", apperrors.ErrUnsupportedFormat, path, err)
	}
	cols := make(map[string]int, len(header))
	for i, col := range header {
		cols[strings.TrimSpace(col)] = i
	}
	if _, ok := cols["title"]; !ok {
		if _, ok := cols["scientific_title"]; !ok {
			return nil, fmt.Errorf("%w: %s has neither 'title' nor 'scientific_title' column",
				apperrors.ErrUnsupportedFormat, path)
		}
	}
	for _, required := range []string{"date", "journal"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: %s is missing the %q column",
				apperrors.ErrUnsupportedFormat, path, required)
		}
	}

	field := func(row []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var records []rawRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", apperrors.ErrMalformedRecord, path, err)
		}
		records = append(records, rawRecord{
			ID:              field(row, "id"),
			Title:           field(row, "title"),
			ScientificTitle: field(row, "scientific_title"),
			Date:            field(row, "date"),
			Journal:         field(row, "journal"),
		})
	}
	return records, nil
}

// loadJSON reads either a JSON array of records or newline-delimited JSON,
// detected from the first non-space byte.
func loadJSON(path string) ([]rawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	trimmed := bytes.TrimLeftFunc(data, unicode.IsSpace)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var records []rawRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %v", apperrors.ErrMalformedRecord, path, err)
		}
		return records, nil
	}

	var records []rawRecord
	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec rawRecord
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, fmt.Errorf("%w: parsing %s line %d: %v", apperrors.ErrMalformedRecord, path, line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, nil
}

// preprocess renames scientific_title to title, drops duplicate titles
// keeping the first occurrence, validates required fields, and parses dates.
func preprocess(raws []rawRecord, src Source) ([]graph.Record, error) {
	seen := make(map[string]struct{}, len(raws))
	records := make([]graph.Record, 0, len(raws))
	for i, raw := range raws {
		title := raw.Title
		if title == "" {
			title = raw.ScientificTitle
		}
		if title == "" {
			return nil, fmt.Errorf("%w: source %s record %d (id=%q): empty title",
				apperrors.ErrMalformedRecord, src.Tag, i, raw.ID)
		}
		if raw.Journal == "" {
			return nil, fmt.Errorf("%w: source %s record %d (id=%q): empty journal",
				apperrors.ErrMalformedRecord, src.Tag, i, raw.ID)
		}
		if raw.Date == "" {
			return nil, fmt.Errorf("%w: source %s record %d (id=%q): empty date",
				apperrors.ErrMalformedRecord, src.Tag, i, raw.ID)
		}
		if _, dup := seen[title]; dup {
			continue
		}
		seen[title] = struct{}{}

		parsed, err := dates.Parse(raw.Date)
		if err != nil {
			return nil, fmt.Errorf("source %s record %d (id=%q): %w", src.Tag, i, raw.ID, err)
		}
		records = append(records, graph.Record{
			ID:      raw.ID,
			Title:   title,
			Journal: raw.Journal,
			Date:    parsed,
		})
	}
	return records, nil
}

// capitalize upper-cases the first rune and lower-cases the rest, matching
// the canonical form the vocabulary table is normalized to.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
