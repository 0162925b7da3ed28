package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/sciwatch/drug-mentions-platform/internal/ingestion"
	"github.com/sciwatch/drug-mentions-platform/internal/mentions/graph"
	"github.com/sciwatch/drug-mentions-platform/internal/mentions/matcher"
	apperrors "github.com/sciwatch/drug-mentions-platform/pkg/errors"
)

func newTestService(t *testing.T, drugs ...string) *Service {
	t.Helper()
	return NewService(matcher.NewVocabulary(drugs), nil)
}

func testRecord(title, journal string) graph.Record {
	return graph.Record{
		ID:      "1",
		Title:   title,
		Journal: journal,
		Date:    time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestServiceIndexAndSnapshot(t *testing.T) {
	svc := newTestService(t, "Aspirin", "Paracetamol")

	if err := svc.IndexRecord(testRecord("Aspirin trial", "J1"), graph.SourcePubMed); err != nil {
		t.Fatalf("IndexRecord: %v", err)
	}
	if err := svc.IndexRecord(testRecord("Aspirin and paracetamol study", "J2"), graph.SourceClinicalTrial); err != nil {
		t.Fatalf("IndexRecord: %v", err)
	}

	snap := svc.Snapshot()
	if got := snap.Drugs(); !reflect.DeepEqual(got, []string{"Aspirin", "Paracetamol"}) {
		t.Errorf("drugs = %v", got)
	}
	if n := len(snap["Aspirin"]["J1"][graph.SourcePubMed]); n != 1 {
		t.Errorf("Aspirin/J1/PubMed has %d mentions, want 1", n)
	}
	if n := len(snap["Aspirin"]["J2"][graph.SourceClinicalTrial]); n != 1 {
		t.Errorf("Aspirin/J2/Clinical Trial has %d mentions, want 1", n)
	}
	if snap.MentionCount() != 3 {
		t.Errorf("MentionCount = %d, want 3", snap.MentionCount())
	}
}

func TestServiceSnapshotIsolated(t *testing.T) {
	svc := newTestService(t, "Aspirin")
	if err := svc.IndexRecord(testRecord("Aspirin trial", "J1"), graph.SourcePubMed); err != nil {
		t.Fatal(err)
	}

	snap := svc.Snapshot()
	snap["Aspirin"]["J1"][graph.SourcePubMed][0].Title = "mutated"

	again := svc.Snapshot()
	if got := again["Aspirin"]["J1"][graph.SourcePubMed][0].Title; got != "Aspirin trial" {
		t.Errorf("service state mutated through snapshot: title = %q", got)
	}
}

func TestServiceSnapshotDeterministic(t *testing.T) {
	svc := newTestService(t, "Aspirin", "Betamethasone")
	if err := svc.IndexRecord(testRecord("Aspirin trial", "J1"), graph.SourcePubMed); err != nil {
		t.Fatal(err)
	}
	if err := svc.IndexRecord(testRecord("Betamethasone report", "J2"), graph.SourceClinicalTrial); err != nil {
		t.Fatal(err)
	}

	first, err := svc.Snapshot().MarshalIndented()
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Snapshot().MarshalIndented()
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Error("repeated snapshots of unchanged state differ")
	}
}

func TestServiceDirty(t *testing.T) {
	svc := newTestService(t, "Aspirin")
	if svc.Dirty() {
		t.Error("fresh service reports dirty")
	}

	// A record with no vocabulary match does not dirty the graph.
	if err := svc.IndexRecord(testRecord("Unrelated study", "J1"), graph.SourcePubMed); err != nil {
		t.Fatal(err)
	}
	if svc.Dirty() {
		t.Error("record without mentions marked the service dirty")
	}

	if err := svc.IndexRecord(testRecord("Aspirin trial", "J1"), graph.SourcePubMed); err != nil {
		t.Fatal(err)
	}
	if !svc.Dirty() {
		t.Error("indexed mention did not mark the service dirty")
	}
	svc.Snapshot()
	if svc.Dirty() {
		t.Error("snapshot did not clear the dirty flag")
	}
}

func TestHandleRecordEvent(t *testing.T) {
	svc := newTestService(t, "Aspirin")
	handler := HandleRecordEvent(svc, nil)

	payload, err := json.Marshal(ingestion.RecordEvent{
		RecordID: "42",
		Source:   ingestion.SourcePubMed,
		Title:    "Aspirin trial",
		Journal:  "J1",
		Date:     "2020-01-01",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := handler(context.Background(), []byte("pubmed"), payload); err != nil {
		t.Fatalf("handler: %v", err)
	}

	snap := svc.Snapshot()
	mentions := snap["Aspirin"]["J1"][graph.SourcePubMed]
	if len(mentions) != 1 || mentions[0].Date != "2020-01-01" {
		t.Errorf("mentions = %+v", mentions)
	}
}

func TestHandleRecordEventFailures(t *testing.T) {
	svc := newTestService(t, "Aspirin")
	handler := HandleRecordEvent(svc, nil)
	ctx := context.Background()

	if err := handler(ctx, nil, []byte("{not json")); !errors.Is(err, apperrors.ErrMalformedRecord) {
		t.Errorf("bad payload = %v, want ErrMalformedRecord", err)
	}

	event := func(mutate func(*ingestion.RecordEvent)) []byte {
		e := ingestion.RecordEvent{
			RecordID: "42",
			Source:   ingestion.SourcePubMed,
			Title:    "Aspirin trial",
			Journal:  "J1",
			Date:     "2020-01-01",
		}
		mutate(&e)
		payload, err := json.Marshal(e)
		if err != nil {
			t.Fatal(err)
		}
		return payload
	}

	err := handler(ctx, nil, event(func(e *ingestion.RecordEvent) { e.Source = "preprints" }))
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("unknown source = %v, want ErrInvalidInput", err)
	}

	err = handler(ctx, nil, event(func(e *ingestion.RecordEvent) { e.Date = "01/01/2020" }))
	if !errors.Is(err, apperrors.ErrDateFormat) {
		t.Errorf("non-ISO date = %v, want ErrDateFormat", err)
	}
}

func TestGraphSourceTag(t *testing.T) {
	tag, err := graphSourceTag(ingestion.SourceClinicalTrial)
	if err != nil || tag != graph.SourceClinicalTrial {
		t.Errorf("graphSourceTag = %q, %v", tag, err)
	}
}

func TestWriteSnapshotFile(t *testing.T) {
	svc := newTestService(t, "Aspirin")
	if err := svc.IndexRecord(testRecord("Aspirin trial", "J1"), graph.SourcePubMed); err != nil {
		t.Fatal(err)
	}
	snap := svc.Snapshot()

	path := filepath.Join(t.TempDir(), "outputs", "drug_mentions_graph.json")
	if err := WriteSnapshotFile(path, snap); err != nil {
		t.Fatalf("WriteSnapshotFile: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	loaded, err := graph.Decode(f)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(loaded, snap) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", loaded, snap)
	}
}
