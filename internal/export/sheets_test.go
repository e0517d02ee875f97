package export

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/honeycarbs/dpe-match/internal/domain"
)

type recordingWriter struct {
	tab    string
	header []any
	rows   [][]any
	err    error
}

func (w *recordingWriter) WriteRows(_ context.Context, _, tab string, header []any, rows [][]any) error {
	w.tab, w.header, w.rows = tab, header, rows
	return w.err
}

func classification() domain.Classification {
	match := domain.CertificateRecord{ID: "A1", Address: "12 rue AB", EnergyClass: domain.ClassD, EstablishedAt: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)}
	d := 42.4
	return domain.Classification{
		HasExactMatch: true,
		Match:         &match,
		Candidates: []domain.ScoredCandidate{
			{Record: match, Score: 95, Breakdown: []domain.RuleHit{{Rule: "department"}, {Rule: "commune"}}, DistanceMeters: &d},
			{Record: domain.CertificateRecord{ID: "B2"}, Score: 80},
		},
	}
}

func TestExportClassification(t *testing.T) {
	w := &recordingWriter{}
	exp, err := NewSheetsExporter(w, "sheet-1", "")
	if err != nil {
		t.Fatalf("NewSheetsExporter: %v", err)
	}

	res, err := exp.ExportClassification(context.Background(), classification(), "")
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	if w.tab != "Candidates" || res.Tab != "Candidates" {
		t.Fatalf("tab = %q / %q", w.tab, res.Tab)
	}
	if res.WrittenRows != 2 || len(w.rows) != 2 {
		t.Fatalf("rows = %d", res.WrittenRows)
	}
	first := w.rows[0]
	if first[2] != "A1" || first[6] != "D" || first[9] != true || first[10] != "department,commune" || first[11] != "2025-03-02" || first[12] != "42" {
		t.Fatalf("first row = %v", first)
	}
	if w.rows[1][9] != false || w.rows[1][11] != "" {
		t.Fatalf("second row = %v", w.rows[1])
	}
	if len(w.header) != len(first) {
		t.Fatalf("header has %d columns, rows have %d", len(w.header), len(first))
	}
}

func TestExportWrapsWriterError(t *testing.T) {
	boom := errors.New("quota exceeded")
	exp, _ := NewSheetsExporter(&recordingWriter{err: boom}, "sheet-1", "Arbitration")

	res, err := exp.ExportClassification(context.Background(), classification(), "")

	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if res.WrittenRows != 0 || res.Tab != "Arbitration" {
		t.Fatalf("res = %+v", res)
	}
}

func TestNewSheetsExporterValidation(t *testing.T) {
	if _, err := NewSheetsExporter(nil, "x", ""); err == nil {
		t.Fatal("expected error for nil writer")
	}
	if _, err := NewSheetsExporter(&recordingWriter{}, " ", ""); err == nil {
		t.Fatal("expected error for blank spreadsheet id")
	}
}

func TestDisabled(t *testing.T) {
	if _, err := (Disabled{}).ExportClassification(context.Background(), domain.Classification{}, ""); !errors.Is(err, ErrExportDisabled) {
		t.Fatalf("err = %v", err)
	}
}
