// Package export writes ranked candidates to a spreadsheet for human arbitration
package export

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/honeycarbs/dpe-match/internal/domain"
)

// ErrExportDisabled is returned when no spreadsheet is configured
var ErrExportDisabled = errors.New("export: spreadsheet export is not configured")

// Header is the first row of every export
var Header = []any{"query_id", "rank", "certificate_id", "address", "commune", "postal_code", "energy_class", "ghg_class", "score", "exact", "rules", "established_at", "distance_m"}

// RowWriter replaces a tab with a header and rows
type RowWriter interface {
	WriteRows(ctx context.Context, spreadsheetID, tab string, header []any, rows [][]any) error
}

// Result describes a finished export
type Result struct {
	SpreadsheetID string    `json:"spreadsheet_id"`
	Tab           string    `json:"tab"`
	WrittenRows   int       `json:"written_rows"`
	CompletedAt   time.Time `json:"completed_at"`
	Message       string    `json:"message"`
}

// Exporter publishes a classification
type Exporter interface {
	ExportClassification(ctx context.Context, result domain.Classification, tab string) (Result, error)
}

// SheetsExporter writes classifications to one Google spreadsheet
type SheetsExporter struct {
	writer        RowWriter
	spreadsheetID string
	defaultTab    string
	clock         func() time.Time
}

var _ Exporter = (*SheetsExporter)(nil)

func NewSheetsExporter(writer RowWriter, spreadsheetID, defaultTab string) (*SheetsExporter, error) {
	if writer == nil {
		return nil, fmt.Errorf("export: writer is required")
	}
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, fmt.Errorf("export: spreadsheet id is required")
	}
	if defaultTab == "" {
		defaultTab = "Candidates"
	}
	return &SheetsExporter{writer: writer, spreadsheetID: spreadsheetID, defaultTab: defaultTab, clock: time.Now}, nil
}

// ExportClassification overwrites tab with the ranked candidates. An empty tab
// uses the configured default
func (e *SheetsExporter) ExportClassification(ctx context.Context, result domain.Classification, tab string) (Result, error) {
	if tab == "" {
		tab = e.defaultTab
	}
	out := Result{SpreadsheetID: e.spreadsheetID, Tab: tab}

	rows := Rows(result)
	if err := e.writer.WriteRows(ctx, e.spreadsheetID, tab, Header, rows); err != nil {
		return out, fmt.Errorf("export: write %d row(s): %w", len(rows), err)
	}

	out.WrittenRows = len(rows)
	out.CompletedAt = e.clock().UTC()
	out.Message = fmt.Sprintf("exported %d candidate(s), status %s", len(rows), result.Status())
	return out, nil
}

// Rows renders the candidates of result, best first
func Rows(result domain.Classification) [][]any {
	matchID := ""
	if result.Match != nil {
		matchID = result.Match.ID
	}

	rows := make([][]any, 0, len(result.Candidates))
	for i, sc := range result.Candidates {
		rules := make([]string, 0, len(sc.Breakdown))
		for _, h := range sc.Breakdown {
			rules = append(rules, h.Rule)
		}

		established := ""
		if !sc.Record.EstablishedAt.IsZero() {
			established = sc.Record.EstablishedAt.Format("2006-01-02")
		}
		distance := ""
		if sc.DistanceMeters != nil {
			distance = fmt.Sprintf("%.0f", *sc.DistanceMeters)
		}

		rows = append(rows, []any{
			result.QueryID.String(),
			i + 1,
			sc.Record.ID,
			sc.Record.Address,
			sc.Record.Commune,
			sc.Record.PostalCode,
			sc.Record.EnergyClass.String(),
			sc.Record.GHGClass.String(),
			sc.Score,
			result.HasExactMatch && sc.Record.ID == matchID,
			strings.Join(rules, ","),
			established,
			distance,
		})
	}
	return rows
}

// Disabled is the Exporter used when no spreadsheet is configured
type Disabled struct{}

func (Disabled) ExportClassification(context.Context, domain.Classification, string) (Result, error) {
	return Result{}, ErrExportDisabled
}
