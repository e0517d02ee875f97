package tools

import (
	"context"
	"errors"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/honeycarbs/dpe-match/internal/export"
)

// ExportParams defines the arguments for the dpe_export tool
type ExportParams struct {
	Department string   `json:"department" jsonschema:"Department code, e.g. 75 or 2A"`
	Commune    string   `json:"commune,omitempty" jsonschema:"Commune name"`
	Section    string   `json:"section,omitempty" jsonschema:"Cadastral section"`
	Numero     string   `json:"numero,omitempty" jsonschema:"Cadastral parcel number"`
	Lat        *float64 `json:"lat,omitempty" jsonschema:"Parcel latitude"`
	Lon        *float64 `json:"lon,omitempty" jsonschema:"Parcel longitude"`
	Tab        string   `json:"tab,omitempty" jsonschema:"Sheet tab to overwrite (defaults to the configured tab)"`
}

type exportHandler struct {
	classifier Classifier
	exporter   export.Exporter
}

// WithExport registers the dpe_export tool
func WithExport(classifier Classifier, exporter export.Exporter) Option {
	return func(reg *registry) {
		if absent(classifier) {
			reg.logger.Warn("dpe_export not registered: classifier not configured")
			return
		}
		if absent(exporter) {
			exporter = export.Disabled{}
		}
		h := &exportHandler{classifier: classifier, exporter: exporter}
		sdkmcp.AddTool(reg.server, &sdkmcp.Tool{
			Name:        "dpe_export",
			Description: "Classify a parcel and write its ranked candidates to Google Sheets for review",
		}, instrument(reg, "dpe_export", h.handle))
	}
}

func (h *exportHandler) handle(ctx context.Context, _ *sdkmcp.CallToolRequest, params ExportParams) (*sdkmcp.CallToolResult, any, error) {
	desc, err := descriptorFrom(params.Department, params.Commune, params.Section, params.Numero, params.Lat, params.Lon)
	if err != nil {
		return nil, nil, err
	}

	classification, err := h.classifier.ClassifyExactMatch(ctx, desc)
	if err != nil {
		return nil, nil, err
	}

	result, err := h.exporter.ExportClassification(ctx, classification, params.Tab)
	if err != nil {
		if errors.Is(err, export.ErrExportDisabled) {
			return textResult("dpe_export unavailable: no spreadsheet configured"), nil, err
		}
		return nil, nil, err
	}

	summary := fmt.Sprintf("[dpe_export] %s to %s/%s", result.Message, result.SpreadsheetID, result.Tab)
	return textResult(summary), result, nil
}
