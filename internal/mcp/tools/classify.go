package tools

import (
	"context"
	"errors"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/honeycarbs/dpe-match/internal/domain"
	"github.com/honeycarbs/dpe-match/internal/domain/matching"
	"github.com/honeycarbs/dpe-match/internal/repository"
	"github.com/honeycarbs/dpe-match/pkg/logging"
)

// DefaultMaxCandidates bounds the candidate list returned to the client
const DefaultMaxCandidates = 10

// Classifier decides whether a certificate is THE match for a parcel
type Classifier interface {
	ClassifyExactMatch(ctx context.Context, desc domain.PropertyDescriptor) (domain.Classification, error)
}

// ClassifyParams defines the arguments for the dpe_classify tool
type ClassifyParams struct {
	Department    string   `json:"department" jsonschema:"Department code, e.g. 75 or 2A"`
	Commune       string   `json:"commune,omitempty" jsonschema:"Commune name"`
	Section       string   `json:"section,omitempty" jsonschema:"Cadastral section, e.g. AB"`
	Numero        string   `json:"numero,omitempty" jsonschema:"Cadastral parcel number, e.g. 0012"`
	Lat           *float64 `json:"lat,omitempty" jsonschema:"Parcel latitude, used for display distances"`
	Lon           *float64 `json:"lon,omitempty" jsonschema:"Parcel longitude, used for display distances"`
	MaxCandidates int      `json:"max_candidates,omitempty" jsonschema:"How many ranked candidates to return (default 10)"`
	Persist       bool     `json:"persist,omitempty" jsonschema:"Store the outcome in the graph for arbitration"`
}

// ClassifyResult is the payload returned by dpe_classify
type ClassifyResult struct {
	QueryID        string                    `json:"query_id"`
	Status         string                    `json:"status"`
	HasExactMatch  bool                      `json:"has_exact_match"`
	Match          *domain.CertificateRecord `json:"match,omitempty"`
	MatchScore     int                       `json:"match_score,omitempty"`
	CandidateCount int                       `json:"candidate_count"`
	Candidates     []domain.ScoredCandidate  `json:"candidates"`
	Explanations   []string                  `json:"explanations"`
	Diagnostics    domain.Diagnostics        `json:"diagnostics"`
	Persisted      bool                      `json:"persisted"`
	PersistError   string                    `json:"persist_error,omitempty"`
}

type classifyHandler struct {
	classifier Classifier
	decisions  repository.DecisionRepository
	logger     *logging.Logger
}

// WithClassify registers the dpe_classify tool
func WithClassify(classifier Classifier, decisions repository.DecisionRepository) Option {
	return func(reg *registry) {
		if absent(classifier) {
			reg.logger.Warn("dpe_classify not registered: classifier not configured")
			return
		}
		if absent(decisions) {
			decisions = repository.NoopDecisionRepository{}
		}
		h := &classifyHandler{classifier: classifier, decisions: decisions, logger: reg.logger}
		sdkmcp.AddTool(reg.server, &sdkmcp.Tool{
			Name:        "dpe_classify",
			Description: "Find the energy performance certificate of a cadastral parcel and say whether one is an exact match",
		}, instrument(reg, "dpe_classify", h.handle))
	}
}

func (h *classifyHandler) handle(ctx context.Context, _ *sdkmcp.CallToolRequest, params ClassifyParams) (*sdkmcp.CallToolResult, any, error) {

	desc, err := descriptorFrom(params.Department, params.Commune, params.Section, params.Numero, params.Lat, params.Lon)
	if err != nil {
		return nil, nil, err
	}

	classification, err := h.classifier.ClassifyExactMatch(ctx, desc)
	if err != nil {
		if errors.Is(err, matching.ErrMissingDepartment) {
			return nil, nil, fmt.Errorf("department is required")
		}
		return nil, nil, err
	}

	out := buildClassifyResult(classification, params.MaxCandidates)

	if params.Persist {
		if err := h.decisions.SaveClassification(ctx, desc, classification); err != nil {
			h.logger.Warn("failed to persist classification", "query_id", out.QueryID, "err", err)
			out.PersistError = err.Error()
		} else {
			out.Persisted = true
		}
	}

	summary := fmt.Sprintf("[dpe_classify] %s: %d candidate(s) from %d record(s)", out.Status, len(classification.Candidates), out.CandidateCount)
	if out.Match != nil {
		summary = fmt.Sprintf("[dpe_classify] exact match %s (score %d) among %d record(s)", out.Match.ID, out.MatchScore, out.CandidateCount)
	}

	res, err := jsonResult(summary, out)
	if err != nil {
		return nil, nil, err
	}
	return res, out, nil
}

func buildClassifyResult(c domain.Classification, limit int) ClassifyResult {
	if limit <= 0 {
		limit = DefaultMaxCandidates
	}
	candidates := c.Candidates
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	explanations := make([]string, 0, len(candidates))
	for _, sc := range candidates {
		explanations = append(explanations, matching.Explain(sc))
	}

	return ClassifyResult{
		QueryID:        c.QueryID.String(),
		Status:         c.Status(),
		HasExactMatch:  c.HasExactMatch,
		Match:          c.Match,
		MatchScore:     c.MatchScore,
		CandidateCount: c.CandidateCount,
		Candidates:     candidates,
		Explanations:   explanations,
		Diagnostics:    c.Diagnostics,
	}
}

func descriptorFrom(department, commune, section, numero string, lat, lon *float64) (domain.PropertyDescriptor, error) {
	desc := domain.PropertyDescriptor{
		Department: department,
		Commune:    commune,
		Section:    section,
		Numero:     numero,
	}
	switch {
	case lat != nil && lon != nil:
		desc.Target = &domain.Coordinate{Lat: *lat, Lon: *lon}
	case lat != nil || lon != nil:
		return desc, errors.New("lat and lon must be given together")
	}
	return desc, nil
}
