package repository

import (
	"context"
	"errors"
	"time"

	"github.com/honeycarbs/dpe-match/internal/domain"
)

// ErrPersistenceDisabled is returned by reads when no graph database is configured
var ErrPersistenceDisabled = errors.New("repository: persistence is not configured")

// StoredCandidate is one persisted candidate edge of a parcel
type StoredCandidate struct {
	CertificateID string    `json:"certificate_id"`
	Address       string    `json:"address"`
	Commune       string    `json:"commune"`
	PostalCode    string    `json:"postal_code"`
	EnergyClass   string    `json:"energy_class"`
	Score         int       `json:"score"`
	Exact         bool      `json:"exact"`
	Rules         []string  `json:"rules"`
	QueryID       string    `json:"query_id"`
	EvaluatedAt   time.Time `json:"evaluated_at"`
}

// DecisionRepository keeps classification outcomes for human arbitration
type DecisionRepository interface {
	SaveClassification(ctx context.Context, desc domain.PropertyDescriptor, result domain.Classification) error
	ListCandidates(ctx context.Context, parcelKey string, limit int) ([]StoredCandidate, error)
}

// GraphResult is a tabular view of a read-only graph query
type GraphResult struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// GraphInspector runs read-only queries for diagnostics
type GraphInspector interface {
	Inspect(ctx context.Context, cypher string, params map[string]any, limit int) (GraphResult, error)
}

// NoopDecisionRepository drops writes and refuses reads
type NoopDecisionRepository struct{}

var (
	_ DecisionRepository = NoopDecisionRepository{}
	_ GraphInspector     = NoopDecisionRepository{}
)

func (NoopDecisionRepository) SaveClassification(context.Context, domain.PropertyDescriptor, domain.Classification) error {
	return nil
}

func (NoopDecisionRepository) ListCandidates(context.Context, string, int) ([]StoredCandidate, error) {
	return nil, ErrPersistenceDisabled
}

func (NoopDecisionRepository) Inspect(context.Context, string, map[string]any, int) (GraphResult, error) {
	return GraphResult{}, ErrPersistenceDisabled
}
