package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/honeycarbs/dpe-match/internal/domain"
	"github.com/honeycarbs/dpe-match/internal/repository"
	pkgneo4j "github.com/honeycarbs/dpe-match/pkg/neo4j"
)

var _ repository.DecisionRepository = (*DecisionRepository)(nil)

// DefaultListLimit caps ListCandidates when no limit is given
const DefaultListLimit = 50

// DecisionRepository stores classifications as (:Parcel)-[:CANDIDATE]->(:Certificate)
type DecisionRepository struct {
	client *pkgneo4j.Client
}

// NewDecisionRepository creates a decision repository
func NewDecisionRepository(client *pkgneo4j.Client) *DecisionRepository {
	return &DecisionRepository{client: client}
}

// SaveClassification replaces the parcel's candidate edges with the qualified
// candidates of result
func (r *DecisionRepository) SaveClassification(ctx context.Context, desc domain.PropertyDescriptor, result domain.Classification) error {
	query := `
		MERGE (p:Parcel {key: $parcel.key})
		SET p.department = $parcel.department,
		    p.commune = $parcel.commune,
		    p.section = $parcel.section,
		    p.numero = $parcel.numero,
		    p.status = $status,
		    p.lastQueryId = $queryId,
		    p.lastEvaluatedAt = datetime({epochMillis: $evaluatedAt})
		WITH p
		OPTIONAL MATCH (p)-[old:CANDIDATE]->(:Certificate)
		DELETE old
		WITH DISTINCT p
		UNWIND $candidates AS cand
		MERGE (c:Certificate {id: cand.id})
		SET c.address = cand.address,
		    c.commune = cand.commune,
		    c.postalCode = cand.postalCode,
		    c.energyClass = cand.energyClass,
		    c.ghgClass = cand.ghgClass
		MERGE (p)-[e:CANDIDATE]->(c)
		SET e.score = cand.score,
		    e.exact = cand.exact,
		    e.rules = cand.rules,
		    e.queryId = $queryId,
		    e.evaluatedAt = datetime({epochMillis: $evaluatedAt})
	`

	_, err := r.client.Write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, classificationParams(desc, result))
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("neo4j: save classification %s: %w", result.QueryID, err)
	}
	return nil
}

// ListCandidates returns the stored candidates of a parcel, best first
func (r *DecisionRepository) ListCandidates(ctx context.Context, parcelKey string, limit int) ([]repository.StoredCandidate, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `
		MATCH (p:Parcel {key: $key})-[e:CANDIDATE]->(c:Certificate)
		RETURN c.id AS id, c.address AS address, c.commune AS commune,
		       c.postalCode AS postalCode, c.energyClass AS energyClass,
		       e.score AS score, e.exact AS exact, e.rules AS rules,
		       e.queryId AS queryId, e.evaluatedAt AS evaluatedAt
		ORDER BY e.score DESC, c.id
		LIMIT $limit
	`

	out, err := r.client.Read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"key": parcelKey, "limit": limit})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		stored := make([]repository.StoredCandidate, 0, len(records))
		for _, rec := range records {
			stored = append(stored, repository.StoredCandidate{
				CertificateID: getString(rec, "id"),
				Address:       getString(rec, "address"),
				Commune:       getString(rec, "commune"),
				PostalCode:    getString(rec, "postalCode"),
				EnergyClass:   getString(rec, "energyClass"),
				Score:         int(getInt(rec, "score")),
				Exact:         getBool(rec, "exact"),
				Rules:         getStringSlice(rec, "rules"),
				QueryID:       getString(rec, "queryId"),
				EvaluatedAt:   getTime(rec, "evaluatedAt"),
			})
		}
		return stored, nil
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j: list candidates %s: %w", parcelKey, err)
	}
	return out.([]repository.StoredCandidate), nil
}

func classificationParams(desc domain.PropertyDescriptor, result domain.Classification) map[string]any {
	desc = desc.Normalized()

	matchID := ""
	if result.Match != nil {
		matchID = result.Match.ID
	}

	candidates := make([]map[string]any, 0, len(result.Candidates))
	for _, sc := range result.Candidates {
		rules := make([]string, 0, len(sc.Breakdown))
		for _, h := range sc.Breakdown {
			rules = append(rules, h.Rule)
		}
		candidates = append(candidates, map[string]any{
			"id":          sc.Record.ID,
			"address":     sc.Record.Address,
			"commune":     sc.Record.Commune,
			"postalCode":  sc.Record.PostalCode,
			"energyClass": sc.Record.EnergyClass.String(),
			"ghgClass":    sc.Record.GHGClass.String(),
			"score":       sc.Score,
			"exact":       result.HasExactMatch && sc.Record.ID == matchID,
			"rules":       rules,
		})
	}

	return map[string]any{
		"parcel": map[string]any{
			"key":        desc.ParcelKey(),
			"department": desc.Department,
			"commune":    desc.Commune,
			"section":    desc.Section,
			"numero":     desc.Numero,
		},
		"status":      result.Status(),
		"queryId":     result.QueryID.String(),
		"evaluatedAt": result.Diagnostics.EvaluatedAt.UnixMilli(),
		"candidates":  candidates,
	}
}
