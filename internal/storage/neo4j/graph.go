package neo4j

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/honeycarbs/dpe-match/internal/repository"
	pkgneo4j "github.com/honeycarbs/dpe-match/pkg/neo4j"
)

var _ repository.GraphInspector = (*GraphInspector)(nil)

// MaxInspectRows caps rows returned by Inspect
const MaxInspectRows = 200

// ErrEmptyQuery is returned when Inspect receives no Cypher
var ErrEmptyQuery = errors.New("neo4j: cypher query is required")

// GraphInspector runs caller-supplied Cypher in read transactions
type GraphInspector struct {
	client *pkgneo4j.Client
}

func NewGraphInspector(client *pkgneo4j.Client) *GraphInspector {
	return &GraphInspector{client: client}
}

// Inspect runs cypher in a read transaction and returns at most limit rows;
// the server rejects writes in read access mode
func (g *GraphInspector) Inspect(ctx context.Context, cypher string, params map[string]any, limit int) (repository.GraphResult, error) {
	if strings.TrimSpace(cypher) == "" {
		return repository.GraphResult{}, ErrEmptyQuery
	}
	if limit <= 0 || limit > MaxInspectRows {
		limit = MaxInspectRows
	}

	out, err := g.client.Read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		keys, err := res.Keys()
		if err != nil {
			return nil, err
		}

		result := repository.GraphResult{Columns: keys, Rows: make([]map[string]any, 0)}
		for len(result.Rows) < limit && res.Next(ctx) {
			rec := res.Record()
			row := make(map[string]any, len(rec.Keys))
			for i, k := range rec.Keys {
				row[k] = plainValue(rec.Values[i])
			}
			result.Rows = append(result.Rows, row)
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return result, nil
	})
	if err != nil {
		return repository.GraphResult{}, fmt.Errorf("neo4j: inspect: %w", err)
	}
	return out.(repository.GraphResult), nil
}
