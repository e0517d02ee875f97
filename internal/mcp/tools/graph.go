package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/honeycarbs/dpe-match/internal/domain"
	"github.com/honeycarbs/dpe-match/internal/repository"
)

const defaultGraphQuery = `MATCH (n) RETURN labels(n) AS labels, count(n) AS count ORDER BY count DESC`

// GraphToolParams defines the arguments for the graph_tool tool
type GraphToolParams struct {
	Cypher     string         `json:"cypher,omitempty" jsonschema:"Read-only Cypher query to run"`
	Params     map[string]any `json:"params,omitempty" jsonschema:"Query parameters"`
	Department string         `json:"department,omitempty" jsonschema:"With commune, section and numero: list the stored candidates of that parcel"`
	Commune    string         `json:"commune,omitempty"`
	Section    string         `json:"section,omitempty"`
	Numero     string         `json:"numero,omitempty"`
	Limit      int            `json:"limit,omitempty" jsonschema:"Maximum rows returned"`
}

type graphToolHandler struct {
	inspector repository.GraphInspector
	decisions repository.DecisionRepository
}

// WithGraphTool registers the graph_tool
func WithGraphTool(inspector repository.GraphInspector, decisions repository.DecisionRepository) Option {
	return func(reg *registry) {
		if absent(inspector) {
			inspector = repository.NoopDecisionRepository{}
		}
		if absent(decisions) {
			decisions = repository.NoopDecisionRepository{}
		}
		h := &graphToolHandler{inspector: inspector, decisions: decisions}
		sdkmcp.AddTool(reg.server, &sdkmcp.Tool{
			Name:        "graph_tool",
			Description: "Developer tool for inspecting stored parcels and candidate decisions in Neo4j",
		}, instrument(reg, "graph_tool", h.handle))
	}
}

func (h *graphToolHandler) handle(ctx context.Context, _ *sdkmcp.CallToolRequest, params GraphToolParams) (*sdkmcp.CallToolResult, any, error) {
	if params.Cypher == "" && params.Department != "" {
		key := domain.PropertyDescriptor{
			Department: params.Department,
			Commune:    params.Commune,
			Section:    params.Section,
			Numero:     params.Numero,
		}.ParcelKey()

		stored, err := h.decisions.ListCandidates(ctx, key, params.Limit)
		if err != nil {
			return nil, nil, err
		}
		res, err := jsonResult(fmt.Sprintf("[graph_tool] %d stored candidate(s) for parcel %s", len(stored), key), stored)
		if err != nil {
			return nil, nil, err
		}
		return res, stored, nil
	}

	query := strings.TrimSpace(params.Cypher)
	if query == "" {
		query = defaultGraphQuery
	}

	result, err := h.inspector.Inspect(ctx, query, params.Params, params.Limit)
	if err != nil {
		if errors.Is(err, repository.ErrPersistenceDisabled) {
			return textResult("graph_tool unavailable: Neo4j client not configured"), nil, err
		}
		return nil, nil, err
	}

	res, err := jsonResult(fmt.Sprintf("[graph_tool] %d row(s), columns %v", len(result.Rows), result.Columns), result)
	if err != nil {
		return nil, nil, err
	}
	return res, result, nil
}
