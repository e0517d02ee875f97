package mcp

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/honeycarbs/dpe-match/internal/app"
	"github.com/honeycarbs/dpe-match/internal/mcp/tools"
)

// registerTools wires every matching tool into the MCP server
func registerTools(s *sdkmcp.Server, res *app.Resources) {
	tools.Register(s, res.Logger, res.Metrics,
		tools.WithClassify(res.Classifier, res.Decisions),
		tools.WithNearby(res.Proximity),
		tools.WithExport(res.Classifier, res.Exporter),
		tools.WithGraphTool(res.Graph, res.Decisions),
	)
}
