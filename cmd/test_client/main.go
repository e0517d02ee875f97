package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// Place de la Bastille, Paris 11e
	testPostalCode = "75011"
	testLat        = 48.8532
	testLon        = 2.3692
)

func main() {
	endpoint := flag.String("endpoint", "http://localhost:8080/mcp/stream", "MCP streamable HTTP endpoint")
	withGraph := flag.Bool("graph", false, "also exercise graph_tool (requires Neo4j)")
	flag.Parse()

	ctx := context.Background()

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "dpe-match-test-client",
		Version: "0.1.0",
	}, nil)

	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{
		Endpoint: *endpoint,
	}, nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer func() { _ = session.Close() }()

	log.Printf("Connected to server (session ID: %s)\n", session.ID())

	testListTools(ctx, session)
	testClassify(ctx, session)
	testNearby(ctx, session)
	if *withGraph {
		testGraphTool(ctx, session)
	}

	fmt.Println("\nAll tests completed")
}

func testListTools(ctx context.Context, session *mcp.ClientSession) {
	fmt.Println("\nTEST: list tools")

	tools, err := session.ListTools(ctx, nil)
	if err != nil {
		log.Printf("list tools failed: %v", err)
		return
	}
	for _, tool := range tools.Tools {
		fmt.Printf("  %s: %s\n", tool.Name, tool.Description)
	}
}

func testClassify(ctx context.Context, session *mcp.ClientSession) {
	fmt.Println("\nTEST: dpe_classify")

	// Test 1: full parcel descriptor
	fmt.Println("\n  Test 1: parcel with commune, section and numero")
	call(ctx, session, "dpe_classify", map[string]any{
		"department": "75",
		"commune":    "Paris",
		"section":    "AB",
		"numero":     "0012",
		"lat":        testLat,
		"lon":        testLon,
	})

	// Test 2: department only, candidates without a commune gate
	fmt.Println("\n  Test 2: department only")
	call(ctx, session, "dpe_classify", map[string]any{
		"department":     "2A",
		"max_candidates": 3,
	})

	// Test 3: missing department is rejected before any upstream call
	fmt.Println("\n  Test 3: missing department")
	call(ctx, session, "dpe_classify", map[string]any{
		"department": "",
		"commune":    "Lyon",
	})
}

func testNearby(ctx context.Context, session *mcp.ClientSession) {
	fmt.Println("\nTEST: dpe_nearby")

	call(ctx, session, "dpe_nearby", map[string]any{
		"postal_code": testPostalCode,
		"lat":         testLat,
		"lon":         testLon,
		"limit":       5,
	})
}

func testGraphTool(ctx context.Context, session *mcp.ClientSession) {
	fmt.Println("\nTEST: graph_tool")

	fmt.Println("\n  Test 1: default label counts")
	call(ctx, session, "graph_tool", map[string]any{})

	fmt.Println("\n  Test 2: stored candidates of a parcel")
	call(ctx, session, "graph_tool", map[string]any{
		"department": "75",
		"commune":    "Paris",
		"section":    "AB",
		"numero":     "0012",
	})
}

func call(ctx context.Context, session *mcp.ClientSession, name string, args map[string]any) {
	result, err := session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		log.Printf("%s failed: %v", name, err)
		return
	}
	if result.IsError {
		fmt.Printf("%s returned a tool error:\n", name)
	}
	printResult(result)
}

func printResult(res *mcp.CallToolResult) {
	for _, c := range res.Content {
		if txt, ok := c.(*mcp.TextContent); ok {
			fmt.Println(txt.Text)
		}
	}
}
