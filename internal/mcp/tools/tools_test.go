package tools

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/honeycarbs/dpe-match/internal/domain"
	"github.com/honeycarbs/dpe-match/internal/domain/matching"
	"github.com/honeycarbs/dpe-match/internal/export"
	"github.com/honeycarbs/dpe-match/internal/repository"
	"github.com/honeycarbs/dpe-match/pkg/logging"
	"github.com/honeycarbs/dpe-match/pkg/metrics"
)

type fakeClassifier struct {
	result domain.Classification
	err    error
	got    domain.PropertyDescriptor
}

func (f *fakeClassifier) ClassifyExactMatch(_ context.Context, desc domain.PropertyDescriptor) (domain.Classification, error) {
	f.got = desc
	return f.result, f.err
}

type fakeDecisions struct {
	saved  int
	err    error
	listed string
	stored []repository.StoredCandidate
}

func (f *fakeDecisions) SaveClassification(context.Context, domain.PropertyDescriptor, domain.Classification) error {
	f.saved++
	return f.err
}

func (f *fakeDecisions) ListCandidates(_ context.Context, key string, _ int) ([]repository.StoredCandidate, error) {
	f.listed = key
	return f.stored, nil
}

type fakeInspector struct {
	query string
}

func (f *fakeInspector) Inspect(_ context.Context, cypher string, _ map[string]any, _ int) (repository.GraphResult, error) {
	f.query = cypher
	return repository.GraphResult{Columns: []string{"count"}, Rows: []map[string]any{{"count": 3}}}, nil
}

type fakeSearcher struct {
	limit int
}

func (f *fakeSearcher) Nearby(_ context.Context, target domain.Coordinate, _ string, limit int) (domain.ProximityResult, error) {
	f.limit = limit
	return domain.ProximityResult{
		Target:     target,
		Returned:   2,
		Candidates: []domain.DistancedCandidate{{Record: domain.CertificateRecord{ID: "N1"}, DistanceMeters: 12.4}},
		Excluded:   []domain.Exclusion{{CertificateID: "N2", Reason: "no coordinates"}},
	}, nil
}

type fakeExporter struct {
	tab string
}

func (f *fakeExporter) ExportClassification(_ context.Context, c domain.Classification, tab string) (export.Result, error) {
	f.tab = tab
	return export.Result{SpreadsheetID: "sheet-1", Tab: tab, WrittenRows: len(c.Candidates), Message: "exported"}, nil
}

func exactClassification() domain.Classification {
	match := domain.CertificateRecord{ID: "2375E1", Department: "75", Commune: "Paris"}
	return domain.Classification{
		QueryID:        uuid.New(),
		HasExactMatch:  true,
		Match:          &match,
		MatchScore:     100,
		CandidateCount: 3,
		Candidates: []domain.ScoredCandidate{
			{Record: match, Score: 100, Breakdown: []domain.RuleHit{{Rule: "department", Points: 40}}},
			{Record: domain.CertificateRecord{ID: "2375E2"}, Score: 80},
		},
		Diagnostics: domain.Diagnostics{EvaluatedAt: time.Now()},
	}
}

func connect(t *testing.T, m *metrics.Manager, opts ...Option) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := sdkmcp.NewServer(&sdkmcp.Implementation{Name: "dpe-match-test", Version: "v0"}, nil)
	Register(server, nil, m, opts...)

	ct, st := sdkmcp.NewInMemoryTransports()
	if _, err := server.Connect(ctx, st, nil); err != nil {
		t.Fatalf("server connect: %v", err)
	}
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "client", Version: "v0"}, nil)
	session, err := client.Connect(ctx, ct, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func text(res *sdkmcp.CallToolResult) string {
	var b strings.Builder
	for _, c := range res.Content {
		if txt, ok := c.(*sdkmcp.TextContent); ok {
			b.WriteString(txt.Text)
		}
	}
	return b.String()
}

func toolCalls(t *testing.T, m *metrics.Manager, tool, outcome string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() != "dpe_mcp_tool_calls_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			labels := map[string]string{}
			for _, l := range metric.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["tool"] == tool && labels["outcome"] == outcome {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestToolsOverMCP(t *testing.T) {
	m := metrics.NewManager()
	classifier := &fakeClassifier{result: exactClassification()}
	decisions := &fakeDecisions{}
	session := connect(t, m,
		WithClassify(classifier, decisions),
		WithNearby(&fakeSearcher{}),
		WithExport(classifier, &fakeExporter{}),
		WithGraphTool(&fakeInspector{}, decisions),
	)
	ctx := context.Background()

	tools, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	names := map[string]bool{}
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"dpe_classify", "dpe_nearby", "dpe_export", "graph_tool"} {
		if !names[want] {
			t.Errorf("tool %s not registered", want)
		}
	}

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "dpe_classify",
		Arguments: map[string]any{"department": "75", "commune": "Paris", "section": "AB", "numero": "001", "persist": true},
	})
	if err != nil {
		t.Fatalf("call dpe_classify: %v", err)
	}
	if res.IsError {
		t.Fatalf("dpe_classify returned error: %s", text(res))
	}
	if !strings.Contains(text(res), "exact match 2375E1 (score 100)") {
		t.Fatalf("unexpected text: %s", text(res))
	}
	if classifier.got.Section != "AB" || decisions.saved != 1 {
		t.Fatalf("descriptor %+v, saved %d", classifier.got, decisions.saved)
	}
	if got := toolCalls(t, m, "dpe_classify", metrics.OutcomeSuccess); got != 1 {
		t.Fatalf("tool call metric = %v", got)
	}

	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "dpe_nearby",
		Arguments: map[string]any{"postal_code": "75011", "lat": 48.85, "lon": 2.37},
	})
	if err != nil {
		t.Fatalf("call dpe_nearby: %v", err)
	}
	if !strings.Contains(text(res), "2 records returned, 1 had usable coordinates; nearest N1 at 12 m") {
		t.Fatalf("unexpected text: %s", text(res))
	}
}

func TestUnconfiguredDependencies(t *testing.T) {
	var classifier *fakeClassifier
	var searcher *fakeSearcher
	var decisions *fakeDecisions
	session := connect(t, metrics.NewManager(),
		WithClassify(classifier, decisions),
		WithNearby(searcher),
		WithExport(classifier, nil),
		WithGraphTool(nil, decisions),
	)
	ctx := context.Background()

	tools, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	if len(tools.Tools) != 1 || tools.Tools[0].Name != "graph_tool" {
		names := []string{}
		for _, tool := range tools.Tools {
			names = append(names, tool.Name)
		}
		t.Fatalf("registered tools = %v, want only graph_tool", names)
	}

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "graph_tool", Arguments: map[string]any{}})
	if err != nil {
		t.Fatalf("call graph_tool: %v", err)
	}
	if !res.IsError || !strings.Contains(text(res), repository.ErrPersistenceDisabled.Error()) {
		t.Fatalf("graph_tool = %v %q", res.IsError, text(res))
	}
}

func TestClassifyHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("persist failure keeps the classification", func(t *testing.T) {
		h := &classifyHandler{
			classifier: &fakeClassifier{result: exactClassification()},
			decisions:  &fakeDecisions{err: errors.New("neo4j down")},
			logger:     logging.NewNop(),
		}

		_, out, err := h.handle(ctx, nil, ClassifyParams{Department: "75", Persist: true, MaxCandidates: 1})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		result := out.(ClassifyResult)
		if result.Persisted || result.PersistError != "neo4j down" {
			t.Fatalf("persist state = %v / %q", result.Persisted, result.PersistError)
		}
		if len(result.Candidates) != 1 || len(result.Explanations) != 1 || result.CandidateCount != 3 {
			t.Fatalf("candidates were not truncated: %+v", result)
		}
	})

	t.Run("missing department", func(t *testing.T) {
		h := &classifyHandler{classifier: &fakeClassifier{err: matching.ErrMissingDepartment}, decisions: repository.NoopDecisionRepository{}, logger: logging.NewNop()}

		_, _, err := h.handle(ctx, nil, ClassifyParams{Commune: "Paris"})
		if err == nil || err.Error() != "department is required" {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("half a coordinate", func(t *testing.T) {
		lat := 48.8
		h := &classifyHandler{classifier: &fakeClassifier{}, decisions: repository.NoopDecisionRepository{}, logger: logging.NewNop()}

		_, _, err := h.handle(ctx, nil, ClassifyParams{Department: "75", Lat: &lat})
		if err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestNearbyHandlerValidation(t *testing.T) {
	searcher := &fakeSearcher{}
	h := &nearbyHandler{searcher: searcher}

	if _, _, err := h.handle(context.Background(), nil, NearbyParams{PostalCode: "7501", Lat: 48, Lon: 2}); err == nil {
		t.Fatal("expected postal code error")
	}
	if _, _, err := h.handle(context.Background(), nil, NearbyParams{PostalCode: "75011", Lat: 91, Lon: 2}); err == nil {
		t.Fatal("expected range error")
	}
	if _, _, err := h.handle(context.Background(), nil, NearbyParams{PostalCode: "75011", Lat: 48, Lon: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if searcher.limit != DefaultNearbyLimit {
		t.Fatalf("limit = %d", searcher.limit)
	}
}

func TestExportHandler(t *testing.T) {
	exporter := &fakeExporter{}
	h := &exportHandler{classifier: &fakeClassifier{result: exactClassification()}, exporter: exporter}

	res, out, err := h.handle(context.Background(), nil, ExportParams{Department: "75", Tab: "Review"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exporter.tab != "Review" || out.(export.Result).WrittenRows != 2 {
		t.Fatalf("export = %+v", out)
	}
	if !strings.Contains(text(res), "sheet-1/Review") {
		t.Fatalf("text = %s", text(res))
	}

	disabled := &exportHandler{classifier: &fakeClassifier{result: exactClassification()}, exporter: export.Disabled{}}
	if _, _, err := disabled.handle(context.Background(), nil, ExportParams{Department: "75"}); !errors.Is(err, export.ErrExportDisabled) {
		t.Fatalf("err = %v", err)
	}
}

func TestGraphToolHandler(t *testing.T) {
	inspector := &fakeInspector{}
	decisions := &fakeDecisions{stored: []repository.StoredCandidate{{CertificateID: "2375E1", Score: 100}}}
	h := &graphToolHandler{inspector: inspector, decisions: decisions}
	ctx := context.Background()

	if _, _, err := h.handle(ctx, nil, GraphToolParams{}); err != nil {
		t.Fatalf("default query: %v", err)
	}
	if inspector.query != defaultGraphQuery {
		t.Fatalf("query = %q", inspector.query)
	}

	_, out, err := h.handle(ctx, nil, GraphToolParams{Department: "75", Commune: "Paris", Section: "ab", Numero: "001"})
	if err != nil {
		t.Fatalf("parcel lookup: %v", err)
	}
	if decisions.listed != "75|paris|AB|001" || len(out.([]repository.StoredCandidate)) != 1 {
		t.Fatalf("listed %q -> %v", decisions.listed, out)
	}

	unconfigured := &graphToolHandler{inspector: repository.NoopDecisionRepository{}, decisions: repository.NoopDecisionRepository{}}
	if _, _, err := unconfigured.handle(ctx, nil, GraphToolParams{}); !errors.Is(err, repository.ErrPersistenceDisabled) {
		t.Fatalf("err = %v", err)
	}
}
