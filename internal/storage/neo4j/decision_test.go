package neo4j

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/honeycarbs/dpe-match/internal/domain"
	pkgneo4j "github.com/honeycarbs/dpe-match/pkg/neo4j"
)

func sampleClassification() (domain.PropertyDescriptor, domain.Classification) {
	desc := domain.PropertyDescriptor{Department: "75", Commune: " Paris ", Section: "ab", Numero: "001"}
	match := domain.CertificateRecord{ID: "2375E1", Address: "12 rue AB 001", Commune: "Paris", PostalCode: "75011", EnergyClass: domain.ClassC}
	return desc, domain.Classification{
		QueryID:       uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2"),
		HasExactMatch: true,
		Match:         &match,
		MatchScore:    100,
		Candidates: []domain.ScoredCandidate{
			{Record: match, Score: 100, Breakdown: []domain.RuleHit{{Rule: "department", Points: 40}, {Rule: "commune", Points: 40}}},
			{Record: domain.CertificateRecord{ID: "2375E2", Commune: "Paris"}, Score: 80, Breakdown: []domain.RuleHit{{Rule: "department", Points: 40}}},
		},
		Diagnostics: domain.Diagnostics{EvaluatedAt: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)},
	}
}

func TestClassificationParams(t *testing.T) {
	desc, result := sampleClassification()

	params := classificationParams(desc, result)

	parcel := params["parcel"].(map[string]any)
	if parcel["key"] != "75|paris|AB|001" {
		t.Fatalf("parcel key = %v", parcel["key"])
	}
	if params["status"] != domain.StatusExactMatch {
		t.Fatalf("status = %v", params["status"])
	}
	if params["queryId"] != "7d444840-9dc0-11d1-b245-5ffdce74fad2" {
		t.Fatalf("queryId = %v", params["queryId"])
	}

	cands := params["candidates"].([]map[string]any)
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}
	if cands[0]["exact"] != true || cands[1]["exact"] != false {
		t.Fatalf("exact flags = %v, %v", cands[0]["exact"], cands[1]["exact"])
	}
	if cands[0]["energyClass"] != "C" {
		t.Fatalf("energyClass = %v", cands[0]["energyClass"])
	}
	rules := cands[0]["rules"].([]string)
	if len(rules) != 2 || rules[1] != "commune" {
		t.Fatalf("rules = %v", rules)
	}
}

func TestRecordHelpers(t *testing.T) {
	at := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	rec := &neo4j.Record{
		Keys:   []string{"id", "score", "exact", "rules", "evaluatedAt", "missing"},
		Values: []any{"2375E1", int64(95), true, []any{"department", "commune"}, at, nil},
	}

	if getString(rec, "id") != "2375E1" || getString(rec, "missing") != "" {
		t.Fatal("getString mismatch")
	}
	if getInt(rec, "score") != 95 {
		t.Fatal("getInt mismatch")
	}
	if !getBool(rec, "exact") {
		t.Fatal("getBool mismatch")
	}
	if got := getStringSlice(rec, "rules"); len(got) != 2 {
		t.Fatalf("getStringSlice = %v", got)
	}
	if !getTime(rec, "evaluatedAt").Equal(at) {
		t.Fatal("getTime mismatch")
	}
}

func TestPlainValue(t *testing.T) {
	node := dbtype.Node{ElementId: "4:x:1", Labels: []string{"Parcel"}, Props: map[string]any{"key": "75|paris|AB|001"}}

	got := plainValue([]any{node}).([]any)
	m := got[0].(map[string]any)
	if m["element_id"] != "4:x:1" {
		t.Fatalf("element_id = %v", m["element_id"])
	}
	if m["props"].(map[string]any)["key"] != "75|paris|AB|001" {
		t.Fatalf("props = %v", m["props"])
	}
}

func TestDecisionRepositoryIntegration(t *testing.T) {
	uri := os.Getenv("NEO4J_URI")
	if uri == "" {
		t.Skip("NEO4J_URI not set")
	}

	ctx := context.Background()
	client, err := pkgneo4j.NewClient(ctx, pkgneo4j.Config{
		URI:      uri,
		Username: os.Getenv("NEO4J_USERNAME"),
		Password: os.Getenv("NEO4J_PASSWORD"),
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close(ctx)

	repo := NewDecisionRepository(client)
	desc, result := sampleClassification()

	if err := repo.SaveClassification(ctx, desc, result); err != nil {
		t.Fatalf("save: %v", err)
	}
	stored, err := repo.ListCandidates(ctx, desc.Normalized().ParcelKey(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stored) != 2 || stored[0].CertificateID != "2375E1" || !stored[0].Exact {
		t.Fatalf("stored = %+v", stored)
	}

	rows, err := NewGraphInspector(client).Inspect(ctx, "MATCH (p:Parcel {key: $key}) RETURN p", map[string]any{"key": desc.Normalized().ParcelKey()}, 5)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if len(rows.Rows) != 1 {
		t.Fatalf("rows = %+v", rows)
	}
}
