package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/honeycarbs/dpe-match/internal/app"
	"github.com/honeycarbs/dpe-match/internal/domain"
	"github.com/honeycarbs/dpe-match/internal/domain/matching"
	"github.com/honeycarbs/dpe-match/internal/domain/proximity"
	"github.com/honeycarbs/dpe-match/internal/export"
	"github.com/honeycarbs/dpe-match/internal/repository"
)

type stubPool struct {
	records []domain.CertificateRecord
}

func (s stubPool) Acquire(context.Context, domain.PropertyDescriptor) (domain.CandidatePool, error) {
	return domain.CandidatePool{Records: s.records}, nil
}

func (s stubPool) FetchPostalCode(context.Context, string) ([]domain.CertificateRecord, error) {
	return s.records, nil
}

func testCLI(t *testing.T) (*cli, *bytes.Buffer) {
	t.Helper()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	pool := stubPool{records: []domain.CertificateRecord{
		{ID: "2375E1", Department: "75", Commune: "Paris", Address: "12 rue AB 001", EstablishedAt: now.AddDate(-1, 0, 0), Location: &domain.Coordinate{Lat: 48.86, Lon: 2.38}},
		{ID: "2333E9", Department: "33", Commune: "Bordeaux"},
	}}

	classifier, err := matching.NewClassifier(pool, matching.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatal(err)
	}
	prox, err := proximity.NewService(pool, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	out := &bytes.Buffer{}
	return &cli{out: out, res: &app.Resources{
		Classifier: classifier,
		Proximity:  prox,
		Decisions:  repository.NoopDecisionRepository{},
		Graph:      repository.NoopDecisionRepository{},
		Exporter:   export.Disabled{},
	}}, out
}

func run(c *cli, args ...string) error {
	cmd := c.rootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(c.out)
	cmd.SetErr(c.out)
	return c.execute(cmd)
}

func TestClassifyCommand(t *testing.T) {
	c, out := testCLI(t)

	if err := run(c, "classify", "--department", "75", "--commune", "paris", "--section", "AB", "--numero", "001"); err != nil {
		t.Fatalf("classify: %v", err)
	}

	var result domain.Classification
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out.String())
	}
	if !result.HasExactMatch || result.Match.ID != "2375E1" {
		t.Fatalf("result = %+v", result)
	}
	if result.Diagnostics.Disqualified != 1 {
		t.Fatalf("disqualified = %d", result.Diagnostics.Disqualified)
	}
}

func TestClassifyExplain(t *testing.T) {
	c, out := testCLI(t)

	if err := run(c, "classify", "--department", "75", "--explain"); err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !strings.HasPrefix(out.String(), "candidates_only (2 record(s))\n2375E1 scored") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestClassifyRequiresDepartment(t *testing.T) {
	c, _ := testCLI(t)

	err := run(c, "classify", "--commune", "Paris")
	if err == nil || err.Error() != "--department is required" {
		t.Fatalf("err = %v", err)
	}
}

func TestCleanupRunsWhenCommandFails(t *testing.T) {
	c, _ := testCLI(t)
	closed := 0
	c.cleanup = func() { closed++ }

	if err := run(c, "classify", "--commune", "Paris"); err == nil {
		t.Fatal("expected error")
	}
	if closed != 1 {
		t.Fatalf("cleanup ran %d time(s), want 1", closed)
	}
}

func TestClassifyPersistWithoutNeo4jIsSilent(t *testing.T) {
	c, _ := testCLI(t)

	if err := run(c, "classify", "--department", "75", "--persist"); err != nil {
		t.Fatalf("classify: %v", err)
	}
}

func TestClassifyExportWithoutSheetsFails(t *testing.T) {
	c, _ := testCLI(t)

	if err := run(c, "classify", "--department", "75", "--export", ""); err == nil {
		t.Fatal("expected export error")
	}
}

func TestNearbyCommand(t *testing.T) {
	c, out := testCLI(t)

	if err := run(c, "nearby", "--postal-code", "75011", "--lat", "48.859", "--lon", "2.380"); err != nil {
		t.Fatalf("nearby: %v", err)
	}

	var result domain.ProximityResult
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(result.Candidates) != 1 || len(result.Excluded) != 1 || result.Excluded[0].CertificateID != "2333E9" {
		t.Fatalf("result = %+v", result)
	}
}

func TestNearbyRequiresPoint(t *testing.T) {
	c, _ := testCLI(t)

	if err := run(c, "nearby", "--postal-code", "75011"); err == nil {
		t.Fatal("expected error without coordinates")
	}
}

func TestCandidatesWithoutNeo4j(t *testing.T) {
	c, _ := testCLI(t)

	if err := run(c, "candidates", "--department", "75"); err == nil {
		t.Fatal("expected persistence error")
	}
}
