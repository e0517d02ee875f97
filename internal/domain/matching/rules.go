package matching

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/honeycarbs/dpe-match/internal/domain"
)

// Rule names, also used as metric labels
const (
	RuleDepartment   = "department"
	RuleCommune      = "commune"
	RuleSection      = "section"
	RuleNumero       = "numero"
	RuleStreetNumber = "street_number"
	RuleRecency      = "recency"
)

var streetNumberPattern = regexp.MustCompile(`\d+\s`)

// scoreCard accumulates one candidate's score as it travels the rule chain
type scoreCard struct {
	desc domain.PropertyDescriptor
	rec  domain.CertificateRecord
	now  time.Time

	score          int
	hits           []domain.RuleHit
	disqualifiedBy string
	reason         string
}

func (c *scoreCard) award(rule string, points int, detail string) {
	c.score += points
	c.hits = append(c.hits, domain.RuleHit{Rule: rule, Points: points, Detail: detail})
}

func (c *scoreCard) disqualify(rule, reason string) {
	c.disqualifiedBy = rule
	c.reason = rule + ": " + reason
	c.score = 0
}

func (c *scoreCard) disqualified() bool {
	return c.disqualifiedBy != ""
}

// rule is one link of the scoring chain
type rule interface {
	name() string
	apply(c *scoreCard)
}

// departmentGate zeroes candidates outside the descriptor's department
type departmentGate struct{ points int }

func (departmentGate) name() string { return RuleDepartment }

func (r departmentGate) apply(c *scoreCard) {
	if c.desc.Department == "" {
		c.disqualify(RuleDepartment, "descriptor has no department")
		return
	}
	got := strings.ToUpper(strings.TrimSpace(c.rec.Department))
	if got != c.desc.Department {
		c.disqualify(RuleDepartment, fmt.Sprintf("want %q, got %q", c.desc.Department, got))
		return
	}
	c.award(RuleDepartment, r.points, c.desc.Department)
}

// communeGate zeroes candidates whose commune differs or is unknown,
// skipped when the descriptor names no commune
type communeGate struct{ points int }

func (communeGate) name() string { return RuleCommune }

func (r communeGate) apply(c *scoreCard) {
	if c.desc.Commune == "" {
		return
	}

	got := strings.TrimSpace(c.rec.Commune)
	if got == "" {
		c.disqualify(RuleCommune, "candidate has no commune")
		return
	}

	if !strings.EqualFold(got, c.desc.Commune) {
		dist := levenshtein.ComputeDistance(strings.ToLower(got), strings.ToLower(c.desc.Commune))
		c.disqualify(RuleCommune, fmt.Sprintf("want %q, got %q (edit distance %d)", c.desc.Commune, got, dist))
		return
	}
	c.award(RuleCommune, r.points, got)
}

// addressContains awards points when the raw address holds a descriptor fragment
type addressContains struct {
	rule   string
	points int
	value  func(domain.PropertyDescriptor) string
}

func (r addressContains) name() string { return r.rule }

func (r addressContains) apply(c *scoreCard) {
	needle := strings.ToUpper(r.value(c.desc))
	if needle == "" {
		return
	}
	if strings.Contains(strings.ToUpper(c.rec.Address), needle) {
		c.award(r.rule, r.points, needle)
	}
}

// streetNumber rewards addresses that look like precise street addresses
type streetNumber struct{ points int }

func (streetNumber) name() string { return RuleStreetNumber }

func (r streetNumber) apply(c *scoreCard) {
	if m := streetNumberPattern.FindString(c.rec.Address); m != "" {
		c.award(RuleStreetNumber, r.points, strings.TrimSpace(m))
	}
}

// recency rewards certificates established within the window before now;
// dates after now are treated as data errors and earn nothing
type recency struct {
	points int
	years  int
}

func (recency) name() string { return RuleRecency }

func (r recency) apply(c *scoreCard) {
	est := c.rec.EstablishedAt
	if est.IsZero() || est.After(c.now) {
		return
	}
	cutoff := c.now.AddDate(-r.years, 0, 0)
	if est.After(cutoff) {
		c.award(RuleRecency, r.points, est.Format("2006-01-02"))
	}
}

// buildChain returns the rules in evaluation order; hard gates come first
func buildChain(w Weights) []rule {
	return []rule{
		departmentGate{points: w.Department},
		communeGate{points: w.Commune},
		addressContains{rule: RuleSection, points: w.Section, value: func(d domain.PropertyDescriptor) string { return d.Section }},
		addressContains{rule: RuleNumero, points: w.Numero, value: func(d domain.PropertyDescriptor) string { return d.Numero }},
		streetNumber{points: w.StreetNumber},
		recency{points: w.Recency, years: w.RecencyYears},
	}
}
