package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// QueryID identifies one classification call
type QueryID = uuid.UUID

// Coordinate is a WGS84 latitude/longitude pair
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// PropertyDescriptor describes the physical property a caller wants certificates for
type PropertyDescriptor struct {
	Department string      `json:"department,omitempty"`
	Commune    string      `json:"commune,omitempty"`
	Section    string      `json:"section,omitempty"`
	Numero     string      `json:"numero,omitempty"`
	Target     *Coordinate `json:"target,omitempty"`
}

// Normalized trims every text field and upper-cases the codes
func (d PropertyDescriptor) Normalized() PropertyDescriptor {
	out := PropertyDescriptor{
		Department: strings.ToUpper(strings.TrimSpace(d.Department)),
		Commune:    strings.TrimSpace(d.Commune),
		Section:    strings.ToUpper(strings.TrimSpace(d.Section)),
		Numero:     strings.TrimSpace(d.Numero),
	}
	if d.Target != nil {
		t := *d.Target
		out.Target = &t
	}
	return out
}

func (d PropertyDescriptor) HasDepartment() bool {
	return strings.TrimSpace(d.Department) != ""
}

// ParcelKey identifies the cadastral parcel in storage
func (d PropertyDescriptor) ParcelKey() string {
	n := d.Normalized()
	return strings.Join([]string{n.Department, strings.ToLower(n.Commune), n.Section, n.Numero}, "|")
}

// EnergyClass is the A-G ordinal used for both energy and GHG labels
type EnergyClass uint8

const (
	ClassUnknown EnergyClass = iota
	ClassA
	ClassB
	ClassC
	ClassD
	ClassE
	ClassF
	ClassG
)

// ParseEnergyClass reads a single letter label; anything else is ClassUnknown
func ParseEnergyClass(s string) EnergyClass {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 1 || s[0] < 'A' || s[0] > 'G' {
		return ClassUnknown
	}
	return EnergyClass(s[0]-'A') + ClassA
}

func (c EnergyClass) String() string {
	if c < ClassA || c > ClassG {
		return ""
	}
	return string(rune('A' + int(c-ClassA)))
}

func (c EnergyClass) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *EnergyClass) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("energy class: %w", err)
	}
	*c = ParseEnergyClass(s)
	return nil
}

// CertificateRecord is one normalized DPE row
type CertificateRecord struct {
	ID            string      `json:"id"`
	Address       string      `json:"address"`
	Commune       string      `json:"commune"`
	Department    string      `json:"department"`
	PostalCode    string      `json:"postal_code"`
	Location      *Coordinate `json:"location,omitempty"`
	EnergyClass   EnergyClass `json:"energy_class"`
	GHGClass      EnergyClass `json:"ghg_class"`
	Surface       *float64    `json:"surface,omitempty"`
	AnnualCost    *float64    `json:"annual_cost,omitempty"`
	EstablishedAt time.Time   `json:"established_at,omitzero"`
	ExpiresAt     time.Time   `json:"expires_at,omitzero"`
}

// RuleHit records the points one rule contributed
type RuleHit struct {
	Rule   string `json:"rule"`
	Points int    `json:"points"`
	Detail string `json:"detail,omitempty"`
}

// ScoredCandidate is a record with its exactness score
type ScoredCandidate struct {
	Record           CertificateRecord `json:"record"`
	Score            int               `json:"score"`
	Breakdown        []RuleHit         `json:"breakdown"`
	Disqualification string            `json:"disqualification,omitempty"`
	DistanceMeters   *float64          `json:"distance_meters,omitempty"`
}

func (c ScoredCandidate) Disqualified() bool {
	return c.Disqualification != ""
}

// DistancedCandidate is a record with its distance to a query point
type DistancedCandidate struct {
	Record         CertificateRecord `json:"record"`
	DistanceMeters float64           `json:"distance_meters"`
}

// SearchScope restricts which upstream fields a query matches
type SearchScope int

const (
	ScopeAll SearchScope = iota
	ScopePostalCode
)

// SearchQuery is the upstream-neutral request handed to sources
type SearchQuery struct {
	Text  string
	Scope SearchScope
	Size  int
}

// StrategyOutcome reports how one acquisition strategy settled
type StrategyOutcome struct {
	Name     string        `json:"name"`
	Priority int           `json:"priority"`
	Query    string        `json:"query"`
	Records  int           `json:"records"`
	Err      string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

func (o StrategyOutcome) Failed() bool {
	return o.Err != ""
}

// CandidatePool is the deduplicated output of acquisition
type CandidatePool struct {
	Records    []CertificateRecord
	Strategies []StrategyOutcome
	Duplicates int
}

// Classification statuses
const (
	StatusExactMatch     = "exact_match"
	StatusCandidatesOnly = "candidates_only"
	StatusNoCandidates   = "no_candidates"
)

// Diagnostics explains how a classification was reached
type Diagnostics struct {
	Disqualified   int               `json:"disqualified"`
	DisqualifiedBy map[string]int    `json:"disqualified_by,omitempty"`
	Duplicates     int               `json:"duplicates"`
	Strategies     []StrategyOutcome `json:"strategies,omitempty"`
	EvaluatedAt    time.Time         `json:"evaluated_at"`
}

// Classification is the result of classifyExactMatch
type Classification struct {
	QueryID        QueryID            `json:"query_id"`
	HasExactMatch  bool               `json:"has_exact_match"`
	Match          *CertificateRecord `json:"match,omitempty"`
	MatchScore     int                `json:"match_score,omitempty"`
	Candidates     []ScoredCandidate  `json:"candidates"`
	CandidateCount int                `json:"candidate_count"`
	Diagnostics    Diagnostics        `json:"diagnostics"`
}

func (c Classification) Status() string {
	switch {
	case c.HasExactMatch:
		return StatusExactMatch
	case len(c.Candidates) > 0:
		return StatusCandidatesOnly
	default:
		return StatusNoCandidates
	}
}

// Exclusion names a record left out of a ranking and why
type Exclusion struct {
	CertificateID string `json:"certificate_id"`
	Reason        string `json:"reason"`
}

// ProximityResult is the output of rankByProximity
type ProximityResult struct {
	Target     Coordinate           `json:"target"`
	Returned   int                  `json:"returned"`
	Candidates []DistancedCandidate `json:"candidates"`
	Excluded   []Exclusion          `json:"excluded,omitempty"`
}

// Nearest returns the closest candidate, if any
func (r ProximityResult) Nearest() (DistancedCandidate, bool) {
	if len(r.Candidates) == 0 {
		return DistancedCandidate{}, false
	}
	return r.Candidates[0], true
}

func (r ProximityResult) Summary() string {
	return fmt.Sprintf("%d records returned, %d had usable coordinates", r.Returned, r.Returned-len(r.Excluded))
}
