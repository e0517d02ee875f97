package matching

import (
	"fmt"
	"sort"
	"time"

	"github.com/honeycarbs/dpe-match/internal/domain"
	"github.com/honeycarbs/dpe-match/internal/domain/dpe"
	"github.com/honeycarbs/dpe-match/internal/domain/proximity"
)

// MaxScore is the ceiling of the exactness score
const MaxScore = 100

// Scorer applies the rule chain. It holds no mutable state and is safe for concurrent use
type Scorer struct {
	weights Weights
	chain   []rule
}

// NewScorer creates a scorer with default weights
func NewScorer() *Scorer {
	s, _ := NewScorerWithWeights(DefaultWeights())
	return s
}

// NewScorerWithWeights creates a scorer with custom weights
func NewScorerWithWeights(w Weights) (*Scorer, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{weights: w, chain: buildChain(w)}, nil
}

func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score evaluates one record against a descriptor at the given instant
func (s *Scorer) Score(desc domain.PropertyDescriptor, rec domain.CertificateRecord, now time.Time) domain.ScoredCandidate {
	sc, _ := s.score(desc.Normalized(), rec, now)
	return sc
}

func (s *Scorer) score(desc domain.PropertyDescriptor, rec domain.CertificateRecord, now time.Time) (domain.ScoredCandidate, string) {
	card := &scoreCard{desc: desc, rec: rec, now: now}

	for _, r := range s.chain {
		r.apply(card)
		if card.disqualified() {
			break
		}
	}

	out := domain.ScoredCandidate{
		Record:    rec,
		Score:     clamp(card.score),
		Breakdown: card.hits,
	}
	if card.disqualified() {
		out.Score = 0
		out.Breakdown = nil
		out.Disqualification = card.reason
	}
	if out.Breakdown == nil {
		out.Breakdown = []domain.RuleHit{}
	}
	if desc.Target != nil && rec.Location != nil {
		d := proximity.Distance(*desc.Target, *rec.Location)
		out.DistanceMeters = &d
	}

	return out, card.disqualifiedBy
}

// Rank merges the pool by certificate ID before scoring it. Disqualified candidates
// are counted but left out; the rest are ordered by score, then most recent
// establishment date, then pool order
func (s *Scorer) Rank(desc domain.PropertyDescriptor, pool []domain.CertificateRecord, now time.Time) (domain.Classification, error) {
	desc = desc.Normalized()
	if !desc.HasDepartment() {
		return domain.Classification{}, ErrMissingDepartment
	}

	pool, duplicates := dpe.Merge(pool)
	result := domain.Classification{
		Candidates:     make([]domain.ScoredCandidate, 0, len(pool)),
		CandidateCount: len(pool),
		Diagnostics: domain.Diagnostics{
			Duplicates:     duplicates,
			DisqualifiedBy: map[string]int{},
			EvaluatedAt:    now,
		},
	}

	for _, rec := range pool {
		sc, by := s.score(desc, rec, now)
		if by != "" {
			result.Diagnostics.Disqualified++
			result.Diagnostics.DisqualifiedBy[by]++
			continue
		}
		if sc.Score <= 0 {
			continue
		}
		result.Candidates = append(result.Candidates, sc)
	}

	sort.SliceStable(result.Candidates, func(i, j int) bool {
		a, b := result.Candidates[i], result.Candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Record.EstablishedAt.After(b.Record.EstablishedAt)
	})

	if len(result.Candidates) > 0 && result.Candidates[0].Score >= s.weights.ExactThreshold {
		best := result.Candidates[0]
		match := best.Record
		result.HasExactMatch = true
		result.Match = &match
		result.MatchScore = best.Score
	}

	return result, nil
}

// Explain renders a one-line summary of a scored candidate
func Explain(sc domain.ScoredCandidate) string {
	if sc.Disqualified() {
		return fmt.Sprintf("%s disqualified (%s)", sc.Record.ID, sc.Disqualification)
	}
	out := fmt.Sprintf("%s scored %d", sc.Record.ID, sc.Score)
	for i, h := range sc.Breakdown {
		sep := " ="
		if i > 0 {
			sep = " +"
		}
		out += fmt.Sprintf("%s %s(%d)", sep, h.Rule, h.Points)
	}
	return out
}

func clamp(score int) int {
	switch {
	case score < 0:
		return 0
	case score > MaxScore:
		return MaxScore
	default:
		return score
	}
}
