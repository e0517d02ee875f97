package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/honeycarbs/dpe-match/internal/domain"
	"github.com/honeycarbs/dpe-match/pkg/logging"
	"github.com/honeycarbs/dpe-match/pkg/metrics"
)

// ErrMissingDepartment is the precondition failure for classification
var ErrMissingDepartment = errors.New("matching: descriptor has no department code")

const statusError = "error"

// Acquirer produces the deduplicated candidate pool for a descriptor
type Acquirer interface {
	Acquire(ctx context.Context, desc domain.PropertyDescriptor) (domain.CandidatePool, error)
}

// Option configures Classifier
type Option func(*classifierConfig)

type classifierConfig struct {
	weights Weights
	clock   func() time.Time
	logger  *logging.Logger
	metrics *metrics.Manager
}

// WithWeights overrides the default rule weights
func WithWeights(w Weights) Option {
	return func(c *classifierConfig) {
		c.weights = w
	}
}

// WithClock sets a custom clock
func WithClock(clock func() time.Time) Option {
	return func(c *classifierConfig) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *logging.Logger) Option {
	return func(c *classifierConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the metrics manager
func WithMetrics(m *metrics.Manager) Option {
	return func(c *classifierConfig) {
		c.metrics = m
	}
}

// Classifier decides whether one certificate is THE match for a property
type Classifier struct {
	acquirer Acquirer
	scorer   *Scorer
	clock    func() time.Time
	logger   *logging.Logger
	metrics  *metrics.Manager
}

// NewClassifier builds a Classifier from options
func NewClassifier(acquirer Acquirer, opts ...Option) (*Classifier, error) {
	if acquirer == nil {
		return nil, fmt.Errorf("matching.Classifier: acquirer is required")
	}

	cfg := &classifierConfig{
		weights: DefaultWeights(),
		clock:   time.Now,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	scorer, err := NewScorerWithWeights(cfg.weights)
	if err != nil {
		return nil, err
	}

	return &Classifier{
		acquirer: acquirer,
		scorer:   scorer,
		clock:    cfg.clock,
		logger:   cfg.logger.Named("classifier"),
		metrics:  cfg.metrics,
	}, nil
}

// ClassifyExactMatch acquires candidates for the descriptor and classifies them;
// it fails before any network call when the department is missing, and when every
// acquisition strategy failed
func (c *Classifier) ClassifyExactMatch(ctx context.Context, desc domain.PropertyDescriptor) (domain.Classification, error) {
	desc = desc.Normalized()
	if !desc.HasDepartment() {
		c.metrics.RecordClassification(statusError, nil)
		return domain.Classification{}, ErrMissingDepartment
	}

	// one instant for every candidate in this call
	now := c.clock()
	queryID := uuid.New()
	log := c.logger.With("query_id", queryID.String(), "department", desc.Department, "commune", desc.Commune)

	pool, err := c.acquirer.Acquire(ctx, desc)
	if err != nil {
		c.metrics.RecordClassification(statusError, nil)
		log.Error("candidate acquisition failed", "err", err)
		return domain.Classification{
			QueryID:     queryID,
			Candidates:  []domain.ScoredCandidate{},
			Diagnostics: domain.Diagnostics{Strategies: pool.Strategies, EvaluatedAt: now},
		}, fmt.Errorf("matching: acquire candidates: %w", err)
	}

	result, err := c.scorer.Rank(desc, pool.Records, now)
	if err != nil {
		return domain.Classification{}, err
	}
	result.QueryID = queryID
	result.Diagnostics.Duplicates += pool.Duplicates
	result.Diagnostics.Strategies = pool.Strategies

	status := result.Status()
	c.metrics.RecordClassification(status, result.Diagnostics.DisqualifiedBy)

	kv := []any{
		"status", status,
		"pool", result.CandidateCount,
		"qualified", len(result.Candidates),
		"disqualified", result.Diagnostics.Disqualified,
	}
	if result.Match != nil {
		kv = append(kv, "match", result.Match.ID, "score", result.MatchScore)
	}
	log.Info("classification completed", kv...)

	return result, nil
}

// Rank classifies a caller-supplied pool without touching the network
func (c *Classifier) Rank(desc domain.PropertyDescriptor, pool []domain.CertificateRecord) (domain.Classification, error) {
	result, err := c.scorer.Rank(desc, pool, c.clock())
	if err != nil {
		return domain.Classification{}, err
	}
	result.QueryID = uuid.New()
	return result, nil
}

func (c *Classifier) Weights() Weights {
	return c.scorer.Weights()
}
