package dpe

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/honeycarbs/dpe-match/internal/domain"
	"github.com/honeycarbs/dpe-match/pkg/logging"
	"github.com/honeycarbs/dpe-match/pkg/metrics"
)

const (
	defaultRequestTimeout  = 10 * time.Second
	defaultPostalResultCap = 200
)

// Option configures Service
type Option func(*config)

type config struct {
	source          Source
	logger          *logging.Logger
	metrics         *metrics.Manager
	requestTimeout  time.Duration
	resultCap       int
	postalResultCap int
}

// WithSource sets the upstream dataset
func WithSource(source Source) Option {
	return func(c *config) {
		c.source = source
	}
}

// WithLogger sets the logger
func WithLogger(logger *logging.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the metrics manager
func WithMetrics(m *metrics.Manager) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithRequestTimeout bounds every individual upstream call
func WithRequestTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.requestTimeout = d
		}
	}
}

// WithResultCap caps rows per strategy
func WithResultCap(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.resultCap = n
		}
	}
}

// WithPostalResultCap caps rows for a postal-code bucket query
func WithPostalResultCap(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.postalResultCap = n
		}
	}
}

// Service acquires deduplicated candidate pools from a Source
type Service struct {
	source          Source
	logger          *logging.Logger
	metrics         *metrics.Manager
	requestTimeout  time.Duration
	resultCap       int
	postalResultCap int
}

// NewService builds Service from options
func NewService(opts ...Option) (*Service, error) {
	cfg := &config{
		logger:          logging.NewNop(),
		requestTimeout:  defaultRequestTimeout,
		resultCap:       MaxResultsPerStrategy,
		postalResultCap: defaultPostalResultCap,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.source == nil {
		return nil, fmt.Errorf("dpe.Service: source is required")
	}

	return &Service{
		source:          cfg.source,
		logger:          cfg.logger.Named("acquisition"),
		metrics:         cfg.metrics,
		requestTimeout:  cfg.requestTimeout,
		resultCap:       cfg.resultCap,
		postalResultCap: cfg.postalResultCap,
	}, nil
}

type strategyResult struct {
	records []domain.CertificateRecord
	outcome domain.StrategyOutcome
	err     error
}

// Acquire runs every strategy for the descriptor concurrently and merges what settles,
// returning an error only when every strategy fails
func (s *Service) Acquire(ctx context.Context, desc domain.PropertyDescriptor) (domain.CandidatePool, error) {
	strategies := BuildStrategies(desc, s.resultCap)
	if len(strategies) == 0 {
		return domain.CandidatePool{}, ErrNoStrategies
	}

	results := make([]strategyResult, len(strategies))

	var wg sync.WaitGroup
	for i, st := range strategies {
		wg.Add(1)
		go func(i int, st Strategy) {
			defer wg.Done()
			results[i] = s.run(ctx, st)
		}(i, st)
	}
	wg.Wait()

	pool := domain.CandidatePool{Strategies: make([]domain.StrategyOutcome, 0, len(results))}
	batches := make([][]domain.CertificateRecord, 0, len(results))
	var failures []*StrategyError

	for i, res := range results {
		pool.Strategies = append(pool.Strategies, res.outcome)
		if res.err != nil {
			failures = append(failures, &StrategyError{Strategy: strategies[i].Name, Err: res.err})
			continue
		}
		batches = append(batches, res.records)
	}

	if len(failures) == len(strategies) {
		return pool, &AcquisitionError{Failures: failures}
	}

	pool.Records, pool.Duplicates = Merge(batches...)
	s.metrics.RecordPool(len(pool.Records), pool.Duplicates)

	s.logger.Debug("candidate pool acquired",
		"strategies", len(strategies),
		"failed", len(failures),
		"candidates", len(pool.Records),
		"duplicates", pool.Duplicates,
	)

	return pool, nil
}

func (s *Service) run(ctx context.Context, st Strategy) strategyResult {
	reqCtx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	start := time.Now()
	records, err := s.source.Search(reqCtx, st.Query)
	took := time.Since(start)

	outcome := domain.StrategyOutcome{
		Name:     st.Name,
		Priority: st.Priority,
		Query:    st.Query.Text,
		Records:  len(records),
		Duration: took,
	}

	s.metrics.RecordStrategy(st.Name, err != nil, took)

	if err != nil {
		outcome.Records = 0
		outcome.Err = err.Error()
		s.logger.Warn("acquisition strategy failed",
			"strategy", st.Name,
			"source", s.source.Name(),
			"query", st.Query.Text,
			"took", took,
			"err", err,
		)
		return strategyResult{outcome: outcome, err: err}
	}

	return strategyResult{records: records, outcome: outcome}
}

// FetchPostalCode pulls the certificates of one postal code with a single upstream query
func (s *Service) FetchPostalCode(ctx context.Context, postalCode string) ([]domain.CertificateRecord, error) {
	postalCode = strings.TrimSpace(postalCode)
	if postalCode == "" {
		return nil, fmt.Errorf("dpe: postal code is required")
	}

	st := Strategy{
		Name:     "postal_code",
		Priority: 1,
		Query: domain.SearchQuery{
			Text:  postalCode,
			Scope: domain.ScopePostalCode,
			Size:  s.postalResultCap,
		},
	}

	res := s.run(ctx, st)
	if res.err != nil {
		return nil, fmt.Errorf("dpe: fetch postal code %s: %w", postalCode, res.err)
	}

	records, duplicates := Merge(res.records)
	s.metrics.RecordPool(len(records), duplicates)
	return records, nil
}
