package proximity

import (
	"context"
	"fmt"

	"github.com/honeycarbs/dpe-match/internal/domain"
	"github.com/honeycarbs/dpe-match/pkg/logging"
	"github.com/honeycarbs/dpe-match/pkg/metrics"
)

// BucketFetcher loads every certificate sharing a postal code
type BucketFetcher interface {
	FetchPostalCode(ctx context.Context, postalCode string) ([]domain.CertificateRecord, error)
}

// Service ranks a postal-code bucket around a point
type Service struct {
	fetcher BucketFetcher
	logger  *logging.Logger
	metrics *metrics.Manager
}

// NewService creates a proximity service
func NewService(fetcher BucketFetcher, logger *logging.Logger, m *metrics.Manager) (*Service, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("proximity.Service: fetcher is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{fetcher: fetcher, logger: logger.Named("proximity"), metrics: m}, nil
}

// Nearby fetches the bucket for postalCode and ranks it around target;
// a positive limit truncates the ranked list; exclusions are always reported in full
func (s *Service) Nearby(ctx context.Context, target domain.Coordinate, postalCode string, limit int) (domain.ProximityResult, error) {
	pool, err := s.fetcher.FetchPostalCode(ctx, postalCode)
	if err != nil {
		return domain.ProximityResult{}, fmt.Errorf("proximity: fetch postal code %s: %w", postalCode, err)
	}

	result := RankByProximity(target, pool)
	s.metrics.RecordProximity(len(result.Candidates), len(result.Excluded))

	if limit > 0 && len(result.Candidates) > limit {
		result.Candidates = result.Candidates[:limit]
	}

	kv := []any{"postal_code", postalCode, "summary", result.Summary()}
	if nearest, ok := result.Nearest(); ok {
		kv = append(kv, "nearest", nearest.Record.ID, "distance_m", nearest.DistanceMeters)
	}
	s.logger.Info("proximity ranking completed", kv...)

	return result, nil
}
