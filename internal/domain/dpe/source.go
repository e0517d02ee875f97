package dpe

import (
	"context"

	"github.com/honeycarbs/dpe-match/internal/domain"
)

// Source represents an upstream certificate dataset (ADEME, a fixture, a cache, etc.)
type Source interface {
	// e.g. "ademe"
	Name() string

	// Search returns normalized certificate records for a query
	Search(ctx context.Context, query domain.SearchQuery) ([]domain.CertificateRecord, error)
}
