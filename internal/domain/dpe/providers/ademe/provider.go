package ademe

import (
	"context"
	"fmt"

	"github.com/honeycarbs/dpe-match/internal/domain"
	"github.com/honeycarbs/dpe-match/internal/domain/dpe"
	"github.com/honeycarbs/dpe-match/pkg/ademe"
)

// searchClient describes the subset of the ADEME client used by the provider
type searchClient interface {
	SearchLines(ctx context.Context, params ademe.SearchParams) ([]ademe.Line, error)
}

// Provider implements dpe.Source on the ADEME DPE dataset
type Provider struct {
	client searchClient
}

// NewProvider builds an ADEME provider
func NewProvider(client searchClient) (*Provider, error) {
	if client == nil {
		return nil, fmt.Errorf("ademe provider: client is required")
	}
	return &Provider{client: client}, nil
}

// Name returns provider identifier
func (p *Provider) Name() string {
	return "ademe"
}

// Search queries ADEME and returns normalized records
func (p *Provider) Search(ctx context.Context, query domain.SearchQuery) ([]domain.CertificateRecord, error) {
	if p == nil || p.client == nil {
		return nil, fmt.Errorf("ademe provider: client is nil")
	}

	params := ademe.SearchParams{
		Query: query.Text,
		Size:  query.Size,
	}
	if query.Scope == domain.ScopePostalCode {
		params.QueryFields = []string{fieldPostalCode}
	}

	lines, err := p.client.SearchLines(ctx, params)
	if err != nil {
		return nil, err
	}

	out := make([]domain.CertificateRecord, 0, len(lines))
	for _, line := range lines {
		out = append(out, Normalize(line))
	}

	return out, nil
}

var _ dpe.Source = (*Provider)(nil)
