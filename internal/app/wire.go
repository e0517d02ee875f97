//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/google/wire"

	"github.com/honeycarbs/dpe-match/internal/config"
	"github.com/honeycarbs/dpe-match/internal/domain/dpe"
	ademeProvider "github.com/honeycarbs/dpe-match/internal/domain/dpe/providers/ademe"
	"github.com/honeycarbs/dpe-match/pkg/ademe"
	"github.com/honeycarbs/dpe-match/pkg/logging"
)

// InitializeResources creates Resources with all resources wired up
func InitializeResources(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*Resources, func(), error) {
	wire.Build(
		provideMetrics,

		// Upstream - ADEME
		provideADEMEConfig,
		ademe.NewClient,
		provideADEMEProvider,
		wire.Bind(new(dpe.Source), new(*ademeProvider.Provider)),

		// Services
		provideAcquisition,
		provideClassifier,
		provideProximity,

		// Infrastructure - Neo4j
		provideNeo4jClient,
		provideDecisionRepository,
		provideGraphInspector,

		// Infrastructure - Sheets
		provideExporter,

		newResources,
	)

	return nil, nil, nil
}
