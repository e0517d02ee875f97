package app

import (
	"context"

	"github.com/honeycarbs/dpe-match/internal/config"
	"github.com/honeycarbs/dpe-match/internal/domain/dpe"
	ademeProvider "github.com/honeycarbs/dpe-match/internal/domain/dpe/providers/ademe"
	"github.com/honeycarbs/dpe-match/internal/domain/matching"
	"github.com/honeycarbs/dpe-match/internal/domain/proximity"
	"github.com/honeycarbs/dpe-match/internal/export"
	"github.com/honeycarbs/dpe-match/internal/repository"
	storage "github.com/honeycarbs/dpe-match/internal/storage/neo4j"
	"github.com/honeycarbs/dpe-match/pkg/ademe"
	"github.com/honeycarbs/dpe-match/pkg/logging"
	"github.com/honeycarbs/dpe-match/pkg/metrics"
	n4j "github.com/honeycarbs/dpe-match/pkg/neo4j"
	"github.com/honeycarbs/dpe-match/pkg/sheets"
)

// provideMetrics creates the process metrics manager
func provideMetrics() *metrics.Manager {
	return metrics.NewManager()
}

// provideADEMEConfig extracts ADEME client settings from main config
func provideADEMEConfig(cfg *config.Config) ademe.Config {
	return ademe.Config{
		BaseURL: cfg.Ademe.BaseURL,
		Dataset: cfg.Ademe.Dataset,
		Timeout: cfg.Ademe.RequestTimeout,
	}
}

// provideADEMEProvider adapts the ADEME client to a dpe.Source
func provideADEMEProvider(client *ademe.Client) (*ademeProvider.Provider, error) {
	return ademeProvider.NewProvider(client)
}

func provideAcquisition(cfg *config.Config, source dpe.Source, logger *logging.Logger, m *metrics.Manager) (*dpe.Service, error) {
	return dpe.NewService(
		dpe.WithSource(source),
		dpe.WithLogger(logger),
		dpe.WithMetrics(m),
		dpe.WithRequestTimeout(cfg.Ademe.RequestTimeout),
		dpe.WithResultCap(cfg.Ademe.ResultCap),
		dpe.WithPostalResultCap(cfg.Ademe.PostalResultCap),
	)
}

func provideClassifier(cfg *config.Config, acquisition *dpe.Service, logger *logging.Logger, m *metrics.Manager) (*matching.Classifier, error) {
	return matching.NewClassifier(acquisition,
		matching.WithWeights(cfg.Matching),
		matching.WithLogger(logger),
		matching.WithMetrics(m),
	)
}

func provideProximity(acquisition *dpe.Service, logger *logging.Logger, m *metrics.Manager) (*proximity.Service, error) {
	return proximity.NewService(acquisition, logger, m)
}

// provideNeo4jClient connects when a URI is configured and returns nil otherwise
func provideNeo4jClient(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*n4j.Client, func(), error) {
	if !cfg.PersistenceEnabled() {
		logger.Info("Neo4j not configured, decisions will not be persisted")
		return nil, func() {}, nil
	}

	client, err := n4j.NewClient(ctx, n4j.Config{
		URI:      cfg.Neo4j.URI,
		Username: cfg.Neo4j.Username,
		Password: cfg.Neo4j.Password,
		Database: cfg.Neo4j.Database,
	})
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Neo4j client initialized", "uri", cfg.Neo4j.URI)

	cleanup := func() {
		if err := client.Close(context.Background()); err != nil {
			logger.Warn("failed to close Neo4j client", "err", err)
		}
	}
	return client, cleanup, nil
}

func provideDecisionRepository(client *n4j.Client) repository.DecisionRepository {
	if client == nil {
		return repository.NoopDecisionRepository{}
	}
	return storage.NewDecisionRepository(client)
}

func provideGraphInspector(client *n4j.Client) repository.GraphInspector {
	if client == nil {
		return repository.NoopDecisionRepository{}
	}
	return storage.NewGraphInspector(client)
}

// provideExporter builds the Sheets exporter when a spreadsheet is configured
func provideExporter(ctx context.Context, cfg *config.Config, logger *logging.Logger) (export.Exporter, error) {
	if !cfg.ExportEnabled() {
		return export.Disabled{}, nil
	}

	client, err := sheets.NewClient(ctx, sheets.Config{CredentialsPath: cfg.Sheets.CredentialsPath})
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.Sheets.SpreadsheetID)

	return export.NewSheetsExporter(client, cfg.Sheets.SpreadsheetID, cfg.Sheets.Tab)
}
