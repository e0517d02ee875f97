// Package app assembles the matching services shared by the server and the CLI
package app

import (
	"github.com/honeycarbs/dpe-match/internal/config"
	"github.com/honeycarbs/dpe-match/internal/domain/dpe"
	"github.com/honeycarbs/dpe-match/internal/domain/matching"
	"github.com/honeycarbs/dpe-match/internal/domain/proximity"
	"github.com/honeycarbs/dpe-match/internal/export"
	"github.com/honeycarbs/dpe-match/internal/repository"
	"github.com/honeycarbs/dpe-match/pkg/logging"
	"github.com/honeycarbs/dpe-match/pkg/metrics"
)

// Resources holds every wired service
type Resources struct {
	Config      *config.Config
	Logger      *logging.Logger
	Metrics     *metrics.Manager
	Acquisition *dpe.Service
	Classifier  *matching.Classifier
	Proximity   *proximity.Service
	Decisions   repository.DecisionRepository
	Graph       repository.GraphInspector
	Exporter    export.Exporter
}

func newResources(
	cfg *config.Config,
	logger *logging.Logger,
	m *metrics.Manager,
	acquisition *dpe.Service,
	classifier *matching.Classifier,
	prox *proximity.Service,
	decisions repository.DecisionRepository,
	graph repository.GraphInspector,
	exporter export.Exporter,
) *Resources {
	return &Resources{
		Config:      cfg,
		Logger:      logger,
		Metrics:     m,
		Acquisition: acquisition,
		Classifier:  classifier,
		Proximity:   prox,
		Decisions:   decisions,
		Graph:       graph,
		Exporter:    exporter,
	}
}
