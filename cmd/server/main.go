package main

import (
	"context"
	"flag"
	"log"
	"os"
	"syscall"
	"time"

	"github.com/honeycarbs/dpe-match/internal/app"
	"github.com/honeycarbs/dpe-match/internal/config"
	"github.com/honeycarbs/dpe-match/internal/mcp"
	"github.com/honeycarbs/dpe-match/pkg/logging"
	"github.com/honeycarbs/dpe-match/pkg/shutdown"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (overrides DPE_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	res, cleanup, err := app.InitializeResources(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to initialize resources", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	srv := mcp.NewServer(logger, res)

	go shutdown.Graceful(
		[]os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP},
		10*time.Second,
		logger,
		srv,
	)

	logger.Info("MCP server initialized and starting",
		"addr", cfg.Addr(),
		"dataset", cfg.Ademe.Dataset,
		"persistence", cfg.PersistenceEnabled(),
		"export", cfg.ExportEnabled(),
	)

	if err := srv.Run(); err != nil {
		logger.Error("MCP server exited with error", "err", err)
	} else {
		logger.Info("MCP server stopped")
	}
}
