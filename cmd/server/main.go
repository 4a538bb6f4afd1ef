package main

import (
	"context"
	"fmt"

	"github.com/amanahapps/zakat-keeper/internal/adapter"
	"github.com/amanahapps/zakat-keeper/internal/config"
	"github.com/amanahapps/zakat-keeper/internal/crypto"
	handlerhttp "github.com/amanahapps/zakat-keeper/internal/handler/http"
	"github.com/amanahapps/zakat-keeper/internal/logger"
	"github.com/amanahapps/zakat-keeper/internal/server"
	"github.com/amanahapps/zakat-keeper/internal/service"
	"github.com/amanahapps/zakat-keeper/internal/store"
	"github.com/amanahapps/zakat-keeper/internal/workers"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("zakat-keeper")

	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	keyring, err := crypto.NewKeyringFromConfig(cfg.Encryption.Key, cfg.Encryption.PreviousKeys)
	if err != nil {
		log.Fatal().Err(err).Msg("error building encryption key ring")
	}

	ctx := context.Background()

	storages, err := store.NewStorages(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating storages")
	}

	engine := crypto.NewEngine(keyring, log)
	notifier := adapter.NewAuditWebhook(cfg.Adapter, log)
	services := service.NewServices(storages, engine, notifier, cfg, log)

	handler := handlerhttp.NewHandler(services, cfg.App.Version, log)

	srv, err := server.NewServer(handler.Init(), cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	backgroundWorkers := workers.NewWorkers(
		workers.NewScanWorker(services.RemediationService, cfg.Remediation.ScanInterval, log),
	)
	backgroundWorkers.Run()

	srv.RunServer()
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
