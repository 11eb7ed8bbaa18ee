package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gravadigital/urna-cipa/internal/config"
	"github.com/gravadigital/urna-cipa/internal/domain/vote"
	"github.com/gravadigital/urna-cipa/internal/handlers"
	"github.com/gravadigital/urna-cipa/internal/live"
	"github.com/gravadigital/urna-cipa/internal/logger"
	"github.com/gravadigital/urna-cipa/internal/server"
	"github.com/gravadigital/urna-cipa/internal/services"
	"github.com/gravadigital/urna-cipa/internal/storage"
	"github.com/gravadigital/urna-cipa/internal/storage/postgres"
)

func main() {
	cfg := config.Load()

	logger.Initialize(cfg.Server.LogLevel, cfg.Server.LogFormat)
	log := logger.Get()

	container, err := postgres.NewContainer(cfg)
	if err != nil {
		log.Fatal("Failed to initialize storage", "error", err)
	}
	defer func() {
		if err := container.CloseWithTimeout(10 * time.Second); err != nil {
			log.Error("Failed to close storage", "error", err)
		}
	}()

	factory, err := storage.FromConfig(cfg)
	if err != nil {
		log.Fatal("Invalid evidence backend", "error", err)
	}
	evidenceStore, err := factory.CreateEvidenceStore(context.Background(), cfg)
	if err != nil {
		log.Fatal("Failed to initialize evidence storage", "backend", cfg.Evidence.Backend, "error", err)
	}

	authService, err := services.NewAuthService(cfg)
	if err != nil {
		log.Fatal("Failed to initialize admin auth", "error", err)
	}
	if cfg.IsProduction() && cfg.Admin.PasswordHash == "" {
		log.Warn("ADMIN_PASSWORD_HASH is not set; using plain ADMIN_PASSWORD")
	}

	votingService := vote.NewVotingService(container.VoteStore(), evidenceStore,
		vote.WithMaxPhotoSize(cfg.Evidence.MaxPhotoSize),
	)
	candidateService := services.NewCandidateService(container.Candidates())
	rosterService := services.NewRosterService(container.Employees(), cfg.Roster.Delimiter)
	reportService := services.NewReportService(container.Candidates(), container.Employees(), container.VoterLogs())

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := live.NewHub(reportService)
	go hub.Run(hubCtx)

	srv := server.New(cfg, server.Dependencies{
		Votes:  handlers.NewVoteHandler(votingService, candidateService, rosterService).WithNotifier(hub),
		Admin:  handlers.NewAdminHandler(authService, rosterService, candidateService, reportService, evidenceStore, cfg.Roster.FilePath),
		Tokens: authService,
		Health: container,
		Live:   hub,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("Received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server stopped", "error", err)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
	}
	log.Info("Server stopped")
}
