// Onboard - conversational client onboarding server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/agencykit/onboard/internal/api"
	"github.com/agencykit/onboard/internal/audit"
	"github.com/agencykit/onboard/internal/config"
	"github.com/agencykit/onboard/internal/dialogue"
	"github.com/agencykit/onboard/internal/extract"
	"github.com/agencykit/onboard/internal/middleware"
	"github.com/agencykit/onboard/internal/provision"
	"github.com/agencykit/onboard/internal/provision/gsuite"
	"github.com/agencykit/onboard/internal/store"
	"github.com/agencykit/onboard/internal/worker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port)

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Extraction gateway.
	gateway, err := extract.NewOpenAIClient(extract.OpenAIConfig{
		BaseURL:     cfg.Extract.BaseURL,
		APIKey:      cfg.Extract.APIKey,
		Model:       cfg.Extract.Model,
		Temperature: cfg.Extract.Temperature,
		Timeout:     cfg.Extract.Timeout,
		MaxRetries:  cfg.Extract.MaxRetries,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize extraction gateway", "error", err)
		os.Exit(1)
	}
	slog.Info("Extraction gateway initialized", "model", cfg.Extract.Model)

	// Audit sink. A nil sink disables auditing.
	sink, err := audit.NewFileSink(audit.Config{
		Enabled:   cfg.Audit.Enabled,
		Path:      cfg.Audit.Path,
		QueueSize: cfg.Audit.QueueSize,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize audit sink", "error", err)
		os.Exit(1)
	}
	if sink != nil {
		defer func() { _ = sink.Close() }()
	}

	// Provisioning collaborators.
	workspace, err := gsuite.NewServices(ctx, gsuite.Config{
		CredentialsFile:      cfg.Workspace.CredentialsFile,
		RootFolderID:         cfg.Workspace.RootFolderID,
		ClientsSpreadsheetID: cfg.Workspace.ClientsSpreadsheetID,
	})
	if err != nil {
		slog.Error("Failed to initialize Workspace clients", "error", err)
		os.Exit(1)
	}

	collaborators := provision.Collaborators{
		Directory: gsuite.NewDirectory(workspace),
		Folders:   gsuite.NewFolders(workspace),
		Documents: gsuite.NewDocuments(workspace),
		Records:   gsuite.NewRecords(workspace),
		Invites:   provision.NewLinkInvites(cfg.Invites.BaseURL),
	}
	if sink != nil {
		collaborators.Audit = sink
	}
	orchestrator, err := provision.NewOrchestrator(collaborators, cfg.Timeout.ProvisionStep, logger)
	if err != nil {
		slog.Error("Failed to initialize provisioning orchestrator", "error", err)
		os.Exit(1)
	}

	// Dialogue engine.
	engine, err := dialogue.NewEngine(dialogue.Config{
		Repo:            repo,
		Gateway:         gateway,
		Finalizer:       orchestrator,
		ExtractTimeout:  cfg.Extract.Timeout,
		DefaultLanguage: cfg.DefaultLanguage,
		Logger:          logger,
	})
	if err != nil {
		slog.Error("Failed to initialize dialogue engine", "error", err)
		os.Exit(1)
	}

	// Handlers.
	rateLimiter := api.NewRateLimiter(ctx, cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.WindowDuration)
	handler := api.NewHandler(engine, repo, rateLimiter, logger)
	healthHandler := api.NewHealthHandler(repo, cfg.Timeout.HealthCheck)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	healthHandler.RegisterHealth(r)
	handler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * cfg.Extract.Timeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start stale-session sweeper.
	worker.StartStaleSweeper(ctx, repo, cfg.StaleSessionTTL, nil)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
