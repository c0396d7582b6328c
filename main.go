package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/CrowderSoup/taskflow-pro/config"
	"github.com/CrowderSoup/taskflow-pro/database"
	"github.com/CrowderSoup/taskflow-pro/handlers"
	"github.com/CrowderSoup/taskflow-pro/services"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	// Load environment variables from .env file
	if err := config.LoadEnv(".env"); err != nil {
		return fmt.Errorf("error loading .env file: %w", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	if cfg.JWTSecret == config.DefaultJWTSecret {
		logger.Warn("using the default JWT secret; set JWT_SECRET in production")
	}
	if cfg.AnonKey == "" {
		logger.Warn("ANON_KEY is empty; the API key check is disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	telemetry, err := services.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer shutdownWithTimeout(telemetry.Shutdown)

	// Initialize database
	db, err := database.InitDB(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	vectors := database.NewVectorStore(db)

	embedder := services.NewOpenAIEmbedder(cfg.OpenAI)
	generator := services.NewOpenAIGenerator(cfg.OpenAI)
	if embedder == nil {
		logger.Warn("OPENAI_API_KEY not set; smart search and subtask generation are disabled")
	}
	search := services.NewSearchService(embedder, vectors, telemetry.Tracer)

	backfiller := services.NewBackfiller(search, vectors, logger)
	if embedder != nil {
		if err := backfiller.Start(cfg.BackfillSchedule); err != nil {
			return err
		}
		defer backfiller.Stop()
	}

	// Initialize WebSocket hub
	hub := services.NewHub()
	go hub.Run(ctx)

	router := handlers.NewRouter(handlers.Deps{
		Auth:        services.NewAuthService(cfg.JWTSecret, cfg.SMTP),
		Users:       database.NewUserService(db),
		Tasks:       database.NewTaskService(db),
		Subtasks:    database.NewSubtaskService(db),
		Preferences: database.NewPreferenceService(db),
		Search:      search,
		Generator:   generator,
		Hub:         hub,
		Tracer:      telemetry.Tracer,
		Logger:      logger,
		AnonKey:     cfg.AnonKey,
		CORSOrigins: cfg.CORSOrigins,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port, "database", cfg.DatabasePath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func shutdownWithTimeout(fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		slog.Warn("shutdown", "error", err)
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
