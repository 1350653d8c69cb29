package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/source-comb/app/annotation"
	"github.com/lysyi3m/source-comb/app/api"
	"github.com/lysyi3m/source-comb/app/cfg"
	"github.com/lysyi3m/source-comb/app/database"
	"github.com/lysyi3m/source-comb/app/platform"
	"github.com/lysyi3m/source-comb/app/sources"
	"github.com/lysyi3m/source-comb/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Source Comb", "version", appCfg.Version, "community", appCfg.Community)

	db, err := database.NewConnection(
		appCfg.DBHost, appCfg.DBPort, appCfg.DBUser,
		appCfg.DBPassword, appCfg.DBName)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	defer db.Close()
	slog.Info("Connected to database")

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run database migrations: ", err)
	}
	slog.Info("Database migrations applied", "version", version, "dirty", dirty)

	registry := sources.NewRegistry(appCfg.SourcesDir)
	if err := registry.Run(); err != nil {
		log.Fatal("Failed to load source registry: ", err)
	}
	slog.Info("Source registry loaded", "dir", appCfg.SourcesDir, "sources", registry.Count())

	scanRepo := database.NewScanRepository(db)

	httpClient := &http.Client{Timeout: 60 * time.Second}
	poller := platform.NewFeedPoller(httpClient, appCfg.UserAgent)
	client := platform.NewClient(httpClient,
		appCfg.RedditClientID, appCfg.RedditClientSecret,
		appCfg.RedditUsername, appCfg.RedditPassword, appCfg.UserAgent)
	extractor := platform.NewArticleExtractor()
	renderer := annotation.NewRenderer(appCfg.Community)

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "poll_interval", appCfg.PollInterval)
	scheduler := tasks.NewScheduler(registry, scanRepo, poller, client, extractor, renderer, httpClient)
	scheduler.Start()
	defer scheduler.Stop()

	apiHandler := api.NewHandler(registry, scanRepo, renderer, scheduler)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	slog.Info("Source Comb started")

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	slog.Info("Shutdown complete")
}
