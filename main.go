package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/server"

	"github.com/seo-optimizer/report-engine/analyzer"
	"github.com/seo-optimizer/report-engine/api"
	"github.com/seo-optimizer/report-engine/config"
	"github.com/seo-optimizer/report-engine/logging"
	"github.com/seo-optimizer/report-engine/mcptools"
	"github.com/seo-optimizer/report-engine/middleware"
	"github.com/seo-optimizer/report-engine/scoring"
	"github.com/seo-optimizer/report-engine/snapshot"
	"github.com/seo-optimizer/report-engine/stats"
	"github.com/seo-optimizer/report-engine/storage"
)

const (
	snapshotCacheTTL     = 30 * time.Minute
	snapshotCacheSize    = 1000
	snapshotCacheCleanup = 5 * time.Minute
	shutdownTimeout      = 10 * time.Second
)

func main() {
	config.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.DevMode)

	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "serve":
		err = runServer(cfg, logger)
	case "mcp":
		err = runMCP(cfg, logger)
	case "--version", "-v", "version":
		fmt.Printf("seo-report-engine %s\n", mcptools.Version)
		return
	case "--help", "-h", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: seo-report-engine [command]

Commands:
  serve     Start the HTTP API (default)
  mcp       Serve the report tools over MCP stdio
  version   Print the version`)
}

func setupGinMode(mode string) {
	if mode == "" {
		// Default to release mode if not specified
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)
}

// newEngine builds the engine with the configured scoring policy.
func newEngine(cfg *config.Config, logger *slog.Logger) (*analyzer.Engine, error) {
	opts := []analyzer.Option{analyzer.WithLogger(logger)}
	if cfg.ScoringPolicyFile != "" {
		policy, err := scoring.LoadPolicy(cfg.ScoringPolicyFile)
		if err != nil {
			return nil, err
		}
		logger.Info("scoring policy loaded", "file", cfg.ScoringPolicyFile, "version", policy.Version)
		opts = append(opts, analyzer.WithPolicy(policy))
	}
	return analyzer.New(opts...), nil
}

func runMCP(cfg *config.Config, logger *slog.Logger) error {
	engine, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}
	return server.ServeStdio(mcptools.NewServer(engine))
}

func runServer(cfg *config.Config, logger *slog.Logger) error {
	setupGinMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}

	counters, err := stats.NewStorage(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to initialize stats storage: %w", err)
	}
	defer func() {
		if err := counters.Shutdown(); err != nil {
			logger.Warn("failed to save statistics", "error", err)
		}
	}()

	traffic, err := stats.NewTraffic(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to initialize traffic statistics: %w", err)
	}
	defer func() {
		if err := traffic.Save(); err != nil {
			logger.Warn("failed to save traffic statistics", "error", err)
		}
	}()

	uploader, err := storage.NewUploaderFromConfig(ctx, cfg.Storage, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to initialize report storage: %w", err)
	}
	metadata, err := storage.NewMetadataStoreFromConfig(ctx, cfg.Metadata, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to initialize metadata store: %w", err)
	}
	defer metadata.Close()

	srv := &api.Server{
		Engine:    engine,
		Persister: storage.NewGateway(uploader, metadata),
		Index:     metadata,
		Counters:  counters,
		Traffic:   traffic,
		DevMode:   cfg.DevMode,
		Logger:    logger.With("component", "api"),
	}

	if cfg.SnapshotSourceURL != "" {
		cache := analyzer.NewCachedSource(
			snapshot.NewHTTPSource(cfg.SnapshotSourceURL, cfg.SnapshotTimeout),
			snapshotCacheTTL, snapshotCacheSize, counters)
		go cache.Run(ctx, snapshotCacheCleanup)
		srv.Source = cache
		srv.Cache = cache
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Run(ctx)

	router := srv.Router(limiter)
	if fu, ok := uploader.(*storage.FileUploader); ok && strings.HasPrefix(cfg.Storage.BaseURL, "/") {
		router.Static(cfg.Storage.BaseURL, fu.Dir())
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", "http://localhost:"+cfg.Port, "storage", cfg.Storage.Type, "metadata", cfg.Metadata.Driver)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
