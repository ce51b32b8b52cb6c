package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pulsewire/pulsewire/app/api"
	"github.com/pulsewire/pulsewire/app/cache"
	"github.com/pulsewire/pulsewire/app/cfg"
	"github.com/pulsewire/pulsewire/app/collector"
	"github.com/pulsewire/pulsewire/app/config"
	"github.com/pulsewire/pulsewire/app/database"
	"github.com/pulsewire/pulsewire/app/metrics"
	"github.com/pulsewire/pulsewire/app/normalize"
	"github.com/pulsewire/pulsewire/app/runner"
	"github.com/pulsewire/pulsewire/app/scheduler"
	"github.com/pulsewire/pulsewire/app/sink"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Pulsewire collection server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	identityCache, err := buildCache(appCfg)
	if err != nil {
		slog.Error("Failed to initialize identity cache", "error", err)
		os.Exit(1)
	}
	defer identityCache.Close()

	loader := config.NewLoader(appCfg.SourcesDir)
	sources, err := loader.LoadAll()
	if err != nil {
		slog.Error("Failed to load source configurations", "error", err)
		os.Exit(1)
	}
	if len(sources) == 0 {
		slog.Warn("No source configurations found", "dir", appCfg.SourcesDir)
	}
	slog.Info("Loaded source configurations", "count", len(sources))

	httpClient := &http.Client{
		Timeout: time.Duration(appCfg.CollectorTimeout) * time.Second,
	}

	registry := collector.NewRegistry()
	timeouts := make(map[string]time.Duration, len(sources))
	for _, src := range sources {
		src := src
		factory := func() (collector.Collector, error) {
			return collector.FromConfig(src, httpClient, appCfg.UserAgent)
		}
		if err := registry.Register(src.Name, factory, src.Settings.Cadence); err != nil {
			slog.Error("Failed to register source", "source", src.Name, "error", err)
			os.Exit(1)
		}
		timeouts[src.Name] = time.Duration(src.Settings.Timeout) * time.Second
		slog.Info("Registered source", "source", src.Name, "kind", src.Kind,
			"cadence", src.Settings.Cadence, "enabled", src.Settings.Enabled)
	}

	m := metrics.New()
	recordRepo := database.NewRecordRepository(db)
	recordSink := sink.New(recordRepo, identityCache, time.Duration(appCfg.CacheTTL)*time.Second)
	coordinator := runner.NewCoordinator(registry, normalize.New(), recordSink, m,
		timeouts, time.Duration(appCfg.CollectorTimeout)*time.Second)

	sched := scheduler.New(coordinator, m, time.Duration(appCfg.ShutdownGrace)*time.Second)
	for _, src := range sources {
		if err := sched.AddEntry(src.Name, src.Settings.Cadence, src.Settings.Enabled); err != nil {
			slog.Error("Failed to add schedule entry", "source", src.Name, "error", err)
			os.Exit(1)
		}
	}
	sched.Start()
	defer sched.Stop()

	handler := api.NewHandler(sched, recordRepo, m)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(appCfg.ShutdownGrace)*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler drain happens via defer
	slog.Info("Shutdown complete")
}

func buildCache(appCfg *cfg.Cfg) (cache.IdentityCache, error) {
	if appCfg.RedisAddr == "" {
		slog.Info("Using in-process identity cache")
		return cache.NewMemoryCache(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	redisCache, err := cache.NewRedisCache(ctx, appCfg.RedisAddr)
	if err != nil {
		return nil, err
	}
	slog.Info("Connected to Redis identity cache", "addr", appCfg.RedisAddr)
	return redisCache, nil
}
