// Package main provides the entry point for zonelens.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"

	"github.com/zonelens/zonelens/internal/api"
	"github.com/zonelens/zonelens/internal/cloudflare"
	"github.com/zonelens/zonelens/internal/config"
	"github.com/zonelens/zonelens/internal/storage"
	"github.com/zonelens/zonelens/internal/syncer"
	"github.com/zonelens/zonelens/internal/version"
)

func main() {
	// Parse CLI flags
	configPath := flag.StringP("config", "c", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("zonelens %s\n", version.Version)
		os.Exit(0)
	}

	// Setup logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Configure log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Configure log format
	if cfg.LogFormat == "text" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "3:04:05PM",
		})
	}

	log.Info().
		Str("version", version.Version).
		Str("address", cfg.Api.Address).
		Msg("Starting zonelens")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, gracefully shutting down...")
		cancel()
	}()

	if err := run(ctx, cfg); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("Runtime error")
	}

	log.Info().Msg("Zonelens stopped")
}

// run wires the cache, syncer and API server together and blocks until the
// context is cancelled.
func run(ctx context.Context, cfg *config.Config) error {
	// Initialize storage
	store, err := storage.NewSQLiteStorage(cfg.Db.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Initialize(ctx); err != nil {
		return err
	}
	log.Info().Str("path", cfg.Db.Path).Msg("Storage initialized")

	// Pooled Cloudflare clients, one per distinct token
	pool := cloudflare.NewClientPool()

	// Event hub for dashboard WebSockets
	hub := api.NewHub()

	// Initialize syncer
	sy := syncer.NewSyncer(&syncer.Config{
		Factory:     syncer.CloudflareFactory(pool),
		Storage:     store,
		Events:      hub,
		APIToken:    cfg.Cloudflare.APIToken,
		Interval:    cfg.Sync.Interval,
		SyncOnStart: cfg.Sync.OnStart,
	})

	// Warm the snapshot from the cache so the dashboard has data before
	// the first sync finishes.
	if set, err := sy.RefreshSnapshot(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to load cached records")
	} else if set.Len() > 0 {
		log.Info().Int("records", set.Len()).Msg("Loaded cached records")
	}

	// Start API server
	apiServer := api.NewServer(&api.Config{
		Address:  cfg.Api.Address,
		BasePath: cfg.Api.BasePath,
		Token:    cfg.Api.Token,
		Storage:  store,
		Syncer:   sy,
		Relay:    api.NewCloudflareRelay(pool),
		Hub:      hub,
		Version:  version.Version,
	})
	go func() {
		if err := apiServer.Start(ctx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("API server error")
		}
	}()

	// Run syncer
	return sy.Run(ctx)
}
