// Guestlink - Guest identity resolution for vacation-rental reservations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guestlink

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/tomtom215/guestlink/internal/api"
	"github.com/tomtom215/guestlink/internal/cache"
	"github.com/tomtom215/guestlink/internal/config"
	"github.com/tomtom215/guestlink/internal/eventprocessor"
	"github.com/tomtom215/guestlink/internal/guest"
	"github.com/tomtom215/guestlink/internal/hospitable"
	"github.com/tomtom215/guestlink/internal/logging"
	"github.com/tomtom215/guestlink/internal/reservation"
	"github.com/tomtom215/guestlink/internal/store"
	"github.com/tomtom215/guestlink/internal/supervisor"
	"github.com/tomtom215/guestlink/internal/supervisor/services"
	"github.com/tomtom215/guestlink/internal/sync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.LogConfig())

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Guestlink stopped with an error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

// run wires every component and blocks until SIGINT or SIGTERM. Deferred
// cleanups run in reverse order of construction before it returns.
//
//nolint:gocyclo // Sequential setup steps
func run(cfg *config.Config) error {
	logging.Info().
		Str("store_path", cfg.Store.Path).
		Bool("store_in_memory", cfg.Store.InMemory).
		Bool("nats_embedded", cfg.NATS.EmbeddedServer).
		Bool("sync_enabled", cfg.Sync.Enabled).
		Bool("webhook_enabled", cfg.Webhook.Enabled).
		Msg("Starting Guestlink with supervisor tree")

	storeCfg := storeConfig(cfg.Store)
	db, err := store.Open(&storeCfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slogLogger := logging.NewSlogLogger()
	wmLogger := watermill.NewSlogLogger(slogLogger)

	queue, err := InitQueue(ctx, cfg, wmLogger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Queue.CloseTimeout)
		defer cancel()
		queue.Shutdown(shutdownCtx)
	}()

	enqueuer, err := queue.NewEnqueuer()
	if err != nil {
		return fmt.Errorf("create link enqueuer: %w", err)
	}

	repo := reservation.NewRepository(db)
	guests := guest.NewStore(db)
	linker := guest.NewLinker(guest.NewIdentityIndex(db), guests, repo)
	linkHandler := eventprocessor.NewLinkHandler(linker)

	deps := api.Dependencies{
		Guests:       guests,
		Reservations: repo,
		Backfill:     sync.NewBackfill(repo, enqueuer),
		Batch:        eventprocessor.NewDriver(eventprocessor.HandlerLink, linkHandler.Handle),
		Publisher:    queue.Publisher(),
		WebhookTopic: queue.Topics().Webhook,
		Config:       cfg,
	}

	var scheduler *sync.Scheduler
	if client, err := hospitable.NewClient(&cfg.Hospitable); err != nil {
		logging.Warn().Err(err).Msg("Hospitable client unavailable, sync disabled")
	} else {
		manager := sync.NewManager(client, repo, guests, enqueuer, &cfg.Sync)
		deps.Sync = manager
		if cfg.Sync.Enabled {
			scheduler = sync.NewScheduler(manager, &cfg.Sync)
		}
		logging.Info().Str("base_url", cfg.Hospitable.BaseURL).Msg("Hospitable client configured")
	}

	handler := api.NewHandler(deps)
	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(cfg.Security)))

	server := &http.Server{
		Addr:              cfg.Server.ListenAddr(),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.TreeConfigFromConfig(cfg.Supervisor))
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	// Data layer
	tree.Add(supervisor.LayerData, services.NewStoreGCService(db, cfg.Store.GCInterval))

	// Messaging layer
	webhooks := eventprocessor.NewWebhookHandler(repo, enqueuer)
	if cfg.Webhook.DedupTTL > 0 {
		recent, err := cache.NewRecentSet(cfg.Webhook.DedupCapacity, cfg.Webhook.DedupTTL)
		if err != nil {
			return err
		}
		defer recent.Close()
		webhooks.WithDeduplication(recent)
	}
	tree.Add(supervisor.LayerMessaging, services.NewRouterService(queue.RouterFactory(
		linkHandler.Handle,
		webhooks.Handle,
	)))
	if scheduler != nil {
		tree.Add(supervisor.LayerMessaging, services.NewSyncService(scheduler))
		logging.Info().Dur("interval", cfg.Sync.Interval).Msg("Sync scheduler added to supervisor tree")
	}

	// API layer
	tree.Add(supervisor.LayerAPI, services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	var treeErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor to finish...")
		// ServeBackground sends exactly one value and never closes the channel.
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			treeErr = fmt.Errorf("supervisor tree: %w", err)
		}
		stop()
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	return treeErr
}

// storeConfig maps the service configuration onto store settings, keeping
// store defaults for anything left unset.
func storeConfig(cfg config.StoreConfig) store.Config {
	out := store.DefaultConfig()
	out.InMemory = cfg.InMemory
	out.SyncWrites = cfg.SyncWrites
	if cfg.Path != "" {
		out.Path = cfg.Path
	}
	if cfg.GCInterval > 0 {
		out.GCInterval = cfg.GCInterval
	}
	if cfg.GCDiscardRatio > 0 {
		out.GCDiscardRatio = cfg.GCDiscardRatio
	}
	if cfg.CloseTimeout > 0 {
		out.CloseTimeout = cfg.CloseTimeout
	}
	return out
}
