package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	featuredservice "halfbuilt/contexts/marketplace-core/featured-listing-service"
	featuredapp "halfbuilt/contexts/marketplace-core/featured-listing-service/adapters/postgres"
	featuredapplication "halfbuilt/contexts/marketplace-core/featured-listing-service/application"
	offerservice "halfbuilt/contexts/marketplace-core/offer-service"
	offerpostgres "halfbuilt/contexts/marketplace-core/offer-service/adapters/postgres"
	offerworkers "halfbuilt/contexts/marketplace-core/offer-service/application/workers"
	transactionservice "halfbuilt/contexts/marketplace-core/transaction-service"
	txnpostgres "halfbuilt/contexts/marketplace-core/transaction-service/adapters/postgres"
	txnworkers "halfbuilt/contexts/marketplace-core/transaction-service/application/workers"
	"halfbuilt/internal/platform/config"
	"halfbuilt/internal/platform/db"
	"halfbuilt/internal/platform/httpserver"
	"halfbuilt/internal/platform/messaging"
	"halfbuilt/internal/shared/notify"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server        *httpserver.Server
	postgres      *db.Postgres
	notifications *notify.AsyncSink
	logger        *slog.Logger
}

type WorkerApp struct {
	postgres        *db.Postgres
	notifications   *notify.AsyncSink
	offerExpirer    offerworkers.OfferExpirer
	escrowReleaser  txnworkers.EscrowReleaser
	outboxRelay     txnworkers.OutboxRelay
	featuredCleanup featuredapplication.Service
	pollInterval    time.Duration
	logger          *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	sink := notify.NewAsyncSink(notify.LogSink{Logger: logger}, 256, logger)
	bus := messaging.NewBus(logger)

	offers, transactions, featured := buildModules(pg, sink, bus, cfg.Marketplace, logger)
	server := httpserver.New(offers, transactions, featured, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:        server,
		postgres:      pg,
		notifications: sink,
		logger:        logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	sink := notify.NewAsyncSink(notify.LogSink{Logger: logger}, 256, logger)
	bus := messaging.NewBus(logger)

	offers, transactions, featured := buildModules(pg, sink, bus, cfg.Marketplace, logger)
	return &WorkerApp{
		postgres:        pg,
		notifications:   sink,
		offerExpirer:    offers.Expirer,
		escrowReleaser:  transactions.Releaser,
		outboxRelay:     transactions.Relay,
		featuredCleanup: featured.Service,
		pollInterval:    cfg.Marketplace.SweepInterval,
		logger:          logger,
	}, nil
}

func buildModules(
	pg *db.Postgres,
	sink notify.Sink,
	bus *messaging.Bus,
	cfg config.Marketplace,
	logger *slog.Logger,
) (offerservice.Module, transactionservice.Module, featuredservice.Module) {
	offerRepo := offerpostgres.NewRepository(pg.DB, logger)
	offers := offerservice.NewModule(offerservice.Dependencies{
		Offers:          offerRepo,
		Projects:        offerRepo,
		Users:           offerRepo,
		Notifications:   sink,
		Clock:           offerpostgres.SystemClock{},
		IDGenerator:     offerpostgres.UUIDGenerator{},
		OfferFloorCents: cfg.OfferFloorCents,
		ExpiryWindow:    cfg.OfferExpiryWindow,
		ExpiryBatchSize: cfg.SweepBatchSize,
		Logger:          logger,
	})

	txnRepo := txnpostgres.NewRepository(pg.DB, logger)
	transactions := transactionservice.NewModule(transactionservice.Dependencies{
		Transactions:        txnRepo,
		Outbox:              txnRepo,
		Publisher:           bus,
		Projects:            txnRepo,
		Offers:              txnRepo,
		Users:               txnRepo,
		Notifications:       sink,
		Clock:               txnpostgres.SystemClock{},
		IDGenerator:         txnpostgres.UUIDGenerator{},
		CommissionRateBasis: cfg.CommissionRateBasisPoints,
		EscrowHoldingPeriod: cfg.EscrowHoldingPeriod,
		ReleaseBatchSize:    cfg.SweepBatchSize,
		OutboxBatchSize:     cfg.OutboxBatchSize,
		OutboxTopic:         cfg.OutboxTopic,
		Logger:              logger,
	})

	featured := featuredservice.NewModule(featuredservice.Dependencies{
		Repo:   featuredapp.NewRepository(pg.DB, logger),
		Clock:  featuredapp.SystemClock{},
		Tiers:  featuredTiers(cfg),
		Logger: logger,
	})
	return offers, transactions, featured
}

func featuredTiers(cfg config.Marketplace) []featuredapplication.Tier {
	if len(cfg.FeaturedTierDays) != len(cfg.FeaturedTierPriceCents) {
		return featuredapplication.DefaultTiers
	}
	tiers := make([]featuredapplication.Tier, 0, len(cfg.FeaturedTierDays))
	for i, days := range cfg.FeaturedTierDays {
		tiers = append(tiers, featuredapplication.Tier{
			Days:       days,
			PriceCents: cfg.FeaturedTierPriceCents[i],
		})
	}
	return tiers
}

func (a *APIApp) Run(ctx context.Context) error {
	a.notifications.Start(ctx)
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.notifications != nil {
		a.notifications.Close()
	}
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	w.notifications.Start(ctx)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		// Sweeps log their own per-record failures; a failing cycle waits for
		// the next tick instead of killing the process.
		if _, err := w.offerExpirer.RunOnce(ctx); err != nil {
			w.logSweepError("offer_expirer", err)
		}
		if _, err := w.escrowReleaser.RunOnce(ctx); err != nil {
			w.logSweepError("escrow_releaser", err)
		}
		if _, err := w.featuredCleanup.CleanupExpired(ctx); err != nil {
			w.logSweepError("featured_cleanup", err)
		}
		if err := w.outboxRelay.RunOnce(ctx); err != nil {
			w.logSweepError("outbox_relay", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) logSweepError(sweep string, err error) {
	w.logger.Error("sweep cycle failed",
		"event", "bootstrap_sweep_failed",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"sweep", sweep,
		"error", err.Error(),
	)
}

func (w *WorkerApp) Close() error {
	if w.notifications != nil {
		w.notifications.Close()
	}
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
