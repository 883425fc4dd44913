package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string

	Marketplace Marketplace
}

// Marketplace holds the business constants of the negotiation, settlement,
// and placement engines. Values are part of the external contract; tests
// assert against these names, never magic numbers.
type Marketplace struct {
	OfferFloorCents           int64
	OfferExpiryWindow         time.Duration
	CommissionRateBasisPoints int64
	EscrowHoldingPeriod       time.Duration
	FeaturedTierDays          []int
	FeaturedTierPriceCents    []int64

	SweepInterval   time.Duration
	SweepBatchSize  int
	OutboxBatchSize int
	OutboxTopic     string
}

func Load() (Config, error) {
	// Local runs keep overrides in .env; the file is optional.
	_ = godotenv.Load()

	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "halfbuilt"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	return Config{
		ServiceName: service,
		HTTPPort:    port,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		Marketplace: Marketplace{
			OfferFloorCents:           envInt64("OFFER_FLOOR_CENTS", 500),
			OfferExpiryWindow:         envDays("OFFER_EXPIRY_DAYS", 7),
			CommissionRateBasisPoints: envInt64("COMMISSION_RATE_BASIS_POINTS", 1800),
			EscrowHoldingPeriod:       envDays("ESCROW_HOLDING_DAYS", 7),
			FeaturedTierDays:          []int{7, 14, 30},
			FeaturedTierPriceCents:    []int64{1999, 3499, 5999},

			SweepInterval:   envDuration("SWEEP_INTERVAL", time.Minute),
			SweepBatchSize:  envInt("SWEEP_BATCH_SIZE", 100),
			OutboxBatchSize: envInt("OUTBOX_BATCH_SIZE", 100),
			OutboxTopic:     envString("OUTBOX_TOPIC", "marketplace.transactions"),
		},
	}, nil
}

func envString(name string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func envInt64(name string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func envDays(name string, fallback int) time.Duration {
	return time.Duration(envInt(name, fallback)) * 24 * time.Hour
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
