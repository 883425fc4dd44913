package featuredservice

import (
	"log/slog"

	httpadapter "halfbuilt/contexts/marketplace-core/featured-listing-service/adapters/http"
	"halfbuilt/contexts/marketplace-core/featured-listing-service/adapters/memory"
	"halfbuilt/contexts/marketplace-core/featured-listing-service/application"
	"halfbuilt/contexts/marketplace-core/featured-listing-service/ports"
)

// Module is the composition surface for the placement engine. The worker
// runtime calls Service.CleanupExpired directly on its sweep tick.
type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repo   ports.PlacementRepository
	Clock  ports.Clock
	Tiers  []application.Tier
	Logger *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:   deps.Repo,
		Clock:  deps.Clock,
		Tiers:  deps.Tiers,
		Logger: deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{Service: service, Logger: deps.Logger},
		Service: service,
	}
}

// NewInMemoryModule wires the placement engine against the in-memory store.
func NewInMemoryModule(seed []ports.Placement, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{Repo: store, Clock: store, Logger: logger})
	module.Store = store
	return module
}
