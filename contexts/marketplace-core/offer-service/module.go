package offerservice

import (
	"log/slog"
	"time"

	httpadapter "halfbuilt/contexts/marketplace-core/offer-service/adapters/http"
	"halfbuilt/contexts/marketplace-core/offer-service/adapters/memory"
	"halfbuilt/contexts/marketplace-core/offer-service/application/commands"
	"halfbuilt/contexts/marketplace-core/offer-service/application/queries"
	"halfbuilt/contexts/marketplace-core/offer-service/application/workers"
	"halfbuilt/contexts/marketplace-core/offer-service/ports"
	"halfbuilt/internal/shared/notify"
)

// Module is the composition surface for the negotiation engine. Runtime
// wiring consumes Handler and Expirer; Store is exposed for tests/inspection.
type Module struct {
	Handler httpadapter.Handler
	Expirer workers.OfferExpirer
	Store   *memory.Store
}

type Dependencies struct {
	Offers          ports.OfferRepository
	Projects        ports.ProjectCatalog
	Users           ports.UserDirectory
	Notifications   notify.Sink
	Clock           ports.Clock
	IDGenerator     ports.IDGenerator
	OfferFloorCents int64
	ExpiryWindow    time.Duration
	ExpiryBatchSize int
	Logger          *slog.Logger
}

// NewModule wires the negotiation use-cases against explicit ports.
func NewModule(deps Dependencies) Module {
	createOffer := commands.CreateOfferUseCase{
		Offers:          deps.Offers,
		Projects:        deps.Projects,
		Users:           deps.Users,
		Notifications:   deps.Notifications,
		Clock:           deps.Clock,
		IDGenerator:     deps.IDGenerator,
		OfferFloorCents: deps.OfferFloorCents,
		ExpiryWindow:    deps.ExpiryWindow,
		Logger:          deps.Logger,
	}
	counterOffer := commands.CounterOfferUseCase{
		Offers:          deps.Offers,
		Users:           deps.Users,
		Notifications:   deps.Notifications,
		Clock:           deps.Clock,
		IDGenerator:     deps.IDGenerator,
		OfferFloorCents: deps.OfferFloorCents,
		ExpiryWindow:    deps.ExpiryWindow,
		Logger:          deps.Logger,
	}
	acceptOffer := commands.AcceptOfferUseCase{
		Offers:        deps.Offers,
		Users:         deps.Users,
		Notifications: deps.Notifications,
		Clock:         deps.Clock,
		Logger:        deps.Logger,
	}
	rejectOffer := commands.RejectOfferUseCase{
		Offers:        deps.Offers,
		Users:         deps.Users,
		Notifications: deps.Notifications,
		Clock:         deps.Clock,
		Logger:        deps.Logger,
	}
	withdrawOffer := commands.WithdrawOfferUseCase{
		Offers:        deps.Offers,
		Users:         deps.Users,
		Notifications: deps.Notifications,
		Clock:         deps.Clock,
		Logger:        deps.Logger,
	}
	getOffer := queries.GetOfferUseCase{Offers: deps.Offers, Logger: deps.Logger}
	listOffers := queries.ListOffersUseCase{Offers: deps.Offers, Projects: deps.Projects, Logger: deps.Logger}

	handler := httpadapter.Handler{
		CreateOffer:   createOffer,
		CounterOffer:  counterOffer,
		AcceptOffer:   acceptOffer,
		RejectOffer:   rejectOffer,
		WithdrawOffer: withdrawOffer,
		GetOffer:      getOffer,
		ListOffers:    listOffers,
		Logger:        deps.Logger,
	}
	expirer := workers.OfferExpirer{
		Offers:        deps.Offers,
		Users:         deps.Users,
		Notifications: deps.Notifications,
		Clock:         deps.Clock,
		BatchSize:     deps.ExpiryBatchSize,
		Logger:        deps.Logger,
	}

	return Module{Handler: handler, Expirer: expirer}
}

// NewInMemoryModule wires the negotiation engine against in-memory adapters.
func NewInMemoryModule(seedProjects []ports.Project, seedUsers []ports.User, sink notify.Sink, logger *slog.Logger) Module {
	store := memory.NewStore(seedProjects, seedUsers)
	module := NewModule(Dependencies{
		Offers:        store,
		Projects:      store,
		Users:         store,
		Notifications: sink,
		Clock:         store,
		IDGenerator:   store,
		Logger:        logger,
	})
	module.Store = store
	return module
}
