package transactionservice

import (
	"log/slog"
	"time"

	httpadapter "halfbuilt/contexts/marketplace-core/transaction-service/adapters/http"
	"halfbuilt/contexts/marketplace-core/transaction-service/adapters/memory"
	"halfbuilt/contexts/marketplace-core/transaction-service/application/commands"
	"halfbuilt/contexts/marketplace-core/transaction-service/application/queries"
	"halfbuilt/contexts/marketplace-core/transaction-service/application/workers"
	"halfbuilt/contexts/marketplace-core/transaction-service/ports"
	"halfbuilt/internal/shared/notify"
)

// Module is the composition surface for the settlement engine. Runtime
// wiring consumes Handler and the workers; Store is exposed for tests.
type Module struct {
	Handler  httpadapter.Handler
	Releaser workers.EscrowReleaser
	Relay    workers.OutboxRelay
	Store    *memory.Store
}

type Dependencies struct {
	Transactions        ports.TransactionRepository
	Outbox              ports.OutboxRepository
	Publisher           ports.EventPublisher
	Projects            ports.ProjectCatalog
	Offers              ports.AcceptedOfferLookup
	Users               ports.UserDirectory
	Notifications       notify.Sink
	Clock               ports.Clock
	IDGenerator         ports.IDGenerator
	CommissionRateBasis int64
	EscrowHoldingPeriod time.Duration
	ReleaseBatchSize    int
	OutboxBatchSize     int
	OutboxTopic         string
	Logger              *slog.Logger
}

// NewModule wires the settlement use-cases against explicit ports.
func NewModule(deps Dependencies) Module {
	createTransaction := commands.CreateTransactionUseCase{
		Transactions:        deps.Transactions,
		Projects:            deps.Projects,
		Offers:              deps.Offers,
		Users:               deps.Users,
		Notifications:       deps.Notifications,
		Clock:               deps.Clock,
		IDGenerator:         deps.IDGenerator,
		CommissionRateBasis: deps.CommissionRateBasis,
		EscrowHoldingPeriod: deps.EscrowHoldingPeriod,
		Logger:              deps.Logger,
	}
	recordPayment := commands.RecordPaymentUseCase{
		Transactions:  deps.Transactions,
		Users:         deps.Users,
		Notifications: deps.Notifications,
		Clock:         deps.Clock,
		IDGenerator:   deps.IDGenerator,
		Logger:        deps.Logger,
	}
	releaseEscrow := commands.ReleaseEscrowUseCase{
		Transactions:  deps.Transactions,
		Users:         deps.Users,
		Notifications: deps.Notifications,
		Clock:         deps.Clock,
		IDGenerator:   deps.IDGenerator,
		Logger:        deps.Logger,
	}
	markCodeAccessed := commands.MarkCodeAccessedUseCase{
		Transactions: deps.Transactions,
		Clock:        deps.Clock,
		Logger:       deps.Logger,
	}
	refund := commands.RefundTransactionUseCase{
		Transactions:  deps.Transactions,
		Users:         deps.Users,
		Notifications: deps.Notifications,
		Clock:         deps.Clock,
		Logger:        deps.Logger,
	}
	disputeEscrow := commands.DisputeEscrowUseCase{
		Transactions:  deps.Transactions,
		Users:         deps.Users,
		Notifications: deps.Notifications,
		Clock:         deps.Clock,
		IDGenerator:   deps.IDGenerator,
		Logger:        deps.Logger,
	}
	resolveDispute := commands.ResolveDisputeUseCase{
		Transactions: deps.Transactions,
		Release:      releaseEscrow,
		Refund:       refund,
		Logger:       deps.Logger,
	}
	getTransaction := queries.GetTransactionUseCase{Transactions: deps.Transactions, Logger: deps.Logger}
	listTransactions := queries.ListTransactionsUseCase{Transactions: deps.Transactions, Logger: deps.Logger}

	handler := httpadapter.Handler{
		CreateTransaction: createTransaction,
		RecordPayment:     recordPayment,
		ReleaseEscrow:     releaseEscrow,
		MarkCodeAccessed:  markCodeAccessed,
		Refund:            refund,
		DisputeEscrow:     disputeEscrow,
		ResolveDispute:    resolveDispute,
		GetTransaction:    getTransaction,
		ListTransactions:  listTransactions,
		Logger:            deps.Logger,
	}
	releaser := workers.EscrowReleaser{
		Transactions: deps.Transactions,
		Release:      releaseEscrow,
		Clock:        deps.Clock,
		BatchSize:    deps.ReleaseBatchSize,
		Logger:       deps.Logger,
	}
	relay := workers.OutboxRelay{
		Outbox:    deps.Outbox,
		Publisher: deps.Publisher,
		Clock:     deps.Clock,
		Topic:     deps.OutboxTopic,
		BatchSize: deps.OutboxBatchSize,
		Logger:    deps.Logger,
	}

	return Module{Handler: handler, Releaser: releaser, Relay: relay}
}

// NewInMemoryModule wires the settlement engine against in-memory adapters.
func NewInMemoryModule(seedProjects []ports.Project, seedUsers []ports.User, publisher ports.EventPublisher, sink notify.Sink, logger *slog.Logger) Module {
	store := memory.NewStore(seedProjects, seedUsers)
	module := NewModule(Dependencies{
		Transactions:  store,
		Outbox:        store,
		Publisher:     publisher,
		Projects:      store,
		Offers:        store,
		Users:         store,
		Notifications: sink,
		Clock:         store,
		IDGenerator:   store,
		Logger:        logger,
	})
	module.Store = store
	return module
}
