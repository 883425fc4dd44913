package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"halfbuilt/contexts/marketplace-core/transaction-service/domain/entities"
	domainerrors "halfbuilt/contexts/marketplace-core/transaction-service/domain/errors"
	"halfbuilt/contexts/marketplace-core/transaction-service/ports"
	"halfbuilt/internal/shared/outbox"
)

// Store is the in-memory adapter backing tests and local runs. It implements
// TransactionRepository, OutboxRepository, ProjectCatalog, UserDirectory,
// AcceptedOfferLookup, Clock, and IDGenerator.
type Store struct {
	mu sync.RWMutex

	transactionsByID map[string]entities.Transaction
	outboxByID       map[string]outbox.Message
	outboxOrder      []string
	projects         map[string]ports.Project
	users            map[string]ports.User
	acceptedOffers   map[string]ports.AcceptedOffer

	sequence uint64
}

func NewStore(seedProjects []ports.Project, seedUsers []ports.User) *Store {
	s := &Store{
		transactionsByID: make(map[string]entities.Transaction),
		outboxByID:       make(map[string]outbox.Message),
		projects:         make(map[string]ports.Project),
		users:            make(map[string]ports.User),
		acceptedOffers:   make(map[string]ports.AcceptedOffer),
	}
	for _, project := range seedProjects {
		s.projects[project.ProjectID] = project
	}
	for _, user := range seedUsers {
		s.users[user.UserID] = user
	}
	return s
}

func (s *Store) CreateTransaction(_ context.Context, txn entities.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.transactionsByID[txn.TransactionID]; exists {
		return domainerrors.ErrInvalidTransactionRequest
	}
	s.transactionsByID[txn.TransactionID] = txn
	return nil
}

func (s *Store) GetTransaction(_ context.Context, transactionID string) (entities.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	txn, ok := s.transactionsByID[transactionID]
	if !ok {
		return entities.Transaction{}, domainerrors.ErrTransactionNotFound
	}
	return txn, nil
}

func (s *Store) FindSucceededPurchase(_ context.Context, buyerID string, projectID string) (entities.Transaction, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, txn := range s.transactionsByID {
		if txn.BuyerID == buyerID && txn.ProjectID == projectID && txn.PaymentStatus == entities.PaymentStatusSucceeded {
			return txn, true, nil
		}
	}
	return entities.Transaction{}, false, nil
}

func (s *Store) UpdatePaymentStatus(
	_ context.Context,
	transactionID string,
	from entities.PaymentStatus,
	to entities.PaymentStatus,
	msg *outbox.Message,
) (entities.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn, ok := s.transactionsByID[transactionID]
	if !ok {
		return entities.Transaction{}, domainerrors.ErrTransactionNotFound
	}
	if txn.PaymentStatus != from {
		return entities.Transaction{}, domainerrors.ErrTransactionConflict
	}
	txn.PaymentStatus = to
	s.transactionsByID[transactionID] = txn
	s.appendOutboxLocked(msg)
	return txn, nil
}

func (s *Store) ReleaseEscrow(_ context.Context, transactionID string, releasedAt time.Time, msg *outbox.Message) (entities.Transaction, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn, ok := s.transactionsByID[transactionID]
	if !ok {
		return entities.Transaction{}, false, domainerrors.ErrTransactionNotFound
	}
	if txn.EscrowStatus == entities.EscrowStatusReleased {
		return txn, false, nil
	}
	if txn.EscrowStatus != entities.EscrowStatusHeld || txn.PaymentStatus != entities.PaymentStatusSucceeded {
		return entities.Transaction{}, false, domainerrors.ErrTransactionConflict
	}

	released := releasedAt.UTC()
	txn.EscrowStatus = entities.EscrowStatusReleased
	txn.ReleasedToSellerAt = &released
	s.transactionsByID[transactionID] = txn
	s.appendOutboxLocked(msg)
	return txn, true, nil
}

func (s *Store) UpdateEscrowStatus(
	_ context.Context,
	transactionID string,
	from entities.EscrowStatus,
	to entities.EscrowStatus,
	msg *outbox.Message,
) (entities.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn, ok := s.transactionsByID[transactionID]
	if !ok {
		return entities.Transaction{}, domainerrors.ErrTransactionNotFound
	}
	if txn.EscrowStatus != from {
		return entities.Transaction{}, domainerrors.ErrTransactionConflict
	}
	txn.EscrowStatus = to
	s.transactionsByID[transactionID] = txn
	s.appendOutboxLocked(msg)
	return txn, nil
}

func (s *Store) MarkCodeAccessed(_ context.Context, transactionID string, accessedAt time.Time) (entities.Transaction, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn, ok := s.transactionsByID[transactionID]
	if !ok {
		return entities.Transaction{}, false, domainerrors.ErrTransactionNotFound
	}
	if txn.CodeAccessedAt != nil {
		return txn, false, nil
	}
	accessed := accessedAt.UTC()
	txn.CodeAccessedAt = &accessed
	txn.CodeDeliveryStatus = entities.CodeDeliveryAccessed
	s.transactionsByID[transactionID] = txn
	return txn, true, nil
}

func (s *Store) ListTransactionsByBuyer(_ context.Context, buyerID string, filter ports.TransactionFilter) ([]entities.Transaction, int, error) {
	return s.list(func(txn entities.Transaction) bool { return txn.BuyerID == buyerID }, filter)
}

func (s *Store) ListTransactionsBySeller(_ context.Context, sellerID string, filter ports.TransactionFilter) ([]entities.Transaction, int, error) {
	return s.list(func(txn entities.Transaction) bool { return txn.SellerID == sellerID }, filter)
}

func (s *Store) list(match func(entities.Transaction) bool, filter ports.TransactionFilter) ([]entities.Transaction, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []entities.Transaction
	for _, txn := range s.transactionsByID {
		if !match(txn) {
			continue
		}
		if filter.PaymentStatus != "" && txn.PaymentStatus != filter.PaymentStatus {
			continue
		}
		rows = append(rows, txn)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].TransactionID < rows[j].TransactionID
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})

	total := len(rows)
	start := (filter.Page - 1) * filter.Limit
	if start >= total {
		return []entities.Transaction{}, total, nil
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return append([]entities.Transaction(nil), rows[start:end]...), total, nil
}

func (s *Store) ListDueEscrowReleases(_ context.Context, now time.Time, limit int) ([]entities.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []entities.Transaction
	for _, txn := range s.transactionsByID {
		if txn.EscrowStatus != entities.EscrowStatusHeld || txn.PaymentStatus != entities.PaymentStatusSucceeded {
			continue
		}
		if txn.EscrowReleaseDate.After(now.UTC()) {
			continue
		}
		rows = append(rows, txn)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].EscrowReleaseDate.Before(rows[j].EscrowReleaseDate) })
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *Store) appendOutboxLocked(msg *outbox.Message) {
	if msg == nil {
		return
	}
	if _, exists := s.outboxByID[msg.OutboxID]; exists {
		return
	}
	s.outboxByID[msg.OutboxID] = *msg
	s.outboxOrder = append(s.outboxOrder, msg.OutboxID)
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]outbox.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []outbox.Message
	for _, id := range s.outboxOrder {
		message := s.outboxByID[id]
		if message.Status != outbox.StatusPending {
			continue
		}
		rows = append(rows, message)
		if limit > 0 && len(rows) >= limit {
			break
		}
	}
	return rows, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, outboxID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	message, ok := s.outboxByID[outboxID]
	if !ok {
		return domainerrors.ErrTransactionNotFound
	}
	sent := sentAt.UTC()
	message.Status = outbox.StatusSent
	message.SentAt = &sent
	s.outboxByID[outboxID] = message
	return nil
}

func (s *Store) GetProject(_ context.Context, projectID string) (ports.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	project, ok := s.projects[projectID]
	if !ok {
		return ports.Project{}, domainerrors.ErrProjectNotFound
	}
	return project, nil
}

// PutProject upserts a catalog row; used by tests to stage listing state.
func (s *Store) PutProject(project ports.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[project.ProjectID] = project
}

func (s *Store) GetUser(_ context.Context, userID string) (ports.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return ports.User{}, domainerrors.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) GetAcceptedOffer(_ context.Context, offerID string) (ports.AcceptedOffer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	offer, ok := s.acceptedOffers[offerID]
	if !ok {
		return ports.AcceptedOffer{}, domainerrors.ErrOfferNotFound
	}
	return offer, nil
}

// PutAcceptedOffer stages a negotiation read model row for tests.
func (s *Store) PutAcceptedOffer(offer ports.AcceptedOffer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acceptedOffers[offer.OfferID] = offer
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	value := atomic.AddUint64(&s.sequence, 1)
	return fmt.Sprintf("txn-%d", value), nil
}
