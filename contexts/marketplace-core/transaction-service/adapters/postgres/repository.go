package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"halfbuilt/contexts/marketplace-core/transaction-service/domain/entities"
	domainerrors "halfbuilt/contexts/marketplace-core/transaction-service/domain/errors"
	"halfbuilt/contexts/marketplace-core/transaction-service/ports"
	"halfbuilt/internal/shared/outbox"

	"gorm.io/gorm"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

type transactionModel struct {
	TransactionID       string     `gorm:"column:transaction_id;primaryKey"`
	ProjectID           string     `gorm:"column:project_id"`
	BuyerID             string     `gorm:"column:buyer_id"`
	SellerID            string     `gorm:"column:seller_id"`
	AcceptedOfferID     *string    `gorm:"column:accepted_offer_id"`
	AmountCents         int64      `gorm:"column:amount_cents"`
	CommissionCents     int64      `gorm:"column:commission_cents"`
	SellerReceivesCents int64      `gorm:"column:seller_receives_cents"`
	PaymentStatus       string     `gorm:"column:payment_status"`
	EscrowStatus        string     `gorm:"column:escrow_status"`
	EscrowReleaseDate   time.Time  `gorm:"column:escrow_release_date"`
	ReleasedToSellerAt  *time.Time `gorm:"column:released_to_seller_at"`
	CodeDeliveryStatus  string     `gorm:"column:code_delivery_status"`
	CodeAccessedAt      *time.Time `gorm:"column:code_accessed_at"`
	CreatedAt           time.Time  `gorm:"column:created_at"`
}

func (transactionModel) TableName() string { return "transactions" }

type outboxModel struct {
	OutboxID   string     `gorm:"column:outbox_id;primaryKey"`
	EventType  string     `gorm:"column:event_type"`
	Payload    []byte     `gorm:"column:payload"`
	Status     string     `gorm:"column:status"`
	RetryCount int        `gorm:"column:retry_count"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
	SentAt     *time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string { return "transaction_outbox" }

type projectModel struct {
	ProjectID  string `gorm:"column:project_id;primaryKey"`
	SellerID   string `gorm:"column:seller_id"`
	Title      string `gorm:"column:title"`
	PriceCents int64  `gorm:"column:price_cents"`
	Status     string `gorm:"column:status"`
}

func (projectModel) TableName() string { return "projects" }

type userModel struct {
	UserID      string `gorm:"column:user_id;primaryKey"`
	Email       string `gorm:"column:email"`
	DisplayName string `gorm:"column:display_name"`
}

func (userModel) TableName() string { return "users" }

type acceptedOfferModel struct {
	OfferID           string `gorm:"column:offer_id;primaryKey"`
	ProjectID         string `gorm:"column:project_id"`
	BuyerID           string `gorm:"column:buyer_id"`
	OfferedPriceCents int64  `gorm:"column:offered_price_cents"`
	Status            string `gorm:"column:status"`
}

func (acceptedOfferModel) TableName() string { return "offers" }

func (r *Repository) CreateTransaction(ctx context.Context, txn entities.Transaction) error {
	row := toTransactionModel(txn)
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *Repository) GetTransaction(ctx context.Context, transactionID string) (entities.Transaction, error) {
	var row transactionModel
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Transaction{}, domainerrors.ErrTransactionNotFound
		}
		return entities.Transaction{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) FindSucceededPurchase(ctx context.Context, buyerID string, projectID string) (entities.Transaction, bool, error) {
	var row transactionModel
	err := r.db.WithContext(ctx).
		Where("buyer_id = ? AND project_id = ? AND payment_status = ?",
			buyerID, projectID, string(entities.PaymentStatusSucceeded)).
		Order("created_at DESC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Transaction{}, false, nil
		}
		return entities.Transaction{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) UpdatePaymentStatus(
	ctx context.Context,
	transactionID string,
	from entities.PaymentStatus,
	to entities.PaymentStatus,
	msg *outbox.Message,
) (entities.Transaction, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&transactionModel{}).
			Where("transaction_id = ? AND payment_status = ?", transactionID, string(from)).
			Update("payment_status", string(to))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrTransactionConflict
		}
		return appendOutbox(tx, msg)
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrTransactionConflict) {
			// Either the transaction is gone or the status diverged.
			if _, getErr := r.GetTransaction(ctx, transactionID); getErr != nil {
				return entities.Transaction{}, getErr
			}
		}
		return entities.Transaction{}, err
	}
	return r.GetTransaction(ctx, transactionID)
}

func (r *Repository) ReleaseEscrow(ctx context.Context, transactionID string, releasedAt time.Time, msg *outbox.Message) (entities.Transaction, bool, error) {
	performed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&transactionModel{}).
			Where("transaction_id = ? AND escrow_status = ? AND payment_status = ?",
				transactionID, string(entities.EscrowStatusHeld), string(entities.PaymentStatusSucceeded)).
			Updates(map[string]any{
				"escrow_status":         string(entities.EscrowStatusReleased),
				"released_to_seller_at": releasedAt.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		performed = true
		return appendOutbox(tx, msg)
	})
	if err != nil {
		return entities.Transaction{}, false, err
	}

	txn, err := r.GetTransaction(ctx, transactionID)
	if err != nil {
		return entities.Transaction{}, false, err
	}
	if !performed && txn.EscrowStatus != entities.EscrowStatusReleased {
		return entities.Transaction{}, false, domainerrors.ErrTransactionConflict
	}
	return txn, performed, nil
}

func (r *Repository) UpdateEscrowStatus(
	ctx context.Context,
	transactionID string,
	from entities.EscrowStatus,
	to entities.EscrowStatus,
	msg *outbox.Message,
) (entities.Transaction, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&transactionModel{}).
			Where("transaction_id = ? AND escrow_status = ?", transactionID, string(from)).
			Update("escrow_status", string(to))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrTransactionConflict
		}
		return appendOutbox(tx, msg)
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrTransactionConflict) {
			if _, getErr := r.GetTransaction(ctx, transactionID); getErr != nil {
				return entities.Transaction{}, getErr
			}
		}
		return entities.Transaction{}, err
	}
	return r.GetTransaction(ctx, transactionID)
}

func (r *Repository) MarkCodeAccessed(ctx context.Context, transactionID string, accessedAt time.Time) (entities.Transaction, bool, error) {
	result := r.db.WithContext(ctx).
		Model(&transactionModel{}).
		Where("transaction_id = ? AND code_accessed_at IS NULL", transactionID).
		Updates(map[string]any{
			"code_delivery_status": string(entities.CodeDeliveryAccessed),
			"code_accessed_at":     accessedAt.UTC(),
		})
	if result.Error != nil {
		return entities.Transaction{}, false, result.Error
	}

	txn, err := r.GetTransaction(ctx, transactionID)
	if err != nil {
		return entities.Transaction{}, false, err
	}
	return txn, result.RowsAffected > 0, nil
}

func (r *Repository) ListTransactionsByBuyer(ctx context.Context, buyerID string, filter ports.TransactionFilter) ([]entities.Transaction, int, error) {
	return r.list(ctx, "buyer_id = ?", buyerID, filter)
}

func (r *Repository) ListTransactionsBySeller(ctx context.Context, sellerID string, filter ports.TransactionFilter) ([]entities.Transaction, int, error) {
	return r.list(ctx, "seller_id = ?", sellerID, filter)
}

func (r *Repository) list(ctx context.Context, cond string, arg string, filter ports.TransactionFilter) ([]entities.Transaction, int, error) {
	tx := r.db.WithContext(ctx).Model(&transactionModel{}).Where(cond, arg)
	if filter.PaymentStatus != "" {
		tx = tx.Where("payment_status = ?", string(filter.PaymentStatus))
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []transactionModel
	offset := (filter.Page - 1) * filter.Limit
	if err := tx.Order("created_at DESC").Offset(offset).Limit(filter.Limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	items := make([]entities.Transaction, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, int(total), nil
}

func (r *Repository) ListDueEscrowReleases(ctx context.Context, now time.Time, limit int) ([]entities.Transaction, error) {
	var rows []transactionModel
	err := r.db.WithContext(ctx).
		Where("escrow_status = ? AND payment_status = ? AND escrow_release_date <= ?",
			string(entities.EscrowStatusHeld), string(entities.PaymentStatusSucceeded), now.UTC()).
		Order("escrow_release_date ASC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	items := make([]entities.Transaction, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]outbox.Message, error) {
	var rows []outboxModel
	err := r.db.WithContext(ctx).
		Where("status = ?", outbox.StatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	items := make([]outbox.Message, 0, len(rows))
	for _, row := range rows {
		items = append(items, outbox.Message{
			OutboxID:   row.OutboxID,
			EventType:  row.EventType,
			Payload:    row.Payload,
			Status:     row.Status,
			RetryCount: row.RetryCount,
			CreatedAt:  row.CreatedAt,
			SentAt:     row.SentAt,
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ? AND status = ?", outboxID, outbox.StatusPending).
		Updates(map[string]any{
			"status":  outbox.StatusSent,
			"sent_at": sentAt.UTC(),
		})
	return result.Error
}

func (r *Repository) GetProject(ctx context.Context, projectID string) (ports.Project, error) {
	var row projectModel
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Project{}, domainerrors.ErrProjectNotFound
		}
		return ports.Project{}, err
	}
	return ports.Project{
		ProjectID:  row.ProjectID,
		SellerID:   row.SellerID,
		Title:      row.Title,
		PriceCents: row.PriceCents,
		Status:     row.Status,
	}, nil
}

func (r *Repository) GetUser(ctx context.Context, userID string) (ports.User, error) {
	var row userModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.User{}, domainerrors.ErrUserNotFound
		}
		return ports.User{}, err
	}
	return ports.User{UserID: row.UserID, Email: row.Email, DisplayName: row.DisplayName}, nil
}

func (r *Repository) GetAcceptedOffer(ctx context.Context, offerID string) (ports.AcceptedOffer, error) {
	var row acceptedOfferModel
	err := r.db.WithContext(ctx).
		Where("offer_id = ?", offerID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.AcceptedOffer{}, domainerrors.ErrOfferNotFound
		}
		return ports.AcceptedOffer{}, err
	}
	return ports.AcceptedOffer{
		OfferID:    row.OfferID,
		ProjectID:  row.ProjectID,
		BuyerID:    row.BuyerID,
		PriceCents: row.OfferedPriceCents,
		Status:     row.Status,
	}, nil
}

func appendOutbox(tx *gorm.DB, msg *outbox.Message) error {
	if msg == nil {
		return nil
	}
	row := outboxModel{
		OutboxID:   msg.OutboxID,
		EventType:  msg.EventType,
		Payload:    msg.Payload,
		Status:     msg.Status,
		RetryCount: msg.RetryCount,
		CreatedAt:  msg.CreatedAt.UTC(),
		SentAt:     msg.SentAt,
	}
	return tx.Create(&row).Error
}

func toTransactionModel(txn entities.Transaction) transactionModel {
	row := transactionModel{
		TransactionID:       txn.TransactionID,
		ProjectID:           txn.ProjectID,
		BuyerID:             txn.BuyerID,
		SellerID:            txn.SellerID,
		AmountCents:         txn.AmountCents,
		CommissionCents:     txn.CommissionCents,
		SellerReceivesCents: txn.SellerReceivesCents,
		PaymentStatus:       string(txn.PaymentStatus),
		EscrowStatus:        string(txn.EscrowStatus),
		EscrowReleaseDate:   txn.EscrowReleaseDate.UTC(),
		CodeDeliveryStatus:  string(txn.CodeDeliveryStatus),
		CreatedAt:           txn.CreatedAt.UTC(),
	}
	if txn.AcceptedOfferID != "" {
		offerID := txn.AcceptedOfferID
		row.AcceptedOfferID = &offerID
	}
	if txn.ReleasedToSellerAt != nil {
		released := txn.ReleasedToSellerAt.UTC()
		row.ReleasedToSellerAt = &released
	}
	if txn.CodeAccessedAt != nil {
		accessed := txn.CodeAccessedAt.UTC()
		row.CodeAccessedAt = &accessed
	}
	return row
}

func (m transactionModel) toEntity() entities.Transaction {
	txn := entities.Transaction{
		TransactionID:       m.TransactionID,
		ProjectID:           m.ProjectID,
		BuyerID:             m.BuyerID,
		SellerID:            m.SellerID,
		AmountCents:         m.AmountCents,
		CommissionCents:     m.CommissionCents,
		SellerReceivesCents: m.SellerReceivesCents,
		PaymentStatus:       entities.PaymentStatus(m.PaymentStatus),
		EscrowStatus:        entities.EscrowStatus(m.EscrowStatus),
		EscrowReleaseDate:   m.EscrowReleaseDate,
		CodeDeliveryStatus:  entities.CodeDeliveryStatus(m.CodeDeliveryStatus),
		CreatedAt:           m.CreatedAt,
	}
	if m.AcceptedOfferID != nil {
		txn.AcceptedOfferID = *m.AcceptedOfferID
	}
	if m.ReleasedToSellerAt != nil {
		released := *m.ReleasedToSellerAt
		txn.ReleasedToSellerAt = &released
	}
	if m.CodeAccessedAt != nil {
		accessed := *m.CodeAccessedAt
		txn.CodeAccessedAt = &accessed
	}
	return txn
}
