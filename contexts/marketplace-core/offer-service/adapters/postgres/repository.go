package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"halfbuilt/contexts/marketplace-core/offer-service/domain/entities"
	domainerrors "halfbuilt/contexts/marketplace-core/offer-service/domain/errors"
	"halfbuilt/contexts/marketplace-core/offer-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
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

type offerModel struct {
	OfferID            string     `gorm:"column:offer_id;primaryKey"`
	ProjectID          string     `gorm:"column:project_id"`
	BuyerID            string     `gorm:"column:buyer_id"`
	SellerID           string     `gorm:"column:seller_id"`
	OfferedPriceCents  int64      `gorm:"column:offered_price_cents"`
	OriginalPriceCents int64      `gorm:"column:original_price_cents"`
	Message            string     `gorm:"column:message"`
	Status             string     `gorm:"column:status"`
	ParentOfferID      *string    `gorm:"column:parent_offer_id"`
	ExpiresAt          time.Time  `gorm:"column:expires_at"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
	RespondedAt        *time.Time `gorm:"column:responded_at"`
}

func (offerModel) TableName() string { return "offers" }

type projectModel struct {
	ProjectID     string `gorm:"column:project_id;primaryKey"`
	SellerID      string `gorm:"column:seller_id"`
	Title         string `gorm:"column:title"`
	PriceCents    int64  `gorm:"column:price_cents"`
	MinOfferCents int64  `gorm:"column:min_offer_cents"`
	Status        string `gorm:"column:status"`
}

func (projectModel) TableName() string { return "projects" }

type userModel struct {
	UserID      string `gorm:"column:user_id;primaryKey"`
	Email       string `gorm:"column:email"`
	DisplayName string `gorm:"column:display_name"`
}

func (userModel) TableName() string { return "users" }

func (r *Repository) CreateOffer(ctx context.Context, offer entities.Offer) error {
	row := toOfferModel(offer)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		// idx_offers_one_pending_per_buyer_project: partial unique index over
		// pending rows.
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicateActiveOffer
		}
		return err
	}
	return nil
}

func (r *Repository) GetOffer(ctx context.Context, offerID string) (entities.Offer, error) {
	var row offerModel
	err := r.db.WithContext(ctx).
		Where("offer_id = ?", offerID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Offer{}, domainerrors.ErrOfferNotFound
		}
		return entities.Offer{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) FindActiveOffer(ctx context.Context, buyerID string, projectID string) (entities.Offer, bool, error) {
	var row offerModel
	err := r.db.WithContext(ctx).
		Where("buyer_id = ? AND project_id = ? AND status IN ?", buyerID, projectID, []string{
			string(entities.OfferStatusPending),
			string(entities.OfferStatusCountered),
		}).
		Order("created_at DESC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Offer{}, false, nil
		}
		return entities.Offer{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) CreateCounterOffer(ctx context.Context, parentOfferID string, respondedAt time.Time, child entities.Offer) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&offerModel{}).
			Where("offer_id = ? AND status = ?", parentOfferID, string(entities.OfferStatusPending)).
			Updates(map[string]any{
				"status":       string(entities.OfferStatusCountered),
				"responded_at": respondedAt.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrOfferNotPending
		}

		row := toOfferModel(child)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrDuplicateActiveOffer
			}
			return err
		}
		return nil
	})
}

func (r *Repository) UpdateOfferStatus(
	ctx context.Context,
	offerID string,
	from entities.OfferStatus,
	to entities.OfferStatus,
	respondedAt time.Time,
) (entities.Offer, error) {
	values := map[string]any{"status": string(to)}
	if !respondedAt.IsZero() {
		values["responded_at"] = respondedAt.UTC()
	}

	result := r.db.WithContext(ctx).
		Model(&offerModel{}).
		Where("offer_id = ? AND status = ?", offerID, string(from)).
		Updates(values)
	if result.Error != nil {
		return entities.Offer{}, result.Error
	}
	if result.RowsAffected == 0 {
		// Either the offer is gone or another actor settled it first.
		if _, err := r.GetOffer(ctx, offerID); err != nil {
			return entities.Offer{}, err
		}
		return entities.Offer{}, domainerrors.ErrOfferNotPending
	}
	return r.GetOffer(ctx, offerID)
}

func (r *Repository) ListOffersByBuyer(ctx context.Context, buyerID string, filter ports.OfferFilter) ([]entities.Offer, int, error) {
	return r.list(ctx, "buyer_id = ?", buyerID, filter)
}

func (r *Repository) ListOffersBySeller(ctx context.Context, sellerID string, filter ports.OfferFilter) ([]entities.Offer, int, error) {
	return r.list(ctx, "seller_id = ?", sellerID, filter)
}

func (r *Repository) ListOffersByProject(ctx context.Context, projectID string, filter ports.OfferFilter) ([]entities.Offer, int, error) {
	return r.list(ctx, "project_id = ?", projectID, filter)
}

func (r *Repository) list(ctx context.Context, cond string, arg string, filter ports.OfferFilter) ([]entities.Offer, int, error) {
	tx := r.db.WithContext(ctx).Model(&offerModel{}).Where(cond, arg)
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []offerModel
	offset := (filter.Page - 1) * filter.Limit
	if err := tx.Order("created_at DESC").Offset(offset).Limit(filter.Limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	items := make([]entities.Offer, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, int(total), nil
}

func (r *Repository) ListExpiredOffers(ctx context.Context, now time.Time, limit int) ([]entities.Offer, error) {
	var rows []offerModel
	err := r.db.WithContext(ctx).
		Where("status IN ? AND expires_at < ?", []string{
			string(entities.OfferStatusPending),
			string(entities.OfferStatusCountered),
		}, now.UTC()).
		Order("expires_at ASC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	items := make([]entities.Offer, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
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
		ProjectID:     row.ProjectID,
		SellerID:      row.SellerID,
		Title:         row.Title,
		PriceCents:    row.PriceCents,
		MinOfferCents: row.MinOfferCents,
		Status:        row.Status,
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

func toOfferModel(offer entities.Offer) offerModel {
	row := offerModel{
		OfferID:            offer.OfferID,
		ProjectID:          offer.ProjectID,
		BuyerID:            offer.BuyerID,
		SellerID:           offer.SellerID,
		OfferedPriceCents:  offer.OfferedPriceCents,
		OriginalPriceCents: offer.OriginalPriceCents,
		Message:            offer.Message,
		Status:             string(offer.Status),
		ExpiresAt:          offer.ExpiresAt.UTC(),
		CreatedAt:          offer.CreatedAt.UTC(),
	}
	if offer.ParentOfferID != "" {
		parent := offer.ParentOfferID
		row.ParentOfferID = &parent
	}
	if offer.RespondedAt != nil {
		responded := offer.RespondedAt.UTC()
		row.RespondedAt = &responded
	}
	return row
}

func (m offerModel) toEntity() entities.Offer {
	offer := entities.Offer{
		OfferID:            m.OfferID,
		ProjectID:          m.ProjectID,
		BuyerID:            m.BuyerID,
		SellerID:           m.SellerID,
		OfferedPriceCents:  m.OfferedPriceCents,
		OriginalPriceCents: m.OriginalPriceCents,
		Message:            m.Message,
		Status:             entities.OfferStatus(m.Status),
		ExpiresAt:          m.ExpiresAt,
		CreatedAt:          m.CreatedAt,
	}
	if m.ParentOfferID != nil {
		offer.ParentOfferID = *m.ParentOfferID
	}
	if m.RespondedAt != nil {
		responded := *m.RespondedAt
		offer.RespondedAt = &responded
	}
	return offer
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
