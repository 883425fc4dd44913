package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	domainerrors "halfbuilt/contexts/marketplace-core/featured-listing-service/domain/errors"
	"halfbuilt/contexts/marketplace-core/featured-listing-service/ports"

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

type placementModel struct {
	ProjectID     string     `gorm:"column:project_id;primaryKey"`
	SellerID      string     `gorm:"column:seller_id"`
	Title         string     `gorm:"column:title"`
	Status        string     `gorm:"column:status"`
	IsFeatured    bool       `gorm:"column:is_featured"`
	FeaturedUntil *time.Time `gorm:"column:featured_until"`
}

func (placementModel) TableName() string { return "projects" }

func (r *Repository) GetPlacement(ctx context.Context, projectID string) (ports.Placement, error) {
	var row placementModel
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Placement{}, domainerrors.ErrProjectNotFound
		}
		return ports.Placement{}, err
	}
	return row.toPlacement(), nil
}

func (r *Repository) SetFeatured(ctx context.Context, projectID string, until time.Time) (ports.Placement, error) {
	result := r.db.WithContext(ctx).
		Model(&placementModel{}).
		Where("project_id = ?", projectID).
		Updates(map[string]any{
			"is_featured":    true,
			"featured_until": until.UTC(),
		})
	if result.Error != nil {
		return ports.Placement{}, result.Error
	}
	if result.RowsAffected == 0 {
		return ports.Placement{}, domainerrors.ErrProjectNotFound
	}
	return r.GetPlacement(ctx, projectID)
}

func (r *Repository) ClearExpiredFeatured(ctx context.Context, now time.Time) (int, error) {
	// featured_until < now keeps the clear conditional: a purchase writing a
	// future window between list and update is left alone.
	result := r.db.WithContext(ctx).
		Model(&placementModel{}).
		Where("is_featured = ? AND featured_until < ?", true, now.UTC()).
		Updates(map[string]any{
			"is_featured":    false,
			"featured_until": nil,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

func (m placementModel) toPlacement() ports.Placement {
	placement := ports.Placement{
		ProjectID:  m.ProjectID,
		SellerID:   m.SellerID,
		Title:      m.Title,
		Status:     m.Status,
		IsFeatured: m.IsFeatured,
	}
	if m.FeaturedUntil != nil {
		until := *m.FeaturedUntil
		placement.FeaturedUntil = &until
	}
	return placement
}
