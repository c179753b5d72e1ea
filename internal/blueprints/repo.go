package blueprints

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Comnyando/craftstock-backend/pkg/db/models"
	pkgerrors "github.com/Comnyando/craftstock-backend/pkg/errors"
)

// Repository manages blueprint reference data. Blueprints are immutable for
// the lifetime of any craft that references them; the engine only bumps
// usage_count on completion.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetByID(ctx context.Context, id uuid.UUID) (*models.Blueprint, error)
	ListVisible(ctx context.Context, limit int) ([]models.Blueprint, error)
	ListProducing(ctx context.Context, outputItemID uuid.UUID) ([]models.Blueprint, error)
	IncrementUsage(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a blueprint repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Blueprint, error) {
	var bp models.Blueprint
	err := r.db.WithContext(ctx).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&bp, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "blueprint not found")
		}
		return nil, err
	}
	return &bp, nil
}

func (r *repository) ListVisible(ctx context.Context, limit int) ([]models.Blueprint, error) {
	var bps []models.Blueprint
	q := r.db.WithContext(ctx).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("is_public = ?", true).
		Order("usage_count DESC").
		Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&bps).Error; err != nil {
		return nil, err
	}
	return bps, nil
}

func (r *repository) ListProducing(ctx context.Context, outputItemID uuid.UUID) ([]models.Blueprint, error) {
	var bps []models.Blueprint
	err := r.db.WithContext(ctx).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("output_item_id = ? AND is_public = ?", outputItemID, true).
		Order("usage_count DESC").
		Order("id ASC").
		Find(&bps).Error
	if err != nil {
		return nil, err
	}
	return bps, nil
}

func (r *repository) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Blueprint{}).
		Where("id = ?", id).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error
}
