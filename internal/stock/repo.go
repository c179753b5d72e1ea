package stock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Comnyando/craftstock-backend/pkg/db/models"
	pkgerrors "github.com/Comnyando/craftstock-backend/pkg/errors"
	"github.com/Comnyando/craftstock-backend/pkg/pagination"
)

// Repository manages persistence for stock entries and their movement audit
// trail. Quantity mutations are guarded conditional updates so the
// availability predicate is re-checked at write time.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context, itemID, locationID uuid.UUID) (*models.StockEntry, error)
	Create(ctx context.Context, entry *models.StockEntry) error
	// ApplyQuantityDelta adds delta to quantity when the result stays above
	// both zero and reserved_quantity. Returns false when the row is missing
	// or the guard rejects the write.
	ApplyQuantityDelta(ctx context.Context, itemID, locationID uuid.UUID, delta decimal.Decimal) (bool, error)
	RecordMovement(ctx context.Context, movement *models.StockMovement) error
	ListMovements(ctx context.Context, itemID, locationID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.StockMovement, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a stock repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Get(ctx context.Context, itemID, locationID uuid.UUID) (*models.StockEntry, error) {
	var entry models.StockEntry
	err := r.db.WithContext(ctx).
		First(&entry, "item_id = ? AND location_id = ?", itemID, locationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock entry not found")
		}
		return nil, err
	}
	return &entry, nil
}

func (r *repository) Create(ctx context.Context, entry *models.StockEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ApplyQuantityDelta(ctx context.Context, itemID, locationID uuid.UUID, delta decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.StockEntry{}).
		Where("item_id = ? AND location_id = ?", itemID, locationID).
		Where("quantity + ? >= reserved_quantity", delta).
		Where("quantity + ? >= 0", delta).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity + ?", delta),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) RecordMovement(ctx context.Context, movement *models.StockMovement) error {
	if movement.ID == uuid.Nil {
		movement.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) ListMovements(ctx context.Context, itemID, locationID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.StockMovement, error) {
	var movements []models.StockMovement
	q := r.db.WithContext(ctx).
		Where("item_id = ? AND location_id = ?", itemID, locationID).
		Order("created_at DESC").
		Order("id DESC")
	if cursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}
