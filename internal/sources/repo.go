package sources

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Comnyando/craftstock-backend/pkg/db/models"
)

// StockCandidateRow is one accessible stock entry joined with its location's
// ownership fields.
type StockCandidateRow struct {
	ItemID           uuid.UUID       `gorm:"column:item_id"`
	LocationID       uuid.UUID       `gorm:"column:location_id"`
	Quantity         decimal.Decimal `gorm:"column:quantity"`
	ReservedQuantity decimal.Decimal `gorm:"column:reserved_quantity"`
	UnitCost         decimal.Decimal `gorm:"column:unit_cost"`
	Reliability      decimal.Decimal `gorm:"column:reliability"`
	OwnerID          uuid.UUID       `gorm:"column:owner_id"`
}

// Repository reads source candidates for the finder.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListStockCandidates(ctx context.Context, itemID uuid.UUID) ([]StockCandidateRow, error)
	ListPlayerStocks(ctx context.Context, itemID uuid.UUID) ([]models.PlayerStock, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a source repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListStockCandidates(ctx context.Context, itemID uuid.UUID) ([]StockCandidateRow, error) {
	var rows []StockCandidateRow
	err := r.db.WithContext(ctx).
		Table("stock_entries").
		Select("stock_entries.item_id, stock_entries.location_id, stock_entries.quantity, stock_entries.reserved_quantity, stock_entries.unit_cost, stock_entries.reliability, locations.owner_id").
		Joins("JOIN locations ON locations.id = stock_entries.location_id").
		Where("stock_entries.item_id = ?", itemID).
		Where("locations.is_accessible = ?", true).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListPlayerStocks(ctx context.Context, itemID uuid.UUID) ([]models.PlayerStock, error) {
	var rows []models.PlayerStock
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("last_seen_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
