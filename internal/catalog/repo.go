package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Comnyando/craftstock-backend/pkg/db/models"
	pkgerrors "github.com/Comnyando/craftstock-backend/pkg/errors"
)

// ItemRepository reads catalog items. Items are reference data; the engine
// never writes them.
type ItemRepository interface {
	WithTx(tx *gorm.DB) ItemRepository
	GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Item, error)
}

// LocationRepository reads locations and resolves accessibility.
type LocationRepository interface {
	WithTx(tx *gorm.DB) LocationRepository
	GetByID(ctx context.Context, id uuid.UUID) (*models.Location, error)
	ListAccessibleByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Location, error)
}

type itemRepository struct {
	db *gorm.DB
}

// NewItemRepository returns an item repository bound to the provided database.
func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) WithTx(tx *gorm.DB) ItemRepository {
	if tx == nil {
		return r
	}
	return &itemRepository{db: tx}
}

func (r *itemRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.Item
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

type locationRepository struct {
	db *gorm.DB
}

// NewLocationRepository returns a location repository bound to the provided database.
func NewLocationRepository(db *gorm.DB) LocationRepository {
	return &locationRepository{db: db}
}

func (r *locationRepository) WithTx(tx *gorm.DB) LocationRepository {
	if tx == nil {
		return r
	}
	return &locationRepository{db: tx}
}

func (r *locationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	var loc models.Location
	if err := r.db.WithContext(ctx).First(&loc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
		}
		return nil, err
	}
	return &loc, nil
}

func (r *locationRepository) ListAccessibleByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Location, error) {
	var locs []models.Location
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND is_accessible = ?", ownerID, true).
		Order("id ASC").
		Find(&locs).Error; err != nil {
		return nil, err
	}
	return locs, nil
}
