package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Comnyando/craftstock-backend/pkg/db/models"
	"github.com/Comnyando/craftstock-backend/pkg/enums"
	pkgerrors "github.com/Comnyando/craftstock-backend/pkg/errors"
)

// This package is the sole writer of reserved_quantity. Every function takes
// the caller's transaction so multi-ingredient flows can compose reservations
// with their own writes and roll back as one unit. Mutations are guarded
// conditional updates: the availability predicate is re-checked by the
// database at write time, which serializes concurrent callers on the row.

// Reserve places a hold of qty at the (item, location) key. All-or-nothing:
// it never takes a partial hold.
func Reserve(ctx context.Context, tx *gorm.DB, itemID, locationID uuid.UUID, qty decimal.Decimal) error {
	if err := validateKeyQty(tx, itemID, locationID, qty); err != nil {
		return err
	}

	res := tx.WithContext(ctx).
		Model(&models.StockEntry{}).
		Where("item_id = ? AND location_id = ?", itemID, locationID).
		Where("quantity >= reserved_quantity + ?", qty).
		Updates(map[string]any{
			"reserved_quantity": gorm.Expr("reserved_quantity + ?", qty),
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		available, err := availableAt(ctx, tx, itemID, locationID)
		if err != nil {
			return err
		}
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "available quantity does not cover the reservation").
			WithDetails(map[string]any{
				"item_id":     itemID,
				"location_id": locationID,
				"available":   available,
				"requested":   qty,
			})
	}
	return nil
}

// Release gives back up to qty of held quantity, flooring reserved at zero.
func Release(ctx context.Context, tx *gorm.DB, itemID, locationID uuid.UUID, qty decimal.Decimal) error {
	if err := validateKeyQty(tx, itemID, locationID, qty); err != nil {
		return err
	}

	res := tx.WithContext(ctx).
		Model(&models.StockEntry{}).
		Where("item_id = ? AND location_id = ?", itemID, locationID).
		Updates(map[string]any{
			"reserved_quantity": gorm.Expr(
				"CASE WHEN reserved_quantity >= ? THEN reserved_quantity - ? ELSE 0 END", qty, qty),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "stock entry not found")
	}
	return nil
}

// Fulfill consumes qty of held quantity: quantity and reserved_quantity drop
// together and a craft_consume movement is appended. Requires the hold to
// cover qty in full.
func Fulfill(ctx context.Context, tx *gorm.DB, itemID, locationID uuid.UUID, qty decimal.Decimal, actorID uuid.UUID, craftID *uuid.UUID) error {
	if err := validateKeyQty(tx, itemID, locationID, qty); err != nil {
		return err
	}
	if actorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "actor id is required")
	}

	res := tx.WithContext(ctx).
		Model(&models.StockEntry{}).
		Where("item_id = ? AND location_id = ?", itemID, locationID).
		Where("reserved_quantity >= ?", qty).
		Updates(map[string]any{
			"quantity":          gorm.Expr("quantity - ?", qty),
			"reserved_quantity": gorm.Expr("reserved_quantity - ?", qty),
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var entry models.StockEntry
		err := tx.WithContext(ctx).
			First(&entry, "item_id = ? AND location_id = ?", itemID, locationID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "stock entry not found")
			}
			return err
		}
		return pkgerrors.New(pkgerrors.CodeReservationMismatch, "reserved quantity does not cover the fulfillment").
			WithDetails(map[string]any{
				"item_id":           itemID,
				"location_id":       locationID,
				"reserved_quantity": entry.ReservedQuantity,
				"requested":         qty,
			})
	}

	movement := models.StockMovement{
		ID:         uuid.New(),
		ItemID:     itemID,
		LocationID: locationID,
		Delta:      qty.Neg(),
		Reason:     enums.MovementReasonCraftConsume,
		ActorID:    actorID,
		CraftID:    craftID,
	}
	return tx.WithContext(ctx).Create(&movement).Error
}

func validateKeyQty(tx *gorm.DB, itemID, locationID uuid.UUID, qty decimal.Decimal) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if itemID == uuid.Nil || locationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id and location id are required")
	}
	if !qty.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	return nil
}

func availableAt(ctx context.Context, tx *gorm.DB, itemID, locationID uuid.UUID) (decimal.Decimal, error) {
	var entry models.StockEntry
	err := tx.WithContext(ctx).
		First(&entry, "item_id = ? AND location_id = ?", itemID, locationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return entry.Available(), nil
}
