package crafts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Comnyando/craftstock-backend/pkg/db/models"
	"github.com/Comnyando/craftstock-backend/pkg/enums"
	pkgerrors "github.com/Comnyando/craftstock-backend/pkg/errors"
)

// Repository manages crafts and their ingredient lines. A craft owns its
// ingredients: they are created with it and removed only with it.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, craft *models.Craft) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Craft, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.CraftStatus, startedAt, completedAt *time.Time) error
	UpdateIngredientStatus(ctx context.Context, ingredientID uuid.UUID, from, to enums.IngredientStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByStatus(ctx context.Context, status enums.CraftStatus, limit int) ([]models.Craft, error)
	ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]models.Craft, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a craft repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, craft *models.Craft) error {
	if craft.ID == uuid.Nil {
		craft.ID = uuid.New()
	}
	for i := range craft.Ingredients {
		if craft.Ingredients[i].ID == uuid.Nil {
			craft.Ingredients[i].ID = uuid.New()
		}
		craft.Ingredients[i].CraftID = craft.ID
	}
	return r.db.WithContext(ctx).Create(craft).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Craft, error) {
	var craft models.Craft
	err := r.db.WithContext(ctx).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&craft, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "craft not found")
		}
		return nil, err
	}
	return &craft, nil
}

// UpdateStatus moves a craft from one status to another. The transition is a
// guarded conditional update: the current status is re-checked by the
// database at write time, so a concurrent transition loses the race instead
// of silently overwriting.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.CraftStatus, startedAt, completedAt *time.Time) error {
	updates := map[string]any{
		"status":     to,
		"updated_at": time.Now(),
	}
	if startedAt != nil {
		updates["started_at"] = *startedAt
	}
	if completedAt != nil {
		updates["completed_at"] = *completedAt
	}
	res := r.db.WithContext(ctx).
		Model(&models.Craft{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "craft status changed since it was read").
			WithDetails(map[string]any{"craft_id": id, "expected_status": from})
	}
	return nil
}

func (r *repository) UpdateIngredientStatus(ctx context.Context, ingredientID uuid.UUID, from, to enums.IngredientStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.CraftIngredient{}).
		Where("id = ? AND status = ?", ingredientID, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "ingredient status changed since it was read").
			WithDetails(map[string]any{"ingredient_id": ingredientID, "expected_status": from})
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("craft_id = ?", id).
		Delete(&models.CraftIngredient{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Craft{}).Error
}

// ListDueScheduled returns planned crafts whose scheduled start has passed,
// highest priority first.
func (r *repository) ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]models.Craft, error) {
	var crafts []models.Craft
	q := r.db.WithContext(ctx).
		Where("status = ?", enums.CraftStatusPlanned).
		Where("scheduled_start IS NOT NULL").
		Where("scheduled_start <= ?", now).
		Order("priority DESC").
		Order("scheduled_start ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&crafts).Error; err != nil {
		return nil, err
	}
	return crafts, nil
}

func (r *repository) ListByStatus(ctx context.Context, status enums.CraftStatus, limit int) ([]models.Craft, error) {
	var crafts []models.Craft
	q := r.db.WithContext(ctx).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("status = ?", status).
		Order("priority DESC").
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&crafts).Error; err != nil {
		return nil, err
	}
	return crafts, nil
}
