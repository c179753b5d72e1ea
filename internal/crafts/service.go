package crafts

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Comnyando/craftstock-backend/internal/blueprints"
	"github.com/Comnyando/craftstock-backend/internal/catalog"
	"github.com/Comnyando/craftstock-backend/internal/reservation"
	"github.com/Comnyando/craftstock-backend/internal/sources"
	"github.com/Comnyando/craftstock-backend/internal/stock"
	"github.com/Comnyando/craftstock-backend/pkg/config"
	dbpkg "github.com/Comnyando/craftstock-backend/pkg/db"
	"github.com/Comnyando/craftstock-backend/pkg/db/models"
	"github.com/Comnyando/craftstock-backend/pkg/enums"
	pkgerrors "github.com/Comnyando/craftstock-backend/pkg/errors"
	"github.com/Comnyando/craftstock-backend/pkg/logger"
	"github.com/Comnyando/craftstock-backend/pkg/metrics"
	"github.com/Comnyando/craftstock-backend/pkg/outbox"
	"github.com/Comnyando/craftstock-backend/pkg/outbox/payloads"
	"github.com/Comnyando/craftstock-backend/pkg/pagination"
)

// Service drives the craft lifecycle: planned → in_progress →
// completed/cancelled. Reservation writes go through the reservation
// package so the per-key serialization domain stays single.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Craft, error)
	Get(ctx context.Context, craftID uuid.UUID) (*models.Craft, error)
	List(ctx context.Context, status enums.CraftStatus, limit int) ([]models.Craft, error)
	Progress(ctx context.Context, craftID uuid.UUID) (*ProgressOutput, error)
	Start(ctx context.Context, craftID uuid.UUID, reserveMissing bool) (*models.Craft, error)
	Complete(ctx context.Context, craftID uuid.UUID, actorID uuid.UUID) (*models.Craft, error)
	Cancel(ctx context.Context, craftID uuid.UUID) (*models.Craft, error)
	Delete(ctx context.Context, craftID uuid.UUID, unreserve bool) error
}

type service struct {
	client     *dbpkg.Client
	repo       Repository
	blueprints blueprints.Repository
	locations  catalog.LocationRepository
	stockRepo  stock.Repository
	finder     sources.Service
	outbox     *outbox.Service
	metrics    *metrics.EngineMetrics
	logg       *logger.Logger
	engineCfg  config.EngineConfig
}

// NewService wires the craft lifecycle with its dependencies.
func NewService(
	client *dbpkg.Client,
	repo Repository,
	blueprintRepo blueprints.Repository,
	locationRepo catalog.LocationRepository,
	stockRepo stock.Repository,
	finder sources.Service,
	outboxSvc *outbox.Service,
	engineMetrics *metrics.EngineMetrics,
	logg *logger.Logger,
	engineCfg config.EngineConfig,
) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if repo == nil {
		return nil, fmt.Errorf("craft repository required")
	}
	if blueprintRepo == nil {
		return nil, fmt.Errorf("blueprint repository required")
	}
	if locationRepo == nil {
		return nil, fmt.Errorf("location repository required")
	}
	if stockRepo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if finder == nil {
		return nil, fmt.Errorf("source finder required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if engineCfg.MaxCraftPriority <= 0 {
		engineCfg.MaxCraftPriority = 100
	}
	return &service{
		client:     client,
		repo:       repo,
		blueprints: blueprintRepo,
		locations:  locationRepo,
		stockRepo:  stockRepo,
		finder:     finder,
		outbox:     outboxSvc,
		metrics:    engineMetrics,
		logg:       logg,
		engineCfg:  engineCfg,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Craft, error) {
	if input.BlueprintID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "blueprint id is required")
	}
	if input.OutputLocationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "output location id is required")
	}
	if input.CreatedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "creator id is required")
	}
	if input.Priority < 0 || input.Priority > s.engineCfg.MaxCraftPriority {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("priority must be between 0 and %d", s.engineCfg.MaxCraftPriority))
	}

	bp, err := s.blueprints.GetByID(ctx, input.BlueprintID)
	if err != nil {
		return nil, err
	}
	if _, err := s.locations.GetByID(ctx, input.OutputLocationID); err != nil {
		return nil, err
	}

	ingredients, err := s.buildIngredients(ctx, bp, input)
	if err != nil {
		return nil, err
	}

	craft := &models.Craft{
		BlueprintID:      bp.ID,
		Status:           enums.CraftStatusPlanned,
		Priority:         input.Priority,
		OutputLocationID: input.OutputLocationID,
		ScheduledStart:   input.ScheduledStart,
		CreatedBy:        input.CreatedBy,
		Ingredients:      ingredients,
	}

	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, craft); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCraftCreated,
			AggregateType: enums.AggregateCraft,
			AggregateID:   craft.ID,
			Actor:         &outbox.ActorRef{ActorID: input.CreatedBy},
			Version:       1,
			Data: payloads.CraftCreatedEvent{
				CraftID:          craft.ID,
				BlueprintID:      bp.ID,
				Status:           craft.Status,
				Priority:         craft.Priority,
				OutputLocationID: craft.OutputLocationID,
				IngredientCount:  len(ingredients),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if input.ReserveNow {
		// per-ingredient transactions: each hold commits on its own so one
		// shortage leaves the other holds in place
		s.reserveEach(ctx, craft)
	}

	logCtx := s.logg.WithCraftID(ctx, craft.ID.String())
	s.logg.Info(logCtx, "craft created")
	return s.repo.GetByID(ctx, craft.ID)
}

// buildIngredients turns blueprint lines into craft ingredient rows, skipping
// optional lines with no explicit source and defaulting unset sources to the
// best finder candidate.
func (s *service) buildIngredients(ctx context.Context, bp *models.Blueprint, input CreateInput) ([]models.CraftIngredient, error) {
	ingredients := make([]models.CraftIngredient, 0, len(bp.Ingredients))
	position := 0
	for _, line := range bp.Ingredients {
		explicit, hasExplicit := input.Sources[line.ItemID]
		if line.Optional && !hasExplicit {
			continue
		}

		sourceLocation := explicit
		sourceType := enums.SourceTypeStock
		if !hasExplicit {
			candidate, err := s.bestCandidate(ctx, line.ItemID, line.Quantity, input.CreatedBy)
			if err != nil {
				return nil, err
			}
			if candidate != nil {
				sourceLocation = *candidate.LocationID
				sourceType = candidate.Type
			} else {
				// no known source yet; gap analysis will surface it
				sourceLocation = input.OutputLocationID
			}
		}

		ingredients = append(ingredients, models.CraftIngredient{
			Position:         position,
			ItemID:           line.ItemID,
			RequiredQuantity: line.Quantity,
			SourceLocationID: sourceLocation,
			SourceType:       sourceType,
			Status:           enums.IngredientStatusPending,
			Optional:         line.Optional,
		})
		position++
	}
	if len(ingredients) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "blueprint has no craftable ingredients")
	}
	return ingredients, nil
}

func (s *service) bestCandidate(ctx context.Context, itemID uuid.UUID, qty decimal.Decimal, ownerID uuid.UUID) (*sources.Source, error) {
	result, err := s.finder.Find(ctx, sources.FindInput{
		ItemID:      itemID,
		RequiredQty: qty,
		Options: sources.FindOptions{
			OwnerID:    ownerID,
			MaxSources: 1,
		},
	})
	if err != nil {
		return nil, err
	}
	for _, src := range result.Sources {
		if src.LocationID != nil {
			src := src
			return &src, nil
		}
	}
	return nil, nil
}

func (s *service) reserveEach(ctx context.Context, craft *models.Craft) {
	for _, ing := range craft.Ingredients {
		ing := ing
		err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
			if err := reservation.Reserve(ctx, tx, ing.ItemID, ing.SourceLocationID, ing.RequiredQuantity); err != nil {
				return err
			}
			return s.repo.WithTx(tx).UpdateIngredientStatus(ctx, ing.ID, enums.IngredientStatusPending, enums.IngredientStatusReserved)
		})
		switch {
		case err == nil:
			s.metrics.IncReservation("reserve", "success")
		case pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock):
			s.metrics.IncReservation("reserve", "insufficient")
			s.metrics.IncInsufficientStock("craft_create")
		default:
			logCtx := s.logg.WithCraftID(ctx, craft.ID.String())
			s.logg.Error(logCtx, "reserve-now pass failed", err)
		}
	}
}

func (s *service) Get(ctx context.Context, craftID uuid.UUID) (*models.Craft, error) {
	if craftID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "craft id is required")
	}
	return s.repo.GetByID(ctx, craftID)
}

// List returns crafts in one lifecycle state, highest priority first.
func (s *service) List(ctx context.Context, status enums.CraftStatus, limit int) ([]models.Craft, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown craft status").
			WithDetails(map[string]any{"status": status})
	}
	return s.repo.ListByStatus(ctx, status, pagination.NormalizeLimit(limit))
}

func (s *service) Progress(ctx context.Context, craftID uuid.UUID) (*ProgressOutput, error) {
	craft, err := s.Get(ctx, craftID)
	if err != nil {
		return nil, err
	}
	bp, err := s.blueprints.GetByID(ctx, craft.BlueprintID)
	if err != nil {
		return nil, err
	}

	out := &ProgressOutput{
		CraftID:             craft.ID,
		Status:              craft.Status,
		CraftingTimeSeconds: bp.CraftingTime,
		ScheduledStart:      craft.ScheduledStart,
		StartedAt:           craft.StartedAt,
		CompletedAt:         craft.CompletedAt,
	}

	total := int64(bp.CraftingTime)
	switch craft.Status {
	case enums.CraftStatusCompleted:
		out.ElapsedSeconds = total
		out.PercentComplete = 100
	case enums.CraftStatusInProgress:
		if craft.StartedAt != nil {
			elapsed := int64(time.Since(*craft.StartedAt).Seconds())
			if elapsed > total {
				elapsed = total
			}
			if elapsed < 0 {
				elapsed = 0
			}
			out.ElapsedSeconds = elapsed
			out.RemainingSeconds = total - elapsed
			if total > 0 {
				out.PercentComplete = math.Round(float64(elapsed)/float64(total)*10000) / 100
			}
		}
	default:
		out.RemainingSeconds = total
	}
	return out, nil
}

func (s *service) Start(ctx context.Context, craftID uuid.UUID, reserveMissing bool) (*models.Craft, error) {
	if craftID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "craft id is required")
	}

	var craft *models.Craft
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// craft and ingredients are read inside the transaction so the
		// guarded status update below races only against writes that
		// committed before this read
		var err error
		craft, err = repo.GetByID(ctx, craftID)
		if err != nil {
			return err
		}
		if !craft.Status.CanTransitionTo(enums.CraftStatusInProgress) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "craft cannot start from its current status").
				WithDetails(map[string]any{"status": craft.Status})
		}

		var failed []FailedIngredient
		if reserveMissing {
			for _, ing := range craft.Ingredients {
				if ing.Status != enums.IngredientStatusPending {
					continue
				}
				err := reservation.Reserve(ctx, tx, ing.ItemID, ing.SourceLocationID, ing.RequiredQuantity)
				if err != nil {
					if pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
						failed = append(failed, FailedIngredient{
							IngredientID: ing.ID,
							ItemID:       ing.ItemID,
							LocationID:   ing.SourceLocationID,
							Requested:    ing.RequiredQuantity.String(),
							Reason:       "insufficient available stock",
						})
						continue
					}
					return err
				}
				if err := repo.UpdateIngredientStatus(ctx, ing.ID, enums.IngredientStatusPending, enums.IngredientStatusReserved); err != nil {
					return err
				}
			}
		}
		if len(failed) > 0 {
			// returning the error rolls back every hold this call took
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "could not reserve all ingredients").
				WithDetails(map[string]any{"failed_ingredients": failed})
		}

		now := time.Now()
		if err := repo.UpdateStatus(ctx, craft.ID, craft.Status, enums.CraftStatusInProgress, &now, nil); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCraftStarted,
			AggregateType: enums.AggregateCraft,
			AggregateID:   craft.ID,
			Actor:         &outbox.ActorRef{ActorID: craft.CreatedBy},
			Version:       1,
			Data: payloads.CraftStartedEvent{
				CraftID:     craft.ID,
				BlueprintID: craft.BlueprintID,
				StartedAt:   now,
			},
		})
	})
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
			s.metrics.IncInsufficientStock("craft_start")
		}
		return nil, err
	}

	s.metrics.IncCraftTransition(string(enums.CraftStatusInProgress))
	logCtx := s.logg.WithCraftID(ctx, craft.ID.String())
	s.logg.Info(logCtx, "craft started")
	return s.repo.GetByID(ctx, craft.ID)
}

func (s *service) Complete(ctx context.Context, craftID uuid.UUID, actorID uuid.UUID) (*models.Craft, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor id is required")
	}
	if craftID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "craft id is required")
	}

	var (
		craft *models.Craft
		bp    *models.Blueprint
	)
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var err error
		craft, err = repo.GetByID(ctx, craftID)
		if err != nil {
			return err
		}
		if !craft.Status.CanTransitionTo(enums.CraftStatusCompleted) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only in-progress crafts can complete").
				WithDetails(map[string]any{"status": craft.Status})
		}
		bp, err = s.blueprints.WithTx(tx).GetByID(ctx, craft.BlueprintID)
		if err != nil {
			return err
		}

		var pendingCount int
		for _, ing := range craft.Ingredients {
			if ing.Status == enums.IngredientStatusPending {
				pendingCount++
			}
		}
		if pendingCount > 0 {
			return pkgerrors.New(pkgerrors.CodeIncompleteReservation, "craft has unreserved ingredients").
				WithDetails(map[string]any{"pending_count": pendingCount})
		}

		for _, ing := range craft.Ingredients {
			if ing.Status != enums.IngredientStatusReserved {
				continue
			}
			if err := reservation.Fulfill(ctx, tx, ing.ItemID, ing.SourceLocationID, ing.RequiredQuantity, actorID, &craft.ID); err != nil {
				return err
			}
			if err := repo.UpdateIngredientStatus(ctx, ing.ID, enums.IngredientStatusReserved, enums.IngredientStatusFulfilled); err != nil {
				return err
			}
		}

		if err := s.creditOutput(ctx, tx, craft, bp, actorID); err != nil {
			return err
		}

		if err := s.blueprints.WithTx(tx).IncrementUsage(ctx, bp.ID); err != nil {
			return err
		}

		now := time.Now()
		if err := repo.UpdateStatus(ctx, craft.ID, craft.Status, enums.CraftStatusCompleted, nil, &now); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCraftCompleted,
			AggregateType: enums.AggregateCraft,
			AggregateID:   craft.ID,
			Actor:         &outbox.ActorRef{ActorID: actorID},
			Version:       1,
			Data: payloads.CraftCompletedEvent{
				CraftID:          craft.ID,
				BlueprintID:      bp.ID,
				OutputItemID:     bp.OutputItemID,
				OutputLocationID: craft.OutputLocationID,
				OutputQuantity:   bp.OutputQuantity,
				CompletedAt:      now,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncCraftTransition(string(enums.CraftStatusCompleted))
	logCtx := s.logg.WithCraftID(ctx, craft.ID.String())
	s.logg.Info(logCtx, "craft completed")
	return s.repo.GetByID(ctx, craft.ID)
}

func (s *service) creditOutput(ctx context.Context, tx *gorm.DB, craft *models.Craft, bp *models.Blueprint, actorID uuid.UUID) error {
	stockRepo := s.stockRepo.WithTx(tx)
	applied, err := stockRepo.ApplyQuantityDelta(ctx, bp.OutputItemID, craft.OutputLocationID, bp.OutputQuantity)
	if err != nil {
		return err
	}
	if !applied {
		entry := &models.StockEntry{
			ItemID:           bp.OutputItemID,
			LocationID:       craft.OutputLocationID,
			Quantity:         bp.OutputQuantity,
			ReservedQuantity: decimal.Zero,
			UnitCost:         decimal.Zero,
			Reliability:      decimal.NewFromInt(1),
		}
		if err := stockRepo.Create(ctx, entry); err != nil {
			return err
		}
	}
	return stockRepo.RecordMovement(ctx, &models.StockMovement{
		ItemID:     bp.OutputItemID,
		LocationID: craft.OutputLocationID,
		Delta:      bp.OutputQuantity,
		Reason:     enums.MovementReasonCraftOutput,
		ActorID:    actorID,
		CraftID:    &craft.ID,
	})
}

func (s *service) Cancel(ctx context.Context, craftID uuid.UUID) (*models.Craft, error) {
	if craftID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "craft id is required")
	}

	var craft *models.Craft
	released := 0
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var err error
		craft, err = repo.GetByID(ctx, craftID)
		if err != nil {
			return err
		}
		if !craft.Status.CanTransitionTo(enums.CraftStatusCancelled) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "craft cannot cancel from its current status").
				WithDetails(map[string]any{"status": craft.Status})
		}

		for _, ing := range craft.Ingredients {
			if ing.Status != enums.IngredientStatusReserved {
				continue
			}
			if err := reservation.Release(ctx, tx, ing.ItemID, ing.SourceLocationID, ing.RequiredQuantity); err != nil {
				return err
			}
			if err := repo.UpdateIngredientStatus(ctx, ing.ID, enums.IngredientStatusReserved, enums.IngredientStatusPending); err != nil {
				return err
			}
			released++
		}

		if err := repo.UpdateStatus(ctx, craft.ID, craft.Status, enums.CraftStatusCancelled, nil, nil); err != nil {
			return err
		}

		now := time.Now()
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCraftCancelled,
			AggregateType: enums.AggregateCraft,
			AggregateID:   craft.ID,
			Actor:         &outbox.ActorRef{ActorID: craft.CreatedBy},
			Version:       1,
			Data: payloads.CraftCancelledEvent{
				CraftID:       craft.ID,
				BlueprintID:   craft.BlueprintID,
				ReleasedCount: released,
				CancelledAt:   now,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncCraftTransition(string(enums.CraftStatusCancelled))
	logCtx := s.logg.WithCraftID(ctx, craft.ID.String())
	s.logg.Info(logCtx, "craft cancelled")
	return s.repo.GetByID(ctx, craft.ID)
}

func (s *service) Delete(ctx context.Context, craftID uuid.UUID, unreserve bool) error {
	if craftID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "craft id is required")
	}

	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		craft, err := repo.GetByID(ctx, craftID)
		if err != nil {
			return err
		}

		reserved := 0
		for _, ing := range craft.Ingredients {
			if ing.Status == enums.IngredientStatusReserved {
				reserved++
			}
		}
		if reserved > 0 && !unreserve {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "craft still holds reservations; pass unreserve to release them").
				WithDetails(map[string]any{"reserved_count": reserved})
		}

		if unreserve {
			for _, ing := range craft.Ingredients {
				if ing.Status != enums.IngredientStatusReserved {
					continue
				}
				if err := reservation.Release(ctx, tx, ing.ItemID, ing.SourceLocationID, ing.RequiredQuantity); err != nil {
					return err
				}
			}
		}
		return repo.Delete(ctx, craft.ID)
	})
	if err != nil {
		return err
	}

	logCtx := s.logg.WithCraftID(ctx, craftID.String())
	s.logg.Info(logCtx, "craft deleted")
	return nil
}
