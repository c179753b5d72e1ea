package stock

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Comnyando/craftstock-backend/internal/catalog"
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

// Service is the stock ledger: it owns on-hand quantity and the append-only
// movement trail. It never touches reserved_quantity; the reservation
// coordinator is the sole writer of that column.
type Service interface {
	GetEntry(ctx context.Context, itemID, locationID uuid.UUID) (*models.StockEntry, error)
	Adjust(ctx context.Context, input AdjustInput) (*models.StockEntry, error)
	Transfer(ctx context.Context, input TransferInput) (*TransferResult, error)
	History(ctx context.Context, itemID, locationID uuid.UUID, params pagination.Params) (*HistoryPage, error)
}

// AdjustInput captures one manual on-hand quantity change.
type AdjustInput struct {
	ItemID     uuid.UUID
	LocationID uuid.UUID
	Delta      decimal.Decimal
	ActorID    uuid.UUID
	Note       *string
}

// TransferInput moves quantity of one item between two locations.
type TransferInput struct {
	ItemID         uuid.UUID
	FromLocationID uuid.UUID
	ToLocationID   uuid.UUID
	Quantity       decimal.Decimal
	ActorID        uuid.UUID
}

// TransferResult returns both touched entries after a committed transfer.
type TransferResult struct {
	From *models.StockEntry `json:"from"`
	To   *models.StockEntry `json:"to"`
}

// HistoryPage is one cursor page of the movement trail, newest first.
type HistoryPage struct {
	Movements  []models.StockMovement `json:"movements"`
	NextCursor string                 `json:"next_cursor,omitempty"`
}

type service struct {
	client    *dbpkg.Client
	repo      Repository
	items     catalog.ItemRepository
	locations catalog.LocationRepository
	outbox    *outbox.Service
	metrics   *metrics.EngineMetrics
	logg      *logger.Logger
}

// NewService wires the stock ledger with its dependencies.
func NewService(client *dbpkg.Client, repo Repository, items catalog.ItemRepository, locations catalog.LocationRepository, outboxSvc *outbox.Service, engineMetrics *metrics.EngineMetrics, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if items == nil {
		return nil, fmt.Errorf("item repository required")
	}
	if locations == nil {
		return nil, fmt.Errorf("location repository required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		client:    client,
		repo:      repo,
		items:     items,
		locations: locations,
		outbox:    outboxSvc,
		metrics:   engineMetrics,
		logg:      logg,
	}, nil
}

// verifyKey resolves the catalog rows behind a stock key so an unknown id
// comes back as NOT_FOUND instead of a phantom entry or a constraint error.
func (s *service) verifyKey(ctx context.Context, itemID uuid.UUID, locationIDs ...uuid.UUID) error {
	if _, err := s.items.GetByID(ctx, itemID); err != nil {
		return err
	}
	for _, locID := range locationIDs {
		if _, err := s.locations.GetByID(ctx, locID); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) GetEntry(ctx context.Context, itemID, locationID uuid.UUID) (*models.StockEntry, error) {
	if itemID == uuid.Nil || locationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id and location id are required")
	}
	return s.repo.Get(ctx, itemID, locationID)
}

func (s *service) Adjust(ctx context.Context, input AdjustInput) (*models.StockEntry, error) {
	if input.ItemID == uuid.Nil || input.LocationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id and location id are required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor id is required")
	}
	if input.Delta.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta must be non-zero")
	}
	if err := s.verifyKey(ctx, input.ItemID, input.LocationID); err != nil {
		return nil, err
	}

	var updated *models.StockEntry
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		applied, err := repo.ApplyQuantityDelta(ctx, input.ItemID, input.LocationID, input.Delta)
		if err != nil {
			return err
		}
		if !applied {
			entry, err := repo.Get(ctx, input.ItemID, input.LocationID)
			if err != nil {
				if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) && input.Delta.IsPositive() {
					// first positive adjust creates the entry
					entry = &models.StockEntry{
						ItemID:           input.ItemID,
						LocationID:       input.LocationID,
						Quantity:         input.Delta,
						ReservedQuantity: decimal.Zero,
						UnitCost:         decimal.Zero,
						Reliability:      decimal.NewFromInt(1),
					}
					if err := repo.Create(ctx, entry); err != nil {
						return err
					}
				} else {
					return err
				}
			} else {
				s.metrics.IncInsufficientStock("adjust")
				return pkgerrors.New(pkgerrors.CodeInsufficientStock, "adjustment would drop quantity below reserved").
					WithDetails(map[string]any{
						"item_id":           input.ItemID,
						"location_id":       input.LocationID,
						"quantity":          entry.Quantity,
						"reserved_quantity": entry.ReservedQuantity,
						"delta":             input.Delta,
					})
			}
		}

		if err := repo.RecordMovement(ctx, &models.StockMovement{
			ItemID:     input.ItemID,
			LocationID: input.LocationID,
			Delta:      input.Delta,
			Reason:     enums.MovementReasonAdjust,
			ActorID:    input.ActorID,
			Note:       input.Note,
		}); err != nil {
			return err
		}

		entry, err := repo.Get(ctx, input.ItemID, input.LocationID)
		if err != nil {
			return err
		}
		updated = entry

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStockAdjusted,
			AggregateType: enums.AggregateStock,
			AggregateID:   input.ItemID,
			Actor:         &outbox.ActorRef{ActorID: input.ActorID},
			Version:       1,
			Data: payloads.StockAdjustedEvent{
				ItemID:     input.ItemID,
				LocationID: input.LocationID,
				Delta:      input.Delta,
				Quantity:   entry.Quantity,
				Reason:     enums.MovementReasonAdjust,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithStockKey(ctx, input.ItemID.String(), input.LocationID.String())
	s.logg.Info(logCtx, "stock adjusted")
	return updated, nil
}

func (s *service) Transfer(ctx context.Context, input TransferInput) (*TransferResult, error) {
	if input.ItemID == uuid.Nil || input.FromLocationID == uuid.Nil || input.ToLocationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id and both location ids are required")
	}
	if input.FromLocationID == input.ToLocationID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "source and destination must differ")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor id is required")
	}
	if !input.Quantity.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if err := s.verifyKey(ctx, input.ItemID, input.FromLocationID, input.ToLocationID); err != nil {
		return nil, err
	}

	type legOp struct {
		locationID uuid.UUID
		delta      decimal.Decimal
		reason     enums.MovementReason
	}
	ops := []legOp{
		{locationID: input.FromLocationID, delta: input.Quantity.Neg(), reason: enums.MovementReasonTransferOut},
		{locationID: input.ToLocationID, delta: input.Quantity, reason: enums.MovementReasonTransferIn},
	}
	// fixed lexical order keeps the two-key write order stable across
	// concurrent transfers of the same pair
	sort.Slice(ops, func(i, j int) bool {
		return ops[i].locationID.String() < ops[j].locationID.String()
	})

	result := &TransferResult{}
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		for _, op := range ops {
			applied, err := repo.ApplyQuantityDelta(ctx, input.ItemID, op.locationID, op.delta)
			if err != nil {
				return err
			}
			if !applied {
				entry, err := repo.Get(ctx, input.ItemID, op.locationID)
				if err != nil {
					if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) && op.delta.IsPositive() {
						entry = &models.StockEntry{
							ItemID:           input.ItemID,
							LocationID:       op.locationID,
							Quantity:         op.delta,
							ReservedQuantity: decimal.Zero,
							UnitCost:         decimal.Zero,
							Reliability:      decimal.NewFromInt(1),
						}
						if err := repo.Create(ctx, entry); err != nil {
							return err
						}
						continue
					}
					return err
				}
				s.metrics.IncInsufficientStock("transfer")
				return pkgerrors.New(pkgerrors.CodeInsufficientStock, "source location lacks available quantity").
					WithDetails(map[string]any{
						"item_id":     input.ItemID,
						"location_id": op.locationID,
						"available":   entry.Available(),
						"requested":   input.Quantity,
					})
			}
		}

		for _, op := range ops {
			if err := repo.RecordMovement(ctx, &models.StockMovement{
				ItemID:     input.ItemID,
				LocationID: op.locationID,
				Delta:      op.delta,
				Reason:     op.reason,
				ActorID:    input.ActorID,
			}); err != nil {
				return err
			}
		}

		from, err := repo.Get(ctx, input.ItemID, input.FromLocationID)
		if err != nil {
			return err
		}
		to, err := repo.Get(ctx, input.ItemID, input.ToLocationID)
		if err != nil {
			return err
		}
		result.From = from
		result.To = to

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStockTransfer,
			AggregateType: enums.AggregateStock,
			AggregateID:   input.ItemID,
			Actor:         &outbox.ActorRef{ActorID: input.ActorID},
			Version:       1,
			Data: payloads.StockTransferredEvent{
				ItemID:         input.ItemID,
				FromLocationID: input.FromLocationID,
				ToLocationID:   input.ToLocationID,
				Quantity:       input.Quantity,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithStockKey(ctx, input.ItemID.String(), input.FromLocationID.String())
	s.logg.Info(logCtx, "stock transferred")
	return result, nil
}

func (s *service) History(ctx context.Context, itemID, locationID uuid.UUID, params pagination.Params) (*HistoryPage, error) {
	if itemID == uuid.Nil || locationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id and location id are required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid history cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)
	movements, err := s.repo.ListMovements(ctx, itemID, locationID, cursor, limit+1)
	if err != nil {
		return nil, err
	}
	page := &HistoryPage{Movements: movements}
	if len(movements) > limit {
		page.Movements = movements[:limit]
		last := page.Movements[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}
