package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Comnyando/craftstock-backend/api/responses"
	"github.com/Comnyando/craftstock-backend/api/validators"
	"github.com/Comnyando/craftstock-backend/internal/stock"
	pkgerrors "github.com/Comnyando/craftstock-backend/pkg/errors"
	"github.com/Comnyando/craftstock-backend/pkg/logger"
	"github.com/Comnyando/craftstock-backend/pkg/pagination"
)

type adjustRequest struct {
	ItemID     uuid.UUID `json:"item_id" validate:"required"`
	LocationID uuid.UUID `json:"location_id" validate:"required"`
	Delta      string    `json:"delta" validate:"required"`
	Note       *string   `json:"note,omitempty"`
}

type transferRequest struct {
	ItemID         uuid.UUID `json:"item_id" validate:"required"`
	FromLocationID uuid.UUID `json:"from_location_id" validate:"required"`
	ToLocationID   uuid.UUID `json:"to_location_id" validate:"required"`
	Quantity       string    `json:"quantity" validate:"required"`
}

// StockEntry returns one ledger entry by its (item, location) key.
func StockEntry(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := validators.ParseUUIDParam(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		locationID, err := validators.ParseUUIDParam(r, "locationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.GetEntry(r.Context(), itemID, locationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entry)
	}
}

// StockHistory returns the movement audit trail for one ledger key, newest
// first.
func StockHistory(svc stock.Service, historyLimit int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := validators.ParseUUIDParam(r, "itemID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		locationID, err := validators.ParseUUIDParam(r, "locationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, historyLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.History(r.Context(), itemID, locationID, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// StockAdjust applies a signed on-hand delta to one ledger key.
func StockAdjust(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := validators.ActorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req adjustRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		delta, err := decimal.NewFromString(req.Delta)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "delta must be a decimal string"))
			return
		}

		entry, err := svc.Adjust(r.Context(), stock.AdjustInput{
			ItemID:     req.ItemID,
			LocationID: req.LocationID,
			Delta:      delta,
			ActorID:    actorID,
			Note:       req.Note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entry)
	}
}

// StockTransfer moves quantity between two locations atomically.
func StockTransfer(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := validators.ActorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req transferRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		qty, err := decimal.NewFromString(req.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "quantity must be a decimal string"))
			return
		}

		result, err := svc.Transfer(r.Context(), stock.TransferInput{
			ItemID:         req.ItemID,
			FromLocationID: req.FromLocationID,
			ToLocationID:   req.ToLocationID,
			Quantity:       qty,
			ActorID:        actorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
