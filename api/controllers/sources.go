package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Comnyando/craftstock-backend/api/responses"
	"github.com/Comnyando/craftstock-backend/api/validators"
	"github.com/Comnyando/craftstock-backend/internal/sources"
	pkgerrors "github.com/Comnyando/craftstock-backend/pkg/errors"
	"github.com/Comnyando/craftstock-backend/pkg/logger"
)

type findSourcesRequest struct {
	ItemID                  uuid.UUID `json:"item_id" validate:"required"`
	RequiredQuantity        string    `json:"required_quantity" validate:"required"`
	MaxSources              int       `json:"max_sources" validate:"min=0"`
	IncludePlayerStocks     bool      `json:"include_player_stocks"`
	MinReliability          *string   `json:"min_reliability,omitempty"`
	PreferLowerCost         bool      `json:"prefer_lower_cost"`
	PreferHigherReliability bool      `json:"prefer_higher_reliability"`
}

// SourcesFind returns ranked candidate sources for an item. Preferences are
// request-scoped; nothing is persisted.
func SourcesFind(svc sources.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := validators.ActorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req findSourcesRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		requiredQty, err := decimal.NewFromString(req.RequiredQuantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "required_quantity must be a decimal string"))
			return
		}

		minReliability := decimal.Zero
		if req.MinReliability != nil {
			minReliability, err = decimal.NewFromString(*req.MinReliability)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "min_reliability must be a decimal string"))
				return
			}
		}

		result, err := svc.Find(r.Context(), sources.FindInput{
			ItemID:      req.ItemID,
			RequiredQty: requiredQty,
			Options: sources.FindOptions{
				OwnerID:                 actorID,
				MaxSources:              req.MaxSources,
				IncludePlayerStocks:     req.IncludePlayerStocks,
				MinReliability:          minReliability,
				PreferLowerCost:         req.PreferLowerCost,
				PreferHigherReliability: req.PreferHigherReliability,
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
