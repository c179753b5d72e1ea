package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Comnyando/craftstock-backend/api/responses"
	"github.com/Comnyando/craftstock-backend/api/validators"
	"github.com/Comnyando/craftstock-backend/internal/suggestions"
	pkgerrors "github.com/Comnyando/craftstock-backend/pkg/errors"
	"github.com/Comnyando/craftstock-backend/pkg/logger"
)

type suggestRequest struct {
	TargetItemID   uuid.UUID `json:"target_item_id" validate:"required"`
	TargetQuantity string    `json:"target_quantity" validate:"required"`
	MaxSuggestions int       `json:"max_suggestions" validate:"min=0"`
}

// SuggestionsFind returns blueprints that could produce the target item,
// scored by what current stock affords.
func SuggestionsFind(svc suggestions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := validators.ActorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req suggestRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		targetQty, err := decimal.NewFromString(req.TargetQuantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "target_quantity must be a decimal string"))
			return
		}

		result, err := svc.Suggest(r.Context(), suggestions.SuggestInput{
			TargetItemID:   req.TargetItemID,
			TargetQty:      targetQty,
			MaxSuggestions: req.MaxSuggestions,
			OwnerID:        actorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
