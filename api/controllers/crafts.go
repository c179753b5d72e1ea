package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Comnyando/craftstock-backend/api/responses"
	"github.com/Comnyando/craftstock-backend/api/validators"
	"github.com/Comnyando/craftstock-backend/internal/crafts"
	"github.com/Comnyando/craftstock-backend/internal/gaps"
	"github.com/Comnyando/craftstock-backend/pkg/enums"
	pkgerrors "github.com/Comnyando/craftstock-backend/pkg/errors"
	"github.com/Comnyando/craftstock-backend/pkg/logger"
	"github.com/Comnyando/craftstock-backend/pkg/pagination"
)

type createCraftRequest struct {
	BlueprintID      uuid.UUID            `json:"blueprint_id" validate:"required"`
	OutputLocationID uuid.UUID            `json:"output_location_id" validate:"required"`
	Priority         int                  `json:"priority" validate:"min=0,max=100"`
	ScheduledStart   *time.Time           `json:"scheduled_start,omitempty"`
	ReserveNow       bool                 `json:"reserve_now"`
	Sources          map[string]uuid.UUID `json:"sources,omitempty"`
}

type startCraftRequest struct {
	ReserveMissing bool `json:"reserve_missing"`
}

// CraftCreate queues a craft for a blueprint, optionally reserving
// ingredients eagerly.
func CraftCreate(svc crafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := validators.ActorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createCraftRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sources := make(map[uuid.UUID]uuid.UUID, len(req.Sources))
		for rawItem, locationID := range req.Sources {
			itemID, parseErr := uuid.Parse(rawItem)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "sources keys must be item uuids").
						WithDetails(map[string]any{"key": rawItem}))
				return
			}
			sources[itemID] = locationID
		}

		craft, err := svc.Create(r.Context(), crafts.CreateInput{
			BlueprintID:      req.BlueprintID,
			OutputLocationID: req.OutputLocationID,
			Priority:         req.Priority,
			ScheduledStart:   req.ScheduledStart,
			CreatedBy:        actorID,
			ReserveNow:       req.ReserveNow,
			Sources:          sources,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, craft)
	}
}

// CraftGet returns one craft with its ingredients.
func CraftGet(svc crafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		craftID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		craft, err := svc.Get(r.Context(), craftID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, craft)
	}
}

// CraftList returns crafts filtered by lifecycle status, highest priority
// first.
func CraftList(svc crafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := enums.ParseCraftStatus(r.URL.Query().Get("status"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "status must be a craft status").
					WithDetails(map[string]any{"status": r.URL.Query().Get("status")}))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), status, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// CraftProgress returns derived completion state for one craft.
func CraftProgress(svc crafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		craftID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		progress, err := svc.Progress(r.Context(), craftID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, progress)
	}
}

// CraftStart transitions a planned craft to in_progress.
func CraftStart(svc crafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		craftID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req startCraftRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		craft, err := svc.Start(r.Context(), craftID, req.ReserveMissing)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, craft)
	}
}

// CraftComplete consumes reserved ingredients and credits the output.
func CraftComplete(svc crafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := validators.ActorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		craftID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		craft, err := svc.Complete(r.Context(), craftID, actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, craft)
	}
}

// CraftCancel releases the craft's holds and marks it cancelled.
func CraftCancel(svc crafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		craftID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		craft, err := svc.Cancel(r.Context(), craftID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, craft)
	}
}

// CraftDelete removes a craft; ?unreserve=true releases holds first.
func CraftDelete(svc crafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		craftID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unreserve, err := validators.ParseQueryBool(r, "unreserve", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), craftID, unreserve); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// CraftGaps reports per-ingredient coverage for a planned craft.
func CraftGaps(svc gaps.Service, maxGapSources int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		craftID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		maxSources, err := validators.ParseQueryInt(r, "max_sources", 0, 1, maxGapSources)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Analyze(r.Context(), craftID, gaps.AnalyzeOptions{MaxSources: maxSources})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
