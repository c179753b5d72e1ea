package controllers

import (
	"net/http"

	"github.com/Comnyando/craftstock-backend/api/responses"
	"github.com/Comnyando/craftstock-backend/api/validators"
	"github.com/Comnyando/craftstock-backend/internal/blueprints"
	"github.com/Comnyando/craftstock-backend/pkg/logger"
)

// BlueprintsList returns publicly visible blueprints, most used first.
func BlueprintsList(repo blueprints.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bps, err := repo.ListVisible(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bps)
	}
}

// BlueprintsGet returns one blueprint with its ordered ingredients.
func BlueprintsGet(repo blueprints.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blueprintID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bp, err := repo.GetByID(r.Context(), blueprintID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, bp)
	}
}
