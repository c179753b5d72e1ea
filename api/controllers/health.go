package controllers

import (
	"context"
	"net/http"

	"github.com/Comnyando/craftstock-backend/api/responses"
	"github.com/Comnyando/craftstock-backend/pkg/config"
	"github.com/Comnyando/craftstock-backend/pkg/logger"
)

// Pinger is satisfied by the db, redis, and pubsub clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Craftstock-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings each backing dependency. A nil pinger is reported as
// skipped rather than failing readiness, so optional deps stay optional.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP, redisP, pubsubP Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Craftstock-Env", cfg.App.Env)

		deps := map[string]Pinger{"db": dbP, "redis": redisP, "pubsub": pubsubP}
		checks := make(map[string]string, len(deps))
		ready := true
		for name, dep := range deps {
			if dep == nil {
				checks[name] = "skipped"
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "readiness check failed: "+name)
				checks[name] = "down"
				ready = false
				continue
			}
			checks[name] = "ok"
		}

		status := "ready"
		code := http.StatusOK
		if !ready {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		responses.WriteSuccessStatus(w, code, map[string]any{
			"status": status,
			"checks": checks,
		})
	}
}
