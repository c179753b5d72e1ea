package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Comnyando/craftstock-backend/api/controllers"
	"github.com/Comnyando/craftstock-backend/api/middleware"
	"github.com/Comnyando/craftstock-backend/internal/blueprints"
	"github.com/Comnyando/craftstock-backend/internal/crafts"
	"github.com/Comnyando/craftstock-backend/internal/gaps"
	"github.com/Comnyando/craftstock-backend/internal/sources"
	"github.com/Comnyando/craftstock-backend/internal/stock"
	"github.com/Comnyando/craftstock-backend/internal/suggestions"
	"github.com/Comnyando/craftstock-backend/pkg/config"
	"github.com/Comnyando/craftstock-backend/pkg/logger"
	"github.com/Comnyando/craftstock-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	pubsubP controllers.Pinger,
	registry *prometheus.Registry,
	stockService stock.Service,
	craftService crafts.Service,
	gapService gaps.Service,
	sourceService sources.Service,
	suggestionService suggestions.Service,
	blueprintRepo blueprints.Repository,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Actor(logg),
	)
	var redisP controllers.Pinger
	if redisClient != nil {
		redisP = redisClient
		r.Use(middleware.Idempotency(redisClient, logg))
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP, pubsubP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/stock", func(r chi.Router) {
			r.Get("/{itemID}/{locationID}", controllers.StockEntry(stockService, logg))
			r.Get("/{itemID}/{locationID}/history", controllers.StockHistory(stockService, cfg.Engine.HistoryPageLimit, logg))
			r.Post("/adjust", controllers.StockAdjust(stockService, logg))
			r.Post("/transfer", controllers.StockTransfer(stockService, logg))
		})

		r.Route("/crafts", func(r chi.Router) {
			r.Post("/", controllers.CraftCreate(craftService, logg))
			r.Get("/", controllers.CraftList(craftService, logg))
			r.Get("/{id}", controllers.CraftGet(craftService, logg))
			r.Get("/{id}/progress", controllers.CraftProgress(craftService, logg))
			r.Get("/{id}/gaps", controllers.CraftGaps(gapService, cfg.Engine.MaxGapSources, logg))
			r.Post("/{id}/start", controllers.CraftStart(craftService, logg))
			r.Post("/{id}/complete", controllers.CraftComplete(craftService, logg))
			r.Post("/{id}/cancel", controllers.CraftCancel(craftService, logg))
			r.Delete("/{id}", controllers.CraftDelete(craftService, logg))
		})

		r.Post("/sources/find", controllers.SourcesFind(sourceService, logg))
		r.Post("/suggestions", controllers.SuggestionsFind(suggestionService, logg))

		r.Route("/blueprints", func(r chi.Router) {
			r.Get("/", controllers.BlueprintsList(blueprintRepo, logg))
			r.Get("/{id}", controllers.BlueprintsGet(blueprintRepo, logg))
		})
	})

	return r
}
