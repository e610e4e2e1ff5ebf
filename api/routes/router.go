package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tierforge/tierforge-backend/api/controllers"
	"github.com/tierforge/tierforge-backend/api/middleware"
	"github.com/tierforge/tierforge-backend/internal/tiers"
	"github.com/tierforge/tierforge-backend/pkg/config"
	"github.com/tierforge/tierforge-backend/pkg/db"
	"github.com/tierforge/tierforge-backend/pkg/logger"
	"github.com/tierforge/tierforge-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	tierService tiers.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/manufacturers/{manufacturerId}/tiers", func(r chi.Router) {
			r.Get("/hierarchy", controllers.TierHierarchy(tierService, logg))
			r.Post("/nodes", controllers.TierCreateNode(tierService, logg))
		})

		r.Patch("/v1/tiers/nodes/{nodeId}", controllers.TierUpdateNode(tierService, logg))
		r.Delete("/v1/tiers/nodes/{nodeId}", controllers.TierDeleteSubtree(tierService, logg))
		r.Post("/v1/tiers/nodes/{nodeId}/users", controllers.TierBindUsers(tierService, logg))
	})

	return r
}
