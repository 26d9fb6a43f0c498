package apiapp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cultureradar/backend/internal/transport/http/handlers"
)

type Dependencies struct {
	Tokens       TokenParser
	Catalog      handlers.ActivityCatalog
	Pipeline     handlers.Submitter
	Interactions handlers.InteractionLedger
	Geocoder     handlers.ReverseGeocoder
	Profiles     handlers.ProfileEditor
	Metrics      http.Handler
	Activities   handlers.ActivitiesConfig
	Logger       *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	activitiesHandler := handlers.NewActivitiesHandler(deps.Catalog, deps.Pipeline, deps.Activities, deps.Logger)
	interactionsHandler := handlers.NewInteractionsHandler(deps.Interactions, deps.Logger)
	geoHandler := handlers.NewGeoHandler(deps.Geocoder)
	profileHandler := handlers.NewProfileHandler(deps.Profiles, deps.Logger)
	authMW := AuthMiddleware(deps.Tokens, deps.Logger)

	r.Get("/healthz", healthHandler.Get)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(authMW)

		r.Route("/activities", func(r chi.Router) {
			r.Get("/", activitiesHandler.List)
			r.With(RequireCreator).Post("/", activitiesHandler.Create)
			r.Get("/mine", activitiesHandler.Mine)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", activitiesHandler.Get)
				r.Put("/", activitiesHandler.Edit)
				r.Delete("/", activitiesHandler.Delete)
				r.Get("/stats", activitiesHandler.Stats)
				r.Get("/interaction", interactionsHandler.Get)
				r.Delete("/interaction", interactionsHandler.Remove)
				r.Put("/participation", interactionsHandler.Participation)
				r.Put("/like", interactionsHandler.Like)
			})
		})

		r.Get("/geo/reverse", geoHandler.Reverse)

		r.Get("/profile", profileHandler.Get)
		r.Put("/profile", profileHandler.Update)
		r.Post("/profile/picture", profileHandler.Picture)
	})
}
