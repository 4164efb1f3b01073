package router

import (
	"net/http"

	"coursemart/internal/api/v1/handler"
	"coursemart/internal/config"
	"coursemart/internal/middleware"
	"coursemart/internal/service"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// Services are the backends the HTTP API is served from.
type Services struct {
	Catalog  service.CatalogService
	Checkout service.CheckoutService
	Courses  service.CourseService
	Lessons  service.LessonService
	Content  service.ContentService
}

// New builds the HTTP handler for the whole API.
func New(cfg *config.Config, svc Services, auth *middleware.Authenticator, logger zerolog.Logger) http.Handler {
	validate := handler.NewValidator()
	publicURL := handler.PublicURLFunc(svc.Content.PublicURL)

	catalogHandler := handler.NewCatalogHandler(svc.Catalog, publicURL, logger)
	checkoutHandler := handler.NewCheckoutHandler(svc.Checkout, svc.Catalog, logger)
	courseHandler := handler.NewCourseHandler(svc.Courses, svc.Lessons, publicURL, validate, logger)
	contentHandler := handler.NewContentHandler(svc.Content, validate, logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.LoggerMiddleware(logger))
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   corsOrigins(cfg),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1", func(v1 chi.Router) {
		// Gateways authenticate themselves; the payload is verified by the gateway adapter.
		v1.Post("/webhooks/{gateway}", checkoutHandler.Webhook)

		v1.Route("/admin", func(admin chi.Router) {
			admin.Use(auth.Required, auth.Admin)
			courseHandler.RegisterRoutes(admin)
			contentHandler.RegisterRoutes(admin)
		})

		v1.Group(func(public chi.Router) {
			public.Use(auth.Optional)
			api := SetupHumaAPI(cfg, public, logger)
			RegisterRoutes(api, catalogHandler, checkoutHandler, logger)
		})
	})

	logger.Info().Msg("Router initialized")
	return r
}

// corsOrigins allows everything in development and only the storefront otherwise.
func corsOrigins(cfg *config.Config) []string {
	if cfg.IsDevelopment() || cfg.FrontendBaseURL == "" {
		return []string{"*"}
	}
	return []string{cfg.FrontendBaseURL}
}
