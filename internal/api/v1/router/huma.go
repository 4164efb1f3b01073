package router

import (
	"net/http"
	"os"

	"coursemart/internal/api/v1/handler"
	"coursemart/internal/config"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// SetupHumaAPI creates the Huma API on top of the given chi router
func SetupHumaAPI(cfg *config.Config, r chi.Router, logger zerolog.Logger) huma.API {
	// Get version from environment or default to development
	version := os.Getenv("GIT_COMMIT_SHA")
	if version == "" {
		version = "development"
	}

	humaConfig := huma.DefaultConfig("Coursemart API v1", version)
	humaConfig.Info.Description = "Coursemart storefront and checkout API"
	humaConfig.Servers = []*huma.Server{{URL: cfg.APIBaseURL}}

	api := humachi.New(r, humaConfig)

	logger.Info().Str("version", version).Msg("Huma API initialized for /v1")
	return api
}

// RegisterRoutes registers all Huma operations
func RegisterRoutes(
	api huma.API,
	catalogHandler *handler.CatalogHandler,
	checkoutHandler *handler.CheckoutHandler,
	logger zerolog.Logger,
) {
	logger.Info().Msg("Registering routes")

	// ========== CATALOG OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID: "listCourses",
		Method:      http.MethodGet,
		Path:        "/courses",
		Summary:     "List courses",
		Description: "Lists the published courses, newest first",
		Tags:        []string{"catalog"},
	}, catalogHandler.ListCourses)

	huma.Register(api, huma.Operation{
		OperationID: "getCourse",
		Method:      http.MethodGet,
		Path:        "/courses/{slug}",
		Summary:     "Get course",
		Description: "Returns a published course with its lesson outline and whether the caller owns it",
		Tags:        []string{"catalog"},
	}, catalogHandler.GetCourse)

	huma.Register(api, huma.Operation{
		OperationID: "getPlayback",
		Method:      http.MethodGet,
		Path:        "/courses/{slug}/lessons/{lessonId}/playback",
		Summary:     "Get lesson playback",
		Description: "Returns the playback URL of a preview lesson, or of any lesson of a course the caller owns",
		Tags:        []string{"catalog"},
	}, catalogHandler.GetPlayback)

	huma.Register(api, huma.Operation{
		OperationID: "listHeroSlides",
		Method:      http.MethodGet,
		Path:        "/hero-slides",
		Summary:     "List hero slides",
		Description: "Lists the active landing page slides in display order",
		Tags:        []string{"content"},
	}, catalogHandler.ListHeroSlides)

	huma.Register(api, huma.Operation{
		OperationID: "listTestimonials",
		Method:      http.MethodGet,
		Path:        "/testimonials",
		Summary:     "List testimonials",
		Description: "Lists the published testimonials in display order",
		Tags:        []string{"content"},
	}, catalogHandler.ListTestimonials)

	// ========== CHECKOUT OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID:   "checkout",
		Method:        http.MethodPost,
		Path:          "/checkout",
		Summary:       "Start checkout",
		Description:   "Creates a pending purchase and returns the gateway page to redirect to. Free courses complete immediately.",
		Tags:          []string{"checkout"},
		DefaultStatus: http.StatusCreated,
	}, checkoutHandler.Checkout)

	huma.Register(api, huma.Operation{
		OperationID: "getCheckout",
		Method:      http.MethodGet,
		Path:        "/checkout/{merchantOrderId}",
		Summary:     "Get checkout status",
		Description: "Returns the purchase, asking the gateway for the latest state while it is still pending",
		Tags:        []string{"checkout"},
	}, checkoutHandler.GetCheckout)

	huma.Register(api, huma.Operation{
		OperationID: "myPurchases",
		Method:      http.MethodGet,
		Path:        "/me/purchases",
		Summary:     "List my purchases",
		Description: "Lists the purchases of the authenticated user, newest first",
		Tags:        []string{"checkout"},
	}, checkoutHandler.MyPurchases)

	logger.Info().Msg("Routes registered")
}
