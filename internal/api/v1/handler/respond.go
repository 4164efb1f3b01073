package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"coursemart/internal/service"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxBodyBytes caps JSON request bodies and webhook payloads.
const maxBodyBytes = 1 << 20

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// NewValidator returns the validator used by the admin handlers, with the "slug" tag registered.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	return v
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any, logger zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: msg})
}

// requireUUIDParam rejects requests whose path parameter is not a canonical UUID.
func requireUUIDParam(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, name)
			if len(id) != 36 || uuid.Validate(id) != nil {
				writeError(w, http.StatusBadRequest, "invalid "+name)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// decodeJSON reads a JSON body into v and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, validate *validator.Validate) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON payload: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// statusFor maps service errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrCourseNotFound),
		errors.Is(err, service.ErrLessonNotFound),
		errors.Is(err, service.ErrSlideNotFound),
		errors.Is(err, service.ErrTestimonialNotFound),
		errors.Is(err, service.ErrPurchaseNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAlreadyPurchased),
		errors.Is(err, service.ErrDuplicateSlug),
		errors.Is(err, service.ErrCourseHasPurchases):
		return http.StatusConflict
	case errors.Is(err, service.ErrCourseNotPurchasable),
		errors.Is(err, service.ErrInvalidLessonOrder),
		errors.Is(err, service.ErrInvalidOrder),
		errors.Is(err, service.ErrUnknownGateway),
		errors.Is(err, service.ErrUnknownProvider),
		errors.Is(err, service.ErrInvalidUploadKind):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidWebhook):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError writes the mapped status; internal details are only logged.
func writeServiceError(w http.ResponseWriter, err error, msg string, logger zerolog.Logger) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Msg(msg)
		writeError(w, status, msg)
		return
	}
	writeError(w, status, err.Error())
}

// humaError is the huma counterpart of writeServiceError.
func humaError(err error, msg string) error {
	switch statusFor(err) {
	case http.StatusNotFound:
		return huma.Error404NotFound(err.Error())
	case http.StatusConflict:
		return huma.Error409Conflict(err.Error())
	case http.StatusBadRequest:
		return huma.Error400BadRequest(err.Error())
	case http.StatusForbidden:
		return huma.Error403Forbidden(err.Error())
	case http.StatusUnauthorized:
		return huma.Error401Unauthorized(err.Error())
	default:
		return huma.Error500InternalServerError(msg, err)
	}
}
