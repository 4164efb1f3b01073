package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"coursemart/internal/api/v1/dto"
	"coursemart/internal/service"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrCourseNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: %w", service.ErrLessonNotFound, service.ErrVideoNotReady), http.StatusNotFound},
		{service.ErrPurchaseNotFound, http.StatusNotFound},
		{service.ErrAlreadyPurchased, http.StatusConflict},
		{service.ErrDuplicateSlug, http.StatusConflict},
		{service.ErrCourseHasPurchases, http.StatusConflict},
		{service.ErrCourseNotPurchasable, http.StatusBadRequest},
		{service.ErrInvalidLessonOrder, http.StatusBadRequest},
		{service.ErrUnknownGateway, http.StatusBadRequest},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrInvalidWebhook, http.StatusUnauthorized},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestHumaErrorKeepsStatus(t *testing.T) {
	var se huma.StatusError
	require.ErrorAs(t, humaError(service.ErrAlreadyPurchased, "x"), &se)
	assert.Equal(t, http.StatusConflict, se.GetStatus())

	require.ErrorAs(t, humaError(errors.New("db down"), "Failed"), &se)
	assert.Equal(t, http.StatusInternalServerError, se.GetStatus())
}

func TestDecodeJSON(t *testing.T) {
	validate := NewValidator()

	t.Run("valid", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"slug":"go-basics","title":"Go","price_paise":49900}`))
		var req dto.CourseCreateDTO
		require.NoError(t, decodeJSON(httptest.NewRecorder(), r, &req, validate))
		assert.Equal(t, "go-basics", req.Slug)
		assert.Equal(t, int64(49900), req.PricePaise)
	})

	t.Run("unknown field", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"slug":"go","title":"Go","owner":"me"}`))
		var req dto.CourseCreateDTO
		assert.Error(t, decodeJSON(httptest.NewRecorder(), r, &req, validate))
	})

	t.Run("bad slug", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"slug":"Go Basics","title":"Go"}`))
		var req dto.CourseCreateDTO
		err := decodeJSON(httptest.NewRecorder(), r, &req, validate)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "validation failed")
	})

	t.Run("negative price", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"slug":"go","title":"Go","price_paise":-1}`))
		var req dto.CourseCreateDTO
		assert.Error(t, decodeJSON(httptest.NewRecorder(), r, &req, validate))
	})
}

func TestWriteServiceErrorHidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceError(rec, errors.New("pq: password authentication failed"), "Failed to list courses", testLogger())
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	assert.Contains(t, rec.Body.String(), "Failed to list courses")
}
