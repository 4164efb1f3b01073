package router

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"coursemart/internal/config"
	"coursemart/internal/middleware"
	"coursemart/internal/model"
	"coursemart/internal/service"

	"github.com/dgrijalva/jwt-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret"

type stubCatalog struct {
	service.CatalogService
}

func (stubCatalog) ListCourses(context.Context) ([]model.Course, error) {
	return []model.Course{{ID: "c1", Slug: "go-basics", Title: "Go Basics", PricePaise: 49900, Currency: "INR", Published: true}}, nil
}

func (stubCatalog) GetPlayback(_ context.Context, _, lessonID, _ string) (*service.Playback, error) {
	return &service.Playback{LessonID: lessonID, Provider: "mux", PlaybackURL: "https://stream.mux.com/p.m3u8"}, nil
}

type stubCourses struct {
	service.CourseService
}

func (stubCourses) ListCourses(context.Context) ([]model.Course, error) {
	return []model.Course{}, nil
}

type stubCheckout struct {
	service.CheckoutService
	webhooks int
}

func (s *stubCheckout) HandleWebhook(context.Context, string, *http.Request, []byte) (*model.Purchase, error) {
	s.webhooks++
	return &model.Purchase{MerchantOrderID: "CM_1", State: model.PurchaseStateCompleted}, nil
}

type stubContent struct {
	service.ContentService
}

func (stubContent) PublicURL(path string) string { return path }

func signToken(t *testing.T, sub, email string) string {
	t.Helper()
	claims := middleware.Claims{
		Email: email,
		StandardClaims: jwt.StandardClaims{
			Subject:   sub,
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func newTestRouter(checkout *stubCheckout) http.Handler {
	cfg := &config.Config{Environment: "test", APIBaseURL: "http://localhost:8080/v1", FrontendBaseURL: "http://localhost:3000"}
	logger := zerolog.New(io.Discard)
	auth := middleware.NewAuthenticator(testSecret, map[string]struct{}{"admin@coursemart.dev": {}}, logger)
	return New(cfg, Services{
		Catalog:  stubCatalog{},
		Checkout: checkout,
		Courses:  stubCourses{},
		Content:  stubContent{},
	}, auth, logger)
}

func serve(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := serve(newTestRouter(&stubCheckout{}), http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestPublicCatalogIsAnonymous(t *testing.T) {
	rec := serve(newTestRouter(&stubCheckout{}), http.MethodGet, "/v1/courses", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"slug":"go-basics"`)
}

func TestPublicCatalogRejectsBadToken(t *testing.T) {
	rec := serve(newTestRouter(&stubCheckout{}), http.MethodGet, "/v1/courses", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckoutNeedsLogin(t *testing.T) {
	rec := serve(newTestRouter(&stubCheckout{}), http.MethodPost, "/v1/checkout", "",
		`{"course_id":"6f1c7e9a-8f0e-4b3e-9f59-3b7f0d2d1a01"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPlaybackRejectsMalformedLessonID(t *testing.T) {
	h := newTestRouter(&stubCheckout{})

	rec := serve(h, http.MethodGet, "/v1/courses/go-basics/lessons/not-a-uuid/playback", "", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	rec = serve(h, http.MethodGet, "/v1/courses/go-basics/lessons/6f1c7e9a-8f0e-4b3e-9f59-3b7f0d2d1b01/playback", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "stream.mux.com")
}

func TestAdminRejectsMalformedID(t *testing.T) {
	rec := serve(newTestRouter(&stubCheckout{}), http.MethodGet, "/v1/admin/courses/not-a-uuid",
		signToken(t, "u2", "admin@coursemart.dev"), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminRoutes(t *testing.T) {
	h := newTestRouter(&stubCheckout{})

	rec := serve(h, http.MethodGet, "/v1/admin/courses", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(h, http.MethodGet, "/v1/admin/courses", signToken(t, "u1", "student@example.com"), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(h, http.MethodGet, "/v1/admin/courses", signToken(t, "u2", "Admin@Coursemart.dev"), "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookBypassesUserAuth(t *testing.T) {
	checkout := &stubCheckout{}
	h := newTestRouter(checkout)

	// PhonePe sends its own Authorization header, which is not a user token.
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/phonepe", strings.NewReader(`{"event":"checkout.order.completed"}`))
	req.Header.Set("Authorization", "SHA256 deadbeef")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, checkout.webhooks)
}

func TestOpenAPIDocument(t *testing.T) {
	rec := serve(newTestRouter(&stubCheckout{}), http.MethodGet, "/v1/openapi.json", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	for _, op := range []string{"listCourses", "getCourse", "getPlayback", "checkout", "getCheckout", "myPurchases"} {
		assert.Contains(t, body, `"`+op+`"`)
	}
}
