package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-backend/internal/interfaces/http/routes"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"github.com/your-org/storefront-backend/internal/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type checkerFunc func(ctx context.Context) error

func (f checkerFunc) Health(ctx context.Context) error { return f(ctx) }

type denyAll struct{}

func (denyAll) Authenticate(context.Context, string) (*user.User, error) {
	return nil, apperror.Unauthorized("invalid or expired token")
}

func newTestServer(dbErr error) *Server {
	cfg := &config.Config{}
	cfg.App.Name = "storefront"
	cfg.App.Version = "test"
	cfg.Metrics.Enabled = true
	cfg.Metrics.Path = "/metrics"

	logger, _ := test.NewNullLogger()
	return NewServer(cfg, Options{
		Database: checkerFunc(func(context.Context) error { return dbErr }),
		Cache:    checkerFunc(func(context.Context) error { return nil }),
		Metrics:  metrics.New(),
		Handlers: &routes.Handlers{
			Auth:          handlers.NewAuthHandler(nil),
			Users:         handlers.NewUserHandler(nil),
			Products:      handlers.NewProductHandler(nil),
			Cart:          handlers.NewCartHandler(nil, nil),
			Orders:        handlers.NewOrderHandler(nil, nil, nil),
			Reviews:       handlers.NewReviewHandler(nil),
			Subscribe:     handlers.NewSubscribeHandler(nil),
			Upload:        handlers.NewUploadHandler(nil),
			Authenticator: denyAll{},
		},
		Logger: logger,
	})
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(newTestServer(nil).Handler(), "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, map[string]interface{}{"database": "healthy", "redis": "healthy"}, body["checks"])
}

func TestHealthReportsFailingDependency(t *testing.T) {
	rec := get(newTestServer(errors.New("connection refused")).Handler(), "/health")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body["status"])
	assert.Equal(t, "unhealthy", body["checks"].(map[string]interface{})["database"])
}

func TestReadyAndMetrics(t *testing.T) {
	h := newTestServer(nil).Handler()

	assert.Equal(t, http.StatusOK, get(h, "/ready").Code)
	get(h, "/health")

	rec := get(h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `storefront_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestRoutesAreGuarded(t *testing.T) {
	h := newTestServer(nil).Handler()

	tests := []struct {
		method, path string
		status       int
	}{
		{http.MethodGet, "/api/v1/users", http.StatusUnauthorized},
		{http.MethodPatch, "/api/v1/orders/1", http.StatusUnauthorized},
		{http.MethodDelete, "/api/v1/orders/1", http.StatusUnauthorized},
		{http.MethodPost, "/api/v1/products", http.StatusUnauthorized},
		{http.MethodPost, "/api/v1/reviews", http.StatusUnauthorized},
		{http.MethodPost, "/api/v1/upload", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/nothing-here", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), `"success":false`)
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}
