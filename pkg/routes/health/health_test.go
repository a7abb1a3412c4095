package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, c *Checker, path string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	c.RegisterRoutes(e)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	ok := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("connection refused") })

	rec := serve(t, NewChecker("1.0.0", map[string]Pinger{"database": ok, "redis": ok}), "/api/v1/health")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, NewChecker("1.0.0", map[string]Pinger{"database": ok, "redis": down}), "/api/v1/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "unhealthy", status.Status)
	assert.Equal(t, "healthy", status.Checks["database"].Status)
	assert.Equal(t, "connection refused", status.Checks["redis"].Message)
	assert.Equal(t, "1.0.0", status.Version)
}

func TestLiveAndReady(t *testing.T) {
	c := NewChecker("dev", nil)

	assert.Equal(t, http.StatusOK, serve(t, c, "/api/v1/health/live").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(t, c, "/api/v1/health/ready").Code)

	c.SetReady(true)
	assert.Equal(t, http.StatusOK, serve(t, c, "/api/v1/health/ready").Code)
}
