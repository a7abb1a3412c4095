package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectoinject/ectocontainer"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/appctx"
)

func newTestEcho(t *testing.T) *echo.Echo {
	t.Helper()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	e := echo.New()
	e.HTTPErrorHandler = Error(logger)
	e.Use(Context())
	e.Use(Logger(logger))
	return e
}

func TestContext_PropagatesRequestID(t *testing.T) {
	e := newTestEcho(t)
	var seen string
	e.GET("/ping", func(c echo.Context) error {
		seen = appctx.GetRequestID(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", rec.Header().Get(echo.HeaderXRequestID))
}

func TestContext_GeneratesRequestID(t *testing.T) {
	e := newTestEcho(t)
	e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Len(t, rec.Header().Get(echo.HeaderXRequestID), 36)
}

func TestError_HTTPError(t *testing.T) {
	e := newTestEcho(t)
	e.GET("/bad", func(c echo.Context) error {
		return httperror.NewHTTPError(http.StatusBadRequest, "name is required")
	})

	req := httptest.NewRequest(http.MethodGet, "/bad", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-9")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Message, "name is required")
	assert.Equal(t, "req-9", body.RequestID)
}

func TestError_PlainError(t *testing.T) {
	e := newTestEcho(t)
	e.GET("/boom", func(c echo.Context) error { return errors.New("database is down") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Internal Server Error", body.Message)
}

func TestError_EchoNotFound(t *testing.T) {
	e := newTestEcho(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestContainer_ActivatesContainer(t *testing.T) {
	config := ectoinject.DefaultContainerConfig
	config.ID = uuid.New().String()
	config.LoggerConfig = &ectocontainer.DIContainerLoggerConfig{Enabled: false}
	container, err := ectoinject.NewDIContainer(config)
	require.NoError(t, err)
	require.NoError(t, ectoinject.RegisterInstance[string](container, "fern", "service"))

	e := newTestEcho(t)
	e.Use(Container(config.ID))
	var seen string
	e.GET("/ping", func(c echo.Context) error {
		_, name, err := ectoinject.GetNamedDependency[string](c.Request().Context(), "service")
		if err != nil {
			return err
		}
		seen = name
		return c.NoContent(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "fern", seen)
}

func TestContainer_UnknownContainer(t *testing.T) {
	e := newTestEcho(t)
	e.Use(Container("missing-" + uuid.New().String()))
	e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
