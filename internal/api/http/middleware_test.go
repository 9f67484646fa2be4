package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/glpi-bridge/internal/observability"
	apperrors "github.com/spec-kit/glpi-bridge/pkg/util"
)

func newTestApp() *fiber.App {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 5*time.Second)
	return app
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestErrorMiddlewareFormatsDomainErrors(t *testing.T) {
	app := newTestApp()
	app.Get("/boom", func(c *fiber.Ctx) error {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": 9})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "NOT_FOUND", body["code"])
	assert.NotEmpty(t, body["message"])
}

func TestErrorMiddlewarePreservesUpstreamStatus(t *testing.T) {
	app := newTestApp()
	app.Get("/upstream", func(c *fiber.Ctx) error {
		return apperrors.NewUpstreamError(http.StatusServiceUnavailable, "maintenance")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/upstream", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "UPSTREAM_ERROR", body["code"])
	assert.EqualValues(t, http.StatusServiceUnavailable, body["upstream_status"])
	// The raw upstream body never leaks into the response.
	assert.NotContains(t, body, "upstream_body")
}

func TestErrorMiddlewareRecoversFromPanic(t *testing.T) {
	app := newTestApp()
	app.Get("/panic", func(c *fiber.Ctx) error {
		panic("handler exploded")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/panic", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "INTERNAL_ERROR", body["code"])
}

func TestRequestTimeoutDeadlinePropagates(t *testing.T) {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), nil, 50*time.Millisecond)
	app.Get("/slow", func(c *fiber.Ctx) error {
		deadline, ok := c.UserContext().Deadline()
		assert.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 40*time.Millisecond)
		return c.SendStatus(http.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/slow", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
