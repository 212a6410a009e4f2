package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codebuildervaibhav/meeting-summarizer/internal/metrics"
)

func newApp(t *testing.T) (*fiber.App, *test.Hook, *metrics.Metrics) {
	t.Helper()
	log, hook := test.NewNullLogger()
	m := metrics.New()

	app := fiber.New()
	app.Use(RequestLogger(log, m))
	app.Get("/api/meetings/:id", func(c *fiber.Ctx) error {
		if c.Params("id") == "0" {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Meeting not found"})
		}
		return c.JSON(fiber.Map{"id": c.Params("id"), "rid": c.Locals(RequestIDKey)})
	})
	return app, hook, m
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	app, hook, _ := newApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/meetings/7", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, resp.Header.Get("X-Request-ID"), entry.Data["request_id"])
	assert.Equal(t, 200, entry.Data["status_code"])
}

func TestRequestLoggerWarnsOnClientError(t *testing.T) {
	app, hook, _ := newApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/meetings/0", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestRequestLoggerRecordsRoutePattern(t *testing.T) {
	app, _, m := newApp(t)

	for _, id := range []string{"1", "2"} {
		_, err := app.Test(httptest.NewRequest("GET", "/api/meetings/"+id, nil))
		require.NoError(t, err)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(),
		`meeting_http_requests_total{method="GET",route="/api/meetings/:id",status="200"} 2`)
}
