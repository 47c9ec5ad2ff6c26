package loggingmw

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/restoran/internal/logging"
)

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := logging.NewWithWriter(&buf, "debug")

	e := echo.New()
	e.Use(middleware.RequestID(), RequestLogger(base))
	e.GET("/ok", func(c echo.Context) error {
		logging.FromContext(c.Request().Context()).Info("inside_handler")
		return c.NoContent(http.StatusOK)
	})
	e.GET("/fail", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "nope")
	})
	e.GET("/boom", func(c echo.Context) error { return errors.New("boom") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var inner, done map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &inner))
	require.NoError(t, json.Unmarshal(lines[1], &done))
	assert.Equal(t, "inside_handler", inner["msg"])
	assert.Equal(t, "/ok", inner["path"])
	assert.NotEmpty(t, inner["request_id"])
	assert.Equal(t, inner["request_id"], done["request_id"])
	assert.EqualValues(t, 200, done["status"])

	buf.Reset()
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, buf.String(), `"level":"WARN"`)

	buf.Reset()
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
}
