package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/restoran/internal/apperr"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		_ = c.NoContent(apperr.Status(apperr.KindOf(err)))
	}
	e.Use(Middleware(Config{SkipPaths: []string{"/login"}}))
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	e.GET("/form", ok)
	e.POST("/items", ok)
	e.POST("/login", ok)
	return e
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func issuedToken(t *testing.T, e *echo.Echo) string {
	t.Helper()
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/form", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	token := rec.Header().Get("X-CSRF-Token")
	require.NotEmpty(t, token)
	return token
}

func TestSafeMethodIssuesToken(t *testing.T) {
	e := newEcho()
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/form", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "XSRF-TOKEN", cookies[0].Name)
	assert.False(t, cookies[0].HttpOnly)
	assert.Equal(t, cookies[0].Value, rec.Header().Get("X-CSRF-Token"))
}

func TestUnsafeMethod(t *testing.T) {
	e := newEcho()
	token := issuedToken(t, e)

	tests := []struct {
		name   string
		cookie string
		header string
		origin string
		want   int
	}{
		{name: "matching token", cookie: token, header: token, want: http.StatusOK},
		{name: "same origin", cookie: token, header: token, origin: "http://example.com", want: http.StatusOK},
		{name: "missing header", cookie: token, want: http.StatusForbidden},
		{name: "wrong header", cookie: token, header: token + "x", want: http.StatusForbidden},
		{name: "no cookie", header: token, want: http.StatusForbidden},
		{name: "cross origin", cookie: token, header: token, origin: "http://evil.test", want: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/items", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set("X-CSRF-Token", tt.header)
			}
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, serve(e, req).Code)
		})
	}
}

func TestSkipPaths(t *testing.T) {
	e := newEcho()
	rec := serve(e, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDisableSameOrigin(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		_ = c.NoContent(apperr.Status(apperr.KindOf(err)))
	}
	e.Use(Middleware(Config{DisableSameOrigin: true}))
	e.POST("/items", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/items", nil)
	req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "tok"})
	req.Header.Set("X-CSRF-Token", "tok")
	req.Header.Set("Origin", "http://evil.test")
	assert.Equal(t, http.StatusOK, serve(e, req).Code)
}

func TestRefererCrossOrigin(t *testing.T) {
	e := newEcho()
	token := issuedToken(t, e)

	req := httptest.NewRequest(http.MethodPost, "/items", nil)
	req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: token})
	req.Header.Set("X-CSRF-Token", token)
	req.Header.Set("Referer", "https://evil.test/page")
	assert.Equal(t, http.StatusForbidden, serve(e, req).Code)
}
