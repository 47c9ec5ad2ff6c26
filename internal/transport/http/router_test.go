package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/restoran/internal/config"
	"github.com/Skotchmaster/restoran/internal/db"
	"github.com/Skotchmaster/restoran/internal/handlers"
	"github.com/Skotchmaster/restoran/internal/hash"
	authmw "github.com/Skotchmaster/restoran/internal/middleware/auth"
	"github.com/Skotchmaster/restoran/internal/middleware/metrics"
	"github.com/Skotchmaster/restoran/internal/repo"
	"github.com/Skotchmaster/restoran/internal/service"
	"github.com/Skotchmaster/restoran/internal/tokens"
	"github.com/Skotchmaster/restoran/internal/transport"
)

type testServer struct {
	e    *echo.Echo
	auth *service.AuthService
}

func newTestServer(t *testing.T, carrier authmw.Carrier) *testServer {
	t.Helper()
	gdb, err := db.Open(context.Background(), config.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })

	r := repo.New(gdb)
	tok := tokens.NewService([]byte(strings.Repeat("s", 32)), []byte(strings.Repeat("r", 32)), 30*time.Minute, time.Hour)
	authSvc := &service.AuthService{Repo: r, Tokens: tok, Hasher: hash.NewBcrypt(bcrypt.MinCost), Events: service.NopPublisher{}}

	e := echo.New()
	Register(e, &Deps{
		DB:             gdb,
		Resolver:       &authmw.Resolver{Tokens: tok, Store: r},
		Carrier:        carrier,
		Metrics:        metrics.New("restoran-test"),
		AuthHandler:    &handlers.AuthHandler{Svc: authSvc, Carrier: carrier},
		ProfileHandler: &handlers.ProfileHandler{Svc: &service.ProfileService{Repo: r}},
		CatalogHandler: &handlers.CatalogHandler{Svc: &service.CatalogService{Repo: r}},
		ReviewHandler:  &handlers.ReviewHandler{Svc: &service.ReviewService{Repo: r}},
	})
	return &testServer{e: e, auth: authSvc}
}

type call struct {
	method  string
	path    string
	body    any
	token   string
	cookies []*http.Cookie
	header  map[string]string
}

func (s *testServer) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &buf)
	if c.body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if c.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+c.token)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	for k, v := range c.header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func registerBody(username, email string) map[string]string {
	return map[string]string{
		"username":         username,
		"email":            email,
		"password":         "pw123",
		"confirm_password": "pw123",
		"role":             "user",
	}
}

func (s *testServer) login(t *testing.T, username string) transport.TokenResponse {
	t.Helper()
	rec := s.do(t, call{method: http.MethodPost, path: "/login", body: map[string]string{"username": username, "password": "pw123"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[transport.TokenResponse](t, rec)
}

func (s *testServer) signup(t *testing.T, username string) transport.TokenResponse {
	t.Helper()
	rec := s.do(t, call{method: http.MethodPost, path: "/register", body: registerBody(username, username+"@x.com")})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return s.login(t, username)
}

func TestAliceFlow(t *testing.T) {
	s := newTestServer(t, authmw.CarrierBearer)

	rec := s.do(t, call{method: http.MethodPost, path: "/register", body: registerBody("alice", "alice@x.com")})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[transport.AccountResponse](t, rec)
	assert.Equal(t, "alice", created.Username)
	assert.Equal(t, "user", created.Role)
	assert.NotContains(t, rec.Body.String(), "password")

	tok := s.login(t, "alice")
	assert.Equal(t, "bearer", tok.TokenType)
	assert.Equal(t, int64(1800), tok.ExpiresIn)
	assert.False(t, tok.IsAdmin)

	rec = s.do(t, call{method: http.MethodGet, path: "/me", token: tok.AccessToken})
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[transport.MeResponse](t, rec)
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, "alice@x.com", me.Email)

	rec = s.do(t, call{method: http.MethodGet, path: "/admin/users", token: tok.AccessToken})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Forbidden", decode[transport.ErrorResponse](t, rec).Kind)
}

func TestBobDuplicateEmail(t *testing.T) {
	s := newTestServer(t, authmw.CarrierBearer)

	rec := s.do(t, call{method: http.MethodPost, path: "/register", body: registerBody("bob", "bob@x.com")})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, call{method: http.MethodPost, path: "/register", body: registerBody("bob2", "bob@x.com")})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "DuplicateIdentity", decode[transport.ErrorResponse](t, rec).Kind)
}

func TestLoginFailuresAreIdentical(t *testing.T) {
	s := newTestServer(t, authmw.CarrierBearer)
	s.signup(t, "alice")

	wrong := s.do(t, call{method: http.MethodPost, path: "/login", body: map[string]string{"username": "alice", "password": "bad"}})
	unknown := s.do(t, call{method: http.MethodPost, path: "/login", body: map[string]string{"username": "ghost", "password": "pw123"}})

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, "InvalidCredentials", decode[transport.ErrorResponse](t, wrong).Kind)
	assert.JSONEq(t, wrong.Body.String(), unknown.Body.String())
}

func TestUnauthenticated(t *testing.T) {
	s := newTestServer(t, authmw.CarrierBearer)

	for _, c := range []call{
		{method: http.MethodGet, path: "/me"},
		{method: http.MethodGet, path: "/me", token: "not-a-token"},
		{method: http.MethodGet, path: "/admin/users"},
		{method: http.MethodPost, path: "/restaurants", body: map[string]string{"name": "x"}},
	} {
		rec := s.do(t, c)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, c.path)
		assert.Equal(t, "Unauthenticated", decode[transport.ErrorResponse](t, rec).Kind)
	}
}

func TestDeletedAccountTokenStopsResolving(t *testing.T) {
	s := newTestServer(t, authmw.CarrierBearer)
	s.auth.AllowAdminRegistration = true

	tok := s.signup(t, "alice")
	rec := s.do(t, call{method: http.MethodPost, path: "/register", body: map[string]string{
		"username": "root", "email": "root@x.com", "password": "pw123", "confirm_password": "pw123", "role": "admin",
	}})
	require.Equal(t, http.StatusCreated, rec.Code)
	admin := s.login(t, "root")
	assert.True(t, admin.IsAdmin)

	rec = s.do(t, call{method: http.MethodGet, path: "/admin/users", token: admin.AccessToken})
	require.Equal(t, http.StatusOK, rec.Code)
	var users struct {
		Data []transport.AccountResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Len(t, users.Data, 2)

	me := decode[transport.MeResponse](t, s.do(t, call{method: http.MethodGet, path: "/me", token: tok.AccessToken}))
	rec = s.do(t, call{method: http.MethodDelete, path: fmt.Sprintf("/admin/users/%d", me.ID), token: admin.AccessToken})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, call{method: http.MethodGet, path: "/me", token: tok.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, call{method: http.MethodDelete, path: fmt.Sprintf("/admin/users/%d", me.ID), token: admin.AccessToken})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRefreshAndLogout(t *testing.T) {
	s := newTestServer(t, authmw.CarrierBearer)
	tok := s.signup(t, "alice")

	rec := s.do(t, call{method: http.MethodPost, path: "/refresh", body: map[string]string{"refresh_token": tok.RefreshToken}})
	require.Equal(t, http.StatusOK, rec.Code)
	next := decode[transport.TokenResponse](t, rec)
	assert.NotEqual(t, tok.RefreshToken, next.RefreshToken)

	rec = s.do(t, call{method: http.MethodPost, path: "/refresh", body: map[string]string{"refresh_token": tok.RefreshToken}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, call{method: http.MethodPost, path: "/logout", body: map[string]string{"refresh_token": next.RefreshToken}})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, call{method: http.MethodPost, path: "/logout"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, call{method: http.MethodPost, path: "/refresh", body: map[string]string{"refresh_token": next.RefreshToken}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfileEndpoints(t *testing.T) {
	s := newTestServer(t, authmw.CarrierBearer)
	tok := s.signup(t, "carol")

	rec := s.do(t, call{method: http.MethodGet, path: "/me-profile", token: tok.AccessToken})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"display_name":"carol"`)

	rec = s.do(t, call{method: http.MethodPut, path: "/me-profile", token: tok.AccessToken, body: map[string]string{"phone_number": "+371"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Profile updated successfully")
	assert.Contains(t, rec.Body.String(), `"phone_number":"+371"`)

	rec = s.do(t, call{method: http.MethodPut, path: "/me-profile", token: tok.AccessToken, body: map[string]string{"contact_email": "bad"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCatalogFlow(t *testing.T) {
	s := newTestServer(t, authmw.CarrierBearer)
	owner := s.signup(t, "owner")
	guest := s.signup(t, "guest")

	rec := s.do(t, call{method: http.MethodPost, path: "/restaurants", token: owner.AccessToken, body: map[string]any{"name": "Chez", "city": "Riga"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rest := decode[struct {
		ID uint `json:"id"`
	}](t, rec)

	rec = s.do(t, call{method: http.MethodPatch, path: fmt.Sprintf("/restaurants/%d", rest.ID), token: guest.AccessToken, body: map[string]any{"name": "Mine"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, call{method: http.MethodPost, path: "/categories", token: guest.AccessToken, body: map[string]any{"name": "soup"}})
	require.Equal(t, http.StatusCreated, rec.Code)
	cat := decode[struct {
		ID uint `json:"id"`
	}](t, rec)
	rec = s.do(t, call{method: http.MethodPost, path: "/categories", token: guest.AccessToken, body: map[string]any{"name": "soup"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, call{method: http.MethodDelete, path: fmt.Sprintf("/categories/%d", cat.ID), token: guest.AccessToken})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, call{method: http.MethodPost, path: "/dishes", token: owner.AccessToken, body: map[string]any{
		"restaurant_id": rest.ID, "category_id": cat.ID, "name": "Tomato Soup", "price": 450,
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	dish := decode[struct {
		ID          uint `json:"id"`
		IsAvailable bool `json:"is_available"`
	}](t, rec)
	assert.True(t, dish.IsAvailable)

	rec = s.do(t, call{method: http.MethodPost, path: "/dishes", token: owner.AccessToken, body: map[string]any{
		"restaurant_id": rest.ID, "category_id": 999, "name": "Ghost",
	}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, call{method: http.MethodGet, path: "/dishes?name=SOUP"})
	require.Equal(t, http.StatusOK, rec.Code)
	var dishes struct {
		Data []json.RawMessage `json:"data"`
		Meta struct {
			Total int64 `json:"total"`
			Page  int   `json:"page"`
			Size  int   `json:"size"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dishes))
	assert.Equal(t, int64(1), dishes.Meta.Total)
	assert.Equal(t, 1, dishes.Meta.Page)
	assert.Equal(t, 10, dishes.Meta.Size)

	rec = s.do(t, call{method: http.MethodGet, path: "/dishes?restaurant_id=abc"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, call{method: http.MethodPost, path: "/reviews", token: guest.AccessToken, body: map[string]any{"dish_id": dish.ID, "rating": 6}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, call{method: http.MethodPost, path: "/reviews", token: guest.AccessToken, body: map[string]any{"dish_id": dish.ID, "rating": 4, "comment": "ok"}})
	require.Equal(t, http.StatusCreated, rec.Code)
	review := decode[struct {
		ID uint `json:"id"`
	}](t, rec)

	rec = s.do(t, call{method: http.MethodGet, path: fmt.Sprintf("/reviews?dish_id=%d", dish.ID)})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"comment":"ok"`)

	rec = s.do(t, call{method: http.MethodDelete, path: fmt.Sprintf("/reviews/%d", review.ID), token: owner.AccessToken})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(t, call{method: http.MethodDelete, path: fmt.Sprintf("/reviews/%d", review.ID), token: guest.AccessToken})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, call{method: http.MethodDelete, path: fmt.Sprintf("/dishes/%d", dish.ID), token: owner.AccessToken})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, call{method: http.MethodGet, path: fmt.Sprintf("/dishes/%d", dish.ID)})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NotFound", decode[transport.ErrorResponse](t, rec).Kind)
}

func TestFrameworkErrors(t *testing.T) {
	s := newTestServer(t, authmw.CarrierBearer)

	rec := s.do(t, call{method: http.MethodGet, path: "/no/such/route"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NotFound", decode[transport.ErrorResponse](t, rec).Kind)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("{not json"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	out := httptest.NewRecorder()
	s.e.ServeHTTP(out, req)
	assert.Equal(t, http.StatusBadRequest, out.Code)
	assert.Equal(t, "ValidationError", decode[transport.ErrorResponse](t, out).Kind)

	rec = s.do(t, call{method: http.MethodGet, path: "/restaurants/abc"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, authmw.CarrierBearer)

	assert.Equal(t, http.StatusOK, s.do(t, call{method: http.MethodGet, path: "/health/live"}).Code)
	assert.Equal(t, http.StatusOK, s.do(t, call{method: http.MethodGet, path: "/health/ready"}).Code)

	rec := s.do(t, call{method: http.MethodGet, path: "/metrics"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestCookieCarrier(t *testing.T) {
	s := newTestServer(t, authmw.CarrierCookie)

	rec := s.do(t, call{method: http.MethodPost, path: "/register", body: registerBody("alice", "alice@x.com")})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, call{method: http.MethodPost, path: "/login", body: map[string]string{"username": "alice", "password": "pw123"}})
	require.Equal(t, http.StatusOK, rec.Code)
	access := cookieNamed(rec, authmw.AccessCookieName)
	require.NotNil(t, access)
	assert.True(t, access.HttpOnly)
	tok := decode[transport.TokenResponse](t, rec)

	rec = s.do(t, call{method: http.MethodGet, path: "/me", cookies: []*http.Cookie{access}})
	require.Equal(t, http.StatusOK, rec.Code)
	csrfCookie := cookieNamed(rec, "XSRF-TOKEN")
	require.NotNil(t, csrfCookie)

	rec = s.do(t, call{method: http.MethodGet, path: "/me", token: tok.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "bearer header ignored in cookie mode")

	body := map[string]any{"name": "Chez"}
	rec = s.do(t, call{method: http.MethodPost, path: "/restaurants", body: body, cookies: []*http.Cookie{access, csrfCookie}})
	assert.Equal(t, http.StatusForbidden, rec.Code, "missing CSRF header")

	rec = s.do(t, call{
		method:  http.MethodPost,
		path:    "/restaurants",
		body:    body,
		cookies: []*http.Cookie{access, csrfCookie},
		header:  map[string]string{"X-CSRF-Token": csrfCookie.Value},
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, call{method: http.MethodPost, path: "/logout", cookies: []*http.Cookie{access, csrfCookie}, header: map[string]string{"X-CSRF-Token": csrfCookie.Value}})
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := cookieNamed(rec, authmw.AccessCookieName)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
}

func TestCookieCarrierLogoutWithoutCSRFHeader(t *testing.T) {
	s := newTestServer(t, authmw.CarrierCookie)

	rec := s.do(t, call{method: http.MethodPost, path: "/register", body: registerBody("alice", "alice@x.com")})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do(t, call{method: http.MethodPost, path: "/login", body: map[string]string{"username": "alice", "password": "pw123"}})
	require.Equal(t, http.StatusOK, rec.Code)
	access := cookieNamed(rec, authmw.AccessCookieName)
	refresh := cookieNamed(rec, authmw.RefreshCookieName)
	require.NotNil(t, access)
	require.NotNil(t, refresh)

	rec = s.do(t, call{method: http.MethodPost, path: "/logout", cookies: []*http.Cookie{access, refresh}})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, call{method: http.MethodPost, path: "/logout"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, call{method: http.MethodPost, path: "/refresh", cookies: []*http.Cookie{refresh}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "logout revokes the refresh cookie")
}

func TestListHugePageNumber(t *testing.T) {
	s := newTestServer(t, authmw.CarrierBearer)
	owner := s.signup(t, "owner")
	rec := s.do(t, call{method: http.MethodPost, path: "/restaurants", token: owner.AccessToken, body: map[string]any{"name": "Chez"}})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, call{method: http.MethodGet, path: "/restaurants?page=9223372036854775807"})
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data []json.RawMessage `json:"data"`
		Meta struct {
			Total   int64 `json:"total"`
			HasPrev bool  `json:"has_prev"`
			HasNext bool  `json:"has_next"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Empty(t, list.Data)
	assert.Equal(t, int64(1), list.Meta.Total)
	assert.True(t, list.Meta.HasPrev)
	assert.False(t, list.Meta.HasNext)
}
