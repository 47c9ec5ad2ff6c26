package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/restoran/internal/logging"
	authmw "github.com/Skotchmaster/restoran/internal/middleware/auth"
	"github.com/Skotchmaster/restoran/internal/service"
	"github.com/Skotchmaster/restoran/internal/transport"
)

type AuthHandler struct {
	Svc          *service.AuthService
	Carrier      authmw.Carrier
	CookieSecure bool
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := bind(c, &req); err != nil {
		return fail(l, "register_failed", err)
	}

	acc, err := h.Svc.Register(ctx, req)
	if err != nil {
		return fail(l, "register_failed", err)
	}

	return c.JSON(http.StatusCreated, service.AccountResponse(acc))
}

func (h *AuthHandler) setSessionCookies(c echo.Context, res *service.LoginResult) {
	if h.Carrier != authmw.CarrierCookie {
		return
	}
	c.SetCookie(CreateCookie(authmw.AccessCookieName, res.AccessToken, "/", res.AccessExp, h.CookieSecure))
	c.SetCookie(CreateCookie(authmw.RefreshCookieName, res.RefreshToken, "/", res.RefreshExp, h.CookieSecure))
}

func (h *AuthHandler) tokenResponse(res *service.LoginResult) transport.TokenResponse {
	return transport.TokenResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int64(h.Svc.Tokens.AccessTTL().Seconds()),
		IsAdmin:      res.IsAdmin,
	}
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := bind(c, &req); err != nil {
		return fail(l, "login_failed", err)
	}

	res, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return fail(l, "login_failed", err)
	}

	h.setSessionCookies(c, res)
	return c.JSON(http.StatusOK, h.tokenResponse(res))
}

// refreshToken reads the token from the JSON body first, then the cookie.
func refreshToken(c echo.Context) (string, error) {
	var req transport.RefreshRequest
	if err := bind(c, &req); err != nil {
		return "", err
	}
	if req.RefreshToken != "" {
		return req.RefreshToken, nil
	}
	if ck, err := c.Cookie(authmw.RefreshCookieName); err == nil {
		return ck.Value, nil
	}
	return "", nil
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	raw, err := refreshToken(c)
	if err != nil {
		return fail(l, "refresh_failed", err)
	}

	res, err := h.Svc.Refresh(ctx, raw)
	if err != nil {
		return fail(l, "refresh_failed", err)
	}

	h.setSessionCookies(c, res)
	return c.JSON(http.StatusOK, h.tokenResponse(res))
}

// Logout always succeeds.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	raw, _ := refreshToken(c)
	h.Svc.Logout(ctx, raw)

	c.SetCookie(DeleteCookie(authmw.AccessCookieName, h.CookieSecure))
	c.SetCookie(DeleteCookie(authmw.RefreshCookieName, h.CookieSecure))
	logging.FromContext(ctx).Info("logout_success")
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "logged out"})
}

func (h *AuthHandler) Me(c echo.Context) error {
	acc, err := authmw.AccountFrom(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transport.MeResponse{ID: acc.ID, Username: acc.Username, Email: acc.Email})
}

func (h *AuthHandler) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_users")

	list, err := h.Svc.ListAccounts(ctx, page(c))
	if err != nil {
		return fail(l, "list_users_failed", err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *AuthHandler) DeleteUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_user")

	id, err := parseID(c, "id")
	if err != nil {
		return fail(l, "delete_user_failed", err)
	}
	if err := h.Svc.DeleteAccount(ctx, id); err != nil {
		return fail(l, "delete_user_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}
