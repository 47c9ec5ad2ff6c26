package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/restoran/internal/logging"
	authmw "github.com/Skotchmaster/restoran/internal/middleware/auth"
	"github.com/Skotchmaster/restoran/internal/service"
	"github.com/Skotchmaster/restoran/internal/transport"
)

type ProfileHandler struct {
	Svc *service.ProfileService
}

func (h *ProfileHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "profile.get")

	acc, err := authmw.AccountFrom(c)
	if err != nil {
		return err
	}
	p, err := h.Svc.Get(ctx, acc.ID)
	if err != nil {
		return fail(l, "get_profile_failed", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "profile.update")

	acc, err := authmw.AccountFrom(c)
	if err != nil {
		return err
	}

	var req transport.UpdateProfileRequest
	if err := bind(c, &req); err != nil {
		return fail(l, "update_profile_failed", err)
	}

	p, err := h.Svc.Update(ctx, acc.ID, req)
	if err != nil {
		return fail(l, "update_profile_failed", err)
	}

	l.Info("update_profile_success", "user_id", acc.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Profile updated successfully",
		"profile": p,
	})
}
