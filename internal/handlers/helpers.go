package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/restoran/internal/apperr"
	"github.com/Skotchmaster/restoran/internal/util"
)

func CreateCookie(name, value, path string, exp time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  exp,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func DeleteCookie(name string, secure bool) *http.Cookie {
	c := CreateCookie(name, "", "/", time.Unix(0, 0), secure)
	c.MaxAge = -1
	return c
}

// fail logs err at a level matching its kind and hands it to the error
// handler unchanged.
func fail(l *slog.Logger, event string, err error) error {
	kind := apperr.KindOf(err)
	status := apperr.Status(kind)
	if status >= http.StatusInternalServerError {
		l.Error(event, "status", status, "error", err)
	} else {
		l.Warn(event, "status", status, "reason", kind, "error", err)
	}
	return err
}

func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperr.Wrap(apperr.KindValidation, "invalid body", err)
	}
	return nil
}

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 0)
	if err != nil || id == 0 {
		return 0, apperr.Validation(name + " must be a positive integer")
	}
	return uint(id), nil
}

func parseOptionalID(c echo.Context, name string) (uint, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 0)
	if err != nil || id == 0 {
		return 0, apperr.Validation(name + " must be a positive integer")
	}
	return uint(id), nil
}

func page(c echo.Context) util.Page {
	return util.NewPage(
		util.ParseIntDefault(c.QueryParam("page"), 1),
		util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize),
	)
}
