package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/restoran/internal/apperr"
	"github.com/Skotchmaster/restoran/internal/logging"
	"github.com/Skotchmaster/restoran/internal/transport"
)

// ErrorHandler renders every error as {"kind", "message"}. Causes of
// internal errors are logged and never sent to the client.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	body := toResponse(err)
	status := apperr.Status(apperr.Kind(body.Kind))
	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request().Context()).Error("internal_error", "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("write_error_response_failed", "error", err)
	}
}

func toResponse(err error) transport.ErrorResponse {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		msg := ae.Message
		if ae.Kind == apperr.KindInternal {
			msg = apperr.ErrInternal.Message
		}
		return transport.ErrorResponse{Kind: string(ae.Kind), Message: msg}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		kind := apperr.FromStatus(he.Code)
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && kind != apperr.KindInternal {
			msg = m
		}
		return transport.ErrorResponse{Kind: string(kind), Message: msg}
	}

	return transport.ErrorResponse{Kind: string(apperr.KindInternal), Message: apperr.ErrInternal.Message}
}
