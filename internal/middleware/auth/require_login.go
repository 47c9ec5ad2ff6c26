package auth

import (
	"errors"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/restoran/internal/apperr"
	"github.com/Skotchmaster/restoran/internal/logging"
)

// Authenticate extracts the token from the carrier, resolves it and stores
// the account under ContextKey.
func Authenticate(r *Resolver, carrier Carrier) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		TokenLookup: carrier.Lookup(),
		ContextKey:  ContextKey,
		ParseTokenFunc: func(c echo.Context, raw string) (any, error) {
			return r.Resolve(c.Request().Context(), raw)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			l := logging.FromContext(c.Request().Context())

			var ae *apperr.Error
			if errors.As(err, &ae) {
				if ae.Kind == apperr.KindInternal {
					l.Error("auth_failed", "status", 500, "error", err)
					return ae
				}
				l.Warn("auth_failed", "status", 401, "reason", ae.Message)
				return apperr.Unauthenticated(ae.Message)
			}

			l.Warn("auth_failed", "status", 401, "reason", "missing credentials")
			return apperr.Unauthenticated("missing credentials")
		},
	})
}
