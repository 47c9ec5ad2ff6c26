package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/restoran/internal/apperr"
	"github.com/Skotchmaster/restoran/internal/logging"
	"github.com/Skotchmaster/restoran/internal/models"
)

// RequireRole passes the account through only on an exact role match.
func RequireRole(acc *models.Account, role models.Role) (*models.Account, error) {
	if acc == nil {
		return nil, apperr.ErrUnauthenticated
	}
	if acc.Role != role {
		return nil, apperr.Forbidden("requires role " + role.String())
	}
	return acc, nil
}

// Require is the middleware form of RequireRole; it must run after
// Authenticate.
func Require(role models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			acc, err := AccountFrom(c)
			if err != nil {
				return err
			}
			if _, err := RequireRole(acc, role); err != nil {
				logging.FromContext(c.Request().Context()).Warn("access_denied",
					"status", 403, "user_id", acc.ID, "role", acc.Role, "required", role)
				return err
			}
			return next(c)
		}
	}
}

func AdminOnly() echo.MiddlewareFunc {
	return Require(models.RoleAdmin)
}
