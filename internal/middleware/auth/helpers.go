package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/restoran/internal/apperr"
	"github.com/Skotchmaster/restoran/internal/models"
	"github.com/Skotchmaster/restoran/internal/tokens"
)

const (
	ContextKey        = "account"
	AccessCookieName  = "accessToken"
	RefreshCookieName = "refreshToken"
)

// Carrier is where a request presents its access token. A deployment uses
// exactly one.
type Carrier string

const (
	CarrierBearer Carrier = "bearer"
	CarrierCookie Carrier = "cookie"
)

func ParseCarrier(s string) (Carrier, error) {
	switch c := Carrier(s); c {
	case CarrierBearer, CarrierCookie:
		return c, nil
	}
	return "", fmt.Errorf("unknown auth transport %q", s)
}

// Lookup is the echo-jwt TokenLookup expression for the carrier.
func (c Carrier) Lookup() string {
	if c == CarrierCookie {
		return "cookie:" + AccessCookieName
	}
	return "header:" + echo.HeaderAuthorization + ":Bearer "
}

type AccountStore interface {
	FindAccountByID(ctx context.Context, id uint) (*models.Account, error)
}

type TokenValidator interface {
	Validate(raw string) (*tokens.Identity, error)
}

type Resolver struct {
	Tokens TokenValidator
	Store  AccountStore
}

// Resolve maps a raw access token to a live account. A valid token whose
// subject was deleted does not resolve.
func (r *Resolver) Resolve(ctx context.Context, raw string) (*models.Account, error) {
	if raw == "" {
		return nil, apperr.Unauthenticated("missing credentials")
	}

	id, err := r.Tokens.Validate(raw)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthenticated, "invalid or expired token", err)
	}

	acc, err := r.Store.FindAccountByID(ctx, id.SubjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Wrap(apperr.KindUnauthenticated, "account no longer exists", err)
		}
		return nil, apperr.Internal(err)
	}
	return acc, nil
}

// AccountFrom returns the account stored by Authenticate.
func AccountFrom(c echo.Context) (*models.Account, error) {
	acc, ok := c.Get(ContextKey).(*models.Account)
	if !ok || acc == nil {
		return nil, apperr.ErrUnauthenticated
	}
	return acc, nil
}
