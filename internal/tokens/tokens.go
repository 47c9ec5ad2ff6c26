package tokens

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Skotchmaster/restoran/internal/models"
)

const (
	DefaultAccessTTL  = 30 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour

	typeRefresh = "refresh"
)

var ErrInvalidToken = errors.New("invalid token")

type AccessClaims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// Identity is what a verified access token proves.
type Identity struct {
	SubjectID uint
	Role      models.Role
	ExpiresAt time.Time
}

type Option func(*Service)

// WithClock replaces time.Now for issuing and validating.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service signs and verifies HS256 tokens. Secrets are fixed at
// construction and never change afterwards.
type Service struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewService(accessSecret, refreshSecret []byte, accessTTL, refreshTTL time.Duration, opts ...Option) *Service {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	s := &Service{
		accessSecret:  append([]byte(nil), accessSecret...),
		refreshSecret: append([]byte(nil), refreshSecret...),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) AccessTTL() time.Duration  { return s.accessTTL }
func (s *Service) RefreshTTL() time.Duration { return s.refreshTTL }

func (s *Service) IssueAccess(subjectID uint, role models.Role) (string, time.Time, error) {
	return s.Issue(subjectID, role, s.accessTTL)
}

func (s *Service) Issue(subjectID uint, role models.Role, ttl time.Duration) (string, time.Time, error) {
	if !role.Valid() {
		return "", time.Time{}, fmt.Errorf("issue token: %w", models.ErrUnknownRole)
	}
	now := s.now()
	exp := now.Add(ttl)
	claims := AccessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(subjectID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return token, claims.ExpiresAt.Time, nil
}

// Validate rejects a token whose expiry equals the current instant.
func (s *Service) Validate(raw string) (*Identity, error) {
	var claims AccessClaims
	if err := s.parse(raw, &claims, s.accessSecret); err != nil {
		return nil, err
	}
	if claims.Subject == "" || claims.Role == "" {
		return nil, fmt.Errorf("%w: missing required claims", ErrInvalidToken)
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role", ErrInvalidToken)
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 0)
	if err != nil || id == 0 {
		return nil, fmt.Errorf("%w: malformed subject", ErrInvalidToken)
	}

	return &Identity{
		SubjectID: uint(id),
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *Service) IssueRefresh(subjectID uint) (string, *RefreshClaims, error) {
	now := s.now()
	claims := &RefreshClaims{
		Type: typeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(subjectID), 10),
			ID:        NewJTI(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.refreshSecret)
	if err != nil {
		return "", nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return token, claims, nil
}

func (s *Service) ValidateRefresh(raw string) (*RefreshClaims, error) {
	var claims RefreshClaims
	if err := s.parse(raw, &claims, s.refreshSecret); err != nil {
		return nil, err
	}
	if claims.Type != typeRefresh {
		return nil, fmt.Errorf("%w: not a refresh token", ErrInvalidToken)
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing required claims", ErrInvalidToken)
	}
	if _, err := strconv.ParseUint(claims.Subject, 10, 0); err != nil {
		return nil, fmt.Errorf("%w: malformed subject", ErrInvalidToken)
	}
	return &claims, nil
}

// SubjectID parses the numeric subject of a validated refresh token.
func (c *RefreshClaims) SubjectID() uint {
	id, _ := strconv.ParseUint(c.Subject, 10, 0)
	return uint(id)
}

func (s *Service) parse(raw string, claims jwt.Claims, secret []byte) error {
	if raw == "" {
		return fmt.Errorf("%w: empty token", ErrInvalidToken)
	}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !tkn.Valid {
		return ErrInvalidToken
	}
	return nil
}

func Sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func NewJTI() string { return uuid.NewString() }
