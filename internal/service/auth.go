package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/restoran/internal/apperr"
	"github.com/Skotchmaster/restoran/internal/hash"
	"github.com/Skotchmaster/restoran/internal/logging"
	"github.com/Skotchmaster/restoran/internal/models"
	"github.com/Skotchmaster/restoran/internal/repo"
	"github.com/Skotchmaster/restoran/internal/tokens"
	"github.com/Skotchmaster/restoran/internal/transport"
	"github.com/Skotchmaster/restoran/internal/util"
)

type AuthService struct {
	Repo   *repo.GormRepo
	Tokens *tokens.Service
	Hasher hash.Hasher
	Events EventPublisher

	AllowAdminRegistration bool

	// Now defaults to time.Now.
	Now func() time.Time
}

type LoginResult struct {
	Account      *models.Account
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	IsAdmin      bool
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*models.Account, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" || email == "" || req.Password == "" {
		return nil, apperr.Validation("username, email and password are required")
	}
	if !validEmail(email) {
		return nil, apperr.Validation("invalid email address")
	}
	if req.Password != req.ConfirmPassword {
		return nil, apperr.Validation("passwords do not match")
	}

	role := models.RoleUser
	if req.Role != "" {
		r, err := models.ParseRole(req.Role)
		if err != nil {
			return nil, apperr.Validation("unknown role")
		}
		role = r
	}
	if role == models.RoleAdmin && !s.AllowAdminRegistration {
		l.Warn("register_failed", "status", 400, "reason", "admin self-registration disabled")
		return nil, apperr.Validation("admin self-registration is disabled")
	}

	taken, err := s.Repo.IdentityTaken(ctx, username, email)
	if err != nil {
		l.Error("register_failed", "status", 500, "error", err)
		return nil, apperr.Internal(err)
	}
	if taken {
		l.Warn("register_failed", "status", 400, "reason", "duplicate identity")
		return nil, apperr.ErrDuplicateIdentity
	}

	pwHash, err := s.Hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, hash.ErrPasswordTooLong) {
			return nil, apperr.Validation("password is too long")
		}
		l.Error("register_failed", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, apperr.Internal(err)
	}

	acc := &models.Account{
		Username:     username,
		Email:        email,
		PasswordHash: pwHash,
		Role:         role,
	}
	profile := &models.Profile{DisplayName: username, ContactEmail: email}
	if err := s.Repo.CreateAccountWithProfile(ctx, acc, profile); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			l.Warn("register_failed", "status", 400, "reason", "duplicate identity on insert")
			return nil, apperr.ErrDuplicateIdentity
		}
		l.Error("register_failed", "status", 500, "error", err)
		return nil, apperr.Internal(err)
	}

	publish(ctx, s.Events, TopicUserEvents, Event{Type: EventUserRegistered, UserID: acc.ID})
	l.Info("register_success", "user_id", acc.ID, "role", acc.Role)
	return acc, nil
}

// Login reports the same error for an unknown username and a wrong password.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	acc, err := s.Repo.FindAccountByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "invalid credentials")
			return nil, apperr.ErrInvalidCredentials
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, apperr.Internal(err)
	}
	if !s.Hasher.Check(acc.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "invalid credentials")
		return nil, apperr.ErrInvalidCredentials
	}

	res, err := s.issueSession(ctx, acc)
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, apperr.Internal(err)
	}

	publish(ctx, s.Events, TopicUserEvents, Event{Type: EventUserLoggedIn, UserID: acc.ID})
	l.Info("login_success", "user_id", acc.ID)
	return res, nil
}

func (s *AuthService) issueSession(ctx context.Context, acc *models.Account) (*LoginResult, error) {
	access, accessExp, err := s.Tokens.IssueAccess(acc.ID, acc.Role)
	if err != nil {
		return nil, err
	}
	refresh, claims, err := s.Tokens.IssueRefresh(acc.ID)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.AddRefreshToken(ctx, refreshRow(acc.ID, refresh, claims)); err != nil {
		return nil, err
	}

	return &LoginResult{
		Account:      acc,
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   claims.ExpiresAt.Time,
		IsAdmin:      acc.Role == models.RoleAdmin,
	}, nil
}

func refreshRow(userID uint, raw string, claims *tokens.RefreshClaims) *models.RefreshToken {
	return &models.RefreshToken{
		Token:     tokens.Sha256Hex(raw),
		UserID:    userID,
		JTI:       claims.ID,
		ExpiresAt: claims.ExpiresAt.Time.Unix(),
	}
}

// Refresh rotates the pair. The role in the new access token is read from
// the store, so a role change takes effect on the next refresh.
func (s *AuthService) Refresh(ctx context.Context, raw string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := s.Tokens.ValidateRefresh(raw)
	if err != nil {
		l.Warn("refresh_failed", "status", 401, "reason", "invalid refresh token", "error", err)
		return nil, apperr.Unauthenticated("invalid refresh token")
	}

	acc, err := s.Repo.FindAccountByID(ctx, claims.SubjectID())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("refresh_failed", "status", 401, "reason", "account no longer exists")
			return nil, apperr.Unauthenticated("invalid refresh token")
		}
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, apperr.Internal(err)
	}

	next, nextClaims, err := s.Tokens.IssueRefresh(acc.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	err = s.Repo.RotateRefreshToken(ctx, claims.ID, tokens.Sha256Hex(raw), refreshRow(acc.ID, next, nextClaims), s.now())
	if err != nil {
		if errors.Is(err, repo.ErrRefreshInvalid) || errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("refresh_failed", "status", 401, "reason", "refresh token revoked or unknown")
			return nil, apperr.Unauthenticated("invalid refresh token")
		}
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, apperr.Internal(err)
	}

	access, accessExp, err := s.Tokens.IssueAccess(acc.ID, acc.Role)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	l.Info("refresh_success", "user_id", acc.ID)
	return &LoginResult{
		Account:      acc,
		AccessToken:  access,
		RefreshToken: next,
		AccessExp:    accessExp,
		RefreshExp:   nextClaims.ExpiresAt.Time,
		IsAdmin:      acc.Role == models.RoleAdmin,
	}, nil
}

// Logout revokes the refresh token if one was presented. Access tokens stay
// valid until they expire.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}
	if err := s.Repo.RevokeRefreshToken(ctx, tokens.Sha256Hex(refreshToken)); err != nil {
		logging.FromContext(ctx).Error("logout_revoke_failed", "error", err)
	}
}

func (s *AuthService) ListAccounts(ctx context.Context, p util.Page) (util.List[transport.AccountResponse], error) {
	total, items, err := s.Repo.ListAccounts(ctx, p.Offset(), p.Size)
	if err != nil {
		return util.List[transport.AccountResponse]{}, storeError(ctx, "list_accounts", err, "")
	}

	out := make([]transport.AccountResponse, 0, len(items))
	for _, a := range items {
		out = append(out, AccountResponse(&a))
	}
	return util.NewList(out, p, total), nil
}

func (s *AuthService) DeleteAccount(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteAccount(ctx, id); err != nil {
		return storeError(ctx, "delete_account", err, "account not found")
	}
	publish(ctx, s.Events, TopicUserEvents, Event{Type: EventUserDeleted, UserID: id})
	logging.FromContext(ctx).Info("delete_account_success", "user_id", id)
	return nil
}

// SeedAdmin creates the bootstrap admin unless the username is already taken.
func (s *AuthService) SeedAdmin(ctx context.Context, username, email, password string) error {
	l := logging.FromContext(ctx).With("svc", "auth.seed_admin")
	if username == "" || email == "" || password == "" {
		return nil
	}

	_, err := s.Repo.FindAccountByUsername(ctx, username)
	if err == nil {
		l.Info("admin_seed_skipped", "username", username)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	pwHash, err := s.Hasher.Hash(password)
	if err != nil {
		return err
	}
	acc := &models.Account{Username: username, Email: email, PasswordHash: pwHash, Role: models.RoleAdmin}
	if err := s.Repo.CreateAccountWithProfile(ctx, acc, &models.Profile{DisplayName: username, ContactEmail: email}); err != nil {
		return err
	}
	l.Info("admin_seeded", "user_id", acc.ID)
	return nil
}

func AccountResponse(a *models.Account) transport.AccountResponse {
	return transport.AccountResponse{ID: a.ID, Username: a.Username, Email: a.Email, Role: a.Role.String()}
}
