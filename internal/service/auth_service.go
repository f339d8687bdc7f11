package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/clock"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

const invalidCredentials = "invalid email or password"

// AuthService coordinates registration, login and logout flows.
type AuthService struct {
	users       repository.UserRepository
	tokenMgr    *auth.TokenManager
	revocations auth.RevocationStore
	bcryptCost  int
	clock       clock.Clock
}

// AuthDependencies encapsulates collaborators for the auth service.
// Revocations and Clock are optional.
type AuthDependencies struct {
	UserRepo    repository.UserRepository
	Revocations auth.RevocationStore
	Clock       clock.Clock
}

// RegisterInput is the self-service signup payload.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User  domain.UserProfile
	Token auth.IssuedToken
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real()
	}
	return &AuthService{
		users:       deps.UserRepo,
		tokenMgr:    auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL()),
		revocations: deps.Revocations,
		bcryptCost:  cfg.Auth.BcryptCost,
		clock:       clk,
	}
}

// Register creates a member account and issues a credential for it.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	name := strings.TrimSpace(input.Name)
	email := domain.NormalizeEmail(input.Email)

	var missing []string
	if name == "" {
		missing = append(missing, "name")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(input.Password) == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("name, email and password are required", map[string]any{"missing": missing})
	}
	if err := checkPasswordLength(input.Password); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, emailTaken()
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewInternalError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	now := s.clock.Now()
	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleMember,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// lost a race with a concurrent signup for the same address
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, emailTaken()
		}
		return nil, apperrors.NewInternalError(err)
	}
	return s.issue(user)
}

// Login verifies the password and issues a credential. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.NewUnauthorized(invalidCredentials)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized(invalidCredentials)
		}
		return nil, apperrors.NewInternalError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized(invalidCredentials)
	}
	return s.issue(user)
}

// Logout revokes the session's token until it would have expired. Without a
// revocation store it is a no-op.
func (s *AuthService) Logout(ctx context.Context, session *domain.Session) error {
	if session == nil || session.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if s.revocations == nil {
		return nil
	}
	ttl := session.ExpiresAt.Sub(s.clock.Now())
	if err := s.revocations.Revoke(ctx, session.TokenID, ttl); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

// Me returns the caller's public profile.
func (s *AuthService) Me(session *domain.Session) (domain.UserProfile, error) {
	if session == nil || session.User == nil {
		return domain.UserProfile{}, apperrors.NewUnauthorized("authentication required")
	}
	return session.User.Profile(), nil
}

// EnsureAdmin creates an admin account, or promotes the existing account with
// that email. It reports whether a new account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, input RegisterInput) (*domain.User, bool, error) {
	email := domain.NormalizeEmail(input.Email)
	if email == "" {
		return nil, false, apperrors.NewValidationError("email is required", nil)
	}

	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != domain.RoleAdmin {
			now := s.clock.Now()
			if err := s.users.UpdateRole(ctx, existing.ID, domain.RoleAdmin, now); err != nil {
				return nil, false, apperrors.NewInternalError(err)
			}
			existing.Role = domain.RoleAdmin
			existing.UpdatedAt = now
		}
		return existing, false, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, false, apperrors.NewInternalError(err)
	}

	name := strings.TrimSpace(input.Name)
	if name == "" || strings.TrimSpace(input.Password) == "" {
		return nil, false, apperrors.NewValidationError("name and password are required to create an admin", nil)
	}
	if err := checkPasswordLength(input.Password); err != nil {
		return nil, false, err
	}
	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, false, apperrors.NewInternalError(err)
	}
	now := s.clock.Now()
	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, false, apperrors.NewInternalError(err)
	}
	return user, true, nil
}

func checkPasswordLength(password string) error {
	if len(password) > auth.MaxPasswordBytes {
		return apperrors.NewValidationError("password must be at most 72 bytes", map[string]any{"maxBytes": auth.MaxPasswordBytes})
	}
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthResult{User: user.Profile(), Token: token}, nil
}

func emailTaken() error {
	return apperrors.NewValidationError("email already registered", map[string]any{"field": "email"})
}
