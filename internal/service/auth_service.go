package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/finance-service/internal/auth"
	"github.com/spec-kit/finance-service/internal/config"
	"github.com/spec-kit/finance-service/internal/domain"
	"github.com/spec-kit/finance-service/internal/repository"
	apperrors "github.com/spec-kit/finance-service/pkg/util/errorutil"
)

const minPasswordLength = 8

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
}

// RegisterInput describes a new account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, users repository.UserRepository, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
		logger:     logger,
	}
}

// Register creates a MEMBER account and returns a token for it.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, string, domain.Token, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))

	details := map[string]any{}
	if username == "" {
		details["username"] = "required"
	}
	if _, err := mail.ParseAddress(email); err != nil {
		details["email"] = "invalid"
	}
	if len(input.Password) < minPasswordLength {
		details["password"] = "must be at least 8 characters"
	}
	if len(details) > 0 {
		return nil, "", domain.Token{}, apperrors.NewValidationError("invalid registration", details)
	}

	if err := s.ensureFree(ctx, "username", username, s.users.GetByUsername); err != nil {
		return nil, "", domain.Token{}, err
	}
	if err := s.ensureFree(ctx, "email", email, s.users.GetByEmail); err != nil {
		return nil, "", domain.Token{}, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, "", domain.Token{}, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.UserRoleMember,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", domain.Token{}, apperrors.MapError(err)
	}

	signed, meta, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, "", domain.Token{}, apperrors.NewInternalError(err)
	}
	s.logger.Info("user registered", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return user, signed, meta, nil
}

// Login authenticates by username or email.
func (s *AuthService) Login(ctx context.Context, login, password string) (*domain.User, string, domain.Token, error) {
	login = strings.TrimSpace(login)
	lookup := s.users.GetByUsername
	if strings.Contains(login, "@") {
		login = strings.ToLower(login)
		lookup = s.users.GetByEmail
	}

	user, err := lookup(ctx, login)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", domain.Token{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", domain.Token{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", domain.Token{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if !user.Active {
		return nil, "", domain.Token{}, apperrors.NewForbidden("user inactive")
	}

	signed, meta, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, "", domain.Token{}, apperrors.NewInternalError(err)
	}
	return user, signed, meta, nil
}

// SetRole changes a user's role. Used by the dbtool promote command.
func (s *AuthService) SetRole(ctx context.Context, username string, role domain.UserRole) (*domain.User, error) {
	if role != domain.UserRoleAdmin && role != domain.UserRoleMember {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"username": username})
		}
		return nil, apperrors.MapError(err)
	}
	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("user role changed", zap.Int64("user_id", user.ID), zap.String("role", string(role)))
	return user, nil
}

// ListUsers returns every account. Admin only.
func (s *AuthService) ListUsers(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) ensureFree(ctx context.Context, field, value string, lookup func(context.Context, string) (*domain.User, error)) error {
	_, err := lookup(ctx, value)
	switch {
	case err == nil:
		return apperrors.NewConflict(field+" already registered", map[string]any{"field": field})
	case errors.Is(err, pgx.ErrNoRows):
		return nil
	default:
		return apperrors.MapError(err)
	}
}
