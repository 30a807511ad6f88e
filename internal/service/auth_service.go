package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"task_manager/internal/domain"
	"task_manager/internal/logger"
)

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=72"`
	Username string `json:"username" validate:"required,max=100"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token string            `json:"token"`
	User  domain.PublicUser `json:"user"`
}

type AuthService struct {
	users    UserStore
	tokens   *TokenIssuer
	hasher   *PasswordHasher
	denylist TokenDenylist

	// compared against for unknown emails
	dummyHash string
}

func NewAuthService(users UserStore, tokens *TokenIssuer, hasher *PasswordHasher, denylist TokenDenylist) *AuthService {
	if denylist == nil {
		denylist = NoopDenylist{}
	}
	dummy, _ := hasher.Hash("not-a-real-password")
	return &AuthService{
		users:     users,
		tokens:    tokens,
		hasher:    hasher,
		denylist:  denylist,
		dummyHash: dummy,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}
	if len(in.Password) > maxPasswordBytes {
		return nil, domain.NewValidationError("password", "Password must be at most 72 bytes")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &domain.User{
		Email:        in.Email,
		PasswordHash: hash,
		Username:     in.Username,
	}
	if err := s.users.Create(ctx, u); err != nil {
		AuthAttempts.WithLabelValues("register", "failure").Inc()
		return nil, err
	}

	AuthAttempts.WithLabelValues("register", "success").Inc()
	logger.WithContext(ctx).Info("user registered", "user_id", u.ID)
	return s.issue(u)
}

// Login returns ErrInvalidCredentials for both an unknown email and a wrong password.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validate.Struct(in); err != nil {
		return nil, domain.NewValidationError("email", "Please provide email and password")
	}

	u, err := s.users.GetByEmail(ctx, in.Email)
	if errors.Is(err, domain.ErrNotFound) {
		_, _ = s.hasher.Compare(s.dummyHash, in.Password)
		AuthAttempts.WithLabelValues("login", "failure").Inc()
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	ok, err := s.hasher.Compare(u.PasswordHash, in.Password)
	if err != nil {
		return nil, fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		AuthAttempts.WithLabelValues("login", "failure").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	AuthAttempts.WithLabelValues("login", "success").Inc()
	return s.issue(u)
}

func (s *AuthService) issue(u *domain.User) (*AuthResult, error) {
	token, _, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: u.Public()}, nil
}

// VerifyToken checks signature, expiry and revocation.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.denylist.Revoked(ctx, claims.ID)
	if err != nil {
		// fail-open
		logger.WithContext(ctx).Warn("token denylist unavailable", "error", err)
		return claims, nil
	}
	if revoked {
		return nil, fmt.Errorf("%w: token revoked", domain.ErrUnauthenticated)
	}
	return claims, nil
}

// Me returns the public profile of an authenticated user. A token for a
// user that no longer exists is treated as unauthenticated.
func (s *AuthService) Me(ctx context.Context, userID int64) (*domain.PublicUser, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	pub := u.Public()
	return &pub, nil
}

// Logout revokes the presented token until its expiry.
func (s *AuthService) Logout(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	return s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}
