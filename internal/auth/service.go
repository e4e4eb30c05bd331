package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/ports"
)

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ProfileInput struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

type PasswordInput struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Session is what a successful register or login returns.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt int64     `json:"expiresAt"`
	User      core.User `json:"user"`
}

type Service struct {
	users   ports.UserStore
	revoked ports.TokenRevocationStore
	tokens  *TokenIssuer
	logger  *slog.Logger
}

func NewService(users ports.UserStore, revoked ports.TokenRevocationStore, tokens *TokenIssuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{users: users, revoked: revoked, tokens: tokens, logger: logger}
}

func (s *Service) session(u core.User) (Session, error) {
	token, claims, err := s.tokens.Issue(u.ID)
	if err != nil {
		return Session{}, core.Internal("issue token", err)
	}
	return Session{Token: token, ExpiresAt: claims.ExpiresAt.Unix(), User: u}, nil
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	u := core.User{Name: strings.TrimSpace(in.Name), Email: strings.TrimSpace(in.Email)}
	if err := u.Validate(); err != nil {
		return Session{}, core.Validation("", err)
	}
	hash, err := HashPassword(in.Password)
	if errors.Is(err, ErrWeakPassword) || errors.Is(err, ErrPasswordTooLong) {
		return Session{}, core.Validation("", err)
	}
	if err != nil {
		return Session{}, core.Internal("register", err)
	}
	u.PasswordHash = hash

	created, err := s.users.CreateUser(ctx, u)
	if errors.Is(err, core.ErrEmailTaken) {
		return Session{}, core.Validation("", err)
	}
	if err != nil {
		return Session{}, core.Internal("register", err)
	}
	s.logger.InfoContext(ctx, "User registered", log.FieldComponent, log.ComponentAuth, log.FieldUserID, created.ID)
	return s.session(created)
}

// Login answers unknown email and wrong password identically.
func (s *Service) Login(ctx context.Context, in LoginInput) (Session, error) {
	bad := core.Unauthenticated("invalid email or password", nil)
	u, err := s.users.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, core.ErrNotFound) {
		return Session{}, bad
	}
	if err != nil {
		return Session{}, core.Internal("login", err)
	}
	ok, err := CheckPassword(u.PasswordHash, in.Password)
	if err != nil {
		return Session{}, core.Internal("login", err)
	}
	if !ok {
		return Session{}, bad
	}
	return s.session(u)
}

// Logout revokes the token id until the token's own expiry.
func (s *Service) Logout(ctx context.Context, claims Claims) error {
	if err := s.revoked.RevokeToken(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return core.Internal("logout", err)
	}
	return nil
}

// Authenticate resolves a raw bearer token to its claims.
func (s *Service) Authenticate(ctx context.Context, raw string) (Claims, error) {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return Claims{}, core.Unauthenticated("invalid or expired token", err)
	}
	revoked, err := s.revoked.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return Claims{}, core.Internal("check token", err)
	}
	if revoked {
		return Claims{}, core.Unauthenticated("token has been revoked", nil)
	}
	return claims, nil
}

func (s *Service) Me(ctx context.Context, userID string) (core.User, error) {
	u, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, core.Unauthorized("user no longer exists", err)
	}
	if err != nil {
		return core.User{}, core.Internal("load user", err)
	}
	return u, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (core.User, error) {
	u, err := s.Me(ctx, userID)
	if err != nil {
		return core.User{}, err
	}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		u.Email = strings.TrimSpace(*in.Email)
	}
	if err := u.Validate(); err != nil {
		return core.User{}, core.Validation("", err)
	}
	updated, err := s.users.UpdateUser(ctx, u)
	if errors.Is(err, core.ErrEmailTaken) {
		return core.User{}, core.Validation("", err)
	}
	if err != nil {
		return core.User{}, core.Internal("update profile", err)
	}
	return updated, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID string, in PasswordInput) error {
	u, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	ok, err := CheckPassword(u.PasswordHash, in.CurrentPassword)
	if err != nil {
		return core.Internal("change password", err)
	}
	if !ok {
		return core.Validation("current password is incorrect", nil)
	}
	hash, err := HashPassword(in.NewPassword)
	if errors.Is(err, ErrWeakPassword) || errors.Is(err, ErrPasswordTooLong) {
		return core.Validation("", err)
	}
	if err != nil {
		return core.Internal("change password", err)
	}
	u.PasswordHash = hash
	if _, err := s.users.UpdateUser(ctx, u); err != nil {
		return core.Internal("change password", err)
	}
	return nil
}
