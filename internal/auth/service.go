// Package auth is the identity service: accounts, password checks, and access tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/storefront/internal/apperr"
	"github.com/hongminglow/storefront/internal/models"
	"github.com/hongminglow/storefront/internal/storage"
)

// MinPasswordLength matches the sign-up form's constraint.
const MinPasswordLength = 6

type Service struct {
	users   storage.UserStore
	revoked storage.RevocationStore
	tokens  *TokenManager
	cost    int
}

// Option adjusts a Service.
type Option func(*Service)

// WithBcryptCost overrides bcrypt.DefaultCost; tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

func NewService(users storage.UserStore, revoked storage.RevocationStore, tokens *TokenManager, opts ...Option) *Service {
	s := &Service{users: users, revoked: revoked, tokens: tokens, cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignedIn is the result of a successful sign-in.
type SignedIn struct {
	Token  string
	Claims Claims
	User   models.User
}

// SignUp creates an account. A duplicate email is reported as apperr.AuthEmailTaken.
func (s *Service) SignUp(ctx context.Context, email, password string) (models.User, error) {
	email = normalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return models.User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	created, err := s.users.CreateUser(ctx, models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.User{}, apperr.Auth(apperr.AuthEmailTaken, "email already registered")
		}
		return models.User{}, fmt.Errorf("create user: %w", apperr.Store(err))
	}
	return created, nil
}

// SignIn checks the password and issues an access token.
func (s *Service) SignIn(ctx context.Context, email, password string) (SignedIn, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return SignedIn{}, apperr.Validation("email and password are required")
	}
	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return SignedIn{}, apperr.Auth(apperr.AuthInvalidCredentials, "invalid credentials")
		}
		return SignedIn{}, fmt.Errorf("find user: %w", apperr.Store(err))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return SignedIn{}, apperr.Auth(apperr.AuthInvalidCredentials, "invalid credentials")
	}
	token, claims, err := s.tokens.Generate(user)
	if err != nil {
		return SignedIn{}, err
	}
	return SignedIn{Token: token, Claims: claims, User: user}, nil
}

// Authenticate verifies a bearer token and rejects signed-out ones.
func (s *Service) Authenticate(ctx context.Context, raw string) (Claims, error) {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return Claims{}, apperr.Auth(apperr.AuthTokenInvalid, "invalid or expired token")
	}
	revoked, err := s.revoked.IsTokenRevoked(ctx, claims.TokenID)
	if err != nil {
		return Claims{}, fmt.Errorf("check revocation: %w", apperr.Store(err))
	}
	if revoked {
		return Claims{}, apperr.Auth(apperr.AuthTokenInvalid, "token has been signed out")
	}
	return claims, nil
}

// Revoke signs a token out until it would have expired anyway.
func (s *Service) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return apperr.Auth(apperr.AuthRequired, "not signed in")
	}
	if err := s.revoked.RevokeToken(ctx, tokenID, expiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", apperr.Store(err))
	}
	return nil
}

// User loads the account behind an identity.
func (s *Service) User(ctx context.Context, id string) (models.User, error) {
	user, err := s.users.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, apperr.NotFound("user not found")
		}
		return models.User{}, fmt.Errorf("find user: %w", apperr.Store(err))
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(email, password string) error {
	if email == "" || !strings.Contains(email, "@") {
		return apperr.Validation("a valid email is required")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength || !utf8.ValidString(password) {
		return apperr.Validation("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}
