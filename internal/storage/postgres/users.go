package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/hongminglow/storefront/internal/models"
	"github.com/hongminglow/storefront/internal/storage"
	"github.com/jackc/pgx/v5"
)

// CreateUser inserts a new account row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users (id, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, email, password_hash, created_at`
	created, err := scanUser(s.pool.QueryRow(ctx, query, user.ID, user.Email, user.PasswordHash))
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	return created, nil
}

// FindUserByEmail fetches an account by email address.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `SELECT id, email, password_hash, created_at FROM users WHERE email = $1`
	return scanUser(s.pool.QueryRow(ctx, query, email))
}

// FindUserByID fetches an account by id.
func (s *Store) FindUserByID(ctx context.Context, id string) (models.User, error) {
	const query = `SELECT id, email, password_hash, created_at FROM users WHERE id = $1`
	return scanUser(s.pool.QueryRow(ctx, query, id))
}

// CreateProfile provisions the role row for a user.
func (s *Store) CreateProfile(ctx context.Context, profile models.Profile) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO profiles (id, role) VALUES ($1, $2)`, profile.UserID, string(profile.Role))
	if isUniqueViolation(err) {
		return storage.ErrAlreadyExists
	}
	return err
}

// FindProfile reads the role row for a user.
func (s *Store) FindProfile(ctx context.Context, userID string) (models.Profile, error) {
	var profile models.Profile
	var role string
	err := s.pool.QueryRow(ctx, `SELECT id, role FROM profiles WHERE id = $1`, userID).Scan(&profile.UserID, &role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Profile{}, storage.ErrNotFound
		}
		return models.Profile{}, err
	}
	profile.Role = models.Role(role)
	return profile, nil
}

// RevokeToken records a signed-out token id and prunes entries that have expired.
func (s *Store) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM revoked_tokens WHERE expires_at < NOW()`); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO revoked_tokens (token_id, expires_at) VALUES ($1, $2) ON CONFLICT (token_id) DO NOTHING`, tokenID, expiresAt)
	return err
}

// IsTokenRevoked reports whether a token id was signed out and has not yet expired.
func (s *Store) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	var revoked bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token_id = $1 AND expires_at > NOW())`, tokenID).Scan(&revoked)
	return revoked, err
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}
