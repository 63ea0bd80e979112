// Package session resolves who is calling and with which role.
package session

import (
	"context"
	"time"

	"github.com/hongminglow/storefront/internal/models"
)

// Identity is the authenticated principal. An empty UserID is a guest.
type Identity struct {
	UserID string
	Email  string
}

func (i Identity) IsGuest() bool { return i.UserID == "" }

// RoleLookup is the outcome of reading a user's profile row.
type RoleLookup struct {
	Role models.Role
	Err  error
}

// ResolveRole decides the role from an identity and its lookup result. A guest is always
// guest; an authenticated identity whose profile cannot be read falls back to user.
func ResolveRole(id Identity, lookup RoleLookup) models.Role {
	if id.IsGuest() {
		return models.RoleGuest
	}
	if lookup.Err != nil || !lookup.Role.Valid() || lookup.Role == models.RoleGuest {
		return models.RoleUser
	}
	return lookup.Role
}

// Session is the per-request view of the caller.
type Session struct {
	Identity  Identity
	Role      models.Role
	TokenID   string
	ExpiresAt time.Time
}

func Guest() *Session {
	return &Session{Role: models.RoleGuest}
}

func (s *Session) Authenticated() bool {
	return s != nil && !s.Identity.IsGuest()
}

func (s *Session) IsAdmin() bool {
	return s.Authenticated() && s.Role == models.RoleAdmin
}

// UserID returns the caller's id, or nil for guests.
func (s *Session) UserID() *string {
	if !s.Authenticated() {
		return nil
	}
	id := s.Identity.UserID
	return &id
}

// Reset clears the session back to guest.
func (s *Session) Reset() {
	*s = Session{Role: models.RoleGuest}
}

type ctxKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the request session, or a guest session when none was attached.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(ctxKey{}).(*Session); ok && s != nil {
		return s
	}
	return Guest()
}
