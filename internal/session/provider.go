package session

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/hongminglow/storefront/internal/auth"
	"github.com/hongminglow/storefront/internal/models"
	"github.com/hongminglow/storefront/internal/observability"
	"github.com/hongminglow/storefront/internal/storage"
)

// Provider combines the identity service with the profile side table.
type Provider struct {
	auth     *auth.Service
	profiles storage.ProfileStore
	admins   map[string]struct{}
	log      *zap.Logger
	metrics  *observability.Metrics
}

func NewProvider(authSvc *auth.Service, profiles storage.ProfileStore, adminEmails []string, logger *zap.Logger, metrics *observability.Metrics) *Provider {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			admins[e] = struct{}{}
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		auth:     authSvc,
		profiles: profiles,
		admins:   admins,
		log:      logger.With(zap.String("component", "session")),
		metrics:  metrics,
	}
}

// SignedIn is a fresh session plus the token that represents it.
type SignedIn struct {
	Token   string
	User    models.User
	Session *Session
}

// SignUp creates the account, then provisions its profile. A provisioning failure is
// logged only; the role then resolves to user.
func (p *Provider) SignUp(ctx context.Context, email, password string) (models.User, models.Role, error) {
	user, err := p.auth.SignUp(ctx, email, password)
	if err != nil {
		p.metrics.AuthEvent("sign_up", "error")
		return models.User{}, "", err
	}
	p.metrics.AuthEvent("sign_up", "success")

	role := models.RoleUser
	if _, ok := p.admins[user.Email]; ok {
		role = models.RoleAdmin
	}
	if err := p.profiles.CreateProfile(ctx, models.Profile{UserID: user.ID, Role: role}); err != nil {
		observability.Logger(ctx, p.log).Warn("profile_provision_failed",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
		role = models.RoleUser
	}
	return user, role, nil
}

// SignIn authenticates and resolves the role for the new session.
func (p *Provider) SignIn(ctx context.Context, email, password string) (SignedIn, error) {
	signed, err := p.auth.SignIn(ctx, email, password)
	if err != nil {
		p.metrics.AuthEvent("sign_in", "error")
		return SignedIn{}, err
	}
	p.metrics.AuthEvent("sign_in", "success")

	id := Identity{UserID: signed.User.ID, Email: signed.User.Email}
	return SignedIn{
		Token: signed.Token,
		User:  signed.User,
		Session: &Session{
			Identity:  id,
			Role:      p.roleFor(ctx, id),
			TokenID:   signed.Claims.TokenID,
			ExpiresAt: signed.Claims.ExpiresAt,
		},
	}, nil
}

// SignOut revokes the session's token and resets the session to guest.
func (p *Provider) SignOut(ctx context.Context, s *Session) error {
	if err := p.auth.Revoke(ctx, s.TokenID, s.ExpiresAt); err != nil {
		p.metrics.AuthEvent("sign_out", "error")
		return err
	}
	p.metrics.AuthEvent("sign_out", "success")
	s.Reset()
	return nil
}

// Resolve turns a bearer token into a session. An empty token is a guest.
func (p *Provider) Resolve(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return Guest(), nil
	}
	claims, err := p.auth.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	id := Identity{UserID: claims.UserID, Email: claims.Email}
	return &Session{
		Identity:  id,
		Role:      p.roleFor(ctx, id),
		TokenID:   claims.TokenID,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

// User loads the account behind an authenticated session.
func (p *Provider) User(ctx context.Context, s *Session) (models.User, error) {
	return p.auth.User(ctx, s.Identity.UserID)
}

func (p *Provider) roleFor(ctx context.Context, id Identity) models.Role {
	if id.IsGuest() {
		return ResolveRole(id, RoleLookup{})
	}
	profile, err := p.profiles.FindProfile(ctx, id.UserID)
	if err != nil {
		observability.Logger(ctx, p.log).Debug("role_lookup_failed",
			zap.String("user_id", id.UserID),
			zap.Error(err),
		)
	}
	return ResolveRole(id, RoleLookup{Role: profile.Role, Err: err})
}
