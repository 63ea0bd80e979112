package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hongminglow/storefront/internal/http/respond"
	"github.com/hongminglow/storefront/internal/models"
	"github.com/hongminglow/storefront/internal/observability"
	"github.com/hongminglow/storefront/internal/session"
)

// SessionResolver turns a bearer token into a session.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*session.Session, error)
}

// Session attaches the caller's session to the request context. Requests without a
// bearer token continue as guests; a token that does not verify is rejected with 401.
func Session(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "malformed authorization header")
				return
			}
			sess, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				respond.Fail(w, r, err)
				return
			}
			if sess.Authenticated() {
				logger := observability.Logger(r.Context(), nil).With(zap.String("user_id", sess.Identity.UserID))
				r = r.WithContext(observability.WithLogger(r.Context(), logger))
			}
			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), sess)))
		})
	}
}

// RequireRole lets the request through only when the session holds role. Guests get 401,
// signed-in callers with another role get 403.
func RequireRole(role models.Role, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromContext(r.Context())
		switch {
		case !sess.Authenticated():
			respond.Error(w, http.StatusUnauthorized, "sign in required")
		case sess.Role != role:
			respond.Error(w, http.StatusForbidden, "requires "+string(role)+" role")
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// bearerToken returns the token from the Authorization header. ok is false when the
// header is present but not a bearer credential.
func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", true
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
