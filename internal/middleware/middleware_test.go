package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hongminglow/storefront/internal/apperr"
	"github.com/hongminglow/storefront/internal/models"
	"github.com/hongminglow/storefront/internal/observability"
	"github.com/hongminglow/storefront/internal/session"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://shop.example.com"})(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Origin", "https://SHOP.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://SHOP.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/checkout", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestObservabilityRecordsRequest(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	var fromCtx *zap.Logger
	h := Observability(zap.New(core), metrics, func(*http.Request) string { return "POST /api/checkout" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fromCtx = observability.Logger(r.Context(), nil)
			w.WriteHeader(http.StatusBadRequest)
		}),
	)

	req := httptest.NewRequest(http.MethodPost, "/api/checkout", nil)
	req.Header.Set(headerRequestID, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get(headerRequestID))
	require.NotNil(t, fromCtx)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues(http.MethodPost, "POST /api/checkout", "400")))

	entries := logs.FilterMessage("http_access").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, int64(400), fields["status"])
	assert.Equal(t, "POST /api/checkout", fields["route"])
}

func TestObservabilityGeneratesRequestID(t *testing.T) {
	h := Observability(nil, nil, nil)(okHandler)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Len(t, rec.Header().Get(headerRequestID), 36)
}

type stubResolver map[string]*session.Session

func (s stubResolver) Resolve(_ context.Context, token string) (*session.Session, error) {
	if token == "" {
		return session.Guest(), nil
	}
	if sess, ok := s[token]; ok {
		return sess, nil
	}
	return nil, apperr.Auth(apperr.AuthTokenInvalid, "invalid token")
}

func TestSessionAndRequireRole(t *testing.T) {
	resolver := stubResolver{
		"user-token":  {Identity: session.Identity{UserID: "u-1"}, Role: models.RoleUser},
		"admin-token": {Identity: session.Identity{UserID: "u-2"}, Role: models.RoleAdmin},
	}
	h := Session(resolver)(RequireRole(models.RoleAdmin, okHandler))

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"guest", "", http.StatusUnauthorized},
		{"malformed header", "Basic abc", http.StatusUnauthorized},
		{"invalid token", "Bearer nope", http.StatusUnauthorized},
		{"user", "Bearer user-token", http.StatusForbidden},
		{"admin", "bearer admin-token", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/products", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestSessionAttachesGuest(t *testing.T) {
	var got *session.Session
	h := Session(stubResolver{})(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = session.FromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	require.NotNil(t, got)
	assert.Equal(t, models.RoleGuest, got.Role)
}
