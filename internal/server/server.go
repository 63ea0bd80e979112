package server

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hongminglow/storefront/internal/auth"
	"github.com/hongminglow/storefront/internal/catalog"
	"github.com/hongminglow/storefront/internal/checkout"
	"github.com/hongminglow/storefront/internal/config"
	"github.com/hongminglow/storefront/internal/http/handlers"
	"github.com/hongminglow/storefront/internal/middleware"
	"github.com/hongminglow/storefront/internal/observability"
	"github.com/hongminglow/storefront/internal/session"
	"github.com/hongminglow/storefront/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// Option customises the services New builds.
type Option func(*options)

type options struct {
	bank     checkout.BankReferenceGenerator
	authOpts []auth.Option
}

// WithBankReference replaces the random payment reference generator.
func WithBankReference(g checkout.BankReferenceGenerator) Option {
	return func(o *options) { o.bank = g }
}

// WithAuthOptions forwards options to the auth service.
func WithAuthOptions(opts ...auth.Option) Option {
	return func(o *options) { o.authOpts = append(o.authOpts, opts...) }
}

// New wires up services, middleware and routes, and returns a ready server.
func New(cfg config.Config, store storage.Store, logger *zap.Logger, opts ...Option) *Server {
	return &Server{inner: &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           NewHandler(cfg, store, logger, opts...),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}}
}

// NewHandler builds the full HTTP handler tree. Exposed for tests.
func NewHandler(cfg config.Config, store storage.Store, logger *zap.Logger, opts ...Option) http.Handler {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	authSvc := auth.NewService(store, store, tokens, o.authOpts...)
	sessions := session.NewProvider(authSvc, store, cfg.AdminEmails, logger, metrics)
	catalogSvc := catalog.NewService(store)
	checkoutSvc := checkout.NewService(store, o.bank, logger, metrics)

	var db handlers.Pinger
	if p, ok := store.(handlers.Pinger); ok {
		db = p
	}

	mux := http.NewServeMux()
	handlers.NewHealthHandler(time.Now(), db).Register(mux)
	handlers.NewProductHandler(catalogSvc).Register(mux)
	handlers.NewCheckoutHandler(checkoutSvc).Register(mux)
	handlers.NewAuthHandler(sessions).Register(mux)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	route := func(r *http.Request) string {
		_, pattern := mux.Handler(r)
		return pattern
	}

	var handler http.Handler = mux
	handler = middleware.Session(sessions)(handler)
	handler = middleware.Observability(logger.With(zap.String("component", "http_server")), metrics, route)(handler)
	handler = middleware.CORS(cfg.CORSOrigins)(handler)
	return handler
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
