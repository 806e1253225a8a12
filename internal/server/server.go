package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hongminglow/pawfam/internal/account"
	"github.com/hongminglow/pawfam/internal/adoption"
	"github.com/hongminglow/pawfam/internal/auth"
	"github.com/hongminglow/pawfam/internal/collab"
	"github.com/hongminglow/pawfam/internal/config"
	"github.com/hongminglow/pawfam/internal/dashboard"
	"github.com/hongminglow/pawfam/internal/http/handlers"
	"github.com/hongminglow/pawfam/internal/middleware"
	"github.com/hongminglow/pawfam/internal/notify"
	"github.com/hongminglow/pawfam/internal/ratelimit"
	"github.com/hongminglow/pawfam/internal/recovery"
	"github.com/hongminglow/pawfam/internal/storage"
)

// Dependencies are the long-lived collaborators built by main.
type Dependencies struct {
	Store          storage.UserStore
	Mailer         notify.Mailer
	RequestLimiter ratelimit.Limiter
	VerifyLimiter  ratelimit.Limiter
	Logger         *slog.Logger
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up services, middleware and routes, and returns a ready server.
func New(cfg config.Config, deps Dependencies) (*Server, error) {
	handler, err := NewHandler(cfg, deps)
	if err != nil {
		return nil, err
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}, nil
}

// NewHandler builds the routed handler wrapped in CORS and request logging.
func NewHandler(cfg config.Config, deps Dependencies) (http.Handler, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	requireAuth := auth.Middleware(tokens, deps.Store, logger)
	collabClient := collab.NewClient(cfg.CollabBaseURL, cfg.CollabTimeout)

	adoptionSvc, err := adoption.NewService(collabClient, logger)
	if err != nil {
		return nil, fmt.Errorf("init adoption: %w", err)
	}
	recoverySvc := recovery.NewService(deps.Store, deps.Mailer,
		recovery.WithTTL(cfg.OTPTTL),
		recovery.WithLimiters(deps.RequestLimiter, deps.VerifyLimiter),
		recovery.WithLogger(logger),
	)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(time.Now()).Register(mux)
	handlers.NewAuthHandler(account.NewService(deps.Store, tokens), deps.Store, requireAuth, logger).Register(mux)
	handlers.NewRecoveryHandler(recoverySvc, logger).Register(mux)
	handlers.NewAdoptionHandler(adoptionSvc, requireAuth, logger).Register(mux)
	handlers.NewDashboardHandler(dashboard.NewService(collabClient, logger), requireAuth).Register(mux)

	return middleware.CORS(cfg.CORSOrigins)(middleware.Logging(logger)(mux)), nil
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
