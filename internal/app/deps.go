package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vidhub/backend/internal/assets"
	"github.com/vidhub/backend/internal/auth"
	"github.com/vidhub/backend/internal/config"
	"github.com/vidhub/backend/internal/db"
	"github.com/vidhub/backend/internal/engagement"
	"github.com/vidhub/backend/internal/handlers"
	"github.com/vidhub/backend/internal/metrics"
	"github.com/vidhub/backend/internal/middleware"
	"github.com/vidhub/backend/internal/repositories"
	"github.com/vidhub/backend/internal/storage"
	"github.com/vidhub/backend/internal/users"
	"github.com/vidhub/backend/internal/videos"
)

// rateLimitTTL is how long an idle client keeps its limiter state.
const rateLimitTTL = 10 * time.Minute

// externals are the connections opened by serve before wiring.
type externals struct {
	Pool    db.Pool
	Objects storage.ObjectStore
	// KV backs access token revocation. Nil disables revocation.
	KV       auth.KV
	Registry *prometheus.Registry
	Logger   *slog.Logger
}

// application holds the wired HTTP dependencies and the background workers
// that must be stopped on shutdown.
type application struct {
	deps     handlers.Dependencies
	sessions *auth.Manager
	metrics  *metrics.Metrics
	recorder *videos.ViewRecorder
	logger   *slog.Logger
}

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ext externals, cfg config.Config) (*application, error) {
	if ext.Pool == nil || ext.Objects == nil || ext.Registry == nil {
		return nil, errors.New("database pool, object store and metrics registry are required")
	}
	if cfg.Auth.TokenSecret == "" {
		return nil, errors.New("auth.token_secret must be set")
	}
	logger := ext.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := metrics.New()
	m.MustRegister(ext.Registry)

	userRepo := repositories.NewPostgresUserRepository(ext.Pool)
	videoRepo := repositories.NewPostgresVideoRepository(ext.Pool)
	engagementRepo := repositories.NewPostgresEngagementRepository(ext.Pool)

	passwords, err := auth.NewPasswordHasher(cfg.Auth.PasswordAlgorithm)
	if err != nil {
		return nil, err
	}

	var revoked auth.Revocations
	if ext.KV != nil {
		revoked = auth.NewBlacklist(ext.KV)
	}
	tokens := auth.NewTokenManager(cfg.Auth.TokenSecret, cfg.Auth.Issuer, cfg.Auth.AccessTTL)
	sessions := auth.NewManager(tokens, cfg.Auth.RefreshTTL, repositories.NewPostgresSessionStore(ext.Pool), userRepo, revoked)

	store := assets.NewClient(ext.Objects, assets.NewFFProbe(cfg.Probe.FFProbePath, cfg.Probe.Timeout), m)

	recorder := videos.NewViewRecorder(videoRepo, userRepo, videos.RecorderConfig{
		Workers:   cfg.Views.Workers,
		QueueSize: cfg.Views.QueueSize,
	}, m, logger)

	deps := handlers.Dependencies{
		Users:       users.NewService(userRepo, sessions, passwords, store),
		Videos:      videos.NewService(videoRepo, engagementRepo, store, recorder, m),
		Engagement:  engagement.NewService(engagementRepo, videoRepo, userRepo),
		Database:    ext.Pool,
		Metrics:     metrics.Handler(ext.Registry),
		AuthLimiter: middleware.NewIPRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.Burst, rateLimitTTL),
		Uploads:     handlers.UploadOptions{Dir: cfg.HTTP.TempDir, MaxBytes: cfg.HTTP.MaxUploadBytes},
		Cookies:     handlers.CookieOptions{Secure: cfg.HTTP.SecureCookies},
	}

	return &application{
		deps:     deps,
		sessions: sessions,
		metrics:  m,
		recorder: recorder,
		logger:   logger,
	}, nil
}

// Handler returns the routed mux wrapped in the middleware chain. Metrics
// wraps the mux directly so the matched route pattern is visible to it.
func (a *application) Handler() http.Handler {
	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, a.deps)

	var handler http.Handler = middleware.Metrics(a.metrics)(mux)
	handler = middleware.Authenticate(a.sessions)(handler)
	return middleware.RequestLogger(a.logger)(handler)
}

// Close drains the pending view writes.
func (a *application) Close(ctx context.Context) error {
	return a.recorder.Shutdown(ctx)
}
