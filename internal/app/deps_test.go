package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vidhub/backend/internal/config"
)

type fakePool struct {
	pingErr error
}

func (fakePool) Acquire(context.Context) (*pgxpool.Conn, error) {
	return nil, errors.New("not implemented")
}

func (p fakePool) Ping(context.Context) error { return p.pingErr }

func (fakePool) Close() {}

type fakeObjects struct{}

func (fakeObjects) Save(context.Context, string, io.Reader, int64, string) (string, error) {
	return "", errors.New("not implemented")
}

func (fakeObjects) Delete(context.Context, string) error { return nil }

func testConfig() config.Config {
	return config.Config{
		HTTP: config.HTTPConfig{Port: 8080, TempDir: "/tmp", MaxUploadBytes: 1 << 20},
		Auth: config.AuthConfig{
			TokenSecret:       "test-secret",
			Issuer:            "vidhub",
			AccessTTL:         time.Minute,
			RefreshTTL:        time.Hour,
			PasswordAlgorithm: "bcrypt",
		},
		Probe:     config.ProbeConfig{FFProbePath: "ffprobe", Timeout: time.Second},
		Views:     config.ViewsConfig{Workers: 1, QueueSize: 4},
		RateLimit: config.RateLimitConfig{Requests: 5, Window: time.Minute, Burst: 5},
	}
}

func newTestApplication(t *testing.T, pool fakePool) *application {
	t.Helper()
	a, err := buildDependencies(externals{
		Pool:     pool,
		Objects:  fakeObjects{},
		Registry: prometheus.NewRegistry(),
	}, testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = a.Close(ctx)
	})
	return a
}

func TestBuildDependencies(t *testing.T) {
	a := newTestApplication(t, fakePool{})

	if a.deps.Users == nil {
		t.Fatal("expected user service to be configured")
	}
	if a.deps.Videos == nil {
		t.Fatal("expected video service to be configured")
	}
	if a.deps.Engagement == nil {
		t.Fatal("expected engagement service to be configured")
	}
	if a.deps.Database == nil || a.deps.Metrics == nil || a.deps.AuthLimiter == nil {
		t.Fatalf("expected infrastructure dependencies, got %+v", a.deps)
	}
	if a.deps.Uploads.Dir != "/tmp" || a.deps.Uploads.MaxBytes != 1<<20 {
		t.Fatalf("unexpected upload options %+v", a.deps.Uploads)
	}
	if a.sessions == nil || a.recorder == nil {
		t.Fatal("expected session manager and view recorder")
	}
}

func TestBuildDependenciesRequiresTokenSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.TokenSecret = ""

	_, err := buildDependencies(externals{Pool: fakePool{}, Objects: fakeObjects{}, Registry: prometheus.NewRegistry()}, cfg)
	if err == nil || !strings.Contains(err.Error(), "token_secret") {
		t.Fatalf("expected token secret error, got %v", err)
	}
}

func TestBuildDependenciesRejectsUnknownPasswordAlgorithm(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.PasswordAlgorithm = "md5"

	if _, err := buildDependencies(externals{Pool: fakePool{}, Objects: fakeObjects{}, Registry: prometheus.NewRegistry()}, cfg); err == nil {
		t.Fatal("expected password algorithm error")
	}
}

func TestApplicationHandler(t *testing.T) {
	a := newTestApplication(t, fakePool{})
	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected healthy status, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("expected request id header from the logging middleware")
	}

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/videos", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected anonymous publish to be rejected, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), `http_requests_total{method="POST",path="POST /api/v1/videos",status="401"} 1`) {
		t.Fatalf("expected publish request in exposition, got:\n%s", body)
	}
}

func TestApplicationHandlerReportsDegradedDatabase(t *testing.T) {
	a := newTestApplication(t, fakePool{pingErr: errors.New("down")})
	rec := httptest.NewRecorder()

	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
