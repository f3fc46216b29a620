package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vidhub/backend/internal/auth"
	"github.com/vidhub/backend/internal/logging"
	"github.com/vidhub/backend/internal/metrics"
)

type authenticatorStub struct {
	tokens map[string]auth.Principal
}

func (a authenticatorStub) Authenticate(ctx context.Context, token string) (auth.Principal, error) {
	p, ok := a.tokens[token]
	if !ok {
		return auth.Principal{}, auth.ErrInvalidToken
	}
	return p, nil
}

func principalEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(auth.UserIDFromContext(r.Context())))
	})
}

func TestAuthenticateResolvesPrincipal(t *testing.T) {
	a := authenticatorStub{tokens: map[string]auth.Principal{"good": {UserID: "u1"}}}
	handler := Authenticate(a)(principalEcho())

	cases := []struct {
		name  string
		setup func(*http.Request)
		want  string
	}{
		{"anonymous", func(*http.Request) {}, ""},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "good"}) }, "u1"},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") }, "u1"},
		{"lowercase bearer", func(r *http.Request) { r.Header.Set("Authorization", "bearer good") }, "u1"},
		{"invalid token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer bad") }, ""},
		{"other scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic good") }, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tc.setup(req)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Body.String() != tc.want {
				t.Fatalf("expected principal %q, got %q", tc.want, rec.Body.String())
			}
		})
	}
}

func TestRequestLoggerAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	var seen string
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != "req-123" || rec.Header().Get(RequestIDHeader) != "req-123" {
		t.Fatalf("expected propagated request id, got ctx=%q header=%q", seen, rec.Header().Get(RequestIDHeader))
	}
	if !strings.Contains(buf.String(), `"status":418`) {
		t.Fatalf("expected completion log with status, got %s", buf.String())
	}
}

func TestRequestLoggerRecoversPanics(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(errors.New("boom"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 after panic, got %d", rec.Code)
	}
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	m := metrics.New()
	m.MustRegister(prometheus.NewRegistry())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/videos/{videoId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	handler := Metrics(m)(mux)

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/videos/"+id, nil))
	}

	got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "GET /api/v1/videos/{videoId}", "404"))
	if got != 2 {
		t.Fatalf("expected 2 requests on the route pattern, got %v", got)
	}
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	limiter := NewIPRateLimiter(1, time.Minute, 2, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.(*ipRateLimiter).now = func() time.Time { return now }

	if !limiter.Allow("ip") || !limiter.Allow("ip") {
		t.Fatal("expected burst of two to be allowed")
	}
	if limiter.Allow("ip") {
		t.Fatal("expected third request to be rejected")
	}
	if !limiter.Allow("other") {
		t.Fatal("expected independent key to be allowed")
	}

	now = now.Add(time.Minute)
	if !limiter.Allow("ip") {
		t.Fatal("expected token to be replenished after the window")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewIPRateLimiter(1, time.Hour, 1, time.Hour)
	reject := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	handler := RateLimit(limiter, "login", reject)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("203.0.113.1"); code != http.StatusNoContent {
		t.Fatalf("expected first request through, got %d", code)
	}
	if code := send("203.0.113.1, 10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("expected second request rejected, got %d", code)
	}
	if code := send("198.51.100.7"); code != http.StatusNoContent {
		t.Fatalf("expected other client through, got %d", code)
	}
}
