package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/uguis/meibo/internal/logger"
	"github.com/uguis/meibo/internal/metrics"
	"github.com/uguis/meibo/internal/middleware"
	"github.com/uguis/meibo/internal/model"
)

type mockPinger struct {
	err error
}

func (m *mockPinger) PingContext(ctx context.Context) error {
	return m.err
}

type staticResolver struct {
	principal model.Principal
}

func (s *staticResolver) ResolvePrincipal(ctx context.Context, sessionID string) (model.Principal, error) {
	return s.principal, nil
}

func testRouter(t *testing.T, principal model.Principal) http.Handler {
	t.Helper()

	registry := prometheus.NewRegistry()
	return NewRouter(&RouterDeps{
		PrincipalResolver: &staticResolver{principal: principal},
		SessionCookieName: "dev_session_id",
		Logger:            logger.Setup(io.Discard, "test"),

		AuthService: &mockAuthService{},
		Registrar:   &mockRegistrar{},
		AuthConfig:  testAuthConfig(),

		UserService: &mockUserService{
			listFn: func(ctx context.Context) ([]*model.User, error) {
				return nil, nil
			},
		},
		EmailFinder: noUserFinder(),
		PostService: &mockPostService{},

		Renderer:  testRenderer(t),
		Collector: metrics.NewCollector(registry),
		Registry:  registry,
		DB:        &mockPinger{},
	})
}

func TestRouter_Health(t *testing.T) {
	router := testRouter(t, model.Principal{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Errorf("body = %q", rr.Body.String())
	}
}

func TestRouter_Health_DatabaseDown(t *testing.T) {
	rr := httptest.NewRecorder()
	NewHealthHandler(&mockPinger{err: errors.New("connection refused")}).ServeHTTP(rr,
		httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", rr.Code)
	}
}

func TestRouter_Metrics(t *testing.T) {
	router := testRouter(t, model.Principal{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d", rr.Code)
	}
}

func TestRouter_StaticAssets(t *testing.T) {
	router := testRouter(t, model.Principal{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/static/style.css", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d", rr.Code)
	}
}

func TestRouter_IndexRenders(t *testing.T) {
	router := testRouter(t, model.Principal{UserID: "u1", DisplayName: "うぐいす一号"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "dev_session_id", Value: "session-1"})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("security headers missing")
	}
}

func TestRouter_ProtectedRoutesRedirectAnonymous(t *testing.T) {
	router := testRouter(t, model.Principal{})

	paths := []string{"/", "/user_maintenance", "/u1/account", "/p1/update"}
	for _, path := range paths {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))

		if rr.Code != http.StatusFound {
			t.Errorf("%s: status = %d, want 302", path, rr.Code)
			continue
		}
		location := rr.Header().Get("Location")
		if location == "" || location[:7] != "/login?" {
			t.Errorf("%s: location = %q, want /login?next=...", path, location)
		}
	}
}

func TestRouter_AuthenticatedMaintenance(t *testing.T) {
	router := testRouter(t, model.Principal{UserID: "u1", DisplayName: "うぐいす一号"})

	req := httptest.NewRequest(http.MethodGet, "/user_maintenance", nil)
	req.AddCookie(&http.Cookie{Name: "dev_session_id", Value: "session-1"})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d", rr.Code)
	}
}

func TestRouter_PostWithoutCSRFRejected(t *testing.T) {
	router := testRouter(t, model.Principal{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/login", nil))

	if rr.Code != http.StatusForbidden {
		t.Errorf("status = %d, state-changing request without CSRF token must be rejected", rr.Code)
	}
}

func TestRouter_CredentialRateLimit(t *testing.T) {
	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		CredentialRate:  1.0 / 60.0,
		CredentialBurst: 1,
		CleanupInterval: time.Minute,
	})
	t.Cleanup(rl.Stop)

	registry := prometheus.NewRegistry()
	router := NewRouter(&RouterDeps{
		PrincipalResolver: &staticResolver{},
		SessionCookieName: "dev_session_id",
		RateLimiter:       rl,
		Logger:            logger.Setup(io.Discard, "test"),
		AuthService:       &mockAuthService{},
		Registrar:         &mockRegistrar{},
		AuthConfig:        testAuthConfig(),
		UserService:       &mockUserService{},
		EmailFinder:       noUserFinder(),
		PostService:       &mockPostService{},
		Renderer:          testRenderer(t),
		Collector:         metrics.NewCollector(registry),
		Registry:          registry,
		DB:                &mockPinger{},
	})

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	router.ServeHTTP(httptest.NewRecorder(), req)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rr.Code)
	}
}
