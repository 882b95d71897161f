package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"example.com/exercisetracker/internal/auth"
	"example.com/exercisetracker/internal/config"
	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/persistence/memory"
)

func testRouter(t *testing.T, cfg config.Config) http.Handler {
	t.Helper()
	logger, _ := test.NewNullLogger()
	if cfg.CORSOrigins == nil {
		cfg.CORSOrigins = []string{"*"}
	}
	return newRouter(cfg, domain.NewService(memory.NewRepository()), logger)
}

func signToken(t *testing.T, secret string, scopes ...string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":    "tester",
		"iss":    "exercisetracker",
		"scopes": scopes,
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestRouterServesAPIWithoutAuth(t *testing.T) {
	h := testRouter(t, config.Config{})

	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(`{"username":"alice"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://localhost:5173")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NotEmpty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouterEnforcesScopesWhenAuthEnabled(t *testing.T) {
	cfg := config.Config{JWTSecret: "s3cret", JWTIssuer: "exercisetracker"}
	h := testRouter(t, cfg)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	readOnly := signToken(t, cfg.JWTSecret, auth.ScopeExercisesRead)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+readOnly)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(`{"username":"alice"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+readOnly)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestRouterExposesMetrics(t *testing.T) {
	h := testRouter(t, config.Config{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "exercise_tracker_http_requests_total")
}

func TestRouterLogsAndCountsPanickingRequests(t *testing.T) {
	logger, hook := test.NewNullLogger()
	h := newRouter(config.Config{CORSOrigins: []string{"*"}}, domain.NewService(memory.NewRepository()), logger)
	h.(chi.Router).Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	require.Equal(t, http.StatusInternalServerError, entry.Data["status"])
	require.Equal(t, "/boom", entry.Data["path"])

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Contains(t, rr.Body.String(), `exercise_tracker_http_requests_total{method="GET",route="/boom",status="500"}`)
}

func TestRouterFallsBackToFrontEnd(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>tracker</html>"), 0o644))

	h := testRouter(t, config.Config{StaticDir: dir})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users/42", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "tracker")

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.JSONEq(t, `{"error":"Not found"}`, rr.Body.String())
}
