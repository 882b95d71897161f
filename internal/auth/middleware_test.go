package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testConfig = Config{Secret: "test-secret", Issuer: "exercisetracker"}

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims(scopes ...string) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":    "tester",
		"iss":    "exercisetracker",
		"exp":    time.Now().Add(time.Hour).Unix(),
		"scopes": scopes,
	}
}

func TestParseNormalizesScopes(t *testing.T) {
	claims := validClaims()
	claims["scopes"] = "exercises:read  exercises:write"

	parsed, err := Parse(signToken(t, claims, testConfig.Secret), testConfig)
	require.NoError(t, err)
	require.Equal(t, "tester", parsed.Subject)
	require.True(t, parsed.HasScope(ScopeExercisesRead))
	require.True(t, parsed.HasScope(ScopeExercisesWrite))
}

func TestParseRejectsWrongSecretAndIssuer(t *testing.T) {
	_, err := Parse(signToken(t, validClaims(), "other"), testConfig)
	require.ErrorIs(t, err, ErrInvalidToken)

	claims := validClaims()
	claims["iss"] = "someone-else"
	_, err = Parse(signToken(t, claims, testConfig.Secret), testConfig)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = Parse("  ", testConfig)
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestMiddlewareEnforcesScopesPerMethod(t *testing.T) {
	var seen *Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	handler := NewMiddleware(testConfig).Wrap(next)

	readToken := signToken(t, validClaims(ScopeExercisesRead), testConfig.Secret)

	cases := []struct {
		name   string
		method string
		path   string
		header string
		want   int
	}{
		{"health is open", http.MethodGet, "/healthz", "", http.StatusNoContent},
		{"missing token", http.MethodGet, "/api/users", "", http.StatusUnauthorized},
		{"malformed header", http.MethodGet, "/api/users", "Basic abc", http.StatusUnauthorized},
		{"read scope can list", http.MethodGet, "/api/users", "Bearer " + readToken, http.StatusNoContent},
		{"read scope cannot create", http.MethodPost, "/api/users", "Bearer " + readToken, http.StatusForbidden},
		{"preflight is open", http.MethodOptions, "/api/users", "", http.StatusNoContent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			require.Equal(t, tc.want, rr.Code, rr.Body.String())
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, validClaims(ScopeExercisesWrite), testConfig.Secret))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, seen)
	require.Equal(t, "tester", seen.Subject)
}
