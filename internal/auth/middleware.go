package auth

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Skipper allows callers to bypass authentication for specific requests.
type Skipper func(r *http.Request) bool

// Middleware enforces bearer-token authentication and method scopes.
type Middleware struct {
	Config  Config
	Skipper Skipper
}

// NewMiddleware constructs a middleware; only paths under /api/ are guarded.
func NewMiddleware(cfg Config) Middleware {
	skipper := func(r *http.Request) bool {
		return !strings.HasPrefix(r.URL.Path, "/api/") || r.Method == http.MethodOptions
	}
	return Middleware{Config: cfg, Skipper: skipper}
}

// Wrap wraps an http.Handler with authentication.
func (m Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Skipper != nil && m.Skipper(r) {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.parseRequest(r)
		if err != nil {
			deny(w, http.StatusUnauthorized, err.Error())
			return
		}
		if !allowed(claims, r.Method) {
			deny(w, http.StatusForbidden, "insufficient scope")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

func (m Middleware) parseRequest(r *http.Request) (*Claims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, ErrMissingToken
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return nil, ErrInvalidToken
	}
	return Parse(header[len("Bearer "):], m.Config)
}

// allowed maps reads to exercises:read and everything else to exercises:write.
// The write scope implies read.
func allowed(claims *Claims, method string) bool {
	if claims.HasScope(ScopeExercisesWrite) {
		return true
	}
	switch method {
	case http.MethodGet, http.MethodHead:
		return claims.HasScope(ScopeExercisesRead)
	}
	return false
}

func deny(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
