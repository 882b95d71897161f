package main

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"example.com/exercisetracker/internal/api"
	"example.com/exercisetracker/internal/auth"
	"example.com/exercisetracker/internal/config"
	"example.com/exercisetracker/internal/domain"
	httptransport "example.com/exercisetracker/internal/transport/http"
)

func newRouter(cfg config.Config, service *domain.Service, log logrus.FieldLogger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httptransport.Instrument(log))
	r.Use(middleware.Recoverer)
	r.Use(httptransport.CORS(cfg.CORSOrigins))
	if cfg.AuthEnabled() {
		r.Use(auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}).Wrap)
	}

	api.NewHandler(service, log).RegisterRoutes(r)
	r.Handle("/metrics", promhttp.Handler())

	var static http.Handler
	if cfg.StaticDir != "" {
		static = httptransport.SPAHandler(cfg.StaticDir)
	}
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		if static != nil && req.Method == http.MethodGet && !strings.HasPrefix(req.URL.Path, "/api/") {
			static.ServeHTTP(w, req)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Not found"})
	})
	return r
}
