// Package api exposes HTTP handlers for the exercise tracker.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"example.com/exercisetracker/internal/auth"
	"example.com/exercisetracker/internal/domain"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
	log     logrus.FieldLogger
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{service: service, log: log}
}

// RegisterRoutes wires endpoints to the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", healthz)
	r.Route("/api/users", func(r chi.Router) {
		r.Post("/", h.createUser)
		r.Get("/", h.listUsers)
		r.Post("/{id}/exercises", h.addExercise)
		r.Get("/{id}/logs", h.exerciseLog)
	})
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, h.service.Reject(err))
		return
	}
	if err := checkFields(namedField{"username", "Username", req.Username, true}); err != nil {
		h.fail(w, r, h.service.Reject(err))
		return
	}

	user, err := h.service.CreateUser(r.Context(), req.Username.Value)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserView(*user))
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, toUserView(u))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) addExercise(w http.ResponseWriter, r *http.Request) {
	var req AddExerciseRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, h.service.Reject(err))
		return
	}
	if err := checkFields(
		namedField{"description", "Description", req.Description, false},
		namedField{"duration", "Duration", req.Duration, false},
	); err != nil {
		h.fail(w, r, h.service.Reject(err))
		return
	}

	user, exercise, err := h.service.AddExercise(r.Context(), domain.NewExerciseInput{
		UserID:      chi.URLParam(r, "id"),
		Description: req.Description.Value,
		Duration:    req.Duration.Value,
		Date:        req.Date.Value,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ExerciseView{
		Username:    user.Username,
		Description: exercise.Description,
		Duration:    exercise.Duration,
		Date:        domain.FormatDate(exercise.Date),
		ID:          user.ID,
	})
}

func (h *Handler) exerciseLog(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	result, err := h.service.GetLog(r.Context(), chi.URLParam(r, "id"), domain.LogQuery{
		From:  query.Get("from"),
		To:    query.Get("to"),
		Limit: query.Get("limit"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := LogView{
		Username: result.User.Username,
		Count:    result.Count(),
		ID:       result.User.ID,
		Log:      make([]LogEntryView, 0, len(result.Entries)),
	}
	for _, e := range result.Entries {
		resp.Log = append(resp.Log, LogEntryView{
			Description: e.Description,
			Duration:    e.Duration,
			Date:        domain.FormatDate(e.Date),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// fail maps domain errors onto status codes. Store failures are logged and
// reported with a generic message.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var validation *domain.ValidationError
	var store *domain.StoreError

	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Message)
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.As(err, &store):
		h.requestLog(r).WithError(store.Err).WithField("op", store.Op).Error("store operation failed")
		writeError(w, http.StatusInternalServerError, "Failed to "+store.Op)
	default:
		h.requestLog(r).WithError(err).Error("unexpected error")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// requestLog carries the path and, when a token was presented, its subject.
func (h *Handler) requestLog(r *http.Request) logrus.FieldLogger {
	fields := logrus.Fields{"path": r.URL.Path}
	if claims, ok := auth.FromContext(r.Context()); ok {
		fields["subject"] = claims.Subject
	}
	return h.log.WithFields(fields)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorView{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toUserView(u domain.User) UserView {
	return UserView{Username: u.Username, ID: u.ID}
}
