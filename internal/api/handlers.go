// Package api exposes the HTTP handlers for the fitness API.
package api

import (
	"net/http"
	"strings"

	"example.com/fittrack/internal/auth"
	"example.com/fittrack/internal/domain"
)

// Handler coordinates HTTP requests with the domain services.
type Handler struct {
	users      *domain.UserService
	activities *domain.ActivityService
	goals      *domain.GoalService
	tokens     *auth.Issuer
}

// NewHandler builds a Handler.
func NewHandler(users *domain.UserService, activities *domain.ActivityService, goals *domain.GoalService, tokens *auth.Issuer) *Handler {
	return &Handler{users: users, activities: activities, goals: goals, tokens: tokens}
}

// RegisterRoutes wires endpoints to the mux. Paths use trailing slashes;
// sub-resource dispatch happens inside the collection handlers.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/users/register/", h.register)
	mux.HandleFunc("/api/users/login/", h.login)
	mux.HandleFunc("/api/users/token/refresh/", h.refreshToken)
	mux.HandleFunc("/api/users/profile/", h.profile)
	mux.HandleFunc("/api/users/change-password/", h.changePassword)
	mux.HandleFunc("/api/activities/", h.activityRoutes)
	mux.HandleFunc("/api/goals/", h.goalRoutes)
	mux.HandleFunc("/healthz", healthz)
}

// PublicPath reports whether a request path is served without authentication.
func PublicPath(path string) bool {
	switch strings.TrimSuffix(path, "/") {
	case "/api/users/register", "/api/users/login", "/api/users/token/refresh", "/healthz", "/metrics":
		return true
	}
	return false
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// requestUserID resolves the authenticated user from the request context.
func requestUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok || claims.UserID == "" {
		writeError(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return "", false
	}
	return claims.UserID, true
}

func (h *Handler) activityRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/activities"), "/")
	switch rest {
	case "":
		switch r.Method {
		case http.MethodGet:
			h.listActivities(w, r)
		case http.MethodPost:
			h.createActivity(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
		}
	case "metrics":
		h.activityMetrics(w, r)
	case "type-stats":
		h.activityTypeStats(w, r)
	case "recent":
		h.recentActivities(w, r)
	default:
		h.activityByID(w, r, rest)
	}
}

func (h *Handler) goalRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/goals"), "/")
	if rest == "" {
		switch r.Method {
		case http.MethodGet:
			h.listGoals(w, r)
		case http.MethodPost:
			h.createGoal(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
		}
		return
	}
	h.goalByID(w, r, rest)
}
