package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"example.com/fittrack/internal/domain"
)

// errorBody is the wire shape for all failures: a human-readable detail plus
// optional per-field validation messages.
type errorBody struct {
	Detail  string              `json:"detail"`
	Details map[string][]string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

func writeValidationError(w http.ResponseWriter, verr *domain.ValidationError) {
	writeJSON(w, http.StatusBadRequest, errorBody{Detail: "Invalid input.", Details: verr.Fields})
}

// writeServiceError maps domain errors onto HTTP statuses. Storage errors are
// logged and reported as a generic 500 so no raw database detail leaks.
func writeServiceError(w http.ResponseWriter, err error) {
	if verr, ok := domain.AsValidationError(err); ok {
		writeValidationError(w, verr)
		return
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "No active account found with the given credentials.")
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error.")
	}
}
