package api

import (
	"encoding/json"
	"net/http"
	"time"

	"example.com/fittrack/internal/domain"
)

// GoalRequest is the payload for POST and PUT on goals.
type GoalRequest struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	GoalType     string  `json:"goal_type"`
	TargetValue  float64 `json:"target_value"`
	ActivityType string  `json:"activity_type"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
}

func (req GoalRequest) toInput() (domain.GoalInput, error) {
	verr := domain.NewValidationError()
	input := domain.GoalInput{
		Title:        req.Title,
		Description:  req.Description,
		GoalType:     domain.GoalType(req.GoalType),
		TargetValue:  req.TargetValue,
		ActivityType: req.ActivityType,
	}
	if req.StartDate != "" {
		parsed, err := time.Parse(dateLayout, req.StartDate)
		if err != nil {
			verr.Add("start_date", "Date has wrong format. Use YYYY-MM-DD.")
		} else {
			input.StartDate = parsed
		}
	}
	if req.EndDate != "" {
		parsed, err := time.Parse(dateLayout, req.EndDate)
		if err != nil {
			verr.Add("end_date", "Date has wrong format. Use YYYY-MM-DD.")
		} else {
			input.EndDate = parsed
		}
	}
	if err := verr.ErrOrNil(); err != nil {
		return domain.GoalInput{}, err
	}
	return input, nil
}

func (h *Handler) createGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	var req GoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Unable to parse request body.")
		return
	}
	input, err := req.toInput()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	goal, err := h.goals.CreateGoal(r.Context(), userID, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGoalView(*goal))
}

func (h *Handler) listGoals(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	goals, err := h.goals.ListGoals(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	views := make([]GoalView, 0, len(goals))
	for _, goal := range goals {
		views = append(views, toGoalView(goal))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) goalByID(w http.ResponseWriter, r *http.Request, id string) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		goal, err := h.goals.GetGoal(r.Context(), userID, id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toGoalView(*goal))
	case http.MethodPut:
		var req GoalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Unable to parse request body.")
			return
		}
		input, err := req.toInput()
		if err != nil {
			writeServiceError(w, err)
			return
		}
		goal, err := h.goals.UpdateGoal(r.Context(), userID, id, input)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toGoalView(*goal))
	case http.MethodDelete:
		if err := h.goals.DeleteGoal(r.Context(), userID, id); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
	}
}
