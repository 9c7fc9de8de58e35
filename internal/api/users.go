package api

import (
	"encoding/json"
	"net/http"
	"time"

	"example.com/fittrack/internal/domain"
)

// RegisterRequest is the payload for POST /api/users/register/.
type RegisterRequest struct {
	Username        string          `json:"username"`
	Email           string          `json:"email"`
	Password        string          `json:"password"`
	PasswordConfirm string          `json:"password_confirm"`
	FirstName       string          `json:"first_name"`
	LastName        string          `json:"last_name"`
	Profile         *ProfileRequest `json:"profile"`
}

// ProfileRequest carries optional profile fields on registration and updates.
type ProfileRequest struct {
	DateOfBirth *string  `json:"date_of_birth"`
	Gender      *string  `json:"gender"`
	Height      *float64 `json:"height"`
	Weight      *float64 `json:"weight"`
	Bio         *string  `json:"bio"`
}

// TokenPairView is the token object returned on registration and login.
type TokenPairView struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Unable to parse request body.")
		return
	}

	profile, err := toProfileInput(req.Profile)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	user, err := h.users.Register(r.Context(), domain.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Profile:         profile,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pair, err := h.tokens.IssuePair(user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"user":    toUserView(*user),
		"tokens":  TokenPairView{Access: pair.Access, Refresh: pair.Refresh},
		"message": "User registered successfully",
	})
}

// LoginRequest is the payload for POST /api/users/login/.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Unable to parse request body.")
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pair, err := h.tokens.IssuePair(user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"access":  pair.Access,
		"refresh": pair.Refresh,
		"user":    toUserView(*user),
	})
}

// RefreshRequest is the payload for POST /api/users/token/refresh/.
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

func (h *Handler) refreshToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}

	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Unable to parse request body.")
		return
	}

	access, err := h.tokens.Refresh(req.Refresh)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Token is invalid or expired.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

// UpdateProfileRequest is the payload for PUT /api/users/profile/. Absent
// fields are left unchanged.
type UpdateProfileRequest struct {
	Email     *string         `json:"email"`
	FirstName *string         `json:"first_name"`
	LastName  *string         `json:"last_name"`
	Profile   *ProfileRequest `json:"profile"`
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		user, err := h.users.GetUser(r.Context(), userID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserView(*user))
	case http.MethodPut, http.MethodPatch:
		var req UpdateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Unable to parse request body.")
			return
		}
		profile, err := toProfileInput(req.Profile)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		user, err := h.users.UpdateProfile(r.Context(), userID, domain.UpdateProfileInput{
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Profile:   profile,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserView(*user))
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
	}
}

// ChangePasswordRequest is the payload for POST /api/users/change-password/.
type ChangePasswordRequest struct {
	OldPassword        string `json:"old_password"`
	NewPassword        string `json:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm"`
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Unable to parse request body.")
		return
	}

	if err := h.users.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword, req.NewPasswordConfirm); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

func toProfileInput(req *ProfileRequest) (*domain.ProfileInput, error) {
	if req == nil {
		return nil, nil
	}
	input := &domain.ProfileInput{
		Gender:   req.Gender,
		HeightCm: req.Height,
		WeightKg: req.Weight,
		Bio:      req.Bio,
	}
	if req.DateOfBirth != nil {
		parsed, err := time.Parse(dateLayout, *req.DateOfBirth)
		if err != nil {
			verr := domain.NewValidationError()
			verr.Add("date_of_birth", "Date has wrong format. Use YYYY-MM-DD.")
			return nil, verr
		}
		input.DateOfBirth = &parsed
	}
	return input, nil
}
