package handlers

import (
	"encoding/json"
	"net/http"

	"healthchat-backend/internal/auth"
	"healthchat-backend/internal/models"
	"healthchat-backend/internal/services"
	"healthchat-backend/pkg/httputil"
)

// AuthHandler handles signup, login and the /me endpoint.
type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(s *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: s}
}

// HandleSignup creates an identity with the provider and returns the token
// plus the provisioned profile.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.authService.Signup(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, resp)
}

// HandleLogin exchanges credentials for a provider token.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleMe returns the caller's own profile.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := auth.SubjectIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	resp, err := h.authService.Me(r.Context(), subjectID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}
