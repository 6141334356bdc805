package handlers

import (
	"encoding/json"
	"net/http"

	"healthchat-backend/internal/auth"
	"healthchat-backend/internal/models"
	"healthchat-backend/internal/services"
	"healthchat-backend/pkg/httputil"
)

// ProfileHandler handles self-service profile routes and the doctor
// directory.
type ProfileHandler struct {
	profileService *services.ProfileService
}

func NewProfileHandler(s *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: s}
}

// HandleUpdateMe applies a partial update to the caller's profile.
func (h *ProfileHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := auth.SubjectIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.profileService.UpdateSelf(r.Context(), subjectID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleOnboarding assigns the caller's initial role.
func (h *ProfileHandler) HandleOnboarding(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := auth.SubjectIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.OnboardingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.profileService.CompleteOnboarding(r.Context(), subjectID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleListDoctors returns the public doctor directory.
func (h *ProfileHandler) HandleListDoctors(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := auth.SubjectIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	limit, offset := pageParams(r)
	resp, err := h.profileService.ListDoctors(r.Context(), subjectID, limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}
