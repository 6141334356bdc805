package handlers

import (
	"encoding/json"
	"net/http"

	"healthchat-backend/internal/auth"
	"healthchat-backend/internal/models"
	"healthchat-backend/internal/services"
	"healthchat-backend/pkg/httputil"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// AdminHandlers handles directory-wide profile management.
type AdminHandlers struct {
	adminService *services.AdminService
}

func NewAdminHandlers(s *services.AdminService) *AdminHandlers {
	return &AdminHandlers{adminService: s}
}

func subjectAndTargetID(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	subjectID, ok := auth.SubjectIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, uuid.Nil, false
	}
	targetID, err := uuid.Parse(chi.URLParam(r, "profileID"))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid profile ID")
		return uuid.Nil, uuid.Nil, false
	}
	return subjectID, targetID, true
}

// HandleListProfiles returns every profile.
func (h *AdminHandlers) HandleListProfiles(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := auth.SubjectIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	limit, offset := pageParams(r)
	resp, err := h.adminService.ListProfiles(r.Context(), subjectID, limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleGetProfile returns one profile.
func (h *AdminHandlers) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	subjectID, targetID, ok := subjectAndTargetID(w, r)
	if !ok {
		return
	}

	resp, err := h.adminService.GetProfile(r.Context(), subjectID, targetID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleUpdateRole changes a profile's role.
func (h *AdminHandlers) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	subjectID, targetID, ok := subjectAndTargetID(w, r)
	if !ok {
		return
	}

	var req models.UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.adminService.UpdateRole(r.Context(), subjectID, targetID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleDeleteProfile hard-deletes a profile and everything it owns.
func (h *AdminHandlers) HandleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	subjectID, targetID, ok := subjectAndTargetID(w, r)
	if !ok {
		return
	}

	if err := h.adminService.DeleteProfile(r.Context(), subjectID, targetID); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
