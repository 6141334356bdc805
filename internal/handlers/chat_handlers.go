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

// ChatHandlers handles HTTP requests for sessions and messages.
type ChatHandlers struct {
	chatService *services.ChatService
}

func NewChatHandlers(s *services.ChatService) *ChatHandlers {
	return &ChatHandlers{chatService: s}
}

func subjectAndSessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	subjectID, ok := auth.SubjectIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, uuid.Nil, false
	}
	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid session ID")
		return uuid.Nil, uuid.Nil, false
	}
	return subjectID, sessionID, true
}

// HandleCreateSession starts a new conversation for the caller.
func (h *ChatHandlers) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := auth.SubjectIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.CreateSessionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	resp, err := h.chatService.CreateSession(r.Context(), subjectID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, resp)
}

// HandleListSessions lists the caller's sessions. Admins may pass
// ?owner_id= to inspect another profile's sessions.
func (h *ChatHandlers) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := auth.SubjectIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ownerID := uuid.Nil
	if v := r.URL.Query().Get("owner_id"); v != "" {
		parsed, err := uuid.Parse(v)
		if err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "Invalid owner ID")
			return
		}
		ownerID = parsed
	}

	limit, offset := pageParams(r)
	resp, err := h.chatService.ListSessions(r.Context(), subjectID, ownerID, limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleGetSession returns one session.
func (h *ChatHandlers) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	subjectID, sessionID, ok := subjectAndSessionID(w, r)
	if !ok {
		return
	}

	resp, err := h.chatService.GetSession(r.Context(), subjectID, sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleAppendMessage adds one turn to a session.
func (h *ChatHandlers) HandleAppendMessage(w http.ResponseWriter, r *http.Request) {
	subjectID, sessionID, ok := subjectAndSessionID(w, r)
	if !ok {
		return
	}

	var req models.AppendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.chatService.AppendMessage(r.Context(), subjectID, sessionID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, resp)
}

// HandleListMessages returns a session's messages in creation order.
func (h *ChatHandlers) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	subjectID, sessionID, ok := subjectAndSessionID(w, r)
	if !ok {
		return
	}

	limit, offset := pageParams(r)
	resp, err := h.chatService.ListMessages(r.Context(), subjectID, sessionID, limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleArchiveSession marks a session read-only.
func (h *ChatHandlers) HandleArchiveSession(w http.ResponseWriter, r *http.Request) {
	subjectID, sessionID, ok := subjectAndSessionID(w, r)
	if !ok {
		return
	}

	if err := h.chatService.ArchiveSession(r.Context(), subjectID, sessionID); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDeleteSession soft-deletes a session.
func (h *ChatHandlers) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	subjectID, sessionID, ok := subjectAndSessionID(w, r)
	if !ok {
		return
	}

	if err := h.chatService.DeleteSession(r.Context(), subjectID, sessionID); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetContext returns the session's conversation context.
func (h *ChatHandlers) HandleGetContext(w http.ResponseWriter, r *http.Request) {
	subjectID, sessionID, ok := subjectAndSessionID(w, r)
	if !ok {
		return
	}

	resp, err := h.chatService.GetConversationContext(r.Context(), subjectID, sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandlePutContext replaces the session's conversation context. Used by the
// chat engine after re-summarizing.
func (h *ChatHandlers) HandlePutContext(w http.ResponseWriter, r *http.Request) {
	subjectID, sessionID, ok := subjectAndSessionID(w, r)
	if !ok {
		return
	}

	var req models.ConversationContextData
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.chatService.PutConversationContext(r.Context(), subjectID, sessionID, req); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
