package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"healthchat-backend/internal/events"
	"healthchat-backend/internal/models"
	"healthchat-backend/pkg/httputil"
)

// IdentityEventHandlers receives webhooks from the identity provider. The
// route is public (the provider cannot authenticate as a user), so a shared
// secret header gates it instead.
type IdentityEventHandlers struct {
	bridge        *events.Bridge
	webhookSecret string
}

func NewIdentityEventHandlers(bridge *events.Bridge, webhookSecret string) *IdentityEventHandlers {
	return &IdentityEventHandlers{bridge: bridge, webhookSecret: webhookSecret}
}

// HandleIdentityCreated provisions a profile for a freshly created
// identity. The provider delivers at least once and retries on failure;
// the bridge makes the redelivery harmless.
func (h *IdentityEventHandlers) HandleIdentityCreated(w http.ResponseWriter, r *http.Request) {
	got := r.Header.Get("X-Webhook-Secret")
	if h.webhookSecret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.webhookSecret)) != 1 {
		httputil.RespondError(w, http.StatusUnauthorized, "Invalid webhook secret")
		return
	}

	var evt models.IdentityCreatedRequest
	if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid event payload")
		return
	}

	if err := h.bridge.HandleIdentityCreated(r.Context(), evt); err != nil {
		if errors.Is(err, events.ErrInvalidEvent) {
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		// Non-2xx tells the provider to redeliver.
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to provision profile")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
