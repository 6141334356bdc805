package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"healthchat-backend/internal/events"
	"healthchat-backend/internal/models"
	"healthchat-backend/internal/store/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "shh-provider-only"

func postEvent(t *testing.T, h *IdentityEventHandlers, secret string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/identity-events", &buf)
	if secret != "" {
		req.Header.Set("X-Webhook-Secret", secret)
	}
	rec := httptest.NewRecorder()
	h.HandleIdentityCreated(rec, req)
	return rec
}

func TestIdentityWebhookProvisionsProfile(t *testing.T) {
	s := memory.NewMemoryStore()
	h := NewIdentityEventHandlers(events.NewBridge(s), testWebhookSecret)

	id := uuid.New()
	rec := postEvent(t, h, testWebhookSecret, models.IdentityCreatedRequest{
		ID:        id,
		Email:     "hook@example.com",
		CreatedAt: time.Now(),
		Metadata:  models.IdentityMetadata{Role: "patient"},
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	p, err := s.GetProfileByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.RolePatient, p.Role)
}

func TestIdentityWebhookRejectsBadSecret(t *testing.T) {
	s := memory.NewMemoryStore()
	h := NewIdentityEventHandlers(events.NewBridge(s), testWebhookSecret)

	evt := models.IdentityCreatedRequest{ID: uuid.New(), Email: "x@example.com"}

	rec := postEvent(t, h, "wrong-secret", evt)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postEvent(t, h, "", evt)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// A handler configured without a secret accepts nothing at all.
	unconfigured := NewIdentityEventHandlers(events.NewBridge(s), "")
	rec = postEvent(t, unconfigured, "anything", evt)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	profiles, err := s.ListProfiles(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

func TestIdentityWebhookBadPayloads(t *testing.T) {
	s := memory.NewMemoryStore()
	h := NewIdentityEventHandlers(events.NewBridge(s), testWebhookSecret)

	rec := postEvent(t, h, testWebhookSecret, "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Structurally valid JSON but semantically invalid event: also 400, so
	// the provider does not redeliver it forever.
	rec = postEvent(t, h, testWebhookSecret, models.IdentityCreatedRequest{Email: "no-id@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
