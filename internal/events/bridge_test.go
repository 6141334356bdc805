package events

import (
	"context"
	"testing"
	"time"

	"healthchat-backend/internal/models"
	"healthchat-backend/internal/store/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleIdentityCreatedProvisionsProfile(t *testing.T) {
	s := memory.NewMemoryStore()
	bridge := NewBridge(s)

	id := uuid.New()
	evt := models.IdentityCreatedRequest{
		ID:        id,
		Email:     "sarah.smith@example.com",
		CreatedAt: time.Now(),
		Metadata: models.IdentityMetadata{
			Role:                     "doctor",
			Name:                     "Sarah",
			Surname:                  "Smith",
			Specialization:           "cardiology",
			DoctorRegistrationNumber: "MD-12345",
		},
	}

	require.NoError(t, bridge.HandleIdentityCreated(context.Background(), evt))

	p, err := s.GetProfileByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "sarah.smith@example.com", p.Email)
	assert.Equal(t, models.RoleDoctor, p.Role)
	assert.Equal(t, "Sarah", p.Name)
	assert.Equal(t, "Smith", p.Surname)
	require.NotNil(t, p.Specialization)
	assert.Equal(t, "cardiology", *p.Specialization)
	require.NotNil(t, p.RegistrationNumber)
	assert.Equal(t, "MD-12345", *p.RegistrationNumber)
}

func TestHandleIdentityCreatedIsIdempotent(t *testing.T) {
	s := memory.NewMemoryStore()
	bridge := NewBridge(s)

	evt := models.IdentityCreatedRequest{
		ID:    uuid.New(),
		Email: "pat@example.com",
		Metadata: models.IdentityMetadata{
			Role: "patient",
			Name: "Pat",
		},
	}

	require.NoError(t, bridge.HandleIdentityCreated(context.Background(), evt))

	// A redelivery must not error and must not clobber the existing row.
	redelivered := evt
	redelivered.Metadata.Name = "Someone Else"
	require.NoError(t, bridge.HandleIdentityCreated(context.Background(), redelivered))

	profiles, err := s.ListProfiles(context.Background(), 100, 0)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "Pat", profiles[0].Name)
}

func TestHandleIdentityCreatedUnrecognizedRole(t *testing.T) {
	s := memory.NewMemoryStore()
	bridge := NewBridge(s)

	id := uuid.New()
	evt := models.IdentityCreatedRequest{
		ID:       id,
		Email:    "mystery@example.com",
		Metadata: models.IdentityMetadata{Role: "superuser"},
	}

	require.NoError(t, bridge.HandleIdentityCreated(context.Background(), evt))

	p, err := s.GetProfileByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUnassigned, p.Role)
}

func TestHandleIdentityCreatedRejectsMalformedEvents(t *testing.T) {
	bridge := NewBridge(memory.NewMemoryStore())

	err := bridge.HandleIdentityCreated(context.Background(), models.IdentityCreatedRequest{
		Email: "no-id@example.com",
	})
	assert.ErrorIs(t, err, ErrInvalidEvent)

	err = bridge.HandleIdentityCreated(context.Background(), models.IdentityCreatedRequest{
		ID: uuid.New(),
	})
	assert.ErrorIs(t, err, ErrInvalidEvent)
}
