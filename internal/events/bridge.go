// Package events consumes notifications from the identity provider. The
// only event today is "identity created", which provisions the matching
// Profile row.
package events

import (
	"context"
	"errors"
	"fmt"
	"log"

	"healthchat-backend/internal/models"
	"healthchat-backend/internal/store"

	"github.com/google/uuid"
)

// ErrInvalidEvent marks a malformed notification that should not be
// redelivered.
var ErrInvalidEvent = errors.New("invalid identity event")

// Bridge turns identity-created notifications into Profile rows. The
// provider delivers at least once, so HandleIdentityCreated must stay
// idempotent: a redelivered event is a logged no-op, never an error and
// never a second row.
type Bridge struct {
	store store.Store
}

func NewBridge(s store.Store) *Bridge {
	return &Bridge{store: s}
}

// HandleIdentityCreated provisions exactly one Profile for the identity.
// An unrecognized metadata role defaults to unassigned rather than failing;
// the provider stores metadata verbatim and cannot validate it.
func (b *Bridge) HandleIdentityCreated(ctx context.Context, evt models.IdentityCreatedRequest) error {
	if evt.ID == uuid.Nil {
		return fmt.Errorf("%w: missing id", ErrInvalidEvent)
	}
	if evt.Email == "" {
		return fmt.Errorf("%w: missing email for identity %s", ErrInvalidEvent, evt.ID)
	}

	role := models.RoleUnassigned
	if r, ok := models.ParseRole(evt.Metadata.Role); ok {
		role = r
	} else if evt.Metadata.Role != "" {
		log.Printf("[Bridge] identity %s carries unrecognized role %q, defaulting to unassigned", evt.ID, evt.Metadata.Role)
	}

	params := store.UpsertProfileParams{
		ID:      evt.ID,
		Email:   evt.Email,
		Role:    role,
		Name:    evt.Metadata.Name,
		Surname: evt.Metadata.Surname,
	}
	if evt.Metadata.Phone != "" {
		params.Phone = &evt.Metadata.Phone
	}
	if evt.Metadata.Specialization != "" {
		params.Specialization = &evt.Metadata.Specialization
	}
	if evt.Metadata.DoctorRegistrationNumber != "" {
		params.RegistrationNumber = &evt.Metadata.DoctorRegistrationNumber
	}

	created, err := b.store.UpsertProfile(ctx, params)
	if err != nil {
		// Transient store failures are retried by the delivery mechanism;
		// the upsert keeps the retry safe.
		return fmt.Errorf("provisioning profile for identity %s: %w", evt.ID, err)
	}

	if created {
		log.Printf("[Bridge] provisioned profile %s (%s) with role %s", evt.ID, evt.Email, role)
	} else {
		log.Printf("[Bridge] duplicate identity-created event for %s, profile already provisioned", evt.ID)
	}
	return nil
}
