package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"healthchat-backend/internal/authz"
	"healthchat-backend/internal/models"
	"healthchat-backend/internal/store"

	"github.com/google/uuid"
)

// AdminService covers operations on the whole user directory: listing
// profiles, changing roles, and hard-deleting accounts.
//
// Authorization runs against the directory itself (a profile resource with
// no ID), not the target row. The self-access rule only fires when the
// resource ID equals the caller's, so directory-wide operations fall
// through to the admin rule and everyone else gets RoleInsufficient - a
// patient cannot reach role changes or hard deletes for their own row
// through this surface.
type AdminService struct {
	store  store.Store
	engine *authz.Engine
}

func NewAdminService(s store.Store, engine *authz.Engine) *AdminService {
	return &AdminService{store: s, engine: engine}
}

func (s *AdminService) authorizeDirectory(ctx context.Context, subjectID uuid.UUID, op authz.Operation) error {
	decision, err := s.engine.Authorize(ctx, subjectID, op, authz.Resource{
		Kind: authz.KindProfile,
	})
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return denyError(decision)
	}
	return nil
}

// ListProfiles returns every profile.
func (s *AdminService) ListProfiles(ctx context.Context, subjectID uuid.UUID, limit, offset int) ([]models.ProfileResponse, error) {
	if err := s.authorizeDirectory(ctx, subjectID, authz.OpRead); err != nil {
		return nil, err
	}

	limit, offset = clampPage(limit, offset)
	profiles, err := s.store.ListProfiles(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}

	resp := make([]models.ProfileResponse, 0, len(profiles))
	for i := range profiles {
		resp = append(resp, models.NewProfileResponse(&profiles[i]))
	}
	return resp, nil
}

// GetProfile returns any single profile.
func (s *AdminService) GetProfile(ctx context.Context, subjectID, targetID uuid.UUID) (*models.ProfileResponse, error) {
	if err := s.authorizeDirectory(ctx, subjectID, authz.OpRead); err != nil {
		return nil, err
	}

	profile, err := s.store.GetProfileByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	resp := models.NewProfileResponse(profile)
	return &resp, nil
}

// UpdateRole sets any profile's role, including promotions to admin.
func (s *AdminService) UpdateRole(ctx context.Context, subjectID, targetID uuid.UUID, req models.UpdateRoleRequest) (*models.ProfileResponse, error) {
	role, ok := models.ParseRole(req.Role)
	if !ok {
		return nil, fmt.Errorf("%w: unrecognized role %q", ErrValidation, req.Role)
	}

	if err := s.authorizeDirectory(ctx, subjectID, authz.OpUpdate); err != nil {
		return nil, err
	}

	profile, err := s.store.UpdateProfile(ctx, store.UpdateProfileParams{ID: targetID, Role: &role})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating role: %w", err)
	}

	log.Printf("[AdminService] %s set role of %s to %s", subjectID, targetID, role)
	resp := models.NewProfileResponse(profile)
	return &resp, nil
}

// DeleteProfile hard-deletes an account. This is the one path that
// physically purges sessions, messages and conversation contexts, via the
// store's cascade.
func (s *AdminService) DeleteProfile(ctx context.Context, subjectID, targetID uuid.UUID) error {
	if err := s.authorizeDirectory(ctx, subjectID, authz.OpDelete); err != nil {
		return err
	}

	if err := s.store.DeleteProfile(ctx, targetID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("deleting profile: %w", err)
	}
	log.Printf("[AdminService] %s hard-deleted profile %s", subjectID, targetID)
	return nil
}
