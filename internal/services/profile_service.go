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

// ProfileService handles self-service profile operations and the public
// doctor directory.
type ProfileService struct {
	store  store.Store
	engine *authz.Engine
}

func NewProfileService(s store.Store, engine *authz.Engine) *ProfileService {
	return &ProfileService{store: s, engine: engine}
}

// UpdateSelf applies a partial update to the caller's own profile. Role is
// not updatable here; onboarding and the admin API own role transitions.
func (s *ProfileService) UpdateSelf(ctx context.Context, subjectID uuid.UUID, req models.UpdateProfileRequest) (*models.ProfileResponse, error) {
	decision, err := s.engine.Authorize(ctx, subjectID, authz.OpUpdate, authz.Resource{
		Kind: authz.KindProfile,
		ID:   subjectID,
	})
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, denyError(decision)
	}

	profile, err := s.store.UpdateProfile(ctx, store.UpdateProfileParams{
		ID:             subjectID,
		Name:           req.Name,
		Surname:        req.Surname,
		Phone:          req.Phone,
		Specialization: req.Specialization,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating profile: %w", err)
	}

	resp := models.NewProfileResponse(profile)
	return &resp, nil
}

// CompleteOnboarding moves an unassigned profile into patient or doctor.
// This is the only non-admin role transition in the system.
func (s *ProfileService) CompleteOnboarding(ctx context.Context, subjectID uuid.UUID, req models.OnboardingRequest) (*models.ProfileResponse, error) {
	role, ok := models.ParseRole(req.Role)
	if !ok || (role != models.RolePatient && role != models.RoleDoctor) {
		return nil, fmt.Errorf("%w: onboarding role must be patient or doctor", ErrValidation)
	}
	if role == models.RoleDoctor && req.DoctorRegistrationNumber == "" {
		return nil, fmt.Errorf("%w: doctor onboarding requires a registration number", ErrValidation)
	}

	decision, err := s.engine.Authorize(ctx, subjectID, authz.OpUpdate, authz.Resource{
		Kind: authz.KindProfile,
		ID:   subjectID,
	})
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, denyError(decision)
	}

	current, err := s.store.GetProfileByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching profile for onboarding: %w", err)
	}
	if current.Role != models.RoleUnassigned {
		return nil, fmt.Errorf("%w: role already assigned (%s)", ErrValidation, current.Role)
	}

	params := store.UpdateProfileParams{ID: subjectID, Role: &role}
	if role == models.RoleDoctor {
		if req.Specialization != "" {
			params.Specialization = &req.Specialization
		}
		params.RegistrationNumber = &req.DoctorRegistrationNumber
	}

	profile, err := s.store.UpdateProfile(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("assigning onboarding role: %w", err)
	}

	log.Printf("[ProfileService] onboarded %s as %s", subjectID, role)
	resp := models.NewProfileResponse(profile)
	return &resp, nil
}

// ListDoctors returns the doctor directory. Readable by any authenticated
// caller regardless of role, including unassigned profiles.
func (s *ProfileService) ListDoctors(ctx context.Context, subjectID uuid.UUID, limit, offset int) ([]models.ProfileResponse, error) {
	decision, err := s.engine.Authorize(ctx, subjectID, authz.OpRead, authz.Resource{
		Kind:       authz.KindProfile,
		TargetRole: models.RoleDoctor,
	})
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, denyError(decision)
	}

	limit, offset = clampPage(limit, offset)
	doctors, err := s.store.ListProfilesByRole(ctx, models.RoleDoctor, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing doctors: %w", err)
	}

	resp := make([]models.ProfileResponse, 0, len(doctors))
	for i := range doctors {
		resp = append(resp, models.NewProfileResponse(&doctors[i]))
	}
	return resp, nil
}

// clampPage applies the defaults used by every listing endpoint.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
