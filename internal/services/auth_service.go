package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"healthchat-backend/internal/identity"
	"healthchat-backend/internal/models"
	"healthchat-backend/internal/store"

	"github.com/google/uuid"
)

// profileFetchAttempts bounds the retry-on-miss loop after signup. With a
// hosted provider the identity-created event arrives asynchronously, so the
// profile may lag the identity by a moment.
const (
	profileFetchAttempts = 5
	profileFetchBackoff  = 100 * time.Millisecond
)

// AuthService fronts the identity provider for signup and login and
// resolves the caller's own profile.
type AuthService struct {
	provider identity.Provider
	store    store.Store
}

func NewAuthService(provider identity.Provider, s store.Store) *AuthService {
	return &AuthService{provider: provider, store: s}
}

// Signup creates an identity with the provider and waits for the bridge to
// provision the matching profile. Credentials never touch this service's
// storage; the provider owns them.
func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: email and password cannot be empty", ErrValidation)
	}

	role := models.RoleUnassigned
	if req.Role != "" {
		r, ok := models.ParseRole(req.Role)
		if !ok {
			return nil, fmt.Errorf("%w: unrecognized role %q", ErrValidation, req.Role)
		}
		if r == models.RoleAdmin {
			// Admins are promoted by other admins, never self-declared.
			return nil, fmt.Errorf("%w: cannot sign up as admin", ErrValidation)
		}
		role = r
	}
	if role == models.RoleDoctor && req.DoctorRegistrationNumber == "" {
		return nil, fmt.Errorf("%w: doctor signup requires a registration number", ErrValidation)
	}

	params := identity.SignupParams{
		Email:    email,
		Password: req.Password,
		Metadata: models.IdentityMetadata{
			Role:                     string(role),
			Name:                     req.Name,
			Surname:                  req.Surname,
			Phone:                    req.Phone,
			Specialization:           req.Specialization,
			DoctorRegistrationNumber: req.DoctorRegistrationNumber,
		},
	}

	id, token, err := s.provider.SignUp(ctx, params)
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			return nil, fmt.Errorf("%w: email already registered", ErrValidation)
		}
		log.Printf("[AuthService] provider signup failed for %s: %v", email, err)
		return nil, fmt.Errorf("identity provider signup: %w", err)
	}

	profile, err := s.fetchProfileWithRetry(ctx, id.ID)
	if err != nil {
		log.Printf("[AuthService] profile for identity %s not visible after signup: %v", id.ID, err)
		return nil, err
	}

	log.Printf("[AuthService] signed up %s as %s (identity %s)", email, profile.Role, id.ID)
	return &models.AuthResponse{
		AccessToken: token,
		Profile:     models.NewProfileResponse(profile),
	}, nil
}

// Login exchanges credentials for a provider token and returns it with the
// caller's profile.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		return nil, identity.ErrBadCredentials
	}

	token, err := s.provider.SignIn(ctx, email, req.Password)
	if err != nil {
		// Pass ErrBadCredentials through untouched; it deliberately does
		// not reveal whether the email exists.
		return nil, err
	}

	profile, err := s.store.GetProfileByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Identity exists but the bridge has not provisioned yet.
			log.Printf("[AuthService] login for %s succeeded but profile is missing", email)
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching profile for login: %w", err)
	}

	return &models.AuthResponse{
		AccessToken: token,
		Profile:     models.NewProfileResponse(profile),
	}, nil
}

// Me returns the caller's own profile.
func (s *AuthService) Me(ctx context.Context, subjectID uuid.UUID) (*models.ProfileResponse, error) {
	profile, err := s.store.GetProfileByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	resp := models.NewProfileResponse(profile)
	return &resp, nil
}

// fetchProfileWithRetry polls for the provisioned profile. The bridge may
// run asynchronously, so an immediate miss is retried rather than failed.
func (s *AuthService) fetchProfileWithRetry(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var lastErr error
	for attempt := 0; attempt < profileFetchAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(profileFetchBackoff):
			}
		}

		profile, err := s.store.GetProfileByID(ctx, id)
		if err == nil {
			return profile, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("fetching provisioned profile: %w", err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("profile for identity %s not provisioned yet: %w", id, lastErr)
}
