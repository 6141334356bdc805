package services

import (
	"context"
	"testing"
	"time"

	"healthchat-backend/internal/events"
	"healthchat-backend/internal/identity"
	"healthchat-backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newAuthStack wires the embedded provider to the bridge the same way dev
// mode does, so signup provisions a profile synchronously.
func newAuthStack(env *testEnv) *AuthService {
	bridge := events.NewBridge(env.store)
	provider := identity.NewDevProvider("test-secret", time.Hour,
		func(ctx context.Context, id identity.Identity) error {
			return bridge.HandleIdentityCreated(ctx, models.IdentityCreatedRequest{
				ID:        id.ID,
				Email:     id.Email,
				CreatedAt: id.CreatedAt,
				Metadata:  id.Metadata,
			})
		})
	return NewAuthService(provider, env.store)
}

func TestSignupProvisionsProfile(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthStack(env)

	resp, err := svc.Signup(context.Background(), models.SignupRequest{
		Email:                    "Sarah.Smith@Example.com",
		Password:                 "correct horse battery staple",
		Role:                     "doctor",
		Name:                     "Sarah",
		Surname:                  "Smith",
		Specialization:           "cardiology",
		DoctorRegistrationNumber: "MD-12345",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	// Email is normalized before it reaches the provider.
	assert.Equal(t, "sarah.smith@example.com", resp.Profile.Email)
	assert.Equal(t, models.RoleDoctor, resp.Profile.Role)
	assert.Equal(t, "Sarah", resp.Profile.Name)
	require.NotNil(t, resp.Profile.Specialization)
	assert.Equal(t, "cardiology", *resp.Profile.Specialization)
}

func TestSignupValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthStack(env)

	cases := []struct {
		name string
		req  models.SignupRequest
	}{
		{"missing email", models.SignupRequest{Password: "pw"}},
		{"missing password", models.SignupRequest{Email: "a@example.com"}},
		{"unrecognized role", models.SignupRequest{Email: "a@example.com", Password: "pw", Role: "superuser"}},
		{"admin self-signup", models.SignupRequest{Email: "a@example.com", Password: "pw", Role: "admin"}},
		{"doctor without registration", models.SignupRequest{Email: "a@example.com", Password: "pw", Role: "doctor"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Signup(context.Background(), tc.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthStack(env)

	req := models.SignupRequest{Email: "dup@example.com", Password: "pw1", Role: "patient"}
	_, err := svc.Signup(context.Background(), req)
	require.NoError(t, err)

	req.Password = "pw2"
	_, err = svc.Signup(context.Background(), req)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSignupWithoutRoleIsUnassigned(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthStack(env)

	resp, err := svc.Signup(context.Background(), models.SignupRequest{
		Email:    "newcomer@example.com",
		Password: "pw",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUnassigned, resp.Profile.Role)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthStack(env)

	_, err := svc.Signup(context.Background(), models.SignupRequest{
		Email:    "pat@example.com",
		Password: "open sesame",
		Role:     "patient",
	})
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "pat@example.com",
		Password: "open sesame",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, models.RolePatient, resp.Profile.Role)

	// Wrong password and unknown email fail identically.
	_, err = svc.Login(context.Background(), models.LoginRequest{
		Email:    "pat@example.com",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, identity.ErrBadCredentials)

	_, err = svc.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	assert.ErrorIs(t, err, identity.ErrBadCredentials)
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	svc := newAuthStack(env)
	patient := env.seedProfile(t, models.RolePatient)

	profile, err := svc.Me(context.Background(), patient)
	require.NoError(t, err)
	assert.Equal(t, patient, profile.ID)

	_, err = svc.Me(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
