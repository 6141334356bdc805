package services

import (
	"context"
	"testing"

	"healthchat-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateSelf(t *testing.T) {
	env := newTestEnv(t)
	svc := NewProfileService(env.store, env.engine)
	patient := env.seedProfile(t, models.RolePatient)

	name := "Jordan"
	phone := "+1-555-0100"
	updated, err := svc.UpdateSelf(context.Background(), patient, models.UpdateProfileRequest{
		Name:  &name,
		Phone: &phone,
	})
	require.NoError(t, err)
	assert.Equal(t, "Jordan", updated.Name)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, "+1-555-0100", *updated.Phone)
	// Untouched fields survive a partial update.
	assert.Equal(t, models.RolePatient, updated.Role)
}

func TestOnboardingAssignsRoleOnce(t *testing.T) {
	env := newTestEnv(t)
	svc := NewProfileService(env.store, env.engine)
	subject := env.seedProfile(t, models.RoleUnassigned)

	updated, err := svc.CompleteOnboarding(context.Background(), subject, models.OnboardingRequest{Role: "patient"})
	require.NoError(t, err)
	assert.Equal(t, models.RolePatient, updated.Role)

	// Onboarding is one-way; the second attempt fails even with the same role.
	_, err = svc.CompleteOnboarding(context.Background(), subject, models.OnboardingRequest{Role: "patient"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestOnboardingDoctorRequiresRegistration(t *testing.T) {
	env := newTestEnv(t)
	svc := NewProfileService(env.store, env.engine)
	subject := env.seedProfile(t, models.RoleUnassigned)

	_, err := svc.CompleteOnboarding(context.Background(), subject, models.OnboardingRequest{Role: "doctor"})
	require.ErrorIs(t, err, ErrValidation)

	updated, err := svc.CompleteOnboarding(context.Background(), subject, models.OnboardingRequest{
		Role:                     "doctor",
		Specialization:           "dermatology",
		DoctorRegistrationNumber: "MD-98765",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleDoctor, updated.Role)
	require.NotNil(t, updated.Specialization)
	assert.Equal(t, "dermatology", *updated.Specialization)
	require.NotNil(t, updated.RegistrationNumber)
	assert.Equal(t, "MD-98765", *updated.RegistrationNumber)
}

func TestOnboardingRejectsPrivilegedRoles(t *testing.T) {
	env := newTestEnv(t)
	svc := NewProfileService(env.store, env.engine)
	subject := env.seedProfile(t, models.RoleUnassigned)

	for _, role := range []string{"admin", "unassigned", "superuser", ""} {
		_, err := svc.CompleteOnboarding(context.Background(), subject, models.OnboardingRequest{Role: role})
		assert.ErrorIs(t, err, ErrValidation, "role %q must be rejected", role)
	}
}

func TestListDoctorsOpenToAllRoles(t *testing.T) {
	env := newTestEnv(t)
	svc := NewProfileService(env.store, env.engine)
	env.seedProfile(t, models.RoleDoctor)
	env.seedProfile(t, models.RoleDoctor)
	env.seedProfile(t, models.RolePatient)
	unassigned := env.seedProfile(t, models.RoleUnassigned)

	// A just-provisioned profile with no role yet can still browse doctors.
	doctors, err := svc.ListDoctors(context.Background(), unassigned, 0, 0)
	require.NoError(t, err)
	require.Len(t, doctors, 2)
	for _, d := range doctors {
		assert.Equal(t, models.RoleDoctor, d.Role)
	}
}
