package services

import (
	"context"
	"testing"

	"healthchat-backend/internal/authz"
	"healthchat-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminDirectoryRequiresAdminRole(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAdminService(env.store, env.engine)
	admin := env.seedProfile(t, models.RoleAdmin)
	patient := env.seedProfile(t, models.RolePatient)
	doctor := env.seedProfile(t, models.RoleDoctor)

	profiles, err := svc.ListProfiles(context.Background(), admin, 0, 0)
	require.NoError(t, err)
	assert.Len(t, profiles, 3)

	_, err = svc.ListProfiles(context.Background(), patient, 0, 0)
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, string(authz.ReasonRoleInsufficient), DenyReason(err))

	_, err = svc.ListProfiles(context.Background(), doctor, 0, 0)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAdminUpdateRole(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAdminService(env.store, env.engine)
	admin := env.seedProfile(t, models.RoleAdmin)
	target := env.seedProfile(t, models.RoleUnassigned)

	updated, err := svc.UpdateRole(context.Background(), admin, target, models.UpdateRoleRequest{Role: "doctor"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleDoctor, updated.Role)

	_, err = svc.UpdateRole(context.Background(), admin, target, models.UpdateRoleRequest{Role: "wizard"})
	assert.ErrorIs(t, err, ErrValidation)

	// A non-admin cannot change roles, not even their own.
	_, err = svc.UpdateRole(context.Background(), target, target, models.UpdateRoleRequest{Role: "admin"})
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, string(authz.ReasonRoleInsufficient), DenyReason(err))
}

func TestAdminDeleteProfileCascades(t *testing.T) {
	env := newTestEnv(t)
	adminSvc := NewAdminService(env.store, env.engine)
	chatSvc := NewChatService(env.store, env.engine, env.sealer)
	admin := env.seedProfile(t, models.RoleAdmin)
	target := env.seedProfile(t, models.RolePatient)

	sess, err := chatSvc.CreateSession(context.Background(), target, models.CreateSessionRequest{})
	require.NoError(t, err)
	_, err = chatSvc.AppendMessage(context.Background(), target, sess.ID, models.AppendMessageRequest{Content: "hello"})
	require.NoError(t, err)
	require.NoError(t, chatSvc.PutConversationContext(context.Background(), target, sess.ID, models.ConversationContextData{
		Topics: []string{"allergies"},
	}))

	// A patient cannot hard-delete, not even their own account.
	err = adminSvc.DeleteProfile(context.Background(), target, target)
	require.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, adminSvc.DeleteProfile(context.Background(), admin, target))

	// The profile and everything hanging off it is physically gone.
	_, err = adminSvc.GetProfile(context.Background(), admin, target)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = chatSvc.GetSession(context.Background(), admin, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.store.GetConversationContext(context.Background(), sess.ID)
	assert.Error(t, err)

	// Deleting twice reports not found.
	err = adminSvc.DeleteProfile(context.Background(), admin, target)
	assert.ErrorIs(t, err, ErrNotFound)
}
