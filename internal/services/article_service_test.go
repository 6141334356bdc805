package services

import (
	"context"
	"testing"

	"healthchat-backend/internal/authz"
	"healthchat-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateArticleRequiresDoctorOrAdmin(t *testing.T) {
	env := newTestEnv(t)
	svc := NewArticleService(env.store, env.engine)
	doctor := env.seedProfile(t, models.RoleDoctor)
	patient := env.seedProfile(t, models.RolePatient)
	admin := env.seedProfile(t, models.RoleAdmin)

	req := models.CreateArticleRequest{Title: "Managing Hypertension", Content: "Watch your salt intake."}

	article, err := svc.Create(context.Background(), doctor, req)
	require.NoError(t, err)
	assert.Equal(t, models.ArticleStatusDraft, article.Status)
	assert.Equal(t, doctor, article.AuthorID)

	_, err = svc.Create(context.Background(), admin, req)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), patient, req)
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, string(authz.ReasonRoleInsufficient), DenyReason(err))
}

func TestCreateArticleValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := NewArticleService(env.store, env.engine)
	doctor := env.seedProfile(t, models.RoleDoctor)

	_, err := svc.Create(context.Background(), doctor, models.CreateArticleRequest{Title: "no content"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(context.Background(), doctor, models.CreateArticleRequest{Content: "no title"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestArticleDraftVisibility(t *testing.T) {
	env := newTestEnv(t)
	svc := NewArticleService(env.store, env.engine)
	author := env.seedProfile(t, models.RoleDoctor)
	otherDoctor := env.seedProfile(t, models.RoleDoctor)
	patient := env.seedProfile(t, models.RolePatient)
	admin := env.seedProfile(t, models.RoleAdmin)

	draft, err := svc.Create(context.Background(), author, models.CreateArticleRequest{
		Title: "Draft", Content: "Work in progress.",
	})
	require.NoError(t, err)

	// Only the author and admins see a draft. Another doctor has the right
	// role but no authorship, so the draft stays hidden.
	_, err = svc.Get(context.Background(), author, draft.ID)
	require.NoError(t, err)
	_, err = svc.Get(context.Background(), admin, draft.ID)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), otherDoctor, draft.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Get(context.Background(), patient, draft.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestArticlePublishFlow(t *testing.T) {
	env := newTestEnv(t)
	svc := NewArticleService(env.store, env.engine)
	author := env.seedProfile(t, models.RoleDoctor)
	patient := env.seedProfile(t, models.RolePatient)

	draft, err := svc.Create(context.Background(), author, models.CreateArticleRequest{
		Title: "Sleep Hygiene", Content: "Keep a regular schedule.",
	})
	require.NoError(t, err)

	// Not listed while draft.
	published, err := svc.ListPublished(context.Background(), patient, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, published)

	status := "published"
	updated, err := svc.Update(context.Background(), author, draft.ID, models.UpdateArticleRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, models.ArticleStatusPublished, updated.Status)

	// Now any verified identity reads it.
	got, err := svc.Get(context.Background(), patient, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sleep Hygiene", got.Title)

	published, err = svc.ListPublished(context.Background(), patient, 0, 0)
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, draft.ID, published[0].ID)

	// Readers still cannot edit or delete it.
	title := "Defaced"
	_, err = svc.Update(context.Background(), patient, draft.ID, models.UpdateArticleRequest{Title: &title})
	assert.ErrorIs(t, err, ErrUnauthorized)
	err = svc.Delete(context.Background(), patient, draft.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestArticleUpdateValidatesStatus(t *testing.T) {
	env := newTestEnv(t)
	svc := NewArticleService(env.store, env.engine)
	author := env.seedProfile(t, models.RoleDoctor)

	draft, err := svc.Create(context.Background(), author, models.CreateArticleRequest{
		Title: "T", Content: "C",
	})
	require.NoError(t, err)

	bad := "retracted"
	_, err = svc.Update(context.Background(), author, draft.ID, models.UpdateArticleRequest{Status: &bad})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestArticleDeleteByAuthor(t *testing.T) {
	env := newTestEnv(t)
	svc := NewArticleService(env.store, env.engine)
	author := env.seedProfile(t, models.RoleDoctor)

	draft, err := svc.Create(context.Background(), author, models.CreateArticleRequest{
		Title: "Temp", Content: "To be removed.",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), author, draft.ID))

	_, err = svc.Get(context.Background(), author, draft.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	mine, err := svc.ListMine(context.Background(), author, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, mine)
}
