package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"healthchat-backend/internal/models"
	"healthchat-backend/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSession(t *testing.T, m *MemoryStore) (uuid.UUID, uuid.UUID) {
	t.Helper()

	ownerID := uuid.New()
	_, err := m.UpsertProfile(context.Background(), store.UpsertProfileParams{
		ID:    ownerID,
		Email: fmt.Sprintf("%s@example.com", ownerID),
		Role:  models.RolePatient,
	})
	require.NoError(t, err)

	sess, err := m.CreateSession(context.Background(), store.CreateSessionParams{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Type:    models.SessionTypePatient,
	})
	require.NoError(t, err)
	return ownerID, sess.ID
}

// TestAppendMessageConcurrent hammers one session from many goroutines and
// checks that the counter and the sequence numbers stay consistent: no gaps,
// no duplicates, count equal to the number of appends.
func TestAppendMessageConcurrent(t *testing.T) {
	m := NewMemoryStore()
	_, sessionID := seedSession(t, m)

	const n = 200
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := m.AppendMessage(context.Background(), store.AppendMessageParams{
				ID:        uuid.New(),
				SessionID: sessionID,
				Type:      models.MessageTypeUser,
				Content:   fmt.Sprintf("msg %d", i),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	sess, err := m.GetSessionByID(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, int64(n), sess.MessageCount)
	require.NotNil(t, sess.LastMessageAt)

	msgs, err := m.ListMessages(context.Background(), sessionID, 0, 0)
	require.NoError(t, err)
	require.Len(t, msgs, n)

	seen := make(map[int64]bool, n)
	for _, msg := range msgs {
		assert.False(t, seen[msg.Seq], "duplicate seq %d", msg.Seq)
		seen[msg.Seq] = true
		assert.GreaterOrEqual(t, msg.Seq, int64(1))
		assert.LessOrEqual(t, msg.Seq, int64(n))
	}
}

func TestAppendMessageToDeletedSession(t *testing.T) {
	m := NewMemoryStore()
	_, sessionID := seedSession(t, m)

	require.NoError(t, m.UpdateSessionStatus(context.Background(), sessionID, models.SessionStatusDeleted))

	_, err := m.AppendMessage(context.Background(), store.AppendMessageParams{
		ID:        uuid.New(),
		SessionID: sessionID,
		Type:      models.MessageTypeUser,
		Content:   "too late",
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListSessionsExcludesDeleted(t *testing.T) {
	m := NewMemoryStore()
	ownerID, first := seedSession(t, m)

	second, err := m.CreateSession(context.Background(), store.CreateSessionParams{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Type:    models.SessionTypePatient,
	})
	require.NoError(t, err)

	require.NoError(t, m.UpdateSessionStatus(context.Background(), second.ID, models.SessionStatusDeleted))

	sessions, err := m.ListSessionsByOwner(context.Background(), ownerID, 0, 0)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, first, sessions[0].ID)
}

func TestUpsertProfileIgnoresDuplicateID(t *testing.T) {
	m := NewMemoryStore()
	id := uuid.New()

	created, err := m.UpsertProfile(context.Background(), store.UpsertProfileParams{
		ID: id, Email: "a@example.com", Role: models.RolePatient, Name: "First",
	})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = m.UpsertProfile(context.Background(), store.UpsertProfileParams{
		ID: id, Email: "a@example.com", Role: models.RoleAdmin, Name: "Second",
	})
	require.NoError(t, err)
	assert.False(t, created)

	p, err := m.GetProfileByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "First", p.Name)
	assert.Equal(t, models.RolePatient, p.Role)
}

func TestDeleteProfileCascades(t *testing.T) {
	m := NewMemoryStore()
	ownerID, sessionID := seedSession(t, m)

	_, err := m.AppendMessage(context.Background(), store.AppendMessageParams{
		ID: uuid.New(), SessionID: sessionID, Type: models.MessageTypeUser, Content: "x",
	})
	require.NoError(t, err)
	require.NoError(t, m.UpsertConversationContext(context.Background(), sessionID, []byte("sealed")))

	article, err := m.CreateArticle(context.Background(), store.CreateArticleParams{
		ID: uuid.New(), AuthorID: ownerID, Title: "T", Content: "C",
	})
	require.NoError(t, err)

	require.NoError(t, m.DeleteProfile(context.Background(), ownerID))

	_, err = m.GetProfileByID(context.Background(), ownerID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = m.GetSessionByID(context.Background(), sessionID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = m.GetConversationContext(context.Background(), sessionID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = m.GetArticleByID(context.Background(), article.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
