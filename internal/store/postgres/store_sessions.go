package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"

	"healthchat-backend/internal/models"
	"healthchat-backend/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const sessionColumns = `id, owner_id, type, status, message_count, last_message_at, created_at, updated_at`

func scanSession(row pgx.Row) (*models.Session, error) {
	s := &models.Session{}
	err := row.Scan(
		&s.ID,
		&s.OwnerID,
		&s.Type,
		&s.Status,
		&s.MessageCount,
		&s.LastMessageAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// CreateSession inserts a new active session with a zero message count.
func (s *PostgresStore) CreateSession(ctx context.Context, arg store.CreateSessionParams) (*models.Session, error) {
	query := `
		INSERT INTO sessions (id, owner_id, type, status, message_count)
		VALUES ($1, $2, $3, 'active', 0)
		RETURNING ` + sessionColumns

	sess, err := scanSession(s.db.QueryRow(ctx, query, arg.ID, arg.OwnerID, arg.Type))
	if err != nil {
		log.Printf("ERROR [PostgresStore] CreateSession: failed for owner %s: %v", arg.OwnerID, err)
		return nil, fmt.Errorf("database error creating session: %w", err)
	}
	log.Printf("[PostgresStore] CreateSession: created session %s for owner %s", sess.ID, sess.OwnerID)
	return sess, nil
}

// GetSessionByID retrieves a session regardless of status; callers decide
// whether a soft-deleted session should look like ErrNotFound.
func (s *PostgresStore) GetSessionByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`

	sess, err := scanSession(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		log.Printf("ERROR [PostgresStore] GetSessionByID: failed for id %s: %v", id, err)
		return nil, fmt.Errorf("database error fetching session: %w", err)
	}
	return sess, nil
}

// ListSessionsByOwner returns the owner's non-deleted sessions, most
// recently active first.
func (s *PostgresStore) ListSessionsByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE owner_id = $1 AND status <> 'deleted'
		ORDER BY COALESCE(last_message_at, created_at) DESC
		LIMIT $2 OFFSET $3`

	rows, err := s.db.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("database error listing sessions: %w", err)
	}
	defer rows.Close()

	sessions := []models.Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("database error scanning session row: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error iterating session rows: %w", err)
	}
	return sessions, nil
}

// UpdateSessionStatus flips the lifecycle status (archive / soft delete).
func (s *PostgresStore) UpdateSessionStatus(ctx context.Context, id uuid.UUID, status models.SessionStatus) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE sessions SET status = $2, updated_at = now() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		log.Printf("ERROR [PostgresStore] UpdateSessionStatus: failed for id %s: %v", id, err)
		return fmt.Errorf("database error updating session status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// AppendMessage inserts the message and bumps the session counters in one
// transaction. The counter UPDATE runs first and takes the row lock, so
// concurrent appends on the same session serialize and message_count never
// diverges from the true row count. Seq is the post-increment counter value.
func (s *PostgresStore) AppendMessage(ctx context.Context, arg store.AppendMessageParams) (*models.Message, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("database error starting append transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	var seq int64
	err = tx.QueryRow(ctx, `
		UPDATE sessions
		SET message_count = message_count + 1,
		    last_message_at = now(),
		    updated_at = now()
		WHERE id = $1 AND status <> 'deleted'
		RETURNING message_count`,
		arg.SessionID,
	).Scan(&seq)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		log.Printf("ERROR [PostgresStore] AppendMessage: counter update failed for session %s: %v", arg.SessionID, err)
		return nil, fmt.Errorf("database error updating session counters: %w", err)
	}

	msg := &models.Message{}
	err = tx.QueryRow(ctx, `
		INSERT INTO messages (id, session_id, seq, type, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, session_id, seq, type, content, created_at`,
		arg.ID, arg.SessionID, seq, arg.Type, arg.Content,
	).Scan(&msg.ID, &msg.SessionID, &msg.Seq, &msg.Type, &msg.Content, &msg.CreatedAt)
	if err != nil {
		log.Printf("ERROR [PostgresStore] AppendMessage: insert failed for session %s: %v", arg.SessionID, err)
		return nil, fmt.Errorf("database error inserting message: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("database error committing message append: %w", err)
	}
	return msg, nil
}

// ListMessages returns a session's messages in creation order. A finite,
// restartable read via limit/offset, not a live stream.
func (s *PostgresStore) ListMessages(ctx context.Context, sessionID uuid.UUID, limit, offset int) ([]models.Message, error) {
	query := `
		SELECT id, session_id, seq, type, content, created_at
		FROM messages
		WHERE session_id = $1
		ORDER BY seq ASC
		LIMIT $2 OFFSET $3`

	rows, err := s.db.Query(ctx, query, sessionID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("database error listing messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		m := models.Message{}
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Seq, &m.Type, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("database error scanning message row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error iterating message rows: %w", err)
	}
	return messages, nil
}

// GetConversationContext returns the sealed context blob for a session.
func (s *PostgresStore) GetConversationContext(ctx context.Context, sessionID uuid.UUID) (*models.ConversationContext, error) {
	query := `SELECT session_id, data, updated_at FROM conversation_contexts WHERE session_id = $1`

	cc := &models.ConversationContext{}
	err := s.db.QueryRow(ctx, query, sessionID).Scan(&cc.SessionID, &cc.Data, &cc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		log.Printf("ERROR [PostgresStore] GetConversationContext: failed for session %s: %v", sessionID, err)
		return nil, fmt.Errorf("database error fetching conversation context: %w", err)
	}
	return cc, nil
}

// UpsertConversationContext writes the sealed context blob. The primary key
// on session_id enforces the at-most-one-per-session constraint.
func (s *PostgresStore) UpsertConversationContext(ctx context.Context, sessionID uuid.UUID, data []byte) error {
	query := `
		INSERT INTO conversation_contexts (session_id, data)
		VALUES ($1, $2)
		ON CONFLICT (session_id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`

	if _, err := s.db.Exec(ctx, query, sessionID, data); err != nil {
		log.Printf("ERROR [PostgresStore] UpsertConversationContext: failed for session %s: %v", sessionID, err)
		return fmt.Errorf("database error upserting conversation context: %w", err)
	}
	return nil
}
