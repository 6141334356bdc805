package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"healthchat-backend/internal/authz"
	"healthchat-backend/internal/crypto"
	"healthchat-backend/internal/models"
	"healthchat-backend/internal/store"

	"github.com/google/uuid"
)

// ChatService owns session and message operations. Every call runs the
// policy engine before touching the store; the assistant-response pipeline
// itself is an external collaborator and never appears here.
type ChatService struct {
	store  store.Store
	engine *authz.Engine
	sealer *crypto.Sealer
}

func NewChatService(s store.Store, engine *authz.Engine, sealer *crypto.Sealer) *ChatService {
	return &ChatService{store: s, engine: engine, sealer: sealer}
}

// CreateSession starts a conversation owned by the caller. The session type
// defaults from the caller's role; an explicit type must match it (admins
// may pick either).
func (s *ChatService) CreateSession(ctx context.Context, subjectID uuid.UUID, req models.CreateSessionRequest) (*models.SessionResponse, error) {
	decision, err := s.engine.Authorize(ctx, subjectID, authz.OpCreate, authz.Resource{
		Kind:    authz.KindSession,
		OwnerID: subjectID,
	})
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, denyError(decision)
	}

	caller, err := s.store.GetProfileByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching caller profile: %w", err)
	}

	sessType, err := resolveSessionType(caller.Role, req.Type)
	if err != nil {
		return nil, err
	}

	sess, err := s.store.CreateSession(ctx, store.CreateSessionParams{
		ID:      uuid.New(),
		OwnerID: subjectID,
		Type:    sessType,
	})
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	log.Printf("[ChatService] created %s session %s for %s", sess.Type, sess.ID, subjectID)
	resp := models.NewSessionResponse(sess)
	return &resp, nil
}

func resolveSessionType(role models.Role, requested string) (models.SessionType, error) {
	var fromRole models.SessionType
	switch role {
	case models.RolePatient:
		fromRole = models.SessionTypePatient
	case models.RoleDoctor:
		fromRole = models.SessionTypeDoctor
	case models.RoleAdmin:
		// Admins have no natural session type; they must ask for one.
		fromRole = ""
	default:
		return "", fmt.Errorf("%w: complete onboarding before starting a chat", ErrValidation)
	}

	if requested == "" {
		if fromRole == "" {
			return "", fmt.Errorf("%w: session type is required", ErrValidation)
		}
		return fromRole, nil
	}

	t := models.SessionType(requested)
	if t != models.SessionTypePatient && t != models.SessionTypeDoctor {
		return "", fmt.Errorf("%w: unrecognized session type %q", ErrValidation, requested)
	}
	if fromRole != "" && t != fromRole {
		return "", fmt.Errorf("%w: session type %s does not match role %s", ErrValidation, t, role)
	}
	return t, nil
}

// GetSession returns a session the caller may read. Soft-deleted sessions
// look absent.
func (s *ChatService) GetSession(ctx context.Context, subjectID, sessionID uuid.UUID) (*models.SessionResponse, error) {
	sess, err := s.authorizeSession(ctx, subjectID, sessionID, authz.OpRead)
	if err != nil {
		return nil, err
	}
	resp := models.NewSessionResponse(sess)
	return &resp, nil
}

// ListSessions returns the owner's sessions. Callers list their own;
// admins may list anyone's by passing a different ownerID.
func (s *ChatService) ListSessions(ctx context.Context, subjectID, ownerID uuid.UUID, limit, offset int) ([]models.SessionResponse, error) {
	if ownerID == uuid.Nil {
		ownerID = subjectID
	}

	decision, err := s.engine.Authorize(ctx, subjectID, authz.OpRead, authz.Resource{
		Kind:    authz.KindSession,
		OwnerID: ownerID,
	})
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, denyError(decision)
	}

	limit, offset = clampPage(limit, offset)
	sessions, err := s.store.ListSessionsByOwner(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	resp := make([]models.SessionResponse, 0, len(sessions))
	for i := range sessions {
		resp = append(resp, models.NewSessionResponse(&sessions[i]))
	}
	return resp, nil
}

// AppendMessage adds one turn to a session. The store makes the insert and
// the counter update atomic; this layer enforces that only the owner (or an
// admin) may append, and that archived sessions stay read-only.
func (s *ChatService) AppendMessage(ctx context.Context, subjectID, sessionID uuid.UUID, req models.AppendMessageRequest) (*models.MessageResponse, error) {
	if req.Content == "" {
		return nil, fmt.Errorf("%w: message content cannot be empty", ErrValidation)
	}

	msgType := models.MessageTypeUser
	if req.Type != "" {
		t := models.MessageType(req.Type)
		if t != models.MessageTypeUser && t != models.MessageTypeAssistant && t != models.MessageTypeSystem {
			return nil, fmt.Errorf("%w: unrecognized message type %q", ErrValidation, req.Type)
		}
		msgType = t
	}

	sess, err := s.authorizeSession(ctx, subjectID, sessionID, authz.OpAppend)
	if err != nil {
		return nil, err
	}
	if sess.Status == models.SessionStatusArchived {
		return nil, fmt.Errorf("%w: session is archived", ErrValidation)
	}

	msg, err := s.store.AppendMessage(ctx, store.AppendMessageParams{
		ID:        uuid.New(),
		SessionID: sessionID,
		Type:      msgType,
		Content:   req.Content,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appending message: %w", err)
	}

	return &models.MessageResponse{
		ID:        msg.ID,
		SessionID: msg.SessionID,
		Seq:       msg.Seq,
		Type:      msg.Type,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}, nil
}

// ListMessages returns the session's messages in creation order.
func (s *ChatService) ListMessages(ctx context.Context, subjectID, sessionID uuid.UUID, limit, offset int) ([]models.MessageResponse, error) {
	if _, err := s.authorizeSession(ctx, subjectID, sessionID, authz.OpRead); err != nil {
		return nil, err
	}

	limit, offset = clampPage(limit, offset)
	messages, err := s.store.ListMessages(ctx, sessionID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}

	resp := make([]models.MessageResponse, 0, len(messages))
	for _, m := range messages {
		resp = append(resp, models.MessageResponse{
			ID:        m.ID,
			SessionID: m.SessionID,
			Seq:       m.Seq,
			Type:      m.Type,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return resp, nil
}

// ArchiveSession marks a session read-only.
func (s *ChatService) ArchiveSession(ctx context.Context, subjectID, sessionID uuid.UUID) error {
	if _, err := s.authorizeSession(ctx, subjectID, sessionID, authz.OpUpdate); err != nil {
		return err
	}
	return s.updateStatus(ctx, sessionID, models.SessionStatusArchived)
}

// DeleteSession soft-deletes a session. Messages stay in place; they are
// only purged when the owning profile is hard-deleted.
func (s *ChatService) DeleteSession(ctx context.Context, subjectID, sessionID uuid.UUID) error {
	if _, err := s.authorizeSession(ctx, subjectID, sessionID, authz.OpDelete); err != nil {
		return err
	}
	return s.updateStatus(ctx, sessionID, models.SessionStatusDeleted)
}

func (s *ChatService) updateStatus(ctx context.Context, sessionID uuid.UUID, status models.SessionStatus) error {
	if err := s.store.UpdateSessionStatus(ctx, sessionID, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("updating session status: %w", err)
	}
	return nil
}

// GetConversationContext unseals and returns the engine-maintained context
// for a session.
func (s *ChatService) GetConversationContext(ctx context.Context, subjectID, sessionID uuid.UUID) (*models.ConversationContextData, error) {
	sess, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	decision, err := s.engine.Authorize(ctx, subjectID, authz.OpRead, authz.Resource{
		Kind:    authz.KindConversationContext,
		ID:      sessionID,
		OwnerID: sess.OwnerID,
	})
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, denyError(decision)
	}

	cc, err := s.store.GetConversationContext(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching conversation context: %w", err)
	}

	plain, err := s.sealer.Open(cc.Data)
	if err != nil {
		return nil, fmt.Errorf("unsealing conversation context: %w", err)
	}

	data := &models.ConversationContextData{}
	if err := json.Unmarshal(plain, data); err != nil {
		return nil, fmt.Errorf("decoding conversation context: %w", err)
	}
	return data, nil
}

// PutConversationContext seals and stores the context blob. Called on
// behalf of the chat engine after it re-summarizes a session.
func (s *ChatService) PutConversationContext(ctx context.Context, subjectID, sessionID uuid.UUID, data models.ConversationContextData) error {
	sess, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return err
	}

	decision, err := s.engine.Authorize(ctx, subjectID, authz.OpUpdate, authz.Resource{
		Kind:    authz.KindConversationContext,
		ID:      sessionID,
		OwnerID: sess.OwnerID,
	})
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return denyError(decision)
	}

	plain, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encoding conversation context: %w", err)
	}
	sealed, err := s.sealer.Seal(plain)
	if err != nil {
		return fmt.Errorf("sealing conversation context: %w", err)
	}

	if err := s.store.UpsertConversationContext(ctx, sessionID, sealed); err != nil {
		return fmt.Errorf("storing conversation context: %w", err)
	}
	return nil
}

// authorizeSession resolves the one-hop ownership chain (session -> owner)
// and runs the engine. Soft-deleted sessions are reported as not found.
func (s *ChatService) authorizeSession(ctx context.Context, subjectID, sessionID uuid.UUID, op authz.Operation) (*models.Session, error) {
	sess, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	decision, err := s.engine.Authorize(ctx, subjectID, op, authz.Resource{
		Kind:    authz.KindSession,
		ID:      sessionID,
		OwnerID: sess.OwnerID,
	})
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, denyError(decision)
	}
	return sess, nil
}

func (s *ChatService) loadSession(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	sess, err := s.store.GetSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching session: %w", err)
	}
	if sess.Status == models.SessionStatusDeleted {
		return nil, ErrNotFound
	}
	return sess, nil
}
