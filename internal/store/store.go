package store

import (
	"context"
	"errors"

	"healthchat-backend/internal/models"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a specific record is not found.
var ErrNotFound = errors.New("record not found")

// UpsertProfileParams provisions a profile for a newly created identity.
// The ID comes from the identity provider and is the conflict key.
type UpsertProfileParams struct {
	ID                 uuid.UUID
	Email              string
	Role               models.Role
	Name               string
	Surname            string
	Phone              *string
	Specialization     *string
	RegistrationNumber *string
}

// UpdateProfileParams carries a partial profile update. Nil pointers leave
// the corresponding column untouched.
type UpdateProfileParams struct {
	ID                 uuid.UUID
	Role               *models.Role
	Name               *string
	Surname            *string
	Phone              *string
	Specialization     *string
	RegistrationNumber *string
}

// CreateSessionParams creates a chat session for its owner.
type CreateSessionParams struct {
	ID      uuid.UUID
	OwnerID uuid.UUID
	Type    models.SessionType
}

// AppendMessageParams inserts one message turn into a session.
type AppendMessageParams struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Type      models.MessageType
	Content   string
}

// CreateArticleParams creates a new article (always starts as draft).
type CreateArticleParams struct {
	ID       uuid.UUID
	AuthorID uuid.UUID
	Title    string
	Content  string
}

// UpdateArticleParams carries a partial article update.
type UpdateArticleParams struct {
	ID      uuid.UUID
	Title   *string
	Content *string
	Status  *models.ArticleStatus
}

// Store defines the persistence interface for the authorization core.
// Two implementations exist: postgres (production) and memory (dev + tests).
type Store interface {
	// Profile operations.
	//
	// UpsertProfile is the Identity Event Bridge write: insert-if-absent
	// keyed on ID. It reports whether a row was created so duplicate event
	// delivery can be logged as a no-op rather than surfaced as an error.
	UpsertProfile(ctx context.Context, arg UpsertProfileParams) (created bool, err error)
	GetProfileByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, arg UpdateProfileParams) (*models.Profile, error)
	ListProfilesByRole(ctx context.Context, role models.Role, limit, offset int) ([]models.Profile, error)
	ListProfiles(ctx context.Context, limit, offset int) ([]models.Profile, error)
	// DeleteProfile hard-deletes the profile and cascades to its sessions,
	// their messages and conversation contexts, and its articles.
	DeleteProfile(ctx context.Context, id uuid.UUID) error

	// Session and message operations.
	CreateSession(ctx context.Context, arg CreateSessionParams) (*models.Session, error)
	GetSessionByID(ctx context.Context, id uuid.UUID) (*models.Session, error)
	ListSessionsByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.Session, error)
	UpdateSessionStatus(ctx context.Context, id uuid.UUID, status models.SessionStatus) error
	// AppendMessage atomically inserts the message row and bumps the
	// session's message_count/last_message_at. Returns ErrNotFound when the
	// session does not exist or is soft-deleted.
	AppendMessage(ctx context.Context, arg AppendMessageParams) (*models.Message, error)
	ListMessages(ctx context.Context, sessionID uuid.UUID, limit, offset int) ([]models.Message, error)

	// Conversation context operations (1:1 with sessions).
	GetConversationContext(ctx context.Context, sessionID uuid.UUID) (*models.ConversationContext, error)
	UpsertConversationContext(ctx context.Context, sessionID uuid.UUID, data []byte) error

	// Article operations.
	CreateArticle(ctx context.Context, arg CreateArticleParams) (*models.Article, error)
	GetArticleByID(ctx context.Context, id uuid.UUID) (*models.Article, error)
	ListArticlesByStatus(ctx context.Context, status models.ArticleStatus, limit, offset int) ([]models.Article, error)
	ListArticlesByAuthor(ctx context.Context, authorID uuid.UUID, limit, offset int) ([]models.Article, error)
	UpdateArticle(ctx context.Context, arg UpdateArticleParams) (*models.Article, error)
	DeleteArticle(ctx context.Context, id uuid.UUID) error
}
