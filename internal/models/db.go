package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the coarse permission class assigned to a Profile.
// A freshly provisioned Profile stays "unassigned" until onboarding picks
// patient or doctor (or an admin promotes it).
type Role string

const (
	RolePatient    Role = "patient"
	RoleDoctor     Role = "doctor"
	RoleAdmin      Role = "admin"
	RoleUnassigned Role = "unassigned"
)

// ParseRole maps a raw role string to a known Role.
// Returns false for anything unrecognized (callers decide whether that is a
// validation error or a default to RoleUnassigned).
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RolePatient, RoleDoctor, RoleAdmin, RoleUnassigned:
		return Role(s), true
	}
	return "", false
}

// SessionType distinguishes patient-facing and doctor-facing conversations.
type SessionType string

const (
	SessionTypePatient SessionType = "patient"
	SessionTypeDoctor  SessionType = "doctor"
)

// SessionStatus is the lifecycle state of a chat session.
// Sessions are soft-deleted (status flip), never hard-removed except by
// cascade when the owning Profile is deleted.
type SessionStatus string

const (
	SessionStatusActive   SessionStatus = "active"
	SessionStatusArchived SessionStatus = "archived"
	SessionStatusDeleted  SessionStatus = "deleted"
)

// MessageType identifies who produced a message turn.
type MessageType string

const (
	MessageTypeUser      MessageType = "user"
	MessageTypeAssistant MessageType = "assistant"
	MessageTypeSystem    MessageType = "system"
)

// ArticleStatus is the publication state of an article.
type ArticleStatus string

const (
	ArticleStatusDraft     ArticleStatus = "draft"
	ArticleStatusPublished ArticleStatus = "published"
	ArticleStatusArchived  ArticleStatus = "archived"
)

// Profile is the application-side user record, linked 1:1 to an externally
// managed identity. The ID is issued by the identity provider and is
// immutable. The provider never owns the role - this row is the single
// source of truth for authorization decisions.
type Profile struct {
	ID                 uuid.UUID `db:"id"`
	Email              string    `db:"email"`
	Role               Role      `db:"role"`
	Name               string    `db:"name"`
	Surname            string    `db:"surname"`
	Phone              *string   `db:"phone"`
	Specialization     *string   `db:"specialization"`      // doctors only
	RegistrationNumber *string   `db:"registration_number"` // doctors only
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

// Session is one chat conversation owned by exactly one Profile.
// MessageCount is maintained atomically with message inserts and never
// decreases; LastMessageAt tracks the latest append.
type Session struct {
	ID            uuid.UUID     `db:"id"`
	OwnerID       uuid.UUID     `db:"owner_id"`
	Type          SessionType   `db:"type"`
	Status        SessionStatus `db:"status"`
	MessageCount  int64         `db:"message_count"`
	LastMessageAt *time.Time    `db:"last_message_at"`
	CreatedAt     time.Time     `db:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at"`
}

// Message is one immutable turn inside a Session. Seq is assigned from the
// session counter at insert time, so creation order and Seq order agree.
type Message struct {
	ID        uuid.UUID   `db:"id"`
	SessionID uuid.UUID   `db:"session_id"`
	Seq       int64       `db:"seq"`
	Type      MessageType `db:"type"`
	Content   string      `db:"content"`
	CreatedAt time.Time   `db:"created_at"`
}

// ConversationContext holds the chat engine's derived summarization state
// for a session (at most one row per session, enforced by the primary key).
// Data is the AES-GCM sealed JSON blob; the authorization core gates access
// to it but never interprets it.
type ConversationContext struct {
	SessionID uuid.UUID `db:"session_id"`
	Data      []byte    `db:"data"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Article is authored content. Published articles are readable by any
// verified identity; drafts only by their author or an admin.
type Article struct {
	ID        uuid.UUID     `db:"id"`
	AuthorID  uuid.UUID     `db:"author_id"`
	Title     string        `db:"title"`
	Content   string        `db:"content"`
	Status    ArticleStatus `db:"status"`
	CreatedAt time.Time     `db:"created_at"`
	UpdatedAt time.Time     `db:"updated_at"`
}
