package models

import (
	"time"

	"github.com/google/uuid"
)

// --- Request Structs ---

// SignupRequest defines the expected body for the signup endpoint.
// Credentials are forwarded to the identity provider; everything else lands
// in the Profile row via the identity-created event.
type SignupRequest struct {
	Email                    string `json:"email"`
	Password                 string `json:"password"`
	Role                     string `json:"role"`
	Name                     string `json:"name"`
	Surname                  string `json:"surname"`
	Phone                    string `json:"phone,omitempty"`
	Specialization           string `json:"specialization,omitempty"`
	DoctorRegistrationNumber string `json:"doctor_registration_number,omitempty"`
}

// LoginRequest defines the expected body for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest carries a partial self-update. Role is deliberately
// absent; role changes go through onboarding or the admin API.
type UpdateProfileRequest struct {
	Name           *string `json:"name,omitempty"`
	Surname        *string `json:"surname,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	Specialization *string `json:"specialization,omitempty"`
}

// OnboardingRequest moves an unassigned profile into patient or doctor.
type OnboardingRequest struct {
	Role                     string `json:"role"`
	Specialization           string `json:"specialization,omitempty"`
	DoctorRegistrationNumber string `json:"doctor_registration_number,omitempty"`
}

// UpdateRoleRequest is the admin role-change body.
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// CreateSessionRequest starts a new chat session. Type may be omitted, in
// which case it defaults from the caller's role.
type CreateSessionRequest struct {
	Type string `json:"type,omitempty"`
}

// AppendMessageRequest adds one turn to a session. Type defaults to "user".
type AppendMessageRequest struct {
	Content string `json:"content"`
	Type    string `json:"type,omitempty"`
}

// CreateArticleRequest creates a new draft article.
type CreateArticleRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// UpdateArticleRequest carries a partial article update.
type UpdateArticleRequest struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
	Status  *string `json:"status,omitempty"`
}

// IdentityCreatedRequest is the webhook body delivered by the identity
// provider when a new identity is created. Metadata keys mirror the signup
// fields the provider stores verbatim.
type IdentityCreatedRequest struct {
	ID        uuid.UUID        `json:"id"`
	Email     string           `json:"email"`
	CreatedAt time.Time        `json:"created_at"`
	Metadata  IdentityMetadata `json:"metadata"`
}

// IdentityMetadata is the free-form profile data attached to an identity.
type IdentityMetadata struct {
	Role                     string `json:"role,omitempty"`
	Name                     string `json:"name,omitempty"`
	Surname                  string `json:"surname,omitempty"`
	Phone                    string `json:"phone,omitempty"`
	Specialization           string `json:"specialization,omitempty"`
	DoctorRegistrationNumber string `json:"doctor_registration_number,omitempty"`
}

// ConversationContextData is the engine-maintained summarization payload.
// It round-trips through the sealed blob in the conversation_contexts row.
type ConversationContextData struct {
	Topics         []string          `json:"topics,omitempty"`
	Preferences    map[string]string `json:"preferences,omitempty"`
	MedicalContext string            `json:"medical_context,omitempty"`
}

// --- Response Structs ---

// ProfileResponse is the Profile shape returned by the API.
type ProfileResponse struct {
	ID                 uuid.UUID `json:"id"`
	Email              string    `json:"email"`
	Role               Role      `json:"role"`
	Name               string    `json:"name"`
	Surname            string    `json:"surname"`
	Phone              *string   `json:"phone,omitempty"`
	Specialization     *string   `json:"specialization,omitempty"`
	RegistrationNumber *string   `json:"registration_number,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// NewProfileResponse maps a DB Profile to its API shape.
func NewProfileResponse(p *Profile) ProfileResponse {
	return ProfileResponse{
		ID:                 p.ID,
		Email:              p.Email,
		Role:               p.Role,
		Name:               p.Name,
		Surname:            p.Surname,
		Phone:              p.Phone,
		Specialization:     p.Specialization,
		RegistrationNumber: p.RegistrationNumber,
		CreatedAt:          p.CreatedAt,
	}
}

// AuthResponse is returned on successful signup or login.
type AuthResponse struct {
	AccessToken string          `json:"access_token"`
	Profile     ProfileResponse `json:"profile"`
}

// SessionResponse is the Session shape returned by the API.
type SessionResponse struct {
	ID            uuid.UUID     `json:"id"`
	OwnerID       uuid.UUID     `json:"owner_id"`
	Type          SessionType   `json:"type"`
	Status        SessionStatus `json:"status"`
	MessageCount  int64         `json:"message_count"`
	LastMessageAt *time.Time    `json:"last_message_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// NewSessionResponse maps a DB Session to its API shape.
func NewSessionResponse(s *Session) SessionResponse {
	return SessionResponse{
		ID:            s.ID,
		OwnerID:       s.OwnerID,
		Type:          s.Type,
		Status:        s.Status,
		MessageCount:  s.MessageCount,
		LastMessageAt: s.LastMessageAt,
		CreatedAt:     s.CreatedAt,
	}
}

// MessageResponse is the Message shape returned by the API.
type MessageResponse struct {
	ID        uuid.UUID   `json:"id"`
	SessionID uuid.UUID   `json:"session_id"`
	Seq       int64       `json:"seq"`
	Type      MessageType `json:"type"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}

// ArticleResponse is the Article shape returned by the API.
type ArticleResponse struct {
	ID        uuid.UUID     `json:"id"`
	AuthorID  uuid.UUID     `json:"author_id"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	Status    ArticleStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// ErrorResponse defines the standard structure for API errors.
type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}
