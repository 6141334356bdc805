package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"healthchat-backend/internal/models"
	"healthchat-backend/internal/store"

	"github.com/google/uuid"
)

// Compile-time check to ensure MemoryStore implements store.Store
var _ store.Store = (*MemoryStore)(nil)

// MemoryStore keeps all records in-process. It backs dev mode (no
// DATABASE_URL configured) and the service tests. One mutex guards
// everything, so the insert-plus-counter sequence in AppendMessage is
// atomic by construction.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]models.Profile
	byEmail  map[string]uuid.UUID
	sessions map[uuid.UUID]models.Session
	messages map[uuid.UUID][]models.Message
	contexts map[uuid.UUID]models.ConversationContext
	articles map[uuid.UUID]models.Article
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[uuid.UUID]models.Profile),
		byEmail:  make(map[string]uuid.UUID),
		sessions: make(map[uuid.UUID]models.Session),
		messages: make(map[uuid.UUID][]models.Message),
		contexts: make(map[uuid.UUID]models.ConversationContext),
		articles: make(map[uuid.UUID]models.Article),
	}
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// UpsertProfile inserts the profile if its ID is not taken yet. Duplicate
// delivery of the same identity-created event lands here as a no-op.
func (m *MemoryStore) UpsertProfile(ctx context.Context, arg store.UpsertProfileParams) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.profiles[arg.ID]; exists {
		return false, nil
	}

	now := time.Now().UTC()
	p := models.Profile{
		ID:                 arg.ID,
		Email:              arg.Email,
		Role:               arg.Role,
		Name:               arg.Name,
		Surname:            arg.Surname,
		Phone:              arg.Phone,
		Specialization:     arg.Specialization,
		RegistrationNumber: arg.RegistrationNumber,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	m.profiles[arg.ID] = p
	m.byEmail[strings.ToLower(arg.Email)] = arg.ID
	return true, nil
}

func (m *MemoryStore) GetProfileByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (m *MemoryStore) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, store.ErrNotFound
	}
	p := m.profiles[id]
	return &p, nil
}

func (m *MemoryStore) UpdateProfile(ctx context.Context, arg store.UpdateProfileParams) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[arg.ID]
	if !ok {
		return nil, store.ErrNotFound
	}

	if arg.Role != nil {
		p.Role = *arg.Role
	}
	if arg.Name != nil {
		p.Name = *arg.Name
	}
	if arg.Surname != nil {
		p.Surname = *arg.Surname
	}
	if arg.Phone != nil {
		p.Phone = arg.Phone
	}
	if arg.Specialization != nil {
		p.Specialization = arg.Specialization
	}
	if arg.RegistrationNumber != nil {
		p.RegistrationNumber = arg.RegistrationNumber
	}
	p.UpdatedAt = time.Now().UTC()
	m.profiles[arg.ID] = p
	return &p, nil
}

func (m *MemoryStore) ListProfilesByRole(ctx context.Context, role models.Role, limit, offset int) ([]models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	res := []models.Profile{}
	for _, p := range m.profiles {
		if p.Role == role {
			res = append(res, p)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return paginate(res, limit, offset), nil
}

func (m *MemoryStore) ListProfiles(ctx context.Context, limit, offset int) ([]models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	res := make([]models.Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		res = append(res, p)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return paginate(res, limit, offset), nil
}

// DeleteProfile hard-deletes the profile and everything hanging off it,
// mirroring the postgres ON DELETE CASCADE chain.
func (m *MemoryStore) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[id]
	if !ok {
		return store.ErrNotFound
	}
	delete(m.profiles, id)
	delete(m.byEmail, strings.ToLower(p.Email))

	for sid, sess := range m.sessions {
		if sess.OwnerID == id {
			delete(m.sessions, sid)
			delete(m.messages, sid)
			delete(m.contexts, sid)
		}
	}
	for aid, a := range m.articles {
		if a.AuthorID == id {
			delete(m.articles, aid)
		}
	}
	return nil
}

func (m *MemoryStore) CreateSession(ctx context.Context, arg store.CreateSessionParams) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	s := models.Session{
		ID:           arg.ID,
		OwnerID:      arg.OwnerID,
		Type:         arg.Type,
		Status:       models.SessionStatusActive,
		MessageCount: 0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.sessions[arg.ID] = s
	m.messages[arg.ID] = []models.Message{}
	return &s, nil
}

func (m *MemoryStore) GetSessionByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &s, nil
}

func (m *MemoryStore) ListSessionsByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	res := []models.Session{}
	for _, s := range m.sessions {
		if s.OwnerID == ownerID && s.Status != models.SessionStatusDeleted {
			res = append(res, s)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		ti, tj := res[i].CreatedAt, res[j].CreatedAt
		if res[i].LastMessageAt != nil {
			ti = *res[i].LastMessageAt
		}
		if res[j].LastMessageAt != nil {
			tj = *res[j].LastMessageAt
		}
		return ti.After(tj)
	})
	return paginate(res, limit, offset), nil
}

func (m *MemoryStore) UpdateSessionStatus(ctx context.Context, id uuid.UUID, status models.SessionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return store.ErrNotFound
	}
	s.Status = status
	s.UpdatedAt = time.Now().UTC()
	m.sessions[id] = s
	return nil
}

// AppendMessage performs the counter bump and the insert under one lock
// hold, matching the postgres transaction semantics.
func (m *MemoryStore) AppendMessage(ctx context.Context, arg store.AppendMessageParams) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[arg.SessionID]
	if !ok || s.Status == models.SessionStatusDeleted {
		return nil, store.ErrNotFound
	}

	now := time.Now().UTC()
	s.MessageCount++
	s.LastMessageAt = &now
	s.UpdatedAt = now
	m.sessions[arg.SessionID] = s

	msg := models.Message{
		ID:        arg.ID,
		SessionID: arg.SessionID,
		Seq:       s.MessageCount,
		Type:      arg.Type,
		Content:   arg.Content,
		CreatedAt: now,
	}
	m.messages[arg.SessionID] = append(m.messages[arg.SessionID], msg)
	return &msg, nil
}

func (m *MemoryStore) ListMessages(ctx context.Context, sessionID uuid.UUID, limit, offset int) ([]models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	msgs, ok := m.messages[sessionID]
	if !ok {
		return []models.Message{}, nil
	}
	res := make([]models.Message, len(msgs))
	copy(res, msgs)
	return paginate(res, limit, offset), nil
}

func (m *MemoryStore) GetConversationContext(ctx context.Context, sessionID uuid.UUID) (*models.ConversationContext, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cc, ok := m.contexts[sessionID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &cc, nil
}

func (m *MemoryStore) UpsertConversationContext(ctx context.Context, sessionID uuid.UUID, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.contexts[sessionID] = models.ConversationContext{
		SessionID: sessionID,
		Data:      data,
		UpdatedAt: time.Now().UTC(),
	}
	return nil
}

func (m *MemoryStore) CreateArticle(ctx context.Context, arg store.CreateArticleParams) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	a := models.Article{
		ID:        arg.ID,
		AuthorID:  arg.AuthorID,
		Title:     arg.Title,
		Content:   arg.Content,
		Status:    models.ArticleStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.articles[arg.ID] = a
	return &a, nil
}

func (m *MemoryStore) GetArticleByID(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.articles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

func (m *MemoryStore) ListArticlesByStatus(ctx context.Context, status models.ArticleStatus, limit, offset int) ([]models.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	res := []models.Article{}
	for _, a := range m.articles {
		if a.Status == status {
			res = append(res, a)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return paginate(res, limit, offset), nil
}

func (m *MemoryStore) ListArticlesByAuthor(ctx context.Context, authorID uuid.UUID, limit, offset int) ([]models.Article, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	res := []models.Article{}
	for _, a := range m.articles {
		if a.AuthorID == authorID {
			res = append(res, a)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return paginate(res, limit, offset), nil
}

func (m *MemoryStore) UpdateArticle(ctx context.Context, arg store.UpdateArticleParams) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.articles[arg.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if arg.Title != nil {
		a.Title = *arg.Title
	}
	if arg.Content != nil {
		a.Content = *arg.Content
	}
	if arg.Status != nil {
		a.Status = *arg.Status
	}
	a.UpdatedAt = time.Now().UTC()
	m.articles[arg.ID] = a
	return &a, nil
}

func (m *MemoryStore) DeleteArticle(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.articles[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.articles, id)
	return nil
}
