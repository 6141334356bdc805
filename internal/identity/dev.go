package identity

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DevProvider is an embedded, in-memory identity provider so the service
// can run without a hosted one. It hashes passwords with bcrypt, issues
// HS256 tokens verifiable by auth.HS256Verifier, and delivers the
// identity-created event synchronously through the configured sink.
//
// It exists for development and tests only. Nothing outside of wiring code
// should depend on it.
type DevProvider struct {
	secret     []byte
	expiration time.Duration
	onCreated  func(ctx context.Context, id Identity) error

	mu    sync.Mutex
	users map[string]devUser // keyed by lowercase email
}

type devUser struct {
	identity     Identity
	passwordHash string
}

// NewDevProvider builds the embedded provider. onCreated is invoked once per
// new identity; it is the dev-mode stand-in for the provider's webhook
// delivery and is expected to be idempotent on the receiving side anyway.
func NewDevProvider(secret string, expiration time.Duration, onCreated func(ctx context.Context, id Identity) error) *DevProvider {
	return &DevProvider{
		secret:     []byte(secret),
		expiration: expiration,
		onCreated:  onCreated,
		users:      make(map[string]devUser),
	}
}

func (p *DevProvider) SignUp(ctx context.Context, params SignupParams) (*Identity, string, error) {
	email := strings.TrimSpace(strings.ToLower(params.Email))

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hashing password: %w", err)
	}

	p.mu.Lock()
	if _, exists := p.users[email]; exists {
		p.mu.Unlock()
		return nil, "", ErrEmailTaken
	}
	id := Identity{
		ID:        uuid.New(),
		Email:     email,
		CreatedAt: time.Now().UTC(),
		Metadata:  params.Metadata,
	}
	p.users[email] = devUser{identity: id, passwordHash: string(hash)}
	p.mu.Unlock()

	if p.onCreated != nil {
		if err := p.onCreated(ctx, id); err != nil {
			// The bridge retries are the delivery mechanism's concern; in
			// dev mode there is no redelivery, so surface the failure.
			return nil, "", fmt.Errorf("delivering identity-created event: %w", err)
		}
	}

	token, err := p.issueToken(id)
	if err != nil {
		return nil, "", err
	}
	log.Printf("[DevProvider] created identity %s (%s)", id.ID, id.Email)
	return &id, token, nil
}

func (p *DevProvider) SignIn(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	p.mu.Lock()
	u, ok := p.users[email]
	p.mu.Unlock()
	if !ok {
		return "", ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(password)); err != nil {
		return "", ErrBadCredentials
	}
	return p.issueToken(u.identity)
}

func (p *DevProvider) issueToken(id Identity) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   id.ID.String(),
		"email": id.Email,
		"iat":   jwt.NewNumericDate(now),
		"nbf":   jwt.NewNumericDate(now),
		"exp":   jwt.NewNumericDate(now.Add(p.expiration)),
		"iss":   "healthchat-dev-provider",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("signing dev token: %w", err)
	}
	return signed, nil
}
