package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrUnauthenticated covers every credential failure: missing, malformed,
// expired, bad signature, and signing material unavailable. An unverifiable
// token is never treated as valid.
var ErrUnauthenticated = errors.New("unauthenticated")

// Identity is the result of verifying a bearer credential.
// ProviderRoles are whatever role claims the identity provider embedded in
// the token. They are informational only: the authoritative role is always
// re-read from the profile store, because roles change after token issuance.
type Identity struct {
	SubjectID     uuid.UUID
	Email         string
	ProviderRoles []string
	ExpiresAt     time.Time
}

// Verifier validates an opaque bearer credential and extracts the subject
// identity. Verification may hit the network (JWKS fetch), so it takes a
// context.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*Identity, error)
}

// --- OIDC verifier (production) ---

// OIDCVerifier checks tokens against the external identity provider's
// published signing keys. oidc.RemoteKeySet caches the JWKS and refetches on
// unknown key IDs; a cold cache with the provider unreachable surfaces as a
// verification error, never a bypass.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier builds a verifier for the given issuer. jwksURL points at
// the provider's key endpoint; audience is the expected "aud" claim (empty
// disables the check for providers that do not set one).
func NewOIDCVerifier(ctx context.Context, issuerURL, jwksURL, audience string) *OIDCVerifier {
	keySet := oidc.NewRemoteKeySet(ctx, jwksURL)
	cfg := &oidc.Config{ClientID: audience}
	if audience == "" {
		cfg.SkipClientIDCheck = true
	}
	return &OIDCVerifier{
		verifier: oidc.NewVerifier(issuerURL, keySet, cfg),
	}
}

func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (*Identity, error) {
	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		log.Printf("[OIDCVerifier] token rejected: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	subjectID, err := uuid.Parse(token.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: subject is not a valid identity id", ErrUnauthenticated)
	}

	var claims struct {
		Email string   `json:"email"`
		Roles []string `json:"roles"`
	}
	if err := token.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: unreadable claims", ErrUnauthenticated)
	}

	return &Identity{
		SubjectID:     subjectID,
		Email:         claims.Email,
		ProviderRoles: claims.Roles,
		ExpiresAt:     token.Expiry,
	}, nil
}

// --- HS256 verifier (dev mode) ---

// devClaims is the claim set issued by the embedded dev identity provider.
type devClaims struct {
	Email string   `json:"email"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// HS256Verifier validates tokens signed with the shared dev secret. It only
// pairs with the embedded dev provider; production deployments configure the
// OIDC verifier instead.
type HS256Verifier struct {
	secret []byte
}

func NewHS256Verifier(secret string) *HS256Verifier {
	return &HS256Verifier{secret: []byte(secret)}
}

func (v *HS256Verifier) Verify(ctx context.Context, rawToken string) (*Identity, error) {
	claims := &devClaims{}
	token, err := jwt.ParseWithClaims(rawToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	subjectID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: subject is not a valid identity id", ErrUnauthenticated)
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	return &Identity{
		SubjectID:     subjectID,
		Email:         claims.Email,
		ProviderRoles: claims.Roles,
		ExpiresAt:     expiresAt,
	}, nil
}
