// Package identity wraps the external managed identity provider. The
// provider owns credentials end to end: password hashing, resets, token
// issuance. This service only ever sees the resulting bearer tokens and the
// identity-created events.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"healthchat-backend/internal/models"

	"github.com/google/uuid"
)

var (
	// ErrEmailTaken is returned when the provider already has an identity
	// for the email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrBadCredentials is returned on failed sign-in.
	ErrBadCredentials = errors.New("invalid email or password")
)

// SignupParams is everything the provider needs to create an identity.
// Metadata is stored verbatim by the provider and echoed back in the
// identity-created event.
type SignupParams struct {
	Email    string
	Password string
	Metadata models.IdentityMetadata
}

// Identity is the provider-side record for a created identity.
type Identity struct {
	ID        uuid.UUID
	Email     string
	CreatedAt time.Time
	Metadata  models.IdentityMetadata
}

// Provider is the outbound interface to the identity service.
type Provider interface {
	SignUp(ctx context.Context, params SignupParams) (*Identity, string, error)
	SignIn(ctx context.Context, email, password string) (string, error)
}

// --- HTTP provider (hosted identity service) ---

// HTTPProvider calls a hosted identity service over HTTP.
type HTTPProvider struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPProvider constructs a client for the hosted provider.
func NewHTTPProvider(baseURL string) *HTTPProvider {
	return &HTTPProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type providerAuthResponse struct {
	AccessToken string `json:"access_token"`
	User        struct {
		ID        uuid.UUID               `json:"id"`
		Email     string                  `json:"email"`
		CreatedAt time.Time               `json:"created_at"`
		Metadata  models.IdentityMetadata `json:"user_metadata"`
	} `json:"user"`
}

func (p *HTTPProvider) SignUp(ctx context.Context, params SignupParams) (*Identity, string, error) {
	payload := map[string]interface{}{
		"email":    params.Email,
		"password": params.Password,
		"data":     params.Metadata,
	}

	var resp providerAuthResponse
	status, err := p.doJSON(ctx, http.MethodPost, "/signup", payload, &resp)
	if err != nil {
		return nil, "", err
	}
	switch {
	case status == http.StatusConflict || status == http.StatusUnprocessableEntity:
		return nil, "", ErrEmailTaken
	case status >= 400:
		return nil, "", fmt.Errorf("identity provider signup failed with status %d", status)
	}

	id := &Identity{
		ID:        resp.User.ID,
		Email:     resp.User.Email,
		CreatedAt: resp.User.CreatedAt,
		Metadata:  resp.User.Metadata,
	}
	return id, resp.AccessToken, nil
}

func (p *HTTPProvider) SignIn(ctx context.Context, email, password string) (string, error) {
	payload := map[string]string{"email": email, "password": password}

	var resp providerAuthResponse
	status, err := p.doJSON(ctx, http.MethodPost, "/token?grant_type=password", payload, &resp)
	if err != nil {
		return "", err
	}
	if status == http.StatusBadRequest || status == http.StatusUnauthorized {
		return "", ErrBadCredentials
	}
	if status >= 400 {
		return "", fmt.Errorf("identity provider sign-in failed with status %d", status)
	}
	return resp.AccessToken, nil
}

func (p *HTTPProvider) doJSON(ctx context.Context, method, path string, payload, out interface{}) (int, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, fmt.Errorf("marshaling provider request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("building provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("calling identity provider: %w", err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 400 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decoding provider response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
