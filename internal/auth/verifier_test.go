package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func signToken(t *testing.T, secret string, claims jwt.Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestHS256VerifyValidToken(t *testing.T) {
	v := NewHS256Verifier(testSecret)
	subject := uuid.New()
	expiry := time.Now().Add(time.Hour)

	raw := signToken(t, testSecret, devClaims{
		Email: "pat@example.com",
		Roles: []string{"patient"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	})

	id, err := v.Verify(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, subject, id.SubjectID)
	assert.Equal(t, "pat@example.com", id.Email)
	assert.Equal(t, []string{"patient"}, id.ProviderRoles)
	assert.WithinDuration(t, expiry, id.ExpiresAt, time.Second)
}

func TestHS256VerifyRejections(t *testing.T) {
	v := NewHS256Verifier(testSecret)
	subject := uuid.New().String()

	expired := signToken(t, testSecret, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})
	wrongSecret := signToken(t, "some-other-secret", jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	badSubject := signToken(t, testSecret, jwt.RegisteredClaims{
		Subject:   "not-a-uuid",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject: subject,
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := []struct {
		name string
		raw  string
	}{
		{"expired", expired},
		{"wrong secret", wrongSecret},
		{"non-uuid subject", badSubject},
		{"alg none", noneToken},
		{"malformed", "not.a.jwt"},
		{"empty", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tc.raw)
			assert.ErrorIs(t, err, ErrUnauthenticated)
		})
	}
}
