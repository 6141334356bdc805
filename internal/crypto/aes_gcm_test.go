package crypto

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSealer(t *testing.T) *Sealer {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	s, err := NewSealer(key)
	require.NoError(t, err)
	return s
}

func TestSealOpenRoundTrip(t *testing.T) {
	s := newTestSealer(t)
	plaintext := []byte(`{"topics":["hypertension"],"medical_context":"summary"}`)

	sealed, err := s.Seal(plaintext)
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "hypertension")

	opened, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
}

func TestSealProducesUniqueCiphertexts(t *testing.T) {
	s := newTestSealer(t)
	plaintext := []byte("same input")

	a, err := s.Seal(plaintext)
	require.NoError(t, err)
	b, err := s.Seal(plaintext)
	require.NoError(t, err)
	// Random nonces mean identical plaintexts never repeat on the wire.
	assert.NotEqual(t, a, b)
}

func TestOpenRejectsTampering(t *testing.T) {
	s := newTestSealer(t)

	sealed, err := s.Seal([]byte("sensitive"))
	require.NoError(t, err)

	sealed[len(sealed)-1] ^= 0xff
	_, err = s.Open(sealed)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestOpenRejectsShortInput(t *testing.T) {
	s := newTestSealer(t)

	_, err := s.Open([]byte{0x01, 0x02})
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestOpenWithWrongKey(t *testing.T) {
	a := newTestSealer(t)
	b := newTestSealer(t)

	sealed, err := a.Seal([]byte("secret"))
	require.NoError(t, err)

	_, err = b.Open(sealed)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestNewSealerRejectsBadKeySize(t *testing.T) {
	_, err := NewSealer([]byte("short"))
	assert.ErrorIs(t, err, ErrInvalidKeySize)
}
