package token

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func TestSignVerifyRoundTrip(t *testing.T) {
	key := newTestKey(t)
	codec := NewCodec(key, &key.PublicKey, "client-123")

	for _, ttl := range []time.Duration{time.Second, 30 * time.Minute, 24 * time.Hour} {
		expires := time.Now().Add(ttl).UnixMilli()

		signed, err := codec.Sign("alice", expires)
		require.NoError(t, err)
		require.NotEmpty(t, signed)

		claims, err := codec.Verify(signed)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.PrincipalID)
		assert.Equal(t, expires, claims.Expires)
	}
}

func TestVerifyDoesNotEnforceExpires(t *testing.T) {
	key := newTestKey(t)
	codec := NewCodec(key, &key.PublicKey, "client-123")

	expired := time.Now().Add(-time.Hour).UnixMilli()
	signed, err := codec.Sign("alice", expired)
	require.NoError(t, err)

	// Expiry is the caller's responsibility; the codec only checks the
	// signature and audience.
	claims, err := codec.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, expired, claims.Expires)
}

func TestVerifyAudienceMismatch(t *testing.T) {
	key := newTestKey(t)
	signer := NewCodec(key, &key.PublicKey, "client-123")
	verifier := NewCodec(key, &key.PublicKey, "other-client")

	signed, err := signer.Sign("alice", time.Now().Add(time.Hour).UnixMilli())
	require.NoError(t, err)

	_, err = verifier.Verify(signed)
	require.ErrorIs(t, err, ErrAudienceMismatch)
}

func TestVerifyWrongKey(t *testing.T) {
	signerKey := newTestKey(t)
	otherKey := newTestKey(t)

	signer := NewCodec(signerKey, &signerKey.PublicKey, "client-123")
	verifier := NewCodec(nil, &otherKey.PublicKey, "client-123")

	signed, err := signer.Sign("alice", time.Now().Add(time.Hour).UnixMilli())
	require.NoError(t, err)

	_, err = verifier.Verify(signed)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyMalformed(t *testing.T) {
	key := newTestKey(t)
	codec := NewCodec(key, &key.PublicKey, "client-123")

	for _, tokenString := range []string{"", "garbage", "a.b", "a.b.c"} {
		_, err := codec.Verify(tokenString)
		assert.ErrorIs(t, err, ErrMalformed, "token %q", tokenString)
	}
}

func TestSignWithoutPrivateKey(t *testing.T) {
	key := newTestKey(t)
	codec := NewCodec(nil, &key.PublicKey, "client-123")

	_, err := codec.Sign("alice", time.Now().Add(time.Hour).UnixMilli())
	require.Error(t, err)
}
