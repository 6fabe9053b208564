package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleAuthRoundTrip(t *testing.T) {
	content := EncodeSimpleAuth("alice", "hunter2")

	auth, err := DecodeAuthentication(content)
	require.NoError(t, err)
	assert.Equal(t, AuthTypeSimple, auth.Type)
	assert.Equal(t, "alice", auth.Username)
	assert.Equal(t, "hunter2", auth.Password)
}

func TestBearerAuthRoundTrip(t *testing.T) {
	content := EncodeBearerAuth("eyJhbGciOiJIUzI1NiJ9")

	auth, err := DecodeAuthentication(content)
	require.NoError(t, err)
	assert.Equal(t, AuthTypeBearer, auth.Type)
	assert.Equal(t, "eyJhbGciOiJIUzI1NiJ9", auth.Token)
}

func TestCustomAuthRoundTrip(t *testing.T) {
	content := EncodeCustomAuth("application/x-hmac", []byte{0x01, 0x02, 0x03})

	auth, err := DecodeAuthentication(content)
	require.NoError(t, err)
	assert.Equal(t, AuthTypeCustom, auth.Type)
	assert.Equal(t, "application/x-hmac", auth.CustomMime)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, auth.CustomPayload)
}

func TestDecodeAuthenticationTruncated(t *testing.T) {
	_, err := DecodeAuthentication(nil)
	assert.ErrorIs(t, err, ErrTruncatedAuth)

	// simple auth header present but username length byte missing
	_, err = DecodeAuthentication([]byte{authWellKnownSimple | highBit})
	assert.ErrorIs(t, err, ErrTruncatedAuth)

	// username length claims more bytes than remain
	_, err = DecodeAuthentication([]byte{authWellKnownSimple | highBit, 10, 'a'})
	assert.ErrorIs(t, err, ErrTruncatedAuth)
}

func TestDecodeAuthenticationUnknownWellKnown(t *testing.T) {
	_, err := DecodeAuthentication([]byte{0x7F | highBit})
	assert.Error(t, err)
}

func TestFindAuthentication(t *testing.T) {
	meta := AppendAuthenticationEntry(nil, EncodeBearerAuth("tok"))
	meta = AppendRoutingEntry(meta, "orders.create")

	auth, ok, err := FindAuthentication(meta)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tok", auth.Token)

	_, ok, err = FindAuthentication(AppendRoutingEntry(nil, "no-auth-here"))
	require.NoError(t, err)
	assert.False(t, ok)
}
