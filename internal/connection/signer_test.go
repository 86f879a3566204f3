package connection

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"
)

func TestSignerSHA256(t *testing.T) {
	s, err := NewSigner("hmac-sha256", []byte("abc123"))
	require.NoError(t, err)

	parts := [][]byte{[]byte(`{"msg_type":"kernel_info_request"}`), []byte(`{}`), []byte(`{}`), []byte(`{}`)}

	mac := hmac.New(sha256.New, []byte("abc123"))
	for _, p := range parts {
		mac.Write(p)
	}
	want := hex.EncodeToString(mac.Sum(nil))

	got := s.Sign(parts...)
	assert.Equal(t, want, got)
	assert.True(t, s.Verify(got, parts...))
	assert.False(t, s.Verify(got, parts[:3]...))
	assert.False(t, s.Verify("not-hex", parts...))
}

func TestSignerSHA3(t *testing.T) {
	for _, scheme := range []string{"hmac-sha3_256", "hmac-sha3-256"} {
		s, err := NewSigner(scheme, []byte("k"))
		require.NoError(t, err, scheme)

		mac := hmac.New(sha3.New256, []byte("k"))
		mac.Write([]byte("body"))
		assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), s.Sign([]byte("body")))
	}
}

func TestSignerEmptyKeyDisablesSigning(t *testing.T) {
	s, err := NewSigner("hmac-sha256", nil)
	require.NoError(t, err)

	assert.False(t, s.Enabled())
	assert.Empty(t, s.Sign([]byte("body")))
	assert.True(t, s.Verify("", []byte("body")))
}

func TestSignerUnsupportedScheme(t *testing.T) {
	for _, scheme := range []string{"", "sha256", "hmac-", "hmac-whirlpool"} {
		_, err := NewSigner(scheme, []byte("k"))
		assert.ErrorIs(t, err, ErrUnsupportedScheme, scheme)
	}
}
