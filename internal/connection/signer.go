package connection

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"golang.org/x/crypto/sha3"
)

const schemePrefix = "hmac-"

var digests = map[string]func() hash.Hash{
	"md5":      md5.New,
	"sha1":     sha1.New,
	"sha224":   sha256.New224,
	"sha256":   sha256.New,
	"sha384":   sha512.New384,
	"sha512":   sha512.New,
	"sha3_224": sha3.New224,
	"sha3_256": sha3.New256,
	"sha3_384": sha3.New384,
	"sha3_512": sha3.New512,
}

// digestFor resolves "hmac-<alg>" to a hash constructor. Both sha3_256 and
// sha3-256 spellings are accepted.
func digestFor(scheme string) (func() hash.Hash, error) {
	alg, ok := strings.CutPrefix(scheme, schemePrefix)
	if !ok || alg == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
	fn, ok := digests[strings.ReplaceAll(strings.ToLower(alg), "-", "_")]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
	return fn, nil
}

// Signer signs kernel messages with the descriptor's key.
// An empty key disables signing.
type Signer struct {
	scheme string
	key    []byte
	digest func() hash.Hash
}

// NewSigner builds a signer for a scheme such as "hmac-sha256".
func NewSigner(scheme string, key []byte) (*Signer, error) {
	digest, err := digestFor(scheme)
	if err != nil {
		return nil, err
	}
	return &Signer{
		scheme: scheme,
		key:    append([]byte(nil), key...),
		digest: digest,
	}, nil
}

// Scheme returns the configured signature scheme.
func (s *Signer) Scheme() string { return s.scheme }

// Enabled reports whether messages are signed at all.
func (s *Signer) Enabled() bool { return len(s.key) > 0 }

// Sign returns the hex digest over the message frames in order.
func (s *Signer) Sign(parts ...[]byte) string {
	if !s.Enabled() {
		return ""
	}
	mac := hmac.New(s.digest, s.key)
	for _, p := range parts {
		mac.Write(p)
	}
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a hex signature in constant time.
func (s *Signer) Verify(signature string, parts ...[]byte) bool {
	if !s.Enabled() {
		return signature == ""
	}
	want, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(s.digest, s.key)
	for _, p := range parts {
		mac.Write(p)
	}
	return hmac.Equal(mac.Sum(nil), want)
}
