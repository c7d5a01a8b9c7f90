// Package signature signs and verifies payloads with HMAC-SHA256.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

const prefix = "sha256="

var (
	ErrMissingSignature = errors.New("missing signature")
	ErrMismatch         = errors.New("signature verification failed")
)

// Signer computes hex encoded HMAC-SHA256 signatures
type Signer struct {
	secret []byte
}

// NewSigner creates a signer for the given secret
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign returns the hex signature of the payload
func (s *Signer) Sign(payload []byte) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// Verify checks a signature in constant time. A "sha256=" prefix is accepted.
func (s *Signer) Verify(payload []byte, sig string) error {
	if sig == "" {
		return ErrMissingSignature
	}
	sig = strings.TrimPrefix(sig, prefix)
	if !hmac.Equal([]byte(s.Sign(payload)), []byte(sig)) {
		return ErrMismatch
	}
	return nil
}

// Fields joins values with '|' into a canonical payload
func Fields(values ...string) []byte {
	return []byte(strings.Join(values, "|"))
}
