package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSigner(t *testing.T) {
	s := NewSigner("audit-key")
	payload := Fields("AL-0", "analyst-7", "PENDING", "CONFIRMED_FRAUD")

	sig := s.Sign(payload)
	assert.Len(t, sig, 64)
	assert.NoError(t, s.Verify(payload, sig))
	assert.NoError(t, s.Verify(payload, "sha256="+sig))

	assert.ErrorIs(t, s.Verify(payload, ""), ErrMissingSignature)
	assert.ErrorIs(t, s.Verify(Fields("AL-1"), sig), ErrMismatch)
	assert.ErrorIs(t, NewSigner("other").Verify(payload, sig), ErrMismatch)
}
