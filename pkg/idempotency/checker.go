package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"
)

const (
	// HeaderKey carries the client supplied idempotency key
	HeaderKey = "Idempotency-Key"
	// HeaderReplayed marks a response served from the store
	HeaderReplayed = "Idempotent-Replayed"

	// DefaultTTL is how long a recorded response is replayed
	DefaultTTL = 24 * time.Hour
	MaxTTL     = 7 * 24 * time.Hour

	defaultMaxBody = 1 << 20
)

// Record is a response stored under an idempotency key
type Record struct {
	RequestHash string `json:"request_hash"`
	Status      int    `json:"status"`
	Body        []byte `json:"body"`
}

// HashRequest creates a SHA-256 hash of the request method, path and body
func HashRequest(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// ValidateKey validates an idempotency key format
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("idempotency key cannot be empty")
	}
	if len(key) < 16 {
		return fmt.Errorf("idempotency key must be at least 16 characters")
	}
	if len(key) > 255 {
		return fmt.Errorf("idempotency key must not exceed 255 characters")
	}

	for _, c := range key {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
			(c >= '0' && c <= '9') || c == '-' || c == '_') {
			return fmt.Errorf("idempotency key contains invalid character: %c", c)
		}
	}
	return nil
}

// ValidateTTL validates and normalizes the TTL
func ValidateTTL(ttl time.Duration) (time.Duration, error) {
	if ttl == 0 {
		return DefaultTTL, nil
	}
	if ttl < time.Minute {
		return 0, fmt.Errorf("TTL must be at least 1 minute")
	}
	if ttl > MaxTTL {
		return 0, fmt.Errorf("TTL cannot exceed %v", MaxTTL)
	}
	return ttl, nil
}

// ReadBody reads at most maxSize bytes of a request body
func ReadBody(body io.Reader, maxSize int64) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	if maxSize <= 0 {
		maxSize = defaultMaxBody
	}
	data, err := io.ReadAll(io.LimitReader(body, maxSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	return data, nil
}

// Decision is the outcome of comparing a request to a stored record
type Decision int

const (
	// Proceed runs the handler and records its response
	Proceed Decision = iota
	// Replay serves the stored response
	Replay
	// Mismatch rejects a key reused with a different request
	Mismatch
)

// Decide compares the current request hash with a stored record. A nil record
// or a stored server error lets the request run again.
func Decide(stored *Record, currentHash string) Decision {
	if stored == nil {
		return Proceed
	}
	if stored.RequestHash != currentHash {
		return Mismatch
	}
	if stored.Status >= 200 && stored.Status < 500 {
		return Replay
	}
	return Proceed
}

// Cacheable reports whether a response status should be recorded
func Cacheable(status int) bool {
	return status >= 200 && status < 500
}
