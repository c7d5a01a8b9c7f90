package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	apperrors "github.com/fraud-desk/alert_service/pkg/errors"
)

var (
	ErrInvalidMaxAttempts = errors.New("max attempts must be at least 1")
	ErrInvalidMultiplier  = errors.New("multiplier must be at least 1.0")
	ErrInvalidJitter      = errors.New("jitter must be between 0 and 1")
)

// Policy defines retry behavior
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	Jitter      float64
	// Retryable decides whether an error is retried; nil uses apperrors.ShouldRetry
	Retryable func(error) bool
}

var (
	// PolicyAlertStore retries snapshot loads from the alert database
	PolicyAlertStore = Policy{
		MaxAttempts: 3,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Multiplier:  2.0,
		Jitter:      0.1,
	}

	// PolicyNotification retries outbound email delivery
	PolicyNotification = Policy{
		MaxAttempts: 4,
		BaseDelay:   1 * time.Second,
		MaxDelay:    30 * time.Second,
		Multiplier:  2.0,
		Jitter:      0.2,
	}
)

// WithMaxAttempts returns a copy of the policy with a different attempt budget
func (p Policy) WithMaxAttempts(n int) Policy {
	p.MaxAttempts = n
	return p
}

// WithBaseDelay returns a copy of the policy with a different first delay
func (p Policy) WithBaseDelay(d time.Duration) Policy {
	p.BaseDelay = d
	return p
}

// Validate checks if the policy is valid
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}
	if p.Multiplier < 1.0 {
		return ErrInvalidMultiplier
	}
	if p.Jitter < 0 || p.Jitter > 1.0 {
		return ErrInvalidJitter
	}
	return nil
}

// Delay returns the wait before retry number attempt (1-based), without jitter
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	backoff := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if p.MaxDelay > 0 && backoff > float64(p.MaxDelay) {
		backoff = float64(p.MaxDelay)
	}
	return time.Duration(backoff)
}

func (p Policy) jittered(attempt int) time.Duration {
	d := p.Delay(attempt)
	if p.Jitter <= 0 || d <= 0 {
		return d
	}
	j := float64(d) * p.Jitter
	return time.Duration(float64(d) - j + rand.Float64()*2*j)
}

// Do runs fn until it succeeds, returns a non-retryable error, exhausts the
// policy or ctx is done
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	if err := p.Validate(); err != nil {
		return err
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = apperrors.ShouldRetry
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable(err) {
			return err
		}
		if attempt == p.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled by context: %w", ctx.Err())
		case <-time.After(p.jittered(attempt)):
		}
	}

	return fmt.Errorf("max retry attempts (%d) exceeded: %w", p.MaxAttempts, lastErr)
}
