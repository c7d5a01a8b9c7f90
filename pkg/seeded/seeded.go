// Package seeded derives reproducible pseudo-random integer streams from
// identity strings. Values are stable across runs and platforms for the same
// input; nothing here is suitable for cryptographic use.
package seeded

import "unicode/utf16"

const (
	lcgMultiplier = 1103515245
	lcgIncrement  = 12345
	lcgMask       = 0x7fffffff
)

// Seed folds identity into a signed 32-bit accumulator using
// acc = acc*31 + code for every UTF-16 code unit. Overflow wraps.
func Seed(identity string) int32 {
	var acc int32
	for _, unit := range utf16.Encode([]rune(identity)) {
		acc = acc*31 + int32(unit)
	}
	return acc
}

// Next advances an LCG state: (state*1103515245 + 12345) mod 2^31.
func Next(state int32) int32 {
	return int32((uint32(state)*lcgMultiplier + lcgIncrement) & lcgMask)
}

// Index maps a seed into [0, n). n must be positive.
func Index(seed int32, n int) int {
	v := int64(seed)
	if v < 0 {
		v = -v
	}
	return int(v % int64(n))
}

// Stream is a value-typed cursor over successive Next states.
type Stream struct {
	state int32
}

// NewStream starts a stream at the seed of identity.
func NewStream(identity string) Stream {
	return Stream{state: Seed(identity)}
}

// FromState starts a stream at an explicit state.
func FromState(state int32) Stream {
	return Stream{state: state}
}

// State returns the current state without advancing.
func (s Stream) State() int32 {
	return s.state
}

// Next returns the stream advanced by one step.
func (s Stream) Next() Stream {
	return Stream{state: Next(s.state)}
}

// Pick returns an index into a table of length n for the current state.
func (s Stream) Pick(n int) int {
	return Index(s.state, n)
}
