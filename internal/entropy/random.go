// Package entropy supplies seeds for unseeded worlds. Seeds come from
// crypto/rand so that two worlds started in the same instant still differ.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"log/slog"
	"time"
)

// Seed returns a positive random int64 suitable for seeding generation.
// Never returns 0, which callers treat as "no seed".
func Seed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// This should never happen; fall back to the clock.
		slog.Debug("crypto/rand failed, seeding from clock", "error", err)
		return nonZero(time.Now().UnixNano())
	}
	return nonZero(int64(binary.LittleEndian.Uint64(buf[:]) >> 1))
}

// Float returns a random float64 in [0, 1).
func Float() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0.5
	}
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}

func nonZero(v int64) int64 {
	if v < 0 {
		v = -v
	}
	if v == 0 {
		return 1
	}
	return v
}
