package client

import (
	"math"
	"time"
)

// Backoff computes the delay before reconnection attempt n. The delay grows
// every second attempt, so a single dropped connection is retried quickly
// while a flapping one backs off:
//
//	delay = base * factor^min(n/2, maxExponent)
type Backoff struct {
	Base        time.Duration
	Factor      float64
	MaxExponent int
}

// DefaultBackoff maxes out at about 65 seconds.
var DefaultBackoff = Backoff{
	Base:        500 * time.Millisecond,
	Factor:      1.5,
	MaxExponent: 12,
}

// Delay returns the delay before attempt n, counting from 1.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	exp := min(attempt/2, b.MaxExponent)
	return time.Duration(float64(b.Base) * math.Pow(b.Factor, float64(exp)))
}

// Max returns the largest delay Delay can return.
func (b Backoff) Max() time.Duration {
	return time.Duration(float64(b.Base) * math.Pow(b.Factor, float64(b.MaxExponent)))
}
