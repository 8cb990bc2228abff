// Package backoff holds the retry delay strategies used between step
// attempts. Strategies are stateless and safe for concurrent use.
package backoff

import (
	"math"
	"math/rand/v2"
	"time"
)

// Strategy computes the delay applied before retry attempt n.
// Attempt 1 is the first retry after the initial failure; strategies are
// never consulted before the first attempt.
type Strategy interface {
	Delay(attempt int) time.Duration
}

// Constant returns the same delay for every retry.
type Constant struct {
	Interval time.Duration
}

func NewConstant(interval time.Duration) *Constant {
	return &Constant{Interval: interval}
}

func (c *Constant) Delay(_ int) time.Duration {
	return c.Interval
}

// Exponential doubles the delay on each retry:
// Delay = min(Base * 2^(attempt-1), Max).
type Exponential struct {
	Base time.Duration
	Max  time.Duration
}

func NewExponential(base, maxDelay time.Duration) *Exponential {
	return &Exponential{Base: base, Max: maxDelay}
}

func (e *Exponential) Delay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	d := time.Duration(float64(e.Base) * math.Pow(2, float64(attempt-1)))
	if e.Max > 0 && d > e.Max {
		return e.Max
	}
	return d
}

// ExponentialWithJitter draws a random delay in [0, exponential delay].
// Spreads simultaneous retries so a failing shared resource is not hammered
// in lockstep.
type ExponentialWithJitter struct {
	Base time.Duration
	Max  time.Duration
}

func NewExponentialWithJitter(base, maxDelay time.Duration) *ExponentialWithJitter {
	return &ExponentialWithJitter{Base: base, Max: maxDelay}
}

func (e *ExponentialWithJitter) Delay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	ceil := float64(e.Base) * math.Pow(2, float64(attempt-1))
	if e.Max > 0 && ceil > float64(e.Max) {
		ceil = float64(e.Max)
	}
	return time.Duration(rand.Float64() * ceil) //nolint:gosec // jitter does not need crypto rand
}
