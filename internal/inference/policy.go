package inference

import (
	"math"
	"time"
)

// Policy bounds the retry loop.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultPolicy waits 1s, 2s, 4s, then 8s between at most 8 attempts.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 8,
		BaseDelay:   time.Second,
		MaxDelay:    8 * time.Second,
	}
}

// Delay returns the wait after failed attempt k (1-based):
// min(BaseDelay * 2^(k-1), MaxDelay). A MaxDelay <= 0 falls back to the
// default cap.
func (p Policy) Delay(k int) time.Duration {
	if k < 1 {
		k = 1
	}
	p = p.normalize()
	d := p.BaseDelay
	for i := 1; i < k && d < p.MaxDelay; i++ {
		if d > math.MaxInt64/2 {
			return p.MaxDelay
		}
		d *= 2
	}
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Delays lists every wait a fully exhausted run would take.
func (p Policy) Delays() []time.Duration {
	p = p.normalize()
	out := make([]time.Duration, 0, p.MaxAttempts-1)
	for k := 1; k < p.MaxAttempts; k++ {
		out = append(out, p.Delay(k))
	}
	return out
}

func (p Policy) normalize() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = 0
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultPolicy().MaxDelay
	}
	return p
}
