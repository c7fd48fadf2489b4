package backoff

import (
	"math"
	"math/rand/v2"
	"time"
)

// Strategy computes the delay before a reconnect attempt.
// Implementations must be safe for concurrent use.
type Strategy interface {
	// Delay returns the wait before the given attempt. Attempt starts at 1.
	Delay(attempt int) time.Duration
}

// Fixed waits the same interval before every attempt.
type Fixed struct {
	Interval time.Duration
}

func (f Fixed) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return f.Interval
}

// Linear grows the delay by Interval per attempt, capped at MaxInterval.
type Linear struct {
	Interval    time.Duration
	MaxInterval time.Duration
}

func (l Linear) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	interval := l.Interval
	if interval == 0 {
		interval = time.Second
	}
	maxDelay := l.MaxInterval
	if maxDelay == 0 {
		maxDelay = 30 * time.Second
	}

	return min(interval*time.Duration(attempt), maxDelay)
}

// Exponential multiplies the delay on every attempt, with optional jitter.
// Formula: min(Initial * Multiplier^(attempt-1) * (1 ± JitterFactor), MaxInterval)
type Exponential struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	JitterFactor    float64
}

func (e Exponential) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	initial := e.InitialInterval
	if initial == 0 {
		initial = time.Second
	}
	maxDelay := e.MaxInterval
	if maxDelay == 0 {
		maxDelay = 30 * time.Second
	}
	multiplier := e.Multiplier
	if multiplier == 0 {
		multiplier = 2
	}

	interval := float64(initial) * math.Pow(multiplier, float64(attempt-1))
	if e.JitterFactor > 0 {
		interval *= 1 + (rand.Float64()*2-1)*e.JitterFactor //nolint:gosec // jitter only
	}
	if interval > float64(maxDelay) {
		interval = float64(maxDelay)
	}

	return time.Duration(interval)
}

// Default is the reconnect policy used when none is configured: a fixed
// three second delay.
func Default() Strategy {
	return Fixed{Interval: 3 * time.Second}
}
