/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package batch

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Provider per-call caps.
const (
	GetCapacity   = 100
	WriteCapacity = 25
)

// RetryPolicy bounds how unprocessed remainders are re-submitted.
type RetryPolicy struct {
	// MaxAttempts is the number of provider calls per chunk, the first one included.
	MaxAttempts int
	// InitialInterval is the delay before the first retry.
	InitialInterval time.Duration
	// MaxInterval caps the exponential delay.
	MaxInterval time.Duration
	// Multiplier controls how quickly the delay grows between attempts.
	Multiplier float64
	// RandomizationFactor spreads each delay by +/- this fraction.
	RandomizationFactor float64
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:         8,
		InitialInterval:     50 * time.Millisecond,
		MaxInterval:         2 * time.Second,
		Multiplier:          2.0,
		RandomizationFactor: 0.5,
	}
}

// normalized fills unset or out-of-range fields from the defaults.
func (p RetryPolicy) normalized() RetryPolicy {
	d := DefaultRetryPolicy()
	if p.MaxAttempts < 1 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.InitialInterval <= 0 {
		p.InitialInterval = d.InitialInterval
	}
	if p.MaxInterval < p.InitialInterval {
		p.MaxInterval = p.InitialInterval
	}
	if p.Multiplier < 1 {
		p.Multiplier = d.Multiplier
	}
	if p.RandomizationFactor < 0 || p.RandomizationFactor > 1 {
		p.RandomizationFactor = d.RandomizationFactor
	}
	return p
}

func (p RetryPolicy) newBackOff() *backoff.ExponentialBackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     p.InitialInterval,
		RandomizationFactor: p.RandomizationFactor,
		Multiplier:          p.Multiplier,
		MaxInterval:         p.MaxInterval,
	}
	b.Reset()
	return b
}
