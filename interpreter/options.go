/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package interpreter

import (
	"github.com/rs/zerolog"
	"github.com/suparena/tableops/batch"
)

// DefaultFanOut is the number of batch chunks the concurrent interpreters
// keep in flight.
const DefaultFanOut = 4

// Option configures an interpreter
type Option func(*settings)

type settings struct {
	policy batch.RetryPolicy
	fanOut int
	logger zerolog.Logger
}

func newSettings(opts []Option) settings {
	s := settings{
		policy: batch.DefaultRetryPolicy(),
		fanOut: DefaultFanOut,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithRetryPolicy sets the retry policy for unprocessed batch remainders.
func WithRetryPolicy(p batch.RetryPolicy) Option {
	return func(s *settings) {
		s.policy = p
	}
}

// WithFanOut bounds how many batch chunks run concurrently. It has no effect
// on the blocking interpreter.
func WithFanOut(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.fanOut = n
		}
	}
}

// WithLogger sets the logger for execution diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}
