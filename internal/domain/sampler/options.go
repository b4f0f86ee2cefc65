package sampler

import (
	"math/rand"

	"github.com/okian/rivalry/pkg/logger"
)

// Option configures a Sampler.
type Option func(*Sampler)

// WithLadder replaces the lookback ladder with Windows(window, step).
func WithLadder(window, step int) Option {
	return func(s *Sampler) {
		if window > 0 {
			s.ladder = Windows(window, step)
		}
	}
}

// WithRand sets the random source. Tests pass a seeded one.
func WithRand(rng *rand.Rand) Option {
	return func(s *Sampler) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Sampler) {
		if l != nil {
			s.log = l
		}
	}
}
