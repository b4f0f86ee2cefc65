package resolution

import "github.com/okian/rivalry/pkg/logger"

// Option configures a Resolver.
type Option func(*Resolver)

// WithStepsPerPoint sets how many positions one point of score lead moves a Slot.
func WithStepsPerPoint(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.stepsPerPoint = n
		}
	}
}

// WithPlacementBias sets the per-point offset used to place an unranked contestant.
func WithPlacementBias(n int) Option {
	return func(r *Resolver) {
		if n >= 0 {
			r.placementBias = n
		}
	}
}

// WithProvisionalThreshold sets the Slot contest count from which global fighter stats move.
func WithProvisionalThreshold(n int) Option {
	return func(r *Resolver) {
		if n >= 0 {
			r.provisionalThreshold = n
		}
	}
}

// WithMaxResult caps the absolute contest result. Zero or less keeps the
// default of N-1, the longest move a Slot can make.
func WithMaxResult(n int) Option {
	return func(r *Resolver) { r.maxResult = n }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}
