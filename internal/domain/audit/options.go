package audit

import "github.com/okian/rivalry/pkg/logger"

// Option configures an Auditor.
type Option func(*Auditor)

// WithIDGenerator overrides how new Slot ids are produced.
func WithIDGenerator(fn func() string) Option {
	return func(a *Auditor) {
		if fn != nil {
			a.newID = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Auditor) {
		if l != nil {
			a.log = l
		}
	}
}
