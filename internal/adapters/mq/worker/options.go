package worker

import "github.com/okian/rivalry/pkg/logger"

// Option configures an InMemoryWorker. Options passed to NewPool apply to every worker.
type Option func(*InMemoryWorker)

// WithName names the worker in its log lines. NewPool numbers its workers itself.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger replaces the global logger.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}
