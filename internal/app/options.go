package service

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/okian/rivalry/internal/adapters/repository"
	"github.com/okian/rivalry/internal/domain/tier"
	"github.com/okian/rivalry/pkg/logger"
)

func defaultID() string { return uuid.NewString() }

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the repository. Start opens an in-memory store otherwise.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithGeometry sets the roster size and tier count.
func WithGeometry(g tier.Geometry) Option {
	return func(s *Service) { s.geometry = g }
}

// WithStepsPerPoint sets how many positions one point of score lead moves a Slot.
func WithStepsPerPoint(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.stepsPerPoint = n
		}
	}
}

// WithPlacementBias sets how far from its opponent an unranked contestant lands per point.
func WithPlacementBias(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.placementBias = n
		}
	}
}

// WithLookback sets the sampler's anti-repeat ladder.
func WithLookback(window, step int) Option {
	return func(s *Service) {
		if window > 0 && step > 0 {
			s.lookbackWindow, s.lookbackStep = window, step
		}
	}
}

// WithProvisionalThreshold sets the Slot contest count after which fighter stats move.
func WithProvisionalThreshold(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.provisionalThreshold = n
		}
	}
}

// WithMaxResult caps the absolute score lead ResolveContest accepts; 0 means N-1.
func WithMaxResult(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxResult = n
		}
	}
}

// WithHistoryPageSize sets the page size for history reads.
func WithHistoryPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.historyPageSize = n
		}
	}
}

// WithBatchConcurrency bounds concurrent writes per batch; 0 means unbounded.
func WithBatchConcurrency(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.batchConcurrency = n
		}
	}
}

// WithWorkerCount sets the number of background workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the background job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithAuditInterval enables the periodic audit of every tier list.
func WithAuditInterval(d time.Duration) Option {
	return func(s *Service) { s.auditInterval = d }
}

// WithRand seeds the sampler, for reproducible runs.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) { s.rng = rng }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator replaces uuid generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
