// Package service orchestrates the rivalry engine over a repository.Store:
// provisioning, contest resolution and undo, manual slot edits, standing
// changes, and scheduled integrity audits run by the worker pool.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/okian/rivalry/internal/adapters/mq/queue"
	"github.com/okian/rivalry/internal/adapters/mq/worker"
	"github.com/okian/rivalry/internal/adapters/repository"
	"github.com/okian/rivalry/internal/domain/audit"
	"github.com/okian/rivalry/internal/domain/batch"
	"github.com/okian/rivalry/internal/domain/model"
	"github.com/okian/rivalry/internal/domain/resolution"
	"github.com/okian/rivalry/internal/domain/sampler"
	"github.com/okian/rivalry/internal/domain/tier"
	"github.com/okian/rivalry/internal/domain/tierlist"
	"github.com/okian/rivalry/pkg/logger"
	"github.com/okian/rivalry/pkg/metrics"
)

// Service implements the API dependencies for the rivalry system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	engine   *tierlist.Engine
	sampler  *sampler.Sampler
	resolver *resolution.Resolver
	auditor  *audit.Auditor
	jobs     *queue.InMemoryQueue
	pool     *worker.Pool
	sched    gocron.Scheduler
	locks    *keyedMutex

	// Configuration
	geometry             tier.Geometry
	stepsPerPoint        int
	placementBias        int
	lookbackWindow       int
	lookbackStep         int
	provisionalThreshold int
	maxResult            int
	historyPageSize      int
	batchConcurrency     int
	workerCount          int
	queueSize            int
	auditInterval        time.Duration
	rng                  *rand.Rand
	now                  func() time.Time
	newID                func() string

	// State
	started bool

	logger logger.Logger
}

// New constructs a Service. Components are built by Start.
func New(opts ...Option) *Service {
	s := &Service{
		geometry:             tier.Default,
		stepsPerPoint:        3,
		placementBias:        14,
		lookbackWindow:       30,
		lookbackStep:         5,
		provisionalThreshold: 10,
		historyPageSize:      50,
		workerCount:          runtime.NumCPU(),
		queueSize:            1024,
		now:                  time.Now,
		newID:                defaultID,
		locks:                newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the engine, opens the default store if none was supplied,
// starts the worker pool and, when an audit interval is set, the scheduler.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger.Info(ctx, "starting rivalry service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx)
		s.logger.Info(ctx, "using in-memory store")
	}

	s.engine = tierlist.NewEngine(s.geometry, tierlist.WithLogger(s.logger.Named("tierlist")))
	samplerOpts := []sampler.Option{
		sampler.WithLadder(s.lookbackWindow, s.lookbackStep),
		sampler.WithLogger(s.logger.Named("sampler")),
	}
	if s.rng != nil {
		samplerOpts = append(samplerOpts, sampler.WithRand(s.rng))
	}
	s.sampler = sampler.New(s.engine, samplerOpts...)
	s.resolver = resolution.New(s.engine,
		resolution.WithStepsPerPoint(s.stepsPerPoint),
		resolution.WithPlacementBias(s.placementBias),
		resolution.WithProvisionalThreshold(s.provisionalThreshold),
		resolution.WithMaxResult(s.maxResult),
		resolution.WithLogger(s.logger.Named("resolution")),
	)
	s.auditor = audit.New(audit.WithIDGenerator(s.newID), audit.WithLogger(s.logger.Named("audit")))

	s.jobs = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.jobs, worker.HandlerFunc(s.Handle), worker.WithLogger(s.logger))
	s.pool.Start(ctx)

	if s.auditInterval > 0 {
		sched, err := s.startScheduler(ctx)
		if err != nil {
			_ = s.pool.Shutdown(ctx)
			return fmt.Errorf("start audit scheduler: %w", err)
		}
		s.sched = sched
	}

	s.started = true
	s.logger.Info(ctx, "rivalry service started",
		logger.Int("roster_size", s.geometry.RosterSize()),
		logger.Int("tier_count", s.geometry.TierCount()),
		logger.Int("workers", s.pool.Size()),
		logger.Duration("audit_interval", s.auditInterval))
	return nil
}

// Stop shuts down the scheduler, the worker pool and the store. In-flight
// jobs see ErrNotStarted from then on.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	sched, pool, store := s.sched, s.pool, s.store
	s.mu.Unlock()

	ctx := context.Background()
	s.logger.Info(ctx, "stopping rivalry service...")

	if sched != nil {
		if err := sched.Shutdown(); err != nil {
			s.logger.Warn(ctx, "scheduler shutdown failed", logger.Error(err))
		}
	}
	if pool != nil {
		_ = pool.Shutdown(ctx)
	}
	if store != nil {
		if err := store.Close(); err != nil {
			s.logger.Warn(ctx, "store close failed", logger.Error(err))
		}
	}
	s.logger.Info(ctx, "rivalry service stopped")
}

// Engine exposes the tier list engine, mainly for rendering geometry.
func (s *Service) Engine() *tierlist.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"rosterSize":  s.geometry.RosterSize(),
		"tierCount":   s.geometry.TierCount(),
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
	}
	if !s.started {
		return stats
	}

	ctx := context.Background()
	stats["queueLength"] = s.jobs.Len(ctx)
	stats["activeLocks"] = s.locks.size()
	total, failed := s.pool.Processed()
	stats["jobsProcessed"] = total
	stats["jobsFailed"] = failed
	if out, err := s.store.Rivalries().List(ctx, nil); err == nil && out.OK() {
		stats["rivalries"] = len(out.Data)
		metrics.UpdateRivalriesTotal(len(out.Data))
	}
	return stats
}

// loadTierList reads a TierList with its Slots sorted and marks it clean.
func (s *Service) loadTierList(ctx context.Context, id string) (model.TierList, error) {
	tl, err := outcome(s.store.TierLists().Get(ctx, id))
	if err != nil {
		return model.TierList{}, fmt.Errorf("load tier list %s: %w", id, err)
	}
	slots, err := outcome(s.store.Slots().List(ctx, repository.Filter{"tier_list_id": id}))
	if err != nil {
		return model.TierList{}, fmt.Errorf("load slots of %s: %w", id, err)
	}
	tierlist.SortSlots(slots)
	tl.Slots = slots
	tl.MarkClean()
	return tl, nil
}

// persistSlots writes the Slots of tl that differ from its baseline as one
// concurrent batch. A failed batch is re-derived and retried once.
func (s *Service) persistSlots(ctx context.Context, tl model.TierList) error {
	changed := tierlist.ChangedSlots(tl)
	if len(changed) == 0 {
		return nil
	}
	write := func(ctx context.Context, sl model.Slot) error { return s.writeSlot(ctx, tl, sl) }

	res := batch.Run(ctx, changed, write, batch.WithLimit(s.batchConcurrency))
	if res.Err() == nil {
		return nil
	}
	s.logger.Warn(ctx, "slot batch failed, retrying once",
		logger.String("tier_list_id", tl.ID),
		logger.Int("failed", len(res.Failures)),
		logger.Int("total", res.Total),
		logger.Error(res.Err()))

	res = batch.Run(ctx, tierlist.ChangedSlots(tl), write, batch.WithLimit(s.batchConcurrency))
	if err := res.Err(); err != nil {
		metrics.RecordErrorByComponent("service", "batch")
		return fmt.Errorf("persist slots of %s: %w", tl.ID, err)
	}
	return nil
}

func (s *Service) writeSlot(ctx context.Context, tl model.TierList, sl model.Slot) error {
	if _, ok := tl.Loaded(sl.ID); !ok {
		out, err := s.store.Slots().Create(ctx, sl)
		if err != nil {
			return err
		}
		if out.OK() {
			return nil
		}
		// A retried batch may find its own earlier create.
		if !(len(out.Errors) == 1 && out.Errors[0].Field == "id") {
			return invalid(out.Errors...)
		}
	}
	_, err := outcome(s.store.Slots().Update(ctx, sl.ID, model.PatchFor(sl)))
	return err
}

// rosterNames maps fighter ids to names for views.
func (s *Service) rosterNames(ctx context.Context, gameID string) map[string]string {
	roster, err := s.store.Roster(ctx, gameID)
	if err != nil {
		s.logger.Warn(ctx, "roster lookup failed", logger.String("game_id", gameID), logger.Error(err))
		return nil
	}
	names := make(map[string]string, len(roster))
	for _, f := range roster {
		names[f.ID] = f.Name
	}
	return names
}

// lockKey serializes a TierList with its rivalry's other list.
func lockKey(tl model.TierList) string {
	if tl.RivalryID != "" {
		return "rivalry:" + tl.RivalryID
	}
	return "tierlist:" + tl.ID
}

func (s *Service) logWarnings(ctx context.Context, msg string, warnings []error, fields ...logger.Field) {
	for _, w := range warnings {
		if errors.Is(w, tierlist.ErrIntegrityViolation) {
			s.logger.Error(ctx, msg, append(fields, logger.Error(w))...)
			continue
		}
		s.logger.Warn(ctx, msg, append(fields, logger.Error(w))...)
	}
}
