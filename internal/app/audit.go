package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/go-co-op/gocron/v2"

	"github.com/okian/rivalry/internal/adapters/mq/queue"
	"github.com/okian/rivalry/internal/domain/audit"
	"github.com/okian/rivalry/internal/domain/batch"
	"github.com/okian/rivalry/internal/domain/model"
	"github.com/okian/rivalry/pkg/logger"
	"github.com/okian/rivalry/pkg/metrics"
)

// AuditTierList removes duplicate Slots and adds Slots for roster fighters
// the TierList is missing. Orphaned Slots are reported only.
func (s *Service) AuditTierList(ctx context.Context, tierListID string) (audit.Report, error) {
	if err := s.ready(); err != nil {
		return audit.Report{}, err
	}
	tl, unlock, err := s.lockTierList(ctx, tierListID)
	if err != nil {
		return audit.Report{}, err
	}
	defer unlock()

	roster, err := s.store.Roster(ctx, tl.GameID)
	if err != nil {
		return audit.Report{}, fmt.Errorf("roster of %s: %w", tl.GameID, err)
	}
	rep := s.auditor.Audit(ctx, tl, roster)
	if !rep.Changed() {
		return rep, nil
	}

	res := batch.Run(ctx, rep.Delete, func(ctx context.Context, sl model.Slot) error {
		return s.store.Slots().Delete(ctx, sl.ID)
	}, batch.WithLimit(s.batchConcurrency))
	if err := res.Err(); err != nil {
		return rep, fmt.Errorf("delete duplicate slots of %s: %w", tl.ID, err)
	}
	res = batch.Run(ctx, rep.Create, func(ctx context.Context, sl model.Slot) error {
		_, err := outcome(s.store.Slots().Create(ctx, sl))
		return err
	}, batch.WithLimit(s.batchConcurrency))
	if err := res.Err(); err != nil {
		return rep, fmt.Errorf("create missing slots of %s: %w", tl.ID, err)
	}

	if err := s.repairOpenContest(ctx, tl, rep); err != nil {
		return rep, err
	}

	metrics.RecordAudit(len(rep.Delete), len(rep.Create))
	s.logger.Info(ctx, "tier list repaired",
		logger.String("tier_list_id", tl.ID),
		logger.Int("deleted", len(rep.Delete)),
		logger.Int("created", len(rep.Create)))
	return rep, nil
}

// repairOpenContest resamples tl's side of its rivalry's open contest when
// the audit deleted the Slot that side was drawn from.
func (s *Service) repairOpenContest(ctx context.Context, tl model.TierList, rep audit.Report) error {
	if tl.RivalryID == "" || len(rep.Delete) == 0 {
		return nil
	}
	r, err := outcome(s.store.Rivalries().Get(ctx, tl.RivalryID))
	if err != nil {
		return fmt.Errorf("rivalry of %s: %w", tl.ID, err)
	}
	if r.CurrentContestID == "" {
		return nil
	}
	c, err := outcome(s.store.Contests().Get(ctx, r.CurrentContestID))
	if err != nil {
		return fmt.Errorf("current contest of %s: %w", r.ID, err)
	}
	if c.Resolved {
		return nil
	}
	side := model.SideA
	if r.TierListID(model.SideB) == tl.ID {
		side = model.SideB
	}
	gone := c.SlotID(side)
	if !slices.ContainsFunc(rep.Delete, func(sl model.Slot) bool { return sl.ID == gone }) {
		return nil
	}

	c, _, err = s.resampleSide(ctx, r, c, rep.Apply(tl), side)
	if err != nil {
		return fmt.Errorf("replace deleted contestant %s: %w", gone, err)
	}
	s.logger.Info(ctx, "open contest resampled after audit",
		logger.String("rivalry_id", r.ID),
		logger.String("side", side.String()),
		logger.String("deleted_slot_id", gone),
		logger.String("slot_id", c.SlotID(side)))
	return nil
}

// EnqueueAudit schedules a background audit of one TierList, or of all of them when id is empty.
func (s *Service) EnqueueAudit(ctx context.Context, tierListID string) (queue.Job, error) {
	if err := s.ready(); err != nil {
		return queue.Job{}, err
	}
	j := queue.Job{ID: s.newID(), Kind: queue.KindAudit, TierListID: tierListID, EnqueuedAt: s.now()}
	if tierListID == "" {
		j.Kind = queue.KindAuditAll
	}
	if err := s.jobs.Enqueue(ctx, j); err != nil {
		return queue.Job{}, fmt.Errorf("enqueue audit: %w", err)
	}
	return j, nil
}

// Handle runs a background job. It is the worker pool's handler.
func (s *Service) Handle(ctx context.Context, j queue.Job) error {
	switch j.Kind {
	case queue.KindAudit:
		_, err := s.AuditTierList(ctx, j.TierListID)
		return err
	case queue.KindAuditAll:
		return s.fanOutAudits(ctx)
	default:
		return fmt.Errorf("unknown job kind %q", j.Kind)
	}
}

// fanOutAudits enqueues one audit job per TierList.
func (s *Service) fanOutAudits(ctx context.Context) error {
	lists, err := outcome(s.store.TierLists().List(ctx, nil))
	if err != nil {
		return fmt.Errorf("list tier lists: %w", err)
	}
	var failed int
	for _, tl := range lists {
		j := queue.Job{ID: s.newID(), Kind: queue.KindAudit, TierListID: tl.ID, EnqueuedAt: s.now()}
		if err := s.jobs.Enqueue(ctx, j); err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("enqueue audits: %d of %d failed", failed, len(lists))
	}
	return nil
}

// startScheduler enqueues an audit of every TierList each audit interval.
func (s *Service) startScheduler(ctx context.Context) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(s.auditInterval),
		gocron.NewTask(func() {
			j := queue.Job{ID: s.newID(), Kind: queue.KindAuditAll, EnqueuedAt: s.now()}
			if err := s.jobs.Enqueue(ctx, j); err != nil {
				s.logger.Warn(ctx, "scheduled audit not enqueued", logger.Error(err))
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}
	sched.Start()
	return sched, nil
}
