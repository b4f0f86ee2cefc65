package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/rivalry/internal/adapters/repository"
	"github.com/okian/rivalry/internal/domain/model"
	"github.com/okian/rivalry/internal/domain/sampler"
	"github.com/okian/rivalry/pkg/logger"
	"github.com/okian/rivalry/pkg/metrics"
)

// history returns enough resolved contests, newest first, to cover the sampler's widest window.
func (s *Service) history(ctx context.Context, rivalryID string) ([]model.Contest, error) {
	need := s.lookbackWindow
	size := s.historyPageSize
	var out []model.Contest
	page := repository.Page{Size: size}
	for len(out) < need {
		hp, err := s.store.ResolvedContests(ctx, rivalryID, page)
		if err != nil {
			return nil, fmt.Errorf("history of %s: %w", rivalryID, err)
		}
		out = append(out, hp.Contests...)
		if hp.Next == "" {
			break
		}
		page.Cursor = hp.Next
	}
	return out, nil
}

// openContest samples both sides, stores the contest and points the rivalry at it.
func (s *Service) openContest(ctx context.Context, r model.Rivalry, lists [2]model.TierList, history []model.Contest) (model.Contest, error) {
	c := model.Contest{ID: s.newID(), RivalryID: r.ID, CreatedAt: s.now().UTC()}
	for _, side := range []model.Side{model.SideA, model.SideB} {
		slot, rung, err := s.sampler.Pick(ctx, lists[side], &sampler.Context{Side: side, History: history})
		if err != nil {
			return model.Contest{}, fmt.Errorf("sample side %s: %w", side, err)
		}
		if side == model.SideA {
			c.SlotAID = slot.ID
		} else {
			c.SlotBID = slot.ID
		}
		s.logger.Debug(ctx, "contestant picked",
			logger.String("rivalry_id", r.ID),
			logger.String("side", side.String()),
			logger.String("rung", rung.String()))
	}

	c, err := outcome(s.store.Contests().Create(ctx, c))
	if err != nil {
		return model.Contest{}, fmt.Errorf("create contest: %w", err)
	}
	id := c.ID
	if _, err := outcome(s.store.Rivalries().Update(ctx, r.ID, model.RivalryPatch{CurrentContestID: &id})); err != nil {
		return model.Contest{}, fmt.Errorf("point rivalry at contest: %w", err)
	}
	return c, nil
}

// currentContest returns the rivalry's open contest.
func (s *Service) currentContest(ctx context.Context, r model.Rivalry) (model.Contest, error) {
	if r.CurrentContestID == "" {
		return model.Contest{}, fmt.Errorf("%w: %s", ErrNoContest, r.ID)
	}
	c, err := outcome(s.store.Contests().Get(ctx, r.CurrentContestID))
	if err != nil {
		return model.Contest{}, fmt.Errorf("current contest of %s: %w", r.ID, err)
	}
	if c.Resolved {
		return model.Contest{}, fmt.Errorf("%w: %s already resolved", ErrNoContest, c.ID)
	}
	return c, nil
}

// ResolveContest records result for the open contest: result > 0 means side A
// won by that many points, result < 0 side B. Both TierLists are recomputed
// in memory, written as one batch each, and the next contest is sampled.
func (s *Service) ResolveContest(ctx context.Context, rivalryID string, result int) (ResolveResult, error) {
	if err := s.ready(); err != nil {
		return ResolveResult{}, err
	}
	if limit := s.resolver.MaxResult(); result > limit || result < -limit {
		return ResolveResult{}, invalid(repository.FieldError{
			Field:   "result",
			Message: fmt.Sprintf("must be within [-%d, %d]", limit, limit),
		})
	}
	start := time.Now()
	unlock := s.locks.Lock("rivalry:" + rivalryID)
	defer unlock()

	r, lists, err := s.loadRivalry(ctx, rivalryID)
	if err != nil {
		return ResolveResult{}, err
	}
	c, err := s.currentContest(ctx, r)
	if err != nil {
		return ResolveResult{}, err
	}
	c.Result = result

	out, err := s.resolver.Resolve(ctx, lists[model.SideA], lists[model.SideB], c)
	if err != nil {
		return ResolveResult{}, fmt.Errorf("resolve contest %s: %w", c.ID, err)
	}
	s.logWarnings(ctx, "contest resolved with warnings", out.Warnings, logger.String("contest_id", c.ID))

	for _, side := range []model.Side{model.SideA, model.SideB} {
		if err := s.persistSlots(ctx, out.List(side)); err != nil {
			return ResolveResult{}, err
		}
	}
	for _, f := range out.Fighters {
		wins := 0
		if f.Won {
			wins = 1
		}
		if err := s.store.IncrementFighterStats(ctx, f.FighterID, 1, wins); err != nil {
			s.logger.Warn(ctx, "fighter stats update failed", logger.String("fighter_id", f.FighterID), logger.Error(err))
		}
	}

	resolved := true
	c, err = outcome(s.store.Contests().Update(ctx, c.ID, model.ContestPatch{
		Result:   &result,
		Resolved: &resolved,
		ShiftA:   &out.Shifts[model.SideA],
		ShiftB:   &out.Shifts[model.SideB],
	}))
	if err != nil {
		return ResolveResult{}, fmt.Errorf("mark contest %s resolved: %w", c.ID, err)
	}
	count := r.ContestCount + 1
	if r, err = outcome(s.store.Rivalries().Update(ctx, r.ID, model.RivalryPatch{ContestCount: &count})); err != nil {
		return ResolveResult{}, fmt.Errorf("count contest: %w", err)
	}

	lists = [2]model.TierList{out.A, out.B}
	history, err := s.history(ctx, r.ID)
	if err != nil {
		return ResolveResult{}, err
	}
	next, err := s.openContest(ctx, r, lists, history)
	if err != nil {
		return ResolveResult{}, err
	}
	r.CurrentContestID = next.ID

	metrics.RecordContestResolved(float64(time.Since(start).Milliseconds()))
	s.logger.Info(ctx, "contest resolved",
		logger.String("rivalry_id", r.ID),
		logger.String("contest_id", c.ID),
		logger.Int("result", result),
		logger.Int("placed", len(out.Placed)))

	return ResolveResult{
		Resolved: c,
		Moves:    out.Moves,
		Placed:   out.Placed,
		Rivalry:  s.rivalryView(ctx, r, lists, &next),
	}, nil
}

// UndoLastContest reverses the newest resolved contest and reopens it as the
// current contest; the contest it replaces is discarded.
func (s *Service) UndoLastContest(ctx context.Context, rivalryID string) (RivalryView, error) {
	if err := s.ready(); err != nil {
		return RivalryView{}, err
	}
	unlock := s.locks.Lock("rivalry:" + rivalryID)
	defer unlock()

	r, lists, err := s.loadRivalry(ctx, rivalryID)
	if err != nil {
		return RivalryView{}, err
	}
	hp, err := s.store.ResolvedContests(ctx, r.ID, repository.Page{Size: 1})
	if err != nil {
		return RivalryView{}, fmt.Errorf("history of %s: %w", r.ID, err)
	}
	if len(hp.Contests) == 0 {
		return RivalryView{}, fmt.Errorf("%w: %s", ErrNothingToUndo, r.ID)
	}
	last := hp.Contests[0]

	out, err := s.resolver.Undo(ctx, lists[model.SideA], lists[model.SideB], last)
	if err != nil {
		return RivalryView{}, fmt.Errorf("undo contest %s: %w", last.ID, err)
	}
	s.logWarnings(ctx, "contest undone with warnings", out.Warnings, logger.String("contest_id", last.ID))

	for _, side := range []model.Side{model.SideA, model.SideB} {
		if err := s.persistSlots(ctx, out.List(side)); err != nil {
			return RivalryView{}, err
		}
		s.revertFighterStats(ctx, lists[side], last, side)
	}

	zero, open := 0, false
	reopened, err := outcome(s.store.Contests().Update(ctx, last.ID, model.ContestPatch{Result: &zero, Resolved: &open}))
	if err != nil {
		return RivalryView{}, fmt.Errorf("reopen contest %s: %w", last.ID, err)
	}
	if r.CurrentContestID != "" && r.CurrentContestID != last.ID {
		if err := s.store.Contests().Delete(ctx, r.CurrentContestID); err != nil {
			s.logger.Warn(ctx, "discarding replaced contest failed", logger.String("contest_id", r.CurrentContestID), logger.Error(err))
		}
	}
	count := max(r.ContestCount-1, 0)
	id := reopened.ID
	r, err = outcome(s.store.Rivalries().Update(ctx, r.ID, model.RivalryPatch{CurrentContestID: &id, ContestCount: &count}))
	if err != nil {
		return RivalryView{}, fmt.Errorf("reopen rivalry contest: %w", err)
	}

	metrics.RecordContestUndone()
	s.logger.Info(ctx, "contest undone", logger.String("rivalry_id", r.ID), logger.String("contest_id", last.ID))
	return s.rivalryView(ctx, r, [2]model.TierList{out.A, out.B}, &reopened), nil
}

// revertFighterStats takes back the global counters a non-provisional Slot earned.
func (s *Service) revertFighterStats(ctx context.Context, before model.TierList, c model.Contest, side model.Side) {
	i := before.SlotByID(c.SlotID(side))
	if i < 0 || before.Slots[i].ContestCount < s.provisionalThreshold {
		return
	}
	wins := 0
	if w, _ := c.Winner(); w == side {
		wins = -1
	}
	if err := s.store.IncrementFighterStats(ctx, before.Slots[i].FighterID, -1, wins); err != nil {
		s.logger.Warn(ctx, "fighter stats revert failed", logger.String("fighter_id", before.Slots[i].FighterID), logger.Error(err))
	}
}

// ShuffleContest resamples one side of the open contest, avoiding the current pick.
func (s *Service) ShuffleContest(ctx context.Context, rivalryID string, side model.Side) (RivalryView, error) {
	if err := s.ready(); err != nil {
		return RivalryView{}, err
	}
	unlock := s.locks.Lock("rivalry:" + rivalryID)
	defer unlock()

	r, lists, err := s.loadRivalry(ctx, rivalryID)
	if err != nil {
		return RivalryView{}, err
	}
	c, err := s.currentContest(ctx, r)
	if err != nil {
		return RivalryView{}, err
	}
	c, rung, err := s.resampleSide(ctx, r, c, lists[side], side)
	if err != nil {
		return RivalryView{}, err
	}

	s.logger.Info(ctx, "contest shuffled",
		logger.String("rivalry_id", r.ID),
		logger.String("side", side.String()),
		logger.String("rung", rung.String()))
	return s.rivalryView(ctx, r, lists, &c), nil
}

// resampleSide draws a new Slot for side of the open contest c from tl and
// stores it. The caller holds the rivalry lock.
func (s *Service) resampleSide(ctx context.Context, r model.Rivalry, c model.Contest, tl model.TierList, side model.Side) (model.Contest, sampler.Rung, error) {
	history, err := s.history(ctx, r.ID)
	if err != nil {
		return model.Contest{}, sampler.Rung{}, err
	}
	slot, rung, err := s.sampler.Pick(ctx, tl, &sampler.Context{
		Side:            side,
		ActiveContestID: c.ID,
		ActiveSlotID:    c.SlotID(side),
		History:         history,
	})
	if err != nil {
		return model.Contest{}, sampler.Rung{}, fmt.Errorf("resample side %s: %w", side, err)
	}

	patch := model.ContestPatch{SlotAID: &slot.ID}
	if side == model.SideB {
		patch = model.ContestPatch{SlotBID: &slot.ID}
	}
	updated, err := outcome(s.store.Contests().Update(ctx, c.ID, patch))
	if err != nil {
		return model.Contest{}, sampler.Rung{}, fmt.Errorf("update contest %s: %w", c.ID, err)
	}
	return updated, rung, nil
}
