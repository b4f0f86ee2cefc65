// Package sampler picks the next contestant Slot for one side of a rivalry.
//
// Unranked Slots are drawn first while the current tier band is under-filled.
// Otherwise the pick avoids Slots this side used recently, relaxing the
// lookback window rung by rung until a candidate exists.
package sampler

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/rivalry/internal/domain/model"
	"github.com/okian/rivalry/internal/domain/tierlist"
	"github.com/okian/rivalry/pkg/logger"
	"github.com/okian/rivalry/pkg/metrics"
)

const (
	defaultWindow = 30
	defaultStep   = 5
)

// Stage names the step of the selection that produced a pick.
type Stage string

const (
	StageNoContext     Stage = "no_context"
	StageUnranked      Stage = "unranked"
	StageWindow        Stage = "window"
	StageActiveOnly    Stage = "active_only"
	StageUnconstrained Stage = "unconstrained"
	StageAllSlots      Stage = "all_slots"
)

// Rung reports where a pick came from. Window is set for StageWindow only.
type Rung struct {
	Stage  Stage
	Window int
}

func (r Rung) String() string {
	if r.Stage == StageWindow {
		return fmt.Sprintf("window_%d", r.Window)
	}
	return string(r.Stage)
}

// Context is the rivalry state the sampler reads. A nil Context makes the
// sampler fall back to a uniform draw over all Slots.
type Context struct {
	Side model.Side
	// ActiveContestID and ActiveSlotID describe the contest being replaced or resampled.
	ActiveContestID string
	ActiveSlotID    string
	// History holds the rivalry's contests newest first. Unresolved contests
	// and the active one are ignored.
	History []model.Contest
}

// Windows returns the lookback ladder start, start-step, ... down to the last positive value.
func Windows(start, step int) []int {
	if step <= 0 {
		return []int{start}
	}
	var out []int
	for w := start; w > 0; w -= step {
		out = append(out, w)
	}
	return out
}

// Sampler is safe for concurrent use.
type Sampler struct {
	engine *tierlist.Engine
	ladder []int
	log    logger.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Sampler bound to engine's geometry.
func New(engine *tierlist.Engine, opts ...Option) *Sampler {
	s := &Sampler{
		engine: engine,
		ladder: Windows(defaultWindow, defaultStep),
		log:    logger.Nop(),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // matchmaking, not crypto
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ladder returns a copy of the lookback windows in the order they are tried.
func (s *Sampler) Ladder() []int {
	out := make([]int, len(s.ladder))
	copy(out, s.ladder)
	return out
}

// Pick chooses a Slot from tl. It only fails for a TierList without Slots.
func (s *Sampler) Pick(ctx context.Context, tl model.TierList, sc *Context) (model.Slot, Rung, error) {
	if len(tl.Slots) == 0 {
		return model.Slot{}, Rung{}, fmt.Errorf("%w: %s", ErrEmptyTierList, tl.ID)
	}

	slot, rung := s.pick(ctx, tl, sc)
	metrics.RecordSamplerPick(rung.String())
	s.log.Debug(ctx, "contestant sampled",
		logger.String("tier_list_id", tl.ID),
		logger.String("slot_id", slot.ID),
		logger.String("rung", rung.String()))
	return slot, rung, nil
}

func (s *Sampler) pick(ctx context.Context, tl model.TierList, sc *Context) (model.Slot, Rung) {
	if sc == nil {
		s.log.Warn(ctx, "sampling without rivalry context", logger.String("tier_list_id", tl.ID))
		return s.choose(tl.Slots), Rung{Stage: StageNoContext}
	}

	eligible := s.engine.EligibleSlots(tl)

	// Compared against the base band size, not the current band's real
	// capacity, so the last (larger) band counts as full at BaseCapacity.
	if len(eligible) < s.engine.Geometry().BaseCapacity() {
		if unranked := tierlist.UnrankedSlots(tl); len(unranked) > 0 {
			if rest := without(unranked, idSet(sc.ActiveSlotID)); len(rest) > 0 {
				unranked = rest
			}
			return s.choose(unranked), Rung{Stage: StageUnranked}
		}
	}

	recent := recentSlotIDs(sc)
	for _, w := range s.ladder {
		n := w
		if n > len(recent) {
			n = len(recent)
		}
		avoid := idSet(sc.ActiveSlotID)
		for _, id := range recent[:n] {
			avoid[id] = struct{}{}
		}
		if cands := without(eligible, avoid); len(cands) > 0 {
			return s.choose(cands), Rung{Stage: StageWindow, Window: w}
		}
	}

	if sc.ActiveSlotID != "" {
		if cands := without(eligible, idSet(sc.ActiveSlotID)); len(cands) > 0 {
			return s.choose(cands), Rung{Stage: StageActiveOnly}
		}
	}
	if len(eligible) > 0 {
		return s.choose(eligible), Rung{Stage: StageUnconstrained}
	}

	// Nothing ranked in the band and nothing unranked to fill it.
	s.log.Warn(ctx, "current tier band is empty, sampling all slots",
		logger.String("tier_list_id", tl.ID),
		logger.Int("standing", tl.Standing))
	return s.choose(tl.Slots), Rung{Stage: StageAllSlots}
}

// recentSlotIDs lists this side's Slot ids from resolved contests, newest first.
func recentSlotIDs(sc *Context) []string {
	out := make([]string, 0, len(sc.History))
	for _, c := range sc.History {
		if !c.Resolved || c.ID == sc.ActiveContestID {
			continue
		}
		out = append(out, c.SlotID(sc.Side))
	}
	return out
}

func idSet(ids ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			m[id] = struct{}{}
		}
	}
	return m
}

func without(slots []model.Slot, avoid map[string]struct{}) []model.Slot {
	if len(avoid) == 0 {
		return slots
	}
	out := make([]model.Slot, 0, len(slots))
	for _, sl := range slots {
		if _, skip := avoid[sl.ID]; !skip {
			out = append(out, sl)
		}
	}
	return out
}

func (s *Sampler) choose(slots []model.Slot) model.Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slots[s.rng.Intn(len(slots))]
}
