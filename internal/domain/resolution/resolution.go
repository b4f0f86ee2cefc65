// Package resolution applies a contest result to both TierLists of a rivalry
// in memory: unranked contestants are placed relative to their opponent, then
// both Slots move by the result's step count. Nothing is written here; the
// caller persists the returned lists once both are complete.
package resolution

import (
	"context"
	"fmt"

	"github.com/okian/rivalry/internal/domain/model"
	"github.com/okian/rivalry/internal/domain/tierlist"
	"github.com/okian/rivalry/pkg/logger"
	"github.com/okian/rivalry/pkg/metrics"
)

const (
	defaultStepsPerPoint        = 3
	defaultPlacementBias        = 14
	defaultProvisionalThreshold = 10
)

// FighterStat is a global fighter counter update earned by a non-provisional Slot.
type FighterStat struct {
	FighterID string
	Won       bool
}

// Outcome is the in-memory result of resolving or undoing a contest.
type Outcome struct {
	A, B  model.TierList
	Moves [2]tierlist.Move
	// Shifts is To-From of each side's adjustment, clamping included. Undo
	// reverses exactly this when the contest carries it.
	Shifts [2]int
	// Placed holds the Slot ids that were unranked and got a position first.
	Placed []string
	// Fighters lists global counter updates; empty on undo.
	Fighters []FighterStat
	// Warnings carries non-fatal diagnostics, e.g. ErrNoOccupant or integrity violations.
	Warnings []error
}

// List returns the outcome's TierList for side.
func (o Outcome) List(s model.Side) model.TierList {
	if s == model.SideA {
		return o.A
	}
	return o.B
}

// Resolver holds the tuning for contest resolution.
type Resolver struct {
	engine               *tierlist.Engine
	stepsPerPoint        int
	placementBias        int
	provisionalThreshold int
	maxResult            int
	log                  logger.Logger
}

// New creates a Resolver on engine.
func New(engine *tierlist.Engine, opts ...Option) *Resolver {
	r := &Resolver{
		engine:               engine,
		stepsPerPoint:        defaultStepsPerPoint,
		placementBias:        defaultPlacementBias,
		provisionalThreshold: defaultProvisionalThreshold,
		log:                  logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.maxResult <= 0 {
		r.maxResult = engine.Geometry().MaxPosition()
	}
	return r
}

// MaxResult is the largest score lead Resolve accepts.
func (r *Resolver) MaxResult() int { return r.maxResult }

func (r *Resolver) checkResult(c model.Contest) error {
	if c.Result == 0 {
		return fmt.Errorf("%w: contest %s", ErrDraw, c.ID)
	}
	if c.Result > r.maxResult || c.Result < -r.maxResult {
		return fmt.Errorf("%w: %d outside [-%d, %d]", ErrResultOutOfRange, c.Result, r.maxResult, r.maxResult)
	}
	return nil
}

// Steps converts a result into adjuster steps for side. Side A moves toward 0
// when result > 0, side B moves away from it.
func (r *Resolver) Steps(result int, side model.Side) int {
	steps := result * r.stepsPerPoint
	if side == model.SideA {
		return -steps
	}
	return steps
}

// Midpoint is the stand-in opponent position when the opponent is unranked too.
func (r *Resolver) Midpoint() int {
	return r.engine.Geometry().MaxPosition() / 2
}

// Resolve applies c.Result to a (side A) and b (side B). The inputs are not modified.
func (r *Resolver) Resolve(ctx context.Context, a, b model.TierList, c model.Contest) (Outcome, error) {
	if err := r.checkResult(c); err != nil {
		return Outcome{}, err
	}
	winner, _ := c.Winner()
	lists := [2]model.TierList{a, b}
	idx := [2]int{a.SlotByID(c.SlotAID), b.SlotByID(c.SlotBID)}
	for s, i := range idx {
		if i < 0 {
			return Outcome{}, fmt.Errorf("%w: side %s slot %s", ErrContestantMissing, model.Side(s), c.SlotID(model.Side(s)))
		}
	}

	out := Outcome{}
	loser := winner.Other()
	offset := abs(c.Result) * r.placementBias

	// Winner first: the loser's placement reads the winner's new position.
	for _, side := range []model.Side{winner, loser} {
		slot := lists[side].Slots[lists[side].SlotByID(c.SlotID(side))]
		if slot.Ranked() {
			continue
		}
		enemy := lists[side.Other()].Slots[lists[side.Other()].SlotByID(c.SlotID(side.Other()))]
		enemyPos, ok := enemy.Pos()
		if !ok {
			enemyPos = r.Midpoint()
		}
		target := enemyPos + offset
		if side == winner {
			target = enemyPos - offset
		}
		placed, err := r.engine.PlaceAt(ctx, lists[side], slot.ID, target)
		if err != nil {
			return Outcome{}, fmt.Errorf("place unranked contestant: %w", err)
		}
		lists[side] = placed
		out.Placed = append(out.Placed, slot.ID)
		metrics.RecordPlacement("unranked_contestant")
		r.log.Info(ctx, "unranked contestant placed",
			logger.String("contest_id", c.ID),
			logger.String("side", side.String()),
			logger.String("slot_id", slot.ID),
			logger.Int("enemy_position", enemyPos),
			logger.Int("target", target))
	}

	for _, side := range []model.Side{model.SideA, model.SideB} {
		tl := lists[side]
		from, _ := tl.Slots[tl.SlotByID(c.SlotID(side))].Pos()
		adjusted, mv, err := r.engine.AdjustBySteps(ctx, tl, from, r.Steps(c.Result, side), true)
		if err != nil {
			out.Warnings = append(out.Warnings, err)
		}
		lists[side] = adjusted
		out.Moves[side] = mv
		out.Shifts[side] = mv.To - mv.From

		moved := adjusted.Slots[adjusted.SlotByID(c.SlotID(side))]
		if moved.ContestCount >= r.provisionalThreshold {
			out.Fighters = append(out.Fighters, FighterStat{FighterID: moved.FighterID, Won: side == winner})
		}
	}

	out.A, out.B = lists[model.SideA], lists[model.SideB]
	return out, nil
}

// Undo reverses the moves of a resolved contest without counting a contest,
// then takes the contest back off both Slots' counters. Slots placed from
// unranked keep their position. A recorded shift is reversed as is; without
// one the nominal step count is used, which does not undo a clamped move.
func (r *Resolver) Undo(ctx context.Context, a, b model.TierList, c model.Contest) (Outcome, error) {
	if err := r.checkResult(c); err != nil {
		return Outcome{}, err
	}
	winner, _ := c.Winner()
	lists := [2]model.TierList{a, b}
	out := Outcome{}

	for _, side := range []model.Side{model.SideA, model.SideB} {
		tl := lists[side]
		i := tl.SlotByID(c.SlotID(side))
		if i < 0 {
			return Outcome{}, fmt.Errorf("%w: side %s slot %s", ErrContestantMissing, side, c.SlotID(side))
		}
		from, ranked := tl.Slots[i].Pos()
		if !ranked {
			out.Warnings = append(out.Warnings, fmt.Errorf("%w: slot %s is unranked", tierlist.ErrNoOccupant, tl.Slots[i].ID))
			continue
		}
		steps := -r.Steps(c.Result, side)
		if shift, ok := c.Shift(side); ok {
			steps = -shift
		}
		adjusted, mv, err := r.engine.AdjustBySteps(ctx, tl, from, steps, false)
		if err != nil {
			out.Warnings = append(out.Warnings, err)
		}
		j := adjusted.SlotByID(c.SlotID(side))
		if adjusted.Slots[j].ContestCount > 0 {
			adjusted.Slots[j].ContestCount--
		}
		if side == winner && adjusted.Slots[j].WinCount > 0 {
			adjusted.Slots[j].WinCount--
		}
		lists[side] = adjusted
		out.Moves[side] = mv
		out.Shifts[side] = mv.To - mv.From
	}

	out.A, out.B = lists[model.SideA], lists[model.SideB]
	return out, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
