package tierlist

import (
	"context"
	"fmt"

	"github.com/okian/rivalry/internal/domain/model"
	"github.com/okian/rivalry/pkg/logger"
	"github.com/okian/rivalry/pkg/metrics"
)

// Mode names the ordering regime the adjuster ran in.
type Mode string

const (
	// ModeDense runs when every Slot is ranked; positions are reindexed 0..len-1.
	ModeDense Mode = "dense"
	// ModeSparse runs when some Slot is unranked; gaps are kept.
	ModeSparse Mode = "sparse"
)

// Move describes what AdjustBySteps did.
type Move struct {
	SlotID string `json:"slot_id"`
	Mode   Mode   `json:"mode"`
	From   int    `json:"from"`
	To     int    `json:"to"`
}

// AdjustBySteps moves the Slot ranked at from by steps. Negative steps move
// toward 0 and count as a win. With trackStats the moved Slot's contest count
// goes up by one, and its win count too when steps < 0.
//
// A missing occupant is not fatal: the list comes back unchanged with
// ErrNoOccupant. Out-of-range results are logged and returned wrapped in
// ErrIntegrityViolation alongside the adjusted list.
func (e *Engine) AdjustBySteps(ctx context.Context, tl model.TierList, from, steps int, trackStats bool) (model.TierList, Move, error) {
	idx := tl.SlotAt(from)
	if idx < 0 {
		e.log.Warn(ctx, "no slot at position",
			logger.String("tier_list_id", tl.ID),
			logger.Int("position", from),
			logger.Int("steps", steps))
		return tl, Move{}, fmt.Errorf("%w: %d in tier list %s", ErrNoOccupant, from, tl.ID)
	}

	out := tl.Clone()
	slotID := out.Slots[idx].ID
	if trackStats {
		out.Slots[idx].ContestCount++
		if steps < 0 {
			out.Slots[idx].WinCount++
		}
	}

	mode := ModeSparse
	if IsDense(out) {
		mode = ModeDense
		e.adjustDense(out.Slots, slotID, steps)
	} else {
		e.adjustSparse(out.Slots, idx, from, steps)
	}

	to, _ := out.Slots[out.SlotByID(slotID)].Pos()
	mv := Move{SlotID: slotID, Mode: mode, From: from, To: to}
	metrics.RecordSlotMove(string(mode))
	e.log.Debug(ctx, "slot moved",
		logger.String("tier_list_id", tl.ID),
		logger.String("slot_id", slotID),
		logger.String("mode", string(mode)),
		logger.Int("from", from),
		logger.Int("to", to))

	return out, mv, e.reportViolations(ctx, out, "adjuster")
}

// adjustDense sorts, splices the Slot out, reinserts it steps away and
// reassigns positions by index. slots is modified in place.
func (e *Engine) adjustDense(slots []model.Slot, slotID string, steps int) {
	SortSlots(slots)

	var moved model.Slot
	rest := make([]model.Slot, 0, len(slots)-1)
	oldIndex := 0
	for i, s := range slots {
		if s.ID == slotID {
			moved, oldIndex = s, i
			continue
		}
		rest = append(rest, s)
	}

	at := oldIndex + steps
	if at < 0 {
		at = 0
	}
	if at > len(rest) {
		at = len(rest)
	}

	copy(slots, rest[:at])
	slots[at] = moved
	copy(slots[at+1:], rest[at:])
	for i := range slots {
		slots[i].Position = model.Ranked(i)
	}
}

// adjustSparse moves slots[idx] from from to clamp(from+steps) and shifts the
// ranked Slots lying between the landing spot and the vacated position by one
// toward the vacated side. Nothing else moves.
func (e *Engine) adjustSparse(slots []model.Slot, idx, from, steps int) {
	to := e.geo.Clamp(from + steps)
	if to == from {
		return
	}
	for i := range slots {
		if i == idx {
			continue
		}
		p, ok := slots[i].Pos()
		if !ok {
			continue
		}
		switch {
		case to < from && p >= to && p < from:
			slots[i].Position = model.Ranked(p + 1)
		case to > from && p > from && p <= to:
			slots[i].Position = model.Ranked(p - 1)
		}
	}
	slots[idx].Position = model.Ranked(to)
}
