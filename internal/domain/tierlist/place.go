package tierlist

import (
	"context"
	"fmt"

	"github.com/okian/rivalry/internal/domain/model"
	"github.com/okian/rivalry/pkg/logger"
	"github.com/okian/rivalry/pkg/metrics"
)

// PlaceAt puts the Slot with slotID at target, clamped to [0, N-1]. The Slot's
// own position is cleared first. When target is taken, the run of occupied
// positions below it is shifted one step toward 0 into the first gap found
// scanning down from target-1. If no gap exists below, the run above target
// is shifted away from 0 instead. A full list is an integrity violation and
// is returned unchanged.
func (e *Engine) PlaceAt(ctx context.Context, tl model.TierList, slotID string, target int) (model.TierList, error) {
	idx := tl.SlotByID(slotID)
	if idx < 0 {
		e.log.Warn(ctx, "slot not found for placement",
			logger.String("tier_list_id", tl.ID),
			logger.String("slot_id", slotID))
		return tl, fmt.Errorf("%w: %s", ErrSlotNotFound, slotID)
	}

	out := tl.Clone()
	out.Slots[idx].Clear()
	target = e.geo.Clamp(target)

	occupied := make(map[int]int, len(out.Slots))
	for i, s := range out.Slots {
		if p, ok := s.Pos(); ok {
			occupied[p] = i
		}
	}

	if _, taken := occupied[target]; taken {
		if !e.openGap(out.Slots, occupied, target) {
			e.log.Error(ctx, "no free position for placement",
				logger.String("tier_list_id", tl.ID),
				logger.String("slot_id", slotID),
				logger.Int("target", target))
			metrics.RecordIntegrityViolation("placer")
			return tl, fmt.Errorf("%w: tier list %s is full", ErrIntegrityViolation, tl.ID)
		}
	}

	out.Slots[idx].Position = model.Ranked(target)
	SortSlots(out.Slots)
	metrics.RecordPlacement("explicit")
	e.log.Debug(ctx, "slot placed",
		logger.String("tier_list_id", tl.ID),
		logger.String("slot_id", slotID),
		logger.Int("position", target))
	return out, nil
}

// PlaceAtBottom benches a Slot at N-1.
func (e *Engine) PlaceAtBottom(ctx context.Context, tl model.TierList, slotID string) (model.TierList, error) {
	return e.PlaceAt(ctx, tl, slotID, e.geo.MaxPosition())
}

func (e *Engine) openGap(slots []model.Slot, occupied map[int]int, target int) bool {
	for empty := target - 1; empty >= 0; empty-- {
		if _, taken := occupied[empty]; taken {
			continue
		}
		for p := empty + 1; p <= target; p++ {
			slots[occupied[p]].Position = model.Ranked(p - 1)
		}
		return true
	}
	for empty := target + 1; empty <= e.geo.MaxPosition(); empty++ {
		if _, taken := occupied[empty]; taken {
			continue
		}
		for p := empty - 1; p >= target; p-- {
			slots[occupied[p]].Position = model.Ranked(p + 1)
		}
		return true
	}
	return false
}
