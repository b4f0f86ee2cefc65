package service

import (
	"context"
	"fmt"

	"github.com/okian/rivalry/internal/domain/model"
	"github.com/okian/rivalry/internal/domain/tierlist"
	"github.com/okian/rivalry/pkg/logger"
	"github.com/okian/rivalry/pkg/metrics"
)

// lockTierList reads the TierList header to find its rivalry, takes that
// rivalry's lock, and loads the full TierList under it.
func (s *Service) lockTierList(ctx context.Context, id string) (model.TierList, func(), error) {
	head, err := outcome(s.store.TierLists().Get(ctx, id))
	if err != nil {
		return model.TierList{}, nil, fmt.Errorf("tier list %s: %w", id, err)
	}
	unlock := s.locks.Lock(lockKey(head))
	tl, err := s.loadTierList(ctx, id)
	if err != nil {
		unlock()
		return model.TierList{}, nil, err
	}
	return tl, unlock, nil
}

// BenchSlot sends a Slot to the last position, N-1, so the sampler does not
// draw it again soon. When N-1 is taken, the run of occupied positions above
// it shifts one step toward 0 into the nearest gap.
func (s *Service) BenchSlot(ctx context.Context, tierListID, slotID string) (TierListView, error) {
	if err := s.ready(); err != nil {
		return TierListView{}, err
	}
	tl, unlock, err := s.lockTierList(ctx, tierListID)
	if err != nil {
		return TierListView{}, err
	}
	defer unlock()

	out, err := s.engine.PlaceAtBottom(ctx, tl, slotID)
	if err != nil {
		return TierListView{}, fmt.Errorf("bench slot %s in %s: %w", slotID, tierListID, err)
	}
	if err := s.persistSlots(ctx, out); err != nil {
		return TierListView{}, err
	}
	metrics.RecordPlacement("bench")
	s.logger.Info(ctx, "slot benched",
		logger.String("tier_list_id", tl.ID),
		logger.String("slot_id", slotID),
		logger.Int("position", s.engine.Geometry().MaxPosition()))
	return s.tierListView(out, s.rosterNames(ctx, out.GameID)), nil
}

// PlaceSlot moves a Slot to position, shifting neighbours to keep positions unique.
func (s *Service) PlaceSlot(ctx context.Context, tierListID, slotID string, position int) (TierListView, error) {
	if err := s.ready(); err != nil {
		return TierListView{}, err
	}
	tl, unlock, err := s.lockTierList(ctx, tierListID)
	if err != nil {
		return TierListView{}, err
	}
	defer unlock()

	out, err := s.engine.PlaceAt(ctx, tl, slotID, position)
	if err != nil {
		return TierListView{}, fmt.Errorf("place slot %s: %w", slotID, err)
	}
	if err := s.persistSlots(ctx, out); err != nil {
		return TierListView{}, err
	}
	metrics.RecordPlacement("manual")
	s.logger.Info(ctx, "slot placed",
		logger.String("tier_list_id", tl.ID),
		logger.String("slot_id", slotID),
		logger.Int("position", position))
	return s.tierListView(out, s.rosterNames(ctx, out.GameID)), nil
}

// ShiftStanding promotes (delta < 0) or demotes (delta > 0) a TierList by
// |delta| tiers. Promotion past standing 0 fails and nothing is written.
func (s *Service) ShiftStanding(ctx context.Context, tierListID string, delta int) (TierListView, error) {
	if err := s.ready(); err != nil {
		return TierListView{}, err
	}
	tl, unlock, err := s.lockTierList(ctx, tierListID)
	if err != nil {
		return TierListView{}, err
	}
	defer unlock()

	if tl.Standing+delta < 0 {
		return TierListView{}, fmt.Errorf("%w: standing %d, delta %d", ErrInvalidStanding, tl.Standing, delta)
	}
	out := tl
	for ; delta < 0; delta++ {
		out, _ = tierlist.Promote(out)
	}
	for ; delta > 0; delta-- {
		out = tierlist.Demote(out)
	}

	standing := out.Standing
	if _, err := outcome(s.store.TierLists().Update(ctx, tl.ID, model.TierListPatch{Standing: &standing})); err != nil {
		return TierListView{}, fmt.Errorf("update standing of %s: %w", tl.ID, err)
	}
	s.logger.Info(ctx, "standing changed",
		logger.String("tier_list_id", tl.ID),
		logger.Int("from", tl.Standing),
		logger.Int("to", standing),
		logger.String("title", s.engine.PrestigeDisplay(out)))
	return s.tierListView(out, s.rosterNames(ctx, out.GameID)), nil
}
