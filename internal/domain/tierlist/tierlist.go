// Package tierlist holds the pure functions over a model.TierList: tier and
// prestige queries, the position adjuster and the unknown-slot placer.
// Functions never mutate their input; they return a modified clone.
package tierlist

import (
	"context"
	"fmt"
	"sort"

	"github.com/okian/rivalry/internal/domain/model"
	"github.com/okian/rivalry/internal/domain/tier"
	"github.com/okian/rivalry/pkg/logger"
	"github.com/okian/rivalry/pkg/metrics"
)

// Engine binds the pure functions to a tier geometry and a logger.
type Engine struct {
	geo tier.Geometry
	log logger.Logger
}

// NewEngine builds an Engine for geo.
func NewEngine(geo tier.Geometry, opts ...Option) *Engine {
	e := &Engine{geo: geo, log: logger.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Geometry returns the engine's tier geometry.
func (e *Engine) Geometry() tier.Geometry { return e.geo }

// CurrentTier is standing mod T.
func (e *Engine) CurrentTier(tl model.TierList) int {
	return tl.Standing % e.geo.TierCount()
}

// Prestige is standing / T, the number of completed passes through every tier.
func (e *Engine) Prestige(tl model.TierList) int {
	return tl.Standing / e.geo.TierCount()
}

// Title is the current tier's label.
func (e *Engine) Title(tl model.TierList) string {
	return e.geo.Tier(e.CurrentTier(tl)).Label
}

// PrestigeDisplay renders "(S)", "(S+)" or "(S+n)".
func (e *Engine) PrestigeDisplay(tl model.TierList) string {
	title := e.Title(tl)
	switch p := e.Prestige(tl); {
	case p <= 0:
		return "(" + title + ")"
	case p == 1:
		return "(" + title + "+)"
	default:
		return fmt.Sprintf("(%s+%d)", title, p)
	}
}

// EligibleSlots returns the ranked Slots inside the current tier band.
func (e *Engine) EligibleSlots(tl model.TierList) []model.Slot {
	start, end := e.geo.Band(e.CurrentTier(tl))
	out := make([]model.Slot, 0, end-start)
	for _, s := range tl.Slots {
		if p, ok := s.Pos(); ok && p >= start && p < end {
			out = append(out, s)
		}
	}
	return out
}

// UnrankedSlots returns every Slot without a position.
func UnrankedSlots(tl model.TierList) []model.Slot {
	var out []model.Slot
	for _, s := range tl.Slots {
		if !s.Ranked() {
			out = append(out, s)
		}
	}
	return out
}

// IsDense reports whether every Slot is ranked.
func IsDense(tl model.TierList) bool {
	for _, s := range tl.Slots {
		if !s.Ranked() {
			return false
		}
	}
	return true
}

// Promote moves one tier toward S. It fails at standing 0.
func Promote(tl model.TierList) (model.TierList, bool) {
	if tl.Standing <= 0 {
		return tl, false
	}
	out := tl.Clone()
	out.Standing--
	metrics.RecordStandingChange("promote")
	return out, true
}

// Demote moves one tier away from S. Past the last tier it wraps into the next prestige.
func Demote(tl model.TierList) model.TierList {
	out := tl.Clone()
	out.Standing++
	metrics.RecordStandingChange("demote")
	return out
}

// ChangedSlots returns the Slots whose position or counters differ from the
// loaded baseline. Slots absent from the baseline are reported as changed.
// Without a baseline every Slot is returned.
func ChangedSlots(tl model.TierList) []model.Slot {
	var out []model.Slot
	for _, s := range tl.Slots {
		base, ok := tl.Loaded(s.ID)
		if !ok || base.Position != s.Position || base.ContestCount != s.ContestCount || base.WinCount != s.WinCount {
			out = append(out, s)
		}
	}
	return out
}

// SortSlots orders Slots by position with unranked Slots last. Ties keep their order.
func SortSlots(slots []model.Slot) {
	sort.SliceStable(slots, func(i, j int) bool {
		pi, oki := slots[i].Pos()
		pj, okj := slots[j].Pos()
		switch {
		case oki && okj:
			return pi < pj
		case oki:
			return true
		default:
			return false
		}
	})
}

// Validate checks uniqueness and bounds of ranked positions.
func (e *Engine) Validate(tl model.TierList) error {
	seen := make(map[int]string, len(tl.Slots))
	for _, s := range tl.Slots {
		p, ok := s.Pos()
		if !ok {
			continue
		}
		if !e.geo.InBounds(p) {
			return fmt.Errorf("%w: slot %s at position %d outside [0,%d]", ErrIntegrityViolation, s.ID, p, e.geo.MaxPosition())
		}
		if other, dup := seen[p]; dup {
			return fmt.Errorf("%w: slots %s and %s share position %d", ErrIntegrityViolation, other, s.ID, p)
		}
		seen[p] = s.ID
	}
	return nil
}

// reportViolations logs and counts every out-of-range ranked position.
func (e *Engine) reportViolations(ctx context.Context, tl model.TierList, component string) error {
	var first error
	for _, s := range tl.Slots {
		p, ok := s.Pos()
		if !ok || e.geo.InBounds(p) {
			continue
		}
		e.log.Error(ctx, "invalid position",
			logger.String("tier_list_id", tl.ID),
			logger.String("slot_id", s.ID),
			logger.Int("position", p),
			logger.Int("max_position", e.geo.MaxPosition()))
		metrics.RecordIntegrityViolation(component)
		if first == nil {
			first = fmt.Errorf("%w: slot %s at position %d", ErrIntegrityViolation, s.ID, p)
		}
	}
	return first
}
