// Package audit reconciles a TierList's Slots with the game roster: one Slot
// per fighter, duplicates removed, missing fighters backfilled as unranked.
package audit

import (
	"context"

	"github.com/google/uuid"

	"github.com/okian/rivalry/internal/domain/model"
	"github.com/okian/rivalry/pkg/logger"
)

// Report lists the repairs for one TierList.
type Report struct {
	TierListID string `json:"tier_list_id"`
	// Delete holds duplicate Slots to remove.
	Delete []model.Slot `json:"delete"`
	// Create holds new unranked Slots for roster fighters without one.
	Create []model.Slot `json:"create"`
	// Orphans are Slots whose fighter is not on the roster. They are left in place.
	Orphans []model.Slot `json:"orphans"`
}

// Changed reports whether the audit found anything to repair.
func (r Report) Changed() bool { return len(r.Delete) > 0 || len(r.Create) > 0 }

// Apply returns tl with the report's deletions and creations applied.
func (r Report) Apply(tl model.TierList) model.TierList {
	drop := make(map[string]struct{}, len(r.Delete))
	for _, s := range r.Delete {
		drop[s.ID] = struct{}{}
	}
	out := tl.Clone()
	out.Slots = out.Slots[:0]
	for _, s := range tl.Slots {
		if _, gone := drop[s.ID]; !gone {
			out.Slots = append(out.Slots, s)
		}
	}
	out.Slots = append(out.Slots, r.Create...)
	return out
}

// Auditor computes Reports.
type Auditor struct {
	newID func() string
	log   logger.Logger
}

// New creates an Auditor.
func New(opts ...Option) *Auditor {
	a := &Auditor{newID: uuid.NewString, log: logger.Nop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Audit inspects tl against roster. It does not modify tl. Running it on the
// result of Report.Apply yields an unchanged Report.
func (a *Auditor) Audit(ctx context.Context, tl model.TierList, roster []model.Fighter) Report {
	rep := Report{TierListID: tl.ID}

	onRoster := make(map[string]struct{}, len(roster))
	for _, f := range roster {
		onRoster[f.ID] = struct{}{}
	}

	byFighter := make(map[string][]model.Slot, len(tl.Slots))
	order := make([]string, 0, len(tl.Slots))
	for _, s := range tl.Slots {
		if _, seen := byFighter[s.FighterID]; !seen {
			order = append(order, s.FighterID)
		}
		byFighter[s.FighterID] = append(byFighter[s.FighterID], s)
	}

	for _, fighterID := range order {
		group := byFighter[fighterID]
		keep := keeper(group)
		for i, s := range group {
			if i != keep {
				rep.Delete = append(rep.Delete, s)
			}
		}
		if _, ok := onRoster[fighterID]; !ok {
			rep.Orphans = append(rep.Orphans, group[keep])
		}
	}

	for _, f := range roster {
		if _, ok := byFighter[f.ID]; ok {
			continue
		}
		rep.Create = append(rep.Create, model.Slot{
			ID:         a.newID(),
			TierListID: tl.ID,
			FighterID:  f.ID,
			Position:   model.Unranked(),
		})
	}

	if rep.Changed() || len(rep.Orphans) > 0 {
		a.log.Info(ctx, "tier list audit found repairs",
			logger.String("tier_list_id", tl.ID),
			logger.Int("duplicates", len(rep.Delete)),
			logger.Int("missing", len(rep.Create)),
			logger.Int("orphans", len(rep.Orphans)))
	}
	return rep
}

// keeper picks the Slot to keep among one fighter's Slots: a ranked one
// first, otherwise the one with the most contests. Earlier Slots win ties.
func keeper(group []model.Slot) int {
	best := 0
	for i := 1; i < len(group); i++ {
		if better(group[i], group[best]) {
			best = i
		}
	}
	return best
}

func better(a, b model.Slot) bool {
	if a.Ranked() != b.Ranked() {
		return a.Ranked()
	}
	return a.ContestCount > b.ContestCount
}
