package service

import (
	"github.com/okian/rivalry/internal/domain/model"
	"github.com/okian/rivalry/internal/domain/tier"
	"github.com/okian/rivalry/internal/domain/tierlist"
)

// SlotView is a Slot with its display fields.
type SlotView struct {
	model.Slot
	FighterName string `json:"fighter_name,omitempty"`
	Tier        string `json:"tier"`
}

// TierListView is a TierList with its standing rendered.
type TierListView struct {
	ID            string      `json:"id"`
	RivalryID     string      `json:"rivalry_id"`
	GameID        string      `json:"game_id"`
	ParticipantID string      `json:"participant_id"`
	Standing      int         `json:"standing"`
	Title         string      `json:"title"`
	Prestige      string      `json:"prestige"`
	Tiers         []tier.Tier `json:"tiers"`
	Slots         []SlotView  `json:"slots"`
}

// RivalryView is a rivalry with both TierLists and its open contest.
type RivalryView struct {
	Rivalry model.Rivalry  `json:"rivalry"`
	A       TierListView   `json:"a"`
	B       TierListView   `json:"b"`
	Contest *model.Contest `json:"contest,omitempty"`
}

// ResolveResult is what ResolveContest reports back.
type ResolveResult struct {
	Resolved model.Contest    `json:"resolved"`
	Moves    [2]tierlist.Move `json:"moves"`
	Placed   []string         `json:"placed,omitempty"`
	Rivalry  RivalryView      `json:"rivalry"`
}

func (s *Service) tierListView(tl model.TierList, names map[string]string) TierListView {
	geo := s.engine.Geometry()
	v := TierListView{
		ID:            tl.ID,
		RivalryID:     tl.RivalryID,
		GameID:        tl.GameID,
		ParticipantID: tl.ParticipantID,
		Standing:      tl.Standing,
		Title:         s.engine.Title(tl),
		Prestige:      s.engine.PrestigeDisplay(tl),
		Tiers:         geo.Tiers(),
		Slots:         make([]SlotView, len(tl.Slots)),
	}
	for i, sl := range tl.Slots {
		p, ranked := sl.Pos()
		v.Slots[i] = SlotView{Slot: sl, FighterName: names[sl.FighterID], Tier: geo.LabelForPosition(p, ranked)}
	}
	return v
}
