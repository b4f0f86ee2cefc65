package model

// TierList is one participant's ordering inside a rivalry. It owns its
// Slots. Engine functions treat it as a value and return modified copies.
type TierList struct {
	ID            string `json:"id"`
	RivalryID     string `json:"rivalry_id"`
	GameID        string `json:"game_id"`
	ParticipantID string `json:"participant_id"`
	// Standing encodes tier and prestige: tier = Standing mod T, prestige = Standing / T.
	Standing int    `json:"standing"`
	Slots    []Slot `json:"slots"`

	loaded map[string]Slot
}

// Clone deep-copies the Slots. The loaded snapshot is shared since it is never mutated.
func (tl TierList) Clone() TierList {
	out := tl
	out.Slots = make([]Slot, len(tl.Slots))
	copy(out.Slots, tl.Slots)
	return out
}

// MarkClean records the current Slots as the persisted baseline.
func (tl *TierList) MarkClean() {
	tl.loaded = make(map[string]Slot, len(tl.Slots))
	for _, s := range tl.Slots {
		tl.loaded[s.ID] = s
	}
}

// Loaded returns the baseline copy of a Slot, if one was recorded.
func (tl TierList) Loaded(slotID string) (Slot, bool) {
	s, ok := tl.loaded[slotID]
	return s, ok
}

// HasBaseline reports whether MarkClean has been called.
func (tl TierList) HasBaseline() bool { return tl.loaded != nil }

// SlotByID returns the index of the Slot with id, or -1.
func (tl TierList) SlotByID(id string) int {
	for i := range tl.Slots {
		if tl.Slots[i].ID == id {
			return i
		}
	}
	return -1
}

// SlotAt returns the index of the Slot ranked at pos, or -1.
func (tl TierList) SlotAt(pos int) int {
	for i := range tl.Slots {
		if p, ok := tl.Slots[i].Pos(); ok && p == pos {
			return i
		}
	}
	return -1
}

// TierListPatch carries the mutable TierList fields.
type TierListPatch struct {
	Standing *int `json:"standing,omitempty"`
}
