package model

// Slot is one fighter's entry in one TierList.
type Slot struct {
	ID           string   `json:"id"`
	TierListID   string   `json:"tier_list_id"`
	FighterID    string   `json:"fighter_id"`
	Position     Position `json:"position"`
	ContestCount int      `json:"contest_count"`
	WinCount     int      `json:"win_count"`
}

// Ranked reports whether the Slot holds a position.
func (s Slot) Ranked() bool { return s.Position.IsRanked() }

// Pos returns the position and whether it is ranked.
func (s Slot) Pos() (int, bool) { return s.Position.Get() }

// Clear drops the Slot's position.
func (s *Slot) Clear() { s.Position = Unranked() }

// SlotPatch carries the mutable Slot fields for a partial update; nil fields are left alone.
type SlotPatch struct {
	Position     *Position `json:"position,omitempty"`
	ContestCount *int      `json:"contest_count,omitempty"`
	WinCount     *int      `json:"win_count,omitempty"`
}

// PatchFor builds the full mutable patch of s.
func PatchFor(s Slot) SlotPatch {
	pos, cc, wc := s.Position, s.ContestCount, s.WinCount
	return SlotPatch{Position: &pos, ContestCount: &cc, WinCount: &wc}
}

// Apply writes the non-nil fields of p onto s.
func (p SlotPatch) Apply(s *Slot) {
	if p.Position != nil {
		s.Position = *p.Position
	}
	if p.ContestCount != nil {
		s.ContestCount = *p.ContestCount
	}
	if p.WinCount != nil {
		s.WinCount = *p.WinCount
	}
}
