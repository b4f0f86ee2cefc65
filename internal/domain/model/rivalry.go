package model

import "time"

// Side identifies one of the two participants of a rivalry.
type Side int

const (
	SideA Side = iota
	SideB
)

func (s Side) String() string {
	if s == SideA {
		return "a"
	}
	return "b"
}

// Other returns the opposing side.
func (s Side) Other() Side { return 1 - s }

// ParseSide accepts "a" or "b".
func ParseSide(v string) (Side, bool) {
	switch v {
	case "a", "A":
		return SideA, true
	case "b", "B":
		return SideB, true
	}
	return 0, false
}

// Rivalry links two participants and their TierLists by id.
type Rivalry struct {
	ID               string    `json:"id"`
	GameID           string    `json:"game_id"`
	ParticipantAID   string    `json:"participant_a_id"`
	ParticipantBID   string    `json:"participant_b_id"`
	TierListAID      string    `json:"tier_list_a_id"`
	TierListBID      string    `json:"tier_list_b_id"`
	CurrentContestID string    `json:"current_contest_id,omitempty"`
	ContestCount     int       `json:"contest_count"`
	CreatedAt        time.Time `json:"created_at"`
}

// TierListID returns the TierList id for side.
func (r Rivalry) TierListID(s Side) string {
	if s == SideA {
		return r.TierListAID
	}
	return r.TierListBID
}

// RivalryPatch carries the mutable Rivalry fields.
type RivalryPatch struct {
	CurrentContestID *string `json:"current_contest_id,omitempty"`
	ContestCount     *int    `json:"contest_count,omitempty"`
}

// Contest is one head-to-head match. Result > 0 means side A won, < 0 side B,
// and the magnitude is the score lead.
type Contest struct {
	ID        string    `json:"id"`
	RivalryID string    `json:"rivalry_id"`
	SlotAID   string    `json:"slot_a_id"`
	SlotBID   string    `json:"slot_b_id"`
	Result    int       `json:"result"`
	Resolved  bool      `json:"resolved"`
	// ShiftA and ShiftB hold the displacement each Slot actually made when the
	// contest was resolved, after clamping. Nil for contests resolved without it.
	ShiftA    *int      `json:"shift_a,omitempty"`
	ShiftB    *int      `json:"shift_b,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SlotID returns the contest Slot id for side.
func (c Contest) SlotID(s Side) string {
	if s == SideA {
		return c.SlotAID
	}
	return c.SlotBID
}

// Shift returns the recorded displacement for side.
func (c Contest) Shift(s Side) (int, bool) {
	v := c.ShiftA
	if s == SideB {
		v = c.ShiftB
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}

// Winner returns the winning side; ok is false for a draw.
func (c Contest) Winner() (Side, bool) {
	switch {
	case c.Result > 0:
		return SideA, true
	case c.Result < 0:
		return SideB, true
	}
	return 0, false
}

// ContestPatch carries the mutable Contest fields.
type ContestPatch struct {
	SlotAID  *string `json:"slot_a_id,omitempty"`
	SlotBID  *string `json:"slot_b_id,omitempty"`
	Result   *int    `json:"result,omitempty"`
	Resolved *bool   `json:"resolved,omitempty"`
	ShiftA   *int    `json:"shift_a,omitempty"`
	ShiftB   *int    `json:"shift_b,omitempty"`
}

// Apply writes the non-nil fields of p onto c.
func (p ContestPatch) Apply(c *Contest) {
	if p.SlotAID != nil {
		c.SlotAID = *p.SlotAID
	}
	if p.SlotBID != nil {
		c.SlotBID = *p.SlotBID
	}
	if p.Result != nil {
		c.Result = *p.Result
	}
	if p.Resolved != nil {
		c.Resolved = *p.Resolved
	}
	if p.ShiftA != nil {
		v := *p.ShiftA
		c.ShiftA = &v
	}
	if p.ShiftB != nil {
		v := *p.ShiftB
		c.ShiftB = &v
	}
}
