package model

// Game is a roster owner, e.g. one fighting game.
type Game struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Fighter is one roster entry. ContestCount and WinCount are global across
// every rivalry and only move once a Slot is past the provisional threshold.
type Fighter struct {
	ID            string `json:"id"`
	GameID        string `json:"game_id"`
	Name          string `json:"name"`
	RosterOrdinal int    `json:"roster_ordinal"`
	ContestCount  int    `json:"contest_count"`
	WinCount      int    `json:"win_count"`
}

// GamePatch carries the mutable Game fields.
type GamePatch struct {
	Name *string `json:"name,omitempty"`
}

// FighterPatch carries the mutable Fighter fields. Counters move through
// repository.FighterStats so concurrent rivalries do not lose updates.
type FighterPatch struct {
	Name *string `json:"name,omitempty"`
}
