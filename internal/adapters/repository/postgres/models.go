package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/okian/rivalry/internal/domain/model"
)

// Rows carry a scan-only seq column so List keeps insertion order.

type gameRow struct {
	bun.BaseModel `bun:"table:games,alias:g"`
	ID            string `bun:"id,pk"`
	Name          string `bun:"name,notnull"`
	Seq           int64  `bun:"seq,scanonly"`
}

func gameToRow(g model.Game) *gameRow { return &gameRow{ID: g.ID, Name: g.Name} }

func gameFromRow(r *gameRow) model.Game { return model.Game{ID: r.ID, Name: r.Name} }

type fighterRow struct {
	bun.BaseModel `bun:"table:fighters,alias:f"`
	ID            string `bun:"id,pk"`
	GameID        string `bun:"game_id,notnull"`
	Name          string `bun:"name,notnull"`
	RosterOrdinal int    `bun:"roster_ordinal,notnull"`
	ContestCount  int    `bun:"contest_count,notnull"`
	WinCount      int    `bun:"win_count,notnull"`
	Seq           int64  `bun:"seq,scanonly"`
}

func fighterToRow(f model.Fighter) *fighterRow {
	return &fighterRow{
		ID: f.ID, GameID: f.GameID, Name: f.Name, RosterOrdinal: f.RosterOrdinal,
		ContestCount: f.ContestCount, WinCount: f.WinCount,
	}
}

func fighterFromRow(r *fighterRow) model.Fighter {
	return model.Fighter{
		ID: r.ID, GameID: r.GameID, Name: r.Name, RosterOrdinal: r.RosterOrdinal,
		ContestCount: r.ContestCount, WinCount: r.WinCount,
	}
}

type tierListRow struct {
	bun.BaseModel `bun:"table:tier_lists,alias:tl"`
	ID            string `bun:"id,pk"`
	RivalryID     string `bun:"rivalry_id,notnull"`
	GameID        string `bun:"game_id,notnull"`
	ParticipantID string `bun:"participant_id,notnull"`
	Standing      int    `bun:"standing,notnull"`
	Seq           int64  `bun:"seq,scanonly"`
}

func tierListToRow(tl model.TierList) *tierListRow {
	return &tierListRow{ID: tl.ID, RivalryID: tl.RivalryID, GameID: tl.GameID, ParticipantID: tl.ParticipantID, Standing: tl.Standing}
}

func tierListFromRow(r *tierListRow) model.TierList {
	return model.TierList{ID: r.ID, RivalryID: r.RivalryID, GameID: r.GameID, ParticipantID: r.ParticipantID, Standing: r.Standing}
}

type slotRow struct {
	bun.BaseModel `bun:"table:slots,alias:s"`
	ID            string `bun:"id,pk"`
	TierListID    string `bun:"tier_list_id,notnull"`
	FighterID     string `bun:"fighter_id,notnull"`
	// NULL means unranked.
	Position     *int  `bun:"position"`
	ContestCount int   `bun:"contest_count,notnull"`
	WinCount     int   `bun:"win_count,notnull"`
	Seq          int64 `bun:"seq,scanonly"`
}

func slotToRow(s model.Slot) *slotRow {
	return &slotRow{
		ID: s.ID, TierListID: s.TierListID, FighterID: s.FighterID,
		Position: s.Position.Ptr(), ContestCount: s.ContestCount, WinCount: s.WinCount,
	}
}

func slotFromRow(r *slotRow) model.Slot {
	return model.Slot{
		ID: r.ID, TierListID: r.TierListID, FighterID: r.FighterID,
		Position: model.PositionFromPtr(r.Position), ContestCount: r.ContestCount, WinCount: r.WinCount,
	}
}

type rivalryRow struct {
	bun.BaseModel    `bun:"table:rivalries,alias:r"`
	ID               string    `bun:"id,pk"`
	GameID           string    `bun:"game_id,notnull"`
	ParticipantAID   string    `bun:"participant_a_id,notnull"`
	ParticipantBID   string    `bun:"participant_b_id,notnull"`
	TierListAID      string    `bun:"tier_list_a_id,notnull"`
	TierListBID      string    `bun:"tier_list_b_id,notnull"`
	CurrentContestID string    `bun:"current_contest_id,nullzero"`
	ContestCount     int       `bun:"contest_count,notnull"`
	CreatedAt        time.Time `bun:"created_at,notnull"`
	Seq              int64     `bun:"seq,scanonly"`
}

func rivalryToRow(r model.Rivalry) *rivalryRow {
	return &rivalryRow{
		ID: r.ID, GameID: r.GameID, ParticipantAID: r.ParticipantAID, ParticipantBID: r.ParticipantBID,
		TierListAID: r.TierListAID, TierListBID: r.TierListBID, CurrentContestID: r.CurrentContestID,
		ContestCount: r.ContestCount, CreatedAt: r.CreatedAt,
	}
}

func rivalryFromRow(r *rivalryRow) model.Rivalry {
	return model.Rivalry{
		ID: r.ID, GameID: r.GameID, ParticipantAID: r.ParticipantAID, ParticipantBID: r.ParticipantBID,
		TierListAID: r.TierListAID, TierListBID: r.TierListBID, CurrentContestID: r.CurrentContestID,
		ContestCount: r.ContestCount, CreatedAt: r.CreatedAt,
	}
}

type contestRow struct {
	bun.BaseModel `bun:"table:contests,alias:c"`
	ID            string    `bun:"id,pk"`
	RivalryID     string    `bun:"rivalry_id,notnull"`
	SlotAID       string    `bun:"slot_a_id,notnull"`
	SlotBID       string    `bun:"slot_b_id,notnull"`
	Result        int       `bun:"result,notnull"`
	Resolved      bool      `bun:"resolved,notnull"`
	ShiftA        *int      `bun:"shift_a"`
	ShiftB        *int      `bun:"shift_b"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
	Seq           int64     `bun:"seq,scanonly"`
}

func contestToRow(c model.Contest) *contestRow {
	return &contestRow{
		ID: c.ID, RivalryID: c.RivalryID, SlotAID: c.SlotAID, SlotBID: c.SlotBID,
		Result: c.Result, Resolved: c.Resolved, ShiftA: c.ShiftA, ShiftB: c.ShiftB, CreatedAt: c.CreatedAt,
	}
}

func contestFromRow(r *contestRow) model.Contest {
	return model.Contest{
		ID: r.ID, RivalryID: r.RivalryID, SlotAID: r.SlotAID, SlotBID: r.SlotBID,
		Result: r.Result, Resolved: r.Resolved, ShiftA: r.ShiftA, ShiftB: r.ShiftB, CreatedAt: r.CreatedAt,
	}
}
