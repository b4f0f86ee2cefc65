package repository

import (
	"strconv"

	"github.com/okian/rivalry/internal/domain/model"
)

// Filterable fields per entity. Both stores reject anything else.
var filterable = map[string]map[string]struct{}{
	EntityGames:     {},
	EntityFighters:  {"game_id": {}},
	EntityTierLists: {"rivalry_id": {}, "game_id": {}, "participant_id": {}},
	EntitySlots:     {"tier_list_id": {}, "fighter_id": {}},
	EntityRivalries: {"game_id": {}, "participant_a_id": {}, "participant_b_id": {}},
	EntityContests:  {"rivalry_id": {}},
}

// CheckFilter returns a FieldError for every key that entity cannot be filtered on.
func CheckFilter(entity string, f Filter) []FieldError {
	var errs []FieldError
	allowed := filterable[entity]
	for k := range f {
		if _, ok := allowed[k]; !ok {
			errs = append(errs, FieldError{Field: k, Message: "not filterable"})
		}
	}
	return errs
}

type checker struct{ errs []FieldError }

func (c *checker) required(field, v string) {
	if v == "" {
		c.errs = append(c.errs, FieldError{Field: field, Message: "required"})
	}
}

func (c *checker) nonNegative(field string, v int) {
	if v < 0 {
		c.errs = append(c.errs, FieldError{Field: field, Message: "must not be negative, got " + strconv.Itoa(v)})
	}
}

func (c *checker) fail(field, msg string) {
	c.errs = append(c.errs, FieldError{Field: field, Message: msg})
}

// ValidateGame checks a Game before it is written.
func ValidateGame(g model.Game) []FieldError {
	var c checker
	c.required("id", g.ID)
	c.required("name", g.Name)
	return c.errs
}

// ValidateFighter checks a Fighter before it is written.
func ValidateFighter(f model.Fighter) []FieldError {
	var c checker
	c.required("id", f.ID)
	c.required("game_id", f.GameID)
	c.required("name", f.Name)
	c.nonNegative("roster_ordinal", f.RosterOrdinal)
	c.nonNegative("contest_count", f.ContestCount)
	c.nonNegative("win_count", f.WinCount)
	return c.errs
}

// ValidateTierList checks a TierList header before it is written.
func ValidateTierList(tl model.TierList) []FieldError {
	var c checker
	c.required("id", tl.ID)
	c.required("participant_id", tl.ParticipantID)
	c.required("game_id", tl.GameID)
	c.nonNegative("standing", tl.Standing)
	return c.errs
}

// ValidateSlot checks a Slot before it is written. The upper position bound
// depends on the roster and is checked by the engine, not here.
func ValidateSlot(s model.Slot) []FieldError {
	var c checker
	c.required("id", s.ID)
	c.required("tier_list_id", s.TierListID)
	c.required("fighter_id", s.FighterID)
	if p, ok := s.Pos(); ok {
		c.nonNegative("position", p)
	}
	c.nonNegative("contest_count", s.ContestCount)
	c.nonNegative("win_count", s.WinCount)
	if s.WinCount > s.ContestCount {
		c.fail("win_count", "must not exceed contest_count")
	}
	return c.errs
}

// ValidateRivalry checks a Rivalry before it is written.
func ValidateRivalry(r model.Rivalry) []FieldError {
	var c checker
	c.required("id", r.ID)
	c.required("game_id", r.GameID)
	c.required("participant_a_id", r.ParticipantAID)
	c.required("participant_b_id", r.ParticipantBID)
	c.required("tier_list_a_id", r.TierListAID)
	c.required("tier_list_b_id", r.TierListBID)
	if r.ParticipantAID != "" && r.ParticipantAID == r.ParticipantBID {
		c.fail("participant_b_id", "must differ from participant_a_id")
	}
	c.nonNegative("contest_count", r.ContestCount)
	return c.errs
}

// ValidateContest checks a Contest before it is written.
func ValidateContest(ct model.Contest) []FieldError {
	var c checker
	c.required("id", ct.ID)
	c.required("rivalry_id", ct.RivalryID)
	c.required("slot_a_id", ct.SlotAID)
	c.required("slot_b_id", ct.SlotBID)
	if ct.Resolved && ct.Result == 0 {
		c.fail("result", "resolved contest needs a non-zero result")
	}
	return c.errs
}

// EncodeCursor and DecodeCursor turn a row offset into an opaque page cursor.
func EncodeCursor(offset int) string { return strconv.Itoa(offset) }

// DecodeCursor parses a cursor made by EncodeCursor; empty means the first page.
func DecodeCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(cursor)
	if err != nil || n < 0 {
		return 0, ErrInvalidCursor
	}
	return n, nil
}
