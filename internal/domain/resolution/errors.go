package resolution

import "errors"

var (
	// ErrDraw is returned for a zero result; contests always have a winner.
	ErrDraw = errors.New("contest result must not be zero")
	// ErrResultOutOfRange is returned for a score lead above the Resolver's maximum.
	ErrResultOutOfRange = errors.New("contest result out of range")
	// ErrContestantMissing means a contest Slot is not in its TierList.
	ErrContestantMissing = errors.New("contest slot missing from tier list")
)
