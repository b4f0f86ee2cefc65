package tierlist

import "errors"

var (
	// ErrNoOccupant means no Slot holds the presumed position. Callers log and continue.
	ErrNoOccupant = errors.New("no slot at position")
	// ErrSlotNotFound means a Slot id is not part of the TierList.
	ErrSlotNotFound = errors.New("slot not in tier list")
	// ErrIntegrityViolation marks duplicate or out-of-range positions. It is
	// surfaced for operators and never auto-corrected.
	ErrIntegrityViolation = errors.New("tier list integrity violation")
)
