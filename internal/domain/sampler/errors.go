package sampler

import "errors"

// ErrEmptyTierList is returned when there is nothing to sample. It signals a
// construction bug, not a runtime condition.
var ErrEmptyTierList = errors.New("tier list has no slots")
