package tier

import "errors"

// ErrInvalidGeometry is returned when N < T or T < 1.
var ErrInvalidGeometry = errors.New("invalid tier geometry")
