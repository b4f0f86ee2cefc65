// Package model contains the domain records shared by the engine, the
// repositories and the HTTP layer.
package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Position is a Slot's place in a TierList ordering: either Ranked(p) with
// 0 is best, or Unranked. The zero value is Unranked.
type Position struct {
	value  int
	ranked bool
}

// Ranked returns a ranked position p.
func Ranked(p int) Position { return Position{value: p, ranked: true} }

// Unranked returns the absent position.
func Unranked() Position { return Position{} }

// Get returns the position and whether it is ranked.
func (p Position) Get() (int, bool) { return p.value, p.ranked }

// IsRanked reports whether the position is set.
func (p Position) IsRanked() bool { return p.ranked }

// Value returns the raw position; callers must check IsRanked first.
func (p Position) Value() int { return p.value }

// Ptr converts to a nullable int for storage.
func (p Position) Ptr() *int {
	if !p.ranked {
		return nil
	}
	v := p.value
	return &v
}

// PositionFromPtr converts a nullable int back into a Position.
func PositionFromPtr(v *int) Position {
	if v == nil {
		return Unranked()
	}
	return Ranked(*v)
}

func (p Position) String() string {
	if !p.ranked {
		return "unranked"
	}
	return strconv.Itoa(p.value)
}

// MarshalJSON encodes Unranked as null.
func (p Position) MarshalJSON() ([]byte, error) {
	if !p.ranked {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(p.value)), nil
}

// UnmarshalJSON accepts an integer or null.
func (p *Position) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*p = Unranked()
		return nil
	}
	var v int
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = Ranked(v)
	return nil
}
