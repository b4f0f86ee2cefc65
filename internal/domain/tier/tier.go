// Package tier partitions the roster positions [0, N) into T contiguous tier bands.
package tier

import "fmt"

// UnrankedLabel is shown for Slots without a position or outside the roster.
const UnrankedLabel = "U"

// Tier describes one band.
type Tier struct {
	Index int    `json:"index"`
	Label string `json:"label"`
	Color string `json:"color"`
	Start int    `json:"start"` // inclusive
	End   int    `json:"end"`   // exclusive
}

// Capacity returns the number of positions in the band.
func (t Tier) Capacity() int { return t.End - t.Start }

// Contains reports whether pos falls inside the band.
func (t Tier) Contains(pos int) bool { return pos >= t.Start && pos < t.End }

var (
	labels = []string{"S", "A", "B", "C", "D", "E", "F"}
	hues   = []int{0, 30, 45, 60, 90, 120, 180}
)

// Geometry maps positions to bands for a roster of size N split into T tiers.
// The first T-1 bands hold floor(N/T) positions; the last absorbs N mod T.
type Geometry struct {
	n     int
	t     int
	tiers []Tier
}

// Default is the stock roster: 86 fighters in 7 tiers.
var Default = MustNew(86, 7)

// New builds a Geometry. N must be >= T >= 1.
func New(rosterSize, tierCount int) (Geometry, error) {
	if tierCount < 1 || rosterSize < tierCount {
		return Geometry{}, fmt.Errorf("%w: roster %d, tiers %d", ErrInvalidGeometry, rosterSize, tierCount)
	}
	base := rosterSize / tierCount
	tiers := make([]Tier, tierCount)
	for i := range tiers {
		start := i * base
		end := start + base
		if i == tierCount-1 {
			end = rosterSize
		}
		tiers[i] = Tier{
			Index: i,
			Label: labelFor(i),
			Color: colorFor(i),
			Start: start,
			End:   end,
		}
	}
	return Geometry{n: rosterSize, t: tierCount, tiers: tiers}, nil
}

// MustNew is New that panics on invalid input.
func MustNew(rosterSize, tierCount int) Geometry {
	g, err := New(rosterSize, tierCount)
	if err != nil {
		panic(err)
	}
	return g
}

func labelFor(i int) string {
	if i < len(labels) {
		return labels[i]
	}
	return fmt.Sprintf("T%d", i)
}

func colorFor(i int) string {
	if i < len(hues) {
		return fmt.Sprintf("hsl(%d, 100%%, 75%%)", hues[i])
	}
	return "hsl(0, 0%, 75%)"
}

// RosterSize returns N.
func (g Geometry) RosterSize() int { return g.n }

// TierCount returns T.
func (g Geometry) TierCount() int { return g.t }

// BaseCapacity is floor(N/T), the size of every band but the last.
func (g Geometry) BaseCapacity() int { return g.n / g.t }

// MaxPosition is N-1.
func (g Geometry) MaxPosition() int { return g.n - 1 }

// Tiers returns a copy of all bands in order.
func (g Geometry) Tiers() []Tier {
	out := make([]Tier, len(g.tiers))
	copy(out, g.tiers)
	return out
}

// Tier returns band i. Indices outside [0, T) are reduced mod T, matching
// how standing maps onto a tier.
func (g Geometry) Tier(i int) Tier {
	i %= g.t
	if i < 0 {
		i += g.t
	}
	return g.tiers[i]
}

// Band returns [start, end) for tier i.
func (g Geometry) Band(i int) (int, int) {
	t := g.Tier(i)
	return t.Start, t.End
}

// Capacity returns the number of positions in tier i.
func (g Geometry) Capacity(i int) int { return g.Tier(i).Capacity() }

// InBounds reports whether pos is a valid position.
func (g Geometry) InBounds(pos int) bool { return pos >= 0 && pos < g.n }

// Clamp forces pos into [0, N-1].
func (g Geometry) Clamp(pos int) int {
	switch {
	case pos < 0:
		return 0
	case pos > g.n-1:
		return g.n - 1
	}
	return pos
}

// TierIndexForPosition returns the band containing pos, or -1 when pos is out of range.
func (g Geometry) TierIndexForPosition(pos int) int {
	if !g.InBounds(pos) {
		return -1
	}
	i := pos / g.BaseCapacity()
	if i >= g.t {
		i = g.t - 1
	}
	return i
}

// LabelForPosition returns the tier label for pos, or UnrankedLabel when
// ranked is false or pos is outside the roster.
func (g Geometry) LabelForPosition(pos int, ranked bool) string {
	if !ranked {
		return UnrankedLabel
	}
	i := g.TierIndexForPosition(pos)
	if i < 0 {
		return UnrankedLabel
	}
	return g.tiers[i].Label
}
