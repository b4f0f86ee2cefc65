package simulate

import (
	"fmt"
	"math"

	"github.com/brianvoe/gofakeit/v7"
)

const (
	skillMax   = 100.0
	skillNoise = 25.0
)

// matchup is one generated rivalry: two participants and their hidden skill
// with every fighter, keyed by fighter name.
type matchup struct {
	A, B   string
	Skills [2]map[string]float64
	Seed   uint64
}

// roster generates n unique fighter names.
func roster(f *gofakeit.Faker, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s %d", f.Gamertag(), i)
	}
	return out
}

// matchups generates the participants of every rivalry up front so the run
// is reproducible from the seed no matter how rivalries interleave.
func matchups(f *gofakeit.Faker, fighters []string, n int) []matchup {
	out := make([]matchup, n)
	for i := range out {
		m := matchup{
			A:    fmt.Sprintf("%s-%d-a", f.Username(), i),
			B:    fmt.Sprintf("%s-%d-b", f.Username(), i),
			Seed: f.Uint64(),
		}
		for side := range m.Skills {
			m.Skills[side] = make(map[string]float64, len(fighters))
			for _, name := range fighters {
				m.Skills[side][name] = f.Float64Range(0, skillMax)
			}
		}
		out[i] = m
	}
	return out
}

// outcome plays skillA against skillB with noise and returns a signed
// margin in [-maxMargin, maxMargin] without zero. Positive means A won.
func outcome(f *gofakeit.Faker, skillA, skillB float64, maxMargin int) int {
	diff := skillA - skillB + f.Float64Range(-skillNoise, skillNoise)
	step := (skillMax + skillNoise) / float64(maxMargin)
	margin := 1 + int(math.Abs(diff)/step)
	if margin > maxMargin {
		margin = maxMargin
	}
	if diff < 0 {
		return -margin
	}
	return margin
}
