package simulate

import (
	"fmt"
	"sort"

	service "github.com/okian/rivalry/internal/app"
)

// checkTierList lists violated invariants of v: ranked positions are unique
// and inside the tier bands, and every fighter holds exactly one Slot.
func checkTierList(v service.TierListView) []string {
	var out []string
	rosterSize := 0
	if len(v.Tiers) > 0 {
		rosterSize = v.Tiers[len(v.Tiers)-1].End
	}
	byPos := make(map[int]string, len(v.Slots))
	byFighter := make(map[string]int, len(v.Slots))
	for _, s := range v.Slots {
		byFighter[s.FighterID]++
		p, ok := s.Pos()
		if !ok {
			continue
		}
		if p < 0 || p >= rosterSize {
			out = append(out, fmt.Sprintf("tier list %s: slot %s at %d outside [0,%d]", v.ID, s.ID, p, rosterSize-1))
		}
		if other, dup := byPos[p]; dup {
			out = append(out, fmt.Sprintf("tier list %s: slots %s and %s share position %d", v.ID, other, s.ID, p))
		}
		byPos[p] = s.ID
	}
	for fighter, n := range byFighter {
		if n != 1 {
			out = append(out, fmt.Sprintf("tier list %s: fighter %s has %d slots", v.ID, fighter, n))
		}
	}
	sort.Strings(out)
	return out
}

// agreement is Spearman's rank correlation between hidden skill and tier
// list order over the ranked Slots. 1 means the list orders fighters exactly
// by skill. Fewer than two ranked Slots give 0.
func agreement(v service.TierListView, skill map[string]float64) float64 {
	type pair struct {
		pos   int
		skill float64
	}
	var ranked []pair
	for _, s := range v.Slots {
		if p, ok := s.Pos(); ok {
			ranked = append(ranked, pair{pos: p, skill: skill[s.FighterName]})
		}
	}
	n := len(ranked)
	if n < 2 {
		return 0
	}

	sort.Slice(ranked, func(i, j int) bool { return ranked[i].pos < ranked[j].pos })
	bySkill := make([]int, n)
	for i := range bySkill {
		bySkill[i] = i
	}
	sort.SliceStable(bySkill, func(i, j int) bool { return ranked[bySkill[i]].skill > ranked[bySkill[j]].skill })

	var d2 float64
	for skillRank, posRank := range bySkill {
		d := float64(posRank - skillRank)
		d2 += d * d
	}
	fn := float64(n)
	return 1 - 6*d2/(fn*(fn*fn-1))
}
