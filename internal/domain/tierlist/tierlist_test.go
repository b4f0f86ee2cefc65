package tierlist

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/rivalry/internal/domain/model"
	"github.com/okian/rivalry/internal/domain/tier"
	. "github.com/smartystreets/goconvey/convey"
)

func slot(id string, pos model.Position) model.Slot {
	return model.Slot{ID: id, TierListID: "tl", FighterID: "f-" + id, Position: pos}
}

func positions(tl model.TierList) map[string]model.Position {
	out := make(map[string]model.Position, len(tl.Slots))
	for _, s := range tl.Slots {
		out[s.ID] = s.Position
	}
	return out
}

// sparseList builds N slots with the given ranked positions, the rest unranked.
func sparseList(n int, ranked map[string]int) model.TierList {
	tl := model.TierList{ID: "tl"}
	for id, p := range ranked {
		tl.Slots = append(tl.Slots, slot(id, model.Ranked(p)))
	}
	for i := len(ranked); i < n; i++ {
		tl.Slots = append(tl.Slots, slot(fmt.Sprintf("u%d", i), model.Unranked()))
	}
	SortSlots(tl.Slots)
	return tl
}

func denseList(n int) model.TierList {
	tl := model.TierList{ID: "tl"}
	for i := 0; i < n; i++ {
		tl.Slots = append(tl.Slots, slot(fmt.Sprintf("s%d", i), model.Ranked(i)))
	}
	return tl
}

func assertInvariants(e *Engine, before, after model.TierList) {
	So(e.Validate(after), ShouldBeNil)
	fighters := func(tl model.TierList) map[string]bool {
		m := map[string]bool{}
		for _, s := range tl.Slots {
			m[s.FighterID] = true
		}
		return m
	}
	So(cmp.Diff(fighters(before), fighters(after)), ShouldBeEmpty)
}

func TestStandingQueries(t *testing.T) {
	Convey("Given the default geometry", t, func() {
		e := NewEngine(tier.Default)

		Convey("Standing 8 is tier index 1 at prestige 1", func() {
			tl := model.TierList{Standing: 8}
			So(e.CurrentTier(tl), ShouldEqual, 1)
			So(e.Prestige(tl), ShouldEqual, 1)
			So(e.Title(tl), ShouldEqual, "A")
			So(e.PrestigeDisplay(tl), ShouldEqual, "(A+)")
		})

		Convey("Prestige display covers zero and higher passes", func() {
			So(e.PrestigeDisplay(model.TierList{Standing: 0}), ShouldEqual, "(S)")
			So(e.PrestigeDisplay(model.TierList{Standing: 16}), ShouldEqual, "(B+2)")
		})

		Convey("Promote fails at standing zero and demote always succeeds", func() {
			tl := model.TierList{Standing: 0}
			_, ok := Promote(tl)
			So(ok, ShouldBeFalse)

			down := Demote(tl)
			So(down.Standing, ShouldEqual, 1)
			So(tl.Standing, ShouldEqual, 0)

			up, ok := Promote(down)
			So(ok, ShouldBeTrue)
			So(up.Standing, ShouldEqual, 0)
		})

		Convey("Eligible slots are the ranked slots in the current band", func() {
			tl := sparseList(86, map[string]int{"a": 0, "b": 11, "c": 12, "d": 30})
			ids := func(ss []model.Slot) []string {
				var out []string
				for _, s := range ss {
					out = append(out, s.ID)
				}
				return out
			}
			So(ids(e.EligibleSlots(tl)), ShouldResemble, []string{"a", "b"})
			tl.Standing = 2
			So(ids(e.EligibleSlots(tl)), ShouldResemble, []string{"d"})
			tl.Standing = 6
			So(e.EligibleSlots(tl), ShouldBeEmpty)
		})
	})
}

func TestAdjustBySteps(t *testing.T) {
	ctx := context.Background()

	Convey("Given dense mode", t, func() {
		e := NewEngine(tier.MustNew(3, 1))
		tl := denseList(3)

		Convey("Adjusting position 0 by +1 swaps it with position 1", func() {
			out, mv, err := e.AdjustBySteps(ctx, tl, 0, 1, true)
			So(err, ShouldBeNil)
			So(mv.Mode, ShouldEqual, ModeDense)
			So(mv.To, ShouldEqual, 1)
			So(positions(out), ShouldResemble, map[string]model.Position{
				"s0": model.Ranked(1), "s1": model.Ranked(0), "s2": model.Ranked(2),
			})
			assertInvariants(e, tl, out)
			So(positions(tl)["s0"], ShouldResemble, model.Ranked(0))
		})

		Convey("Moves past either end stop at the end", func() {
			out, _, err := e.AdjustBySteps(ctx, tl, 1, -10, true)
			So(err, ShouldBeNil)
			So(positions(out)["s1"], ShouldResemble, model.Ranked(0))
			out, _, err = e.AdjustBySteps(ctx, tl, 1, 10, true)
			So(err, ShouldBeNil)
			So(positions(out)["s1"], ShouldResemble, model.Ranked(2))
		})
	})

	Convey("Given a dense list of 20 in the default geometry", t, func() {
		e := NewEngine(tier.Default)
		tl := denseList(20)
		tl.Slots[10].ContestCount, tl.Slots[10].WinCount = 5, 2
		tl.Slots[15].ContestCount, tl.Slots[15].WinCount = 8, 3

		Convey("A win moves up three and counts a win", func() {
			out, _, err := e.AdjustBySteps(ctx, tl, 10, -3, true)
			So(err, ShouldBeNil)
			s := out.Slots[out.SlotByID("s10")]
			So(s.Position, ShouldResemble, model.Ranked(7))
			So(s.ContestCount, ShouldEqual, 6)
			So(s.WinCount, ShouldEqual, 3)
			So(positions(out)["s7"], ShouldResemble, model.Ranked(8))
			assertInvariants(e, tl, out)
		})

		Convey("A loss moves down three without a win", func() {
			out, _, err := e.AdjustBySteps(ctx, tl, 15, 3, true)
			So(err, ShouldBeNil)
			s := out.Slots[out.SlotByID("s15")]
			So(s.Position, ShouldResemble, model.Ranked(18))
			So(s.ContestCount, ShouldEqual, 9)
			So(s.WinCount, ShouldEqual, 3)
		})

		Convey("Undo without stats restores positions and leaves counters alone", func() {
			won, _, err := e.AdjustBySteps(ctx, tl, 10, -3, true)
			So(err, ShouldBeNil)
			undone, _, err := e.AdjustBySteps(ctx, won, 7, 3, false)
			So(err, ShouldBeNil)
			So(positions(undone), ShouldResemble, positions(tl))
			s := undone.Slots[undone.SlotByID("s10")]
			So(s.ContestCount, ShouldEqual, 6)
			So(s.WinCount, ShouldEqual, 3)
		})
	})

	Convey("Given sparse mode", t, func() {
		e := NewEngine(tier.Default)
		tl := sparseList(86, map[string]int{"A": 0, "B": 5, "C": 80})

		Convey("Adjusting A by +3 moves only A", func() {
			out, mv, err := e.AdjustBySteps(ctx, tl, 0, 3, true)
			So(err, ShouldBeNil)
			So(mv.Mode, ShouldEqual, ModeSparse)
			p := positions(out)
			So(p["A"], ShouldResemble, model.Ranked(3))
			So(p["B"], ShouldResemble, model.Ranked(5))
			So(p["C"], ShouldResemble, model.Ranked(80))
			So(len(UnrankedSlots(out)), ShouldEqual, 83)
			assertInvariants(e, tl, out)
		})

		Convey("Landing on an occupied position shifts the run toward the vacated side", func() {
			out, _, err := e.AdjustBySteps(ctx, tl, 5, -5, true)
			So(err, ShouldBeNil)
			p := positions(out)
			So(p["B"], ShouldResemble, model.Ranked(0))
			So(p["A"], ShouldResemble, model.Ranked(1))
			So(p["C"], ShouldResemble, model.Ranked(80))
			assertInvariants(e, tl, out)
		})

		Convey("Targets are clamped to the roster", func() {
			tl := sparseList(86, map[string]int{"X": 84})
			out, _, err := e.AdjustBySteps(ctx, tl, 84, 1, true)
			So(err, ShouldBeNil)
			So(positions(out)["X"], ShouldResemble, model.Ranked(85))
			out, _, err = e.AdjustBySteps(ctx, out, 85, 10, true)
			So(err, ShouldBeNil)
			So(positions(out)["X"], ShouldResemble, model.Ranked(85))

			out, _, err = e.AdjustBySteps(ctx, sparseList(86, map[string]int{"Y": 5}), 5, -10, true)
			So(err, ShouldBeNil)
			So(positions(out)["Y"], ShouldResemble, model.Ranked(0))
		})
	})

	Convey("Given no occupant at the position", t, func() {
		e := NewEngine(tier.Default)
		tl := sparseList(86, map[string]int{"A": 0})

		out, _, err := e.AdjustBySteps(ctx, tl, 40, 3, true)
		So(errors.Is(err, ErrNoOccupant), ShouldBeTrue)
		So(cmp.Diff(positions(tl), positions(out), cmp.AllowUnexported(model.Position{})), ShouldBeEmpty)
	})

	Convey("Given more dense slots than the roster allows", t, func() {
		e := NewEngine(tier.Default)
		tl := denseList(100)

		_, _, err := e.AdjustBySteps(ctx, tl, 90, 20, true)
		So(errors.Is(err, ErrIntegrityViolation), ShouldBeTrue)
	})
}

func TestPlaceAt(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(tier.Default)

	Convey("Given slots at 5 and 8 only", t, func() {
		tl := sparseList(86, map[string]int{"five": 5, "eight": 8, "X": 40})

		Convey("placeAt(X, 8) pushes 8 to 7 and leaves 5 alone", func() {
			out, err := e.PlaceAt(ctx, tl, "X", 8)
			So(err, ShouldBeNil)
			p := positions(out)
			So(p["X"], ShouldResemble, model.Ranked(8))
			So(p["eight"], ShouldResemble, model.Ranked(7))
			So(p["five"], ShouldResemble, model.Ranked(5))
			assertInvariants(e, tl, out)
		})

		Convey("The collection is re-sorted with unranked last", func() {
			out, err := e.PlaceAt(ctx, tl, "u3", 0)
			So(err, ShouldBeNil)
			So(out.Slots[0].ID, ShouldEqual, "u3")
			So(out.Slots[len(out.Slots)-1].Ranked(), ShouldBeFalse)
		})

		Convey("Benching sends the slot to the last position", func() {
			out, err := e.PlaceAtBottom(ctx, tl, "five")
			So(err, ShouldBeNil)
			So(positions(out)["five"], ShouldResemble, model.Ranked(85))
		})
	})

	Convey("Given a contiguous run ending at the target", t, func() {
		tl := sparseList(86, map[string]int{"a": 2, "b": 3, "c": 4, "X": 60})
		out, err := e.PlaceAt(ctx, tl, "X", 4)
		So(err, ShouldBeNil)
		p := positions(out)
		So(p["a"], ShouldResemble, model.Ranked(1))
		So(p["b"], ShouldResemble, model.Ranked(2))
		So(p["c"], ShouldResemble, model.Ranked(3))
		So(p["X"], ShouldResemble, model.Ranked(4))
	})

	Convey("Given no free position below the target", t, func() {
		tl := sparseList(86, map[string]int{"a": 0, "b": 1, "X": 50})
		out, err := e.PlaceAt(ctx, tl, "X", 1)
		So(err, ShouldBeNil)
		p := positions(out)
		So(p["a"], ShouldResemble, model.Ranked(0))
		So(p["X"], ShouldResemble, model.Ranked(1))
		So(p["b"], ShouldResemble, model.Ranked(2))
	})

	Convey("Given targets outside the roster", t, func() {
		tl := sparseList(86, map[string]int{"X": 10})
		out, err := e.PlaceAt(ctx, tl, "X", 500)
		So(err, ShouldBeNil)
		So(positions(out)["X"], ShouldResemble, model.Ranked(85))
		out, err = e.PlaceAt(ctx, tl, "X", -3)
		So(err, ShouldBeNil)
		So(positions(out)["X"], ShouldResemble, model.Ranked(0))
	})

	Convey("Given an unknown slot id", t, func() {
		_, err := e.PlaceAt(ctx, sparseList(86, nil), "nope", 3)
		So(errors.Is(err, ErrSlotNotFound), ShouldBeTrue)
	})

	Convey("Given a completely full list", t, func() {
		small := NewEngine(tier.MustNew(3, 1))
		tl := denseList(3)
		tl.Slots = append(tl.Slots, slot("extra", model.Unranked()))
		_, err := small.PlaceAt(ctx, tl, "extra", 1)
		So(errors.Is(err, ErrIntegrityViolation), ShouldBeTrue)
	})
}

func TestRandomizedInvariants(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(tier.Default)

	Convey("Given random adjust and place sequences", t, func() {
		rng := rand.New(rand.NewSource(7))
		tl := sparseList(86, nil)
		start := tl

		for i := 0; i < 500; i++ {
			if rng.Intn(3) == 0 {
				s := tl.Slots[rng.Intn(len(tl.Slots))]
				var err error
				tl, err = e.PlaceAt(ctx, tl, s.ID, rng.Intn(86))
				So(err, ShouldBeNil)
				continue
			}
			ranked := tl.Slots[0]
			if p, ok := ranked.Pos(); ok {
				var err error
				tl, _, err = e.AdjustBySteps(ctx, tl, p, rng.Intn(19)-9, rng.Intn(2) == 0)
				So(err, ShouldBeNil)
			}
		}

		Convey("Then positions stay unique, bounded and every fighter is kept", func() {
			assertInvariants(e, start, tl)
		})
	})
}

func TestChangedSlots(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(tier.Default)

	Convey("Given a clean dense list of 25", t, func() {
		tl := denseList(25)
		tl.MarkClean()

		Convey("A short move only reports the slots it touched", func() {
			out, _, err := e.AdjustBySteps(ctx, tl, 6, -2, true)
			So(err, ShouldBeNil)
			changed := ChangedSlots(out)
			ids := map[string]bool{}
			for _, s := range changed {
				ids[s.ID] = true
			}
			So(ids, ShouldResemble, map[string]bool{"s4": true, "s5": true, "s6": true})
		})

		Convey("An unchanged list reports nothing", func() {
			So(ChangedSlots(tl), ShouldBeEmpty)
		})
	})

	Convey("Given a list without a baseline", t, func() {
		So(len(ChangedSlots(denseList(4))), ShouldEqual, 4)
	})
}
