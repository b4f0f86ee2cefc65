package resolution

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/okian/rivalry/internal/domain/model"
	"github.com/okian/rivalry/internal/domain/tier"
	"github.com/okian/rivalry/internal/domain/tierlist"
	. "github.com/smartystreets/goconvey/convey"
)

func list(id string, ranked map[string]int) model.TierList {
	tl := model.TierList{ID: id}
	for i := 0; i < 86; i++ {
		sid := fmt.Sprintf("%s-%d", id, i)
		s := model.Slot{ID: sid, TierListID: id, FighterID: fmt.Sprintf("f%d", i)}
		if p, ok := ranked[sid]; ok {
			s.Position = model.Ranked(p)
		}
		tl.Slots = append(tl.Slots, s)
	}
	return tl
}

func pos(tl model.TierList, id string) (int, bool) {
	return tl.Slots[tl.SlotByID(id)].Pos()
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	r := New(tierlist.NewEngine(tier.Default))

	Convey("Given steps per point of three", t, func() {
		So(r.Steps(2, model.SideA), ShouldEqual, -6)
		So(r.Steps(2, model.SideB), ShouldEqual, 6)
		So(r.Steps(-1, model.SideA), ShouldEqual, 3)
		So(r.Midpoint(), ShouldEqual, 42)
	})

	Convey("Given two ranked contestants", t, func() {
		a := list("a", map[string]int{"a-0": 20, "a-1": 17})
		b := list("b", map[string]int{"b-0": 30})
		c := model.Contest{ID: "c1", SlotAID: "a-0", SlotBID: "b-0", Result: 1}

		out, err := r.Resolve(ctx, a, b, c)

		Convey("Then A moves up three and B moves down three", func() {
			So(err, ShouldBeNil)
			p, _ := pos(out.A, "a-0")
			So(p, ShouldEqual, 17)
			p, _ = pos(out.A, "a-1")
			So(p, ShouldEqual, 18)
			p, _ = pos(out.B, "b-0")
			So(p, ShouldEqual, 33)
			So(out.Placed, ShouldBeEmpty)
			So(out.Warnings, ShouldBeEmpty)
		})

		Convey("Then counters move and inputs are untouched", func() {
			sa := out.A.Slots[out.A.SlotByID("a-0")]
			sb := out.B.Slots[out.B.SlotByID("b-0")]
			So(sa.ContestCount, ShouldEqual, 1)
			So(sa.WinCount, ShouldEqual, 1)
			So(sb.ContestCount, ShouldEqual, 1)
			So(sb.WinCount, ShouldEqual, 0)
			p, _ := pos(a, "a-0")
			So(p, ShouldEqual, 20)
		})

		Convey("Then undo puts both back and removes the counts", func() {
			back, err := r.Undo(ctx, out.A, out.B, c)
			So(err, ShouldBeNil)
			p, _ := pos(back.A, "a-0")
			So(p, ShouldEqual, 20)
			p, _ = pos(back.A, "a-1")
			So(p, ShouldEqual, 17)
			p, _ = pos(back.B, "b-0")
			So(p, ShouldEqual, 30)
			So(back.A.Slots[back.A.SlotByID("a-0")].WinCount, ShouldEqual, 0)
			So(back.B.Slots[back.B.SlotByID("b-0")].ContestCount, ShouldEqual, 0)
		})
	})

	Convey("Given both contestants unranked and B winning by two", t, func() {
		a := list("a", nil)
		b := list("b", nil)
		c := model.Contest{ID: "c1", SlotAID: "a-3", SlotBID: "b-4", Result: -2}

		out, err := r.Resolve(ctx, a, b, c)

		Convey("Then the winner is placed off the midpoint and the loser off the winner", func() {
			So(err, ShouldBeNil)
			So(out.Placed, ShouldResemble, []string{"b-4", "a-3"})
			// winner B: 42 - 28 = 14, then 6 toward 0.
			p, _ := pos(out.B, "b-4")
			So(p, ShouldEqual, 14-6)
			// loser A: 14 + 28 = 42, then 6 away from 0.
			p, _ = pos(out.A, "a-3")
			So(p, ShouldEqual, 42+6)
		})
	})

	Convey("Given an unranked loser facing a ranked winner near the bottom", t, func() {
		a := list("a", map[string]int{"a-0": 80})
		b := list("b", nil)
		c := model.Contest{ID: "c1", SlotAID: "a-0", SlotBID: "b-0", Result: 3}

		out, err := r.Resolve(ctx, a, b, c)

		Convey("Then the placement target is clamped to the roster", func() {
			So(err, ShouldBeNil)
			p, _ := pos(out.B, "b-0")
			So(p, ShouldEqual, 85)
			p, _ = pos(out.A, "a-0")
			So(p, ShouldEqual, 71)
		})
	})

	Convey("Given a slot past the provisional threshold", t, func() {
		a := list("a", map[string]int{"a-0": 10})
		a.Slots[0].ContestCount = 9
		b := list("b", map[string]int{"b-0": 10})
		out, err := r.Resolve(ctx, a, b, model.Contest{SlotAID: "a-0", SlotBID: "b-0", Result: 1})

		Convey("Then only that fighter's global stats move", func() {
			So(err, ShouldBeNil)
			So(out.Fighters, ShouldResemble, []FighterStat{{FighterID: "f0", Won: true}})
		})
	})

	Convey("Given moves clamped at both ends of the list", t, func() {
		a := list("a", map[string]int{"a-0": 1})
		b := list("b", map[string]int{"b-0": 84})
		c := model.Contest{ID: "c1", SlotAID: "a-0", SlotBID: "b-0", Result: 1}

		out, err := r.Resolve(ctx, a, b, c)
		So(err, ShouldBeNil)
		So(out.Shifts, ShouldResemble, [2]int{-1, 1})

		Convey("Then undo with the recorded shifts restores both positions", func() {
			c.ShiftA, c.ShiftB = &out.Shifts[model.SideA], &out.Shifts[model.SideB]
			back, err := r.Undo(ctx, out.A, out.B, c)
			So(err, ShouldBeNil)
			p, _ := pos(back.A, "a-0")
			So(p, ShouldEqual, 1)
			p, _ = pos(back.B, "b-0")
			So(p, ShouldEqual, 84)
		})

		Convey("Then undo without them falls back to the nominal steps", func() {
			back, err := r.Undo(ctx, out.A, out.B, c)
			So(err, ShouldBeNil)
			p, _ := pos(back.A, "a-0")
			So(p, ShouldEqual, 3)
		})
	})

	Convey("Given results beyond the longest possible move", t, func() {
		a := list("a", map[string]int{"a-0": 20})
		b := list("b", map[string]int{"b-0": 30})

		Convey("Then huge leads are rejected before anything moves", func() {
			for _, result := range []int{3074457345618258603, -86, 86, math.MinInt, math.MaxInt} {
				_, err := r.Resolve(ctx, a, b, model.Contest{SlotAID: "a-0", SlotBID: "b-0", Result: result})
				So(errors.Is(err, ErrResultOutOfRange), ShouldBeTrue)
			}
			So(r.MaxResult(), ShouldEqual, 85)
		})

		Convey("Then the largest allowed lead still keeps the loser below the winner", func() {
			out, err := r.Resolve(ctx, a, b, model.Contest{SlotAID: "a-0", SlotBID: "b-0", Result: 85})
			So(err, ShouldBeNil)
			p, _ := pos(out.A, "a-0")
			So(p, ShouldEqual, 0)
			p, _ = pos(out.B, "b-0")
			So(p, ShouldEqual, 85)
		})

		Convey("Then a custom cap applies", func() {
			capped := New(tierlist.NewEngine(tier.Default), WithMaxResult(5))
			_, err := capped.Resolve(ctx, a, b, model.Contest{SlotAID: "a-0", SlotBID: "b-0", Result: -6})
			So(errors.Is(err, ErrResultOutOfRange), ShouldBeTrue)
		})
	})

	Convey("Given invalid contests", t, func() {
		a := list("a", nil)
		b := list("b", nil)

		_, err := r.Resolve(ctx, a, b, model.Contest{SlotAID: "a-0", SlotBID: "b-0"})
		So(errors.Is(err, ErrDraw), ShouldBeTrue)

		_, err = r.Resolve(ctx, a, b, model.Contest{SlotAID: "zz", SlotBID: "b-0", Result: 1})
		So(errors.Is(err, ErrContestantMissing), ShouldBeTrue)

		_, err = r.Undo(ctx, a, b, model.Contest{SlotAID: "a-0", SlotBID: "nope", Result: 1})
		So(errors.Is(err, ErrContestantMissing), ShouldBeTrue)
	})
}
