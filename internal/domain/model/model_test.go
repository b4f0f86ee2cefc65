package model

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestPosition(t *testing.T) {
	Convey("Given positions", t, func() {
		Convey("The zero value is unranked", func() {
			var p Position
			_, ok := p.Get()
			So(ok, ShouldBeFalse)
			So(p.Ptr(), ShouldBeNil)
			So(p.String(), ShouldEqual, "unranked")
		})

		Convey("Ranked round-trips through a nullable int", func() {
			p := Ranked(0)
			So(PositionFromPtr(p.Ptr()), ShouldResemble, p)
			So(PositionFromPtr(nil).IsRanked(), ShouldBeFalse)
		})

		Convey("JSON uses null for unranked", func() {
			b, err := json.Marshal(Slot{ID: "s", Position: Unranked()})
			So(err, ShouldBeNil)
			So(string(b), ShouldContainSubstring, `"position":null`)

			var s Slot
			So(json.Unmarshal([]byte(`{"position":4}`), &s), ShouldBeNil)
			pos, ok := s.Pos()
			So(ok, ShouldBeTrue)
			So(pos, ShouldEqual, 4)

			So(json.Unmarshal([]byte(`{"position":null}`), &s), ShouldBeNil)
			So(s.Ranked(), ShouldBeFalse)
		})
	})
}

func TestTierListBaseline(t *testing.T) {
	Convey("Given a tier list marked clean", t, func() {
		tl := TierList{ID: "t", Slots: []Slot{{ID: "a", Position: Ranked(0)}, {ID: "b"}}}
		tl.MarkClean()

		Convey("A clone mutates independently of the original", func() {
			c := tl.Clone()
			c.Slots[0].Position = Ranked(5)
			So(tl.Slots[0].Position, ShouldResemble, Ranked(0))
			base, ok := c.Loaded("a")
			So(ok, ShouldBeTrue)
			So(base.Position, ShouldResemble, Ranked(0))
		})

		Convey("Lookups find slots by id and position", func() {
			So(tl.SlotByID("b"), ShouldEqual, 1)
			So(tl.SlotByID("zz"), ShouldEqual, -1)
			So(tl.SlotAt(0), ShouldEqual, 0)
			So(tl.SlotAt(1), ShouldEqual, -1)
		})
	})
}

func TestSlotPatch(t *testing.T) {
	Convey("Given a patch built from a slot", t, func() {
		src := Slot{ID: "x", Position: Ranked(3), ContestCount: 2, WinCount: 1}
		dst := Slot{ID: "x"}
		PatchFor(src).Apply(&dst)
		So(dst, ShouldResemble, src)

		Convey("Nil fields leave the target alone", func() {
			SlotPatch{}.Apply(&dst)
			So(dst, ShouldResemble, src)
		})
	})
}

func TestSidesAndContests(t *testing.T) {
	Convey("Given contests", t, func() {
		c := Contest{SlotAID: "a", SlotBID: "b", Result: -2}
		w, ok := c.Winner()
		So(ok, ShouldBeTrue)
		So(w, ShouldEqual, SideB)
		So(c.SlotID(SideA), ShouldEqual, "a")
		So(SideA.Other(), ShouldEqual, SideB)

		s, ok := ParseSide("B")
		So(ok, ShouldBeTrue)
		So(s, ShouldEqual, SideB)
		_, ok = ParseSide("c")
		So(ok, ShouldBeFalse)

		_, ok = Contest{}.Winner()
		So(ok, ShouldBeFalse)
	})
}
