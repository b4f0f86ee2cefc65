package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/rivalry/internal/simulate"
)

func TestSimApp(t *testing.T) {
	convey.Convey("Given the simulator CLI", t, func() {
		var out bytes.Buffer
		app := newApp(&out)

		convey.Convey("Invalid settings are rejected before any request", func() {
			err := app.Run([]string{"rivalry-sim", "--fighters", "1"})
			convey.So(errors.Is(err, simulate.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("An unreachable service fails the health check", func() {
			err := app.Run([]string{"rivalry-sim", "--url", "http://127.0.0.1:1", "--rivalries", "1", "--contests", "1", "--timeout", "1s"})
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "health check")
		})
	})
}
