package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/rivalry/internal/app"
	"github.com/okian/rivalry/internal/domain/resolution"
	"github.com/okian/rivalry/internal/domain/tierlist"
)

func TestClassify(t *testing.T) {
	Convey("Given domain errors wrapped by the service", t, func() {
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{fmt.Errorf("resolve contest c1: %w: slot s1", resolution.ErrContestantMissing), http.StatusConflict, "conflict"},
			{fmt.Errorf("resolve: %w", resolution.ErrResultOutOfRange), http.StatusBadRequest, "bad_request"},
			{fmt.Errorf("resolve: %w", resolution.ErrDraw), http.StatusBadRequest, "bad_request"},
			{service.ErrNoContest, http.StatusConflict, "conflict"},
			{fmt.Errorf("bench: %w", tierlist.ErrSlotNotFound), http.StatusNotFound, "not_found"},
			{fmt.Errorf("place: %w", tierlist.ErrIntegrityViolation), http.StatusInternalServerError, "internal_error"},
			{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
		}

		Convey("Then each maps to its status and code", func() {
			for _, c := range cases {
				status, code := classify(c.err)
				So(status, ShouldEqual, c.status)
				So(code, ShouldEqual, c.code)
			}
		})
	})
}
