package simulate

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/rivalry/internal/adapters/http/api"
	"github.com/okian/rivalry/internal/adapters/repository"
	service "github.com/okian/rivalry/internal/app"
	"github.com/okian/rivalry/internal/domain/dedupe"
	"github.com/okian/rivalry/internal/domain/model"
	"github.com/okian/rivalry/internal/domain/tier"
	"github.com/okian/rivalry/pkg/logger"
)

func validConfig() Config {
	return Config{
		BaseURL:   "http://localhost:9080",
		Fighters:  12,
		Rivalries: 3,
		Contests:  15,
		Workers:   2,
		MaxMargin: 3,
		UndoRate:  0.2,
		Timeout:   5 * time.Second,
		Seed:      42,
	}
}

func TestConfig_Validate(t *testing.T) {
	Convey("Given a valid config", t, func() {
		cfg := validConfig()
		So(cfg.Validate(), ShouldBeNil)

		Convey("Unusable settings are rejected", func() {
			for _, mutate := range []func(*Config){
				func(c *Config) { c.BaseURL = "" },
				func(c *Config) { c.Fighters = 1 },
				func(c *Config) { c.Workers = 0 },
				func(c *Config) { c.MaxMargin = 0 },
				func(c *Config) { c.UndoRate = 1 },
			} {
				bad := cfg
				mutate(&bad)
				So(errors.Is(bad.Validate(), ErrInvalidConfig), ShouldBeTrue)
			}
		})
	})
}

func TestOutcome(t *testing.T) {
	Convey("Given a seeded faker", t, func() {
		f := gofakeit.New(9)

		Convey("Results are never zero and stay within the margin", func() {
			for i := 0; i < 500; i++ {
				r := outcome(f, f.Float64Range(0, skillMax), f.Float64Range(0, skillMax), 3)
				So(r, ShouldNotEqual, 0)
				So(r, ShouldBeBetweenOrEqual, -3, 3)
			}
		})

		Convey("A much stronger side always wins", func() {
			for i := 0; i < 100; i++ {
				So(outcome(f, skillMax, 0, 3), ShouldBeGreaterThan, 0)
				So(outcome(f, 0, skillMax, 3), ShouldBeLessThan, 0)
			}
		})
	})
}

func listView(positions ...int) service.TierListView {
	v := service.TierListView{ID: "tl", Tiers: tier.MustNew(86, 7).Tiers()}
	for i, p := range positions {
		pos := model.Unranked()
		if p >= 0 {
			pos = model.Ranked(p)
		}
		v.Slots = append(v.Slots, service.SlotView{
			Slot:        model.Slot{ID: string(rune('a' + i)), FighterID: string(rune('A' + i)), Position: pos},
			FighterName: string(rune('A' + i)),
		})
	}
	return v
}

func TestVerification(t *testing.T) {
	Convey("Given tier list views", t, func() {
		Convey("A consistent list has no violations", func() {
			So(checkTierList(listView(0, 1, -1, 85)), ShouldBeEmpty)
		})

		Convey("Shared and out-of-range positions are reported", func() {
			So(checkTierList(listView(3, 3)), ShouldHaveLength, 1)
			So(checkTierList(listView(86)), ShouldHaveLength, 1)
		})

		Convey("A fighter with two slots is reported", func() {
			v := listView(0, 1)
			v.Slots[1].FighterID = v.Slots[0].FighterID
			So(checkTierList(v), ShouldHaveLength, 1)
		})

		Convey("Agreement follows the skill order", func() {
			v := listView(0, 1, 2, 3, -1)
			So(agreement(v, map[string]float64{"A": 90, "B": 70, "C": 50, "D": 10}), ShouldAlmostEqual, 1)
			So(agreement(v, map[string]float64{"A": 10, "B": 50, "C": 70, "D": 90}), ShouldAlmostEqual, -1)
			So(agreement(listView(0), map[string]float64{"A": 1}), ShouldEqual, 0)
		})
	})
}

func TestRunner_EndToEnd(t *testing.T) {
	Convey("Given a rivalry service behind an HTTP server", t, func() {
		ctx := context.Background()
		svc := service.New(
			service.WithStore(repository.NewMemoryStore(ctx)),
			service.WithLogger(logger.Nop()),
			service.WithRand(rand.New(rand.NewSource(5))),
			service.WithWorkerCount(1),
		)
		So(svc.Start(ctx), ShouldBeNil)
		mux := http.NewServeMux()
		api.NewServer(svc, svc, dedupe.NewInMemoryDeduper()).Register(ctx, mux)
		srv := httptest.NewServer(mux)
		Reset(func() {
			srv.Close()
			svc.Stop()
		})

		cfg := validConfig()
		cfg.BaseURL = srv.URL + "/"
		runner, err := New(cfg, WithHTTPClient(srv.Client()))
		So(err, ShouldBeNil)

		Convey("Every contest is resolved and the tier lists stay consistent", func() {
			stats, err := runner.Run(ctx)
			So(err, ShouldBeNil)
			So(stats.Failed, ShouldEqual, 0)
			So(stats.Resolved, ShouldEqual, cfg.Rivalries*cfg.Contests)
			So(stats.Rivalries, ShouldHaveLength, cfg.Rivalries)
			So(stats.Violations(), ShouldBeEmpty)
			So(svc.GetStats()["rivalries"], ShouldEqual, cfg.Rivalries)
		})
	})

	Convey("Given no service", t, func() {
		cfg := validConfig()
		cfg.BaseURL = "http://127.0.0.1:1"
		runner, err := New(cfg)
		So(err, ShouldBeNil)

		_, err = runner.Run(context.Background())
		So(err, ShouldNotBeNil)
	})
}
