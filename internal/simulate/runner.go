// Package simulate drives a running rivalry service over HTTP: it provisions
// a generated roster, plays many rivalries concurrently with outcomes drawn
// from hidden fighter skills, then checks every resulting tier list.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"golang.org/x/sync/errgroup"

	service "github.com/okian/rivalry/internal/app"
	"github.com/okian/rivalry/internal/domain/model"
	"github.com/okian/rivalry/pkg/logger"
)

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithHTTPClient replaces the HTTP client built from Config.Timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(r *Runner) { r.client = NewClient(r.cfg.BaseURL, hc) }
}

// Runner executes a simulation.
type Runner struct {
	cfg    Config
	client *Client
	log    logger.Logger
}

// New validates cfg and builds a Runner.
func New(cfg Config, opts ...Option) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	r := &Runner{
		cfg:    cfg,
		client: NewClient(cfg.BaseURL, &http.Client{Timeout: cfg.Timeout}),
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run plays the simulation and verifies the result. It returns the stats
// together with ErrInvariant when any tier list ended up inconsistent.
func (r *Runner) Run(ctx context.Context) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	r.log.Info(ctx, "starting rivalry simulation",
		logger.String("baseURL", r.cfg.BaseURL),
		logger.Int("fighters", r.cfg.Fighters),
		logger.Int("rivalries", r.cfg.Rivalries),
		logger.Int("contests", r.cfg.Contests),
		logger.Int("workers", r.cfg.Workers))

	if err := r.client.Health(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	faker := gofakeit.New(r.cfg.Seed)
	names := roster(faker, r.cfg.Fighters)
	plans := matchups(faker, names, r.cfg.Rivalries)

	game, err := r.client.CreateGame(ctx, faker.AppName(), names)
	if err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	stats.GameID = game.Game.ID

	reports := make([]RivalryReport, len(plans))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, m := range plans {
		g.Go(func() error {
			rep, err := r.play(gctx, game, m)
			if err != nil {
				return fmt.Errorf("rivalry %d: %w", i, err)
			}
			reports[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, rep := range reports {
		stats.Resolved += rep.Resolved
		stats.Undone += rep.Undone
		stats.Failed += rep.Failed
	}
	stats.Rivalries = reports
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	r.report(ctx, stats)

	if v := stats.Violations(); len(v) > 0 {
		return stats, fmt.Errorf("%w: %s", ErrInvariant, strings.Join(v, "; "))
	}
	return stats, nil
}

// play resolves Contests contests in one rivalry, occasionally undoing one,
// and verifies both tier lists at the end.
func (r *Runner) play(ctx context.Context, game service.GameView, m matchup) (RivalryReport, error) {
	view, err := r.client.CreateRivalry(ctx, game.Game.ID, m.A, m.B)
	if err != nil {
		return RivalryReport{}, err
	}
	rep := RivalryReport{RivalryID: view.Rivalry.ID}
	faker := gofakeit.New(m.Seed)

	for played := 0; played < r.cfg.Contests; played++ {
		if view.Contest == nil {
			return rep, fmt.Errorf("rivalry %s has no open contest", view.Rivalry.ID)
		}
		a := fighterName(view.A, view.Contest.SlotID(model.SideA))
		b := fighterName(view.B, view.Contest.SlotID(model.SideB))
		result := outcome(faker, m.Skills[model.SideA][a], m.Skills[model.SideB][b], r.cfg.MaxMargin)

		res, err := r.client.Resolve(ctx, view.Rivalry.ID, result)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return rep, err
			}
			rep.Failed++
			r.log.Warn(ctx, "resolve failed", logger.String("rivalry_id", view.Rivalry.ID), logger.Error(err))
			if view, err = r.client.Rivalry(ctx, view.Rivalry.ID); err != nil {
				return rep, err
			}
			continue
		}
		rep.Resolved++
		view = res.Rivalry

		if r.cfg.UndoRate > 0 && faker.Float64() < r.cfg.UndoRate {
			if view, err = r.client.Undo(ctx, view.Rivalry.ID); err != nil {
				return rep, fmt.Errorf("undo: %w", err)
			}
			rep.Undone++
		}
	}

	final, err := r.client.Rivalry(ctx, view.Rivalry.ID)
	if err != nil {
		return rep, err
	}
	if want := rep.Resolved - rep.Undone; final.Rivalry.ContestCount != want {
		rep.Violations = append(rep.Violations,
			fmt.Sprintf("contest count %d, expected %d", final.Rivalry.ContestCount, want))
	}
	for side, tl := range [2]service.TierListView{final.A, final.B} {
		rep.Violations = append(rep.Violations, checkTierList(tl)...)
		rep.Agreement[side] = agreement(tl, m.Skills[side])
	}
	return rep, nil
}

func fighterName(v service.TierListView, slotID string) string {
	for _, s := range v.Slots {
		if s.ID == slotID {
			return s.FighterName
		}
	}
	return ""
}

func (r *Runner) report(ctx context.Context, stats *Stats) {
	var sum float64
	for _, rep := range stats.Rivalries {
		sum += rep.Agreement[0] + rep.Agreement[1]
		if r.cfg.Verbose {
			r.log.Info(ctx, "rivalry finished",
				logger.String("rivalry_id", rep.RivalryID),
				logger.Int("resolved", rep.Resolved),
				logger.Int("undone", rep.Undone),
				logger.Float64("agreement_a", rep.Agreement[0]),
				logger.Float64("agreement_b", rep.Agreement[1]))
		}
	}
	var mean, perSecond float64
	if n := len(stats.Rivalries); n > 0 {
		mean = sum / float64(2*n)
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.Resolved) / stats.Duration.Seconds()
	}
	r.log.Info(ctx, "simulation finished",
		logger.String("game_id", stats.GameID),
		logger.Int("resolved", stats.Resolved),
		logger.Int("undone", stats.Undone),
		logger.Int("failed", stats.Failed),
		logger.Int("violations", len(stats.Violations())),
		logger.Float64("mean_agreement", mean),
		logger.Float64("contests_per_second", perSecond),
		logger.Duration("duration", stats.Duration))
}
