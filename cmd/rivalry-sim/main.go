// Command rivalry-sim plays generated rivalries against a running service
// and verifies the resulting tier lists.
package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/okian/rivalry/internal/simulate"
	"github.com/okian/rivalry/pkg/logger"
)

const (
	defaultFighters  = 86
	defaultRivalries = 20
	defaultContests  = 200
	defaultMaxMargin = 3
	defaultUndoRate  = 0.05
	defaultTimeout   = 30 * time.Second
	defaultRunTime   = 10 * time.Minute
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "rivalry-sim",
		Usage:  "simulate rivalries against a rivalry service",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:9080", Usage: "base URL of the service", EnvVars: []string{"RIVALRY_SIM_URL"}},
			&cli.IntFlag{Name: "fighters", Value: defaultFighters, Usage: "roster size of the generated game"},
			&cli.IntFlag{Name: "rivalries", Value: defaultRivalries, Usage: "number of rivalries to play"},
			&cli.IntFlag{Name: "contests", Value: defaultContests, Usage: "contests resolved per rivalry"},
			&cli.IntFlag{Name: "workers", Value: runtime.NumCPU(), Usage: "rivalries played at once"},
			&cli.IntFlag{Name: "max-margin", Value: defaultMaxMargin, Usage: "largest contest result"},
			&cli.Float64Flag{Name: "undo-rate", Value: defaultUndoRate, Usage: "chance of undoing a contest after resolving it"},
			&cli.DurationFlag{Name: "timeout", Value: defaultTimeout, Usage: "HTTP request timeout"},
			&cli.DurationFlag{Name: "run-timeout", Value: defaultRunTime, Usage: "limit for the whole run"},
			&cli.Uint64Flag{Name: "seed", Value: uint64(time.Now().UnixNano()), Usage: "seed for names, skills and outcomes"},
			&cli.StringFlag{Name: "log-format", Value: string(logger.FormatText), Usage: "text or json"},
			&cli.BoolFlag{Name: "verbose", Usage: "log every rivalry"},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	if err := logger.InitWith(c.App.Writer, logger.Format(c.String("log-format"))); err != nil {
		return err
	}

	cfg := simulate.Config{
		BaseURL:   c.String("url"),
		Fighters:  c.Int("fighters"),
		Rivalries: c.Int("rivalries"),
		Contests:  c.Int("contests"),
		Workers:   c.Int("workers"),
		MaxMargin: c.Int("max-margin"),
		UndoRate:  c.Float64("undo-rate"),
		Timeout:   c.Duration("timeout"),
		Seed:      c.Uint64("seed"),
		Verbose:   c.Bool("verbose"),
	}
	runner, err := simulate.New(cfg, simulate.WithLogger(logger.Named("simulate")))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, c.Duration("run-timeout"))
	defer cancel()

	_, err = runner.Run(ctx)
	return err
}
