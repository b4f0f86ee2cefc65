package simulate

import (
	"fmt"
	"time"
)

// Config describes one simulation run against a live service.
type Config struct {
	BaseURL   string        // base URL of the service
	Fighters  int           // roster size of the generated game
	Rivalries int           // rivalries played concurrently
	Contests  int           // contests resolved per rivalry
	Workers   int           // rivalries in flight at once
	MaxMargin int           // largest |result| a contest can have
	UndoRate  float64       // chance of undoing a contest right after resolving it
	Timeout   time.Duration // per request timeout
	Seed      uint64        // seed for names, skills and outcomes
	Verbose   bool
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: base url is empty", ErrInvalidConfig)
	case c.Fighters < 2:
		return fmt.Errorf("%w: need at least two fighters", ErrInvalidConfig)
	case c.Rivalries <= 0 || c.Contests <= 0 || c.Workers <= 0:
		return fmt.Errorf("%w: rivalries, contests and workers must be positive", ErrInvalidConfig)
	case c.MaxMargin <= 0:
		return fmt.Errorf("%w: max margin must be positive", ErrInvalidConfig)
	case c.UndoRate < 0 || c.UndoRate >= 1:
		return fmt.Errorf("%w: undo rate must be in [0, 1)", ErrInvalidConfig)
	}
	return nil
}

// RivalryReport is the verification outcome of one simulated rivalry.
type RivalryReport struct {
	RivalryID string
	Resolved  int
	Undone    int
	Failed    int
	// Agreement is the rank correlation between each participant's hidden
	// fighter skill and the resulting tier list, in [-1, 1].
	Agreement [2]float64
	// Violations lists broken tier list invariants. Empty for a healthy run.
	Violations []string
}

// Stats summarises a run.
type Stats struct {
	GameID    string
	Resolved  int
	Undone    int
	Failed    int
	Rivalries []RivalryReport
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Violations returns every violation across rivalries, prefixed with the rivalry id.
func (s *Stats) Violations() []string {
	var out []string
	for _, r := range s.Rivalries {
		for _, v := range r.Violations {
			out = append(out, r.RivalryID+": "+v)
		}
	}
	return out
}
