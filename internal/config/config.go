// Package config defines service configuration and its defaults.
//
// Values are layered by Load: defaults from New, then an optional YAML file
// named by RIVALRY_CONFIG, then RIVALRY_* environment variables.
package config

import (
	"context"
	"fmt"
	"runtime"
	"time"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// RosterSize is N, the number of fighters (and Slots per TierList).
	RosterSize int `koanf:"roster_size"`
	// TierCount is T, the number of tier bands.
	TierCount int `koanf:"tier_count"`
	// StepsPerPoint multiplies the contest result into adjuster steps.
	StepsPerPoint int `koanf:"steps_per_point"`
	// PlacementBias is the per-point offset used when an unranked contestant is placed.
	PlacementBias int `koanf:"placement_bias"`
	// LookbackWindow and LookbackStep define the sampler's anti-repeat ladder.
	LookbackWindow int `koanf:"lookback_window"`
	LookbackStep   int `koanf:"lookback_step"`
	// ProvisionalThreshold is the Slot contest count after which global fighter stats move.
	ProvisionalThreshold int `koanf:"provisional_threshold"`
	// MaxResult caps the absolute contest result; 0 means roster_size-1.
	MaxResult int `koanf:"max_result"`

	// Store selects the repository backend: memory or postgres.
	Store       string `koanf:"store"`
	PostgresDSN string `koanf:"postgres_dsn"`

	// AuditIntervalSec schedules the periodic integrity audit; 0 disables it.
	AuditIntervalSec int `koanf:"audit_interval_sec"`
	// QueueSize bounds the background job queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of background workers.
	WorkerCount int `koanf:"worker_count"`
	// HistoryPageSize is the page size used when reading contest history.
	HistoryPageSize int `koanf:"history_page_size"`
	// BatchConcurrency caps concurrent writes in one batch; 0 means unbounded.
	BatchConcurrency int `koanf:"batch_concurrency"`

	// IdempotencyTTLSec is how long an Idempotency-Key is remembered.
	IdempotencyTTLSec int `koanf:"idempotency_ttl_sec"`
	// IdempotencyMaxKeys caps remembered keys; 0 means unbounded.
	IdempotencyMaxKeys int `koanf:"idempotency_max_keys"`
}

// New returns a Config holding the defaults. Context is accepted first to
// follow the project convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		RosterSize:           86,
		TierCount:            7,
		StepsPerPoint:        3,
		PlacementBias:        14,
		LookbackWindow:       30,
		LookbackStep:         5,
		ProvisionalThreshold: 10,
		Store:                StoreMemory,
		AuditIntervalSec:     300,
		QueueSize:            1024,
		WorkerCount:          runtime.NumCPU(),
		HistoryPageSize:      50,
		BatchConcurrency:     0,
		IdempotencyTTLSec:    600,
		IdempotencyMaxKeys:   50000,
	}
}

// AuditInterval returns AuditIntervalSec as a duration.
func (c *Config) AuditInterval() time.Duration {
	return time.Duration(c.AuditIntervalSec) * time.Second
}

// IdempotencyTTL returns IdempotencyTTLSec as a duration.
func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempotencyTTLSec) * time.Second
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.RosterSize <= 0:
		return fmt.Errorf("%w: roster_size must be positive", ErrInvalidConfig)
	case c.TierCount <= 0 || c.TierCount > c.RosterSize:
		return fmt.Errorf("%w: tier_count must be in [1, roster_size]", ErrInvalidConfig)
	case c.StepsPerPoint <= 0:
		return fmt.Errorf("%w: steps_per_point must be positive", ErrInvalidConfig)
	case c.MaxResult < 0:
		return fmt.Errorf("%w: max_result must not be negative", ErrInvalidConfig)
	case c.PlacementBias < 0:
		return fmt.Errorf("%w: placement_bias must not be negative", ErrInvalidConfig)
	case c.LookbackWindow <= 0 || c.LookbackStep <= 0:
		return fmt.Errorf("%w: lookback_window and lookback_step must be positive", ErrInvalidConfig)
	case c.Store != StoreMemory && c.Store != StorePostgres:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	case c.Store == StorePostgres && c.PostgresDSN == "":
		return fmt.Errorf("%w: postgres_dsn is required for the postgres store", ErrInvalidConfig)
	case c.QueueSize <= 0 || c.WorkerCount <= 0:
		return fmt.Errorf("%w: queue_size and worker_count must be positive", ErrInvalidConfig)
	case c.HistoryPageSize <= 0:
		return fmt.Errorf("%w: history_page_size must be positive", ErrInvalidConfig)
	case c.AuditIntervalSec < 0 || c.IdempotencyTTLSec < 0:
		return fmt.Errorf("%w: intervals must not be negative", ErrInvalidConfig)
	}
	return nil
}
