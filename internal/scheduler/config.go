package scheduler

import (
	"time"

	"github.com/Gizz1e/Gizzle/internal/config"
)

// Config controls how often and how much the reconciliation sweep runs.
type Config struct {
	RunInterval time.Duration
	StaleAfter  time.Duration
	BatchSize   int
	JobTimeout  time.Duration
	LockTTL     time.Duration
}

func DefaultConfig() Config {
	return Config{
		RunInterval: time.Minute,
		StaleAfter:  15 * time.Minute,
		BatchSize:   50,
		JobTimeout:  30 * time.Second,
		LockTTL:     2 * time.Minute,
	}
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		RunInterval: cfg.Reconcile.Interval,
		StaleAfter:  cfg.Reconcile.StaleAfter,
		BatchSize:   cfg.Reconcile.BatchSize,
		JobTimeout:  cfg.Reconcile.JobTimeout,
		LockTTL:     cfg.Reconcile.LockTTL,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = defaults.StaleAfter
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	// The lock must outlive the job it guards.
	if c.LockTTL < c.JobTimeout {
		c.LockTTL = c.JobTimeout + defaults.JobTimeout
	}
	return c
}
