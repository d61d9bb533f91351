// Package timeouts holds the deadlines applied to store calls made by
// handlers and background jobs. Values come from the timeout_* config keys.
package timeouts

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Config is one set of timeouts, from single-document calls (Short) up to
// scheduler sweeps and batch ingestion (Batch).
type Config struct {
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Batch  time.Duration
}

// Defaults are in effect until Configure is called.
var Defaults = Config{
	Short:  5 * time.Second,
	Medium: 10 * time.Second,
	Long:   30 * time.Second,
	Batch:  60 * time.Second,
}

var current atomic.Pointer[Config]

func init() { Reset() }

// Short covers single-document reads and writes.
func Short() time.Duration { return current.Load().Short }

// Medium covers report queries over a bounded window.
func Medium() time.Duration { return current.Load().Medium }

// Long covers aggregations over a user's whole history.
func Long() time.Duration { return current.Load().Long }

// Batch covers batch ingestion and scheduler sweeps.
func Batch() time.Duration { return current.Load().Batch }

// Current returns a copy of the active configuration.
func Current() Config { return *current.Load() }

// Configure overrides the active values. Zero fields keep their current value.
func Configure(cfg Config) {
	next := Current()
	if cfg.Short > 0 {
		next.Short = cfg.Short
	}
	if cfg.Medium > 0 {
		next.Medium = cfg.Medium
	}
	if cfg.Long > 0 {
		next.Long = cfg.Long
	}
	if cfg.Batch > 0 {
		next.Batch = cfg.Batch
	}
	current.Store(&next)
}

// Reset restores Defaults.
func Reset() {
	d := Defaults
	current.Store(&d)
}

// WithTimeout derives a context bounded by timeout. The returned cancel logs
// a warning naming operation if the deadline was hit.
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if log != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
