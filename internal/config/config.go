// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Keys are flat so that every field can be set from PRAGATI_* env vars.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"context"
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr" validate:"required"`

	// Timezone names the IANA location used to cut calendar days.
	Timezone string `koanf:"timezone" validate:"required"`

	// DBDriver selects the storage backend: postgres or sqlite.
	DBDriver string `koanf:"db_driver" validate:"required,oneof=postgres sqlite"`

	// DBDSN is the driver specific connection string.
	DBDSN string `koanf:"db_dsn" validate:"required"`

	DBMaxOpenConns    int           `koanf:"db_max_open_conns" validate:"gte=0"`
	DBMaxIdleConns    int           `koanf:"db_max_idle_conns" validate:"gte=0"`
	DBConnMaxLifetime time.Duration `koanf:"db_conn_max_lifetime" validate:"gte=0"`

	// EventQueueSize bounds the in-memory event queue.
	EventQueueSize int `koanf:"queue_size" validate:"min=1"`

	// WorkerCount sets the number of ingest workers.
	WorkerCount int `koanf:"worker_count" validate:"min=1"`

	// DedupeBackend selects where seen event ids live: memory or redis.
	DedupeBackend string `koanf:"dedupe_backend" validate:"oneof=memory redis"`

	// DedupeSize bounds the in-memory deduplication cache.
	DedupeSize int `koanf:"dedupe_size" validate:"min=1"`

	// DedupeTTL is how long the redis backend remembers an event id.
	DedupeTTL time.Duration `koanf:"dedupe_ttl" validate:"gte=0"`

	RedisAddr     string `koanf:"redis_addr" validate:"required_if=DedupeBackend redis"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db" validate:"gte=0"`

	// StreakMilestones lists the streak lengths that trigger a milestone.
	StreakMilestones []int `koanf:"streak_milestones" validate:"dive,min=1"`

	// InactivityDays is the default threshold for inactivity alerts.
	InactivityDays int `koanf:"inactivity_days" validate:"min=1"`

	// QuietHoursStart and QuietHoursEnd are the default quiet window (HH:MM).
	QuietHoursStart string `koanf:"quiet_hours_start" validate:"required"`
	QuietHoursEnd   string `koanf:"quiet_hours_end" validate:"required"`

	// MaxActivityLimit caps GET /students/:id/activities?limit.
	MaxActivityLimit int `koanf:"max_activity_limit" validate:"min=1"`

	// ShutdownTimeout bounds graceful shutdown of the HTTP server and workers.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// New creates a Config populated with defaults. Context is accepted first to
// satisfy the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		Timezone:          "UTC",
		DBDriver:          "sqlite",
		DBDSN:             "file:pragati.db?_busy_timeout=5000",
		DBMaxOpenConns:    20,
		DBMaxIdleConns:    5,
		DBConnMaxLifetime: 30 * time.Minute,
		EventQueueSize:    10_000,
		WorkerCount:       runtime.NumCPU() * 2,
		DedupeBackend:     "memory",
		DedupeSize:        100_000,
		DedupeTTL:         24 * time.Hour,
		RedisAddr:         "localhost:6379",
		StreakMilestones:  []int{7, 14, 30, 60},
		InactivityDays:    3,
		QuietHoursStart:   "22:00",
		QuietHoursEnd:     "08:00",
		MaxActivityLimit:  200,
		ShutdownTimeout:   10 * time.Second,
	}
}

// Location resolves Timezone. Validate guarantees it succeeds on a loaded Config.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
