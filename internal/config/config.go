// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/okian/udrf/internal/adapters/repository"
	"github.com/okian/udrf/internal/domain/review"
	"github.com/okian/udrf/internal/domain/rubric"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DBDriver selects the review store and raw data backend:
	// memory, sqlite or postgres.
	DBDriver string `koanf:"db_driver"`

	// DBDSN is the driver-specific data source name.
	DBDSN string `koanf:"db_dsn"`

	// RawDataFile is a YAML or JSON fixture file of departments and their
	// raw data. With a SQL driver it seeds the departments tables.
	RawDataFile string `koanf:"raw_data_file"`

	// LockPolicy is strict or admin_override.
	LockPolicy string `koanf:"lock_policy"`

	// JWTSecret verifies the HS256 bearer tokens of callers.
	JWTSecret string `koanf:"jwt_secret"`

	// WorkerCount sets the number of recompute workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the recompute queue.
	QueueSize int `koanf:"queue_size"`

	// ScoreCacheSize bounds the number of cached auto scores.
	ScoreCacheSize int `koanf:"score_cache_size"`

	// DedupeSize sets how many idempotency keys are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxRankingRows truncates ranking feeds; zero means unlimited.
	MaxRankingRows int `koanf:"max_ranking_rows"`

	// CORSOrigins is a comma-separated list of allowed origins.
	CORSOrigins string `koanf:"cors_origins"`

	// Rubric overrides section maxima, item maxima and points per entry.
	// Item IDs may be written with underscores (I_3) since the dot is the
	// key delimiter.
	Rubric rubric.Overrides `koanf:"rubric"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		Addr:           ":9080",
		DBDriver:       string(repository.DriverMemory),
		LockPolicy:     string(review.PolicyStrict),
		WorkerCount:    runtime.NumCPU(),
		QueueSize:      10_000,
		ScoreCacheSize: 4096,
		DedupeSize:     50_000,
		MaxRankingRows: 0,
	}
}

// Origins splits CORSOrigins.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Policy parses LockPolicy.
func (c *Config) Policy() (review.LockPolicy, error) {
	return review.ParseLockPolicy(c.LockPolicy)
}

// BuildRubric returns the default rubric with the configured overrides.
func (c *Config) BuildRubric() (rubric.Rubric, error) {
	o := rubric.Overrides{
		SectionMax:     upperKeys(c.Rubric.SectionMax),
		ItemMax:        itemKeys(c.Rubric.ItemMax),
		PointsPerEntry: itemKeys(c.Rubric.PointsPerEntry),
	}
	return rubric.Default().WithOverrides(o)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.JWTSecret) == "":
		return fmt.Errorf("%w: jwt_secret must not be empty", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.MaxRankingRows < 0:
		return fmt.Errorf("%w: max_ranking_rows must not be negative", ErrInvalidConfig)
	}
	d, err := repository.ParseDriver(c.DBDriver)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if d != repository.DriverMemory && strings.TrimSpace(c.DBDSN) == "" {
		return fmt.Errorf("%w: db_dsn is required for driver %s", ErrInvalidConfig, d)
	}
	if _, err := c.Policy(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := c.BuildRubric(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func upperKeys(m map[string]float64) map[string]float64 {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	return out
}

// itemKeys turns i_3 into I.3.
func itemKeys(m map[string]float64) map[string]float64 {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(k)), "_", ".")] = v
	}
	return out
}
