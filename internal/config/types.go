package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration wraps time.Duration for text-based config parsing ("5m", "1h").
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	if parsed < 0 {
		return fmt.Errorf("duration cannot be negative: %s", text)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration().String()), nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration().String())
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config is the root configuration for insightd.
type Config struct {
	Cache    CacheConfig    `koanf:"cache"`
	Pipeline PipelineConfig `koanf:"pipeline"`
	Insights InsightsConfig `koanf:"insights"`
	Logging  LoggingConfig  `koanf:"logging"`

	// TestMode overrides every cache TTL with one short deterministic
	// value so cache behavior is reproducible in tests.
	TestMode bool `koanf:"test_mode"`
}

// CacheConfig configures the multi-tier cache.
type CacheConfig struct {
	TTL             TTLConfig    `koanf:"ttl"`
	NegativeTTL     Duration     `koanf:"negative_ttl"`
	NegativeEvict   Duration     `koanf:"negative_evict"`
	PromotionFactor float64      `koanf:"promotion_factor"`
	SweepInterval   Duration     `koanf:"sweep_interval"`
	Memory          MemoryConfig `koanf:"memory"`
	Redis           RedisConfig  `koanf:"redis"`
	SQLite          SQLiteConfig `koanf:"sqlite"`
}

// TTLConfig holds the per-category cache lifetimes.
type TTLConfig struct {
	Voice    Duration `koanf:"voice"`
	Patterns Duration `koanf:"patterns"`
	Insights Duration `koanf:"insights"`
}

// MemoryConfig configures the in-process cache tier.
type MemoryConfig struct {
	MaxEntries int `koanf:"max_entries"`
}

// RedisConfig configures the shared durable cache tier.
type RedisConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// SQLiteConfig configures the local durable cache tier.
type SQLiteConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// PipelineConfig configures the orchestrator.
type PipelineConfig struct {
	Enabled       bool     `koanf:"enabled"`
	BranchTimeout Duration `koanf:"branch_timeout"`
	SampleSize    int      `koanf:"sample_size"`
}

// InsightsConfig configures insight generation.
type InsightsConfig struct {
	MaxPerCategory int `koanf:"max_per_category"`
}

// LoggingConfig mirrors internal/logging.Config at the koanf layer.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TestModeTTL is the single TTL applied to every category when TestMode is set.
const TestModeTTL = Duration(10 * time.Second)

// NewDefaultConfig returns the hardcoded defaults, before file and env overrides.
func NewDefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			TTL: TTLConfig{
				Voice:    Duration(30 * time.Minute),
				Patterns: Duration(1 * time.Hour),
				Insights: Duration(6 * time.Hour),
			},
			NegativeTTL:     Duration(5 * time.Minute),
			NegativeEvict:   Duration(1 * time.Minute),
			PromotionFactor: 0.5,
			SweepInterval:   Duration(1 * time.Hour),
			Memory: MemoryConfig{
				MaxEntries: 1000,
			},
			Redis: RedisConfig{
				Enabled: false,
				Addr:    "localhost:6379",
			},
			SQLite: SQLiteConfig{
				Enabled: false,
				Path:    "",
			},
		},
		Pipeline: PipelineConfig{
			Enabled:       true,
			BranchTimeout: Duration(3 * time.Second),
			SampleSize:    50,
		},
		Insights: InsightsConfig{
			MaxPerCategory: 3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Cache.TTL.Voice <= 0 || c.Cache.TTL.Patterns <= 0 || c.Cache.TTL.Insights <= 0 {
		return fmt.Errorf("cache category TTLs must be positive")
	}
	if c.Cache.NegativeTTL <= 0 {
		return fmt.Errorf("cache negative_ttl must be positive")
	}
	if c.Cache.NegativeEvict <= 0 || c.Cache.NegativeEvict > c.Cache.NegativeTTL {
		return fmt.Errorf("cache negative_evict must be positive and at most negative_ttl")
	}
	if c.Cache.PromotionFactor <= 0 || c.Cache.PromotionFactor > 1 {
		return fmt.Errorf("cache promotion_factor must be in (0, 1], got %v", c.Cache.PromotionFactor)
	}
	if c.Cache.SweepInterval <= 0 {
		return fmt.Errorf("cache sweep_interval must be positive")
	}
	if c.Cache.Memory.MaxEntries <= 0 {
		return fmt.Errorf("cache memory max_entries must be positive")
	}
	if c.Cache.Redis.Enabled && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache redis addr required when redis enabled")
	}
	if c.Cache.SQLite.Enabled && c.Cache.SQLite.Path == "" {
		return fmt.Errorf("cache sqlite path required when sqlite enabled")
	}
	if c.Pipeline.BranchTimeout <= 0 {
		return fmt.Errorf("pipeline branch_timeout must be positive")
	}
	if c.Pipeline.SampleSize <= 0 {
		return fmt.Errorf("pipeline sample_size must be positive")
	}
	if c.Insights.MaxPerCategory <= 0 {
		return fmt.Errorf("insights max_per_category must be positive")
	}
	return nil
}

// CategoryTTL returns the configured lifetime for a bundle category,
// honoring the test-mode override.
func (c *Config) CategoryTTL(category string) time.Duration {
	if c.TestMode {
		return TestModeTTL.Duration()
	}
	switch category {
	case "voice":
		return c.Cache.TTL.Voice.Duration()
	case "patterns":
		return c.Cache.TTL.Patterns.Duration()
	default:
		return c.Cache.TTL.Insights.Duration()
	}
}

// NegativeTTLValue returns the short lifetime for empty-insight bundles,
// honoring the test-mode override.
func (c *Config) NegativeTTLValue() time.Duration {
	if c.TestMode {
		return TestModeTTL.Duration()
	}
	return c.Cache.NegativeTTL.Duration()
}

// NegativeEvictValue returns the remaining-life threshold below which a
// cached negative result is evicted on read, honoring test mode.
func (c *Config) NegativeEvictValue() time.Duration {
	if c.TestMode {
		return 2 * time.Second
	}
	return c.Cache.NegativeEvict.Duration()
}
