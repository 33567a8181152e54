package processor

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Defaults follow the OTEL SDK batch processor specification.
const (
	DefaultMaxQueueSize       = 2048
	DefaultMaxExportBatchSize = 512
	DefaultScheduledDelay     = 5 * time.Second
	DefaultExportTimeout      = 30 * time.Second
)

// Config holds batch processor settings. The zero value is replaced by
// defaults in New.
type Config struct {
	// MaxQueueSize bounds the channel between producers and the background
	// task. When full, new records are dropped, not blocked on.
	MaxQueueSize int
	// MaxExportBatchSize is the staging buffer size that triggers an
	// immediate export. Must not exceed MaxQueueSize.
	MaxExportBatchSize int
	// ScheduledDelay is the periodic flush interval.
	ScheduledDelay time.Duration
	// ExportTimeout bounds a single export call; it is also the wait bound
	// for ForceFlush and Shutdown callers.
	ExportTimeout time.Duration
}

// DefaultConfig returns the default batch processor configuration.
func DefaultConfig() Config {
	return Config{
		MaxQueueSize:       DefaultMaxQueueSize,
		MaxExportBatchSize: DefaultMaxExportBatchSize,
		ScheduledDelay:     DefaultScheduledDelay,
		ExportTimeout:      DefaultExportTimeout,
	}
}

// withDefaults fills zero values with defaults.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = d.MaxQueueSize
	}
	if c.MaxExportBatchSize <= 0 {
		c.MaxExportBatchSize = d.MaxExportBatchSize
	}
	if c.ScheduledDelay <= 0 {
		c.ScheduledDelay = d.ScheduledDelay
	}
	if c.ExportTimeout <= 0 {
		c.ExportTimeout = d.ExportTimeout
	}
	return c
}

// Validate checks configuration invariants.
func (c Config) Validate() error {
	if c.MaxExportBatchSize > c.MaxQueueSize {
		return fmt.Errorf("max export batch size %d exceeds max queue size %d",
			c.MaxExportBatchSize, c.MaxQueueSize)
	}
	return nil
}

// TracesConfigFromEnv returns the default config overridden by the OTEL_BSP_*
// environment variables.
func TracesConfigFromEnv() Config {
	return configFromEnv("OTEL_BSP")
}

// LogsConfigFromEnv returns the default config overridden by the OTEL_BLRP_*
// environment variables.
func LogsConfigFromEnv() Config {
	return configFromEnv("OTEL_BLRP")
}

func configFromEnv(prefix string) Config {
	c := DefaultConfig()
	c.MaxQueueSize = envInt(prefix+"_MAX_QUEUE_SIZE", c.MaxQueueSize)
	c.MaxExportBatchSize = envInt(prefix+"_MAX_EXPORT_BATCH_SIZE", c.MaxExportBatchSize)
	c.ScheduledDelay = envMillis(prefix+"_SCHEDULE_DELAY", c.ScheduledDelay)
	c.ExportTimeout = envMillis(prefix+"_EXPORT_TIMEOUT", c.ExportTimeout)
	return c
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// envMillis reads a duration expressed in milliseconds, per the OTEL
// environment variable convention.
func envMillis(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return time.Duration(n) * time.Millisecond
}
