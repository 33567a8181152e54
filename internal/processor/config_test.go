package processor

import (
	"os"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	if c.MaxQueueSize != 2048 {
		t.Errorf("MaxQueueSize = %d, want 2048", c.MaxQueueSize)
	}
	if c.MaxExportBatchSize != 512 {
		t.Errorf("MaxExportBatchSize = %d, want 512", c.MaxExportBatchSize)
	}
	if c.ScheduledDelay != 5*time.Second {
		t.Errorf("ScheduledDelay = %v, want 5s", c.ScheduledDelay)
	}
	if c.ExportTimeout != 30*time.Second {
		t.Errorf("ExportTimeout = %v, want 30s", c.ExportTimeout)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	c := Config{MaxQueueSize: 10, MaxExportBatchSize: 11}
	if err := c.Validate(); err == nil {
		t.Error("batch size > queue size must be rejected")
	}
	c.MaxExportBatchSize = 10
	if err := c.Validate(); err != nil {
		t.Errorf("batch size == queue size must be accepted: %v", err)
	}
}

func TestWithDefaultsFillsZeroValues(t *testing.T) {
	c := Config{MaxQueueSize: 100}.withDefaults()
	if c.MaxQueueSize != 100 {
		t.Errorf("explicit MaxQueueSize overwritten: %d", c.MaxQueueSize)
	}
	if c.MaxExportBatchSize != DefaultMaxExportBatchSize {
		t.Errorf("MaxExportBatchSize = %d, want default", c.MaxExportBatchSize)
	}
	if c.ScheduledDelay != DefaultScheduledDelay {
		t.Errorf("ScheduledDelay = %v, want default", c.ScheduledDelay)
	}
}

func TestTracesConfigFromEnv(t *testing.T) {
	os.Setenv("OTEL_BSP_MAX_QUEUE_SIZE", "100")
	os.Setenv("OTEL_BSP_MAX_EXPORT_BATCH_SIZE", "25")
	os.Setenv("OTEL_BSP_SCHEDULE_DELAY", "1500")
	os.Setenv("OTEL_BSP_EXPORT_TIMEOUT", "bogus")
	defer func() {
		os.Unsetenv("OTEL_BSP_MAX_QUEUE_SIZE")
		os.Unsetenv("OTEL_BSP_MAX_EXPORT_BATCH_SIZE")
		os.Unsetenv("OTEL_BSP_SCHEDULE_DELAY")
		os.Unsetenv("OTEL_BSP_EXPORT_TIMEOUT")
	}()

	c := TracesConfigFromEnv()
	if c.MaxQueueSize != 100 {
		t.Errorf("MaxQueueSize = %d, want 100", c.MaxQueueSize)
	}
	if c.MaxExportBatchSize != 25 {
		t.Errorf("MaxExportBatchSize = %d, want 25", c.MaxExportBatchSize)
	}
	if c.ScheduledDelay != 1500*time.Millisecond {
		t.Errorf("ScheduledDelay = %v, want 1.5s", c.ScheduledDelay)
	}
	if c.ExportTimeout != DefaultExportTimeout {
		t.Errorf("malformed env must fall back to default, got %v", c.ExportTimeout)
	}
}

func TestLogsConfigFromEnv(t *testing.T) {
	os.Setenv("OTEL_BLRP_MAX_QUEUE_SIZE", "77")
	defer os.Unsetenv("OTEL_BLRP_MAX_QUEUE_SIZE")

	c := LogsConfigFromEnv()
	if c.MaxQueueSize != 77 {
		t.Errorf("MaxQueueSize = %d, want 77", c.MaxQueueSize)
	}
}
