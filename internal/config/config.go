// Package config holds the tracegen configuration: defaults, an optional
// YAML file, and CLI flags, in that order of precedence. A flag only wins
// over the YAML value when it was explicitly set on the command line.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/szibis/telemetry-pipeline/internal/auth"
	"github.com/szibis/telemetry-pipeline/internal/compression"
	"github.com/szibis/telemetry-pipeline/internal/exporter"
	"github.com/szibis/telemetry-pipeline/internal/processor"
	"github.com/szibis/telemetry-pipeline/internal/record"
	"github.com/szibis/telemetry-pipeline/internal/sampling"
	"github.com/szibis/telemetry-pipeline/internal/telemetry"
	tlspkg "github.com/szibis/telemetry-pipeline/internal/tls"
)

// Config holds all tracegen configuration.
type Config struct {
	// Generator settings
	ServiceName    string
	ServiceVersion string
	Rate           float64
	Workers        int
	RunDuration    time.Duration
	ErrorRatio     float64
	LogsPerSpan    int

	// Sampler settings
	Sampler    string
	SamplerArg string

	// Span collection limits (0 = OTEL env var or SDK default)
	AttributeCountLimit int
	EventCountLimit     int
	LinkCountLimit      int

	// Trace batch processor settings
	TracesQueueSize     int
	TracesBatchSize     int
	TracesScheduleDelay time.Duration
	TracesExportTimeout time.Duration

	// Log batch processor settings
	LogsQueueSize     int
	LogsBatchSize     int
	LogsScheduleDelay time.Duration
	LogsExportTimeout time.Duration

	// Exporter settings
	ExporterEndpoint         string
	ExporterProtocol         string
	ExporterInsecure         bool
	ExporterTimeout          time.Duration
	ExporterCompression      string
	ExporterCompressionLevel int

	// Exporter TLS settings
	ExporterTLSEnabled            bool
	ExporterTLSCertFile           string
	ExporterTLSKeyFile            string
	ExporterTLSCAFile             string
	ExporterTLSInsecureSkipVerify bool
	ExporterTLSServerName         string

	// Exporter auth settings
	ExporterBearerToken       string
	ExporterBasicAuthUsername string
	ExporterBasicAuthPassword string
	ExporterHeaders           map[string]string

	// Exporter HTTP connection pool settings
	HTTPMaxIdleConns        int
	HTTPMaxIdleConnsPerHost int
	HTTPMaxConnsPerHost     int
	HTTPIdleConnTimeout     time.Duration

	// Stdout exporter (dry run) settings
	StdoutExport      bool
	StdoutMinSeverity string

	// Retry and circuit breaker settings
	RetryMaxAttempts     int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64
	CircuitMaxFailures   int
	CircuitResetTimeout  time.Duration

	// Stats settings
	StatsListenAddr  string
	StatsLogInterval time.Duration

	// Self-telemetry settings (OTLP export of tracegen's own logs/metrics)
	TelemetryEndpoint     string
	TelemetryProtocol     string
	TelemetryInsecure     bool
	TelemetryPushInterval time.Duration
	TelemetryCompression  string
	TelemetryHeaders      map[string]string

	// Memory limit ratio for GOMEMLIMIT (fraction of cgroup limit)
	MemoryLimitRatio float64

	// Logging
	LogLevel string

	// Help and version
	ShowHelp    bool
	ShowVersion bool
}

// DefaultConfig returns the default configuration. Processor defaults come
// from the OTEL_BSP_* / OTEL_BLRP_* environment variables when set.
func DefaultConfig() *Config {
	traces := processor.TracesConfigFromEnv()
	logs := processor.LogsConfigFromEnv()
	return &Config{
		ServiceName:    "tracegen",
		ServiceVersion: "dev",
		Rate:           10,
		Workers:        4,
		RunDuration:    0,
		ErrorRatio:     0.05,
		LogsPerSpan:    1,

		Sampler:    envOr("OTEL_TRACES_SAMPLER", sampling.KeyParentBasedAlwaysOn),
		SamplerArg: os.Getenv("OTEL_TRACES_SAMPLER_ARG"),

		TracesQueueSize:     traces.MaxQueueSize,
		TracesBatchSize:     traces.MaxExportBatchSize,
		TracesScheduleDelay: traces.ScheduledDelay,
		TracesExportTimeout: traces.ExportTimeout,

		LogsQueueSize:     logs.MaxQueueSize,
		LogsBatchSize:     logs.MaxExportBatchSize,
		LogsScheduleDelay: logs.ScheduledDelay,
		LogsExportTimeout: logs.ExportTimeout,

		ExporterEndpoint:    "localhost:4317",
		ExporterProtocol:    "grpc",
		ExporterInsecure:    true,
		ExporterTimeout:     30 * time.Second,
		ExporterCompression: "none",

		HTTPMaxIdleConns:        100,
		HTTPMaxIdleConnsPerHost: 10,
		HTTPIdleConnTimeout:     90 * time.Second,

		StdoutMinSeverity: "info",

		RetryMaxAttempts:     3,
		RetryInitialInterval: 200 * time.Millisecond,
		RetryMaxInterval:     5 * time.Second,
		RetryMultiplier:      2.0,
		CircuitMaxFailures:   0,
		CircuitResetTimeout:  30 * time.Second,

		StatsListenAddr:  ":9090",
		StatsLogInterval: time.Minute,

		TelemetryProtocol:     "grpc",
		TelemetryPushInterval: 30 * time.Second,

		MemoryLimitRatio: 0.9,

		LogLevel: "info",
	}
}

// ParseFlags parses command-line flags, loading a YAML file first when
// -config is given. Explicitly set flags override YAML values.
func ParseFlags() *Config {
	return parse(flag.CommandLine, os.Args[1:])
}

func parse(fs *flag.FlagSet, args []string) *Config {
	cfg := DefaultConfig()

	var configFile string
	fs.StringVar(&configFile, "config", "", "Path to YAML config file")

	// Generator
	fs.StringVar(&cfg.ServiceName, "service-name", cfg.ServiceName, "Service name reported on generated telemetry")
	fs.Float64Var(&cfg.Rate, "rate", cfg.Rate, "Spans per second per worker")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Number of generator workers")
	fs.DurationVar(&cfg.RunDuration, "duration", cfg.RunDuration, "How long to generate (0 = until signal)")
	fs.Float64Var(&cfg.ErrorRatio, "error-ratio", cfg.ErrorRatio, "Fraction of spans marked as errors (0..1)")
	fs.IntVar(&cfg.LogsPerSpan, "logs-per-span", cfg.LogsPerSpan, "Log records emitted per generated span")

	// Sampler
	fs.StringVar(&cfg.Sampler, "sampler", cfg.Sampler, "Sampler (always_on, always_off, traceidratio, parentbased_*, ratelimiting)")
	fs.StringVar(&cfg.SamplerArg, "sampler-arg", cfg.SamplerArg, "Sampler argument (ratio or rate per second)")

	// Limits
	fs.IntVar(&cfg.AttributeCountLimit, "attribute-count-limit", cfg.AttributeCountLimit, "Max attributes per span/log (0 = OTEL default)")
	fs.IntVar(&cfg.EventCountLimit, "event-count-limit", cfg.EventCountLimit, "Max events per span (0 = OTEL default)")
	fs.IntVar(&cfg.LinkCountLimit, "link-count-limit", cfg.LinkCountLimit, "Max links per span (0 = OTEL default)")

	// Trace processor
	fs.IntVar(&cfg.TracesQueueSize, "traces-queue-size", cfg.TracesQueueSize, "Trace processor queue size")
	fs.IntVar(&cfg.TracesBatchSize, "traces-batch-size", cfg.TracesBatchSize, "Trace processor max export batch size")
	fs.DurationVar(&cfg.TracesScheduleDelay, "traces-schedule-delay", cfg.TracesScheduleDelay, "Trace processor flush interval")
	fs.DurationVar(&cfg.TracesExportTimeout, "traces-export-timeout", cfg.TracesExportTimeout, "Trace processor export timeout")

	// Log processor
	fs.IntVar(&cfg.LogsQueueSize, "logs-queue-size", cfg.LogsQueueSize, "Log processor queue size")
	fs.IntVar(&cfg.LogsBatchSize, "logs-batch-size", cfg.LogsBatchSize, "Log processor max export batch size")
	fs.DurationVar(&cfg.LogsScheduleDelay, "logs-schedule-delay", cfg.LogsScheduleDelay, "Log processor flush interval")
	fs.DurationVar(&cfg.LogsExportTimeout, "logs-export-timeout", cfg.LogsExportTimeout, "Log processor export timeout")

	// Exporter
	fs.StringVar(&cfg.ExporterEndpoint, "exporter-endpoint", cfg.ExporterEndpoint, "OTLP endpoint (host:port for gRPC, URL for HTTP)")
	fs.StringVar(&cfg.ExporterProtocol, "exporter-protocol", cfg.ExporterProtocol, "OTLP protocol: grpc or http")
	fs.BoolVar(&cfg.ExporterInsecure, "exporter-insecure", cfg.ExporterInsecure, "Use insecure connection (no TLS)")
	fs.DurationVar(&cfg.ExporterTimeout, "exporter-timeout", cfg.ExporterTimeout, "Per-request export timeout")
	fs.StringVar(&cfg.ExporterCompression, "exporter-compression", cfg.ExporterCompression, "Payload compression: none, gzip, zstd, snappy, zlib, deflate, lz4")
	fs.IntVar(&cfg.ExporterCompressionLevel, "exporter-compression-level", cfg.ExporterCompressionLevel, "Compression level (0 = default, 1 = fastest, 9 = best)")

	// Exporter TLS
	fs.BoolVar(&cfg.ExporterTLSEnabled, "exporter-tls-enabled", cfg.ExporterTLSEnabled, "Enable TLS for the exporter")
	fs.StringVar(&cfg.ExporterTLSCertFile, "exporter-tls-cert", cfg.ExporterTLSCertFile, "Client certificate file for mTLS")
	fs.StringVar(&cfg.ExporterTLSKeyFile, "exporter-tls-key", cfg.ExporterTLSKeyFile, "Client key file for mTLS")
	fs.StringVar(&cfg.ExporterTLSCAFile, "exporter-tls-ca", cfg.ExporterTLSCAFile, "CA certificate file for server verification")
	fs.BoolVar(&cfg.ExporterTLSInsecureSkipVerify, "exporter-tls-skip-verify", cfg.ExporterTLSInsecureSkipVerify, "Skip server certificate verification")
	fs.StringVar(&cfg.ExporterTLSServerName, "exporter-tls-server-name", cfg.ExporterTLSServerName, "Expected server name (SNI)")

	// Exporter auth
	fs.StringVar(&cfg.ExporterBearerToken, "exporter-bearer-token", cfg.ExporterBearerToken, "Bearer token for exporter auth")
	fs.StringVar(&cfg.ExporterBasicAuthUsername, "exporter-basic-username", cfg.ExporterBasicAuthUsername, "Basic auth username for exporter")
	fs.StringVar(&cfg.ExporterBasicAuthPassword, "exporter-basic-password", cfg.ExporterBasicAuthPassword, "Basic auth password for exporter")

	// Stdout exporter
	fs.BoolVar(&cfg.StdoutExport, "stdout", cfg.StdoutExport, "Write telemetry to stdout instead of OTLP")
	fs.StringVar(&cfg.StdoutMinSeverity, "stdout-min-severity", cfg.StdoutMinSeverity, "Minimum log severity for stdout export (trace..fatal)")

	// Retry
	fs.IntVar(&cfg.RetryMaxAttempts, "retry-max-attempts", cfg.RetryMaxAttempts, "Total export attempts per batch")
	fs.DurationVar(&cfg.RetryInitialInterval, "retry-initial-interval", cfg.RetryInitialInterval, "First retry backoff delay")
	fs.DurationVar(&cfg.RetryMaxInterval, "retry-max-interval", cfg.RetryMaxInterval, "Max retry backoff delay")
	fs.Float64Var(&cfg.RetryMultiplier, "retry-multiplier", cfg.RetryMultiplier, "Backoff growth multiplier")
	fs.IntVar(&cfg.CircuitMaxFailures, "circuit-max-failures", cfg.CircuitMaxFailures, "Consecutive failures before the circuit opens (0 = disabled)")
	fs.DurationVar(&cfg.CircuitResetTimeout, "circuit-reset-timeout", cfg.CircuitResetTimeout, "How long the circuit stays open before a probe")

	// Stats
	fs.StringVar(&cfg.StatsListenAddr, "stats-listen", cfg.StatsListenAddr, "Listen address for /metrics, /stats and health probes")
	fs.DurationVar(&cfg.StatsLogInterval, "stats-log-interval", cfg.StatsLogInterval, "Interval for periodic stats log lines (0 = disabled)")

	// Self-telemetry
	fs.StringVar(&cfg.TelemetryEndpoint, "telemetry-endpoint", cfg.TelemetryEndpoint, "OTLP endpoint for self logs/metrics (empty = disabled)")
	fs.StringVar(&cfg.TelemetryProtocol, "telemetry-protocol", cfg.TelemetryProtocol, "Self-telemetry protocol: grpc or http")
	fs.BoolVar(&cfg.TelemetryInsecure, "telemetry-insecure", cfg.TelemetryInsecure, "Use insecure connection for self-telemetry")
	fs.DurationVar(&cfg.TelemetryPushInterval, "telemetry-push-interval", cfg.TelemetryPushInterval, "Self-metrics push interval")
	fs.StringVar(&cfg.TelemetryCompression, "telemetry-compression", cfg.TelemetryCompression, "Self-telemetry compression: gzip or empty")

	// Memory
	fs.Float64Var(&cfg.MemoryLimitRatio, "memory-limit-ratio", cfg.MemoryLimitRatio, "GOMEMLIMIT as a fraction of the cgroup memory limit")

	// Logging
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Minimum log level: debug, info, warn, error")

	// Help and version
	fs.BoolVar(&cfg.ShowHelp, "help", false, "Show help message")
	fs.BoolVar(&cfg.ShowHelp, "h", false, "Show help message (shorthand)")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version")
	fs.BoolVar(&cfg.ShowVersion, "v", false, "Show version (shorthand)")

	fs.Usage = func() { PrintUsage(fs) }

	fs.Parse(args)

	if configFile != "" {
		yamlCfg, err := LoadYAML(configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config file %s: %v\n", configFile, err)
			os.Exit(1)
		}
		cfg = yamlCfg.ToConfig()
	}

	applyFlagOverrides(fs, cfg)

	return cfg
}

// applyFlagOverrides re-applies CLI flag values that were explicitly set, so
// they win over the YAML file.
func applyFlagOverrides(fs *flag.FlagSet, cfg *Config) {
	fs.Visit(func(f *flag.Flag) {
		v := f.Value.String()
		switch f.Name {
		case "service-name":
			cfg.ServiceName = v
		case "rate":
			cfg.Rate = parseFloat(v, cfg.Rate)
		case "workers":
			cfg.Workers = parseInt(v, cfg.Workers)
		case "duration":
			cfg.RunDuration = parseDuration(v, cfg.RunDuration)
		case "error-ratio":
			cfg.ErrorRatio = parseFloat(v, cfg.ErrorRatio)
		case "logs-per-span":
			cfg.LogsPerSpan = parseInt(v, cfg.LogsPerSpan)
		case "sampler":
			cfg.Sampler = v
		case "sampler-arg":
			cfg.SamplerArg = v
		case "attribute-count-limit":
			cfg.AttributeCountLimit = parseInt(v, cfg.AttributeCountLimit)
		case "event-count-limit":
			cfg.EventCountLimit = parseInt(v, cfg.EventCountLimit)
		case "link-count-limit":
			cfg.LinkCountLimit = parseInt(v, cfg.LinkCountLimit)
		case "traces-queue-size":
			cfg.TracesQueueSize = parseInt(v, cfg.TracesQueueSize)
		case "traces-batch-size":
			cfg.TracesBatchSize = parseInt(v, cfg.TracesBatchSize)
		case "traces-schedule-delay":
			cfg.TracesScheduleDelay = parseDuration(v, cfg.TracesScheduleDelay)
		case "traces-export-timeout":
			cfg.TracesExportTimeout = parseDuration(v, cfg.TracesExportTimeout)
		case "logs-queue-size":
			cfg.LogsQueueSize = parseInt(v, cfg.LogsQueueSize)
		case "logs-batch-size":
			cfg.LogsBatchSize = parseInt(v, cfg.LogsBatchSize)
		case "logs-schedule-delay":
			cfg.LogsScheduleDelay = parseDuration(v, cfg.LogsScheduleDelay)
		case "logs-export-timeout":
			cfg.LogsExportTimeout = parseDuration(v, cfg.LogsExportTimeout)
		case "exporter-endpoint":
			cfg.ExporterEndpoint = v
		case "exporter-protocol":
			cfg.ExporterProtocol = v
		case "exporter-insecure":
			cfg.ExporterInsecure = v == "true"
		case "exporter-timeout":
			cfg.ExporterTimeout = parseDuration(v, cfg.ExporterTimeout)
		case "exporter-compression":
			cfg.ExporterCompression = v
		case "exporter-compression-level":
			cfg.ExporterCompressionLevel = parseInt(v, cfg.ExporterCompressionLevel)
		case "exporter-tls-enabled":
			cfg.ExporterTLSEnabled = v == "true"
		case "exporter-tls-cert":
			cfg.ExporterTLSCertFile = v
		case "exporter-tls-key":
			cfg.ExporterTLSKeyFile = v
		case "exporter-tls-ca":
			cfg.ExporterTLSCAFile = v
		case "exporter-tls-skip-verify":
			cfg.ExporterTLSInsecureSkipVerify = v == "true"
		case "exporter-tls-server-name":
			cfg.ExporterTLSServerName = v
		case "exporter-bearer-token":
			cfg.ExporterBearerToken = v
		case "exporter-basic-username":
			cfg.ExporterBasicAuthUsername = v
		case "exporter-basic-password":
			cfg.ExporterBasicAuthPassword = v
		case "stdout":
			cfg.StdoutExport = v == "true"
		case "stdout-min-severity":
			cfg.StdoutMinSeverity = v
		case "retry-max-attempts":
			cfg.RetryMaxAttempts = parseInt(v, cfg.RetryMaxAttempts)
		case "retry-initial-interval":
			cfg.RetryInitialInterval = parseDuration(v, cfg.RetryInitialInterval)
		case "retry-max-interval":
			cfg.RetryMaxInterval = parseDuration(v, cfg.RetryMaxInterval)
		case "retry-multiplier":
			cfg.RetryMultiplier = parseFloat(v, cfg.RetryMultiplier)
		case "circuit-max-failures":
			cfg.CircuitMaxFailures = parseInt(v, cfg.CircuitMaxFailures)
		case "circuit-reset-timeout":
			cfg.CircuitResetTimeout = parseDuration(v, cfg.CircuitResetTimeout)
		case "stats-listen":
			cfg.StatsListenAddr = v
		case "stats-log-interval":
			cfg.StatsLogInterval = parseDuration(v, cfg.StatsLogInterval)
		case "telemetry-endpoint":
			cfg.TelemetryEndpoint = v
		case "telemetry-protocol":
			cfg.TelemetryProtocol = v
		case "telemetry-insecure":
			cfg.TelemetryInsecure = v == "true"
		case "telemetry-push-interval":
			cfg.TelemetryPushInterval = parseDuration(v, cfg.TelemetryPushInterval)
		case "telemetry-compression":
			cfg.TelemetryCompression = v
		case "memory-limit-ratio":
			cfg.MemoryLimitRatio = parseFloat(v, cfg.MemoryLimitRatio)
		case "log-level":
			cfg.LogLevel = v
		case "help", "h":
			cfg.ShowHelp = v == "true"
		case "version", "v":
			cfg.ShowVersion = v == "true"
		}
	})
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service name must not be empty")
	}
	if c.Rate <= 0 {
		return fmt.Errorf("rate must be positive, got %g", c.Rate)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.ErrorRatio < 0 || c.ErrorRatio > 1 {
		return fmt.Errorf("error ratio must be in [0, 1], got %g", c.ErrorRatio)
	}
	if c.LogsPerSpan < 0 {
		return fmt.Errorf("logs per span must not be negative, got %d", c.LogsPerSpan)
	}
	if _, err := sampling.Parse(c.Sampler, c.SamplerArg); err != nil {
		return fmt.Errorf("invalid sampler: %w", err)
	}
	if c.ExporterProtocol != "grpc" && c.ExporterProtocol != "http" {
		return fmt.Errorf("exporter protocol must be grpc or http, got %q", c.ExporterProtocol)
	}
	if _, err := compression.ParseType(c.ExporterCompression); err != nil {
		return fmt.Errorf("invalid exporter compression: %w", err)
	}
	if c.TelemetryEndpoint != "" && c.TelemetryProtocol != "grpc" && c.TelemetryProtocol != "http" {
		return fmt.Errorf("telemetry protocol must be grpc or http, got %q", c.TelemetryProtocol)
	}
	if c.MemoryLimitRatio <= 0 || c.MemoryLimitRatio > 1 {
		return fmt.Errorf("memory limit ratio must be in (0, 1], got %g", c.MemoryLimitRatio)
	}
	if err := c.BuildTracesProcessorConfig().Validate(); err != nil {
		return fmt.Errorf("traces processor: %w", err)
	}
	if err := c.BuildLogsProcessorConfig().Validate(); err != nil {
		return fmt.Errorf("logs processor: %w", err)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	return nil
}

// BuildSampler constructs the configured sampler.
func (c *Config) BuildSampler() (sampling.Sampler, error) {
	return sampling.Parse(c.Sampler, c.SamplerArg)
}

// BuildLimits returns the span collection limits, falling back to the OTEL
// defaults for unset values.
func (c *Config) BuildLimits() record.Limits {
	l := record.DefaultLimits()
	if c.AttributeCountLimit > 0 {
		l.AttributeCountLimit = c.AttributeCountLimit
	}
	if c.EventCountLimit > 0 {
		l.EventCountLimit = c.EventCountLimit
	}
	if c.LinkCountLimit > 0 {
		l.LinkCountLimit = c.LinkCountLimit
	}
	return l
}

// BuildExporterConfig assembles the OTLP exporter configuration.
func (c *Config) BuildExporterConfig() (exporter.Config, error) {
	compType, err := compression.ParseType(c.ExporterCompression)
	if err != nil {
		return exporter.Config{}, err
	}
	return exporter.Config{
		Endpoint: c.ExporterEndpoint,
		Protocol: exporter.Protocol(c.ExporterProtocol),
		Insecure: c.ExporterInsecure,
		Timeout:  c.ExporterTimeout,
		TLS: tlspkg.ClientConfig{
			Enabled:            c.ExporterTLSEnabled,
			CertFile:           c.ExporterTLSCertFile,
			KeyFile:            c.ExporterTLSKeyFile,
			CAFile:             c.ExporterTLSCAFile,
			InsecureSkipVerify: c.ExporterTLSInsecureSkipVerify,
			ServerName:         c.ExporterTLSServerName,
		},
		Auth: auth.ClientConfig{
			BearerToken:       c.ExporterBearerToken,
			BasicAuthUsername: c.ExporterBasicAuthUsername,
			BasicAuthPassword: c.ExporterBasicAuthPassword,
			Headers:           c.ExporterHeaders,
		},
		Compression: compression.Config{
			Type:  compType,
			Level: compression.Level(c.ExporterCompressionLevel),
		},
		HTTPClient: exporter.HTTPClientConfig{
			MaxIdleConns:        c.HTTPMaxIdleConns,
			MaxIdleConnsPerHost: c.HTTPMaxIdleConnsPerHost,
			MaxConnsPerHost:     c.HTTPMaxConnsPerHost,
			IdleConnTimeout:     c.HTTPIdleConnTimeout,
		},
	}, nil
}

// BuildRetryConfig assembles the exporter retry configuration.
func (c *Config) BuildRetryConfig() exporter.RetryConfig {
	return exporter.RetryConfig{
		MaxAttempts:         c.RetryMaxAttempts,
		InitialInterval:     c.RetryInitialInterval,
		MaxInterval:         c.RetryMaxInterval,
		Multiplier:          c.RetryMultiplier,
		CircuitMaxFailures:  c.CircuitMaxFailures,
		CircuitResetTimeout: c.CircuitResetTimeout,
	}
}

// BuildTracesProcessorConfig assembles the trace batch processor settings.
func (c *Config) BuildTracesProcessorConfig() processor.Config {
	return processor.Config{
		MaxQueueSize:       c.TracesQueueSize,
		MaxExportBatchSize: c.TracesBatchSize,
		ScheduledDelay:     c.TracesScheduleDelay,
		ExportTimeout:      c.TracesExportTimeout,
	}
}

// BuildLogsProcessorConfig assembles the log batch processor settings.
func (c *Config) BuildLogsProcessorConfig() processor.Config {
	return processor.Config{
		MaxQueueSize:       c.LogsQueueSize,
		MaxExportBatchSize: c.LogsBatchSize,
		ScheduledDelay:     c.LogsScheduleDelay,
		ExportTimeout:      c.LogsExportTimeout,
	}
}

// BuildTelemetryConfig assembles the self-telemetry configuration.
func (c *Config) BuildTelemetryConfig() telemetry.Config {
	return telemetry.Config{
		Endpoint:     c.TelemetryEndpoint,
		Protocol:     c.TelemetryProtocol,
		Insecure:     c.TelemetryInsecure,
		PushInterval: c.TelemetryPushInterval,
		Compression:  c.TelemetryCompression,
		Headers:      c.TelemetryHeaders,
		RetryEnabled: true,
	}
}

// StdoutSeverity returns the minimum severity for the stdout log exporter.
func (c *Config) StdoutSeverity() record.Severity {
	switch c.StdoutMinSeverity {
	case "trace":
		return record.SeverityTrace
	case "debug":
		return record.SeverityDebug
	case "warn":
		return record.SeverityWarn
	case "error":
		return record.SeverityError
	case "fatal":
		return record.SeverityFatal
	default:
		return record.SeverityInfo
	}
}

// version is set at build time via -ldflags.
var version = "dev"

// Version returns the build version.
func Version() string { return version }

// PrintVersion prints the version.
func PrintVersion() {
	fmt.Printf("tracegen version %s\n", version)
}

// PrintUsage prints help text grouped by concern.
func PrintUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, "tracegen - synthetic telemetry load generator\n\n")
	fmt.Fprintf(os.Stderr, "Usage: tracegen [flags]\n\n")
	fmt.Fprintf(os.Stderr, "Flags:\n")
	fs.PrintDefaults()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseFloat(s string, def float64) float64 {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return def
}

func parseDuration(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}
