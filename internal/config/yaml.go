package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration for YAML parsing of strings like "30s".
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration as a string like "30s".
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std converts to time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// YAMLConfig mirrors Config with nested sections for the YAML file.
type YAMLConfig struct {
	Generator struct {
		ServiceName    string   `yaml:"service_name"`
		ServiceVersion string   `yaml:"service_version"`
		Rate           *float64 `yaml:"rate"`
		Workers        *int     `yaml:"workers"`
		Duration       Duration `yaml:"duration"`
		ErrorRatio     *float64 `yaml:"error_ratio"`
		LogsPerSpan    *int     `yaml:"logs_per_span"`
	} `yaml:"generator"`

	Sampler struct {
		Name string `yaml:"name"`
		Arg  string `yaml:"arg"`
	} `yaml:"sampler"`

	Limits struct {
		Attributes int `yaml:"attributes"`
		Events     int `yaml:"events"`
		Links      int `yaml:"links"`
	} `yaml:"limits"`

	Traces ProcessorYAML `yaml:"traces"`
	Logs   ProcessorYAML `yaml:"logs"`

	Exporter struct {
		Endpoint    string   `yaml:"endpoint"`
		Protocol    string   `yaml:"protocol"`
		Insecure    *bool    `yaml:"insecure"`
		Timeout     Duration `yaml:"timeout"`
		Compression struct {
			Type  string `yaml:"type"`
			Level int    `yaml:"level"`
		} `yaml:"compression"`
		TLS struct {
			Enabled            bool   `yaml:"enabled"`
			CertFile           string `yaml:"cert_file"`
			KeyFile            string `yaml:"key_file"`
			CAFile             string `yaml:"ca_file"`
			InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
			ServerName         string `yaml:"server_name"`
		} `yaml:"tls"`
		Auth struct {
			BearerToken       string            `yaml:"bearer_token"`
			BasicAuthUsername string            `yaml:"basic_auth_username"`
			BasicAuthPassword string            `yaml:"basic_auth_password"`
			Headers           map[string]string `yaml:"headers"`
		} `yaml:"auth"`
		HTTP struct {
			MaxIdleConns        *int     `yaml:"max_idle_conns"`
			MaxIdleConnsPerHost *int     `yaml:"max_idle_conns_per_host"`
			MaxConnsPerHost     *int     `yaml:"max_conns_per_host"`
			IdleConnTimeout     Duration `yaml:"idle_conn_timeout"`
		} `yaml:"http"`
		Stdout struct {
			Enabled     bool   `yaml:"enabled"`
			MinSeverity string `yaml:"min_severity"`
		} `yaml:"stdout"`
	} `yaml:"exporter"`

	Retry struct {
		MaxAttempts         *int     `yaml:"max_attempts"`
		InitialInterval     Duration `yaml:"initial_interval"`
		MaxInterval         Duration `yaml:"max_interval"`
		Multiplier          *float64 `yaml:"multiplier"`
		CircuitMaxFailures  *int     `yaml:"circuit_max_failures"`
		CircuitResetTimeout Duration `yaml:"circuit_reset_timeout"`
	} `yaml:"retry"`

	Stats struct {
		Listen      string   `yaml:"listen"`
		LogInterval Duration `yaml:"log_interval"`
	} `yaml:"stats"`

	Telemetry struct {
		Endpoint     string            `yaml:"endpoint"`
		Protocol     string            `yaml:"protocol"`
		Insecure     *bool             `yaml:"insecure"`
		PushInterval Duration          `yaml:"push_interval"`
		Compression  string            `yaml:"compression"`
		Headers      map[string]string `yaml:"headers"`
	} `yaml:"telemetry"`

	Memory struct {
		LimitRatio *float64 `yaml:"limit_ratio"`
	} `yaml:"memory"`

	LogLevel string `yaml:"log_level"`
}

// ProcessorYAML holds batch processor settings for one signal.
type ProcessorYAML struct {
	QueueSize     int      `yaml:"queue_size"`
	BatchSize     int      `yaml:"batch_size"`
	ScheduleDelay Duration `yaml:"schedule_delay"`
	ExportTimeout Duration `yaml:"export_timeout"`
}

// LoadYAML loads and parses a YAML config file.
func LoadYAML(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return ParseYAML(data)
}

// ParseYAML parses YAML config data. Unknown keys are rejected so typos
// surface at startup instead of silently using defaults.
func ParseYAML(data []byte) (*YAMLConfig, error) {
	var cfg YAMLConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// ToConfig converts the YAML layer onto the defaults. Only values present in
// the file override the defaults.
func (y *YAMLConfig) ToConfig() *Config {
	cfg := DefaultConfig()

	if y.Generator.ServiceName != "" {
		cfg.ServiceName = y.Generator.ServiceName
	}
	if y.Generator.ServiceVersion != "" {
		cfg.ServiceVersion = y.Generator.ServiceVersion
	}
	if y.Generator.Rate != nil {
		cfg.Rate = *y.Generator.Rate
	}
	if y.Generator.Workers != nil {
		cfg.Workers = *y.Generator.Workers
	}
	if y.Generator.Duration != 0 {
		cfg.RunDuration = y.Generator.Duration.Std()
	}
	if y.Generator.ErrorRatio != nil {
		cfg.ErrorRatio = *y.Generator.ErrorRatio
	}
	if y.Generator.LogsPerSpan != nil {
		cfg.LogsPerSpan = *y.Generator.LogsPerSpan
	}

	if y.Sampler.Name != "" {
		cfg.Sampler = y.Sampler.Name
	}
	if y.Sampler.Arg != "" {
		cfg.SamplerArg = y.Sampler.Arg
	}

	if y.Limits.Attributes > 0 {
		cfg.AttributeCountLimit = y.Limits.Attributes
	}
	if y.Limits.Events > 0 {
		cfg.EventCountLimit = y.Limits.Events
	}
	if y.Limits.Links > 0 {
		cfg.LinkCountLimit = y.Limits.Links
	}

	y.Traces.apply(&cfg.TracesQueueSize, &cfg.TracesBatchSize, &cfg.TracesScheduleDelay, &cfg.TracesExportTimeout)
	y.Logs.apply(&cfg.LogsQueueSize, &cfg.LogsBatchSize, &cfg.LogsScheduleDelay, &cfg.LogsExportTimeout)

	if y.Exporter.Endpoint != "" {
		cfg.ExporterEndpoint = y.Exporter.Endpoint
	}
	if y.Exporter.Protocol != "" {
		cfg.ExporterProtocol = y.Exporter.Protocol
	}
	if y.Exporter.Insecure != nil {
		cfg.ExporterInsecure = *y.Exporter.Insecure
	}
	if y.Exporter.Timeout != 0 {
		cfg.ExporterTimeout = y.Exporter.Timeout.Std()
	}
	if y.Exporter.Compression.Type != "" {
		cfg.ExporterCompression = y.Exporter.Compression.Type
	}
	if y.Exporter.Compression.Level != 0 {
		cfg.ExporterCompressionLevel = y.Exporter.Compression.Level
	}

	cfg.ExporterTLSEnabled = y.Exporter.TLS.Enabled
	cfg.ExporterTLSCertFile = y.Exporter.TLS.CertFile
	cfg.ExporterTLSKeyFile = y.Exporter.TLS.KeyFile
	cfg.ExporterTLSCAFile = y.Exporter.TLS.CAFile
	cfg.ExporterTLSInsecureSkipVerify = y.Exporter.TLS.InsecureSkipVerify
	cfg.ExporterTLSServerName = y.Exporter.TLS.ServerName

	cfg.ExporterBearerToken = y.Exporter.Auth.BearerToken
	cfg.ExporterBasicAuthUsername = y.Exporter.Auth.BasicAuthUsername
	cfg.ExporterBasicAuthPassword = y.Exporter.Auth.BasicAuthPassword
	cfg.ExporterHeaders = y.Exporter.Auth.Headers

	if y.Exporter.HTTP.MaxIdleConns != nil {
		cfg.HTTPMaxIdleConns = *y.Exporter.HTTP.MaxIdleConns
	}
	if y.Exporter.HTTP.MaxIdleConnsPerHost != nil {
		cfg.HTTPMaxIdleConnsPerHost = *y.Exporter.HTTP.MaxIdleConnsPerHost
	}
	if y.Exporter.HTTP.MaxConnsPerHost != nil {
		cfg.HTTPMaxConnsPerHost = *y.Exporter.HTTP.MaxConnsPerHost
	}
	if y.Exporter.HTTP.IdleConnTimeout != 0 {
		cfg.HTTPIdleConnTimeout = y.Exporter.HTTP.IdleConnTimeout.Std()
	}

	cfg.StdoutExport = y.Exporter.Stdout.Enabled
	if y.Exporter.Stdout.MinSeverity != "" {
		cfg.StdoutMinSeverity = y.Exporter.Stdout.MinSeverity
	}

	if y.Retry.MaxAttempts != nil {
		cfg.RetryMaxAttempts = *y.Retry.MaxAttempts
	}
	if y.Retry.InitialInterval != 0 {
		cfg.RetryInitialInterval = y.Retry.InitialInterval.Std()
	}
	if y.Retry.MaxInterval != 0 {
		cfg.RetryMaxInterval = y.Retry.MaxInterval.Std()
	}
	if y.Retry.Multiplier != nil {
		cfg.RetryMultiplier = *y.Retry.Multiplier
	}
	if y.Retry.CircuitMaxFailures != nil {
		cfg.CircuitMaxFailures = *y.Retry.CircuitMaxFailures
	}
	if y.Retry.CircuitResetTimeout != 0 {
		cfg.CircuitResetTimeout = y.Retry.CircuitResetTimeout.Std()
	}

	if y.Stats.Listen != "" {
		cfg.StatsListenAddr = y.Stats.Listen
	}
	if y.Stats.LogInterval != 0 {
		cfg.StatsLogInterval = y.Stats.LogInterval.Std()
	}

	cfg.TelemetryEndpoint = y.Telemetry.Endpoint
	if y.Telemetry.Protocol != "" {
		cfg.TelemetryProtocol = y.Telemetry.Protocol
	}
	if y.Telemetry.Insecure != nil {
		cfg.TelemetryInsecure = *y.Telemetry.Insecure
	}
	if y.Telemetry.PushInterval != 0 {
		cfg.TelemetryPushInterval = y.Telemetry.PushInterval.Std()
	}
	cfg.TelemetryCompression = y.Telemetry.Compression
	cfg.TelemetryHeaders = y.Telemetry.Headers

	if y.Memory.LimitRatio != nil {
		cfg.MemoryLimitRatio = *y.Memory.LimitRatio
	}

	if y.LogLevel != "" {
		cfg.LogLevel = y.LogLevel
	}

	return cfg
}

func (p ProcessorYAML) apply(queue, batch *int, delay, timeout *time.Duration) {
	if p.QueueSize > 0 {
		*queue = p.QueueSize
	}
	if p.BatchSize > 0 {
		*batch = p.BatchSize
	}
	if p.ScheduleDelay != 0 {
		*delay = p.ScheduleDelay.Std()
	}
	if p.ExportTimeout != 0 {
		*timeout = p.ExportTimeout.Std()
	}
}
