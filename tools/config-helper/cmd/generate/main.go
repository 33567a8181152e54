// generate prints an example tracegen YAML config populated with the
// built-in defaults, as a starting point for a real deployment.
package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/szibis/telemetry-pipeline/internal/config"
)

func main() {
	def := config.DefaultConfig()

	var y config.YAMLConfig
	y.Generator.ServiceName = def.ServiceName
	y.Generator.ServiceVersion = def.ServiceVersion
	y.Generator.Rate = &def.Rate
	y.Generator.Workers = &def.Workers
	y.Generator.ErrorRatio = &def.ErrorRatio
	y.Generator.LogsPerSpan = &def.LogsPerSpan

	y.Sampler.Name = def.Sampler
	y.Sampler.Arg = def.SamplerArg

	y.Traces = config.ProcessorYAML{
		QueueSize:     def.TracesQueueSize,
		BatchSize:     def.TracesBatchSize,
		ScheduleDelay: config.Duration(def.TracesScheduleDelay),
		ExportTimeout: config.Duration(def.TracesExportTimeout),
	}
	y.Logs = config.ProcessorYAML{
		QueueSize:     def.LogsQueueSize,
		BatchSize:     def.LogsBatchSize,
		ScheduleDelay: config.Duration(def.LogsScheduleDelay),
		ExportTimeout: config.Duration(def.LogsExportTimeout),
	}

	y.Exporter.Endpoint = def.ExporterEndpoint
	y.Exporter.Protocol = def.ExporterProtocol
	y.Exporter.Insecure = &def.ExporterInsecure
	y.Exporter.Timeout = config.Duration(def.ExporterTimeout)
	y.Exporter.Compression.Type = def.ExporterCompression
	y.Exporter.Stdout.MinSeverity = def.StdoutMinSeverity

	y.Retry.MaxAttempts = &def.RetryMaxAttempts
	y.Retry.InitialInterval = config.Duration(def.RetryInitialInterval)
	y.Retry.MaxInterval = config.Duration(def.RetryMaxInterval)
	y.Retry.Multiplier = &def.RetryMultiplier
	y.Retry.CircuitMaxFailures = &def.CircuitMaxFailures
	y.Retry.CircuitResetTimeout = config.Duration(def.CircuitResetTimeout)

	y.Stats.Listen = def.StatsListenAddr
	y.Stats.LogInterval = config.Duration(def.StatsLogInterval)

	y.Telemetry.Protocol = def.TelemetryProtocol
	y.Telemetry.PushInterval = config.Duration(def.TelemetryPushInterval)

	y.Memory.LimitRatio = &def.MemoryLimitRatio
	y.LogLevel = def.LogLevel

	out, err := yaml.Marshal(&y)
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal config: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("# tracegen example configuration, generated from defaults")
	os.Stdout.Write(out)
}
