package provider

import "github.com/prometheus/client_golang/prometheus"

var (
	spansDroppedAfterShutdown = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "telemetry_pipeline_provider_spans_dropped_after_shutdown_total",
		Help: "Spans handed to EndSpan after the provider was shut down.",
	})
	logsDroppedAfterShutdown = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "telemetry_pipeline_provider_logs_dropped_after_shutdown_total",
		Help: "Log records handed to EmitLog after the provider was shut down.",
	})
)

func init() {
	prometheus.MustRegister(spansDroppedAfterShutdown, logsDroppedAfterShutdown)
}
