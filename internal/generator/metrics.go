package generator

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/szibis/telemetry-pipeline/internal/sampling"
)

var (
	tracesGenerated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_pipeline_generator_decisions_total",
		Help: "Sampling decisions made for generated spans, by span position.",
	}, []string{"position", "decision"})
	logsEmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "telemetry_pipeline_generator_logs_emitted_total",
		Help: "Log records emitted by the generator.",
	})
	logsSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "telemetry_pipeline_generator_logs_skipped_total",
		Help: "Log records skipped because the pipeline disabled their severity.",
	})
)

func init() {
	prometheus.MustRegister(tracesGenerated, logsEmitted, logsSkipped)
}

func recordDecision(position string, d sampling.Decision) {
	tracesGenerated.WithLabelValues(position, d.String()).Inc()
}
