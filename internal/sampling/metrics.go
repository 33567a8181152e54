package sampling

import "github.com/prometheus/client_golang/prometheus"

var samplerDecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "telemetry_pipeline_sampler_decisions_total",
	Help: "Total sampling decisions by sampler and decision",
}, []string{"sampler", "decision"})

func init() {
	prometheus.MustRegister(samplerDecisionsTotal)
}

func recordDecision(sampler string, d Decision) {
	samplerDecisionsTotal.WithLabelValues(sampler, d.String()).Inc()
}
