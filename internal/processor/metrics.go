package processor

import "github.com/prometheus/client_golang/prometheus"

var (
	droppedRecordsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_pipeline_processor_dropped_records_total",
		Help: "Total records dropped by the batch processor by reason",
	}, []string{"processor", "reason"})

	exportBatchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_pipeline_processor_export_batches_total",
		Help: "Total batches handed to the exporter",
	}, []string{"processor"})

	exportRecordsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_pipeline_processor_export_records_total",
		Help: "Total records handed to the exporter",
	}, []string{"processor"})

	exportErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_pipeline_processor_export_errors_total",
		Help: "Total failed export calls by outcome",
	}, []string{"processor", "outcome"})

	exportDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "telemetry_pipeline_processor_export_duration_seconds",
		Help:    "Duration of export calls",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
	}, []string{"processor"})

	queueLength = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "telemetry_pipeline_processor_queue_length",
		Help: "Current number of messages waiting in the processor queue",
	}, []string{"processor"})
)

func init() {
	prometheus.MustRegister(droppedRecordsTotal)
	prometheus.MustRegister(exportBatchesTotal)
	prometheus.MustRegister(exportRecordsTotal)
	prometheus.MustRegister(exportErrorsTotal)
	prometheus.MustRegister(exportDurationSeconds)
	prometheus.MustRegister(queueLength)
}
