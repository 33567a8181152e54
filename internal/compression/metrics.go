package compression

import "github.com/prometheus/client_golang/prometheus"

var (
	compressInputBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_pipeline_compression_input_bytes_total",
			Help: "Total uncompressed bytes passed to the compressor",
		},
		[]string{"type"},
	)
	compressOutputBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_pipeline_compression_output_bytes_total",
			Help: "Total compressed bytes produced by the compressor",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(compressInputBytesTotal)
	prometheus.MustRegister(compressOutputBytesTotal)
}
