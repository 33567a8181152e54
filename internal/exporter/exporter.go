// Package exporter defines the pipeline's backend contract and the OTLP
// implementations of it. The batch processor serializes Export calls per
// exporter instance; exporters own retry, the pipeline never re-queues.
package exporter

import (
	"context"
	"net"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/szibis/telemetry-pipeline/internal/record"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// SpanExporter is the sink for finished span batches.
type SpanExporter interface {
	Export(ctx context.Context, batch []*record.SpanRecord) error
	Shutdown(ctx context.Context) error
}

// LogExporter is the sink for finished log batches.
type LogExporter interface {
	Export(ctx context.Context, batch []*record.LogRecord) error
	Shutdown(ctx context.Context) error
}

// SeverityFilter is optionally implemented by log exporters to let the
// pipeline short-circuit record construction below a severity threshold.
type SeverityFilter interface {
	Enabled(s record.Severity) bool
}

// ErrorType represents a category of export error for metrics.
type ErrorType string

const (
	// ErrorTypeNetwork represents network-level errors (DNS, connection refused, etc.)
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeTimeout represents timeout errors
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeServerError represents server-side errors (5xx status codes)
	ErrorTypeServerError ErrorType = "server_error"
	// ErrorTypeClientError represents client-side errors (4xx status codes)
	ErrorTypeClientError ErrorType = "client_error"
	// ErrorTypeAuth represents authentication/authorization errors (401, 403)
	ErrorTypeAuth ErrorType = "auth"
	// ErrorTypeRateLimit represents rate limiting errors (429)
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeUnknown represents unclassified errors
	ErrorTypeUnknown ErrorType = "unknown"
)

var (
	exportRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_pipeline_otlp_export_requests_total",
		Help: "Total number of OTLP export requests",
	}, []string{"signal"})

	exportBytesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_pipeline_otlp_export_bytes_total",
		Help: "Total bytes exported to the OTLP backend",
	}, []string{"signal", "compression"})

	exportErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_pipeline_otlp_export_errors_total",
		Help: "Total number of OTLP export errors by error type",
	}, []string{"signal", "error_type"})

	exportRecordsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_pipeline_otlp_export_records_total",
		Help: "Total number of records exported to the OTLP backend",
	}, []string{"signal"})
)

func init() {
	prometheus.MustRegister(exportRequestsTotal)
	prometheus.MustRegister(exportBytesTotal)
	prometheus.MustRegister(exportErrorsTotal)
	prometheus.MustRegister(exportRecordsTotal)
}

// classifyGRPCError categorizes a gRPC error into an error type.
func classifyGRPCError(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.DeadlineExceeded:
			return ErrorTypeTimeout
		case codes.Unavailable:
			return ErrorTypeNetwork
		case codes.Unauthenticated, codes.PermissionDenied:
			return ErrorTypeAuth
		case codes.ResourceExhausted:
			return ErrorTypeRateLimit
		case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
			return ErrorTypeClientError
		case codes.Internal, codes.Unknown, codes.DataLoss, codes.Aborted:
			return ErrorTypeServerError
		}
	}
	return classifyError(err)
}

// classifyHTTPStatusCode categorizes an HTTP status code into an error type.
func classifyHTTPStatusCode(statusCode int) ErrorType {
	switch {
	case statusCode == 401 || statusCode == 403:
		return ErrorTypeAuth
	case statusCode == 429:
		return ErrorTypeRateLimit
	case statusCode >= 400 && statusCode < 500:
		return ErrorTypeClientError
	case statusCode >= 500:
		return ErrorTypeServerError
	default:
		return ErrorTypeUnknown
	}
}

// classifyError categorizes a transport error into a low-cardinality type.
func classifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}
	if err == context.DeadlineExceeded {
		return ErrorTypeTimeout
	}
	if netErr, ok := err.(net.Error); ok {
		if netErr.Timeout() {
			return ErrorTypeTimeout
		}
		return ErrorTypeNetwork
	}
	if _, ok := err.(*net.DNSError); ok {
		return ErrorTypeNetwork
	}
	if _, ok := err.(*net.OpError); ok {
		return ErrorTypeNetwork
	}
	return ErrorTypeUnknown
}

func recordExportError(signal string, errType ErrorType) {
	exportErrorsTotal.WithLabelValues(signal, string(errType)).Inc()
}
