package exporter

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/szibis/telemetry-pipeline/internal/auth"
	"github.com/szibis/telemetry-pipeline/internal/compression"
	"github.com/szibis/telemetry-pipeline/internal/record"
	tlspkg "github.com/szibis/telemetry-pipeline/internal/tls"
	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	"golang.org/x/net/http2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/proto"
)

// Protocol represents the export protocol.
type Protocol string

const (
	// ProtocolGRPC uses OTLP gRPC protocol.
	ProtocolGRPC Protocol = "grpc"
	// ProtocolHTTP uses OTLP HTTP protocol.
	ProtocolHTTP Protocol = "http"
)

// HTTPClientConfig holds HTTP client connection pool settings.
type HTTPClientConfig struct {
	// MaxIdleConns controls the maximum number of idle (keep-alive)
	// connections across all hosts. Zero means no limit.
	MaxIdleConns int
	// MaxIdleConnsPerHost controls the maximum idle connections per host.
	MaxIdleConnsPerHost int
	// MaxConnsPerHost limits the total number of connections per host.
	MaxConnsPerHost int
	// IdleConnTimeout is how long an idle connection stays open.
	IdleConnTimeout time.Duration
	// DisableKeepAlives disables HTTP keep-alives.
	DisableKeepAlives bool
	// ForceAttemptHTTP2 controls whether HTTP/2 is attempted.
	ForceAttemptHTTP2 bool
	// HTTP2ReadIdleTimeout triggers a ping health check after this much
	// silence on an HTTP/2 connection.
	HTTP2ReadIdleTimeout time.Duration
	// HTTP2PingTimeout closes the connection if a ping is not answered.
	HTTP2PingTimeout time.Duration
}

// Config holds OTLP exporter configuration.
type Config struct {
	// Endpoint is the target endpoint (host:port for gRPC, URL for HTTP).
	Endpoint string
	// Protocol is the export protocol (grpc or http).
	Protocol Protocol
	// Insecure uses an insecure connection (no TLS).
	Insecure bool
	// Timeout is an optional per-request timeout on top of the caller's
	// context deadline.
	Timeout time.Duration
	// TLS configuration for secure connections.
	TLS tlspkg.ClientConfig
	// Auth configuration for authentication.
	Auth auth.ClientConfig
	// Compression configuration for the HTTP exporter.
	Compression compression.Config
	// HTTPClient configuration for HTTP connection pooling.
	HTTPClient HTTPClientConfig
}

// otlpTransport is the protocol state shared by the span and log exporters.
type otlpTransport struct {
	protocol    Protocol
	timeout     time.Duration
	compression compression.Config

	grpcConn *grpc.ClientConn

	httpClient   *http.Client
	httpEndpoint string
}

func newTransport(cfg Config, defaultPath string) (*otlpTransport, error) {
	if cfg.Protocol == "" {
		cfg.Protocol = ProtocolGRPC
	}
	t := &otlpTransport{
		protocol:    cfg.Protocol,
		timeout:     cfg.Timeout,
		compression: cfg.Compression,
	}
	switch cfg.Protocol {
	case ProtocolGRPC:
		conn, err := newGRPCConn(cfg)
		if err != nil {
			return nil, err
		}
		t.grpcConn = conn
	case ProtocolHTTP:
		client, endpoint, err := newHTTPClient(cfg, defaultPath)
		if err != nil {
			return nil, err
		}
		t.httpClient = client
		t.httpEndpoint = endpoint
	default:
		return nil, fmt.Errorf("unsupported protocol: %s", cfg.Protocol)
	}
	return t, nil
}

func (t *otlpTransport) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if t.timeout > 0 {
		return context.WithTimeout(ctx, t.timeout)
	}
	return context.WithCancel(ctx)
}

func (t *otlpTransport) close() error {
	switch t.protocol {
	case ProtocolGRPC:
		if t.grpcConn != nil {
			return t.grpcConn.Close()
		}
	case ProtocolHTTP:
		if t.httpClient != nil {
			t.httpClient.CloseIdleConnections()
		}
	}
	return nil
}

func newGRPCConn(cfg Config) (*grpc.ClientConn, error) {
	var opts []grpc.DialOption

	if cfg.Insecure {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	} else if cfg.TLS.Enabled {
		tlsConfig, err := tlspkg.NewClientTLSConfig(cfg.TLS)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
		opts = append(opts, grpc.WithTransportCredentials(credentials.NewTLS(tlsConfig)))
	} else {
		// Default to system TLS when not insecure and no custom TLS config.
		opts = append(opts, grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{
			MinVersion: tls.VersionTLS12,
		})))
	}

	if cfg.Auth.Enabled() {
		opts = append(opts, grpc.WithUnaryInterceptor(auth.GRPCClientInterceptor(cfg.Auth)))
	}

	return grpc.NewClient(cfg.Endpoint, opts...)
}

func newHTTPClient(cfg Config, defaultPath string) (*http.Client, string, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     cfg.HTTPClient.ForceAttemptHTTP2,
		MaxIdleConns:          cfg.HTTPClient.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.HTTPClient.MaxIdleConnsPerHost,
		MaxConnsPerHost:       cfg.HTTPClient.MaxConnsPerHost,
		IdleConnTimeout:       cfg.HTTPClient.IdleConnTimeout,
		DisableKeepAlives:     cfg.HTTPClient.DisableKeepAlives,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if transport.MaxIdleConns == 0 {
		transport.MaxIdleConns = 100
	}
	if transport.MaxIdleConnsPerHost == 0 {
		transport.MaxIdleConnsPerHost = 100
	}
	if transport.IdleConnTimeout == 0 {
		transport.IdleConnTimeout = 90 * time.Second
	}

	if !cfg.Insecure {
		if cfg.TLS.Enabled {
			tlsConfig, err := tlspkg.NewClientTLSConfig(cfg.TLS)
			if err != nil {
				return nil, "", fmt.Errorf("failed to create TLS config: %w", err)
			}
			transport.TLSClientConfig = tlsConfig
		} else {
			transport.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
	}

	var roundTripper http.RoundTripper = transport

	if cfg.HTTPClient.ForceAttemptHTTP2 || (!cfg.Insecure && transport.TLSClientConfig != nil) {
		http2Transport, err := http2.ConfigureTransports(transport)
		if err == nil && http2Transport != nil {
			if cfg.HTTPClient.HTTP2ReadIdleTimeout > 0 {
				http2Transport.ReadIdleTimeout = cfg.HTTPClient.HTTP2ReadIdleTimeout
			}
			if cfg.HTTPClient.HTTP2PingTimeout > 0 {
				http2Transport.PingTimeout = cfg.HTTPClient.HTTP2PingTimeout
			}
		}
	}

	if cfg.Auth.Enabled() {
		roundTripper = auth.HTTPTransport(cfg.Auth, roundTripper)
	}

	client := &http.Client{Transport: roundTripper}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "localhost:4318"
	}
	scheme := "http"
	if !cfg.Insecure {
		scheme = "https"
	}
	if !hasScheme(endpoint) {
		endpoint = fmt.Sprintf("%s://%s", scheme, endpoint)
	}
	if !hasPath(endpoint) {
		endpoint += defaultPath
	}

	return client, endpoint, nil
}

// postProtobuf marshals, optionally compresses, and POSTs an OTLP request.
func (t *otlpTransport) postProtobuf(ctx context.Context, signal string, msg proto.Message) error {
	body, err := proto.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	compressionLabel := "none"
	if t.compression.Type != compression.TypeNone && t.compression.Type != "" {
		body, err = compression.Compress(body, t.compression)
		if err != nil {
			return fmt.Errorf("failed to compress request: %w", err)
		}
		compressionLabel = string(t.compression.Type)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.httpEndpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-protobuf")
	if encoding := t.compression.Type.ContentEncoding(); encoding != "" {
		httpReq.Header.Set("Content-Encoding", encoding)
	}

	exportRequestsTotal.WithLabelValues(signal).Inc()

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		errType := classifyError(err)
		recordExportError(signal, errType)
		return &ExportError{Err: err, Type: errType}
	}
	defer resp.Body.Close()

	// Read the body for error detail and to allow connection reuse.
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		errType := classifyHTTPStatusCode(resp.StatusCode)
		recordExportError(signal, errType)
		return &ExportError{
			Err:        fmt.Errorf("unexpected status code: %d", resp.StatusCode),
			Type:       errType,
			StatusCode: resp.StatusCode,
			Message:    string(detail),
		}
	}

	exportBytesTotal.WithLabelValues(signal, compressionLabel).Add(float64(len(body)))
	return nil
}

// OTLPSpanExporter exports span batches via OTLP (gRPC or HTTP).
type OTLPSpanExporter struct {
	transport  *otlpTransport
	grpcClient coltracepb.TraceServiceClient
}

// NewSpanExporter creates an OTLP span exporter from the configuration.
func NewSpanExporter(cfg Config) (*OTLPSpanExporter, error) {
	t, err := newTransport(cfg, "/v1/traces")
	if err != nil {
		return nil, err
	}
	e := &OTLPSpanExporter{transport: t}
	if t.protocol == ProtocolGRPC {
		e.grpcClient = coltracepb.NewTraceServiceClient(t.grpcConn)
	}
	return e, nil
}

// Export sends a span batch to the configured endpoint.
func (e *OTLPSpanExporter) Export(ctx context.Context, batch []*record.SpanRecord) error {
	if len(batch) == 0 {
		return nil
	}
	ctx, cancel := e.transport.withTimeout(ctx)
	defer cancel()

	req := &coltracepb.ExportTraceServiceRequest{ResourceSpans: encodeSpans(batch)}

	var err error
	switch e.transport.protocol {
	case ProtocolGRPC:
		exportRequestsTotal.WithLabelValues("spans").Inc()
		size := proto.Size(req)
		if _, grpcErr := e.grpcClient.Export(ctx, req); grpcErr != nil {
			errType := classifyGRPCError(grpcErr)
			recordExportError("spans", errType)
			err = &ExportError{Err: grpcErr, Type: errType}
		} else {
			exportBytesTotal.WithLabelValues("spans", "grpc").Add(float64(size))
		}
	case ProtocolHTTP:
		err = e.transport.postProtobuf(ctx, "spans", req)
	}
	if err != nil {
		return err
	}
	exportRecordsTotal.WithLabelValues("spans").Add(float64(len(batch)))
	return nil
}

// Shutdown closes the underlying connection.
func (e *OTLPSpanExporter) Shutdown(context.Context) error {
	return e.transport.close()
}

// OTLPLogExporter exports log batches via OTLP (gRPC or HTTP).
type OTLPLogExporter struct {
	transport  *otlpTransport
	grpcClient collogspb.LogsServiceClient
}

// NewLogExporter creates an OTLP log exporter from the configuration.
func NewLogExporter(cfg Config) (*OTLPLogExporter, error) {
	t, err := newTransport(cfg, "/v1/logs")
	if err != nil {
		return nil, err
	}
	e := &OTLPLogExporter{transport: t}
	if t.protocol == ProtocolGRPC {
		e.grpcClient = collogspb.NewLogsServiceClient(t.grpcConn)
	}
	return e, nil
}

// Export sends a log batch to the configured endpoint.
func (e *OTLPLogExporter) Export(ctx context.Context, batch []*record.LogRecord) error {
	if len(batch) == 0 {
		return nil
	}
	ctx, cancel := e.transport.withTimeout(ctx)
	defer cancel()

	req := &collogspb.ExportLogsServiceRequest{ResourceLogs: encodeLogs(batch)}

	var err error
	switch e.transport.protocol {
	case ProtocolGRPC:
		exportRequestsTotal.WithLabelValues("logs").Inc()
		size := proto.Size(req)
		if _, grpcErr := e.grpcClient.Export(ctx, req); grpcErr != nil {
			errType := classifyGRPCError(grpcErr)
			recordExportError("logs", errType)
			err = &ExportError{Err: grpcErr, Type: errType}
		} else {
			exportBytesTotal.WithLabelValues("logs", "grpc").Add(float64(size))
		}
	case ProtocolHTTP:
		err = e.transport.postProtobuf(ctx, "logs", req)
	}
	if err != nil {
		return err
	}
	exportRecordsTotal.WithLabelValues("logs").Add(float64(len(batch)))
	return nil
}

// Shutdown closes the underlying connection.
func (e *OTLPLogExporter) Shutdown(context.Context) error {
	return e.transport.close()
}

// hasScheme checks if a URL has a scheme.
func hasScheme(url string) bool {
	return len(url) >= 7 && (url[:7] == "http://" || (len(url) >= 8 && url[:8] == "https://"))
}

// hasPath checks if a URL has a path component.
func hasPath(url string) bool {
	start := 0
	if hasScheme(url) {
		if len(url) >= 8 && url[:8] == "https://" {
			start = 8
		} else {
			start = 7
		}
	}
	for i := start; i < len(url); i++ {
		if url[i] == '/' {
			return true
		}
	}
	return false
}
