package e2e

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"google.golang.org/grpc"

	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	logspb "go.opentelemetry.io/proto/otlp/logs/v1"
	tracepb "go.opentelemetry.io/proto/otlp/trace/v1"

	"github.com/szibis/telemetry-pipeline/internal/exporter"
	"github.com/szibis/telemetry-pipeline/internal/generator"
	"github.com/szibis/telemetry-pipeline/internal/processor"
	"github.com/szibis/telemetry-pipeline/internal/provider"
	"github.com/szibis/telemetry-pipeline/internal/record"
	"github.com/szibis/telemetry-pipeline/internal/sampling"
	"github.com/szibis/telemetry-pipeline/internal/stats"
)

// TestFullPipelineGRPC runs the complete flow: generator -> provider ->
// batch processors -> retry -> OTLP gRPC exporter -> mock collector.
func TestFullPipelineGRPC(t *testing.T) {
	backend, addr := startMockCollector(t)
	defer backend.Stop()

	cfg := exporter.Config{
		Endpoint: addr,
		Protocol: exporter.ProtocolGRPC,
		Insecure: true,
		Timeout:  5 * time.Second,
	}
	spanExp, err := exporter.NewSpanExporter(cfg)
	if err != nil {
		t.Fatalf("create span exporter: %v", err)
	}
	logExp, err := exporter.NewLogExporter(cfg)
	if err != nil {
		t.Fatalf("create log exporter: %v", err)
	}

	retryCfg := exporter.RetryConfig{MaxAttempts: 2, InitialInterval: 10 * time.Millisecond}
	procCfg := processor.Config{
		MaxQueueSize:       256,
		MaxExportBatchSize: 16,
		ScheduledDelay:     50 * time.Millisecond,
		ExportTimeout:      5 * time.Second,
	}

	traceProc, err := processor.New("traces", exporter.NewRetry(spanExp, retryCfg), procCfg)
	if err != nil {
		t.Fatalf("create trace processor: %v", err)
	}
	logProc, err := processor.New("logs", exporter.NewRetry(logExp, retryCfg), procCfg)
	if err != nil {
		t.Fatalf("create log processor: %v", err)
	}

	collector := stats.NewCollector()
	prov := provider.New(
		provider.WithSampler(sampling.ParentBased(sampling.AlwaysOn())),
		provider.WithResource(record.NewResource(record.String("service.name", "e2e-test"))),
		provider.WithSpanProcessor(traceProc),
		provider.WithLogProcessor(logProc),
		provider.WithSpanObserver(collector.Observe),
	)

	gen := generator.New(prov, generator.Config{Rate: 1, LogsPerSpan: 2}, 1)
	for i := 0; i < 40; i++ {
		gen.EmitTrace(time.Now())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := prov.Shutdown(ctx); err != nil {
		t.Fatalf("provider shutdown: %v", err)
	}

	gotSpans := backend.Spans()
	if len(gotSpans) != 80 {
		t.Fatalf("collector received %d spans, want 80", len(gotSpans))
	}
	gotLogs := backend.Logs()
	if len(gotLogs) != 80 {
		t.Fatalf("collector received %d log records, want 80", len(gotLogs))
	}

	spans, _, traces := collector.GlobalStats()
	if spans != 80 {
		t.Errorf("stats observed %d spans, want 80", spans)
	}
	if traces != 40 {
		t.Errorf("stats counted %d unique traces, want 40", traces)
	}

	if svc := backend.ServiceName(); svc != "e2e-test" {
		t.Errorf("resource service.name = %q, want e2e-test", svc)
	}
}

// TestPipelineSampledSubset checks that a ratio sampler thins the exported
// stream without breaking trace consistency: both spans of a trace are
// either exported or dropped together.
func TestPipelineSampledSubset(t *testing.T) {
	backend, addr := startMockCollector(t)
	defer backend.Stop()

	spanExp, err := exporter.NewSpanExporter(exporter.Config{
		Endpoint: addr,
		Protocol: exporter.ProtocolGRPC,
		Insecure: true,
	})
	if err != nil {
		t.Fatalf("create span exporter: %v", err)
	}

	traceProc, err := processor.New("traces", spanExp, processor.Config{
		MaxQueueSize:       4096,
		MaxExportBatchSize: 512,
		ScheduledDelay:     50 * time.Millisecond,
		ExportTimeout:      5 * time.Second,
	})
	if err != nil {
		t.Fatalf("create trace processor: %v", err)
	}

	prov := provider.New(
		provider.WithSampler(sampling.ParentBased(sampling.TraceIDRatio(0.5))),
		provider.WithSpanProcessor(traceProc),
	)

	gen := generator.New(prov, generator.Config{Rate: 1}, 7)
	const traceCount = 400
	for i := 0; i < traceCount; i++ {
		gen.EmitTrace(time.Now())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := prov.Shutdown(ctx); err != nil {
		t.Fatalf("provider shutdown: %v", err)
	}

	got := backend.Spans()
	if len(got) == 0 || len(got) >= 2*traceCount {
		t.Fatalf("exported %d spans, want a strict subset of %d", len(got), 2*traceCount)
	}
	perTrace := make(map[string]int)
	for _, s := range got {
		perTrace[string(s.TraceId)]++
	}
	for id, n := range perTrace {
		if n != 2 {
			t.Errorf("trace %x exported %d spans, want 2 (root + child)", id, n)
		}
	}
}

// mockCollector is an in-process OTLP gRPC collector accepting traces and logs.
type mockCollector struct {
	server *grpc.Server

	mu    sync.Mutex
	spans []*tracepb.Span
	logs  []*logspb.LogRecord
	svc   string
}

type traceService struct {
	coltracepb.UnimplementedTraceServiceServer
	mc *mockCollector
}

func (s *traceService) Export(_ context.Context, req *coltracepb.ExportTraceServiceRequest) (*coltracepb.ExportTraceServiceResponse, error) {
	s.mc.mu.Lock()
	defer s.mc.mu.Unlock()
	for _, rs := range req.ResourceSpans {
		if rs.Resource != nil {
			for _, kv := range rs.Resource.Attributes {
				if kv.Key == "service.name" {
					s.mc.svc = kv.Value.GetStringValue()
				}
			}
		}
		for _, ss := range rs.ScopeSpans {
			s.mc.spans = append(s.mc.spans, ss.Spans...)
		}
	}
	return &coltracepb.ExportTraceServiceResponse{}, nil
}

type logsService struct {
	collogspb.UnimplementedLogsServiceServer
	mc *mockCollector
}

func (s *logsService) Export(_ context.Context, req *collogspb.ExportLogsServiceRequest) (*collogspb.ExportLogsServiceResponse, error) {
	s.mc.mu.Lock()
	defer s.mc.mu.Unlock()
	for _, rl := range req.ResourceLogs {
		for _, sl := range rl.ScopeLogs {
			s.mc.logs = append(s.mc.logs, sl.LogRecords...)
		}
	}
	return &collogspb.ExportLogsServiceResponse{}, nil
}

func startMockCollector(t *testing.T) (*mockCollector, string) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	mc := &mockCollector{server: grpc.NewServer()}
	coltracepb.RegisterTraceServiceServer(mc.server, &traceService{mc: mc})
	collogspb.RegisterLogsServiceServer(mc.server, &logsService{mc: mc})
	go mc.server.Serve(l)
	return mc, l.Addr().String()
}

func (m *mockCollector) Stop() {
	m.server.GracefulStop()
}

func (m *mockCollector) Spans() []*tracepb.Span {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*tracepb.Span(nil), m.spans...)
}

func (m *mockCollector) Logs() []*logspb.LogRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*logspb.LogRecord(nil), m.logs...)
}

func (m *mockCollector) ServiceName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.svc
}
