// tracegen generates synthetic traces and logs and pushes them through the
// full pipeline: sampling, batch processors, and OTLP or stdout exporters.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/szibis/telemetry-pipeline/internal/config"
	"github.com/szibis/telemetry-pipeline/internal/exporter"
	"github.com/szibis/telemetry-pipeline/internal/generator"
	"github.com/szibis/telemetry-pipeline/internal/health"
	"github.com/szibis/telemetry-pipeline/internal/idgen"
	"github.com/szibis/telemetry-pipeline/internal/logging"
	"github.com/szibis/telemetry-pipeline/internal/processor"
	"github.com/szibis/telemetry-pipeline/internal/provider"
	"github.com/szibis/telemetry-pipeline/internal/record"
	"github.com/szibis/telemetry-pipeline/internal/stats"
	"github.com/szibis/telemetry-pipeline/internal/telemetry"
)

var errCircuitOpen = errors.New("exporter circuit open")

func main() {
	cfg := config.ParseFlags()

	if cfg.ShowHelp {
		config.PrintUsage(flag.CommandLine)
		os.Exit(0)
	}

	if cfg.ShowVersion {
		config.PrintVersion()
		os.Exit(0)
	}

	if err := cfg.Validate(); err != nil {
		logging.Fatal("invalid configuration", logging.F("error", err.Error()))
	}

	switch cfg.LogLevel {
	case "debug":
		logging.SetMinLevel(logging.LevelDebug)
	case "warn":
		logging.SetMinLevel(logging.LevelWarn)
	case "error":
		logging.SetMinLevel(logging.LevelError)
	default:
		logging.SetMinLevel(logging.LevelInfo)
	}
	logging.SetResource(map[string]string{
		"service.name":    cfg.ServiceName,
		"service.version": config.Version(),
	})

	if limit, err := memlimit.SetGoMemLimitWithOpts(
		memlimit.WithRatio(cfg.MemoryLimitRatio),
		memlimit.WithProvider(memlimit.FromCgroupHybrid),
	); err != nil {
		logging.Warn("GOMEMLIMIT not set", logging.F("error", err.Error()))
	} else {
		logging.Info("GOMEMLIMIT set", logging.F("bytes", limit, "ratio", cfg.MemoryLimitRatio))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Self-telemetry: forward tracegen's own logs and Prometheus metrics
	// over OTLP when an endpoint is configured.
	tel, err := telemetry.Init(ctx, cfg.BuildTelemetryConfig(), cfg.ServiceName, config.Version())
	if err != nil {
		logging.Fatal("failed to init telemetry", logging.F("error", err.Error()))
	}
	if tel.Enabled() {
		logging.SetHook(tel.NewLogHook())
	}

	sampler, err := cfg.BuildSampler()
	if err != nil {
		logging.Fatal("failed to build sampler", logging.F("error", err.Error()))
	}

	spanTarget, logTarget, logEnabler := buildExporters(cfg)
	spanRetry := exporter.NewRetry(spanTarget, cfg.BuildRetryConfig())
	logRetry := exporter.NewRetry(logTarget, cfg.BuildRetryConfig())

	traceProc, err := processor.New("traces", spanRetry, cfg.BuildTracesProcessorConfig())
	if err != nil {
		logging.Fatal("failed to create trace processor", logging.F("error", err.Error()))
	}
	logProc, err := processor.New("logs", logRetry, cfg.BuildLogsProcessorConfig())
	if err != nil {
		logging.Fatal("failed to create log processor", logging.F("error", err.Error()))
	}

	statsCollector := stats.NewCollector()

	opts := []provider.Option{
		provider.WithSampler(sampler),
		provider.WithIDGenerator(idgen.New()),
		provider.WithLimits(cfg.BuildLimits()),
		provider.WithResource(record.NewResource(
			record.String("service.name", cfg.ServiceName),
			record.String("service.version", cfg.ServiceVersion),
		)),
		provider.WithSpanProcessor(traceProc),
		provider.WithLogProcessor(logProc),
		provider.WithSpanObserver(statsCollector.Observe),
	}
	if logEnabler != nil {
		opts = append(opts, provider.WithLogEnabler(logEnabler))
	}
	prov := provider.New(opts...)

	checker := health.New("tracegen")
	checker.RegisterReadiness("exporter-circuit", func() error {
		if s := spanRetry.CircuitState(); s == exporter.CircuitOpen {
			return errCircuitOpen
		}
		return nil
	})

	opsMux := http.NewServeMux()
	opsMux.Handle("/metrics", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
		statsCollector.ServeHTTP(w, r)
	}))
	opsMux.Handle("/stats", statsCollector)
	opsMux.Handle("/live", checker.LiveHandler())
	opsMux.Handle("/ready", checker.ReadyHandler())

	opsServer := &http.Server{
		Addr:    cfg.StatsListenAddr,
		Handler: opsMux,
	}
	go func() {
		logging.Info("ops endpoint started", logging.F("addr", cfg.StatsListenAddr))
		if err := opsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("ops server error", logging.F("error", err.Error()))
		}
	}()

	if cfg.StatsLogInterval > 0 {
		go statsCollector.StartPeriodicLogging(ctx, cfg.StatsLogInterval)
	}

	genCtx := ctx
	if cfg.RunDuration > 0 {
		var genCancel context.CancelFunc
		genCtx, genCancel = context.WithTimeout(ctx, cfg.RunDuration)
		defer genCancel()
	}

	g, workCtx := errgroup.WithContext(genCtx)
	seed := time.Now().UnixNano()
	for i := 0; i < cfg.Workers; i++ {
		gen := generator.New(prov, generator.Config{
			Rate:        cfg.Rate,
			ErrorRatio:  cfg.ErrorRatio,
			LogsPerSpan: cfg.LogsPerSpan,
		}, seed+int64(i))
		g.Go(func() error { return gen.Run(workCtx) })
	}

	logging.Info("tracegen started", logging.F(
		"workers", cfg.Workers,
		"rate_per_worker", cfg.Rate,
		"sampler", sampler.Description(),
		"exporter_endpoint", cfg.ExporterEndpoint,
		"exporter_protocol", cfg.ExporterProtocol,
		"stdout", cfg.StdoutExport,
	))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigChan:
		logging.Info("signal received", logging.F("signal", sig.String()))
	case <-genCtx.Done():
		logging.Info("run duration elapsed")
	}

	logging.Info("shutting down")
	checker.SetShuttingDown()
	cancel()
	if err := g.Wait(); err != nil {
		logging.Error("generator error", logging.F("error", err.Error()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		cfg.TracesExportTimeout+5*time.Second)
	defer shutdownCancel()

	if err := prov.Shutdown(shutdownCtx); err != nil {
		logging.Error("pipeline shutdown error", logging.F("error", err.Error()))
	}
	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		logging.Error("ops server shutdown error", logging.F("error", err.Error()))
	}
	if err := tel.Shutdown(shutdownCtx); err != nil {
		logging.Error("telemetry shutdown error", logging.F("error", err.Error()))
	}

	spans, errs, traces := statsCollector.GlobalStats()
	logging.Info("shutdown complete", logging.F(
		"spans_observed", spans,
		"span_errors", errs,
		"unique_traces", traces,
	))
}

// buildExporters picks the configured backend. Stdout replaces OTLP for dry
// runs; the log enabler is only available for stdout, where the severity
// floor is known up front.
func buildExporters(cfg *config.Config) (exporter.Target[*record.SpanRecord], exporter.Target[*record.LogRecord], provider.LogEnabler) {
	if cfg.StdoutExport {
		logExp := exporter.NewStdoutLogExporter(os.Stdout, cfg.StdoutSeverity())
		return exporter.NewStdoutSpanExporter(os.Stdout), logExp, logExp
	}

	expCfg, err := cfg.BuildExporterConfig()
	if err != nil {
		logging.Fatal("invalid exporter configuration", logging.F("error", err.Error()))
	}
	spanExp, err := exporter.NewSpanExporter(expCfg)
	if err != nil {
		logging.Fatal("failed to create span exporter", logging.F("error", err.Error()))
	}
	logExp, err := exporter.NewLogExporter(expCfg)
	if err != nil {
		logging.Fatal("failed to create log exporter", logging.F("error", err.Error()))
	}
	return spanExp, logExp, nil
}
