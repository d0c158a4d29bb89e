package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/formbricks/insights/internal/api/handlers"
	"github.com/formbricks/insights/internal/api/middleware"
	"github.com/formbricks/insights/internal/config"
	"github.com/formbricks/insights/internal/interview"
	"github.com/formbricks/insights/internal/observability"
	"github.com/formbricks/insights/internal/personas"
	"github.com/formbricks/insights/internal/pipeline"
)

const metricsExporterPrometheus = "prometheus"

// App holds all server dependencies and coordinates startup and shutdown.
type App struct {
	cfg            *config.Config
	server         *http.Server
	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
}

// setupMetrics creates the meter provider, the /metrics handler and all collectors when the
// Prometheus exporter is selected. Otherwise every return value is nil (metrics disabled).
func setupMetrics(ctx context.Context, cfg *config.Config) (*sdkmetric.MeterProvider, http.Handler, *observability.Metrics, error) {
	if cfg.OtelMetricsExporter != metricsExporterPrometheus {
		if cfg.OtelMetricsExporter != "" {
			slog.Warn("metrics not enabled: unsupported OTEL_METRICS_EXPORTER", "exporter", cfg.OtelMetricsExporter)
		}

		return nil, nil, nil, nil
	}

	mp, metricsHandler, err := observability.NewMeterProvider(ctx, observability.MeterProviderConfig{})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create meter provider: %w", err)
	}

	metrics, err := observability.NewMetrics(mp.Meter(observability.MeterScope))
	if err != nil {
		if err2 := observability.ShutdownMeterProvider(ctx, mp); err2 != nil {
			slog.Error("shutdown meter provider after metrics error", "error", err2)
		}

		return nil, nil, nil, fmt.Errorf("create metrics: %w", err)
	}

	return mp, metricsHandler, metrics, nil
}

// NewApp builds and wires all components. It does not start the HTTP server;
// call Run to start and block until shutdown or failure.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg.OtelMetricsExporter == "" {
		slog.Warn("metrics not enabled (OTEL_METRICS_EXPORTER empty or unset)")
	}

	meterProvider, metricsHandler, metrics, err := setupMetrics(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var tracerProvider *sdktrace.TracerProvider

	if cfg.OtelTracesExporter == "" {
		slog.Warn("tracing not enabled (OTEL_TRACES_EXPORTER empty or unset)")
	} else {
		tracerProvider, err = observability.NewTracerProvider(cfg)
		if err != nil {
			if err2 := observability.ShutdownMeterProvider(ctx, meterProvider); err2 != nil {
				slog.Error("shutdown meter provider after tracer provider error", "error", err2)
			}

			return nil, fmt.Errorf("create tracer provider: %w", err)
		}
	}

	if tracerProvider != nil {
		otel.SetTracerProvider(tracerProvider)
	}

	if meterProvider != nil {
		otel.SetMeterProvider(meterProvider)
	}

	analyzer, err := pipeline.NewFromConfig(ctx, cfg, metrics)
	if err != nil {
		if err2 := shutdownObservability(ctx, tracerProvider, meterProvider); err2 != nil {
			slog.Error("shutdown observability after analyzer error", "error", err2)
		}

		return nil, fmt.Errorf("create analyzer: %w", err)
	}

	chat, err := pipeline.NewChatClient(cfg)
	if err != nil {
		if err2 := shutdownObservability(ctx, tracerProvider, meterProvider); err2 != nil {
			slog.Error("shutdown observability after chat client error", "error", err2)
		}

		return nil, fmt.Errorf("create chat client: %w", err)
	}

	simulator := interview.NewSimulator(chat, chat, interview.WithTurns(cfg.InterviewTurns))

	var httpMetrics observability.HTTPMetrics
	if metrics != nil {
		httpMetrics = metrics.HTTP
	}

	server := newHTTPServer(cfg, routes{
		health:     handlers.NewHealthHandler(),
		analyses:   handlers.NewAnalysesHandler(analyzer),
		interviews: handlers.NewInterviewsHandler(simulator),
		personas:   handlers.NewPersonasHandler(personas.NewGenerator(chat)),
		metrics:    metricsHandler,
	}, httpMetrics, meterProvider, tracerProvider)

	return &App{
		cfg:            cfg,
		server:         server,
		meterProvider:  meterProvider,
		tracerProvider: tracerProvider,
	}, nil
}

// routes are the handlers mounted by newHTTPServer. metrics is nil when metrics are disabled.
type routes struct {
	health     *handlers.HealthHandler
	analyses   *handlers.AnalysesHandler
	interviews *handlers.InterviewsHandler
	personas   *handlers.PersonasHandler
	metrics    http.Handler
}

// newHTTPServer builds the HTTP server (no auth on /health and /metrics, API key on /v1/).
// Handler chain: RequestID -> otelhttp -> Logging -> Metrics -> MaxBody -> mux, so access logs
// carry trace_id/span_id and the route label is the matched pattern.
func newHTTPServer(
	cfg *config.Config,
	r routes,
	httpMetrics observability.HTTPMetrics,
	meterProvider *sdkmetric.MeterProvider,
	tracerProvider *sdktrace.TracerProvider,
) *http.Server {
	auth := middleware.Auth(cfg.APIKey)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", r.health.Check)

	if r.metrics != nil {
		mux.Handle("GET /metrics", r.metrics)
	}

	mux.Handle("POST /v1/analyses", auth(http.HandlerFunc(r.analyses.Create)))
	mux.Handle("POST /v1/interviews/simulate", auth(http.HandlerFunc(r.interviews.Simulate)))
	mux.Handle("POST /v1/personas", auth(http.HandlerFunc(r.personas.Generate)))

	var bodyLimitRecorder middleware.RequestBodyTooLargeRecorder
	if httpMetrics != nil {
		bodyLimitRecorder = httpMetrics
	}

	otelOpts := []otelhttp.Option{
		// Skip tracing and HTTP metrics for probes and scrapes.
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health" && r.URL.Path != "/metrics"
		}),
	}
	if meterProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithMeterProvider(meterProvider))
	}

	if tracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(tracerProvider))
	}

	var handler http.Handler = middleware.MaxBody(cfg.MaxRequestBodyBytes, bodyLimitRecorder)(mux)
	handler = middleware.Metrics(httpMetrics)(handler)
	handler = middleware.Logging(handler)
	handler = otelhttp.NewHandler(handler, "insights-api", otelOpts...)
	handler = middleware.RequestID(handler)

	const (
		readTimeout = 15 * time.Second
		// Analyses run the whole pipeline synchronously, including language-model round trips.
		writeTimeout = 10 * time.Minute
		idleTimeout  = 60 * time.Second
	)

	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
}

// Run starts the HTTP server, then blocks until ctx is cancelled (e.g. signal) or the server
// fails. Caller should then call Shutdown.
func (a *App) Run(ctx context.Context) error {
	runErr := make(chan error, 1)

	go func() {
		slog.Info("Starting server", "port", a.cfg.Port)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr <- fmt.Errorf("server: %w", err)
		}
	}()

	select {
	case err := <-runErr:
		return err
	case <-ctx.Done():
		return nil
	}
}

// shutdownObservability shuts down tracer and meter providers. Logs secondary errors, returns the first.
func shutdownObservability(ctx context.Context, tracer *sdktrace.TracerProvider, meter *sdkmetric.MeterProvider) error {
	var first error

	if err := observability.ShutdownTracerProvider(ctx, tracer); err != nil {
		first = err
	}

	if err := observability.ShutdownMeterProvider(ctx, meter); err != nil {
		if first == nil {
			first = err
		} else {
			slog.Error("shutdown meter provider", "error", err)
		}
	}

	return first
}

// Shutdown stops the server, waiting for in-flight analyses, then flushes observability.
// The observability error is returned only when the server shut down cleanly.
func (a *App) Shutdown(ctx context.Context) (err error) {
	defer func() {
		obsErr := shutdownObservability(ctx, a.tracerProvider, a.meterProvider)
		if err == nil {
			err = obsErr
		} else if obsErr != nil {
			slog.Error("shutdown observability", "error", obsErr)
		}
	}()

	if err = a.server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
