// Package main is the entry point for the Blue Waters API server.
//
// It loads configuration, loads the embedded water-quality fixtures, builds
// the advisory client and the alert pipeline, and mounts every handler on the
// core chassis.
//
// Inside AWS Lambda it serves API Gateway proxy events through the same
// router. Everywhere else it runs a standard HTTP server with graceful
// shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"bluewaters/internal/alerts"
	"bluewaters/internal/api/handlers"
	"bluewaters/internal/config"
	"bluewaters/internal/core"
	"bluewaters/internal/external"
	"bluewaters/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig(secretProvider())
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("blue waters API starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
		"advisory_stub", cfg.Advisory.Stub,
		"metrics_backend", cfg.Observability.MetricsBackend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if isLambdaEnvironment() {
		return runLambda(app, logger)
	}
	return runHTTPServer(ctx, app, cfg, logger)
}

// secretProvider returns nil for local runs, where SSM resolution is skipped.
func secretProvider() config.SecretProvider {
	if os.Getenv("APP_ENV") == "local" {
		return nil
	}
	return config.NewSSMProvider(os.Getenv("AWS_REGION"))
}

// application is the fully wired server plus the pieces main needs to manage
// its lifecycle.
type application struct {
	srv *core.Server
	// cloudwatch is set only for the cloudwatch metrics backend.
	cloudwatch *core.CloudWatchCollector
}

// buildApp wires every dependency and mounts the routes.
func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	st, err := store.Load(logger)
	if err != nil {
		return nil, fmt.Errorf("loading fixtures: %w", err)
	}

	telemetry, metricsHandler, cw, err := newTelemetry(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating server: %w", err)
	}
	if telemetry != nil {
		srv.Metrics = telemetry
	}
	srv.MetricsHandler = metricsHandler

	srv.HealthProbes = append(srv.HealthProbes, core.ProbeFunc{
		ProbeName: "fixtures",
		Fn: func(context.Context) error {
			if !st.Loaded() {
				return errors.New("fixtures not loaded")
			}
			return nil
		},
	})

	var registryOpts []external.RegistryOption
	if telemetry != nil {
		registryOpts = append(registryOpts, external.WithAdvisoryMetrics(telemetry))
	}
	clients := external.NewClientRegistry(cfg, logger, registryOpts...)
	advisor := clients.Advisor
	srv.HealthProbes = append(srv.HealthProbes, core.ProbeFunc{
		ProbeName: "advisory",
		Fn:        clients.CheckAdvisor,
	})

	classifier := alerts.NewClassifier(alerts.ClassifierConfig{
		Advisor: advisor,
		Policy:  cfg.Alerts.FailurePolicy,
		Logger:  logger,
	})
	aggregatorCfg := alerts.AggregatorConfig{
		Sources:     st,
		Classifier:  classifier,
		Concurrency: cfg.Alerts.Concurrency,
		Logger:      logger,
	}
	if telemetry != nil {
		aggregatorCfg.Metrics = telemetry
	}
	aggregator := alerts.NewAggregator(aggregatorCfg)

	waterSourceHandler := handlers.NewWaterSourceHandler(st, logger)
	alertHandler := handlers.NewAlertHandler(aggregator, logger)
	advisoryHandler := handlers.NewAdvisoryHandler(advisor, srv.Validator, logger)

	srv.RouteRegistrars = append(srv.RouteRegistrars,
		waterSourceHandler.RegisterRoutes,
		alertHandler.RegisterRoutes,
		advisoryHandler.RegisterRoutes,
	)
	srv.MountRoutes()

	return &application{srv: srv, cloudwatch: cw}, nil
}

// newTelemetry builds the configured metrics backend. The handler is non-nil
// only for prometheus; the collector is non-nil only for cloudwatch.
func newTelemetry(ctx context.Context, cfg *config.Config, logger *slog.Logger) (core.Telemetry, http.Handler, *core.CloudWatchCollector, error) {
	namespace := cfg.Observability.MetricNamespace

	switch cfg.Observability.MetricsBackend {
	case "prometheus":
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		c := core.NewPrometheusCollector(namespace, reg)
		return c, c.Handler(), nil, nil

	case "cloudwatch":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Observability.AWSRegion))
		if err != nil {
			return nil, nil, nil, fmt.Errorf("loading AWS config: %w", err)
		}
		c := core.NewCloudWatchCollector(cloudwatch.NewFromConfig(awsCfg), namespace, logger)
		return c, nil, c, nil

	default:
		logger.Info("metrics disabled")
		return nil, nil, nil, nil
	}
}

// isLambdaEnvironment returns true if the process is running inside AWS Lambda.
func isLambdaEnvironment() bool {
	_, hasRuntimeAPI := os.LookupEnv("AWS_LAMBDA_RUNTIME_API")
	_, hasServerPort := os.LookupEnv("_LAMBDA_SERVER_PORT")
	return hasRuntimeAPI || hasServerPort
}

// runHTTPServer starts the server in standard HTTP mode with graceful shutdown.
func runHTTPServer(ctx context.Context, app *application, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           app.srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Alerts aggregation may run for the whole request timeout.
		WriteTimeout: cfg.Server.RequestTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	metricsCtx, stopMetrics := context.WithCancel(context.Background())
	metricsDone := make(chan struct{})
	if app.cloudwatch != nil {
		go func() {
			defer close(metricsDone)
			app.cloudwatch.Run(metricsCtx, core.DefaultFlushInterval)
		}()
	} else {
		close(metricsDone)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			stopMetrics()
			<-metricsDone
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	stopMetrics()
	<-metricsDone

	// Flushes anything recorded after the background loop's final flush.
	if err := app.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates a structured slog.Logger configured for the given log level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: false,
	})
	return slog.New(handler)
}
