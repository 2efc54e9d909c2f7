package core

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"bluewaters/internal/config"
)

func TestNewServer_Success(t *testing.T) {
	cfg := &config.Config{Environment: "local"}
	logger := slog.Default()

	srv, err := NewServer(cfg, logger)
	if err != nil {
		t.Fatalf("NewServer returned unexpected error: %v", err)
	}
	if srv.Config != cfg {
		t.Error("Config field not set correctly")
	}
	if srv.Logger != logger {
		t.Error("Logger field not set correctly")
	}
	if srv.Validator == nil {
		t.Error("Validator should be initialized")
	}
	if srv.Router() == nil || srv.Handler() == nil {
		t.Error("router should be initialized")
	}
}

func TestNewServer_NilDependencies(t *testing.T) {
	if _, err := NewServer(nil, slog.Default()); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := NewServer(&config.Config{}, nil); err == nil {
		t.Error("expected error for nil logger")
	}
}

func TestShutdown_FlushesBufferedMetrics(t *testing.T) {
	client := &MockCloudWatchClient{}
	collector := NewCloudWatchCollector(client, "BlueWaters", slog.Default())
	collector.RecordRequest("GET", "/alerts", "200", 40*time.Millisecond)

	srv, _ := NewServer(&config.Config{}, slog.Default())
	srv.Metrics = collector

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}
	if client.Calls() != 1 {
		t.Errorf("expected 1 PutMetricData call, got %d", client.Calls())
	}
	if collector.Pending() != 0 {
		t.Errorf("expected empty buffer after shutdown, got %d", collector.Pending())
	}
}

func TestShutdown_ReportsFlushFailure(t *testing.T) {
	client := &MockCloudWatchClient{Err: errors.New("throttled")}
	collector := NewCloudWatchCollector(client, "", slog.Default())
	collector.RecordAlertsDegraded(context.Background(), 2)

	srv, _ := NewServer(&config.Config{}, slog.Default())
	srv.Metrics = collector

	if err := srv.Shutdown(context.Background()); err == nil {
		t.Fatal("expected flush error")
	}
}

func TestShutdown_NonFlushingCollector(t *testing.T) {
	srv, _ := NewServer(&config.Config{}, slog.Default())
	srv.Metrics = &MockTelemetry{}

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
