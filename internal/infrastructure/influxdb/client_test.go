package influxdb_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/photolive/internal/infrastructure/config"
	"github.com/nerrad567/photolive/internal/infrastructure/influxdb"
	"github.com/nerrad567/photolive/internal/supervisor"
)

// testConfig returns a configuration for a local dev InfluxDB.
func testConfig() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "photolive-dev-token",
		Org:           "photolive",
		Bucket:        "photolive",
		BatchSize:     100,
		FlushInterval: 1,
	}
}

// connectOrSkip skips the test if InfluxDB is not running.
func connectOrSkip(t *testing.T) *influxdb.Client {
	t.Helper()
	client, err := influxdb.Connect(testConfig())
	if err != nil {
		if os.Getenv("RUN_INTEGRATION") != "" {
			t.Fatalf("Connect() error = %v", err)
		}
		t.Skip("InfluxDB not available, skipping integration test")
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func lineProtocol(p *write.Point) string {
	return write.PointToLineProtocol(p, time.Nanosecond)
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	_, err := influxdb.Connect(cfg)
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	cfg := testConfig()
	cfg.URL = "http://127.0.0.1:1"

	_, err := influxdb.Connect(cfg)
	if !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestClient_ZeroValue(t *testing.T) {
	var c influxdb.Client

	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}

	// Disconnected writes are dropped silently.
	c.Observe(supervisor.Event{Type: supervisor.EventStarted})
	c.Flush()
}

func TestLifecyclePoint(t *testing.T) {
	ts := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	ev := supervisor.Event{
		Type:     supervisor.EventStarted,
		Time:     ts,
		RunID:    "run-1",
		Port:     3003,
		PID:      4242,
		Attempt:  3,
		Running:  true,
		Duration: 6 * time.Second,
	}

	line := lineProtocol(influxdb.LifecyclePoint("web-app", ev))

	for _, want := range []string{
		"supervisor_lifecycle,",
		"event=started",
		"server=web-app",
		"port=3003i",
		"pid=4242i",
		"attempt=3i",
		"duration_ms=6000i",
		"running=true",
	} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
	if !strings.HasSuffix(strings.TrimSpace(line), " 1792324800000000000") {
		t.Errorf("line %q does not carry the event time", line)
	}
	if strings.Contains(line, "run-1") {
		t.Errorf("run id must not be written: %q", line)
	}
}

func TestLifecyclePoint_OmitsZeroFields(t *testing.T) {
	line := lineProtocol(influxdb.LifecyclePoint("web-app", supervisor.Event{
		Type:  supervisor.EventStartFailed,
		Error: "no port available",
	}))

	for _, absent := range []string{"port=", "pid=", "attempt=", "duration_ms="} {
		if strings.Contains(line, absent) {
			t.Errorf("line %q should not contain %q", line, absent)
		}
	}
	if !strings.Contains(line, `error="no port available"`) {
		t.Errorf("line %q missing error field", line)
	}
}

func TestStatePoint(t *testing.T) {
	stats := supervisor.Stats{Name: "web-app", Running: true, Port: 3001, Uptime: 90 * time.Second}
	line := lineProtocol(influxdb.StatePoint(stats, time.Unix(0, 0)))

	for _, want := range []string{"supervisor_state,server=web-app", "running=1i", "port=3001i", "uptime_sec=90"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
}

func TestObserveAndSample_Integration(t *testing.T) {
	client := connectOrSkip(t)

	writeErrs := make(chan error, 8)
	client.SetOnError(func(err error) {
		select {
		case writeErrs <- err:
		default:
		}
	})
	client.SetServerName("web-app-test")

	client.Observe(supervisor.Event{Type: supervisor.EventStarted, Port: 3001, Running: true, Time: time.Now()})

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	client.RunSampler(ctx, 50*time.Millisecond, func() supervisor.Stats {
		return supervisor.Stats{Name: "web-app-test", Running: true, Port: 3001}
	})

	client.Flush()
	select {
	case err := <-writeErrs:
		t.Errorf("write error: %v", err)
	default:
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}
