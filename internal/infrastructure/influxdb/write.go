package influxdb

import (
	"context"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/photolive/internal/supervisor"
)

// Measurement names.
const (
	MeasurementLifecycle = "supervisor_lifecycle"
	MeasurementState     = "supervisor_state"
)

// LifecyclePoint converts a supervisor event into a point.
//
// The event type and server name are tags; port, pid, attempt and
// duration are fields so they do not inflate series cardinality.
func LifecyclePoint(name string, ev supervisor.Event) *write.Point {
	fields := map[string]any{
		"running": ev.Running,
	}
	if ev.Port != 0 {
		fields["port"] = int64(ev.Port)
	}
	if ev.PID != 0 {
		fields["pid"] = int64(ev.PID)
	}
	if ev.Attempt != 0 {
		fields["attempt"] = int64(ev.Attempt)
	}
	if ev.Duration != 0 {
		fields["duration_ms"] = ev.Duration.Milliseconds()
	}
	if ev.Error != "" {
		fields["error"] = ev.Error
	}

	ts := ev.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	return write.NewPoint(
		MeasurementLifecycle,
		map[string]string{
			"server": name,
			"event":  string(ev.Type),
		},
		fields,
		ts,
	)
}

// StatePoint converts a stats snapshot into a point.
func StatePoint(stats supervisor.Stats, ts time.Time) *write.Point {
	running := int64(0)
	if stats.Running {
		running = 1
	}
	return write.NewPoint(
		MeasurementState,
		map[string]string{"server": stats.Name},
		map[string]any{
			"running":    running,
			"port":       int64(stats.Port),
			"uptime_sec": stats.Uptime.Seconds(),
		},
		ts,
	)
}

// Observe is a supervisor.Observer writing one lifecycle point per event.
func (c *Client) Observe(ev supervisor.Event) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(LifecyclePoint(c.serverTag(), ev))
}

// RunSampler writes a state point every interval until ctx is cancelled.
// stats must not be called while the supervisor lock is held.
func (c *Client) RunSampler(ctx context.Context, interval time.Duration, stats func() supervisor.Stats) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if c.IsConnected() {
				c.writeAPI.WritePoint(StatePoint(stats(), now))
			}
		}
	}
}

// SetServerName sets the server tag used by Observe. Default "web-app".
func (c *Client) SetServerName(name string) {
	c.mu.Lock()
	c.server = name
	c.mu.Unlock()
}

func (c *Client) serverTag() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.server == "" {
		return supervisor.DefaultName
	}
	return c.server
}
