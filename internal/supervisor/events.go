package supervisor

import "time"

// EventType identifies a lifecycle transition.
type EventType string

// Lifecycle events, in the order a successful start and stop emit them.
const (
	EventStarting     EventType = "starting"
	EventProvisioning EventType = "provisioning"
	EventPortRejected EventType = "port_rejected"
	EventStarted      EventType = "started"
	EventStartFailed  EventType = "start_failed"
	EventStopping     EventType = "stopping"
	EventStopped      EventType = "stopped"
	EventExited       EventType = "exited"
)

// Event describes one lifecycle transition.
type Event struct {
	Type EventType `json:"type"`
	Time time.Time `json:"time"`

	// RunID groups all events from one Start call and the run it produced.
	RunID string `json:"run_id,omitempty"`

	Port    int `json:"port,omitempty"`
	PID     int `json:"pid,omitempty"`
	Attempt int `json:"attempt,omitempty"`

	// Running is the supervisor state after the transition.
	Running bool `json:"running"`

	// Duration is start latency for started/start_failed and uptime for
	// stopped/exited.
	Duration time.Duration `json:"duration,omitempty"`

	Error string `json:"error,omitempty"`
}

// Observer receives lifecycle events.
//
// Observers run synchronously inside Start, Stop and the exit watcher, so they
// must return quickly. They may read state through the accessors but must not
// call Start or Stop.
type Observer func(Event)
