package mqttbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/photolive/internal/infrastructure/mqtt"
	"github.com/nerrad567/photolive/internal/supervisor"
)

const (
	// eventQueueSize bounds events waiting to be published. A full queue
	// drops events rather than stalling the supervisor.
	eventQueueSize = 64

	// commandQueueSize bounds pending start/stop commands.
	commandQueueSize = 4

	// startTimeout bounds a start command issued over MQTT.
	startTimeout = 2 * time.Minute
)

// MQTTClient is the subset of the MQTT client used by the bridge.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	SetOnConnect(callback func())
}

// Controller is the supervisor surface driven by remote commands.
type Controller interface {
	Start(ctx context.Context) error
	Stop()
	Stats() supervisor.Stats
}

// Logger defines the logging interface for the bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Bridge publishes supervisor state to MQTT and executes remote commands.
type Bridge struct {
	client MQTTClient
	ctrl   Controller
	qos    byte
	logger Logger
	topics mqtt.Topics

	events   chan supervisor.Event
	commands chan CommandMessage

	startOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a Bridge. Call Start to begin publishing and listening.
func New(client MQTTClient, ctrl Controller, qos byte, logger Logger) *Bridge {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Bridge{
		client:   client,
		ctrl:     ctrl,
		qos:      qos,
		logger:   logger,
		events:   make(chan supervisor.Event, eventQueueSize),
		commands: make(chan CommandMessage, commandQueueSize),
	}
}

// Observe is a supervisor.Observer. It never blocks.
func (b *Bridge) Observe(ev supervisor.Event) {
	select {
	case b.events <- ev:
	default:
		b.logger.Warn("mqtt event queue full, dropping event", "type", ev.Type, "run_id", ev.RunID)
	}
}

// Start subscribes to the command topic, publishes the current state and
// runs the bridge until ctx is cancelled. Call Wait to block until the
// worker goroutines have exited.
func (b *Bridge) Start(ctx context.Context) error {
	err := ErrAlreadyStarted
	b.startOnce.Do(func() {
		err = b.start(ctx)
	})
	return err
}

func (b *Bridge) start(ctx context.Context) error {
	if err := b.client.Subscribe(b.topics.ServerCommand(), b.qos, b.handleCommand); err != nil {
		return fmt.Errorf("subscribing to commands: %w", err)
	}

	// Retained state is lost if the broker restarts without persistence.
	b.client.SetOnConnect(b.publishState)
	b.publishState()

	b.wg.Add(2)
	go b.publishLoop(ctx)
	go b.commandLoop(ctx)

	b.logger.Info("mqtt bridge started", "command_topic", b.topics.ServerCommand())
	return nil
}

// Wait blocks until the bridge goroutines exit.
func (b *Bridge) Wait() {
	b.wg.Wait()
}

// handleCommand is the MQTT handler for the command topic.
func (b *Bridge) handleCommand(_ string, payload []byte) error {
	cmd, err := ParseCommand(payload)
	if err != nil {
		return err
	}

	select {
	case b.commands <- cmd:
		return nil
	default:
		return fmt.Errorf("command queue full, dropping %q", cmd.Action)
	}
}

func (b *Bridge) publishLoop(ctx context.Context) {
	defer b.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-b.events:
			b.publishEvent(ev)
			b.publishState()
		}
	}
}

func (b *Bridge) commandLoop(ctx context.Context) {
	defer b.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-b.commands:
			b.execute(ctx, cmd)
		}
	}
}

func (b *Bridge) execute(ctx context.Context, cmd CommandMessage) {
	b.logger.Info("mqtt command received", "action", cmd.Action, "id", cmd.ID, "source", cmd.Source)

	switch cmd.Action {
	case ActionStart:
		startCtx, cancel := context.WithTimeout(ctx, startTimeout)
		defer cancel()
		if err := b.ctrl.Start(startCtx); err != nil {
			b.logger.Warn("mqtt start command failed", "id", cmd.ID, "error", err)
		}
	case ActionStop:
		b.ctrl.Stop()
	}
}

func (b *Bridge) publishEvent(ev supervisor.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		b.logger.Warn("failed to encode event", "type", ev.Type, "error", err)
		return
	}
	if err := b.client.Publish(b.topics.ServerEvent(string(ev.Type)), payload, b.qos, false); err != nil {
		b.logger.Debug("failed to publish event", "type", ev.Type, "error", err)
	}
}

func (b *Bridge) publishState() {
	payload, err := json.Marshal(b.ctrl.Stats())
	if err != nil {
		b.logger.Warn("failed to encode state", "error", err)
		return
	}
	if err := b.client.Publish(b.topics.ServerState(), payload, b.qos, true); err != nil {
		b.logger.Debug("failed to publish state", "error", err)
	}
}
