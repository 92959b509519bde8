package mqttbridge

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Command actions accepted on the command topic.
const (
	ActionStart = "start"
	ActionStop  = "stop"
)

// CommandMessage is received on the command topic.
type CommandMessage struct {
	// ID is echoed in logs for correlation. Optional.
	ID string `json:"id,omitempty"`

	// Action is "start" or "stop".
	Action string `json:"action"`

	// Source indicates where the command originated, e.g. "home-assistant".
	Source string `json:"source,omitempty"`
}

// ParseCommand decodes and validates a command payload.
func ParseCommand(payload []byte) (CommandMessage, error) {
	var cmd CommandMessage
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return cmd, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}

	cmd.Action = strings.ToLower(strings.TrimSpace(cmd.Action))
	switch cmd.Action {
	case ActionStart, ActionStop:
		return cmd, nil
	case "":
		return cmd, fmt.Errorf("%w: missing action", ErrInvalidCommand)
	default:
		return cmd, fmt.Errorf("%w: unknown action %q", ErrInvalidCommand, cmd.Action)
	}
}
