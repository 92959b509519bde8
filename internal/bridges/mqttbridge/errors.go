package mqttbridge

import "errors"

var (
	// ErrInvalidCommand is returned for command payloads that cannot be executed.
	ErrInvalidCommand = errors.New("mqttbridge: invalid command")

	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("mqttbridge: already started")
)
