package mqtt

import "errors"

// Errors from the broker link that carries web server state and commands.
var (
	// ErrNotConnected means the broker link is down; state is republished on
	// reconnect, so callers may drop the message.
	ErrNotConnected = errors.New("photolive mqtt: broker link down")

	// ErrConnectionFailed means the first connection to the broker failed.
	ErrConnectionFailed = errors.New("photolive mqtt: cannot reach broker")

	// ErrPublishFailed wraps a rejected or timed-out publish.
	ErrPublishFailed = errors.New("photolive mqtt: publish failed")

	// ErrSubscribeFailed wraps a rejected or timed-out subscription.
	ErrSubscribeFailed = errors.New("photolive mqtt: subscribe failed")

	// ErrInvalidQoS means a QoS outside 0..2.
	ErrInvalidQoS = errors.New("photolive mqtt: qos must be 0, 1 or 2")

	// ErrInvalidTopic means an empty topic.
	ErrInvalidTopic = errors.New("photolive mqtt: empty topic")
)
