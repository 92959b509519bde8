package mqtt

import "fmt"

// TopicPrefix is the root of every PhotoLive topic.
const TopicPrefix = "photolive"

// Topics provides builders for PhotoLive MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.ServerEvent("started")
//	// Returns: "photolive/server/event/started"
type Topics struct{}

// HostStatus returns the host online/offline topic carrying the LWT.
//
// Example: photolive/host/status
func (Topics) HostStatus() string {
	return TopicPrefix + "/host/status"
}

// ServerState returns the retained web server state topic.
//
// Example: photolive/server/state
func (Topics) ServerState() string {
	return TopicPrefix + "/server/state"
}

// ServerCommand returns the topic the host listens on for start/stop.
//
// Example: photolive/server/command
func (Topics) ServerCommand() string {
	return TopicPrefix + "/server/command"
}

// ServerEvent returns the topic for one lifecycle event type.
//
// Example: photolive/server/event/exited
func (Topics) ServerEvent(eventType string) string {
	return fmt.Sprintf("%s/server/event/%s", TopicPrefix, eventType)
}

// AllServerEvents returns a pattern matching every lifecycle event.
//
// Pattern: photolive/server/event/+
func (Topics) AllServerEvents() string {
	return TopicPrefix + "/server/event/+"
}
