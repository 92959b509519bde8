// Package mqttbridge connects the web server supervisor to an MQTT broker.
//
// Outbound, every lifecycle event is published on
// photolive/server/event/{type} and the current supervisor stats are
// republished as a retained message on photolive/server/state. Inbound,
// commands on photolive/server/command start or stop the web server:
//
//	{"action": "start"}
//	{"action": "stop"}
//
// Supervisor observers run inside Start and Stop, so the bridge only queues
// events from Observe and a slow broker never delays a transition. Publishing and command execution happen on
// the bridge's own goroutines.
package mqttbridge
