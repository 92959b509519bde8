// Package mqtt provides MQTT client connectivity for the PhotoLive host.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions, restored after reconnect
//   - Last Will and Testament (LWT) so dashboards see the host go offline
//
// The host publishes the web server state as a retained message and listens
// for start/stop commands, which lets home automation and stream-deck style
// tools drive the slideshow without the HTTP API.
//
// # Topics
//
//	photolive/host/status      retained, online/offline (LWT)
//	photolive/server/state     retained, current supervisor stats
//	photolive/server/event/+   lifecycle events
//	photolive/server/command   {"action":"start"} or {"action":"stop"}
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishRetained(mqtt.Topics{}.ServerState(), payload)
package mqtt
