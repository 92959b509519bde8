// PhotoLive host - runs the PhotoLive slideshow web server as a supervised
// subprocess and exposes its state over HTTP, MQTT and InfluxDB.
package main

import (
	"os"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(execute(os.Args[1:]))
}
