package influxdb

import "errors"

// Errors returned while setting up the lifecycle metrics sink. Writes are
// asynchronous and report failures through SetOnError instead.
var (
	// ErrNotConnected means the metrics sink was closed or never opened.
	ErrNotConnected = errors.New("lifecycle metrics: sink not open")

	// ErrConnectionFailed means the InfluxDB server did not answer the
	// startup ping or reported itself unhealthy.
	ErrConnectionFailed = errors.New("lifecycle metrics: influxdb unreachable")

	// ErrDisabled means influxdb.enabled is false; the host runs without
	// metrics.
	ErrDisabled = errors.New("lifecycle metrics: influxdb disabled")
)
