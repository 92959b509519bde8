// Package influxdb records web server lifecycle metrics in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library. Every supervisor
// event becomes a point in the supervisor_lifecycle measurement, and a
// sampler writes the running state and uptime at a fixed interval so
// dashboards can chart availability of the slideshow server.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	sup.AddObserver(client.Observe)
//	go client.RunSampler(ctx, time.Minute, sup.Stats)
//
// Writes are non-blocking and batched (batch_size, flush_interval). Write
// failures are delivered asynchronously through SetOnError.
package influxdb
