// Package api implements the host HTTP API and WebSocket event stream.
//
// This package provides:
//   - Status and control endpoints for the web server subprocess
//   - A listing of journaled lifecycle events
//   - A WebSocket hub that broadcasts every supervisor event
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Endpoints
//
//	GET  /api/v1/health         host and sink health
//	GET  /api/v1/metrics        runtime and connection statistics
//	GET  /api/v1/server         supervisor stats
//	POST /api/v1/server/start   start (idempotent), blocks until a port is accepted
//	POST /api/v1/server/stop    stop (idempotent)
//	GET  /api/v1/server/urls    slideshow and control URLs
//	GET  /api/v1/events         journal listing (when the journal is enabled)
//	GET  /api/v1/ws             lifecycle event stream
//
// # Security
//
// The API binds to loopback by default and has no user model. Anything able
// to reach it can start and stop the web server.
package api
