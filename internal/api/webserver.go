package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/nerrad567/photolive/internal/journal"
	"github.com/nerrad567/photolive/internal/supervisor"
)

// startTimeout bounds a start issued over HTTP. It covers a first-run
// dependency install, which can take minutes on a slow link.
const startTimeout = 10 * time.Minute

// responseGrace is the time left to write the response once a start returns.
const responseGrace = 30 * time.Second

// URLsResponse is returned by GET /server/urls.
type URLsResponse struct {
	Running      bool   `json:"running"`
	SlideshowURL string `json:"slideshow_url"`
	ControlURL   string `json:"control_url"`
}

// handleServerStats returns the supervisor stats.
func (s *Server) handleServerStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.supervisor.Stats())
}

// handleServerStart starts the web server and returns the resulting stats.
//
// The start runs on a context detached from the request so a client that
// hangs up mid-scan does not leave a half-started server behind. The
// server-wide write timeout is lifted for this response so the client still
// receives the result of a long start.
func (s *Server) handleServerStart(w http.ResponseWriter, r *http.Request) {
	deadline := time.Now().Add(startTimeout + responseGrace)
	if err := http.NewResponseController(w).SetWriteDeadline(deadline); err != nil {
		s.logger.Warn("cannot extend write deadline for start", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), startTimeout)
	defer cancel()

	if err := s.supervisor.Start(ctx); err != nil {
		status, code := startErrorStatus(err)
		s.logger.Warn("web server start failed", "error", err, "code", code)
		writeError(w, status, code, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, s.supervisor.Stats())
}

// handleServerStop stops the web server. Stopping a stopped server is not an error.
func (s *Server) handleServerStop(w http.ResponseWriter, _ *http.Request) {
	s.supervisor.Stop()
	writeJSON(w, http.StatusOK, s.supervisor.Stats())
}

// handleServerURLs returns the slideshow and control URLs.
// Both are empty while the server is stopped.
func (s *Server) handleServerURLs(w http.ResponseWriter, _ *http.Request) {
	stats := s.supervisor.Stats()
	writeJSON(w, http.StatusOK, URLsResponse{
		Running:      stats.Running,
		SlideshowURL: stats.SlideshowURL,
		ControlURL:   stats.ControlURL,
	})
}

// handleListEvents lists journaled lifecycle events, newest first.
//
// Query parameters: run_id, type, limit, offset.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "event journal is disabled")
		return
	}

	q := r.URL.Query()
	filter := journal.Filter{
		RunID: q.Get("run_id"),
		Type:  q.Get("type"),
	}

	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		writeBadRequest(w, "limit must be a non-negative integer")
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		writeBadRequest(w, "offset must be a non-negative integer")
		return
	}

	result, err := s.journal.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing journal events", "error", err)
		writeInternalError(w, "failed to list events")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// intParam parses an optional non-negative integer query parameter.
func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}

// startErrorStatus maps a start failure to an HTTP status and error code.
func startErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, supervisor.ErrEnvironmentMissing):
		return http.StatusConflict, ErrCodeEnvironmentMissing
	case errors.Is(err, supervisor.ErrProvisioningFailed):
		return http.StatusBadGateway, ErrCodeProvisioningFailed
	case errors.Is(err, supervisor.ErrRuntimeNotFound):
		return http.StatusServiceUnavailable, ErrCodeRuntimeNotFound
	case errors.Is(err, supervisor.ErrSpawnFailed):
		return http.StatusBadGateway, ErrCodeSpawnFailed
	case errors.Is(err, supervisor.ErrNoPortAvailable):
		return http.StatusServiceUnavailable, ErrCodeNoPortAvailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout, ErrCodeTimeout
	default:
		return http.StatusInternalServerError, ErrCodeInternal
	}
}
