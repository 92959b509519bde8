package journal

import (
	"context"
	"time"

	"github.com/nerrad567/photolive/internal/supervisor"
)

// writeTimeout bounds one journal write made from an observer callback.
const writeTimeout = 2 * time.Second

// Logger defines the logging interface for the recorder.
type Logger interface {
	Warn(msg string, args ...any)
}

// Recorder appends supervisor events to a Repository.
type Recorder struct {
	repo   Repository
	logger Logger
}

// NewRecorder creates a Recorder. Write failures are logged, never returned,
// so a broken journal cannot block the supervisor.
func NewRecorder(repo Repository, logger Logger) *Recorder {
	return &Recorder{repo: repo, logger: logger}
}

// Observe is a supervisor.Observer.
func (r *Recorder) Observe(ev supervisor.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	entry := FromEvent(ev)
	if err := r.repo.Append(ctx, entry); err != nil && r.logger != nil {
		r.logger.Warn("failed to journal supervisor event", "type", ev.Type, "error", err)
	}
}

// FromEvent converts a supervisor event into a journal entry.
func FromEvent(ev supervisor.Event) *Entry {
	return &Entry{
		RunID:      ev.RunID,
		Type:       string(ev.Type),
		Port:       ev.Port,
		PID:        ev.PID,
		Attempt:    ev.Attempt,
		DurationMS: ev.Duration.Milliseconds(),
		Error:      ev.Error,
		CreatedAt:  ev.Time,
	}
}
