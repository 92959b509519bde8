package journal

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/photolive/internal/infrastructure/database"
	"github.com/nerrad567/photolive/internal/supervisor"
	"github.com/nerrad567/photolive/migrations"
)

func openTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "journal.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

func TestSQLiteRepository_AppendAndList(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	entries := []*Entry{
		{RunID: "run-a", Type: "starting", CreatedAt: base},
		{RunID: "run-a", Type: "port_rejected", Port: 3001, Attempt: 1, Error: "process exited", CreatedAt: base.Add(time.Second)},
		{RunID: "run-a", Type: "started", Port: 3002, PID: 4242, DurationMS: 2100, CreatedAt: base.Add(2 * time.Second)},
		{RunID: "run-b", Type: "starting", CreatedAt: base.Add(time.Minute)},
	}
	for _, e := range entries {
		if err := repo.Append(ctx, e); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		if !strings.HasPrefix(e.ID, "evt-") {
			t.Errorf("generated ID = %q, want evt- prefix", e.ID)
		}
	}

	all, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if all.Total != 4 || len(all.Entries) != 4 {
		t.Fatalf("List() total = %d, len = %d, want 4", all.Total, len(all.Entries))
	}
	if all.Entries[0].RunID != "run-b" {
		t.Errorf("first entry run = %q, want most recent run-b", all.Entries[0].RunID)
	}
	if all.Limit != defaultLimit {
		t.Errorf("Limit = %d, want %d", all.Limit, defaultLimit)
	}

	runA, err := repo.List(ctx, Filter{RunID: "run-a"})
	if err != nil {
		t.Fatalf("List(run-a) error = %v", err)
	}
	if runA.Total != 3 {
		t.Errorf("run-a total = %d, want 3", runA.Total)
	}

	started, err := repo.List(ctx, Filter{Type: "started"})
	if err != nil {
		t.Fatalf("List(started) error = %v", err)
	}
	if len(started.Entries) != 1 {
		t.Fatalf("started entries = %d, want 1", len(started.Entries))
	}
	got := started.Entries[0]
	if got.Port != 3002 || got.PID != 4242 || got.DurationMS != 2100 || got.Error != "" {
		t.Errorf("started entry = %+v", got)
	}
	if !got.CreatedAt.Equal(base.Add(2 * time.Second)) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, base.Add(2*time.Second))
	}

	rejected, err := repo.List(ctx, Filter{Type: "port_rejected"})
	if err != nil {
		t.Fatalf("List(port_rejected) error = %v", err)
	}
	if rejected.Entries[0].Error != "process exited" || rejected.Entries[0].Attempt != 1 {
		t.Errorf("rejected entry = %+v", rejected.Entries[0])
	}
}

func TestSQLiteRepository_Pagination(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := repo.Append(ctx, &Entry{RunID: "run", Type: "port_rejected", Attempt: i + 1}); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	tests := []struct {
		name       string
		filter     Filter
		wantLen    int
		wantLimit  int
		wantOffset int
	}{
		{name: "first page", filter: Filter{Limit: 2}, wantLen: 2, wantLimit: 2},
		{name: "last page", filter: Filter{Limit: 2, Offset: 4}, wantLen: 1, wantLimit: 2, wantOffset: 4},
		{name: "limit clamped", filter: Filter{Limit: 1000}, wantLen: 5, wantLimit: maxLimit},
		{name: "negative offset", filter: Filter{Offset: -3}, wantLen: 5, wantLimit: defaultLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(res.Entries) != tt.wantLen || res.Limit != tt.wantLimit || res.Offset != tt.wantOffset {
				t.Errorf("List() len = %d limit = %d offset = %d, want %d %d %d",
					len(res.Entries), res.Limit, res.Offset, tt.wantLen, tt.wantLimit, tt.wantOffset)
			}
			if res.Total != 5 {
				t.Errorf("Total = %d, want 5", res.Total)
			}
		})
	}
}

func TestSQLiteRepository_EmptyList(t *testing.T) {
	repo := openTestRepo(t)

	res, err := repo.List(context.Background(), Filter{RunID: "none"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Entries == nil || len(res.Entries) != 0 {
		t.Errorf("Entries = %v, want empty non-nil slice", res.Entries)
	}
}

func TestRecorder_Observe(t *testing.T) {
	repo := openTestRepo(t)
	rec := NewRecorder(repo, nil)

	rec.Observe(supervisor.Event{
		Type:     supervisor.EventExited,
		Time:     time.Date(2026, 10, 18, 13, 0, 0, 0, time.UTC),
		RunID:    "run-x",
		Port:     3005,
		PID:      99,
		Duration: 90 * time.Second,
		Error:    "exit status 1",
	})

	res, err := repo.List(context.Background(), Filter{RunID: "run-x"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(res.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(res.Entries))
	}
	e := res.Entries[0]
	if e.Type != "exited" || e.Port != 3005 || e.PID != 99 || e.DurationMS != 90000 || e.Error != "exit status 1" {
		t.Errorf("entry = %+v", e)
	}
}

type failingRepo struct{}

func (failingRepo) Append(context.Context, *Entry) error { return errors.New("disk full") }
func (failingRepo) List(context.Context, Filter) (*ListResult, error) {
	return nil, errors.New("disk full")
}

type warnRecorder struct{ msgs []string }

func (w *warnRecorder) Warn(msg string, _ ...any) { w.msgs = append(w.msgs, msg) }

func TestRecorder_LogsFailures(t *testing.T) {
	logger := &warnRecorder{}
	NewRecorder(failingRepo{}, logger).Observe(supervisor.Event{Type: supervisor.EventStarting})

	if len(logger.msgs) != 1 {
		t.Errorf("warnings = %v, want one", logger.msgs)
	}
}
