package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/photolive/internal/process"
)

// Defaults applied by New for zero values.
const (
	DefaultName              = "web-app"
	DefaultPortEnv           = "PORT"
	DefaultEntry             = "server.js"
	DefaultObservationWindow = 2 * time.Second
	DefaultStopTimeout       = 10 * time.Second
)

// Status represents the supervisor state.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
)

// Config holds configuration for a Supervisor.
type Config struct {
	// Name is a human-readable identifier for logging.
	Name string

	// Ports is the range scanned in ascending order.
	Ports PortRange

	// PortEnv is the environment variable the child reads its port from.
	PortEnv string

	// Args are passed to the runtime, starting with the entry script.
	Args []string

	// ExtraEnv is added to the child's environment (never the host's).
	ExtraEnv map[string]string

	// ObservationWindow is how long a child must survive for its port to be
	// accepted.
	ObservationWindow time.Duration

	// StopTimeout bounds the graceful part of Stop before a forceful kill.
	StopTimeout time.Duration

	// LeaseDir holds per-port lock files. Empty disables leasing.
	LeaseDir string

	// CaptureOutput logs child stdout/stderr at debug level instead of
	// discarding it.
	CaptureOutput bool
}

// Supervisor manages the lifecycle of one subordinate web server process.
// All methods are safe for concurrent use. Start, Stop and the exit watcher
// are serialised by opMu; accessors only take mu and never wait for a
// transition in progress.
type Supervisor struct {
	config Config
	deps   Deps
	logger Logger
	leases leaser
	now    func() time.Time

	observersMu sync.RWMutex
	observers   []Observer

	// opMu is held for a whole transition. Fields below are written only
	// with both opMu and mu held, so opMu holders may read them without mu.
	opMu sync.Mutex

	mu        sync.RWMutex
	starting  string // run ID of the start in flight, "" if none
	running   bool
	port      int
	handle    Process
	lease     *portLease
	runID     string
	startedAt time.Time
	lastErr   error

	// stopWatch is closed by Stop so the exit watcher stands down.
	stopWatch chan struct{}
}

// New creates a stopped Supervisor.
func New(cfg Config, deps Deps) (*Supervisor, error) {
	// Apply defaults for zero values
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.Ports == (PortRange{}) {
		cfg.Ports = DefaultPortRange()
	}
	if cfg.PortEnv == "" {
		cfg.PortEnv = DefaultPortEnv
	}
	if len(cfg.Args) == 0 {
		cfg.Args = []string{DefaultEntry}
	}
	if cfg.ObservationWindow <= 0 {
		cfg.ObservationWindow = DefaultObservationWindow
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = DefaultStopTimeout
	}

	if err := cfg.Ports.Validate(); err != nil {
		return nil, fmt.Errorf("invalid supervisor config: %w", err)
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}

	return &Supervisor{
		config: cfg,
		deps:   deps,
		logger: noopLogger{},
		leases: leaser{dir: cfg.LeaseDir},
		now:    time.Now,
	}, nil
}

// SetLogger sets the logger for the supervisor.
func (s *Supervisor) SetLogger(logger Logger) {
	s.logger = logger
}

// AddObserver registers fn to receive every lifecycle event.
func (s *Supervisor) AddObserver(fn Observer) {
	s.observersMu.Lock()
	defer s.observersMu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *Supervisor) emit(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = s.now()
	}
	s.observersMu.RLock()
	observers := s.observers
	s.observersMu.RUnlock()

	for _, fn := range observers {
		fn(ev)
	}
}

// Start launches the web server if it is not already running.
//
// It returns nil if a server is running when Start returns, including when
// it was already running. On failure the supervisor stays stopped, every
// spawned child has been reaped, and the error wraps one of the Err*
// sentinels. ctx is honoured during provisioning and between port
// candidates; the launched server is not bound to ctx.
func (s *Supervisor) Start(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if s.running {
		return nil
	}

	runID := uuid.NewString()
	begin := s.now()

	s.mu.Lock()
	s.starting = runID
	s.mu.Unlock()

	s.logger.Info("starting web server", "name", s.config.Name, "ports", s.config.Ports.String())
	s.emit(Event{Type: EventStarting, RunID: runID})

	err := s.start(ctx, runID)

	s.mu.Lock()
	s.starting = ""
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("web server failed to start", "name", s.config.Name, "error", err)
		s.emit(Event{
			Type:     EventStartFailed,
			RunID:    runID,
			Duration: s.now().Sub(begin),
			Error:    err.Error(),
		})
		return err
	}

	s.logger.Info("web server started",
		"name", s.config.Name,
		"port", s.port,
		"pid", s.handle.PID(),
		"url", slideshowURL(s.port),
	)
	s.emit(Event{
		Type:     EventStarted,
		RunID:    runID,
		Port:     s.port,
		PID:      s.handle.PID(),
		Running:  true,
		Duration: s.now().Sub(begin),
	})
	return nil
}

// start runs the start sequence with s.opMu held.
func (s *Supervisor) start(ctx context.Context, runID string) error {
	env := s.deps.Environment
	if err := env.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrEnvironmentMissing, err)
	}

	if !env.DependenciesInstalled() {
		s.logger.Info("installing web app dependencies", "root", env.Root())
		s.emit(Event{Type: EventProvisioning, RunID: runID})
		if err := s.deps.Provisioner.Install(ctx, env.Root()); err != nil {
			return fmt.Errorf("%w: %v", ErrProvisioningFailed, err)
		}
	}

	binary, err := s.deps.Runtime.Locate()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRuntimeNotFound, err)
	}

	var (
		lastErr     error
		lastSpawned bool // last attempt reached the OS spawn and it failed
	)
	for attempt, port := range s.config.Ports.Candidates() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("start cancelled before port %d: %w", port, err)
		}

		h, lease, err := s.try(ctx, binary, port)
		if err == nil {
			s.accept(runID, port, h, lease)
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return fmt.Errorf("start cancelled on port %d: %w", port, err)
		}

		lastErr = err
		lastSpawned = errors.Is(err, errSpawn)
		s.logger.Debug("port rejected", "port", port, "attempt", attempt+1, "error", err)
		s.emit(Event{
			Type:    EventPortRejected,
			RunID:   runID,
			Port:    port,
			Attempt: attempt + 1,
			Error:   err.Error(),
		})
	}

	if lastSpawned {
		if errors.Is(lastErr, exec.ErrNotFound) || errors.Is(lastErr, fs.ErrNotExist) {
			return fmt.Errorf("%w: %w: %v", ErrSpawnFailed, ErrRuntimeNotFound, lastErr)
		}
		return fmt.Errorf("%w: %v", ErrSpawnFailed, lastErr)
	}
	return fmt.Errorf("%w: tried ports %s: %v", ErrNoPortAvailable, s.config.Ports, lastErr)
}

// errSpawn marks an attempt that failed at the OS spawn.
var errSpawn = errors.New("launch failed")

// try makes one attempt on port. On error nothing is left running or leased.
func (s *Supervisor) try(ctx context.Context, binary string, port int) (Process, *portLease, error) {
	lease, err := s.leases.acquire(port)
	if err != nil {
		if errors.Is(err, errLeaseHeld) {
			return nil, nil, err
		}
		// An unusable lease directory should not take the web server down.
		s.logger.Warn("port lease unavailable, continuing without it", "port", port, "error", err)
		lease = nil
	}

	h, err := s.deps.Launcher.Launch(ctx, s.spec(binary, port))
	if err != nil {
		s.releaseLease(lease)
		return nil, nil, fmt.Errorf("%w: %w", errSpawn, err)
	}

	if err := h.Observe(ctx, s.config.ObservationWindow); err != nil {
		s.discard(h)
		s.releaseLease(lease)
		return nil, nil, fmt.Errorf("port %d: %w", port, err)
	}

	return h, lease, nil
}

// discard stops, reaps and releases a rejected attempt.
func (s *Supervisor) discard(h Process) {
	if err := h.Stop(s.config.StopTimeout); err != nil {
		s.logger.Warn("failed to stop rejected attempt", "pid", h.PID(), "error", err)
	}
	h.Release()
}

func (s *Supervisor) releaseLease(lease *portLease) {
	if err := lease.release(); err != nil {
		s.logger.Warn("failed to release port lease", "port", lease.port, "error", err)
	}
}

// accept records the running child and starts watching it. s.opMu is held.
func (s *Supervisor) accept(runID string, port int, h Process, lease *portLease) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = true
	s.port = port
	s.handle = h
	s.lease = lease
	s.runID = runID
	s.startedAt = s.now()
	s.stopWatch = make(chan struct{})

	go s.watch(runID, h, s.stopWatch)
}

// spec builds the launch description for one port.
func (s *Supervisor) spec(binary string, port int) process.Spec {
	spec := process.Spec{
		Name:   s.config.Name,
		Binary: binary,
		Args:   s.config.Args,
		Dir:    s.deps.Environment.Root(),
		Env:    childEnv(s.config.PortEnv, port, s.config.ExtraEnv),
	}
	if s.config.CaptureOutput {
		spec.Output = process.NewLogWriter(s.logger, s.config.Name)
	}
	return spec
}

// childEnv returns the child-only environment additions. Later entries win,
// so the port variable always carries the candidate port.
func childEnv(portEnv string, port int, extra map[string]string) []string {
	p := strconv.Itoa(port)
	env := []string{
		"ALLOWED_ORIGINS=http://localhost:" + p + ",http://127.0.0.1:" + p,
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+extra[k])
	}

	return append(env, portEnv+"="+p)
}

// watch flips the supervisor to stopped if the child exits on its own.
func (s *Supervisor) watch(runID string, h Process, stop <-chan struct{}) {
	select {
	case <-stop:
		return
	case <-h.Done():
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	// Stop won the race, or a newer run replaced this one.
	if !s.running || s.runID != runID {
		return
	}

	port := s.port
	uptime := s.now().Sub(s.startedAt)
	exitErr := h.ExitErr()

	s.logger.Warn("web server exited unexpectedly",
		"name", s.config.Name,
		"port", port,
		"pid", h.PID(),
		"error", exitErr,
	)

	h.Release()
	s.releaseLease(s.lease)

	ev := Event{
		Type:     EventExited,
		RunID:    runID,
		Port:     port,
		PID:      h.PID(),
		Duration: uptime,
	}
	reason := errors.New("web server exited")
	if exitErr != nil {
		reason = fmt.Errorf("web server exited: %w", exitErr)
		ev.Error = exitErr.Error()
	}

	s.mu.Lock()
	s.clear()
	s.lastErr = reason
	s.mu.Unlock()

	s.emit(ev)
}

// Stop terminates the web server if it is running. It never fails: problems
// are logged and the supervisor always ends up stopped.
func (s *Supervisor) Stop() {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if !s.running {
		return
	}

	h := s.handle
	port := s.port
	runID := s.runID
	uptime := s.now().Sub(s.startedAt)

	close(s.stopWatch)

	s.logger.Info("stopping web server", "name", s.config.Name, "port", port, "pid", h.PID())
	s.emit(Event{Type: EventStopping, RunID: runID, Port: port, PID: h.PID(), Running: true})

	if err := h.Stop(s.config.StopTimeout); err != nil {
		s.logger.Error("failed to stop web server", "name", s.config.Name, "pid", h.PID(), "error", err)
	}
	h.Release()
	s.releaseLease(s.lease)

	s.mu.Lock()
	s.clear()
	s.mu.Unlock()

	s.logger.Info("web server stopped", "name", s.config.Name, "uptime", uptime)
	s.emit(Event{Type: EventStopped, RunID: runID, Port: port, PID: h.PID(), Duration: uptime})
}

// clear resets run state. s.opMu and s.mu are held.
func (s *Supervisor) clear() {
	s.running = false
	s.port = 0
	s.handle = nil
	s.lease = nil
	s.stopWatch = nil
}

// IsRunning returns true if the web server is running.
func (s *Supervisor) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Port returns the bound port, or 0 if not running.
func (s *Supervisor) Port() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.port
}

// PID returns the web server process ID, or 0 if not running.
func (s *Supervisor) PID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.handle == nil {
		return 0
	}
	return s.handle.PID()
}

// SlideshowURL returns http://localhost:<port>, or "" if not running.
func (s *Supervisor) SlideshowURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return ""
	}
	return slideshowURL(s.port)
}

// ControlURL returns http://localhost:<port>/control, or "" if not running.
func (s *Supervisor) ControlURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return ""
	}
	return controlURL(s.port)
}

// LastError returns the error from the most recent Start, or the reason the
// last run ended on its own. It is nil after a successful Start.
func (s *Supervisor) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// PortRange returns the configured scan range.
func (s *Supervisor) PortRange() PortRange {
	return s.config.Ports
}

func slideshowURL(port int) string {
	return "http://localhost:" + strconv.Itoa(port)
}

func controlURL(port int) string {
	return slideshowURL(port) + "/control"
}

// Stats holds a snapshot of the supervisor state.
type Stats struct {
	Name         string        `json:"name"`
	Status       Status        `json:"status"`
	Running      bool          `json:"running"`
	Port         int           `json:"port,omitempty"`
	PID          int           `json:"pid,omitempty"`
	RunID        string        `json:"run_id,omitempty"`
	Uptime       time.Duration `json:"uptime,omitempty"`
	SlideshowURL string        `json:"slideshow_url,omitempty"`
	ControlURL   string        `json:"control_url,omitempty"`
	PortRange    string        `json:"port_range"`
	LastError    string        `json:"last_error,omitempty"`
}

// Stats returns current statistics for the web server.
func (s *Supervisor) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		Name:      s.config.Name,
		Status:    StatusStopped,
		PortRange: s.config.Ports.String(),
	}
	if s.starting != "" {
		stats.Status = StatusStarting
		stats.RunID = s.starting
	}
	if s.running {
		stats.Status = StatusRunning
		stats.Running = true
		stats.Port = s.port
		stats.PID = s.handle.PID()
		stats.RunID = s.runID
		stats.Uptime = s.now().Sub(s.startedAt)
		stats.SlideshowURL = slideshowURL(s.port)
		stats.ControlURL = controlURL(s.port)
	}
	if s.lastErr != nil {
		stats.LastError = s.lastErr.Error()
	}
	return stats
}
