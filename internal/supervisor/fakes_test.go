package supervisor

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/photolive/internal/process"
)

type fakeEnv struct {
	root        string
	validateErr error
	installed   bool
}

func (e *fakeEnv) Validate() error             { return e.validateErr }
func (e *fakeEnv) DependenciesInstalled() bool { return e.installed }
func (e *fakeEnv) Root() string                { return e.root }

type fakeProvisioner struct {
	mu    sync.Mutex
	calls int
	root  string
	err   error
	env   *fakeEnv
}

func (p *fakeProvisioner) Install(_ context.Context, root string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.root = root
	if p.err == nil && p.env != nil {
		p.env.installed = true
	}
	return p.err
}

type fakeRuntime struct {
	path string
	err  error
}

func (r fakeRuntime) Locate() (string, error) { return r.path, r.err }

// fakeProcess is a child that either survives observation or dies in it.
type fakeProcess struct {
	pid     int
	port    int
	survive bool

	once     sync.Once
	done     chan struct{}
	exitErr  error
	mu       sync.Mutex
	stops    int
	releases int
}

func newFakeProcess(pid, port int, survive bool) *fakeProcess {
	return &fakeProcess{pid: pid, port: port, survive: survive, done: make(chan struct{})}
}

func (p *fakeProcess) die(err error) {
	p.once.Do(func() {
		p.exitErr = err
		close(p.done)
	})
}

func (p *fakeProcess) PID() int              { return p.pid }
func (p *fakeProcess) Done() <-chan struct{} { return p.done }

func (p *fakeProcess) Alive() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

func (p *fakeProcess) ExitErr() error {
	if p.Alive() {
		return nil
	}
	return p.exitErr
}

func (p *fakeProcess) Observe(ctx context.Context, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.survive {
		p.die(fmt.Errorf("exit status 1"))
		return fmt.Errorf("%w: exit status 1", process.ErrExited)
	}
	if !p.Alive() {
		return process.ErrExited
	}
	return nil
}

func (p *fakeProcess) Stop(time.Duration) error {
	p.mu.Lock()
	p.stops++
	p.mu.Unlock()
	p.die(nil)
	return nil
}

func (p *fakeProcess) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releases++
}

func (p *fakeProcess) counts() (stops, releases int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stops, p.releases
}

// fakeLauncher records every spawn. survive and spawnErr decide the fate of
// each port; nil means every launch succeeds and survives.
type fakeLauncher struct {
	survive  func(port int) bool
	spawnErr func(port int) error

	mu       sync.Mutex
	nextPID  int
	specs    []process.Spec
	launched []*fakeProcess
}

func (l *fakeLauncher) Launch(ctx context.Context, spec process.Spec) (Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.specs = append(l.specs, spec)
	port := envPort(spec.Env)

	if l.spawnErr != nil {
		if err := l.spawnErr(port); err != nil {
			return nil, err
		}
	}

	survive := true
	if l.survive != nil {
		survive = l.survive(port)
	}
	l.nextPID++
	p := newFakeProcess(1000+l.nextPID, port, survive)
	l.launched = append(l.launched, p)
	return p, nil
}

func (l *fakeLauncher) processes() []*fakeProcess {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*fakeProcess(nil), l.launched...)
}

func (l *fakeLauncher) attemptedPorts() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	ports := make([]int, 0, len(l.specs))
	for _, s := range l.specs {
		ports = append(ports, envPort(s.Env))
	}
	return ports
}

// envPort returns the last PORT= entry, which is the one the child sees.
func envPort(env []string) int {
	port := 0
	for _, kv := range env {
		if v, ok := strings.CutPrefix(kv, "PORT="); ok {
			port, _ = strconv.Atoi(v)
		}
	}
	return port
}

// eventRecorder collects observer events.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) observe(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]EventType, len(r.events))
	for i, ev := range r.events {
		types[i] = ev.Type
	}
	return types
}

func (r *eventRecorder) last() Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return Event{}
	}
	return r.events[len(r.events)-1]
}

// gatedProvisioner blocks in Install until release is closed.
type gatedProvisioner struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedProvisioner() *gatedProvisioner {
	return &gatedProvisioner{entered: make(chan struct{}), release: make(chan struct{})}
}

func (p *gatedProvisioner) Install(ctx context.Context, _ string) error {
	p.once.Do(func() { close(p.entered) })
	select {
	case <-p.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
