package webapp

import (
	"fmt"
	"os"
	"os/exec"
)

// Locator resolves the Node.js executable.
//
// An explicit Path is probed first, then each absolute candidate, then the
// fallback name is resolved through PATH.
type Locator struct {
	path       string
	candidates []string
	fallback   string

	// Replaced in tests.
	stat     func(string) (os.FileInfo, error)
	lookPath func(string) (string, error)
}

// NewLocator creates a Locator. Nil candidates and an empty fallback use the
// platform defaults.
func NewLocator(path string, candidates []string, fallback string) *Locator {
	if candidates == nil {
		candidates = DefaultCandidates
	}
	if fallback == "" {
		fallback = DefaultFallback
	}
	return &Locator{
		path:       path,
		candidates: candidates,
		fallback:   fallback,
		stat:       os.Stat,
		lookPath:   exec.LookPath,
	}
}

// Locate returns the first usable executable.
func (l *Locator) Locate() (string, error) {
	if l.path != "" {
		if l.isFile(l.path) {
			return l.path, nil
		}
		return "", fmt.Errorf("%w: configured path %s does not exist", ErrNodeNotFound, l.path)
	}

	for _, c := range l.candidates {
		if l.isFile(c) {
			return c, nil
		}
	}

	resolved, err := l.lookPath(l.fallback)
	if err != nil {
		return "", fmt.Errorf("%w: tried %v and %q on PATH: %v", ErrNodeNotFound, l.candidates, l.fallback, err)
	}
	return resolved, nil
}

func (l *Locator) isFile(path string) bool {
	info, err := l.stat(path)
	return err == nil && !info.IsDir()
}
