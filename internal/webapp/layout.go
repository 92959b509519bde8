package webapp

import (
	"fmt"
	"os"
	"path/filepath"
)

// Default file names inside the web app directory.
const (
	DefaultManifest      = "package.json"
	DefaultDependencyDir = "node_modules"
)

// Layout is the web app directory on disk.
type Layout struct {
	root          string
	manifest      string
	dependencyDir string
}

// NewLayout creates a Layout. Empty manifest and dependencyDir use the defaults.
// The root is made absolute so the child's working directory does not depend
// on where the host was started.
func NewLayout(root, manifest, dependencyDir string) (*Layout, error) {
	if manifest == "" {
		manifest = DefaultManifest
	}
	if dependencyDir == "" {
		dependencyDir = DefaultDependencyDir
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving web app root %q: %w", root, err)
	}
	return &Layout{root: abs, manifest: manifest, dependencyDir: dependencyDir}, nil
}

// Root returns the absolute web app directory.
func (l *Layout) Root() string {
	return l.root
}

// ManifestPath returns the path of package.json.
func (l *Layout) ManifestPath() string {
	return filepath.Join(l.root, l.manifest)
}

// DependencyPath returns the path of node_modules.
func (l *Layout) DependencyPath() string {
	return filepath.Join(l.root, l.dependencyDir)
}

// Validate checks that the directory and its manifest exist.
func (l *Layout) Validate() error {
	info, err := os.Stat(l.root)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrRootMissing, l.root)
	}
	if _, err := os.Stat(l.ManifestPath()); err != nil {
		return fmt.Errorf("%w: %s", ErrManifestMissing, l.ManifestPath())
	}
	return nil
}

// DependenciesInstalled reports whether the dependency directory exists.
func (l *Layout) DependenciesInstalled() bool {
	info, err := os.Stat(l.DependencyPath())
	return err == nil && info.IsDir()
}

// Manifest reads package.json.
func (l *Layout) Manifest() (*Manifest, error) {
	return ReadManifest(l.ManifestPath())
}

// Entry resolves the entry script: override if set, otherwise whatever the
// manifest declares, otherwise server.js.
func (l *Layout) Entry(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	m, err := l.Manifest()
	if err != nil {
		return "", err
	}
	return m.EntryScript(), nil
}
