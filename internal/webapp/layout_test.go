package webapp

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLayout_Validate(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(root string)
		wantErr error
	}{
		{
			name:  "complete",
			setup: func(root string) { writeFile(t, filepath.Join(root, "package.json"), `{}`) },
		},
		{
			name:    "missing manifest",
			setup:   func(root string) { os.MkdirAll(root, 0o755) }, //nolint:errcheck
			wantErr: ErrManifestMissing,
		},
		{
			name:    "missing root",
			setup:   func(string) {},
			wantErr: ErrRootMissing,
		},
		{
			name:    "root is a file",
			setup:   func(root string) { writeFile(t, root, "not a dir") },
			wantErr: ErrRootMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := filepath.Join(t.TempDir(), "web-app")
			tt.setup(root)

			l, err := NewLayout(root, "", "")
			if err != nil {
				t.Fatalf("NewLayout() error = %v", err)
			}
			err = l.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLayout_DependenciesInstalled(t *testing.T) {
	root := t.TempDir()
	l, err := NewLayout(root, "package.json", "node_modules")
	if err != nil {
		t.Fatalf("NewLayout() error = %v", err)
	}

	if l.DependenciesInstalled() {
		t.Error("DependenciesInstalled() = true with no node_modules")
	}

	// A file with the right name does not count.
	writeFile(t, filepath.Join(root, "node_modules"), "")
	if l.DependenciesInstalled() {
		t.Error("DependenciesInstalled() = true for a plain file")
	}

	os.Remove(filepath.Join(root, "node_modules")) //nolint:errcheck
	if err := os.Mkdir(filepath.Join(root, "node_modules"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if !l.DependenciesInstalled() {
		t.Error("DependenciesInstalled() = false with node_modules present")
	}
}

func TestLayout_RootIsAbsolute(t *testing.T) {
	l, err := NewLayout("web-app", "", "")
	if err != nil {
		t.Fatalf("NewLayout() error = %v", err)
	}
	if !filepath.IsAbs(l.Root()) {
		t.Errorf("Root() = %q, want absolute path", l.Root())
	}
	if filepath.Base(l.ManifestPath()) != "package.json" {
		t.Errorf("ManifestPath() = %q", l.ManifestPath())
	}
	if filepath.Base(l.DependencyPath()) != "node_modules" {
		t.Errorf("DependencyPath() = %q", l.DependencyPath())
	}
}

func TestLayout_Entry(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), `{"name":"photolive","main":"app.js"}`)

	l, err := NewLayout(root, "", "")
	if err != nil {
		t.Fatalf("NewLayout() error = %v", err)
	}

	if got, err := l.Entry(""); err != nil || got != "app.js" {
		t.Errorf("Entry(\"\") = %q, %v, want app.js", got, err)
	}
	if got, err := l.Entry("custom.js"); err != nil || got != "custom.js" {
		t.Errorf("Entry(override) = %q, %v, want custom.js", got, err)
	}
}
