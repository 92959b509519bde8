package webapp

import (
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"
)

// DefaultEntry is used when package.json declares no entry script.
const DefaultEntry = "server.js"

// Manifest holds the package.json fields the host cares about.
type Manifest struct {
	Name        string
	Version     string
	Main        string
	StartScript string
}

// ReadManifest reads and parses package.json at path.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestMissing, err)
	}
	return ParseManifest(data)
}

// ParseManifest extracts fields from package.json contents.
func ParseManifest(data []byte) (*Manifest, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidManifest
	}
	return &Manifest{
		Name:        gjson.GetBytes(data, "name").String(),
		Version:     gjson.GetBytes(data, "version").String(),
		Main:        gjson.GetBytes(data, "main").String(),
		StartScript: gjson.GetBytes(data, "scripts.start").String(),
	}, nil
}

// EntryScript returns the script to hand to node.
//
// A "start" script of the form "node <file> ..." wins over "main", matching
// what "npm start" would run. Anything else falls back to server.js.
func (m *Manifest) EntryScript() string {
	if fields := strings.Fields(m.StartScript); len(fields) >= 2 && fields[0] == "node" {
		return fields[1]
	}
	if m.Main != "" {
		return m.Main
	}
	return DefaultEntry
}
