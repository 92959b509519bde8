//go:build !windows

package webapp

// Platform defaults for locating node and installing dependencies.
var (
	DefaultCandidates = []string{
		"/usr/bin/node",
		"/usr/local/bin/node",
		"/opt/homebrew/bin/node",
	}
	DefaultFallback = "node"
)

// DefaultInstallCommand is the npm executable name.
const DefaultInstallCommand = "npm"
