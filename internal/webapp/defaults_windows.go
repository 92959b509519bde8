//go:build windows

package webapp

// Platform defaults for locating node and installing dependencies.
var (
	DefaultCandidates = []string{
		`C:\Program Files\nodejs\node.exe`,
		`C:\Program Files (x86)\nodejs\node.exe`,
	}
	DefaultFallback = "node.exe"
)

// DefaultInstallCommand is the npm shim; CreateProcess cannot run "npm" directly.
const DefaultInstallCommand = "npm.cmd"
