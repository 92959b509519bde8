package supervisor

import "errors"

// Start failures. Every error returned by Start wraps exactly one of these
// (or a context error), and callers match them with errors.Is.
var (
	// ErrEnvironmentMissing indicates the web app directory or its manifest is absent.
	ErrEnvironmentMissing = errors.New("web app environment missing")

	// ErrProvisioningFailed indicates the dependency install ran and failed.
	ErrProvisioningFailed = errors.New("dependency provisioning failed")

	// ErrRuntimeNotFound indicates no usable JavaScript runtime was found.
	// It is also wrapped alongside ErrSpawnFailed when the last launch failed
	// because the runtime executable does not exist.
	ErrRuntimeNotFound = errors.New("runtime not found")

	// ErrNoPortAvailable indicates every candidate port was tried and the
	// child exited within the observation window each time.
	ErrNoPortAvailable = errors.New("no port available")

	// ErrSpawnFailed indicates the operating system refused to start the
	// child on the last candidate port.
	ErrSpawnFailed = errors.New("spawn failed")
)

// errLeaseHeld indicates another supervisor holds the lease for a port.
var errLeaseHeld = errors.New("port lease held by another supervisor")
