//go:build unix

package process

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// platformState holds nothing on unix; the process group is the only handle.
type platformState struct{}

func attach(*os.Process) (platformState, error) {
	return platformState{}, nil
}

func releasePlatform(*platformState) error {
	return nil
}

// terminate sends SIGTERM to the child's process group.
func (h *Handle) terminate() error {
	return signalGroup(h.pid, unix.SIGTERM)
}

// kill sends SIGKILL to the child's process group.
func (h *Handle) kill() error {
	return signalGroup(h.pid, unix.SIGKILL)
}

// signalGroup signals every process in the group led by pid.
// Use negative PID to signal the process group (created via Setpgid).
func signalGroup(pid int, sig unix.Signal) error {
	err := unix.Kill(-pid, sig)
	if errors.Is(err, unix.ESRCH) {
		// Group already gone
		return nil
	}
	return err
}
