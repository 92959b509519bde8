//go:build unix && !linux

package process

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// sysProcAttr puts the child in its own process group.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// settle is a no-op; these platforms have no portable wait that leaves the
// leader unreaped.
func (h *Handle) settle() {}

// sweep kills anything the reaped child left behind in its process group.
// If the group is already empty and its ID has been recycled by a new group
// leader in the meantime, the signal reaches that group instead. The window
// is the time between the reap and this call.
func (h *Handle) sweep() {
	_ = signalGroup(h.pid, unix.SIGKILL)
}
