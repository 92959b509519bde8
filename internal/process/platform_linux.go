//go:build linux

package process

import (
	"errors"
	"syscall"

	"golang.org/x/sys/unix"
)

// sysProcAttr puts the child in its own process group and asks the kernel to
// send it SIGTERM if the spawning thread dies.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGTERM,
	}
}

// settle blocks until the group leader has exited, leaving it unreaped, and
// kills whatever it left behind in its process group. The zombie leader keeps
// the group ID reserved, so the signal cannot reach a recycled group.
func (h *Handle) settle() {
	var info unix.Siginfo
	for {
		err := unix.Waitid(unix.P_PID, h.pid, &info, unix.WEXITED|unix.WNOWAIT, nil)
		if !errors.Is(err, unix.EINTR) {
			break
		}
	}
	_ = signalGroup(h.pid, unix.SIGKILL)
}

// sweep is a no-op; settle already cleared the group before the reap.
func (h *Handle) sweep() {}
