//go:build windows

package process

import (
	"fmt"
	"os"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

// platformState holds the job object the child is assigned to.
type platformState struct {
	job windows.Handle
}

// sysProcAttr hides the console window and detaches the child from the
// host's console process group.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: windows.CREATE_NO_WINDOW | windows.CREATE_NEW_PROCESS_GROUP,
	}
}

// attach assigns the child to a job object that kills it when the last job
// handle closes, including when the host exits abruptly.
func attach(p *os.Process) (platformState, error) {
	job, err := windows.CreateJobObject(nil, nil)
	if err != nil {
		return platformState{}, fmt.Errorf("creating job object: %w", err)
	}

	info := windows.JOBOBJECT_EXTENDED_LIMIT_INFORMATION{
		BasicLimitInformation: windows.JOBOBJECT_BASIC_LIMIT_INFORMATION{
			LimitFlags: windows.JOB_OBJECT_LIMIT_KILL_ON_JOB_CLOSE,
		},
	}
	if _, err := windows.SetInformationJobObject(
		job,
		windows.JobObjectExtendedLimitInformation,
		uintptr(unsafe.Pointer(&info)),
		uint32(unsafe.Sizeof(info)),
	); err != nil {
		windows.CloseHandle(job) //nolint:errcheck // best-effort cleanup
		return platformState{}, fmt.Errorf("configuring job object: %w", err)
	}

	proc, err := windows.OpenProcess(windows.PROCESS_SET_QUOTA|windows.PROCESS_TERMINATE, false, uint32(p.Pid))
	if err != nil {
		windows.CloseHandle(job) //nolint:errcheck // best-effort cleanup
		return platformState{}, fmt.Errorf("opening process %d: %w", p.Pid, err)
	}
	defer windows.CloseHandle(proc) //nolint:errcheck // handle only needed for assignment

	if err := windows.AssignProcessToJobObject(job, proc); err != nil {
		windows.CloseHandle(job) //nolint:errcheck // best-effort cleanup
		return platformState{}, fmt.Errorf("assigning process %d to job: %w", p.Pid, err)
	}

	return platformState{job: job}, nil
}

func releasePlatform(s *platformState) error {
	if s.job == 0 {
		return nil
	}
	err := windows.CloseHandle(s.job)
	s.job = 0
	return err
}

// terminate kills the child. Windows has no signal a console-less child
// can handle, so graceful stop is not available.
func (h *Handle) terminate() error {
	return h.kill()
}

// kill terminates every process in the job, or just the child when no job
// could be attached.
func (h *Handle) kill() error {
	if h.platform.job != 0 {
		return windows.TerminateJobObject(h.platform.job, 1)
	}
	return h.cmd.Process.Kill()
}

// settle is a no-op; the job object owns the child's descendants.
func (h *Handle) settle() {}

// sweep is a no-op; closing the job in Release reaps leftovers.
func (h *Handle) sweep() {}
