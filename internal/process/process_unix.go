//go:build !windows

package process

import (
	"errors"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// Isolate starts cmd in its own process group and replaces its context
// cancellation hook so that the entire group is killed, not only the direct
// child. Call before cmd.Start.
func Isolate(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true

	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return KillGroup(cmd.Process.Pid)
	}
}

// KillGroup sends SIGKILL to the process group led by pid.
// A group that has already exited is not an error.
func KillGroup(pid int) error {
	if pid <= 0 {
		// -0 would signal our own group.
		return nil
	}
	err := unix.Kill(-pid, unix.SIGKILL)
	if errors.Is(err, unix.ESRCH) {
		return nil
	}
	return err
}
