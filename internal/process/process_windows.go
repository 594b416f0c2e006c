//go:build windows

package process

import (
	"os/exec"
	"strconv"
)

// Isolate replaces cmd's cancellation hook with a tree kill.
func Isolate(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return KillGroup(cmd.Process.Pid)
	}
}

// KillGroup kills a process and all its children using taskkill.
// /F = force kill, /T = terminate child processes (tree kill).
func KillGroup(pid int) error {
	if pid <= 0 {
		return nil
	}
	// #nosec G204 -- pid is an integer we started
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run()
	return nil
}
