package process

import (
	"errors"

	"golang.org/x/sys/unix"
)

// AwaitExit blocks until the process pid exits but leaves it unreaped, so
// pid keeps naming its process group until exec.Cmd.Wait collects it.
// It reports false if the exit could not be observed.
func AwaitExit(pid int) bool {
	if pid <= 0 {
		return false
	}
	var info unix.Siginfo
	for {
		err := unix.Waitid(unix.P_PID, pid, &info, unix.WEXITED|unix.WNOWAIT, nil)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		return err == nil
	}
}
