package process

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// TestAwaitExit - Observe exit without reaping
// ---------------------------------------------------------------------------

func TestAwaitExit_LeavesLeaderUnreaped(t *testing.T) {
	t.Parallel()

	marker := filepath.Join(t.TempDir(), "grandchild-survived")

	script := `(sleep 1; touch "$1") >/dev/null 2>&1 & exit 0`
	cmd := exec.Command("/bin/sh", "-c", script, "_", marker)
	Isolate(cmd)
	if err := cmd.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if !AwaitExit(cmd.Process.Pid) {
		t.Fatal("AwaitExit() = false, want true")
	}
	if err := KillGroup(cmd.Process.Pid); err != nil {
		t.Errorf("KillGroup() error = %v", err)
	}

	// Wait only succeeds if AwaitExit left the leader for it to collect.
	if err := cmd.Wait(); err != nil {
		t.Fatalf("Wait() error = %v, want clean exit", err)
	}

	time.Sleep(1500 * time.Millisecond)
	if _, err := os.Stat(marker); err == nil {
		t.Error("grandchild survived the group kill")
	}
}

func TestAwaitExit_InvalidPID(t *testing.T) {
	t.Parallel()

	if AwaitExit(0) {
		t.Error("AwaitExit(0) = true, want false")
	}
}
