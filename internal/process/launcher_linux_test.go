//go:build linux

package process

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

// processGone reports whether pid has exited. An unreaped zombie counts as
// gone, since reparented orphans may wait for a non-reaping init.
func processGone(pid int) bool {
	data, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "stat"))
	if err != nil {
		return true
	}
	// The state field follows the parenthesised command name.
	stat := string(data)
	i := strings.LastIndexByte(stat, ')')
	if i < 0 || i+2 >= len(stat) {
		return false
	}
	return stat[i+2] == 'Z'
}

func TestHandle_LeaderExitKillsLeftovers(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "grandchild.pid")
	h := launch(t, shSpec("sleep 30 & echo $! > "+pidFile+"; exit 0"))
	waitDone(t, h)

	data, err := os.ReadFile(pidFile)
	if err != nil {
		t.Fatalf("reading grandchild pid: %v", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		t.Fatalf("parsing grandchild pid %q: %v", data, err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !processGone(pid) {
		if time.Now().After(deadline) {
			t.Fatalf("grandchild %d still running after its group leader exited", pid)
		}
		time.Sleep(20 * time.Millisecond)
	}
}
