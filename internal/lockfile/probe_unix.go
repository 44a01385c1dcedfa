//go:build unix

package lockfile

import (
	"errors"

	"golang.org/x/sys/unix"
)

// pidAlive probes the process with signal 0. ESRCH means no such
// process; EPERM means the process exists but belongs to another user,
// which still counts as alive. Any other outcome is treated as alive so
// a lock is never stolen on an ambiguous probe.
func pidAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	if err == nil {
		return true
	}
	if errors.Is(err, unix.ESRCH) {
		return false
	}
	return true
}
