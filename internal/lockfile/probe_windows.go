//go:build windows

package lockfile

// pidAlive always reports true on Windows. Signal 0 probing has no
// direct equivalent there, and opening the process handle can fail for
// reasons other than exit, so a parsable PID is assumed alive. Locks
// with unparsable content are still reclaimed; locks from crashed
// owners must be removed by hand or time out.
func pidAlive(pid int) bool {
	return true
}
