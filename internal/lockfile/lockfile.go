package lockfile

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	serrors "github.com/sealenv/sealenv/internal/errors"
)

// Suffix is appended to a target path to form its lock sidecar.
const Suffix = ".lock"

// RetryConfig tunes the acquisition backoff loop.
type RetryConfig struct {
	// MaxRetries bounds the number of acquisition attempts.
	MaxRetries int

	// BaseDelay is the first backoff wait.
	BaseDelay time.Duration

	// Multiplier grows the delay after each contended attempt.
	Multiplier float64

	// MaxJitter is the upper bound of random jitter added to each wait.
	MaxJitter time.Duration

	// MaxDelay caps a single wait.
	MaxDelay time.Duration
}

// DefaultRetryConfig returns the production backoff: up to 500 attempts
// starting at 10ms, growing by 1.5x with up to 50ms of jitter, capped at
// 5s per wait.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 500,
		BaseDelay:  10 * time.Millisecond,
		Multiplier: 1.5,
		MaxJitter:  50 * time.Millisecond,
		MaxDelay:   5000 * time.Millisecond,
	}
}

// Lock is a held critical section over a target path. Release must be
// called on every exit path; WithLock does this for you.
type Lock struct {
	lockPath string
	released bool
}

// holderState classifies the owner of an existing lock file.
type holderState int

const (
	// holderAlive: the owning process exists. Back off.
	holderAlive holderState = iota

	// holderStale: the owner is dead or the content is not a PID. Safe to
	// delete and retry immediately.
	holderStale

	// holderUnknown: the lock cannot be inspected (permissions). Assume a
	// valid lock is held; never delete a lock you cannot read.
	holderUnknown

	// holderGone: the lock vanished between the failed create and the
	// inspection. Retry immediately.
	holderGone
)

// Acquire takes the lock for path using the default retry configuration.
func Acquire(path string) (*Lock, error) {
	return AcquireWithRetry(path, DefaultRetryConfig())
}

// AcquireWithRetry takes the lock for path, retrying with exponential
// backoff while a live owner holds it. Stale locks (dead owner PID, or
// content that is not a decimal PID) are deleted and retried immediately.
// Exhausting the retry budget fails with a FileError.
func AcquireWithRetry(path string, cfg RetryConfig) (*Lock, error) {
	lockPath := path + Suffix
	delay := cfg.BaseDelay

	for attempt := 0; attempt < cfg.MaxRetries; attempt++ {
		acquired, err := tryCreate(lockPath)
		if err != nil {
			return nil, err
		}
		if acquired {
			return &Lock{lockPath: lockPath}, nil
		}

		switch inspectHolder(lockPath) {
		case holderStale:
			// Best-effort removal; a concurrent contender may win the race
			// to delete, which is fine.
			_ = os.Remove(lockPath)
			continue
		case holderGone:
			continue
		case holderAlive, holderUnknown:
			wait := delay
			if cfg.MaxJitter > 0 {
				wait += time.Duration(rand.Int63n(int64(cfg.MaxJitter)))
			}
			if wait > cfg.MaxDelay {
				wait = cfg.MaxDelay
			}
			time.Sleep(wait)

			delay = time.Duration(float64(delay) * cfg.Multiplier)
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}
	}

	return nil, &serrors.FileError{Message: fmt.Sprintf("Timeout waiting for lock on %s", path)}
}

// tryCreate attempts the exclusive creation of the lock file containing
// this process's PID. Returns false without error when another holder
// exists. Creation failures other than "already exists" are fatal: they
// indicate a missing directory or a permission problem retrying cannot fix.
func tryCreate(lockPath string) (bool, error) {
	f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, &serrors.FileError{Message: fmt.Sprintf("failed to create lock file %s", lockPath), Err: err}
	}

	_, writeErr := f.WriteString(strconv.Itoa(os.Getpid()))
	closeErr := f.Close()
	if writeErr != nil || closeErr != nil {
		// A lock file without our PID would look stale to everyone;
		// remove it rather than hold a corrupt claim.
		_ = os.Remove(lockPath)
		err := writeErr
		if err == nil {
			err = closeErr
		}
		return false, &serrors.FileError{Message: fmt.Sprintf("failed to write lock file %s", lockPath), Err: err}
	}

	return true, nil
}

// inspectHolder reads the current lock file and classifies its owner.
func inspectHolder(lockPath string) holderState {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		if os.IsNotExist(err) {
			return holderGone
		}
		// Unreadable (typically permissions): assume a valid lock is held.
		return holderUnknown
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		// Not a decimal PID. pid 0 and negatives address process groups,
		// which no cooperating writer ever records.
		return holderStale
	}

	if pidAlive(pid) {
		return holderAlive
	}
	return holderStale
}

// Release deletes the lock file. Releasing twice is a no-op.
func (l *Lock) Release() error {
	if l.released {
		return nil
	}
	l.released = true

	if err := os.Remove(l.lockPath); err != nil && !os.IsNotExist(err) {
		return &serrors.FileError{Message: fmt.Sprintf("failed to remove lock file %s", l.lockPath), Err: err}
	}
	return nil
}

// WithLock runs fn while holding the lock for path, releasing on every
// exit path.
func WithLock(path string, fn func() error) error {
	lock, err := Acquire(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = lock.Release()
	}()

	return fn()
}

// Status describes a lock sidecar for diagnostics.
type Status struct {
	// Held reports whether a lock file exists.
	Held bool

	// PID is the recorded owner, 0 when unparsable.
	PID int

	// Stale reports whether the recorded owner is dead or unparsable.
	Stale bool
}

// Inspect reports the state of the lock sidecar for path without taking
// or modifying it.
func Inspect(path string) (Status, error) {
	lockPath := path + Suffix

	data, err := os.ReadFile(lockPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Status{}, nil
		}
		return Status{}, &serrors.FileError{Message: fmt.Sprintf("failed to read lock file %s", lockPath), Err: err}
	}

	status := Status{Held: true}
	pid, parseErr := strconv.Atoi(strings.TrimSpace(string(data)))
	if parseErr != nil || pid <= 0 {
		status.Stale = true
		return status, nil
	}

	status.PID = pid
	status.Stale = !pidAlive(pid)
	return status, nil
}
