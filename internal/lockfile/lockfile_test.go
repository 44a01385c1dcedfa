package lockfile

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	serrors "github.com/sealenv/sealenv/internal/errors"
)

// fastRetry keeps contended tests quick.
func fastRetry() RetryConfig {
	return RetryConfig{
		MaxRetries: 50,
		BaseDelay:  time.Millisecond,
		Multiplier: 1.2,
		MaxJitter:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
	}
}

func TestAcquire(t *testing.T) {
	t.Run("CreatesLockFileWithOwnPID", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "secrets.env")

		lock, err := Acquire(target)
		if err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		defer lock.Release()

		data, err := os.ReadFile(target + Suffix)
		if err != nil {
			t.Fatalf("failed to read lock file: %v", err)
		}
		if got := strings.TrimSpace(string(data)); got != strconv.Itoa(os.Getpid()) {
			t.Errorf("lock file recorded PID %q, want %d", got, os.Getpid())
		}
	})

	t.Run("ReleaseRemovesLockFile", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "secrets.env")

		lock, err := Acquire(target)
		if err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		if err := lock.Release(); err != nil {
			t.Fatalf("Release failed: %v", err)
		}

		if _, err := os.Stat(target + Suffix); !os.IsNotExist(err) {
			t.Errorf("lock file still exists after Release")
		}
	})

	t.Run("ReleaseTwiceIsNoOp", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "secrets.env")

		lock, err := Acquire(target)
		if err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		if err := lock.Release(); err != nil {
			t.Fatalf("first Release failed: %v", err)
		}
		if err := lock.Release(); err != nil {
			t.Errorf("second Release failed: %v", err)
		}
	})

	t.Run("FailsWhenDirectoryMissing", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "no-such-dir", "secrets.env")

		_, err := AcquireWithRetry(target, fastRetry())
		if err == nil {
			t.Fatal("expected error for missing directory")
		}
		var fileErr *serrors.FileError
		if !errors.As(err, &fileErr) {
			t.Errorf("expected FileError, got %T", err)
		}
	})
}

func TestStaleLocks(t *testing.T) {
	t.Run("ReclaimsGarbageContent", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "secrets.env")
		writeLock(t, target, "not-a-pid")

		lock, err := AcquireWithRetry(target, fastRetry())
		if err != nil {
			t.Fatalf("Acquire over garbage lock failed: %v", err)
		}
		defer lock.Release()
	})

	t.Run("ReclaimsZeroPID", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "secrets.env")
		writeLock(t, target, "0")

		lock, err := AcquireWithRetry(target, fastRetry())
		if err != nil {
			t.Fatalf("Acquire over zero-PID lock failed: %v", err)
		}
		defer lock.Release()
	})

	t.Run("ReclaimsDeadPID", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("dead PID reclamation is unix-only")
		}

		target := filepath.Join(t.TempDir(), "secrets.env")
		writeLock(t, target, strconv.Itoa(exitedPID(t)))

		lock, err := AcquireWithRetry(target, fastRetry())
		if err != nil {
			t.Fatalf("Acquire over dead-PID lock failed: %v", err)
		}
		defer lock.Release()
	})
}

func TestContention(t *testing.T) {
	t.Run("TimesOutAgainstLiveHolder", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "secrets.env")
		// Our own PID is alive for the duration of the test.
		writeLock(t, target, strconv.Itoa(os.Getpid()))

		cfg := fastRetry()
		cfg.MaxRetries = 3

		_, err := AcquireWithRetry(target, cfg)
		if err == nil {
			t.Fatal("expected timeout against live holder")
		}
		var fileErr *serrors.FileError
		if !errors.As(err, &fileErr) {
			t.Fatalf("expected FileError, got %T", err)
		}
		want := "Timeout waiting for lock on " + target
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not contain %q", err.Error(), want)
		}
	})

	t.Run("WithLockReleasesOnSuccess", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "secrets.env")

		ran := false
		err := WithLock(target, func() error {
			ran = true
			return nil
		})
		if err != nil {
			t.Fatalf("WithLock failed: %v", err)
		}
		if !ran {
			t.Error("WithLock did not run the callback")
		}
		if _, err := os.Stat(target + Suffix); !os.IsNotExist(err) {
			t.Error("lock file still exists after WithLock")
		}
	})

	t.Run("WithLockReleasesOnError", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "secrets.env")

		wantErr := errors.New("callback failed")
		err := WithLock(target, func() error {
			return wantErr
		})
		if !errors.Is(err, wantErr) {
			t.Fatalf("WithLock returned %v, want callback error", err)
		}
		if _, err := os.Stat(target + Suffix); !os.IsNotExist(err) {
			t.Error("lock file still exists after failed callback")
		}
	})

	t.Run("MutualExclusion", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "secrets.env")

		cfg := RetryConfig{
			MaxRetries: 2000,
			BaseDelay:  time.Millisecond,
			Multiplier: 1.1,
			MaxJitter:  time.Millisecond,
			MaxDelay:   3 * time.Millisecond,
		}

		var inCritical, violations int32
		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()

				lock, err := AcquireWithRetry(target, cfg)
				if err != nil {
					t.Errorf("contender failed to acquire: %v", err)
					return
				}
				if atomic.AddInt32(&inCritical, 1) > 1 {
					atomic.AddInt32(&violations, 1)
				}
				time.Sleep(2 * time.Millisecond)
				atomic.AddInt32(&inCritical, -1)
				lock.Release()
			}()
		}
		wg.Wait()

		if violations != 0 {
			t.Errorf("observed %d mutual exclusion violations", violations)
		}
	})
}

func TestInspect(t *testing.T) {
	t.Run("ReportsNoLock", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "secrets.env")

		status, err := Inspect(target)
		if err != nil {
			t.Fatalf("Inspect failed: %v", err)
		}
		if status.Held {
			t.Error("reported held lock for bare path")
		}
	})

	t.Run("ReportsLiveHolder", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "secrets.env")
		writeLock(t, target, strconv.Itoa(os.Getpid()))

		status, err := Inspect(target)
		if err != nil {
			t.Fatalf("Inspect failed: %v", err)
		}
		if !status.Held || status.Stale {
			t.Errorf("got status %+v, want held live lock", status)
		}
		if status.PID != os.Getpid() {
			t.Errorf("got PID %d, want %d", status.PID, os.Getpid())
		}
	})

	t.Run("ReportsStaleGarbage", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "secrets.env")
		writeLock(t, target, "garbage")

		status, err := Inspect(target)
		if err != nil {
			t.Fatalf("Inspect failed: %v", err)
		}
		if !status.Held || !status.Stale {
			t.Errorf("got status %+v, want held stale lock", status)
		}
	})
}

// writeLock plants a lock sidecar with the given content.
func writeLock(t *testing.T, target, content string) {
	t.Helper()
	if err := os.WriteFile(target+Suffix, []byte(content), 0644); err != nil {
		t.Fatalf("failed to plant lock file: %v", err)
	}
}

// exitedPID runs a short-lived process and returns its PID after it has
// been reaped, yielding a PID that is very unlikely to be live.
func exitedPID(t *testing.T) int {
	t.Helper()
	cmd := exec.Command("true")
	if err := cmd.Run(); err != nil {
		t.Skipf("could not run helper process: %v", err)
	}
	return cmd.Process.Pid
}
