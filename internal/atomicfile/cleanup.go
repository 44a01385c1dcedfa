package atomicfile

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Temp files in flight, keyed by path. An interrupted process removes
// these before dying so aborted writes never leave droppings next to
// the files they were replacing.
var (
	tempMu      sync.Mutex
	activeTemps = make(map[string]struct{})
	handlerOnce sync.Once
)

func registerTemp(path string) {
	handlerOnce.Do(installCleanupHandler)

	tempMu.Lock()
	activeTemps[path] = struct{}{}
	tempMu.Unlock()
}

func unregisterTemp(path string) {
	tempMu.Lock()
	delete(activeTemps, path)
	tempMu.Unlock()
}

// cleanupTemps removes every registered temp file.
func cleanupTemps() {
	tempMu.Lock()
	paths := make([]string, 0, len(activeTemps))
	for p := range activeTemps {
		paths = append(paths, p)
	}
	activeTemps = make(map[string]struct{})
	tempMu.Unlock()

	for _, p := range paths {
		_ = os.Remove(p)
	}
}

// installCleanupHandler arranges for temp files to be removed when the
// process is interrupted, then re-raises the signal so the default
// disposition still applies and the exit status reflects the signal.
func installCleanupHandler() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		sig := <-ch
		cleanupTemps()

		signal.Stop(ch)
		if p, err := os.FindProcess(os.Getpid()); err == nil {
			if err := p.Signal(sig); err == nil {
				// The re-raised signal terminates us with the default
				// disposition. Block here rather than racing it.
				select {}
			}
		}
		os.Exit(1)
	}()
}
