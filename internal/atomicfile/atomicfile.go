package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	serrors "github.com/sealenv/sealenv/internal/errors"
	"github.com/sealenv/sealenv/internal/utils"
)

// WriteFile replaces the content of path atomically. The data is written
// to a uniquely named temp file in the same directory, fsynced, chmodded
// to perm, and renamed over path. Readers see either the old content or
// the new content, never a partial write. Symlink targets are refused so
// a planted link cannot redirect the write elsewhere.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	if err := utils.RejectSymlink(path); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d-%s", base, time.Now().UnixNano(), os.Getpid(), uuid.New().String()))

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return &serrors.FileError{Message: fmt.Sprintf("failed to create temp file for %s", path), Err: err}
	}
	registerTemp(tmp)

	discard := func(stage string, cause error) error {
		_ = f.Close()
		_ = os.Remove(tmp)
		unregisterTemp(tmp)
		return &serrors.FileError{Message: fmt.Sprintf("failed to %s temp file for %s", stage, path), Err: cause}
	}

	if _, err := f.Write(data); err != nil {
		return discard("write", err)
	}
	if err := f.Sync(); err != nil {
		return discard("sync", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		unregisterTemp(tmp)
		return &serrors.FileError{Message: fmt.Sprintf("failed to close temp file for %s", path), Err: err}
	}

	// O_CREATE perms are masked by the umask; chmod pins the exact mode.
	if err := os.Chmod(tmp, perm); err != nil {
		_ = os.Remove(tmp)
		unregisterTemp(tmp)
		return &serrors.FileError{Message: fmt.Sprintf("failed to chmod temp file for %s", path), Err: err}
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		unregisterTemp(tmp)
		return &serrors.FileError{Message: fmt.Sprintf("failed to replace %s", path), Err: err}
	}

	unregisterTemp(tmp)
	return nil
}
