// Package lockfile serializes writers of a shared file with a PID-stamped
// sidecar lock.
//
// A lock for /path/to/file is the file /path/to/file.lock, created with
// O_CREATE|O_EXCL and containing the holder's PID in decimal. Exclusive
// creation makes acquisition atomic on every filesystem that honors
// O_EXCL; no flock or fcntl state is involved, so locks survive across
// NFS and container boundaries exactly as well as the file itself does.
//
// Contenders retry with exponential backoff and jitter. Before backing
// off, a contender inspects the existing lock: a lock whose content is
// not a decimal PID, or whose recorded PID no longer maps to a live
// process, is stale and is deleted so the contender can retry
// immediately. A lock that cannot be read at all is assumed valid.
//
// Typical use:
//
//	err := lockfile.WithLock(secretsPath, func() error {
//		// read, modify, write secretsPath
//		return nil
//	})
package lockfile
