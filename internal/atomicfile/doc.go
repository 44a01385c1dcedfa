// Package atomicfile writes files so readers never observe a partial
// update.
//
// WriteFile stages the new content in a uniquely named temp file in the
// target's own directory (rename is only atomic within a filesystem),
// fsyncs it, pins its permissions, and renames it over the target. A
// crash at any point leaves either the old file or the new file on
// disk, plus at worst an orphaned temp file.
//
// Temp files in flight are tracked in a package registry. The first
// write installs a signal handler that removes registered temps on
// SIGINT, SIGTERM, and SIGHUP before re-raising the signal.
package atomicfile
