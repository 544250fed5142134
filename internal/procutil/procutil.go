// Package procutil provides the cross-platform process primitives
// ChronoLog's daemon supervisor (C8) needs: spawn a detached child,
// check whether a PID is alive and still the process we started (not a
// reused PID), and terminate it. Per spec.md §9's design note, the
// platform-specific pieces live behind this one small interface rather
// than scattered through internal/daemon.
package procutil

import "time"

// SpawnDetached starts executable with args as a child process detached
// from the current process group (so it survives the parent exiting) and
// returns its PID. Stdout/stderr are redirected to logPath.
func SpawnDetached(executable string, args []string, logPath string) (int, error) {
	return spawnDetached(executable, args, logPath)
}

// IsAliveAndMine reports whether pid refers to a running process whose
// command line still names executable. This guards against the classic
// PID-reuse bug: a PID file naming a long-dead daemon whose PID has since
// been recycled by an unrelated process. The command line is read from
// /proc, so it is only compared on Linux; on other POSIX systems and on
// Windows only the process's existence is checked.
func IsAliveAndMine(pid int, executable string) bool {
	return isAliveAndMine(pid, executable)
}

// Terminate asks pid to exit gracefully (SIGTERM), waits up to timeout
// for it to disappear, then force-kills it. On Windows the process is
// killed at once, with no graceful request and no wait.
func Terminate(pid int, timeout time.Duration) error {
	return terminate(pid, timeout)
}
