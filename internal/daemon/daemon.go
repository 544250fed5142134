// Package daemon implements ChronoLog's watcher daemon supervisor (C8):
// start/stop/status lifecycle management for the out-of-process watcher,
// built on the PID-file + liveness-check primitives in internal/procutil.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/chronolog/chronolog/internal/procutil"
)

// PIDFileName and LogFileName live inside the repository's metadata
// directory alongside history.db.
const (
	PIDFileName = "daemon.pid"
	LogFileName = "daemon.log"
)

// terminateTimeout is how long Stop waits for a SIGTERM'd daemon to exit
// before escalating to SIGKILL.
const terminateTimeout = 5 * time.Second

// Status describes whether a repository's daemon is running.
type Status struct {
	Running bool
	PID     int
}

// PIDPath and LogPath return the PID file / log file paths for a
// repository's metadata directory.
func PIDPath(metaDir string) string { return filepath.Join(metaDir, PIDFileName) }
func LogPath(metaDir string) string { return filepath.Join(metaDir, LogFileName) }

// Start spawns a detached watcher daemon process for the repository
// rooted at repoPath, re-execing executable as
// "chronolog daemon start --repo <repoPath> --foreground", and records
// its PID. It refuses to start a second daemon if one is already alive
// for this repository.
func Start(metaDir, repoPath, executable string) (int, error) {
	if status, err := QueryStatus(metaDir, executable); err == nil && status.Running {
		return status.PID, fmt.Errorf("daemon already running with pid %d", status.PID)
	}

	pid, err := procutil.SpawnDetached(executable, []string{"daemon", "start", "--repo", repoPath, "--foreground"}, LogPath(metaDir))
	if err != nil {
		return 0, err
	}

	if err := writePIDFile(PIDPath(metaDir), pid); err != nil {
		_ = procutil.Terminate(pid, terminateTimeout)
		return 0, err
	}

	return pid, nil
}

// Stop terminates the daemon recorded for metaDir, if any, and removes
// the PID file.
func Stop(metaDir, executable string) error {
	status, err := QueryStatus(metaDir, executable)
	if err != nil {
		return err
	}
	if !status.Running {
		_ = os.Remove(PIDPath(metaDir))
		return nil
	}

	if err := procutil.Terminate(status.PID, terminateTimeout); err != nil {
		return fmt.Errorf("terminate daemon pid %d: %w", status.PID, err)
	}
	return os.Remove(PIDPath(metaDir))
}

// QueryStatus reports whether the daemon recorded in metaDir's PID file
// is alive and still running executable, guarding against PID reuse.
func QueryStatus(metaDir, executable string) (Status, error) {
	pid, err := readPIDFile(PIDPath(metaDir))
	if err != nil {
		if os.IsNotExist(err) {
			return Status{Running: false}, nil
		}
		return Status{}, err
	}

	if !procutil.IsAliveAndMine(pid, executable) {
		return Status{Running: false, PID: pid}, nil
	}
	return Status{Running: true, PID: pid}, nil
}

func writePIDFile(path string, pid int) error {
	return os.WriteFile(path, []byte(strconv.Itoa(pid)), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("malformed pid file %s: %w", path, err)
	}
	return pid, nil
}

// NewLogger builds the rotated daemon.log writer + slog.Logger pair the
// daemon's foreground process logs through, once it has detached.
func NewLogger(metaDir string) *slog.Logger {
	rotator := &lumberjack.Logger{
		Filename:   LogPath(metaDir),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	return slog.New(slog.NewTextHandler(rotator, nil))
}

// RunForeground blocks until ctx is canceled or a SIGTERM/SIGINT arrives,
// running startWatcher first and stopWatcher on shutdown. This is the
// body of the "chronolog daemon start --foreground" command the
// detached process execs into.
func RunForeground(ctx context.Context, startWatcher func() error, stopWatcher func()) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := startWatcher(); err != nil {
		return err
	}

	<-ctx.Done()
	stopWatcher()
	return nil
}
