package daemon

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueryStatusNoPIDFile(t *testing.T) {
	metaDir := t.TempDir()

	status, err := QueryStatus(metaDir, "anything")
	require.NoError(t, err)
	require.False(t, status.Running)
}

func TestQueryStatusStalePIDFile(t *testing.T) {
	metaDir := t.TempDir()
	require.NoError(t, writePIDFile(PIDPath(metaDir), 99999999))

	status, err := QueryStatus(metaDir, "anything")
	require.NoError(t, err)
	require.False(t, status.Running)
	require.Equal(t, 99999999, status.PID)
}

func TestStartAndStopLifecycle(t *testing.T) {
	sleep, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("sleep binary not available")
	}

	metaDir := t.TempDir()
	repoPath := t.TempDir()

	pid, err := Start(metaDir, repoPath, sleep)
	require.NoError(t, err)
	require.Greater(t, pid, 0)

	_, err = os.Stat(PIDPath(metaDir))
	require.NoError(t, err)

	status, err := QueryStatus(metaDir, sleep)
	require.NoError(t, err)
	require.True(t, status.Running)
	require.Equal(t, pid, status.PID)

	// Starting again while still running is refused.
	_, err = Start(metaDir, repoPath, sleep)
	require.Error(t, err)

	require.NoError(t, Stop(metaDir, sleep))

	_, err = os.Stat(PIDPath(metaDir))
	require.True(t, os.IsNotExist(err))

	status, err = QueryStatus(metaDir, sleep)
	require.NoError(t, err)
	require.False(t, status.Running)
}

func TestStopWithNoDaemonRunningIsANoOp(t *testing.T) {
	metaDir := t.TempDir()
	require.NoError(t, Stop(metaDir, "anything"))
}

func TestReadPIDFileRejectsMalformedContent(t *testing.T) {
	metaDir := t.TempDir()
	require.NoError(t, os.WriteFile(PIDPath(metaDir), []byte("not-a-pid\n"), 0o644))

	_, err := readPIDFile(PIDPath(metaDir))
	require.Error(t, err)
}

func TestNewLoggerWritesToRotatedLogFile(t *testing.T) {
	metaDir := t.TempDir()
	logger := NewLogger(metaDir)
	logger.Info("daemon started", "pid", os.Getpid())

	data, err := os.ReadFile(LogPath(metaDir))
	require.NoError(t, err)
	require.Contains(t, string(data), "daemon started")
}

func TestPIDAndLogPathJoinMetaDir(t *testing.T) {
	require.Equal(t, filepath.Join("meta", "daemon.pid"), PIDPath("meta"))
	require.Equal(t, filepath.Join("meta", "daemon.log"), LogPath("meta"))
}

func TestRunForegroundStopsOnContextCancel(t *testing.T) {
	started := make(chan struct{})
	stopped := make(chan struct{})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := RunForeground(ctx,
		func() error { close(started); return nil },
		func() { close(stopped) },
	)
	require.NoError(t, err)

	select {
	case <-started:
	default:
		t.Fatal("startWatcher was never called")
	}
	select {
	case <-stopped:
	default:
		t.Fatal("stopWatcher was never called")
	}
}
