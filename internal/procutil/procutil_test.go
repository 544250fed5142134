//go:build !windows

package procutil

import (
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSpawnDetachedAndTerminate(t *testing.T) {
	sleep, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("sleep binary not available")
	}

	logPath := t.TempDir() + "/daemon.log"
	pid, err := SpawnDetached(sleep, []string{"30"}, logPath)
	require.NoError(t, err)
	require.Greater(t, pid, 0)

	require.True(t, IsAliveAndMine(pid, sleep))

	require.NoError(t, Terminate(pid, 2*time.Second))

	require.Eventually(t, func() bool {
		return !IsAliveAndMine(pid, sleep)
	}, 3*time.Second, 50*time.Millisecond)
}

func TestIsAliveAndMineRejectsDeadPID(t *testing.T) {
	cmd := exec.Command("true")
	require.NoError(t, cmd.Run())

	require.False(t, IsAliveAndMine(99999999, "nonexistent"))
}

func TestIsAliveAndMineCurrentProcess(t *testing.T) {
	exe, err := os.Executable()
	require.NoError(t, err)
	require.True(t, IsAliveAndMine(os.Getpid(), exe))
}
