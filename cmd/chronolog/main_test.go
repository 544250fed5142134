package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chronolog/chronolog"
)

// run executes the root command tree in-process with args, against
// repoDir, returning combined stdout/stderr.
func run(t *testing.T, repoDir string, args ...string) (string, error) {
	t.Helper()

	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(append([]string{"-C", repoDir}, args...))

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestCLIInitLogShowRoundTrip(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, "init")
	require.NoError(t, err)
	require.DirExists(t, filepath.Join(dir, ".chronolog"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644))

	// The CLI has no "commit" subcommand (commits happen via the
	// watcher); exercise CommitFile through the root package directly
	// to seed history for log/show.
	repo, err := chronolog.Open(dir)
	require.NoError(t, err)
	require.NoError(t, repo.CommitFile("a.txt", []byte("hello")))
	repo.Close()

	out, err := run(t, dir, "log", "a.txt")
	require.NoError(t, err)
	require.Contains(t, out, "revision")

	out, err = run(t, dir, "show", "a.txt")
	require.Error(t, err) // "a.txt" is not a valid digest or prefix
	_ = out
}

func TestCLIBranchCreateAndSwitch(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "init")
	require.NoError(t, err)

	_, err = run(t, dir, "branch", "create", "feature")
	require.NoError(t, err)

	out, err := run(t, dir, "branch")
	require.NoError(t, err)
	require.Contains(t, out, "feature")

	_, err = run(t, dir, "branch", "switch", "feature")
	require.NoError(t, err)
}

func TestCLIIgnoreShowPrintsDefaults(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "init")
	require.NoError(t, err)

	out, err := run(t, dir, "ignore", "show")
	require.NoError(t, err)
	require.NotEmpty(t, out)
}

func TestCLIGCReportsNoOrphansOnFreshRepo(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "init")
	require.NoError(t, err)

	repo, err := chronolog.Open(dir)
	require.NoError(t, err)
	require.NoError(t, repo.CommitFile("a.txt", []byte("hello")))
	repo.Close()

	_, err = run(t, dir, "gc")
	require.NoError(t, err)
}

func TestCLIConfigSetAndGet(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "init")
	require.NoError(t, err)

	_, err = run(t, dir, "config", "set", "author", "alice")
	require.NoError(t, err)

	out, err := run(t, dir, "config", "get", "author")
	require.NoError(t, err)
	require.Contains(t, out, "alice")
}
