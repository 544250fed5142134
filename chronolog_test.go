package chronolog_test

import (
	"path/filepath"
	"testing"

	chronolog "github.com/chronolog/chronolog"
)

func TestInitAndOpenRoundTrip(t *testing.T) {
	dir := t.TempDir()

	repo, err := chronolog.Init(dir)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer repo.Close()

	if err := repo.CommitFile("a.txt", []byte("hello")); err != nil {
		t.Fatalf("CommitFile failed: %v", err)
	}

	// Open should find the repository by walking up from a nonexistent
	// nested path, since findRoot only needs an ancestor to exist.
	opened, err := chronolog.Open(filepath.Join(dir, "sub"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer opened.Close()

	history, err := opened.Log("a.txt")
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("len(history) = %d, want 1", len(history))
	}
}

func TestErrorKindMatchesSentinels(t *testing.T) {
	dir := t.TempDir()
	_, err := chronolog.Open(dir)
	if chronolog.ErrorKind(err) != chronolog.ErrNotARepository {
		t.Errorf("ErrorKind(%v) = %v, want ErrNotARepository", err, chronolog.ErrorKind(err))
	}
}

func TestDiffKindConstants(t *testing.T) {
	if chronolog.DiffLine == chronolog.DiffWord {
		t.Error("DiffLine and DiffWord must be distinct")
	}
}
