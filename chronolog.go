// Package chronolog provides a minimal public API for embedding
// ChronoLog in other Go programs.
//
// Most callers should use the chronolog CLI (cmd/chronolog). This
// package exports only the Repository type and the operations it
// supports, for Go programs that want to drive ChronoLog
// programmatically rather than shelling out.
package chronolog

import (
	"github.com/chronolog/chronolog/internal/chronoerr"
	"github.com/chronolog/chronolog/internal/diff"
	"github.com/chronolog/chronolog/internal/merge"
	"github.com/chronolog/chronolog/internal/metastore"
	"github.com/chronolog/chronolog/internal/repo"
)

// Repository is the core ChronoLog engine: object store, metadata
// store, and ignore engine behind a single façade.
type Repository = repo.Repository

// Init creates a new repository rooted at path.
func Init(path string) (*Repository, error) {
	return repo.Init(path)
}

// Open finds and opens the repository containing path.
func Open(path string) (*Repository, error) {
	return repo.Open(path)
}

// Core types from internal/metastore and internal/diff/merge.
type (
	Version              = metastore.Version
	Branch               = metastore.Branch
	Tag                  = metastore.Tag
	SearchResult         = metastore.SearchResult
	AdvancedSearchFilter = metastore.AdvancedSearchFilter
	ChangeMatch          = metastore.ChangeMatch
	BranchInfo           = repo.BranchInfo
	GCResult             = repo.GCResult
	DiffKind             = diff.Kind
	DiffResult           = diff.Result
	MergeResult          = merge.Result
)

// Diff kind constants.
const (
	DiffLine     = diff.Line
	DiffWord     = diff.Word
	DiffSemantic = diff.Semantic
	DiffBinary   = diff.Binary
)

// Error kinds, re-exported so callers can match on them without
// importing internal/chronoerr directly.
const (
	ErrNotARepository     = chronoerr.KindNotARepository
	ErrRepositoryExists   = chronoerr.KindRepositoryExists
	ErrRevisionNotFound   = chronoerr.KindRevisionNotFound
	ErrAmbiguousDigest    = chronoerr.KindAmbiguousDigest
	ErrBranchNotFound     = chronoerr.KindBranchNotFound
	ErrBranchExists       = chronoerr.KindBranchExists
	ErrCannotDeleteBranch = chronoerr.KindCannotDeleteBranch
	ErrTagNotFound        = chronoerr.KindTagNotFound
	ErrTagExists          = chronoerr.KindTagExists
	ErrLockContention     = chronoerr.KindLockContention
)

// ErrorKind reports which of the Err* sentinels, if any, err matches.
func ErrorKind(err error) chronoerr.Kind {
	return chronoerr.Of(err)
}
