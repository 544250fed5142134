package metastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chronolog/chronolog/internal/chronoerr"
)

// Branch is a named pointer to the most recently recorded blob digest
// within that branch lineage.
type Branch struct {
	Name         string
	HeadDigest   string
	CreatedAt    string
	ParentBranch string
}

// CurrentBranch returns the name of the active branch (default "main").
func (s *Store) CurrentBranch(ctx context.Context) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM current_branch WHERE id = 1`).Scan(&name)
	if err != nil {
		return "", fmt.Errorf("query current branch: %w", err)
	}
	return name, nil
}

// SetCurrentBranch sets the active branch marker. Fails if name does
// not exist.
func (s *Store) SetCurrentBranch(ctx context.Context, name string) error {
	return s.withWriteLock(ctx, func() error {
		exists, err := s.branchExists(ctx, s.db, name)
		if err != nil {
			return err
		}
		if !exists {
			return chronoerr.New(chronoerr.KindBranchNotFound, "branch %q does not exist", name)
		}
		_, err = s.db.ExecContext(ctx, `UPDATE current_branch SET name = ? WHERE id = 1`, name)
		return err
	})
}

// ListBranches returns every branch, ordered by name.
func (s *Store) ListBranches(ctx context.Context) ([]Branch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, head_digest, created_at, COALESCE(parent_branch, '') FROM branches ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("query branches: %w", err)
	}
	defer rows.Close()

	var out []Branch
	for rows.Next() {
		var b Branch
		if err := rows.Scan(&b.Name, &b.HeadDigest, &b.CreatedAt, &b.ParentBranch); err != nil {
			return nil, fmt.Errorf("scan branch: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CreateBranch creates a new branch named name, with head copied from
// the branch named from. Fails if name already exists or from is
// missing.
func (s *Store) CreateBranch(ctx context.Context, name, from string) (Branch, error) {
	var created Branch

	err := s.withWriteLock(ctx, func() error {
		exists, err := s.branchExists(ctx, s.db, name)
		if err != nil {
			return err
		}
		if exists {
			return chronoerr.New(chronoerr.KindBranchExists, "branch %q already exists", name)
		}

		var fromHead string
		err = s.db.QueryRowContext(ctx, `SELECT head_digest FROM branches WHERE name = ?`, from).Scan(&fromHead)
		if err == sql.ErrNoRows {
			return chronoerr.New(chronoerr.KindBranchNotFound, "source branch %q does not exist", from)
		}
		if err != nil {
			return fmt.Errorf("lookup source branch: %w", err)
		}

		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO branches (name, head_digest, parent_branch) VALUES (?, ?, ?)
		`, name, fromHead, from); err != nil {
			return fmt.Errorf("insert branch: %w", err)
		}

		created = Branch{Name: name, HeadDigest: fromHead, ParentBranch: from}
		return nil
	})

	return created, err
}

// DeleteBranch removes a branch. Fails if it is "main" or the current
// branch.
func (s *Store) DeleteBranch(ctx context.Context, name string) error {
	return s.withWriteLock(ctx, func() error {
		if name == "main" {
			return chronoerr.New(chronoerr.KindCannotDeleteBranch, "the main branch cannot be deleted")
		}

		current, err := s.CurrentBranch(ctx)
		if err != nil {
			return err
		}
		if name == current {
			return chronoerr.New(chronoerr.KindCannotDeleteBranch, "cannot delete the currently checked-out branch %q", name)
		}

		exists, err := s.branchExists(ctx, s.db, name)
		if err != nil {
			return err
		}
		if !exists {
			return chronoerr.New(chronoerr.KindBranchNotFound, "branch %q does not exist", name)
		}

		_, err = s.db.ExecContext(ctx, `DELETE FROM branches WHERE name = ?`, name)
		return err
	})
}

func (s *Store) branchExists(ctx context.Context, q queryer, name string) (bool, error) {
	var count int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM branches WHERE name = ?`, name).Scan(&count); err != nil {
		return false, fmt.Errorf("check branch existence: %w", err)
	}
	return count > 0, nil
}

// queryer is the subset of *sql.DB / *sql.Tx used for read helpers
// that need to work against either.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
