// Package repo implements ChronoLog's Repository API (C4): the single
// façade every caller (CLI, daemon, watcher) goes through, so the
// invariants of the object store, metadata store, and ignore engine are
// enforced in exactly one place rather than scattered across callers.
package repo

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/chronolog/chronolog/internal/chronoerr"
	"github.com/chronolog/chronolog/internal/diff"
	"github.com/chronolog/chronolog/internal/ignore"
	"github.com/chronolog/chronolog/internal/merge"
	"github.com/chronolog/chronolog/internal/metastore"
	"github.com/chronolog/chronolog/internal/objstore"
)

// MetaDirName is the repository metadata directory, per spec.md §3/§4.4.
const MetaDirName = ignore.MetaDir

// historyDBName is the metadata store file within MetaDirName.
const historyDBName = "history.db"

// Repository is ChronoLog's core engine façade, wrapping the object
// store (C1), metadata store (C2), and ignore engine (C3) behind the
// operations spec.md §4.4 names.
type Repository struct {
	root    string
	metaDir string
	objects *objstore.Store
	meta    *metastore.Store
	matcher *ignore.Matcher
	log     *slog.Logger
}

// Init creates a new repository rooted at path: the metadata
// directory, the C2 schema, and a default ignore file. Fails if the
// metadata directory already exists.
func Init(path string) (*Repository, error) {
	metaDir := filepath.Join(path, MetaDirName)
	if _, err := os.Stat(metaDir); err == nil {
		return nil, chronoerr.New(chronoerr.KindRepositoryExists, "repository already initialized at %s", path)
	}

	if err := os.MkdirAll(metaDir, 0o755); err != nil {
		return nil, chronoerr.Wrap(chronoerr.KindIOError, err, "create metadata directory")
	}

	ignorePath := filepath.Join(path, ignore.IgnoreFileName)
	if err := ignore.WriteDefault(ignorePath); err != nil {
		return nil, err
	}

	return openAt(path, metaDir)
}

// Open searches path and its ancestors for a metadata directory and
// opens the repository rooted there. Fails with chronoerr.NotARepository
// if none is found.
func Open(path string) (*Repository, error) {
	root, err := findRoot(path)
	if err != nil {
		return nil, err
	}
	return openAt(root, filepath.Join(root, MetaDirName))
}

func findRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", chronoerr.Wrap(chronoerr.KindIOError, err, "resolve absolute path")
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, MetaDirName)); err == nil && info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", chronoerr.New(chronoerr.KindNotARepository, "no %s directory found in %s or any ancestor", MetaDirName, start)
		}
		dir = parent
	}
}

func openAt(root, metaDir string) (*Repository, error) {
	objects, err := objstore.New(metaDir)
	if err != nil {
		return nil, err
	}

	meta, err := metastore.Open(filepath.Join(metaDir, historyDBName))
	if err != nil {
		return nil, err
	}

	matcher, err := ignore.Load(filepath.Join(root, ignore.IgnoreFileName))
	if err != nil {
		meta.Close()
		return nil, err
	}

	return &Repository{
		root:    root,
		metaDir: metaDir,
		objects: objects,
		meta:    meta,
		matcher: matcher,
		log:     slog.Default(),
	}, nil
}

// Close releases the repository's metadata store handle.
func (r *Repository) Close() error {
	return r.meta.Close()
}

// Root returns the repository's working directory.
func (r *Repository) Root() string { return r.root }

// MetaDir returns the repository's metadata directory.
func (r *Repository) MetaDir() string { return r.metaDir }

// ReloadIgnore re-reads .chronologignore, used when the watcher detects
// a write to that file.
func (r *Repository) ReloadIgnore() error {
	matcher, err := ignore.Load(filepath.Join(r.root, ignore.IgnoreFileName))
	if err != nil {
		return err
	}
	r.matcher = matcher
	return nil
}

// ShouldIgnore reports whether relPath is excluded by the ignore engine.
func (r *Repository) ShouldIgnore(relPath string, isDir bool) bool {
	return r.matcher.ShouldIgnore(relPath, isDir)
}

// CommitFile records data as the new content of relPath on the current
// branch. It implements internal/watcher.Committer, so the watcher can
// drive commits without importing this package. This is also the
// operation checkout and any future "manual commit" CLI path use.
func (r *Repository) CommitFile(relPath string, data []byte) error {
	ctx := context.Background()

	digest, err := r.objects.Put(data)
	if err != nil {
		return err
	}

	branch, err := r.meta.CurrentBranch(ctx)
	if err != nil {
		return err
	}

	result, err := r.meta.RecordRevision(ctx, relPath, digest, data, "", branch)
	if err != nil {
		return err
	}
	if result.Created {
		r.log.Debug("recorded revision", "path", relPath, "digest", shortDigest(digest), "branch", branch)
	}
	return nil
}

// commitAnnotated is CommitFile plus an annotation, used by checkout's
// before/after revision pair.
func (r *Repository) commitAnnotated(relPath string, data []byte, annotation string) (string, error) {
	ctx := context.Background()

	digest, err := r.objects.Put(data)
	if err != nil {
		return "", err
	}

	branch, err := r.meta.CurrentBranch(ctx)
	if err != nil {
		return "", err
	}

	result, err := r.meta.RecordRevision(ctx, relPath, digest, data, annotation, branch)
	if err != nil {
		return "", err
	}
	return result.Digest, nil
}

// Log returns every revision recorded for file, newest first.
func (r *Repository) Log(file string) ([]metastore.Version, error) {
	return r.meta.History(context.Background(), file)
}

// Show resolves digestOrPrefix and returns that revision's bytes.
func (r *Repository) Show(digestOrPrefix string) ([]byte, error) {
	digest, err := r.resolve(digestOrPrefix)
	if err != nil {
		return nil, err
	}
	return r.objects.Get(digest)
}

func (r *Repository) resolve(digestOrPrefix string) (string, error) {
	if objstore.ValidDigest(digestOrPrefix) && r.objects.Exists(digestOrPrefix) {
		return digestOrPrefix, nil
	}
	return r.meta.ResolveDigest(context.Background(), digestOrPrefix)
}

// Diff computes a diff of kind between revision a and either revision b
// or (if current is true) the live on-disk content of a's recorded
// file path.
func (r *Repository) Diff(a, b string, current bool, kind diff.Kind) (*diff.Result, error) {
	ctx := context.Background()

	digestA, err := r.resolve(a)
	if err != nil {
		return nil, err
	}
	dataA, err := r.objects.Get(digestA)
	if err != nil {
		return nil, err
	}
	pathA, err := r.meta.PathForDigest(ctx, digestA)
	if err != nil {
		return nil, err
	}

	var dataB []byte
	var pathB, digestB string

	if current {
		pathB = pathA
		digestB = "current"
		dataB, err = os.ReadFile(filepath.Join(r.root, pathA))
		if err != nil {
			return nil, chronoerr.Wrap(chronoerr.KindIOError, err, "read current file %s", pathA)
		}
	} else {
		digestB, err = r.resolve(b)
		if err != nil {
			return nil, err
		}
		dataB, err = r.objects.Get(digestB)
		if err != nil {
			return nil, err
		}
		pathB, err = r.meta.PathForDigest(ctx, digestB)
		if err != nil {
			return nil, err
		}
	}

	sideA := diff.Side{Path: pathA, Digest: digestA}
	sideB := diff.Side{Path: pathB, Digest: digestB}
	return diff.Diff(kind, sideA, sideB, dataA, dataB), nil
}

// Checkout overwrites file with the bytes of digestOrPrefix. If file
// currently exists, a "before checkout" revision is recorded first.
func (r *Repository) Checkout(digestOrPrefix, file string) error {
	digest, err := r.resolve(digestOrPrefix)
	if err != nil {
		return err
	}
	data, err := r.objects.Get(digest)
	if err != nil {
		return err
	}

	fullPath := filepath.Join(r.root, file)
	if existing, err := os.ReadFile(fullPath); err == nil {
		annotation := fmt.Sprintf("Before checkout to %s", shortDigest(digest))
		if _, err := r.commitAnnotated(file, existing, annotation); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return chronoerr.Wrap(chronoerr.KindIOError, err, "read existing file %s", file)
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return chronoerr.Wrap(chronoerr.KindIOError, err, "create parent directory for %s", file)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return chronoerr.Wrap(chronoerr.KindIOError, err, "write checked-out file %s", file)
	}

	annotation := fmt.Sprintf("Checked out from %s", shortDigest(digest))
	ctx := context.Background()
	branch, err := r.meta.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	_, err = r.meta.RecordRevisionWithParent(ctx, file, digest, data, annotation, branch, digest)
	return err
}

func shortDigest(digest string) string {
	if len(digest) <= 8 {
		return digest
	}
	return digest[:8]
}

// Tag creates a named, immutable pointer to digest (or the latest
// revision, if digest is empty).
func (r *Repository) Tag(name, digest, description string) (metastore.Tag, error) {
	return r.meta.CreateTag(context.Background(), name, digest, description)
}

// ListTags returns every tag.
func (r *Repository) ListTags() ([]metastore.Tag, error) {
	return r.meta.ListTags(context.Background())
}

// DeleteTag removes a tag.
func (r *Repository) DeleteTag(name string) error {
	return r.meta.DeleteTag(context.Background(), name)
}

// BranchInfo reports the current branch and every branch that exists.
type BranchInfo struct {
	Current  string
	Branches []metastore.Branch
}

// Branch with no name returns BranchInfo; to create a branch, use
// CreateBranch.
func (r *Repository) Branch() (BranchInfo, error) {
	ctx := context.Background()
	current, err := r.meta.CurrentBranch(ctx)
	if err != nil {
		return BranchInfo{}, err
	}
	branches, err := r.meta.ListBranches(ctx)
	if err != nil {
		return BranchInfo{}, err
	}
	return BranchInfo{Current: current, Branches: branches}, nil
}

// CreateBranch creates a new branch named name with head copied from
// the branch named from (defaulting to the current branch).
func (r *Repository) CreateBranch(name, from string) (metastore.Branch, error) {
	ctx := context.Background()
	if from == "" {
		current, err := r.meta.CurrentBranch(ctx)
		if err != nil {
			return metastore.Branch{}, err
		}
		from = current
	}
	return r.meta.CreateBranch(ctx, name, from)
}

// SwitchBranch sets the active branch.
func (r *Repository) SwitchBranch(name string) error {
	return r.meta.SetCurrentBranch(context.Background(), name)
}

// DeleteBranch removes a branch.
func (r *Repository) DeleteBranch(name string) error {
	return r.meta.DeleteBranch(context.Background(), name)
}

// Search runs a substring search over the search index.
func (r *Repository) Search(query, file string) ([]metastore.SearchResult, error) {
	return r.meta.Search(context.Background(), query, file)
}

// AdvancedSearch runs a filtered search over the search index.
func (r *Repository) AdvancedSearch(filter metastore.AdvancedSearchFilter) ([]metastore.SearchResult, error) {
	return r.meta.AdvancedSearch(context.Background(), filter)
}

// SearchChanges finds transitions where added/removed text appeared or
// disappeared between adjacent revisions of a file.
func (r *Repository) SearchChanges(added, removed string) ([]metastore.ChangeMatch, error) {
	return r.meta.SearchChanges(context.Background(), added, removed)
}

// GetConfig returns the repository-local config value for key.
func (r *Repository) GetConfig(key string) (string, bool, error) {
	return r.meta.GetConfig(context.Background(), key)
}

// SetConfig sets a repository-local config value.
func (r *Repository) SetConfig(key, value string) error {
	return r.meta.SetConfig(context.Background(), key, value)
}

// AllConfig returns every repository-local config key/value pair.
func (r *Repository) AllConfig() (map[string]string, error) {
	return r.meta.AllConfig(context.Background())
}

// Reindex rebuilds the search index from every recorded blob, per
// spec.md §6. It is idempotent: running it twice against an unchanged
// repository yields the same search_index rows. progress, if non-nil,
// is called after each blob with the count of blobs processed so far
// and the total, letting the CLI render a progress bar without this
// package depending on one.
func (r *Repository) Reindex(progress func(done, total int)) error {
	ctx := context.Background()

	refs, err := r.meta.AllVersionRefs(ctx)
	if err != nil {
		return err
	}

	for i, ref := range refs {
		data, err := r.objects.Get(ref.BlobDigest)
		if err != nil {
			return err
		}
		if err := r.meta.ReindexOne(ctx, ref.FilePath, ref.BlobDigest, data); err != nil {
			return err
		}
		if progress != nil {
			progress(i+1, len(refs))
		}
	}
	return nil
}

// GCResult reports the outcome of a GC pass: how many blobs under
// objects/ have no referencing version row, and (unless dryRun was set)
// how many of those were actually deleted.
type GCResult struct {
	Orphaned int
	Removed  []string
}

// GC finds every blob under objects/ not referenced by any recorded
// version (an "orphan blob", per the glossary), marks it in
// storage_metadata, and — unless dryRun is set — deletes the blob file
// and its storage_metadata row. A blob can only become orphaned by a
// bug elsewhere, since Put/commit and the version row that references
// it are written in the same transaction; GC exists as a correctness
// backstop and disk-reclamation tool, not a path exercised by normal
// operation.
func (r *Repository) GC(dryRun bool) (GCResult, error) {
	ctx := context.Background()

	referenced, err := r.meta.DistinctBlobDigests(ctx)
	if err != nil {
		return GCResult{}, err
	}
	live := make(map[string]bool, len(referenced))
	for _, digest := range referenced {
		live[digest] = true
	}

	var orphans []string
	err = r.objects.Walk(func(digest string) error {
		if !live[digest] {
			orphans = append(orphans, digest)
		}
		return nil
	})
	if err != nil {
		return GCResult{}, err
	}

	result := GCResult{Orphaned: len(orphans)}
	for _, digest := range orphans {
		if err := r.meta.MarkOrphaned(ctx, digest, true); err != nil {
			return result, err
		}
		if dryRun {
			continue
		}
		if err := r.objects.Remove(digest); err != nil {
			return result, err
		}
		if err := r.meta.DeleteStorageMetadata(ctx, digest); err != nil {
			return result, err
		}
		result.Removed = append(result.Removed, digest)
	}
	return result, nil
}

// Merge runs a three-way merge of base/ours/theirs, resolved from
// digest-or-prefix arguments.
func (r *Repository) Merge(base, ours, theirs string) (*merge.Result, error) {
	baseData, err := r.Show(base)
	if err != nil {
		return nil, err
	}
	oursData, err := r.Show(ours)
	if err != nil {
		return nil, err
	}
	theirsData, err := r.Show(theirs)
	if err != nil {
		return nil, err
	}
	return merge.Merge(baseData, oursData, theirsData), nil
}
