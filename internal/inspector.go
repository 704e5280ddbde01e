package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"golang.org/x/sync/errgroup"
)

// RevisionDetails is the metadata fetched for a single revision. The
// fetch is all-or-nothing: a partial result is never returned.
type RevisionDetails struct {
	Message      string
	Author       string
	AuthorEmail  string
	Timestamp    int64 // ms since epoch
	FilesChanged int
	LinesAdded   int
	LinesDeleted int
}

// Inspector answers point questions about a project's source control.
// Every error means "information unavailable"; callers must treat it
// as such, never as fatal.
type Inspector interface {
	Head(ctx context.Context, root string) (string, error)
	Branch(ctx context.Context, root string) (string, error)
	Details(ctx context.Context, root, hash string) (*RevisionDetails, error)
	RepositoryRoot(path string) (string, bool)
}

// GitInspector reads repositories in-process with go-git.
type GitInspector struct{}

var _ Inspector = (*GitInspector)(nil)

func NewGitInspector() *GitInspector {
	return &GitInspector{}
}

func (i *GitInspector) open(root string) (*git.Repository, error) {
	gitDir := filepath.Join(root, git.GitDirName)
	if _, err := os.Stat(gitDir); err != nil {
		return nil, ErrNoRepository
	}

	fs := osfs.New(gitDir)
	storage := filesystem.NewStorage(fs, cache.NewObjectLRUDefault())
	wt := osfs.New(root)

	repo, err := git.Open(storage, wt)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	return repo, nil
}

func (i *GitInspector) Head(ctx context.Context, root string) (string, error) {
	repo, err := i.open(root)
	if err != nil {
		return "", err
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("get HEAD: %w", err)
	}

	return head.Hash().String(), nil
}

func (i *GitInspector) Branch(ctx context.Context, root string) (string, error) {
	repo, err := i.open(root)
	if err != nil {
		return "", err
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("get HEAD: %w", err)
	}

	if !head.Name().IsBranch() {
		return "", nil // detached HEAD
	}
	return head.Name().Short(), nil
}

// Details resolves commit metadata and diff stats concurrently. A
// commit that cannot be read fails the whole fetch; diff stats are
// best-effort enrichment and degrade to zeros when uncomputable.
func (i *GitInspector) Details(ctx context.Context, root, hash string) (*RevisionDetails, error) {
	repo, err := i.open(root)
	if err != nil {
		return nil, err
	}

	commit, err := repo.CommitObject(plumbing.NewHash(hash))
	if err != nil {
		return nil, fmt.Errorf("get commit: %w", err)
	}

	details := &RevisionDetails{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		details.Message = commitSubject(commit)
		details.Author = commit.Author.Name
		details.AuthorEmail = commit.Author.Email
		details.Timestamp = commit.Author.When.UnixMilli()
		return gctx.Err()
	})
	g.Go(func() error {
		stats, err := commit.StatsContext(gctx)
		if err != nil {
			return nil // stats stay zero
		}
		details.FilesChanged = len(stats)
		for _, fs := range stats {
			details.LinesAdded += fs.Addition
			details.LinesDeleted += fs.Deletion
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return details, nil
}

// RepositoryRoot walks up from path looking for the directory that
// owns a .git entry. Reports false when path is not under any
// repository.
func (i *GitInspector) RepositoryRoot(path string) (string, bool) {
	return findRepositoryRoot(path)
}

func findRepositoryRoot(path string) (string, bool) {
	dir := path
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		dir = filepath.Dir(path)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, git.GitDirName)); err == nil {
			return dir, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func commitSubject(c *object.Commit) string {
	msg := c.Message
	for idx := 0; idx < len(msg); idx++ {
		if msg[idx] == '\n' {
			return msg[:idx]
		}
	}
	return msg
}
