package internal

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// GitCLIInspector shells out to the git binary. It exists for hosts
// where opening the repository in-process is undesirable (network
// mounts, exotic extensions); GitInspector is the default.
type GitCLIInspector struct {
	gitPath string
}

var _ Inspector = (*GitCLIInspector)(nil)

func NewGitCLIInspector() (*GitCLIInspector, error) {
	path, err := exec.LookPath("git")
	if err != nil {
		return nil, fmt.Errorf("locate git binary: %w", err)
	}
	return &GitCLIInspector{gitPath: path}, nil
}

func (i *GitCLIInspector) run(ctx context.Context, root string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, i.gitPath, append([]string{"-C", root}, args...)...)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (i *GitCLIInspector) Head(ctx context.Context, root string) (string, error) {
	out, err := i.run(ctx, root, "rev-parse", "HEAD")
	if err != nil {
		return "", ErrNoRepository
	}
	return out, nil
}

func (i *GitCLIInspector) Branch(ctx context.Context, root string) (string, error) {
	out, err := i.run(ctx, root, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	if out == "HEAD" {
		return "", nil // detached
	}
	return out, nil
}

// Details runs the four metadata sub-queries concurrently. Any single
// failure fails the whole fetch; nothing partial escapes.
func (i *GitCLIInspector) Details(ctx context.Context, root, hash string) (*RevisionDetails, error) {
	details := &RevisionDetails{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := i.run(gctx, root, "log", "-1", "--pretty=format:%s", hash)
		details.Message = out
		return err
	})
	g.Go(func() error {
		out, err := i.run(gctx, root, "log", "-1", "--pretty=format:%an", hash)
		details.Author = out
		return err
	})
	g.Go(func() error {
		out, err := i.run(gctx, root, "log", "-1", "--pretty=format:%ae", hash)
		details.AuthorEmail = out
		return err
	})
	g.Go(func() error {
		out, err := i.run(gctx, root, "log", "-1", "--pretty=format:%at", hash)
		if err != nil {
			return err
		}
		sec, err := strconv.ParseInt(out, 10, 64)
		if err != nil {
			return fmt.Errorf("parse author timestamp %q: %w", out, err)
		}
		details.Timestamp = sec * 1000
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Diff stats are best-effort enrichment: a missing or unparsable
	// summary yields zeros rather than a failed fetch.
	if out, err := i.run(ctx, root, "show", "--shortstat", "--pretty=format:", hash); err == nil {
		details.FilesChanged, details.LinesAdded, details.LinesDeleted = parseShortStat(out)
	}

	return details, nil
}

func (i *GitCLIInspector) RepositoryRoot(path string) (string, bool) {
	return findRepositoryRoot(path)
}

var (
	filesChangedRe = regexp.MustCompile(`(\d+) files? changed`)
	insertionsRe   = regexp.MustCompile(`(\d+) insertions?\(\+\)`)
	deletionsRe    = regexp.MustCompile(`(\d+) deletions?\(-\)`)
)

// parseShortStat extracts counts from a git shortstat summary such as
// "3 files changed, 10 insertions(+), 2 deletions(-)". Missing parts
// count as zero.
func parseShortStat(summary string) (files, added, deleted int) {
	if m := filesChangedRe.FindStringSubmatch(summary); m != nil {
		files, _ = strconv.Atoi(m[1])
	}
	if m := insertionsRe.FindStringSubmatch(summary); m != nil {
		added, _ = strconv.Atoi(m[1])
	}
	if m := deletionsRe.FindStringSubmatch(summary); m != nil {
		deleted, _ = strconv.Atoi(m[1])
	}
	return files, added, deleted
}
