// Package gitinfo derives per-page metadata from the docs repository: last
// modification time from the commit history and "edit this page" links from
// the origin remote. A docs tree outside any git repository yields zero
// values, never an error.
package gitinfo

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
)

// Resolver answers lastmod/edit-link queries for files under a docs root.
type Resolver struct {
	repo    *git.Repository
	workdir string
}

// Open locates the git repository containing dir, searching parent
// directories the way git itself does. A nil Resolver error with repo == nil
// means dir is not under version control.
func Open(dir string) (*Resolver, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if err == git.ErrRepositoryNotExists {
			return &Resolver{}, nil
		}
		return nil, fmt.Errorf("open git repository: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("resolve worktree: %w", err)
	}

	return &Resolver{repo: repo, workdir: wt.Filesystem.Root()}, nil
}

// Available reports whether the docs tree is inside a git repository.
func (r *Resolver) Available() bool {
	return r != nil && r.repo != nil
}

// LastModified returns the commit time of the newest commit touching path.
// Zero time when the repository is absent or the file has no history yet.
func (r *Resolver) LastModified(path string) (time.Time, error) {
	if !r.Available() {
		return time.Time{}, nil
	}

	rel, err := filepath.Rel(r.workdir, path)
	if err != nil {
		return time.Time{}, fmt.Errorf("relativize %s: %w", path, err)
	}
	rel = filepath.ToSlash(rel)

	iter, err := r.repo.Log(&git.LogOptions{FileName: &rel})
	if err != nil {
		return time.Time{}, fmt.Errorf("git log %s: %w", rel, err)
	}
	defer iter.Close()

	commit, err := iter.Next()
	if err != nil {
		// Uncommitted files have no log entries.
		return time.Time{}, nil
	}
	return commit.Author.When, nil
}

// HeadCommit returns the abbreviated hash of HEAD, or "" without a repo.
func (r *Resolver) HeadCommit() string {
	if !r.Available() {
		return ""
	}
	ref, err := r.repo.Head()
	if err != nil {
		return ""
	}
	return ref.Hash().String()[:8]
}

// EditURL builds the web edit link for a docs-root-relative page path.
// When editBase is configured it wins; otherwise the origin remote URL is
// mapped for the common forges. Empty string when no link can be derived.
func (r *Resolver) EditURL(editBase, docsBase, relPath string) string {
	if editBase != "" {
		return strings.TrimSuffix(editBase, "/") + "/" + relPath
	}
	if !r.Available() {
		return ""
	}

	remote, err := r.repo.Remote("origin")
	if err != nil || len(remote.Config().URLs) == 0 {
		return ""
	}
	url := strings.TrimSuffix(remote.Config().URLs[0], ".git")

	branch := "main"
	if head, err := r.repo.Head(); err == nil && head.Name().IsBranch() {
		branch = head.Name().Short()
	}

	repoRel := relPath
	if docsBase != "" && docsBase != "." {
		repoRel = filepath.ToSlash(filepath.Join(docsBase, relPath))
	}

	switch {
	case strings.Contains(url, "github.com"):
		if strings.HasPrefix(url, "git@github.com:") {
			url = "https://github.com/" + strings.TrimPrefix(url, "git@github.com:")
		}
		return fmt.Sprintf("%s/edit/%s/%s", url, branch, repoRel)
	case strings.Contains(url, "gitlab.com"):
		if strings.HasPrefix(url, "git@gitlab.com:") {
			url = "https://gitlab.com/" + strings.TrimPrefix(url, "git@gitlab.com:")
		}
		return fmt.Sprintf("%s/-/edit/%s/%s", url, branch, repoRel)
	case strings.Contains(url, "bitbucket.org"):
		return fmt.Sprintf("%s/src/%s/%s?mode=edit", url, branch, repoRel)
	}
	return ""
}
