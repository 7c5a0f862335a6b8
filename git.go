// Package gitversion computes semantic versions from Git repository state.
//
// The dirty worktree check in this file is adapted from pulumictl
// (https://github.com/pulumi/pulumictl), licensed under the Apache License 2.0.
package gitversion

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

// OpenRepository opens a Git repository at the specified path
func OpenRepository(path string) (*git.Repository, error) {
	return git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
}

// GitSourceOptions configures a GitSource.
type GitSourceOptions struct {
	// Commitish specifies which commit to analyze (default: "HEAD")
	Commitish plumbing.Revision

	// Branch overrides the detected branch name, e.g. on a detached CI checkout
	Branch string
}

// GitSource is a read-only RefSource backed by a go-git repository.
type GitSource struct {
	repo *git.Repository
	opts GitSourceOptions
}

var (
	_ RefSource    = (*GitSource)(nil)
	_ DirtyChecker = (*GitSource)(nil)
)

// NewGitSource wraps repo.
func NewGitSource(repo *git.Repository, opts GitSourceOptions) *GitSource {
	if opts.Commitish == "" {
		opts.Commitish = "HEAD"
	}
	return &GitSource{repo: repo, opts: opts}
}

// Head resolves the configured commitish to a full commit hash.
func (s *GitSource) Head() (string, error) {
	revision, err := s.repo.ResolveRevision(s.opts.Commitish)
	if err != nil {
		return "", fmt.Errorf("resolving commitish: %w", err)
	}
	return revision.String(), nil
}

// Ancestry walks first parents from the given commit back to the root.
func (s *GitSource) Ancestry(from string) ([]string, error) {
	commit, err := s.repo.CommitObject(plumbing.NewHash(from))
	if err != nil {
		return nil, fmt.Errorf("getting commit object: %w", err)
	}

	var ancestry []string
	for {
		ancestry = append(ancestry, commit.Hash.String())
		if commit.NumParents() == 0 {
			return ancestry, nil
		}

		commit, err = commit.Parent(0)
		if err != nil {
			return nil, fmt.Errorf("getting first parent of %s: %w", shortHash(ancestry[len(ancestry)-1]), err)
		}
	}
}

// Tags lists every tag with the commit it points at. Annotated tags are
// peeled to their commit; tags on trees or blobs are skipped.
func (s *GitSource) Tags() ([]TagRef, error) {
	iter, err := s.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	defer iter.Close()

	var tags []TagRef
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}

		name := ref.Name().Short()

		obj, err := s.repo.TagObject(ref.Hash())
		switch {
		case err == nil:
			// Annotated tag
			commit, err := obj.Commit()
			if errors.Is(err, object.ErrUnsupportedObject) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("peeling tag %s: %w", name, err)
			}
			tags = append(tags, TagRef{
				Name:    name,
				Target:  commit.Hash.String(),
				Message: strings.TrimSpace(obj.Message),
			})
		case errors.Is(err, plumbing.ErrObjectNotFound):
			// Lightweight tag
			tags = append(tags, TagRef{Name: name, Target: ref.Hash().String()})
		default:
			return fmt.Errorf("reading tag %s: %w", name, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return tags, nil
}

// CurrentBranch returns the branch override, or the checked-out branch when
// analyzing HEAD. A detached HEAD has no branch.
func (s *GitSource) CurrentBranch() (string, error) {
	if s.opts.Branch != "" {
		return s.opts.Branch, nil
	}
	if s.opts.Commitish != "HEAD" {
		return "", nil
	}

	head, err := s.repo.Head()
	if err != nil {
		return "", fmt.Errorf("reading HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", nil
	}
	return head.Name().Short(), nil
}

// IsDirty reports whether the worktree has uncommitted changes. Bare
// repositories are never dirty.
func (s *GitSource) IsDirty() (bool, error) {
	workTree, err := s.repo.Worktree()
	if errors.Is(err, git.ErrIsBareRepository) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("getting worktree: %w", err)
	}

	// Fast path for filesystem storage when the git binary is available
	if _, ok := s.repo.Storer.(*filesystem.Storage); ok {
		if _, err := exec.LookPath("git"); err == nil {
			return checkDirtyWithGitCommand(workTree.Filesystem.Root())
		}
	}

	status, err := workTree.Status()
	if err != nil {
		return false, fmt.Errorf("getting git status: %w", err)
	}

	return !status.IsClean(), nil
}

func checkDirtyWithGitCommand(repoPath string) (bool, error) {
	// Refresh index first
	cmd := exec.Command("git", "update-index", "-q", "--refresh")
	cmd.Dir = repoPath
	if err := cmd.Run(); err != nil {
		// If update-index fails, assume dirty
		return true, nil
	}

	cmd = exec.Command("git", "diff-index", "--quiet", "HEAD", "--")
	cmd.Dir = repoPath
	err := cmd.Run()
	if err == nil {
		return false, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return true, nil
	}
	return false, err
}
