package gitversion

import (
	"fmt"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/require"
)

var testSignature = &object.Signature{
	Name:  "test",
	Email: "test@example.com",
	When:  time.Now(),
}

var testFileCounter int

// testRepoCreate creates a new in-memory git repository for testing
func testRepoCreate(t *testing.T) *git.Repository {
	t.Helper()
	repo, err := git.Init(memory.NewStorage(), memfs.New())
	require.NoError(t, err)
	return repo
}

// testRepoFSCreate creates a new filesystem-based git repository for testing
func testRepoFSCreate(t *testing.T, path string) *git.Repository {
	t.Helper()
	repo, err := git.PlainInit(path, false)
	require.NoError(t, err)
	return repo
}

// testCommit writes a uniquely named file and commits it
func testCommit(t *testing.T, repo *git.Repository, message string) plumbing.Hash {
	t.Helper()

	workTree, err := repo.Worktree()
	require.NoError(t, err)

	testFileCounter++
	filename := fmt.Sprintf("file-%d.txt", testFileCounter)
	require.NoError(t, writeFile(workTree.Filesystem, filename, message))

	_, err = workTree.Add(filename)
	require.NoError(t, err)

	hash, err := workTree.Commit(message, &git.CommitOptions{Author: testSignature})
	require.NoError(t, err)
	return hash
}

// testCommits adds n commits and returns their hashes, oldest first
func testCommits(t *testing.T, repo *git.Repository, n int) []plumbing.Hash {
	t.Helper()
	hashes := make([]plumbing.Hash, 0, n)
	for i := 0; i < n; i++ {
		hashes = append(hashes, testCommit(t, repo, fmt.Sprintf("Commit %d", i)))
	}
	return hashes
}

// testTag creates a lightweight tag
func testTag(t *testing.T, repo *git.Repository, name string, hash plumbing.Hash) {
	t.Helper()
	_, err := repo.CreateTag(name, hash, nil)
	require.NoError(t, err)
}

// testAnnotatedTag creates an annotated tag
func testAnnotatedTag(t *testing.T, repo *git.Repository, name string, hash plumbing.Hash, message string) {
	t.Helper()
	_, err := repo.CreateTag(name, hash, &git.CreateTagOptions{
		Tagger:  testSignature,
		Message: message,
	})
	require.NoError(t, err)
}

// testCheckoutNewBranch creates a branch at HEAD and checks it out
func testCheckoutNewBranch(t *testing.T, repo *git.Repository, branch string) {
	t.Helper()
	workTree, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, workTree.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
		Create: true,
	}))
}

// testDetach checks out HEAD's commit directly
func testDetach(t *testing.T, repo *git.Repository) {
	t.Helper()
	head, err := repo.Head()
	require.NoError(t, err)
	workTree, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, workTree.Checkout(&git.CheckoutOptions{Hash: head.Hash()}))
}

// writeFile writes content to a file in the given filesystem
func writeFile(fs billy.Filesystem, filename, content string) error {
	file, err := fs.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.Write([]byte(content))
	return err
}
