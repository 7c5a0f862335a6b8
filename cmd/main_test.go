package main

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/jaxxstorm/gitversion"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// captureStdout runs fn with os.Stdout redirected and returns what it wrote
func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	runErr := fn()

	w.Close()
	os.Stdout = oldStdout

	output, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(output), runErr
}

// testRepo creates an on-disk repository with n commits and returns its path
// and commit hashes, oldest first
func testRepo(t *testing.T, n int) (string, *git.Repository, []plumbing.Hash) {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	workTree, err := repo.Worktree()
	require.NoError(t, err)

	var hashes []plumbing.Hash
	for i := 0; i < n; i++ {
		name := filepath.Join(dir, "file.txt")
		require.NoError(t, os.WriteFile(name, []byte(strings.Repeat("x", i+1)), 0o600))
		_, err = workTree.Add("file.txt")
		require.NoError(t, err)

		hash, err := workTree.Commit("commit", &git.CommitOptions{
			Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
		})
		require.NoError(t, err)
		hashes = append(hashes, hash)
	}

	return dir, repo, hashes
}

func TestIsVersionString(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"1.2.3", true},
		{"v1.2.3", true},
		{"1.2.3-alpha.1", true},
		{"v2.0.0-beta.2", true},
		{"HEAD", false},
		{"main", false},
		{"feature/branch", false},
		{"abc123def", false},
		{"", false},
		{"1.2", false}, // Not enough parts
		{"v", false},
		{"1", false},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			result := isVersionString(test.input)
			require.Equal(t, test.expected, result, "Input: %s", test.input)
		})
	}
}

func TestGetVersionOutput(t *testing.T) {
	versions := &gitversion.LanguageVersions{
		SemVer:     "1.2.3-rc.1",
		Python:     "1.2.3rc1",
		JavaScript: "v1.2.3-rc.1",
		DotNet:     "1.2.3-rc.1",
		Go:         "v1.2.3-rc.1",
	}

	tests := []struct {
		language string
		expected string
	}{
		{"generic", "1.2.3-rc.1"},
		{"semver", "1.2.3-rc.1"},
		{"python", "1.2.3rc1"},
		{"javascript", "v1.2.3-rc.1"},
		{"js", "v1.2.3-rc.1"},
		{"node", "v1.2.3-rc.1"},
		{"dotnet", "1.2.3-rc.1"},
		{".net", "1.2.3-rc.1"},
		{"csharp", "1.2.3-rc.1"},
		{"go", "v1.2.3-rc.1"},
		{"golang", "v1.2.3-rc.1"},
		{"unknown", "1.2.3-rc.1"}, // Should default to SemVer
	}

	for _, test := range tests {
		t.Run(test.language, func(t *testing.T) {
			result := getVersionOutput(versions, test.language)
			require.Equal(t, test.expected, result)
		})
	}
}

func TestCLIShowVersion(t *testing.T) {
	t.Run("Text", func(t *testing.T) {
		cli := &CLI{ShowVersion: true}
		output, err := captureStdout(t, cli.Run)
		require.NoError(t, err)
		require.Contains(t, output, "gitversion version")
		require.Contains(t, output, "dev") // Default version should be "dev"
	})

	t.Run("JSON", func(t *testing.T) {
		cli := &CLI{ShowVersion: true, JSON: true}
		output, err := captureStdout(t, cli.Run)
		require.NoError(t, err)

		var versionInfo map[string]string
		require.NoError(t, json.Unmarshal([]byte(output), &versionInfo))
		require.Equal(t, "dev", versionInfo["version"])
		require.Equal(t, "gitversion", versionInfo["name"])
	})
}

func TestCLIConvertVersion(t *testing.T) {
	t.Run("Python", func(t *testing.T) {
		cli := &CLI{Commitish: "1.2.3-beta.2", Language: "python"}
		output, err := captureStdout(t, cli.Run)
		require.NoError(t, err)
		require.Equal(t, "1.2.3b2\n", output)
	})

	t.Run("JSON", func(t *testing.T) {
		cli := &CLI{Commitish: "v1.2.3", JSON: true}
		output, err := captureStdout(t, cli.Run)
		require.NoError(t, err)

		var out Output
		require.NoError(t, json.Unmarshal([]byte(output), &out))
		require.Equal(t, "1.2.3", out.SemVer)
		require.Equal(t, "1.2.3", out.Python)
		require.Equal(t, "v1.2.3", out.JavaScript)
		require.Equal(t, "1.2.3", out.DotNet)
		require.Equal(t, "v1.2.3", out.Go)
		require.Nil(t, out.Distance)
	})

	t.Run("Invalid", func(t *testing.T) {
		cli := &CLI{Commitish: "1.2.x"}
		_, err := captureStdout(t, cli.Run)
		require.Error(t, err)
		require.Contains(t, err.Error(), "converting version")
	})
}

func TestCLICalculateVersion(t *testing.T) {
	t.Run("Exact tag", func(t *testing.T) {
		dir, repo, commits := testRepo(t, 2)
		_, err := repo.CreateTag("v1.2.0", commits[1], nil)
		require.NoError(t, err)

		cli := &CLI{Repo: dir, Language: "generic"}
		output, err := captureStdout(t, cli.Run)
		require.NoError(t, err)
		require.Equal(t, "1.2.0\n", output)
	})

	t.Run("Annotated tag message", func(t *testing.T) {
		dir, repo, commits := testRepo(t, 1)
		_, err := repo.CreateTag("v0.3.0", commits[0], &git.CreateTagOptions{
			Tagger:  &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
			Message: "First beta",
		})
		require.NoError(t, err)

		cli := &CLI{Repo: dir, JSON: true}
		output, err := captureStdout(t, cli.Run)
		require.NoError(t, err)

		var out Output
		require.NoError(t, json.Unmarshal([]byte(output), &out))
		require.Equal(t, "0.3.0", out.SemVer)
		require.Equal(t, "First beta", out.Message)
	})

	t.Run("Commits after tag as YAML", func(t *testing.T) {
		dir, repo, commits := testRepo(t, 3)
		_, err := repo.CreateTag("v1.2.0", commits[0], nil)
		require.NoError(t, err)

		cli := &CLI{Repo: dir, YAML: true}
		output, err := captureStdout(t, cli.Run)
		require.NoError(t, err)

		var out map[string]interface{}
		require.NoError(t, yaml.Unmarshal([]byte(output), &out))
		require.Equal(t, "1.2.0+2."+commits[2].String()[:8], out["semver"])
		require.Equal(t, "tag", out["source"])
		require.Equal(t, "v1.2.0", out["tag"])
		require.Equal(t, 2, out["distance"])
		require.Equal(t, commits[2].String(), out["commit"])
	})

	t.Run("Branch override with custom rules", func(t *testing.T) {
		dir, _, _ := testRepo(t, 2)
		config := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(config, []byte(`
rules:
  - kind: branch
    pattern: 'feature/(?<name>.+)'
    prerelease: '{name}'
`), 0o600))

		cli := &CLI{Repo: dir, Config: config, Branch: "feature/foo", JSON: true}
		output, err := captureStdout(t, cli.Run)
		require.NoError(t, err)

		var out Output
		require.NoError(t, json.Unmarshal([]byte(output), &out))
		require.Equal(t, "0.0.0-foo", out.SemVer)
		require.Equal(t, "branch", out.Source)
		require.Equal(t, "feature/foo", out.Branch)
	})

	t.Run("No matching rule", func(t *testing.T) {
		dir, _, _ := testRepo(t, 1)
		config := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(config, []byte("rules:\n  - kind: branch\n    pattern: main\n"), 0o600))

		cli := &CLI{Repo: dir, Config: config}
		output, err := captureStdout(t, cli.Run)
		require.Error(t, err)
		require.Empty(t, output)

		var noMatch *gitversion.NoMatchingVersionError
		require.True(t, errors.As(err, &noMatch))
	})

	t.Run("Invalid rule", func(t *testing.T) {
		dir, _, _ := testRepo(t, 1)
		config := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(config, []byte("rules:\n  - kind: tag\n    pattern: 'v('\n"), 0o600))

		cli := &CLI{Repo: dir, Config: config}
		_, err := captureStdout(t, cli.Run)

		var compileErr *gitversion.RuleCompilationError
		require.True(t, errors.As(err, &compileErr))
	})

	t.Run("Non-git directory", func(t *testing.T) {
		cli := &CLI{Repo: t.TempDir()}
		output, err := captureStdout(t, cli.Run)
		require.Error(t, err)
		require.Contains(t, err.Error(), "opening repository")
		require.Empty(t, output)
	})
}
