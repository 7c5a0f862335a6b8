package gitversion

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommitAncestryDistance(t *testing.T) {
	ancestry := NewCommitAncestry([]string{"e", "d", "c", "b", "a"})

	tests := []struct {
		name     string
		from, to string
		distance int
		ok       bool
	}{
		{"Same commit", "e", "e", 0, true},
		{"Direct parent", "e", "d", 1, true},
		{"Root", "e", "a", 4, true},
		{"From an ancestor", "c", "a", 2, true},
		{"Target is newer", "c", "e", 0, false},
		{"Unknown target", "e", "z", 0, false},
		{"Unknown origin", "z", "a", 0, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			distance, ok := ancestry.Distance(test.from, test.to)
			require.Equal(t, test.ok, ok)
			require.Equal(t, test.distance, distance)
		})
	}
}

func TestCommitAncestrySnapshot(t *testing.T) {
	commits := []string{"b", "a"}
	ancestry := NewCommitAncestry(commits)

	commits[0] = "mutated"
	require.Equal(t, []string{"b", "a"}, ancestry.Commits())
	require.True(t, ancestry.Contains("b"))
	require.False(t, ancestry.Contains("mutated"))
	require.Equal(t, 2, ancestry.Len())

	out := ancestry.Commits()
	out[0] = "changed"
	require.Equal(t, []string{"b", "a"}, ancestry.Commits())
}

func TestCommitAncestryEmpty(t *testing.T) {
	var ancestry CommitAncestry
	require.Equal(t, 0, ancestry.Len())

	_, ok := ancestry.Distance("a", "a")
	require.False(t, ok)
}
