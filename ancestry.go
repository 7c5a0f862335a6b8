package gitversion

// CommitAncestry is an ordered, read-only list of commit hashes starting at
// HEAD and following first parents back to the root.
type CommitAncestry struct {
	commits []string
	index   map[string]int
}

// NewCommitAncestry indexes commits. Only the first occurrence of a
// duplicated hash is kept in the index.
func NewCommitAncestry(commits []string) CommitAncestry {
	owned := make([]string, len(commits))
	copy(owned, commits)

	index := make(map[string]int, len(owned))
	for i, c := range owned {
		if _, ok := index[c]; !ok {
			index[c] = i
		}
	}

	return CommitAncestry{commits: owned, index: index}
}

// Len returns the number of commits in the ancestry.
func (a CommitAncestry) Len() int {
	return len(a.commits)
}

// Contains reports whether commit is part of the ancestry.
func (a CommitAncestry) Contains(commit string) bool {
	_, ok := a.index[commit]
	return ok
}

// Commits returns a copy of the ordered commit list.
func (a CommitAncestry) Commits() []string {
	out := make([]string, len(a.commits))
	copy(out, a.commits)
	return out
}

// Distance counts the commit steps from one commit back to an older one.
// It returns false when either commit is missing or to is not an ancestor
// of from.
func (a CommitAncestry) Distance(from, to string) (int, bool) {
	fi, ok := a.index[from]
	if !ok {
		return 0, false
	}
	ti, ok := a.index[to]
	if !ok || ti < fi {
		return 0, false
	}
	return ti - fi, true
}
