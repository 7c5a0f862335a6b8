// Package gitversion computes semantic versions from Git repository state.
package gitversion

import (
	"go.uber.org/zap"
)

// LanguageVersions contains version strings for different language ecosystems
type LanguageVersions struct {
	SemVer     string `json:"semver" yaml:"semver"`
	Python     string `json:"python" yaml:"python"`
	JavaScript string `json:"javascript" yaml:"javascript"`
	DotNet     string `json:"dotnet" yaml:"dotnet"`
	Go         string `json:"go" yaml:"go"`
}

// TagRef describes a tag and the commit it points at.
type TagRef struct {
	Name   string
	Target string

	// Message is the annotation of an annotated tag, empty for lightweight tags.
	Message string
}

// RefSource is the read-only view of a repository the resolver needs.
type RefSource interface {
	Head() (string, error)
	Ancestry(from string) ([]string, error)
	Tags() ([]TagRef, error)
	CurrentBranch() (string, error)
}

// DirtyChecker is implemented by sources that can report uncommitted changes.
type DirtyChecker interface {
	IsDirty() (bool, error)
}

// Snapshot is the repository state captured once at the start of a resolution.
type Snapshot struct {
	Head     string
	Ancestry CommitAncestry
	Tags     []TagRef
	Branch   string

	// Dirty is only checked when a rule reads {dirty}.
	Dirty bool
}

// MatchResult is the outcome of a successful Match.
type MatchResult struct {
	Rule   *Rule
	Major  int
	Minor  int
	Patch  int
	Groups map[string]string
}

// TaggedCommit is a candidate version source: a reachable tag and the first
// rule that matched it.
type TaggedCommit struct {
	Tag      TagRef
	Match    MatchResult
	Distance int

	// Position is the matched rule's index in the configured rule list.
	Position int
}

// Source identifies what a resolved version was derived from.
type Source string

const (
	SourceTag    Source = "tag"
	SourceBranch Source = "branch"
)

// Resolution is the result of a successful resolution.
type Resolution struct {
	Version  Version
	Source   Source
	Rule     string
	Tag      string
	Branch   string
	Head     string
	Distance int

	// Message is the annotation of the selected tag, if it was annotated.
	Message string
}

// Options configures a resolution.
type Options struct {
	// Source provides the repository state
	Source RefSource

	// Rules are evaluated in order; earlier rules win ties
	Rules []*Rule

	// Logger receives debug output (default: no-op)
	Logger *zap.Logger
}
