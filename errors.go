package gitversion

import (
	"fmt"
	"strings"
)

// InvalidVersionComponentsError is returned when a version would have a
// negative or non-numeric major, minor or patch component, or a pre-release
// tag or build metadata that is not made of semver identifiers.
type InvalidVersionComponentsError struct {
	Major, Minor, Patch int

	// Component names the offending part when it is not a numeric component.
	Component string

	// Raw holds the offending text: a captured group that was not a number,
	// or a rendered pre-release tag or build metadata.
	Raw string

	Err error
}

func (e *InvalidVersionComponentsError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("invalid %s %q: %v", e.Component, e.Raw, e.Err)
	}
	if e.Raw != "" {
		return fmt.Sprintf("invalid version component %q", e.Raw)
	}
	return fmt.Sprintf("invalid version components %d.%d.%d: must not be negative",
		e.Major, e.Minor, e.Patch)
}

// RuleCompilationError is returned when a configured rule cannot be compiled.
type RuleCompilationError struct {
	Rule  string
	Field string
	Err   error
}

func (e *InvalidVersionComponentsError) Unwrap() error {
	return e.Err
}

func (e *RuleCompilationError) Error() string {
	return fmt.Sprintf("compiling rule %q: %s: %v", e.Rule, e.Field, e.Err)
}

func (e *RuleCompilationError) Unwrap() error {
	return e.Err
}

// MissingVersionComponentError is returned when a tag rule matched a ref but
// its pattern did not capture a required version component. It is a
// configuration defect and aborts the whole resolution.
type MissingVersionComponentError struct {
	Rule      string
	Ref       string
	Component string
}

func (e *MissingVersionComponentError) Error() string {
	return fmt.Sprintf("rule %q matched %q but captured no %q group", e.Rule, e.Ref, e.Component)
}

// NoMatchingVersionError is returned when neither a reachable tag nor the
// current branch matched any rule.
type NoMatchingVersionError struct {
	Head   string
	Branch string

	// Candidates lists every ref name that was tried.
	Candidates []string
}

func (e *NoMatchingVersionError) Error() string {
	msg := fmt.Sprintf("no rule matched any reachable tag or branch %q at %s", e.Branch, shortHash(e.Head))
	if len(e.Candidates) > 0 {
		msg += " (tried: " + strings.Join(e.Candidates, ", ") + ")"
	}
	return msg
}
