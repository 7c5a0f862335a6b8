// Package gitversion computes semantic versions from Git repository state.
package gitversion

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/blang/semver"
)

// Version is an immutable semantic version. The zero value is 0.0.0.
type Version struct {
	major         int
	minor         int
	patch         int
	prereleaseTag string
	buildMetadata string
}

// NewVersion creates a Version. Numeric components must not be negative, and
// the pre-release tag and build metadata must be dot-separated semver
// identifiers so that the rendered version parses back to the same value.
func NewVersion(major, minor, patch int, prereleaseTag, buildMetadata string) (Version, error) {
	if major < 0 || minor < 0 || patch < 0 {
		return Version{}, &InvalidVersionComponentsError{Major: major, Minor: minor, Patch: patch}
	}
	if prereleaseTag != "" {
		if _, err := parsePrerelease(prereleaseTag); err != nil {
			return Version{}, &InvalidVersionComponentsError{Component: "pre-release tag", Raw: prereleaseTag, Err: err}
		}
	}
	if buildMetadata != "" {
		for _, part := range strings.Split(buildMetadata, ".") {
			if _, err := semver.NewBuildVersion(part); err != nil {
				return Version{}, &InvalidVersionComponentsError{Component: "build metadata", Raw: buildMetadata, Err: err}
			}
		}
	}

	return Version{
		major:         major,
		minor:         minor,
		patch:         patch,
		prereleaseTag: prereleaseTag,
		buildMetadata: buildMetadata,
	}, nil
}

// ParseVersion parses a semantic version string, with or without a leading "v".
func ParseVersion(s string) (Version, error) {
	parsed, err := semver.Parse(strings.TrimPrefix(s, "v"))
	if err != nil {
		return Version{}, fmt.Errorf("parsing version %q: %w", s, err)
	}

	if parsed.Major > math.MaxInt || parsed.Minor > math.MaxInt || parsed.Patch > math.MaxInt {
		return Version{}, fmt.Errorf("parsing version %q: component out of range", s)
	}

	pre := make([]string, 0, len(parsed.Pre))
	for _, p := range parsed.Pre {
		pre = append(pre, p.String())
	}

	return NewVersion(int(parsed.Major), int(parsed.Minor), int(parsed.Patch),
		strings.Join(pre, "."), strings.Join(parsed.Build, "."))
}

func (v Version) Major() int { return v.major }
func (v Version) Minor() int { return v.minor }
func (v Version) Patch() int { return v.patch }
func (v Version) PrereleaseTag() string { return v.prereleaseTag }
func (v Version) BuildMetadata() string { return v.buildMetadata }
func (v Version) IsPrerelease() bool { return v.prereleaseTag != "" }

// String renders the version as major.minor.patch[-prerelease][+build].
func (v Version) String() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(v.major))
	b.WriteByte('.')
	b.WriteString(strconv.Itoa(v.minor))
	b.WriteByte('.')
	b.WriteString(strconv.Itoa(v.patch))
	if v.prereleaseTag != "" {
		b.WriteByte('-')
		b.WriteString(v.prereleaseTag)
	}
	if v.buildMetadata != "" {
		b.WriteByte('+')
		b.WriteString(v.buildMetadata)
	}
	return b.String()
}

// Equal reports whether all five fields of v and o are equal.
func (v Version) Equal(o Version) bool {
	return v == o
}

// Compare orders versions by semantic version precedence and returns -1, 0
// or 1. Build metadata is ignored.
func (v Version) Compare(o Version) int {
	if c := compareInt(v.major, o.major); c != 0 {
		return c
	}
	if c := compareInt(v.minor, o.minor); c != 0 {
		return c
	}
	if c := compareInt(v.patch, o.patch); c != 0 {
		return c
	}
	return comparePrerelease(v.prereleaseTag, o.prereleaseTag)
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// comparePrerelease follows semver identifier precedence. Tags that are not
// valid semver identifiers sort after every valid tag and compare byte-wise
// among themselves, which keeps the ordering total.
func comparePrerelease(a, b string) int {
	if a == b {
		return 0
	}
	if a == "" {
		return 1
	}
	if b == "" {
		return -1
	}

	pa, errA := parsePrerelease(a)
	pb, errB := parsePrerelease(b)
	switch {
	case errA != nil && errB != nil:
		return strings.Compare(a, b)
	case errA != nil:
		return 1
	case errB != nil:
		return -1
	}

	for i := 0; i < len(pa) && i < len(pb); i++ {
		if c := pa[i].Compare(pb[i]); c != 0 {
			return c
		}
	}
	return compareInt(len(pa), len(pb))
}

func parsePrerelease(s string) ([]semver.PRVersion, error) {
	parts := strings.Split(s, ".")
	out := make([]semver.PRVersion, 0, len(parts))
	for _, part := range parts {
		pr, err := semver.NewPRVersion(part)
		if err != nil {
			return nil, err
		}
		out = append(out, pr)
	}
	return out, nil
}
