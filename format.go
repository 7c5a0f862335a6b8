// Package gitversion computes semantic versions from Git repository state.
//
// The language conversions in this file are adapted from pulumictl
// (https://github.com/pulumi/pulumictl), licensed under the Apache License 2.0.
package gitversion

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	pythonNumberRe = regexp.MustCompile(`\d+`)
	pythonLocalRe  = regexp.MustCompile(`[^0-9A-Za-z]+`)
)

// Languages renders v for several language ecosystems.
func Languages(v Version) *LanguageVersions {
	generic := v.String()

	return &LanguageVersions{
		SemVer:     generic,
		Python:     PythonVersion(v),
		JavaScript: "v" + generic,
		DotNet:     generic,
		Go:         "v" + generic,
	}
}

// PythonVersion renders v as a PEP 440 version. Pre-release tags starting
// with dev, alpha, beta or rc map to their Python equivalents; any other
// pre-release becomes a dev release. Build metadata and the remainder of an
// unrecognized pre-release become the local version label.
func PythonVersion(v Version) string {
	base := fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch())

	var local []string
	pre := v.PrereleaseTag()
	if pre != "" {
		prefix, remaining := pythonPrePrefix(pre)

		number := "0"
		if n := pythonNumberRe.FindString(remaining); n != "" {
			number = strings.TrimLeft(n, "0")
			if number == "" {
				number = "0"
			}
		}

		if prefix == "" {
			base += ".dev" + number
			if label := pythonLocalLabel(pre); strings.Trim(label, "0123456789.") != "" {
				local = append(local, label)
			}
		} else {
			base += prefix + number
		}
	}

	if label := pythonLocalLabel(v.BuildMetadata()); label != "" {
		local = append(local, label)
	}

	if len(local) > 0 {
		return base + "+" + strings.Join(local, ".")
	}
	return base
}

func pythonPrePrefix(pre string) (string, string) {
	lower := strings.ToLower(pre)
	switch {
	case strings.HasPrefix(lower, "dev"):
		return ".dev", pre[3:]
	case strings.HasPrefix(lower, "alpha"):
		return "a", pre[5:]
	case strings.HasPrefix(lower, "beta"):
		return "b", pre[4:]
	case strings.HasPrefix(lower, "rc"):
		return "rc", pre[2:]
	default:
		return "", pre
	}
}

func pythonLocalLabel(s string) string {
	return strings.Trim(pythonLocalRe.ReplaceAllString(strings.ToLower(s), "."), ".")
}
