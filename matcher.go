package gitversion

import (
	"strconv"
)

// Match tests refName against rule. The boolean result is false when the
// pattern does not match. An error means the rule itself is unusable: a tag
// rule that matched without capturing major, minor and patch, or a captured
// component that is not a non-negative integer. Branch rules default missing
// components to 0.
func Match(rule *Rule, refName string) (MatchResult, bool, error) {
	if refName == "" {
		return MatchResult{}, false, nil
	}

	loc := rule.pattern.FindStringSubmatchIndex(refName)
	if loc == nil {
		return MatchResult{}, false, nil
	}

	groups := make(map[string]string, len(rule.groups))
	captured := make(map[string]bool, len(rule.groups))
	for name, i := range rule.groups {
		start, end := loc[2*i], loc[2*i+1]
		if start < 0 {
			groups[name] = ""
			continue
		}
		groups[name] = refName[start:end]
		captured[name] = true
	}

	result := MatchResult{Rule: rule, Groups: groups}
	components := []*int{&result.Major, &result.Minor, &result.Patch}

	for i, name := range versionGroups {
		if !captured[name] {
			if rule.kind == KindTag {
				return MatchResult{}, false, &MissingVersionComponentError{
					Rule:      rule.name,
					Ref:       refName,
					Component: name,
				}
			}
			continue
		}

		n, err := strconv.Atoi(groups[name])
		if err != nil || n < 0 {
			return MatchResult{}, false, &InvalidVersionComponentsError{Raw: groups[name]}
		}
		*components[i] = n
	}

	return result, true, nil
}
