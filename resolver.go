package gitversion

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// shortHashLength is the number of hex characters in {shortSha}.
const shortHashLength = 8

// Resolve captures the repository state from opts.Source and derives a
// version from it. An exact tag on HEAD wins over the nearest ancestor tag,
// which wins over a branch rule; when nothing matches a
// *NoMatchingVersionError is returned.
func Resolve(opts Options) (*Resolution, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("source is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	snap, err := TakeSnapshot(opts.Source, opts.Rules)
	if err != nil {
		return nil, fmt.Errorf("capturing repository state: %w", err)
	}

	return ResolveSnapshot(snap, opts.Rules, logger)
}

// ResolveVersion is Resolve without diagnostics.
func ResolveVersion(src RefSource, rules []*Rule) (Version, error) {
	res, err := Resolve(Options{Source: src, Rules: rules})
	if err != nil {
		return Version{}, err
	}
	return res.Version, nil
}

// TakeSnapshot reads everything the resolver needs from src exactly once.
// The worktree is only checked for changes when one of rules reads {dirty}.
func TakeSnapshot(src RefSource, rules []*Rule) (*Snapshot, error) {
	head, err := src.Head()
	if err != nil {
		return nil, fmt.Errorf("reading head: %w", err)
	}

	ancestry, err := src.Ancestry(head)
	if err != nil {
		return nil, fmt.Errorf("reading ancestry of %s: %w", shortHash(head), err)
	}

	tags, err := src.Tags()
	if err != nil {
		return nil, fmt.Errorf("reading tags: %w", err)
	}

	branch, err := src.CurrentBranch()
	if err != nil {
		return nil, fmt.Errorf("reading current branch: %w", err)
	}

	var dirty bool
	if dc, ok := src.(DirtyChecker); ok && usesBuiltin(rules, VarDirty) {
		dirty, err = dc.IsDirty()
		if err != nil {
			return nil, fmt.Errorf("checking if worktree is dirty: %w", err)
		}
	}

	return &Snapshot{
		Head:     head,
		Ancestry: NewCommitAncestry(ancestry),
		Tags:     slices.Clone(tags),
		Branch:   branch,
		Dirty:    dirty,
	}, nil
}

// ResolveSnapshot derives a version from a captured snapshot. It does not
// touch the repository and is safe to call concurrently.
func ResolveSnapshot(snap *Snapshot, rules []*Rule, logger *zap.Logger) (*Resolution, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	logger = logger.With(zap.String("head", shortHash(snap.Head)), zap.String("branch", snap.Branch))

	candidates, tried, err := collectTaggedCommits(snap, rules, logger)
	if err != nil {
		return nil, err
	}

	if len(candidates) > 0 {
		best := selectBest(candidates)
		logger.Debug("Selected tag",
			zap.String("tag", best.Tag.Name),
			zap.String("rule", best.Match.Rule.name),
			zap.Int("distance", best.Distance))

		version, err := buildVersion(snap, best.Match, best.Distance, best.Tag)
		if err != nil {
			return nil, err
		}

		return &Resolution{
			Version:  version,
			Source:   SourceTag,
			Rule:     best.Match.Rule.name,
			Tag:      best.Tag.Name,
			Branch:   snap.Branch,
			Head:     snap.Head,
			Distance: best.Distance,
			Message:  best.Tag.Message,
		}, nil
	}

	match, ok, err := matchBranch(snap.Branch, rules)
	if err != nil {
		return nil, err
	}
	if snap.Branch != "" {
		tried = append(tried, "branch "+snap.Branch)
	}

	if !ok {
		return nil, &NoMatchingVersionError{Head: snap.Head, Branch: snap.Branch, Candidates: tried}
	}

	distance := snap.Ancestry.Len()
	logger.Debug("Selected branch rule",
		zap.String("rule", match.Rule.name),
		zap.Int("distance", distance))

	version, err := buildVersion(snap, match, distance, TagRef{})
	if err != nil {
		return nil, err
	}

	return &Resolution{
		Version:  version,
		Source:   SourceBranch,
		Rule:     match.Rule.name,
		Branch:   snap.Branch,
		Head:     snap.Head,
		Distance: distance,
	}, nil
}

// collectTaggedCommits pairs every tag reachable from HEAD with the first tag
// rule that matches it. It also returns the names of reachable tags that
// matched no rule.
func collectTaggedCommits(snap *Snapshot, rules []*Rule, logger *zap.Logger) ([]TaggedCommit, []string, error) {
	var (
		candidates []TaggedCommit
		tried      []string
	)

	for _, tag := range snap.Tags {
		distance, ok := snap.Ancestry.Distance(snap.Head, tag.Target)
		if !ok {
			logger.Debug("Skipping unreachable tag", zap.String("tag", tag.Name))
			continue
		}

		matched := false
		for i, rule := range rules {
			if rule.kind != KindTag {
				continue
			}

			result, ok, err := Match(rule, tag.Name)
			if err != nil {
				return nil, nil, err
			}
			if !ok {
				continue
			}

			candidates = append(candidates, TaggedCommit{
				Tag:      tag,
				Match:    result,
				Distance: distance,
				Position: i,
			})
			matched = true
			break
		}

		if !matched {
			tried = append(tried, "tag "+tag.Name)
		}
	}

	return candidates, tried, nil
}

func matchBranch(branch string, rules []*Rule) (MatchResult, bool, error) {
	for _, rule := range rules {
		if rule.kind != KindBranch {
			continue
		}

		result, ok, err := Match(rule, branch)
		if err != nil {
			return MatchResult{}, false, err
		}
		if ok {
			return result, true, nil
		}
	}
	return MatchResult{}, false, nil
}

// selectBest orders candidates by distance, then rule position, then
// descending version, then tag name, and returns the first.
func selectBest(candidates []TaggedCommit) TaggedCommit {
	sorted := slices.Clone(candidates)
	slices.SortStableFunc(sorted, func(a, b TaggedCommit) int {
		if a.Distance != b.Distance {
			return compareInt(a.Distance, b.Distance)
		}
		if a.Position != b.Position {
			return compareInt(a.Position, b.Position)
		}
		if c := coreVersion(b.Match).Compare(coreVersion(a.Match)); c != 0 {
			return c
		}
		return strings.Compare(a.Tag.Name, b.Tag.Name)
	})
	return sorted[0]
}

func coreVersion(m MatchResult) Version {
	return Version{major: m.Major, minor: m.Minor, patch: m.Patch}
}

func usesBuiltin(rules []*Rule, name string) bool {
	for _, rule := range rules {
		if rule.usesBuiltin(name) {
			return true
		}
	}
	return false
}

func buildVersion(snap *Snapshot, match MatchResult, distance int, tag TagRef) (Version, error) {
	vars := map[string]string{
		VarDistance:   strconv.Itoa(distance),
		VarSha:        snap.Head,
		VarShortSha:   shortHash(snap.Head),
		VarBranch:     snap.Branch,
		VarBranchSlug: slugify(snap.Branch),
		VarTag:        tag.Name,
		VarDirty:      "",
		VarMessage:    tag.Message,
	}
	if snap.Dirty {
		vars[VarDirty] = "dirty"
	}
	for name, value := range match.Groups {
		vars[name] = value
	}

	exact := tag.Name != "" && distance == 0
	pre, build := match.Rule.templatesFor(exact)

	version, err := NewVersion(match.Major, match.Minor, match.Patch, pre.Render(vars), build.Render(vars))
	if err != nil {
		return Version{}, fmt.Errorf("rendering %s: %w", match.Rule, err)
	}
	return version, nil
}

func shortHash(hash string) string {
	if len(hash) <= shortHashLength {
		return hash
	}
	return hash[:shortHashLength]
}
