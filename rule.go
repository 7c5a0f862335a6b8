package gitversion

import (
	"fmt"
	"regexp"
)

// RefKind selects which refs a rule is tested against.
type RefKind string

const (
	KindTag    RefKind = "tag"
	KindBranch RefKind = "branch"
)

// Capture group names that supply the numeric version components.
const (
	GroupMajor = "major"
	GroupMinor = "minor"
	GroupPatch = "patch"
)

var versionGroups = []string{GroupMajor, GroupMinor, GroupPatch}

// RuleSpec is the uncompiled form of a rule.
type RuleSpec struct {
	Name          string
	Kind          RefKind
	Pattern       string
	Prerelease    string
	BuildMetadata string

	// Exact, when set, replaces both templates for a tag on HEAD itself.
	Exact *ExactSpec
}

// ExactSpec holds the templates used when the matched tag is at distance 0.
type ExactSpec struct {
	Prerelease    string
	BuildMetadata string
}

// Rule is a compiled, immutable match rule.
type Rule struct {
	name    string
	kind    RefKind
	pattern *regexp.Regexp
	groups  map[string]int

	prerelease    *Template
	buildMetadata *Template

	exactPrerelease    *Template
	exactBuildMetadata *Template
}

type templateField struct {
	field  string
	source string
	dst    **Template
}

// CompileRule validates spec and compiles its pattern and templates. The
// pattern must match the whole ref name.
func CompileRule(spec RuleSpec) (*Rule, error) {
	name := spec.Name
	if name == "" {
		name = spec.Pattern
	}

	fail := func(field string, err error) (*Rule, error) {
		return nil, &RuleCompilationError{Rule: name, Field: field, Err: err}
	}

	switch spec.Kind {
	case KindTag, KindBranch:
	default:
		return fail("kind", fmt.Errorf("unknown ref kind %q", spec.Kind))
	}

	if spec.Pattern == "" {
		return fail("pattern", fmt.Errorf("pattern is required"))
	}

	re, err := regexp.Compile("^(?:" + spec.Pattern + ")$")
	if err != nil {
		return fail("pattern", err)
	}

	groups := make(map[string]int)
	for i, g := range re.SubexpNames() {
		if g != "" {
			groups[g] = i
		}
	}

	r := &Rule{
		name:    name,
		kind:    spec.Kind,
		pattern: re,
		groups:  groups,
	}

	templates := []templateField{
		{"prerelease", spec.Prerelease, &r.prerelease},
		{"build_metadata", spec.BuildMetadata, &r.buildMetadata},
	}
	if spec.Exact != nil {
		templates = append(templates,
			templateField{"exact.prerelease", spec.Exact.Prerelease, &r.exactPrerelease},
			templateField{"exact.build_metadata", spec.Exact.BuildMetadata, &r.exactBuildMetadata},
		)
	}

	for _, tmpl := range templates {
		t, err := parseTemplate(tmpl.source)
		if err != nil {
			return fail(tmpl.field, err)
		}
		for _, v := range t.Variables() {
			if _, ok := groups[v]; !ok && !builtinVars[v] {
				return fail(tmpl.field, fmt.Errorf("unknown variable %q", v))
			}
		}
		*tmpl.dst = t
	}

	return r, nil
}

// MustCompileRule is like CompileRule but panics on error.
func MustCompileRule(spec RuleSpec) *Rule {
	r, err := CompileRule(spec)
	if err != nil {
		panic(err)
	}
	return r
}

// CompileRules compiles specs in order, stopping at the first failure.
func CompileRules(specs []RuleSpec) ([]*Rule, error) {
	rules := make([]*Rule, 0, len(specs))
	for _, spec := range specs {
		r, err := CompileRule(spec)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func (r *Rule) Name() string { return r.name }
func (r *Rule) Kind() RefKind { return r.kind }

func (r *Rule) String() string {
	return fmt.Sprintf("%s rule %q", r.kind, r.name)
}

// usesBuiltin reports whether any template of r reads the built-in variable
// name, i.e. references it without a capture group of the same name.
func (r *Rule) usesBuiltin(name string) bool {
	if _, ok := r.groups[name]; ok {
		return false
	}
	for _, t := range []*Template{r.prerelease, r.buildMetadata, r.exactPrerelease, r.exactBuildMetadata} {
		if t.References(name) {
			return true
		}
	}
	return false
}

// templatesFor picks the prerelease and build metadata templates. For an
// exact match, templates referencing the distance are dropped unless the rule
// has exact overrides. A nil template renders empty.
func (r *Rule) templatesFor(exact bool) (pre, build *Template) {
	if !exact {
		return r.prerelease, r.buildMetadata
	}
	if r.exactPrerelease != nil || r.exactBuildMetadata != nil {
		return r.exactPrerelease, r.exactBuildMetadata
	}

	pre, build = r.prerelease, r.buildMetadata
	if pre.References(VarDistance) {
		pre = nil
	}
	if build.References(VarDistance) {
		build = nil
	}
	return pre, build
}
