package gitversion

import (
	"fmt"
	"strings"
)

// Built-in template variables available to every rule.
const (
	VarDistance   = "distance"
	VarSha        = "sha"
	VarShortSha   = "shortSha"
	VarBranch     = "branch"
	VarBranchSlug = "branchSlug"
	VarTag        = "tag"
	VarDirty      = "dirty"
	VarMessage    = "message"
)

var builtinVars = map[string]bool{
	VarDistance:   true,
	VarSha:        true,
	VarShortSha:   true,
	VarBranch:     true,
	VarBranchSlug: true,
	VarTag:        true,
	VarDirty:      true,
	VarMessage:    true,
}

type segment struct {
	text     string
	variable bool
}

// Template is a compiled string with {name} placeholders. "{{" and "}}"
// stand for literal braces.
type Template struct {
	source   string
	segments []segment
}

func parseTemplate(s string) (*Template, error) {
	t := &Template{source: s}
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			t.segments = append(t.segments, segment{text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '{':
			if i+1 < len(s) && s[i+1] == '{' {
				lit.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(s[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("unclosed placeholder at offset %d", i)
			}
			name := s[i+1 : i+1+end]
			if !isIdentifier(name) {
				return nil, fmt.Errorf("invalid placeholder %q", "{"+name+"}")
			}
			flush()
			t.segments = append(t.segments, segment{text: name, variable: true})
			i += end + 1
		case '}':
			if i+1 < len(s) && s[i+1] == '}' {
				lit.WriteByte('}')
				i++
				continue
			}
			return nil, fmt.Errorf("unmatched '}' at offset %d", i)
		default:
			lit.WriteByte(c)
		}
	}
	flush()

	return t, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// Variables returns the placeholder names in order of appearance.
func (t *Template) Variables() []string {
	if t == nil {
		return nil
	}
	var out []string
	for _, seg := range t.segments {
		if seg.variable {
			out = append(out, seg.text)
		}
	}
	return out
}

// References reports whether the template uses the named variable.
func (t *Template) References(name string) bool {
	if t == nil {
		return false
	}
	for _, seg := range t.segments {
		if seg.variable && seg.text == name {
			return true
		}
	}
	return false
}

// Render substitutes vars into the template. Unknown names and a nil
// template render empty.
func (t *Template) Render(vars map[string]string) string {
	if t == nil {
		return ""
	}
	var b strings.Builder
	for _, seg := range t.segments {
		if seg.variable {
			b.WriteString(vars[seg.text])
		} else {
			b.WriteString(seg.text)
		}
	}
	return b.String()
}

func (t *Template) String() string {
	if t == nil {
		return ""
	}
	return t.source
}

// slugify replaces every character outside [0-9A-Za-z-] with '-'.
func slugify(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '-':
			return r
		default:
			return '-'
		}
	}, s)
}
