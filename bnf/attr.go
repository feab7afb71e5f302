package bnf

import (
	"regexp"
)

// CompilePattern compiles an attribute pattern. Patterns match whole
// names, never substrings.
func CompilePattern(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("^(?:" + pattern + ")$")
}

// LocalAttr resolves an attribute within a single rule. Pattern-qualified
// declarations win over unqualified ones; the pattern is matched against
// match, or against the rule name when match is empty. An unparsable
// pattern never matches.
func (r *Rule) LocalAttr(name, match string) (interface{}, bool) {
	if r == nil {
		return nil, false
	}
	if match == "" {
		match = r.Name
	}
	for _, a := range r.Attrs {
		if a.Name != name || !a.HasPattern {
			continue
		}
		re, err := CompilePattern(a.Pattern)
		if err != nil {
			continue
		}
		if re.MatchString(match) {
			return a.Value, true
		}
	}
	for _, a := range r.Attrs {
		if a.Name == name && !a.HasPattern {
			return a.Value, true
		}
	}
	return nil, false
}

// RootAttr resolves a root-level attribute.
func (g *Grammar) RootAttr(name string) (interface{}, bool) {
	for _, a := range g.Attrs {
		if a.Name == name && !a.HasPattern {
			return a.Value, true
		}
	}
	return nil, false
}

// Attr resolves an attribute from the most specific scope outward:
// pattern-qualified rule attribute, unqualified rule attribute, root
// attribute. rule may be nil for a root-only lookup.
func (g *Grammar) Attr(rule *Rule, name, match string) (interface{}, bool) {
	if v, ok := rule.LocalAttr(name, match); ok {
		return v, true
	}
	return g.RootAttr(name)
}

func (g *Grammar) StringAttr(rule *Rule, name, match, def string) string {
	v, ok := g.Attr(rule, name, match)
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}

func (g *Grammar) RootString(name, def string) string {
	v, ok := g.RootAttr(name)
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}

func (g *Grammar) RootBool(name string, def bool) bool {
	v, ok := g.RootAttr(name)
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

func localBool(r *Rule, name string) bool {
	v, ok := r.LocalAttr(name, "")
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// IsPrivate reports whether a rule produces no node and no PSI class.
func (r *Rule) IsPrivate() bool {
	return localBool(r, "private")
}

// IsExternal reports whether a rule delegates to an external parser
// function.
func (r *Rule) IsExternal() bool {
	return localBool(r, "external")
}

// IsMeta reports whether a rule takes other parsers as parameters.
func (r *Rule) IsMeta() bool {
	return localBool(r, "meta")
}

// AttrNameByValue finds the attribute whose string value equals text,
// searching the rule scope first and the root scope after. Token text
// declared this way ('<name>="<text>"') is matched by name at the call
// site and by constant in the element-type holder.
func (g *Grammar) AttrNameByValue(rule *Rule, text string) string {
	if rule != nil {
		for _, a := range rule.Attrs {
			if s, ok := a.Value.(string); ok && s == text && !a.HasPattern {
				return a.Name
			}
		}
	}
	for _, a := range g.Attrs {
		if s, ok := a.Value.(string); ok && s == text && !a.HasPattern {
			return a.Name
		}
	}
	return ""
}
