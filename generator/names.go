package generator

import (
	"strconv"
	"strings"

	"github.com/hiraide/psigen/bnf"
)

// elementType returns the holder constant for a rule node: the rule's
// elementType attribute (its own name if unset) behind the resolved
// elementTypePrefix, uppercased.
func (g *Generator) elementType(r *bnf.Rule) string {
	name := r.Name
	if v, ok := r.LocalAttr("elementType", ""); ok {
		if s, isStr := v.(string); isStr {
			name = s
		}
	}
	return g.grammar.StringAttr(r, "elementTypePrefix", "", "") + strings.ToUpper(name)
}

// tokenElementType returns the holder constant for a plain token name.
func (g *Generator) tokenElementType(token string) string {
	return g.grammar.RootString("elementTypePrefix", "") + strings.ToUpper(token)
}

// psiClassName builds the PSI class name for ruleName: CamelCase over '_'
// segments, optionally behind the psiClassPrefix attribute resolved
// against rule.
func (g *Generator) psiClassName(rule *bnf.Rule, ruleName string, withPrefix bool) string {
	var b strings.Builder
	if withPrefix {
		b.WriteString(g.grammar.StringAttr(rule, "psiClassPrefix", "", ""))
	}
	for _, s := range strings.Split(ruleName, "_") {
		if s == "" {
			continue
		}
		b.WriteString(strings.ToUpper(s[:1]))
		b.WriteString(strings.ToLower(s[1:]))
	}
	return b.String()
}

// getterName derives the accessor name for a child, honoring the
// methodRenames attribute keyed by the child name.
func (g *Generator) getterName(rule *bnf.Rule, childName string, many bool) string {
	body := g.grammar.StringAttr(rule, "methodRenames", childName, "get"+g.psiClassName(rule, childName, false))
	if many {
		return body + "List"
	}
	return body
}

func shortName(className string) string {
	i := strings.LastIndex(className, ".")
	if i < 0 {
		return className
	}
	return className[i+1:]
}

func packageName(className string) string {
	i := strings.LastIndex(className, ".")
	if i < 0 {
		return ""
	}
	return className[:i]
}

func nextName(funcName string, i int) string {
	return funcName + "_" + strconv.Itoa(i)
}
