package generator

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strconv"
	"strings"

	"github.com/hiraide/psigen/bnf"
)

const (
	sectionRecover = "_SECTION_RECOVER_"
	sectionAnd     = "_SECTION_AND_"
	sectionNot     = "_SECTION_NOT_"
	sectionGeneral = "_SECTION_GENERAL_"
)

// effectiveKind folds grouping away: a parenthesized expression compiles
// like the sequence holding its single child.
func effectiveKind(e *bnf.Expr) bnf.ExprKind {
	if e.Kind == bnf.ExprParen {
		return bnf.ExprSequence
	}
	return e.Kind
}

func childExpressions(e *bnf.Expr) []*bnf.Expr {
	return e.Children
}

// isTrivial reports whether a node is pure single-child grouping: it
// compiles to a tail call and opens no marker.
func isTrivial(e *bnf.Expr) bool {
	switch effectiveKind(e) {
	case bnf.ExprSequence, bnf.ExprChoice:
		return len(childExpressions(e)) == 1
	}
	return false
}

// firstNonTrivial descends through grouping to the expression that will
// open the rule's outermost real frame. Pin, recoverUntil, and collapse
// handling attach to this node.
func firstNonTrivial(rule *bnf.Rule) *bnf.Expr {
	e := rule.Expr
	for e != nil && isTrivial(e) {
		e = childExpressions(e)[0]
	}
	return e
}

func funcHash(funcName string) string {
	h := fnv.New64a()
	h.Write([]byte(funcName))
	return strconv.FormatInt(int64(h.Sum64()), 10) + "L"
}

// generateNode emits the parser function for one named expression and
// recurses over its sub-expressions. forcePrivate marks nodes that may
// never produce an element (nested sub-expressions, private rule bodies).
func (g *Generator) generateNode(rule *bnf.Rule, node *bnf.Expr, forcePrivate bool, funcName string, visited map[*bnf.Expr]struct{}) {
	kind := effectiveKind(node)
	if node.Kind == bnf.ExprString || node.Kind == bnf.ExprNumber {
		return
	}
	if node.Kind == bnf.ExprReference && node != rule.Expr {
		return
	}
	if _, ok := visited[node]; ok {
		return
	}
	visited[node] = struct{}{}

	if node.Kind == bnf.ExprExternal {
		// only parenthesized arguments need functions of their own
		for i := 1; i < len(node.Children); i++ {
			arg := node.Children[i]
			if arg.Kind == bnf.ExprParen {
				g.generateNode(rule, arg, true, nextName(funcName, i-1), visited)
			}
		}
		return
	}

	isPrivate := forcePrivate || rule.Name == g.root
	for _, line := range strings.Split(node.String(), "\n") {
		g.out.line("// " + line)
	}
	isRule := node == rule.Expr
	isFirst := node == firstNonTrivial(rule)
	recoverRoot := ""
	if isFirst {
		if v, ok := rule.LocalAttr("recoverUntil", ""); ok {
			recoverRoot, _ = v.(string)
		}
	}
	_, canCollapse := g.inherited[rule]
	canCollapse = canCollapse && isFirst

	children := childExpressions(node)
	modifier := "private "
	if isRule {
		if isPrivate {
			modifier = ""
		} else {
			modifier = "public "
		}
	}
	g.out.line(modifier + "static boolean " + funcName + "(PsiBuilder builder_, final int level_" +
		g.collectExtraArguments(rule, true) + ") {")
	if node.Kind == bnf.ExprReference {
		if isPrivate {
			g.out.line("return " + g.generateNodeCall(rule, node, nextName(funcName, 0)) + ";")
			g.out.line("}")
			return
		}
		children = []*bnf.Expr{node}
		kind = bnf.ExprSequence
	}
	if len(children) == 0 {
		g.out.line("return true;")
		g.out.line("}")
		return
	}

	g.out.line("if (!recursion_guard_(builder_, level_, \"" + funcName + "\")) return false;")

	if isTrivial(node) {
		child := children[0]
		g.out.line("return " + g.generateNodeCall(rule, child, nextName(funcName, 0)) + ";")
		g.out.line("}")
		g.out.blank()
		g.generateNode(rule, child, forcePrivate, nextName(funcName, 0), visited)
		return
	}

	funcID := funcHash(funcName)
	if g.memoize {
		g.out.line("if (memoizedFalseBranch(builder_, " + funcID + ")) return false;")
	}

	var pinValue interface{}
	if kind == bnf.ExprSequence {
		match := funcName
		if isFirst {
			match = rule.Name
		}
		pinValue, _ = g.grammar.Attr(rule, "pin", match)
	}
	pinIndex := -1
	var pinPattern *regexp.Regexp
	switch v := pinValue.(type) {
	case int:
		pinIndex = v
	case string:
		// a pattern that does not compile is ignored, like any other
		// attribute type mismatch
		pinPattern, _ = bnf.CompilePattern(v)
	}
	pinned := pinIndex > -1 || pinPattern != nil
	pinApplied := false

	g.out.line("boolean result_ = " + strconv.FormatBool(kind == bnf.ExprZeroOrMore || kind == bnf.ExprOptional) + ";")
	if pinned {
		g.out.line("boolean pinned_ = false;")
	}
	if !isPrivate && canCollapse {
		g.out.line("final int start_ = builder_.getCurrentOffset();")
	}
	g.out.line("final Marker marker_ = builder_.mark();")
	g.out.line("try {")

	sectionType := ""
	switch {
	case recoverRoot != "":
		sectionType = sectionRecover
	case kind == bnf.ExprAnd:
		sectionType = sectionAnd
	case kind == bnf.ExprNot:
		sectionType = sectionNot
	case pinned:
		sectionType = sectionGeneral
	}
	if sectionType != "" {
		g.out.line("enterErrorRecordingSection(builder_, level_, " + sectionType + ");")
	}

	for i, child := range children {
		nodeCall := g.generateNodeCall(rule, child, nextName(funcName, i))
		switch kind {
		case bnf.ExprChoice:
			guard := ""
			if i > 0 {
				guard = "if (!result_) "
			}
			g.out.line(guard + "result_ = " + nodeCall + ";")
		case bnf.ExprSequence:
			if i > 0 {
				g.out.line("result_ = result_ && " + nodeCall + ";")
			} else {
				g.out.line("result_ = " + nodeCall + ";")
			}
			if !pinApplied && (i == pinIndex-1 || pinPattern != nil && pinPattern.MatchString(child.String())) {
				pinApplied = true
				g.out.linef("pinned_ = result_; // pin = %v", pinValue)
			}
		case bnf.ExprOptional:
			g.out.line(nodeCall + ";")
		case bnf.ExprOneOrMore, bnf.ExprZeroOrMore:
			if kind == bnf.ExprOneOrMore {
				g.out.line("result_ = " + nodeCall + ";")
			}
			g.out.line("int offset_ = builder_.getCurrentOffset();")
			g.out.line("while (result_ && !builder_.eof()) {")
			g.out.line("if (!" + nodeCall + ") break;")
			g.out.line("if (offset_ == builder_.getCurrentOffset()) {")
			g.out.line("builder_.error(\"Empty element parsed in " + funcName + "\");")
			g.out.line("break;")
			g.out.line("}")
			g.out.line("offset_ = builder_.getCurrentOffset();")
			g.out.line("}")
		case bnf.ExprAnd:
			g.out.line("result_ = " + nodeCall + ";")
		case bnf.ExprNot:
			g.out.line("result_ = !" + nodeCall + ";")
		default:
			panic(fmt.Sprintf("unexpected expression kind: %v", kind))
		}
	}
	g.out.line("}")
	g.out.line("finally {")

	pinnedSuffix := ""
	if pinned {
		pinnedSuffix = " || pinned_"
	}
	if kind == bnf.ExprAnd || kind == bnf.ExprNot {
		g.out.line("marker_.rollbackTo();")
	} else if !isPrivate {
		elementType := g.elementType(rule)
		if canCollapse {
			g.out.line("LighterASTNode last_ = result_? builder_.getLatestDoneMarker() : null;")
			g.out.line("if (last_ != null && last_.getStartOffset() == start_ && type_extends_(last_.getTokenType(), " + elementType + ")) {")
			g.out.line("marker_.drop();")
			g.out.line("}")
			g.out.line("else if (result_" + pinnedSuffix + ") {")
		} else {
			g.out.line("if (result_" + pinnedSuffix + ") {")
		}
		g.out.line("marker_.done(" + elementType + ");")
		g.out.line("}")
		g.out.line("else {")
		g.out.line("marker_.rollbackTo();")
		g.out.line("}")
	} else {
		if kind == bnf.ExprOptional || kind == bnf.ExprZeroOrMore {
			g.out.line("marker_.drop();")
		} else {
			notPinned := ""
			if pinned {
				notPinned = " && !pinned_"
			}
			g.out.line("if (!result_" + notPinned + ") {")
			g.out.line("marker_.rollbackTo();")
			g.out.line("}")
			g.out.line("else {")
			g.out.line("marker_.drop();")
			g.out.line("}")
		}
	}
	if sectionType != "" {
		untilCall := "null"
		if recoverRoot != "" {
			if untilRule := g.grammar.Rule(recoverRoot); untilRule != nil {
				untilCall = g.wrappedNodeCall(rule, nil, untilRule.Name)
			}
		}
		pinnedArg := "false"
		if pinned {
			pinnedArg = "pinned_"
		}
		g.out.line("result_ = exitErrorRecordingSection(builder_, result_, level_, " + pinnedArg + ", " +
			sectionType + ", " + untilCall + ");")
	}
	g.out.line("}")

	if g.memoize {
		notPinned := ""
		if pinned {
			notPinned = " && !pinned_"
		}
		g.out.line("if (!result_" + notPinned + ") memoizeFalseBranch(builder_, " + funcID + ");")
	}
	g.out.line("return result_" + pinnedSuffix + ";")
	g.out.line("}")
	g.out.blank()

	for i, child := range children {
		g.generateNode(rule, child, true, nextName(funcName, i), visited)
	}
}

// generateNodeCall renders the call that parses one child expression: a
// rule call, a token consumption, an external call, or a call to the
// function generated for a nested expression. A nil node stands for a
// reference to the rule named by name.
func (g *Generator) generateNodeCall(rule *bnf.Rule, node *bnf.Expr, name string) string {
	kind := bnf.ExprReference
	text := name
	if node != nil {
		kind = node.Kind
		text = node.String()
	}
	switch kind {
	case bnf.ExprString:
		value := node.Value
		if attrName := g.grammar.AttrNameByValue(rule, value); attrName != "" {
			return g.generateConsumeToken(attrName)
		}
		return generateConsumeTextToken(value)
	case bnf.ExprNumber:
		return generateConsumeTextToken(text)
	case bnf.ExprReference:
		subRule := g.grammar.Rule(text)
		if subRule != nil {
			if subRule.IsExternal() {
				var clause strings.Builder
				exprs := []*bnf.Expr{subRule.Expr}
				if subRule.Expr.Kind == bnf.ExprSequence {
					exprs = subRule.Expr.Children
				}
				method := g.generateExternalCall(rule, &clause, exprs, name)
				return method + "(builder_, level_ + 1" + clause.String() + ")"
			}
			method := subRule.Name
			parserClass := g.parserClasses[method]
			if parserClass != g.parserClasses[rule.Name] {
				method = shortName(parserClass) + "." + method
			}
			return method + "(builder_, level_ + 1" + g.collectExtraArguments(rule, false) + ")"
		}
		return g.generateConsumeToken(text)
	case bnf.ExprExternal:
		exprs := node.Children
		if len(exprs) == 1 && rule.IsMeta() {
			return exprs[0].String() + ".parse(builder_)"
		}
		var clause strings.Builder
		method := g.generateExternalCall(rule, &clause, exprs, name)
		return method + "(builder_, level_ + 1" + clause.String() + ")"
	default:
		return name + "(builder_, level_ + 1" + g.collectExtraArguments(rule, false) + ")"
	}
}

// generateExternalCall renders the argument clause of an external parser
// call and returns the head. Rule references and parenthesized
// sub-grammars are reified as parser thunks, anything else is passed
// through as written.
func (g *Generator) generateExternalCall(rule *bnf.Rule, clause *strings.Builder, exprs []*bnf.Expr, name string) string {
	method := ""
	if len(exprs) > 0 {
		method = exprs[0].String()
	}
	for i := 1; i < len(exprs); i++ {
		clause.WriteString(", ")
		nested := exprs[i]
		argument := nested.String()
		switch {
		case nested.Kind == bnf.ExprReference && g.grammar.Rule(argument) != nil:
			clause.WriteString(g.wrappedNodeCall(rule, nested, argument))
		case nested.Kind == bnf.ExprParen:
			clause.WriteString(g.wrappedNodeCall(rule, nested, nextName(name, i-1)))
		default:
			clause.WriteString(argument)
		}
	}
	return method
}

// wrappedNodeCall reifies a node call as an anonymous Parser thunk.
func (g *Generator) wrappedNodeCall(rule *bnf.Rule, nested *bnf.Expr, text string) string {
	return "\nnew Parser() { public boolean parse(PsiBuilder builder_) { return " +
		g.generateNodeCall(rule, nested, text) + "; }}"
}

// collectExtraArguments scans a meta rule for its parser parameters: the
// distinct single-element external expressions in its body, in document
// order. The same list is threaded through every recursive call emitted
// inside the rule.
func (g *Generator) collectExtraArguments(rule *bnf.Rule, declaration bool) string {
	if !rule.IsMeta() {
		return ""
	}
	var b strings.Builder
	visited := map[string]struct{}{}
	var walk func(e *bnf.Expr)
	walk = func(e *bnf.Expr) {
		if e == nil {
			return
		}
		if e.Kind == bnf.ExprExternal && len(e.Children) == 1 {
			text := e.Children[0].String()
			if _, ok := visited[text]; !ok {
				visited[text] = struct{}{}
				if declaration {
					b.WriteString(", Parser " + text)
				} else {
					b.WriteString(", " + text)
				}
			}
		}
		for _, child := range e.Children {
			walk(child)
		}
	}
	walk(rule.Expr)
	return b.String()
}

func (g *Generator) generateConsumeToken(tokenName string) string {
	if _, ok := g.tokenSeen[tokenName]; !ok {
		g.tokenSeen[tokenName] = struct{}{}
		g.simpleTokens = append(g.simpleTokens, tokenName)
	}
	return "consumeToken(builder_, " + g.tokenElementType(tokenName) + ")"
}

func generateConsumeTextToken(tokenText string) string {
	return "consumeToken(builder_, \"" + escapeJavaString(tokenText) + "\")"
}

func escapeJavaString(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
