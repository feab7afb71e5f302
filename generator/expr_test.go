package generator

import (
	"strings"
	"testing"
)

func TestGenerateNode_Choice(t *testing.T) {
	files := generate(t, `
{ parserClass="gen.P" elementTypeHolderClass="gen.T" a="a" b="b" }
file ::= alt
alt ::= 'a' | 'b'
`)
	parser := mustFile(t, files, "gen/P.java")
	assertContains(t, parser,
		"// 'a' | 'b'",
		"public static boolean alt(PsiBuilder builder_, final int level_) {",
		"if (!recursion_guard_(builder_, level_, \"alt\")) return false;",
		"boolean result_ = false;",
		"final Marker marker_ = builder_.mark();",
		"result_ = consumeToken(builder_, A);",
		"if (!result_) result_ = consumeToken(builder_, B);",
		"marker_.done(ALT);",
		"marker_.rollbackTo();",
		"return result_;")

	types := mustFile(t, files, "gen/T.java")
	assertContains(t, types,
		"IElementType ALT = new IElementType(\"ALT\");",
		"IElementType A = new IElementType(\"a\");",
		"IElementType B = new IElementType(\"b\");")
}

func TestGenerateNode_SequenceWithIntegerPin(t *testing.T) {
	files := generate(t, `
{ parserClass="gen.P" }
file ::= stmt
stmt ::= 'if' cond 'then' body { pin=2 }
cond ::= id
body ::= id
`)
	parser := mustFile(t, files, "gen/P.java")
	assertContains(t, parser,
		"boolean pinned_ = false;",
		"enterErrorRecordingSection(builder_, level_, _SECTION_GENERAL_);",
		"result_ = consumeToken(builder_, \"if\");",
		"result_ = result_ && cond(builder_, level_ + 1);",
		"pinned_ = result_; // pin = 2",
		"result_ = result_ && consumeToken(builder_, \"then\");",
		"if (result_ || pinned_) {",
		"marker_.done(STMT);",
		"result_ = exitErrorRecordingSection(builder_, result_, level_, pinned_, _SECTION_GENERAL_, null);",
		"return result_ || pinned_;")
	if got := strings.Count(parser, "pinned_ = result_;"); got != 1 {
		t.Fatalf("the pin must apply exactly once: got: %v", got)
	}
}

func TestGenerateNode_SequenceWithPatternPin(t *testing.T) {
	files := generate(t, `
{ parserClass="gen.P" }
file ::= stmt
stmt ::= head tail_a tail_b { pin="tail_.*" }
head ::= id
tail_a ::= id
tail_b ::= id
`)
	parser := mustFile(t, files, "gen/P.java")
	assertContains(t, parser, "pinned_ = result_; // pin = tail_.*")
	if got := strings.Count(parser, "pinned_ = result_;"); got != 1 {
		t.Fatalf("the pin must apply exactly once: got: %v", got)
	}
	// the pattern matches tail_a first, so the pin lands after the second child
	idx := strings.Index(parser, "result_ = result_ && tail_a(builder_, level_ + 1);")
	pin := strings.Index(parser, "pinned_ = result_;")
	after := strings.Index(parser, "result_ = result_ && tail_b(builder_, level_ + 1);")
	if !(idx < pin && pin < after) {
		t.Fatalf("the pin must follow the first matching child")
	}
}

func TestGenerateNode_ZeroOrMore(t *testing.T) {
	files := generate(t, `
{ parserClass="gen.P" }
file ::= list
list ::= item *
item ::= id
`)
	parser := mustFile(t, files, "gen/P.java")
	assertContains(t, parser,
		"public static boolean list(PsiBuilder builder_, final int level_) {",
		"boolean result_ = true;",
		"int offset_ = builder_.getCurrentOffset();",
		"while (result_ && !builder_.eof()) {",
		"if (!item(builder_, level_ + 1)) break;",
		"if (offset_ == builder_.getCurrentOffset()) {",
		"builder_.error(\"Empty element parsed in list\");",
		"offset_ = builder_.getCurrentOffset();")
}

func TestGenerateNode_OneOrMore(t *testing.T) {
	files := generate(t, `
{ parserClass="gen.P" }
file ::= list
list ::= item +
item ::= id
`)
	parser := mustFile(t, files, "gen/P.java")
	assertContains(t, parser,
		"boolean result_ = false;",
		"result_ = item(builder_, level_ + 1);",
		"while (result_ && !builder_.eof()) {")
}

func TestGenerateNode_Optional(t *testing.T) {
	files := generate(t, `
{ parserClass="gen.P" }
file ::= stmt
stmt ::= tail ?
tail ::= id
`)
	parser := mustFile(t, files, "gen/P.java")
	assertContains(t, parser,
		"boolean result_ = true;",
		"tail(builder_, level_ + 1);")
}

func TestGenerateNode_CollapseWithInheritance(t *testing.T) {
	files := generate(t, `
{ parserClass="gen.P" }
file ::= expr
expr ::= add_expr
add_expr ::= mul_expr '+' mul_expr { extends=expr }
mul_expr ::= id
`)
	parser := mustFile(t, files, "gen/P.java")
	assertContains(t, parser,
		"final int start_ = builder_.getCurrentOffset();",
		"LighterASTNode last_ = result_? builder_.getLatestDoneMarker() : null;",
		"if (last_ != null && last_.getStartOffset() == start_ && type_extends_(last_.getTokenType(), EXPR)) {",
		"marker_.drop();",
		"else if (result_) {",
		"marker_.done(EXPR);",
		"TokenSet.create(ADD_EXPR, EXPR),",
		"public static boolean type_extends_(IElementType child_, IElementType parent_) {",
		"if (set.contains(child_) && set.contains(parent_)) return true;")
}

func TestGenerateNode_MetaRule(t *testing.T) {
	files := generate(t, `
{ parserClass="gen.P" }
file ::= pair
private meta comma_list ::= <<p>> (',' <<p>>)*
pair ::= <<comma_list item>> ';'
item ::= id
`)
	parser := mustFile(t, files, "gen/P.java")
	assertContains(t, parser,
		"static boolean comma_list(PsiBuilder builder_, final int level_, Parser p) {",
		"result_ = p.parse(builder_);",
		"comma_list_1(builder_, level_ + 1, p)",
		"comma_list(builder_, level_ + 1, ",
		"new Parser() { public boolean parse(PsiBuilder builder_) { return item(builder_, level_ + 1); }})")
}

func TestGenerateNode_NegativeLookaheadWithRecovery(t *testing.T) {
	files := generate(t, `
{ parserClass="gen.P" }
file ::= decl *
decl ::= !'}' keyword name { recoverUntil=stmt_end }
stmt_end ::= ';'
keyword ::= id
name ::= id
`)
	parser := mustFile(t, files, "gen/P.java")
	assertContains(t, parser,
		"enterErrorRecordingSection(builder_, level_, _SECTION_RECOVER_);",
		"enterErrorRecordingSection(builder_, level_, _SECTION_NOT_);",
		"result_ = !consumeToken(builder_, \"}\");",
		"result_ = exitErrorRecordingSection(builder_, result_, level_, false, _SECTION_NOT_, null);",
		"new Parser() { public boolean parse(PsiBuilder builder_) { return stmt_end(builder_, level_ + 1); }});")

	// the lookahead frame always rolls its marker back
	notFrame := parser[strings.Index(parser, "static boolean decl_0("):]
	notFrame = notFrame[:strings.Index(notFrame, "return result_;")]
	assertContains(t, notFrame, "marker_.rollbackTo();")
	assertNotContains(t, notFrame, "marker_.drop();", "marker_.done(")
}

func TestGenerateNode_PositiveLookahead(t *testing.T) {
	files := generate(t, `
{ parserClass="gen.P" }
file ::= stmt
stmt ::= &head body
head ::= id
body ::= id
`)
	parser := mustFile(t, files, "gen/P.java")
	assertContains(t, parser,
		"enterErrorRecordingSection(builder_, level_, _SECTION_AND_);",
		"result_ = head(builder_, level_ + 1);",
		"result_ = exitErrorRecordingSection(builder_, result_, level_, false, _SECTION_AND_, null);")
}

func TestGenerateNode_ExternalRule(t *testing.T) {
	files := generate(t, `
{ parserClass="gen.P" }
file ::= stmt
stmt ::= item_list
external item_list ::= parseItemList stmt max_count
`)
	parser := mustFile(t, files, "gen/P.java")
	assertContains(t, parser,
		"parseItemList(builder_, level_ + 1, ",
		"new Parser() { public boolean parse(PsiBuilder builder_) { return stmt(builder_, level_ + 1); }}, max_count)")
	assertNotContains(t, parser, "static boolean item_list(")
}

func TestGenerateNode_Memoization(t *testing.T) {
	files := generate(t, `
{ parserClass="gen.P" memoization }
file ::= stmt
stmt ::= 'a' 'b'
`)
	parser := mustFile(t, files, "gen/P.java")
	assertContains(t, parser,
		"if (memoizedFalseBranch(builder_, ",
		")) return false;",
		") memoizeFalseBranch(builder_, ")
	// every memoization line is well formed
	for _, line := range strings.Split(parser, "\n") {
		if !strings.Contains(line, "memoized") && !strings.Contains(line, "memoize") {
			continue
		}
		if strings.Count(line, "(") != strings.Count(line, ")") {
			t.Fatalf("unbalanced parentheses: %v", line)
		}
	}
}

func TestGenerateNode_PrivateRuleReferenceBody(t *testing.T) {
	files := generate(t, `
{ parserClass="gen.P" }
file ::= outer
private outer ::= inner
inner ::= id
`)
	parser := mustFile(t, files, "gen/P.java")
	assertContains(t, parser,
		"static boolean outer(PsiBuilder builder_, final int level_) {",
		"return inner(builder_, level_ + 1);")
}

func TestGenerateNode_TrivialGrouping(t *testing.T) {
	files := generate(t, `
{ parserClass="gen.P" }
file ::= stmt
private stmt ::= (decl)
decl ::= id
`)
	parser := mustFile(t, files, "gen/P.java")
	// grouping opens no marker of its own; it tail-calls the child
	assertContains(t, parser,
		"static boolean stmt(PsiBuilder builder_, final int level_) {",
		"return decl(builder_, level_ + 1);")
	assertNotContains(t, parser, "static boolean stmt_0(")
}

func TestGenerateNode_MarkerBalance(t *testing.T) {
	files := generate(t, `
{ parserClass="gen.P" }
file ::= stmt *
stmt ::= decl | block { pin(".*")=1 }
decl ::= 'let' id '=' expr
block ::= '{' stmt * '}'
expr ::= id &id | !'}' id
`)
	parser := mustFile(t, files, "gen/P.java")
	marks := strings.Count(parser, ".mark();")
	closes := strings.Count(parser, "marker_.done(") +
		strings.Count(parser, "marker_.drop();") +
		strings.Count(parser, "marker_.rollbackTo();")
	if marks == 0 || closes < marks {
		t.Fatalf("unbalanced markers: %v marks, %v closes", marks, closes)
	}
}
