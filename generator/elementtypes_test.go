package generator

import (
	"strings"
	"testing"
)

func TestElementTypesHolder(t *testing.T) {
	files := generate(t, `
{ parserClass="gen.P" elementTypeHolderClass="gen.Types" semi=";" }
file ::= stmt *
stmt ::= decl ';'
decl ::= 'let' id
`)
	types := mustFile(t, files, "gen/Types.java")
	assertContains(t, types,
		"public interface Types {",
		"IElementType STMT = new IElementType(\"STMT\");",
		"IElementType DECL = new IElementType(\"DECL\");",
		// the aliased ';' surfaces under its declared name and text
		"IElementType SEMI = new IElementType(\";\");",
		// the plain token referenced by name
		"IElementType ID = new IElementType(\"id\");")
	// the grammar root gets no constant
	assertNotContains(t, types, "IElementType FILE")

	assertContains(t, types,
		"class Factory {",
		"public static PsiElement createElement(ASTNode node) {",
		"if (type == STMT) {",
		"return new StmtImpl(node);",
		"else if (type == DECL) {",
		"return new DeclImpl(node);",
		"throw new AssertionError(\"Unknown element type: \" + type);")
}

func TestElementTypesHolder_TokenUniqueness(t *testing.T) {
	files := generate(t, `
{ parserClass="gen.P" elementTypeHolderClass="gen.Types" }
file ::= a b
a ::= id id id
b ::= id
`)
	types := mustFile(t, files, "gen/Types.java")
	if got := strings.Count(types, "IElementType ID = "); got != 1 {
		t.Fatalf("a token referenced many times must emit one constant: got: %v", got)
	}
}

func TestElementTypesHolder_AliasedElementTypes(t *testing.T) {
	files := generate(t, `
{ parserClass="gen.P" elementTypeHolderClass="gen.Types" }
file ::= a_lit | b_lit
a_lit ::= 'A' { elementType=lit }
b_lit ::= 'B' { elementType=lit }
`)
	types := mustFile(t, files, "gen/Types.java")
	if got := strings.Count(types, "IElementType LIT = "); got != 1 {
		t.Fatalf("aliased rules must share one constant: got: %v", got)
	}
	if got := strings.Count(types, "return new ALitImpl(node);"); got != 1 {
		t.Fatalf("the factory must construct the first aliased rule once: got: %v", got)
	}
	assertNotContains(t, types, "BLitImpl")
}

func TestElementTypesHolder_Prefix(t *testing.T) {
	files := generate(t, `
{ parserClass="gen.P" elementTypeHolderClass="gen.Types" elementTypePrefix="MY_" }
file ::= stmt
stmt ::= id
`)
	types := mustFile(t, files, "gen/Types.java")
	assertContains(t, types,
		"IElementType MY_STMT = new IElementType(\"MY_STMT\");",
		"IElementType MY_ID = new IElementType(\"id\");")

	parser := mustFile(t, files, "gen/P.java")
	assertContains(t, parser,
		"consumeToken(builder_, MY_ID)",
		"marker_.done(MY_STMT);")
}

func TestElementTypesHolder_Factories(t *testing.T) {
	files := generate(t, `
{
  parserClass="gen.P"
  elementTypeHolderClass="gen.Types"
  elementTypeClass="gen.MyElementType"
  elementTypeFactory="gen.MyTypeFactory.createType"
  tokenTypeClass="gen.MyTokenType"
  tokenTypeFactory="gen.MyTypeFactory.createToken"
}
file ::= stmt
stmt ::= id
`)
	types := mustFile(t, files, "gen/Types.java")
	assertContains(t, types,
		"import static gen.MyTypeFactory.createType;",
		"import static gen.MyTypeFactory.createToken;",
		"IElementType STMT = createType(\"STMT\");",
		"IElementType ID = createToken(\"id\");")
}

func TestElementTypesHolder_NoPsi(t *testing.T) {
	files := generate(t, `
{ parserClass="gen.P" elementTypeHolderClass="gen.Types" generatePsi=false }
file ::= stmt
stmt ::= id
`)
	types := mustFile(t, files, "gen/Types.java")
	assertNotContains(t, types, "class Factory {")
	if len(files) != 2 {
		t.Fatalf("unexpected file count: want: 2, got: %v", len(files))
	}
}
