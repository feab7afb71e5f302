package generator

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hiraide/psigen/bnf"
)

const (
	iElementTypeClass = "com.intellij.psi.tree.IElementType"
	psiElementClass   = "com.intellij.psi.PsiElement"
	defaultFileHeader = "// This is a generated file. Not intended for manual editing."
)

// Generator translates a grammar AST into Java source: one parser class
// per parserClass partition, an element-type holder, and a PSI
// interface/implementation pair per public rule.
type Generator struct {
	grammar  *bnf.Grammar
	rootPath string

	// grammarDir resolves classHeader attribute values that name a file.
	grammarDir string

	// root is the name of the first rule, the grammar root.
	root          string
	parserClasses map[string]string
	memoize       bool

	// simpleTokens records every referenced token name in the order the
	// expression compiler first emits a call for it: parser units in
	// class-name order, rules in declaration order inside a unit, and
	// inside a rule a function's own calls before the calls of the
	// functions generated for its nested sub-expressions. This is not
	// textual order when a nested sub-expression precedes a later token.
	simpleTokens []string
	tokenSeen    map[string]struct{}

	extends   *extendsMap
	inherited map[*bnf.Rule]struct{}

	graph GraphHelper
	warns io.Writer

	out *writer
}

type Option func(*Generator)

// WithGraphHelper substitutes the accessor analyzer consulted by the PSI
// emitter.
func WithGraphHelper(h GraphHelper) Option {
	return func(g *Generator) {
		g.graph = h
	}
}

// WithGrammarDir sets the directory classHeader file values are resolved
// against.
func WithGrammarDir(dir string) Option {
	return func(g *Generator) {
		g.grammarDir = dir
	}
}

// WithWarnings redirects non-fatal diagnostics, stderr by default.
func WithWarnings(w io.Writer) Option {
	return func(g *Generator) {
		g.warns = w
	}
}

func New(grammar *bnf.Grammar, rootPath string, opts ...Option) *Generator {
	g := &Generator{
		grammar:       grammar,
		rootPath:      rootPath,
		parserClasses: map[string]string{},
		tokenSeen:     map[string]struct{}{},
		extends:       newExtendsMap(),
		inherited:     map[*bnf.Rule]struct{}{},
		warns:         os.Stderr,
	}
	if root := grammar.RootRule(); root != nil {
		g.root = root.Name
	}
	for _, rule := range grammar.Rules {
		g.parserClasses[rule.Name] = grammar.StringAttr(rule, "parserClass", "", "generated.Parser")
	}
	g.memoize = grammar.RootBool("memoization", false)
	for _, opt := range opts {
		opt(g)
	}
	if g.graph == nil {
		g.graph = NewRuleGraph(grammar)
	}
	g.computeInheritance()
	return g
}

// Generate runs the whole pipeline: parser units first (accumulating the
// referenced tokens), then the element-type holder, then the PSI classes.
func (g *Generator) Generate() error {
	err := g.generateParserUnits()
	if err != nil {
		return err
	}

	generatePsi := g.grammar.RootBool("generatePsi", true)
	holderClass := g.grammar.RootString("elementTypeHolderClass", "generated.ParserTypes")
	err = g.withOutputFile(holderClass, func() error {
		g.generateElementTypesHolder(holderClass, generatePsi)
		return nil
	})
	if err != nil {
		return err
	}
	if !generatePsi {
		return nil
	}

	psiPackage := g.grammar.RootString("psiPackage", "generated.psi")
	implPackage := g.grammar.RootString("psiImplPackage", "generated.psi.impl")
	suffix := g.grammar.RootString("psiImplClassSuffix", "Impl")
	intfClasses := map[string]string{}
	for _, rule := range g.grammar.Rules {
		if rule.IsPrivate() || rule.IsExternal() {
			continue
		}
		rule := rule
		psiClass := psiPackage + "." + g.psiClassName(rule, rule.Name, true)
		intfClasses[rule.Name] = psiClass
		err := g.withOutputFile(psiClass, func() error {
			g.generatePsiIntf(rule, psiClass, g.superInterfaceNames(rule, psiPackage))
			return nil
		})
		if err != nil {
			return err
		}
	}
	for _, rule := range g.grammar.Rules {
		if rule.IsPrivate() || rule.IsExternal() {
			continue
		}
		rule := rule
		psiClass := implPackage + "." + g.psiClassName(rule, rule.Name, true) + suffix
		err := g.withOutputFile(psiClass, func() error {
			g.generatePsiImpl(rule, psiClass, intfClasses[rule.Name], g.superClassName(rule, implPackage, suffix))
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// generateParserUnits partitions the rules by parserClass and emits one
// file per partition, in class-name order. Inside a unit, rules keep
// their declaration order.
func (g *Generator) generateParserUnits() error {
	var classes []string
	seen := map[string]struct{}{}
	for _, rule := range g.grammar.Rules {
		class := g.parserClasses[rule.Name]
		if _, ok := seen[class]; ok {
			continue
		}
		seen[class] = struct{}{}
		classes = append(classes, class)
	}
	sort.Strings(classes)

	for _, class := range classes {
		class := class
		var rules []*bnf.Rule
		for _, rule := range g.grammar.Rules {
			if g.parserClasses[rule.Name] == class {
				rules = append(rules, rule)
			}
		}
		err := g.withOutputFile(class, func() error {
			g.generateParser(class, rules)
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) generateParser(parserClass string, rules []*bnf.Rule) {
	holderClass := g.grammar.RootString("elementTypeHolderClass", "generated.ParserTypes")
	stubParser := g.grammar.RootString("stubParserClass", "generated.ParserUtil")
	parserImports := g.grammar.RootString("parserImports", "")
	rootParserClass := g.parserClasses[g.root]
	rootParser := parserClass == rootParserClass

	imports := []string{
		"org.jetbrains.annotations.*",
		"com.intellij.lang.LighterASTNode",
		"com.intellij.lang.PsiBuilder",
		"com.intellij.lang.PsiBuilder.Marker",
		"com.intellij.openapi.diagnostic.Logger",
		"static " + holderClass + ".*",
		"static " + stubParser + ".*",
	}
	if rootParser {
		imports = append(imports,
			iElementTypeClass,
			"com.intellij.lang.ASTNode",
			"com.intellij.psi.tree.TokenSet",
			"com.intellij.lang.PsiParser")
	} else {
		imports = append(imports, "static "+rootParserClass+".*")
	}
	for _, imp := range strings.Split(parserImports, ";") {
		if imp != "" {
			imports = append(imports, imp)
		}
	}

	var supers []string
	if rootParser {
		supers = []string{"", "PsiParser"}
	}
	g.generateClassHeader(parserClass, imports,
		"@SuppressWarnings({\"SimplifiableIfStatement\", \"UnusedAssignment\"})", false, supers...)

	g.out.line("public static Logger LOG_ = Logger.getInstance(\"" + parserClass + "\");")
	g.out.blank()

	if rootParser {
		g.generateRootParserContent(rules)
	}
	for _, rule := range rules {
		if rule.IsExternal() {
			continue
		}
		g.out.line("/* ********************************************************** */")
		g.generateNode(rule, rule.Expr, rule.IsPrivate(), rule.Name, map[*bnf.Expr]struct{}{})
		g.out.blank()
	}

	g.out.line("}")
}

// generateRootParserContent emits the public parse entry that dispatches
// on the requested root element type, plus the type_extends_ predicate
// when the grammar declares inheritance. The fallback branch is the only
// place the builder may advance past the grammar's nominal end.
func (g *Generator) generateRootParserContent(ownRules []*bnf.Rule) {
	g.out.line("@NotNull")
	g.out.line("public ASTNode parse(final IElementType root_, final PsiBuilder builder_) {")
	g.out.line("final int level_ = 0;")
	g.out.line("boolean result_;")
	first := true
	for _, rule := range ownRules {
		if rule.IsPrivate() || rule.IsExternal() || rule.Name == g.root {
			continue
		}
		prefix := "else "
		if first {
			prefix = ""
		}
		g.out.line(prefix + "if (root_ == " + g.elementType(rule) + ") {")
		g.out.line("result_ = " + g.generateNodeCall(rule, nil, rule.Name) + ";")
		g.out.line("}")
		first = false
	}
	rootRule := g.grammar.Rule(g.root)
	nodeCall := g.generateNodeCall(rootRule, nil, rootRule.Name)
	if !first {
		g.out.line("else {")
	}
	g.out.line("Marker marker_ = builder_.mark();")
	g.out.line("try {")
	g.out.line("result_ = " + nodeCall + ";")
	g.out.line("while (builder_.getTokenType() != null) {")
	g.out.line("builder_.advanceLexer();")
	g.out.line("}")
	g.out.line("}")
	g.out.line("finally {")
	g.out.line("marker_.done(root_);")
	g.out.line("}")
	if !first {
		g.out.line("}")
	}
	g.out.line("return builder_.getTreeBuilt();")
	g.out.line("}")
	g.out.blank()

	if g.extends.empty() {
		return
	}
	g.out.line("private static final TokenSet[] EXTENDS_SETS_ = new TokenSet[] {")
	for _, parent := range g.extends.keys {
		var b strings.Builder
		for i, elementType := range g.extends.get(parent).items {
			if i > 0 && i%4 == 0 {
				b.WriteString(",\n")
			} else if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(elementType)
		}
		g.out.line("TokenSet.create(" + b.String() + "),")
	}
	g.out.line("};")
	g.out.line("public static boolean type_extends_(IElementType child_, IElementType parent_) {")
	g.out.line("for (TokenSet set : EXTENDS_SETS_) {")
	g.out.line("if (set.contains(child_) && set.contains(parent_)) return true;")
	g.out.line("}")
	g.out.line("return false;")
	g.out.line("}")
	g.out.blank()
}

func (g *Generator) generateClassHeader(className string, imports []string, annos string, intf bool, supers ...string) {
	classHeader := g.stringOrFile(g.grammar.RootString("classHeader", defaultFileHeader))
	pkg := packageName(className)
	g.out.line(classHeader)
	g.out.line("package " + pkg + ";")
	g.out.blank()
	for _, imp := range imports {
		if strings.HasPrefix(imp, pkg+".") && !strings.Contains(imp[len(pkg)+1:], ".") {
			continue
		}
		if !strings.Contains(imp, ".") {
			continue
		}
		g.out.line("import " + imp + ";")
	}
	g.out.blank()
	var b strings.Builder
	pos := 0
	for _, super := range supers {
		if super == "" {
			pos++
			continue
		}
		for _, imp := range imports {
			if imp == super {
				super = shortName(super)
				break
			}
		}
		switch {
		case pos == 0:
			b.WriteString(" extends " + super)
		case !intf && pos == 1:
			b.WriteString(" implements " + super)
		default:
			b.WriteString(", " + super)
		}
		pos++
	}
	if annos != "" {
		g.out.line(annos)
	}
	kind := "class "
	if intf {
		kind = "interface "
	}
	g.out.line("public " + kind + shortName(className) + b.String() + " {")
	g.out.blank()
}

// stringOrFile interprets a classHeader value as a path relative to the
// grammar file when such a file exists, and as literal text otherwise. A
// file that exists but cannot be read only produces a warning.
func (g *Generator) stringOrFile(value string) string {
	if g.grammarDir == "" {
		return value
	}
	path := filepath.Join(g.grammarDir, value)
	if _, err := os.Stat(path); err != nil {
		return value
	}
	b, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(g.warns, "cannot read the class header file %s: %v\n", path, err)
		return value
	}
	return strings.TrimRight(string(b), "\n")
}
