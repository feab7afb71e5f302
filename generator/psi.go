package generator

import (
	"sort"
	"strings"

	"github.com/hiraide/psigen/bnf"
)

// superClassName resolves the implementation base for a rule: the parent
// rule's implementation class when extends names a rule, the raw
// attribute value otherwise.
func (g *Generator) superClassName(rule *bnf.Rule, implPackage, suffix string) string {
	superName := g.grammar.StringAttr(rule, "extends", "", "generated.CompositeElementImpl")
	superRule := g.grammar.Rule(superName)
	if superRule == nil {
		return superName
	}
	return implPackage + "." + g.psiClassName(superRule, superRule.Name, true) + suffix
}

// superInterfaceNames collects the interfaces a rule's PSI interface
// extends: the parent rule's interface plus everything the implements
// attribute declares, with rule names resolved to their PSI interfaces.
// A non-rule entry that the parent rule's implements value already names
// is left out.
func (g *Generator) superInterfaceNames(rule *bnf.Rule, psiPackage string) []string {
	var names []string
	superRuleImplements := ""
	superName := g.grammar.StringAttr(rule, "extends", "", "")
	superRule := g.grammar.Rule(superName)
	if superRule != nil {
		superRuleImplements = g.grammar.StringAttr(superRule, "implements", "", "generated.CompositeElement")
		names = append(names, psiPackage+"."+g.psiClassName(superRule, superRule.Name, true))
	}
	for _, intfName := range strings.Split(g.grammar.StringAttr(rule, "implements", "", "generated.CompositeElement"), ",") {
		intfName = strings.TrimSpace(intfName)
		if intfName == "" {
			continue
		}
		intfRule := g.grammar.Rule(intfName)
		if intfRule != nil {
			names = append(names, psiPackage+"."+g.psiClassName(intfRule, intfRule.Name, true))
		} else if !strings.Contains(superRuleImplements, intfName) {
			names = append(names, intfName)
		}
	}
	return names
}

func (g *Generator) accessorType(rule *bnf.Rule, acc Accessor) string {
	switch {
	case acc.Rule == nil:
		return psiElementClass
	case acc.Rule.IsExternal():
		return g.grammar.StringAttr(acc.Rule, "implements", "", psiElementClass)
	}
	return g.psiClassName(rule, acc.Rule.Name, true)
}

// splitAccessors partitions a rule's accessors into public rule children
// and the token children that actually surfaced during parser emission.
func (g *Generator) splitAccessors(rule *bnf.Rule) ([]Accessor, []Accessor) {
	var ruleAcc, tokenAcc []Accessor
	for _, acc := range g.graph.AccessorsFor(rule) {
		switch {
		case acc.Rule != nil:
			if !acc.Rule.IsPrivate() {
				ruleAcc = append(ruleAcc, acc)
			}
		default:
			if _, ok := g.tokenSeen[acc.Token]; ok {
				tokenAcc = append(tokenAcc, acc)
			}
		}
	}
	return ruleAcc, tokenAcc
}

func (g *Generator) accessorClasses(rule *bnf.Rule, ruleAcc []Accessor) []string {
	seen := map[string]struct{}{}
	var classes []string
	for _, acc := range ruleAcc {
		class := g.accessorType(rule, acc)
		if _, ok := seen[class]; ok {
			continue
		}
		seen[class] = struct{}{}
		classes = append(classes, class)
	}
	sort.Strings(classes)
	return classes
}

func (g *Generator) generatePsiIntf(rule *bnf.Rule, psiClass string, psiSupers []string) {
	ruleAcc, tokenAcc := g.splitAccessors(rule)

	imports := []string{
		"java.util.List",
		"org.jetbrains.annotations.*",
		psiElementClass,
	}
	imports = append(imports, psiSupers...)
	imports = append(imports, g.accessorClasses(rule, ruleAcc)...)
	g.generateClassHeader(psiClass, imports, "", true, psiSupers...)

	for _, acc := range ruleAcc {
		g.generatePsiAccessor(rule, acc, true)
	}
	for _, acc := range tokenAcc {
		g.generatePsiAccessor(rule, acc, true)
	}
	g.out.line("}")
}

func (g *Generator) generatePsiImpl(rule *bnf.Rule, psiClass, superInterface, superRuleClass string) {
	typeHolderClass := g.grammar.RootString("elementTypeHolderClass", "generated.ParserTypes")
	// the mixin attribute overrides extends
	implSuper := g.grammar.StringAttr(rule, "mixin", "", superRuleClass)
	ruleAcc, tokenAcc := g.splitAccessors(rule)

	imports := []string{
		"java.util.List",
		"org.jetbrains.annotations.*",
		"com.intellij.lang.ASTNode",
		psiElementClass,
		"com.intellij.psi.util.PsiTreeUtil",
		"static " + typeHolderClass + ".*",
	}
	if implSuper != "" {
		imports = append(imports, implSuper)
	}
	imports = append(imports, packageName(superInterface)+".*")
	imports = append(imports, g.accessorClasses(rule, ruleAcc)...)
	g.generateClassHeader(psiClass, imports, "", false, shortName(implSuper), shortName(superInterface))

	g.out.line("public " + shortName(psiClass) + "(ASTNode node) {")
	g.out.line("super(node);")
	g.out.line("}")
	g.out.blank()

	for _, acc := range ruleAcc {
		g.generatePsiAccessor(rule, acc, false)
	}
	for _, acc := range tokenAcc {
		g.generatePsiAccessor(rule, acc, false)
	}
	g.out.line("}")
}

// generatePsiAccessor emits one typed getter. Token accessors are kept
// for lowercase single-occurrence references only; mixed-case references
// have no unambiguous mapping and many tokens no stable order.
func (g *Generator) generatePsiAccessor(rule *bnf.Rule, acc Accessor, intf bool) {
	many := acc.Cardinality.many()

	childName := acc.Token
	if acc.Rule != nil {
		childName = acc.Rule.Name
	} else {
		if childName != strings.ToLower(childName) {
			return
		}
		if many {
			return
		}
	}

	getterName := g.getterName(rule, childName, many)
	if !intf {
		g.out.line("@Override")
	}
	switch acc.Cardinality {
	case Optional:
		g.out.line("@Nullable")
	default:
		g.out.line("@NotNull")
	}
	className := shortName(g.accessorType(rule, acc))
	tail := "();"
	if !intf {
		tail = "() {"
	}
	returnType := className + " "
	if many {
		returnType = "List<" + className + "> "
	}
	g.out.line("public " + returnType + getterName + tail)
	if !intf {
		if acc.Rule == nil {
			g.out.line("ASTNode child = getNode().findChildByType(" + g.tokenElementType(childName) + ");")
			g.out.line("return child == null? null : child.getPsi();")
		} else if many {
			g.out.line("return PsiTreeUtil.getChildrenOfTypeAsList(this, " + className + ".class);")
		} else {
			g.out.line("return PsiTreeUtil.getChildOfType(this, " + className + ".class);")
		}
		g.out.line("}")
	}
	g.out.blank()
}
