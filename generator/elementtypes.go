package generator

// generateElementTypesHolder emits the holder unit: one constant per
// distinct public rule element type, one per referenced token, and the
// PSI factory switch when PSI generation is on. The grammar root gets no
// constant; it only ever parses under the caller-supplied root type.
func (g *Generator) generateElementTypesHolder(className string, generatePsi bool) {
	implPackage := g.grammar.RootString("psiImplPackage", "generated.psi.impl")
	elementTypeClass := g.grammar.RootString("elementTypeClass", iElementTypeClass)
	elementTypeFactory := g.grammar.RootString("elementTypeFactory", "")
	tokenTypeClass := g.grammar.RootString("tokenTypeClass", iElementTypeClass)
	tokenTypeFactory := g.grammar.RootString("tokenTypeFactory", "")

	imports := []string{
		iElementTypeClass,
		psiElementClass,
		"com.intellij.lang.ASTNode",
		elementTypeClass,
	}
	if elementTypeFactory != "" {
		imports = append(imports, "static "+elementTypeFactory)
	}
	imports = append(imports, tokenTypeClass)
	if tokenTypeFactory != "" {
		imports = append(imports, "static "+tokenTypeFactory)
	}
	if generatePsi {
		imports = append(imports, implPackage+".*")
	}
	g.generateClassHeader(className, imports, "", true)

	elementCreateCall := "new " + shortName(elementTypeClass)
	if elementTypeFactory != "" {
		elementCreateCall = shortName(elementTypeFactory)
	}
	visited := map[string]struct{}{}
	for _, rule := range g.grammar.Rules {
		if rule.IsPrivate() || rule.IsExternal() || rule.Name == g.root {
			continue
		}
		elementType := g.elementType(rule)
		if _, ok := visited[elementType]; ok {
			continue
		}
		visited[elementType] = struct{}{}
		g.out.line("IElementType " + elementType + " = " + elementCreateCall + "(\"" + elementType + "\");")
	}
	g.out.blank()

	tokenCreateCall := "new " + shortName(tokenTypeClass)
	if tokenTypeFactory != "" {
		tokenCreateCall = shortName(tokenTypeFactory)
	}
	for _, token := range g.simpleTokens {
		name := g.grammar.RootString(token, token)
		g.out.line("IElementType " + g.tokenElementType(token) + " = " + tokenCreateCall + "(\"" + escapeJavaString(name) + "\");")
	}
	g.out.blank()

	if generatePsi {
		suffix := g.grammar.RootString("psiImplClassSuffix", "Impl")
		g.out.line("class Factory {")
		g.out.line("public static PsiElement createElement(ASTNode node) {")
		g.out.line("IElementType type = node.getElementType();")
		visited = map[string]struct{}{}
		first := true
		for _, rule := range g.grammar.Rules {
			if rule.IsPrivate() || rule.IsExternal() || rule.Name == g.root {
				continue
			}
			elementType := g.elementType(rule)
			if _, ok := visited[elementType]; ok {
				continue
			}
			visited[elementType] = struct{}{}
			prefix := "else "
			if first {
				prefix = ""
			}
			g.out.line(prefix + "if (type == " + elementType + ") {")
			g.out.line("return new " + g.psiClassName(rule, rule.Name, true) + suffix + "(node);")
			g.out.line("}")
			first = false
		}
		g.out.line("throw new AssertionError(\"Unknown element type: \" + type);")
		g.out.line("}")
		g.out.line("}")
	}
	g.out.line("}")
}
