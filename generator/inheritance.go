package generator

// tokenSet is an insertion-ordered string set. The emitted token sets
// preserve this order so the output stays stable across runs.
type tokenSet struct {
	items []string
	index map[string]struct{}
}

func newTokenSet() *tokenSet {
	return &tokenSet{
		index: map[string]struct{}{},
	}
}

func (s *tokenSet) add(v string) bool {
	if _, ok := s.index[v]; ok {
		return false
	}
	s.index[v] = struct{}{}
	s.items = append(s.items, v)
	return true
}

func (s *tokenSet) merge(other *tokenSet) bool {
	if other == nil {
		return false
	}
	changed := false
	for _, v := range other.items {
		if s.add(v) {
			changed = true
		}
	}
	return changed
}

// extendsMap maps an element type to the element types of its descendants,
// keys in insertion order.
type extendsMap struct {
	keys []string
	sets map[string]*tokenSet
}

func newExtendsMap() *extendsMap {
	return &extendsMap{
		sets: map[string]*tokenSet{},
	}
}

func (m *extendsMap) add(parent, child string) {
	set, ok := m.sets[parent]
	if !ok {
		set = newTokenSet()
		m.sets[parent] = set
		m.keys = append(m.keys, parent)
	}
	set.add(child)
}

func (m *extendsMap) get(parent string) *tokenSet {
	return m.sets[parent]
}

func (m *extendsMap) empty() bool {
	return len(m.keys) == 0
}

// computeInheritance builds the direct super->sub relation from the
// extends attributes, closes it transitively, and makes every public key
// reflexive. Rules on either side of an edge are marked as participating
// in inheritance; the expression compiler consults that mark to decide
// whether a frame can collapse.
func (g *Generator) computeInheritance() {
	public := map[string]struct{}{}
	for _, rule := range g.grammar.Rules {
		if rule.IsPrivate() || rule.IsExternal() {
			continue
		}
		elementType := g.elementType(rule)
		public[elementType] = struct{}{}
		superName := g.grammar.StringAttr(rule, "extends", "", "")
		superRule := g.grammar.Rule(superName)
		if superRule == nil {
			continue
		}
		g.extends.add(g.elementType(superRule), elementType)
		g.inherited[rule] = struct{}{}
		g.inherited[superRule] = struct{}{}
	}

	for {
		more := false
		for _, parent := range g.extends.keys {
			set := g.extends.get(parent)
			for _, child := range append([]string(nil), set.items...) {
				if set.merge(g.extends.get(child)) {
					more = true
				}
			}
		}
		if !more {
			break
		}
	}

	for _, parent := range g.extends.keys {
		if _, ok := public[parent]; !ok {
			continue
		}
		g.extends.get(parent).add(parent)
	}
}
