package generator

import (
	"sort"

	"github.com/hiraide/psigen/bnf"
)

// Cardinality describes how often a child node can occur under a rule.
type Cardinality int

const (
	Required Cardinality = iota
	Optional
	AnyNumber
	AtLeastOne
)

func (c Cardinality) many() bool {
	return c == AnyNumber || c == AtLeastOne
}

// weaken makes an occurrence optional without losing its multiplicity.
func (c Cardinality) weaken() Cardinality {
	switch c {
	case Required:
		return Optional
	case AtLeastOne:
		return AnyNumber
	}
	return c
}

// repeat turns an occurrence into a repeated one.
func (c Cardinality) repeat() Cardinality {
	switch c {
	case Required:
		return AtLeastOne
	case Optional:
		return AnyNumber
	}
	return c
}

// join combines two occurrences of the same child in one rule body. Two
// occurrences always make a many cardinality; it stays at-least-one when
// either side is guaranteed.
func (c Cardinality) join(other Cardinality) Cardinality {
	if c == Required || other == Required || c == AtLeastOne || other == AtLeastOne {
		return AtLeastOne
	}
	return AnyNumber
}

// Accessor is one observable child of a rule: either a sub-rule or a
// token reference, with its computed cardinality.
type Accessor struct {
	Rule        *bnf.Rule
	Token       string
	Cardinality Cardinality
}

// GraphHelper supplies the PSI emitter with the observable children of a
// rule. Rule accessors come first ordered by rule name, then token
// accessors ordered by token text.
type GraphHelper interface {
	AccessorsFor(rule *bnf.Rule) []Accessor
}

// RuleGraph computes accessors directly from rule bodies: references
// under a choice or an option weaken to optional, references under a
// repetition become many, duplicate occurrences join upward. Private
// rules produce no nodes, so references to them are inlined. Lookahead
// bodies and literals contribute nothing.
type RuleGraph struct {
	grammar *bnf.Grammar
}

func NewRuleGraph(grammar *bnf.Grammar) *RuleGraph {
	return &RuleGraph{
		grammar: grammar,
	}
}

func (rg *RuleGraph) AccessorsFor(rule *bnf.Rule) []Accessor {
	c := &accessorCollector{
		grammar: rg.grammar,
		rules:   map[*bnf.Rule]Cardinality{},
		tokens:  map[string]Cardinality{},
		inlined: map[*bnf.Rule]struct{}{rule: {}},
	}
	c.collect(rule.Expr, Required)

	var ruleAcc []Accessor
	for r, card := range c.rules {
		ruleAcc = append(ruleAcc, Accessor{Rule: r, Cardinality: card})
	}
	sort.Slice(ruleAcc, func(i, j int) bool {
		return ruleAcc[i].Rule.Name < ruleAcc[j].Rule.Name
	})

	var tokenAcc []Accessor
	for t, card := range c.tokens {
		tokenAcc = append(tokenAcc, Accessor{Token: t, Cardinality: card})
	}
	sort.Slice(tokenAcc, func(i, j int) bool {
		return tokenAcc[i].Token < tokenAcc[j].Token
	})

	return append(ruleAcc, tokenAcc...)
}

type accessorCollector struct {
	grammar *bnf.Grammar
	rules   map[*bnf.Rule]Cardinality
	tokens  map[string]Cardinality
	inlined map[*bnf.Rule]struct{}
}

func (c *accessorCollector) collect(e *bnf.Expr, card Cardinality) {
	if e == nil {
		return
	}
	switch e.Kind {
	case bnf.ExprReference:
		target := c.grammar.Rule(e.Value)
		if target == nil {
			c.addToken(e.Value, card)
			return
		}
		if target.IsPrivate() {
			if _, ok := c.inlined[target]; ok {
				return
			}
			c.inlined[target] = struct{}{}
			c.collect(target.Expr, card)
			delete(c.inlined, target)
			return
		}
		c.addRule(target, card)
	case bnf.ExprString, bnf.ExprNumber:
		// literals never surface as accessors
	case bnf.ExprSequence, bnf.ExprParen:
		for _, child := range e.Children {
			c.collect(child, card)
		}
	case bnf.ExprChoice:
		for _, child := range e.Children {
			c.collect(child, card.weaken())
		}
	case bnf.ExprOptional:
		c.collect(e.Children[0], card.weaken())
	case bnf.ExprZeroOrMore:
		c.collect(e.Children[0], card.weaken().repeat())
	case bnf.ExprOneOrMore:
		c.collect(e.Children[0], card.repeat())
	case bnf.ExprAnd, bnf.ExprNot:
		// lookahead consumes nothing
	case bnf.ExprExternal:
		// an external call owns its own tree
	}
}

func (c *accessorCollector) addRule(r *bnf.Rule, card Cardinality) {
	if prev, ok := c.rules[r]; ok {
		c.rules[r] = prev.join(card)
		return
	}
	c.rules[r] = card
}

func (c *accessorCollector) addToken(name string, card Cardinality) {
	if prev, ok := c.tokens[name]; ok {
		c.tokens[name] = prev.join(card)
		return
	}
	c.tokens[name] = card
}
