package bnf

import (
	"io"
	"strconv"

	verr "github.com/hiraide/psigen/error"
)

// Parse reads a grammar definition and returns its AST. Errors carry the
// row and column of the offending token.
func Parse(src io.Reader) (*Grammar, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	return p.parse()
}

func raiseSyntaxError(synErr *SyntaxError, pos Position) {
	panic(&verr.SpecError{
		Cause: synErr,
		Row:   pos.Row,
		Col:   pos.Col,
	})
}

type parser struct {
	lex        *lexer
	peekedToks []*token
	lastTok    *token
}

func newParser(src io.Reader) (*parser, error) {
	lex, err := newLexer(src)
	if err != nil {
		return nil, err
	}
	return &parser{
		lex: lex,
	}, nil
}

func (p *parser) parse() (grammar *Grammar, retErr error) {
	defer func() {
		err := recover()
		if err != nil {
			retErr = err.(error)
			return
		}
	}()

	var attrs []*Attr
	for p.peek().kind == tokenKindLBrace {
		attrs = append(attrs, p.parseAttrBlock()...)
	}

	var rules []*Rule
	names := map[string]Position{}
	for {
		rule := p.parseRule()
		if rule == nil {
			break
		}
		if _, ok := names[rule.Name]; ok {
			raiseSyntaxError(synErrDuplicateRule, rule.Pos)
		}
		names[rule.Name] = rule.Pos
		rules = append(rules, rule)
	}
	if len(rules) == 0 {
		raiseSyntaxError(synErrNoRule, p.peek().pos)
	}
	return NewGrammar(rules, attrs), nil
}

func (p *parser) parseRule() *Rule {
	if p.consume(tokenKindEOF) {
		return nil
	}

	var attrs []*Attr
	for {
		tok := p.peek()
		if tok.kind != tokenKindID || !isRuleModifier(tok.text) || p.peek2().kind != tokenKindID {
			break
		}
		p.consume(tokenKindID)
		attrs = append(attrs, &Attr{
			Name:  tok.text,
			Value: true,
			Pos:   tok.pos,
		})
	}

	if !p.consume(tokenKindID) {
		raiseSyntaxError(synErrNoRuleName, p.peek().pos)
	}
	name := p.lastTok.text
	pos := p.lastTok.pos
	if !p.consume(tokenKindDefMarker) {
		raiseSyntaxError(synErrNoDefMarker, p.peek().pos)
	}

	expr := p.parseChoice()
	for p.peek().kind == tokenKindLBrace {
		attrs = append(attrs, p.parseAttrBlock()...)
	}
	p.consume(tokenKindSemicolon)

	return &Rule{
		Name:  name,
		Expr:  expr,
		Attrs: attrs,
		Pos:   pos,
	}
}

func isRuleModifier(text string) bool {
	switch text {
	case "private", "external", "meta":
		return true
	}
	return false
}

func (p *parser) parseChoice() *Expr {
	pos := p.peek().pos
	alt := p.parseSequence()
	alts := []*Expr{alt}
	for p.consume(tokenKindOr) {
		alts = append(alts, p.parseSequence())
	}
	if len(alts) == 1 {
		return alt
	}
	return &Expr{
		Kind:     ExprChoice,
		Children: alts,
		Pos:      pos,
	}
}

func (p *parser) parseSequence() *Expr {
	pos := p.peek().pos
	var elems []*Expr
	for {
		elem := p.parseElement()
		if elem == nil {
			break
		}
		elems = append(elems, elem)
	}
	if len(elems) == 1 {
		return elems[0]
	}
	return &Expr{
		Kind:     ExprSequence,
		Children: elems,
		Pos:      pos,
	}
}

// parseElement parses one sequence element: an optionally quantified
// primary, possibly behind a lookahead prefix. It returns nil where the
// surrounding sequence ends, including before the `name ::=` head of the
// next rule.
func (p *parser) parseElement() *Expr {
	tok := p.peek()
	switch tok.kind {
	case tokenKindNot, tokenKindAnd:
		p.consume(tok.kind)
		kind := ExprNot
		if tok.kind == tokenKindAnd {
			kind = ExprAnd
		}
		child := p.parseElement()
		if child == nil {
			raiseSyntaxError(synErrNoExpression, p.peek().pos)
		}
		return &Expr{
			Kind:     kind,
			Children: []*Expr{child},
			Pos:      tok.pos,
		}
	case tokenKindID:
		if p.atRuleBoundary() {
			return nil
		}
	}

	prim := p.parsePrimary()
	if prim == nil {
		return nil
	}
	for {
		var kind ExprKind
		switch {
		case p.consume(tokenKindOption):
			kind = ExprOptional
		case p.consume(tokenKindZeroMore):
			kind = ExprZeroOrMore
		case p.consume(tokenKindOneMore):
			kind = ExprOneOrMore
		default:
			return prim
		}
		prim = &Expr{
			Kind:     kind,
			Children: []*Expr{prim},
			Pos:      prim.Pos,
		}
	}
}

func (p *parser) parsePrimary() *Expr {
	switch {
	case p.consume(tokenKindID):
		return &Expr{
			Kind:  ExprReference,
			Value: p.lastTok.text,
			Pos:   p.lastTok.pos,
		}
	case p.consume(tokenKindString):
		return &Expr{
			Kind:  ExprString,
			Value: p.lastTok.text,
			Pos:   p.lastTok.pos,
		}
	case p.consume(tokenKindNumber):
		return &Expr{
			Kind:  ExprNumber,
			Value: p.lastTok.text,
			Pos:   p.lastTok.pos,
		}
	case p.consume(tokenKindLParen):
		pos := p.lastTok.pos
		child := p.parseChoice()
		if !p.consume(tokenKindRParen) {
			raiseSyntaxError(synErrUnclosedParen, p.peek().pos)
		}
		return &Expr{
			Kind:     ExprParen,
			Children: []*Expr{child},
			Pos:      pos,
		}
	case p.consume(tokenKindExtOpen):
		pos := p.lastTok.pos
		if !p.consume(tokenKindID) {
			raiseSyntaxError(synErrExternNoHead, p.peek().pos)
		}
		head := &Expr{
			Kind:  ExprReference,
			Value: p.lastTok.text,
			Pos:   p.lastTok.pos,
		}
		children := []*Expr{head}
		for !p.consume(tokenKindExtClose) {
			if p.peek().kind == tokenKindEOF {
				raiseSyntaxError(synErrUnclosedExtern, p.peek().pos)
			}
			arg := p.parseElement()
			if arg == nil {
				raiseSyntaxError(synErrUnclosedExtern, p.peek().pos)
			}
			children = append(children, arg)
		}
		return &Expr{
			Kind:     ExprExternal,
			Children: children,
			Pos:      pos,
		}
	}
	return nil
}

func (p *parser) parseAttrBlock() []*Attr {
	if !p.consume(tokenKindLBrace) {
		return nil
	}
	var attrs []*Attr
	for {
		if p.consume(tokenKindRBrace) {
			return attrs
		}
		if p.peek().kind == tokenKindEOF {
			raiseSyntaxError(synErrUnclosedAttrs, p.peek().pos)
		}
		attrs = append(attrs, p.parseAttr())
	}
}

func (p *parser) parseAttr() *Attr {
	if !p.consume(tokenKindID) {
		raiseSyntaxError(synErrNoAttrName, p.peek().pos)
	}
	attr := &Attr{
		Name: p.lastTok.text,
		Pos:  p.lastTok.pos,
	}
	if p.consume(tokenKindLParen) {
		if !p.consume(tokenKindString) {
			raiseSyntaxError(synErrNoAttrPattern, p.peek().pos)
		}
		attr.Pattern = p.lastTok.text
		attr.HasPattern = true
		if !p.consume(tokenKindRParen) {
			raiseSyntaxError(synErrUnclosedPattern, p.peek().pos)
		}
	}
	if !p.consume(tokenKindEqual) {
		// A bare name declares a boolean attribute.
		attr.Value = true
		return attr
	}
	switch {
	case p.consume(tokenKindString):
		attr.Value = p.lastTok.text
	case p.consume(tokenKindNumber):
		n, err := strconv.Atoi(p.lastTok.text)
		if err != nil {
			raiseSyntaxError(synErrNoAttrValue, p.lastTok.pos)
		}
		attr.Value = n
	case p.consume(tokenKindID):
		switch p.lastTok.text {
		case "true":
			attr.Value = true
		case "false":
			attr.Value = false
		default:
			// A bare name, such as a rule name, is read as a string.
			attr.Value = p.lastTok.text
		}
	default:
		raiseSyntaxError(synErrNoAttrValue, p.peek().pos)
	}
	return attr
}

// atRuleBoundary reports whether the upcoming tokens form the head of
// the next rule: optional modifiers, a name, and the '::=' marker. It
// keeps a sequence from swallowing the next rule's head.
func (p *parser) atRuleBoundary() bool {
	i := 0
	for p.peekAt(i).kind == tokenKindID && isRuleModifier(p.peekAt(i).text) &&
		p.peekAt(i+1).kind == tokenKindID {
		i++
	}
	return p.peekAt(i).kind == tokenKindID && p.peekAt(i+1).kind == tokenKindDefMarker
}

func (p *parser) peek() *token {
	return p.peekAt(0)
}

func (p *parser) peek2() *token {
	return p.peekAt(1)
}

func (p *parser) peekAt(n int) *token {
	for len(p.peekedToks) <= n {
		tok, err := p.lex.next()
		if err != nil {
			panic(err)
		}
		if tok.kind == tokenKindInvalid {
			raiseSyntaxError(synErrInvalidToken, tok.pos)
		}
		p.peekedToks = append(p.peekedToks, tok)
	}
	return p.peekedToks[n]
}

func (p *parser) consume(expected tokenKind) bool {
	tok := p.peek()
	if tok.kind != expected {
		return false
	}
	p.peekedToks = p.peekedToks[1:]
	p.lastTok = tok
	return true
}
