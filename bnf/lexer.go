package bnf

import (
	"io"
	"strings"

	verr "github.com/hiraide/psigen/error"
)

type tokenKind string

const (
	tokenKindID        = tokenKind("id")
	tokenKindString    = tokenKind("string")
	tokenKindNumber    = tokenKind("number")
	tokenKindDefMarker = tokenKind("::=")
	tokenKindOr        = tokenKind("|")
	tokenKindLParen    = tokenKind("(")
	tokenKindRParen    = tokenKind(")")
	tokenKindLBrace    = tokenKind("{")
	tokenKindRBrace    = tokenKind("}")
	tokenKindEqual     = tokenKind("=")
	tokenKindSemicolon = tokenKind(";")
	tokenKindOption    = tokenKind("?")
	tokenKindZeroMore  = tokenKind("*")
	tokenKindOneMore   = tokenKind("+")
	tokenKindNot       = tokenKind("!")
	tokenKindAnd       = tokenKind("&")
	tokenKindExtOpen   = tokenKind("<<")
	tokenKindExtClose  = tokenKind(">>")
	tokenKindEOF       = tokenKind("eof")
	tokenKindInvalid   = tokenKind("invalid")
)

type token struct {
	kind tokenKind
	text string
	pos  Position
}

func newSymbolToken(kind tokenKind, pos Position) *token {
	return &token{
		kind: kind,
		pos:  pos,
	}
}

func newIDToken(text string, pos Position) *token {
	return &token{
		kind: tokenKindID,
		text: text,
		pos:  pos,
	}
}

func newStringToken(text string, pos Position) *token {
	return &token{
		kind: tokenKindString,
		text: text,
		pos:  pos,
	}
}

func newNumberToken(text string, pos Position) *token {
	return &token{
		kind: tokenKindNumber,
		text: text,
		pos:  pos,
	}
}

func newEOFToken(pos Position) *token {
	return &token{
		kind: tokenKindEOF,
		pos:  pos,
	}
}

func newInvalidToken(text string, pos Position) *token {
	return &token{
		kind: tokenKindInvalid,
		text: text,
		pos:  pos,
	}
}

type lexer struct {
	src []rune
	idx int
	row int
	col int
}

func newLexer(src io.Reader) (*lexer, error) {
	b, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	return &lexer{
		src: []rune(string(b)),
		row: 1,
		col: 1,
	}, nil
}

const nullChar = '\u0000'

func (l *lexer) peekChar() rune {
	if l.idx >= len(l.src) {
		return nullChar
	}
	return l.src[l.idx]
}

func (l *lexer) readChar() rune {
	c := l.peekChar()
	if c == nullChar {
		return c
	}
	l.idx++
	if c == '\n' {
		l.row++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func (l *lexer) pos() Position {
	return newPosition(l.row, l.col)
}

func (l *lexer) next() (*token, error) {
	err := l.skipSpacesAndComments()
	if err != nil {
		return nil, err
	}
	pos := l.pos()
	c := l.peekChar()
	switch {
	case c == nullChar:
		return newEOFToken(pos), nil
	case isIDHead(c):
		return newIDToken(l.readID(), pos), nil
	case c >= '0' && c <= '9':
		return newNumberToken(l.readNumber(), pos), nil
	case c == '\'' || c == '"':
		text, err := l.readString(pos)
		if err != nil {
			return nil, err
		}
		return newStringToken(text, pos), nil
	}
	l.readChar()
	switch c {
	case ':':
		if l.peekChar() == ':' {
			l.readChar()
			if l.peekChar() == '=' {
				l.readChar()
				return newSymbolToken(tokenKindDefMarker, pos), nil
			}
		}
		return newInvalidToken(":", pos), nil
	case '|':
		return newSymbolToken(tokenKindOr, pos), nil
	case '(':
		return newSymbolToken(tokenKindLParen, pos), nil
	case ')':
		return newSymbolToken(tokenKindRParen, pos), nil
	case '{':
		return newSymbolToken(tokenKindLBrace, pos), nil
	case '}':
		return newSymbolToken(tokenKindRBrace, pos), nil
	case '=':
		return newSymbolToken(tokenKindEqual, pos), nil
	case ';':
		return newSymbolToken(tokenKindSemicolon, pos), nil
	case '?':
		return newSymbolToken(tokenKindOption, pos), nil
	case '*':
		return newSymbolToken(tokenKindZeroMore, pos), nil
	case '+':
		return newSymbolToken(tokenKindOneMore, pos), nil
	case '!':
		return newSymbolToken(tokenKindNot, pos), nil
	case '&':
		return newSymbolToken(tokenKindAnd, pos), nil
	case '<':
		if l.peekChar() == '<' {
			l.readChar()
			return newSymbolToken(tokenKindExtOpen, pos), nil
		}
		return newInvalidToken("<", pos), nil
	case '>':
		if l.peekChar() == '>' {
			l.readChar()
			return newSymbolToken(tokenKindExtClose, pos), nil
		}
		return newInvalidToken(">", pos), nil
	}
	return newInvalidToken(string(c), pos), nil
}

func (l *lexer) skipSpacesAndComments() error {
	for {
		c := l.peekChar()
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.readChar()
			continue
		case c == '/':
			if l.idx+1 >= len(l.src) {
				return nil
			}
			switch l.src[l.idx+1] {
			case '/':
				for c := l.peekChar(); c != '\n' && c != nullChar; c = l.peekChar() {
					l.readChar()
				}
				continue
			case '*':
				pos := l.pos()
				l.readChar()
				l.readChar()
				for {
					c := l.readChar()
					if c == nullChar {
						return &verr.SpecError{
							Cause: synErrUnclosedComment,
							Row:   pos.Row,
							Col:   pos.Col,
						}
					}
					if c == '*' && l.peekChar() == '/' {
						l.readChar()
						break
					}
				}
				continue
			}
		}
		return nil
	}
}

func isIDHead(c rune) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIDChar(c rune) bool {
	return isIDHead(c) || (c >= '0' && c <= '9')
}

func (l *lexer) readID() string {
	var b strings.Builder
	for isIDChar(l.peekChar()) {
		b.WriteRune(l.readChar())
	}
	return b.String()
}

func (l *lexer) readNumber() string {
	var b strings.Builder
	for c := l.peekChar(); c >= '0' && c <= '9'; c = l.peekChar() {
		b.WriteRune(l.readChar())
	}
	return b.String()
}

// readString consumes a quoted literal and interprets the standard escape
// sequences. An unrecognized escape is kept verbatim so that regex-valued
// attributes survive untouched.
func (l *lexer) readString(pos Position) (string, error) {
	quote := l.readChar()
	var b strings.Builder
	for {
		c := l.readChar()
		switch c {
		case nullChar, '\n':
			return "", &verr.SpecError{
				Cause: synErrUnclosedString,
				Row:   pos.Row,
				Col:   pos.Col,
			}
		case quote:
			return b.String(), nil
		case '\\':
			e := l.readChar()
			switch e {
			case nullChar:
				return "", &verr.SpecError{
					Cause: synErrUnclosedString,
					Row:   pos.Row,
					Col:   pos.Col,
				}
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			case 'r':
				b.WriteRune('\r')
			case '\'', '"', '\\':
				b.WriteRune(e)
			default:
				b.WriteRune('\\')
				b.WriteRune(e)
			}
		default:
			b.WriteRune(c)
		}
	}
}
