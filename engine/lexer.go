package engine

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Lexer: tokenizer for Titi expression source
// ---------------------------------------------------------------------------

type tokenType int

const (
	tokEOF tokenType = iota
	tokIdent
	tokInt
	tokFloat
	tokString
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokDot
	tokComma
	tokAssign
	tokSemi
	tokIllegal
)

// position locates a token within the source. Column is a 0-based offset
// into the line, suitable for caret placement in diagnostics.
type position struct {
	Line   int
	Column int
}

type token struct {
	Type    tokenType
	Literal string
	Pos     position
}

// lexer tokenizes Titi expression source.
type lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      rune // current character
	line    int  // current line (1-based)
	col     int  // current column (0-based)
}

func newLexer(input string) *lexer {
	l := &lexer{input: input, line: 1, col: -1}
	l.readChar()
	return l
}

func (l *lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
		l.pos = l.readPos
	} else {
		r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
		l.ch = r
		l.pos = l.readPos
		l.readPos += size

		if r == '\n' {
			l.line++
			l.col = -1
		} else {
			l.col++
		}
	}
}

func (l *lexer) position() position {
	return position{Line: l.line, Column: l.col}
}

// nextToken returns the next token. Newlines are statement separators and
// lex as tokSemi.
func (l *lexer) nextToken() token {
	l.skipSpacesAndComments()

	pos := l.position()

	switch {
	case l.ch == 0:
		return token{Type: tokEOF, Pos: pos}
	case l.ch == '\n':
		l.readChar()
		return token{Type: tokSemi, Literal: "\n", Pos: pos}
	case l.ch == ';':
		l.readChar()
		return token{Type: tokSemi, Literal: ";", Pos: pos}
	case l.ch == '(':
		l.readChar()
		return token{Type: tokLParen, Literal: "(", Pos: pos}
	case l.ch == ')':
		l.readChar()
		return token{Type: tokRParen, Literal: ")", Pos: pos}
	case l.ch == '[':
		l.readChar()
		return token{Type: tokLBracket, Literal: "[", Pos: pos}
	case l.ch == ']':
		l.readChar()
		return token{Type: tokRBracket, Literal: "]", Pos: pos}
	case l.ch == '.':
		l.readChar()
		return token{Type: tokDot, Literal: ".", Pos: pos}
	case l.ch == ',':
		l.readChar()
		return token{Type: tokComma, Literal: ",", Pos: pos}
	case l.ch == '=':
		l.readChar()
		return token{Type: tokAssign, Literal: "=", Pos: pos}
	case l.ch == '"':
		return l.readString(pos)
	case unicode.IsDigit(l.ch):
		return l.readNumber(pos)
	case isIdentStart(l.ch):
		return l.readIdent(pos)
	default:
		lit := string(l.ch)
		l.readChar()
		return token{Type: tokIllegal, Literal: lit, Pos: pos}
	}
}

// skipSpacesAndComments skips spaces, tabs, carriage returns and
// #-comments. Newlines are significant and left for nextToken.
func (l *lexer) skipSpacesAndComments() {
	for {
		switch l.ch {
		case ' ', '\t', '\r':
			l.readChar()
		case '#':
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		default:
			return
		}
	}
}

func (l *lexer) readString(pos position) token {
	var sb strings.Builder
	l.readChar() // opening quote
	for l.ch != '"' && l.ch != 0 && l.ch != '\n' {
		if l.ch == '\\' {
			l.readChar()
			switch l.ch {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			default:
				sb.WriteRune(l.ch)
			}
		} else {
			sb.WriteRune(l.ch)
		}
		l.readChar()
	}
	if l.ch != '"' {
		return token{Type: tokIllegal, Literal: sb.String(), Pos: pos}
	}
	l.readChar() // closing quote
	return token{Type: tokString, Literal: sb.String(), Pos: pos}
}

func (l *lexer) readNumber(pos position) token {
	start := l.pos
	typ := tokInt
	for unicode.IsDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && unicode.IsDigit(l.peekChar()) {
		typ = tokFloat
		l.readChar()
		for unicode.IsDigit(l.ch) {
			l.readChar()
		}
	}
	return token{Type: typ, Literal: l.input[start:l.pos], Pos: pos}
}

func (l *lexer) readIdent(pos position) token {
	start := l.pos
	for isIdentPart(l.ch) {
		l.readChar()
	}
	return token{Type: tokIdent, Literal: l.input[start:l.pos], Pos: pos}
}

func (l *lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

// Identifiers may start with '@' so well-known protocol names like
// "@@iterator" lex as a single identifier.
func isIdentStart(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_' || ch == '@'
}

func isIdentPart(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' || ch == '@'
}
