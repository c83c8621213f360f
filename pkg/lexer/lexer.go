package lexer

import (
	"unicode/utf8"

	"github.com/ninecc/ninecc/pkg/config"
	"github.com/ninecc/ninecc/pkg/token"
	"github.com/ninecc/ninecc/pkg/util"
)

type Lexer struct {
	source   string
	pos      int
	line     int
	column   int
	cfg      *config.Config
	warnings []util.Warning
}

func NewLexer(source string, cfg *config.Config) *Lexer {
	return &Lexer{source: source, line: 1, column: 1, cfg: cfg}
}

// Tokenize scans the whole source. The returned slice always ends with
// exactly one EOF token.
func Tokenize(source string, cfg *config.Config) ([]token.Token, []util.Warning, error) {
	l := NewLexer(source, cfg)
	var tokens []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, l.warnings, err
		}
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens, l.warnings, nil
		}
	}
}

// Warnings returns the warnings raised so far.
func (l *Lexer) Warnings() []util.Warning { return l.warnings }

func (l *Lexer) Next() (token.Token, error) {
	l.skipWhitespace()
	startPos, startCol, startLine := l.pos, l.column, l.line

	if l.isAtEnd() {
		return l.makeToken(token.EOF, startPos, startCol, startLine), nil
	}

	if l.pos+1 < len(l.source) {
		if typ, ok := token.Reserved[l.source[l.pos:l.pos+2]]; ok {
			l.advance()
			l.advance()
			return l.makeToken(typ, startPos, startCol, startLine), nil
		}
	}

	ch := l.peek()
	if typ, ok := token.Reserved[string(ch)]; ok {
		l.advance()
		return l.makeToken(typ, startPos, startCol, startLine), nil
	}

	switch {
	case isLower(ch) || (ch == '_' && l.cfg.IsFeatureEnabled(config.FeatLongIdents)):
		l.advance()
		return l.identifier(startPos, startCol, startLine), nil
	case isDigit(ch):
		return l.numberLiteral(startPos, startCol, startLine), nil
	}

	r, size := utf8.DecodeRuneInString(l.source[l.pos:])
	tok := token.Token{Type: token.EOF, Pos: startPos, Line: startLine, Column: startCol, Len: size}
	return tok, util.NewError(util.TokenizeError, tok, "invalid token '%c'", r)
}

func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) advance() byte {
	if l.isAtEnd() {
		return 0
	}
	ch := l.source[l.pos]
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	l.pos++
	return ch
}

func (l *Lexer) isAtEnd() bool { return l.pos >= len(l.source) }

func (l *Lexer) makeToken(tokType token.Type, startPos, startCol, startLine int) token.Token {
	return token.Token{
		Type: tokType, Value: l.source[startPos:l.pos], Pos: startPos,
		Line: startLine, Column: startCol, Len: l.pos - startPos,
	}
}

func (l *Lexer) skipWhitespace() {
	for {
		switch l.peek() {
		case ' ', '\t', '\n', '\r', '\v', '\f':
			l.advance()
		default:
			return
		}
	}
}

// identifier consumes the rest of a long identifier when the feature is
// on. Without it every letter is an identifier of its own.
func (l *Lexer) identifier(startPos, startCol, startLine int) token.Token {
	if l.cfg.IsFeatureEnabled(config.FeatLongIdents) {
		for isLower(l.peek()) || isDigit(l.peek()) || l.peek() == '_' {
			l.advance()
		}
	}
	return l.makeToken(token.Ident, startPos, startCol, startLine)
}

// numberLiteral reads a maximal digit run. Values that do not fit wrap
// around modulo 2^64 and raise the overflow warning.
func (l *Lexer) numberLiteral(startPos, startCol, startLine int) token.Token {
	var val uint64
	overflow := false
	for isDigit(l.peek()) {
		d := uint64(l.advance() - '0')
		if val > (^uint64(0)-d)/10 {
			overflow = true
		}
		val = val*10 + d
	}

	tok := l.makeToken(token.Number, startPos, startCol, startLine)
	tok.Num = int64(val)
	if !overflow && val > 1<<63-1 {
		overflow = true
	}
	if overflow {
		if w, ok := util.Warn(l.cfg, config.WarnOverflow, tok, "integer constant %s overflows 64 bits, wrapped to %d", tok.Value, tok.Num); ok {
			l.warnings = append(l.warnings, w)
		}
	}
	return tok
}

func isLower(ch byte) bool { return ch >= 'a' && ch <= 'z' }
func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }
