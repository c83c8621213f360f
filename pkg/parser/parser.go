package parser

import (
	"github.com/ninecc/ninecc/pkg/ast"
	"github.com/ninecc/ninecc/pkg/config"
	"github.com/ninecc/ninecc/pkg/token"
	"github.com/ninecc/ninecc/pkg/util"
)

// Parser holds the state for the parsing process
type Parser struct {
	tokens   []token.Token
	pos      int
	current  token.Token
	cfg      *config.Config
	frame    *ast.Frame
	warnings []util.Warning
}

// NewParser creates and initializes a new Parser from a token stream. The
// stream must end with an EOF token.
func NewParser(tokens []token.Token, cfg *config.Config) *Parser {
	p := &Parser{tokens: tokens, cfg: cfg}
	if cfg.IsFeatureEnabled(config.FeatLongIdents) {
		p.frame = ast.NewDynamicFrame(cfg.FrameSlots)
	} else {
		p.frame = ast.NewFixedFrame(cfg.FrameSlots)
	}
	if len(tokens) > 0 {
		p.current = p.tokens[0]
	}
	return p
}

// Warnings returns the warnings raised while parsing.
func (p *Parser) Warnings() []util.Warning { return p.warnings }

// Parser helpers
func (p *Parser) advance() {
	if p.pos < len(p.tokens)-1 {
		p.pos++
		p.current = p.tokens[p.pos]
	}
}

func (p *Parser) check(tokType token.Type) bool {
	return p.current.Type == tokType
}

// match consumes the current token if it has the given type.
func (p *Parser) match(tokType token.Type) bool {
	if !p.check(tokType) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) expect(tokType token.Type) error {
	if p.match(tokType) {
		return nil
	}
	return util.NewError(util.SyntaxError, p.current, "expected '%s', found %s", tokType, p.current.Describe())
}

func (p *Parser) warn(wt config.Warning, tok token.Token, format string, args ...interface{}) {
	if w, ok := util.Warn(p.cfg, wt, tok, format, args...); ok {
		p.warnings = append(p.warnings, w)
	}
}

// Parse consumes the whole token stream.
func (p *Parser) Parse() (*ast.Program, error) {
	prog := &ast.Program{Frame: p.frame}
	for !p.check(token.EOF) {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		prog.Stmts = append(prog.Stmts, stmt)
	}

	for _, stmt := range prog.Stmts[:max(len(prog.Stmts)-1, 0)] {
		if stmt.Type == ast.Number || stmt.Type == ast.Var {
			p.warn(config.WarnUnusedValue, stmt.Tok, "statement value %s is never used", stmt)
		}
	}
	return prog, nil
}

func (p *Parser) parseStmt() (*ast.Node, error) {
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.Semi); err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *Parser) parseExpr() (*ast.Node, error) {
	return p.parseAssign()
}

func (p *Parser) parseAssign() (*ast.Node, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	if !p.check(token.Eq) {
		return left, nil
	}
	tok := p.current
	if !ast.IsLValue(left) {
		return nil, util.NewError(util.SyntaxError, tok, "invalid assignment target %s", left)
	}
	p.advance()
	right, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	return ast.NewAssign(tok, left, right), nil
}

// binaryLevel describes one left-associative precedence level.
type binaryLevel struct {
	ops  map[token.Type]ast.Op
	swap map[token.Type]bool
}

var (
	equalityLevel = binaryLevel{
		ops: map[token.Type]ast.Op{token.EqEq: ast.Eq, token.Neq: ast.Ne},
	}
	relationalLevel = binaryLevel{
		ops:  map[token.Type]ast.Op{token.Lt: ast.Lt, token.Lte: ast.Le, token.Gt: ast.Lt, token.Gte: ast.Le},
		swap: map[token.Type]bool{token.Gt: true, token.Gte: true},
	}
	additiveLevel = binaryLevel{
		ops: map[token.Type]ast.Op{token.Plus: ast.Add, token.Minus: ast.Sub},
	}
	multiplicativeLevel = binaryLevel{
		ops: map[token.Type]ast.Op{token.Star: ast.Mul, token.Slash: ast.Div},
	}
)

// parseLevel loops while the current token is one of the level's
// operators, building a left-leaning tree. a > b is stored as b < a.
func (p *Parser) parseLevel(lv binaryLevel, next func() (*ast.Node, error)) (*ast.Node, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := lv.ops[p.current.Type]
		if !ok {
			return left, nil
		}
		opTok := p.current
		p.advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		if op == ast.Div && right.Type == ast.Number && right.Data.(ast.NumberNode).Value == 0 {
			p.warn(config.WarnDivZero, opTok, "division by zero")
		}
		if lv.swap[opTok.Type] {
			left, right = right, left
		}
		left = ast.NewBinaryOp(opTok, op, left, right)
	}
}

func (p *Parser) parseEquality() (*ast.Node, error) {
	return p.parseLevel(equalityLevel, p.parseRelational)
}

func (p *Parser) parseRelational() (*ast.Node, error) {
	return p.parseLevel(relationalLevel, p.parseAdditive)
}

func (p *Parser) parseAdditive() (*ast.Node, error) {
	return p.parseLevel(additiveLevel, p.parseMultiplicative)
}

func (p *Parser) parseMultiplicative() (*ast.Node, error) {
	return p.parseLevel(multiplicativeLevel, p.parseUnary)
}

// parseUnary handles a single leading sign. -x is desugared to 0 - x.
func (p *Parser) parseUnary() (*ast.Node, error) {
	tok := p.current
	if p.match(token.Plus) {
		return p.parsePrimary()
	}
	if p.match(token.Minus) {
		operand, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return ast.NewBinaryOp(tok, ast.Sub, ast.NewNumber(tok, 0), operand), nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (*ast.Node, error) {
	tok := p.current
	if p.match(token.LParen) {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return expr, nil
	}
	if p.match(token.Ident) {
		off, err := p.frame.Slot(tok.Value)
		if err != nil {
			return nil, util.NewError(util.FrameOverflowError, tok, "%v", err)
		}
		return ast.NewVar(tok, tok.Value, off), nil
	}
	return p.expectNumber()
}

func (p *Parser) expectNumber() (*ast.Node, error) {
	tok := p.current
	if !p.match(token.Number) {
		return nil, util.NewError(util.ExpectedNumberError, tok, "expected a number, found %s", tok.Describe())
	}
	return ast.NewNumber(tok, tok.Num), nil
}
