// Package checker walks a parsed program in evaluation order and reports
// suspicious uses of variables. It never rejects a program.
package checker

import (
	"github.com/ninecc/ninecc/pkg/ast"
	"github.com/ninecc/ninecc/pkg/config"
	"github.com/ninecc/ninecc/pkg/token"
	"github.com/ninecc/ninecc/pkg/util"
)

// Symbol tracks one frame slot. Symbols form a singly linked chain in
// order of first appearance.
type Symbol struct {
	Name     string
	Offset   int
	Assigned bool
	Read     bool
	Reported bool
	LastSet  token.Token
	Next     *Symbol
}

type Checker struct {
	symbols  *Symbol
	cfg      *config.Config
	warnings []util.Warning
}

func NewChecker(cfg *config.Config) *Checker {
	return &Checker{cfg: cfg}
}

func (c *Checker) warn(wt config.Warning, tok token.Token, format string, args ...interface{}) {
	if w, ok := util.Warn(c.cfg, wt, tok, format, args...); ok {
		c.warnings = append(c.warnings, w)
	}
}

func (c *Checker) findSymbol(name string) *Symbol {
	for s := c.symbols; s != nil; s = s.Next {
		if s.Name == name {
			return s
		}
	}
	return nil
}

func (c *Checker) addSymbol(d ast.VarNode) *Symbol {
	if s := c.findSymbol(d.Name); s != nil {
		return s
	}
	s := &Symbol{Name: d.Name, Offset: d.Offset}
	if c.symbols == nil {
		c.symbols = s
		return s
	}
	tail := c.symbols
	for tail.Next != nil {
		tail = tail.Next
	}
	tail.Next = s
	return s
}

// Check returns the warnings for prog. Reads of a slot that no earlier
// assignment wrote see whatever the stack held (-Wextra); an assignment
// overwritten or left unread at the end of the program is flagged under
// -Wpedantic.
func (c *Checker) Check(prog *ast.Program) []util.Warning {
	c.symbols, c.warnings = nil, nil
	for _, stmt := range prog.Stmts {
		c.checkExpr(stmt)
	}
	for s := c.symbols; s != nil; s = s.Next {
		if s.Assigned && !s.Read {
			c.warn(config.WarnPedantic, s.LastSet, "value assigned to '%s' is never read", s.Name)
		}
	}
	return c.warnings
}

func (c *Checker) checkExpr(node *ast.Node) {
	switch d := node.Data.(type) {
	case ast.NumberNode:
	case ast.VarNode:
		sym := c.addSymbol(d)
		if !sym.Assigned && !sym.Reported {
			c.warn(config.WarnExtra, node.Tok, "'%s' is used before it is assigned", d.Name)
			sym.Reported = true
		}
		sym.Read = true
	case ast.AssignNode:
		target := d.Target.Data.(ast.VarNode)
		sym := c.addSymbol(target)
		c.checkExpr(d.Value)
		if sym.Assigned && !sym.Read {
			c.warn(config.WarnPedantic, sym.LastSet, "value assigned to '%s' is overwritten before it is read", sym.Name)
		}
		sym.Assigned, sym.Read, sym.LastSet = true, false, d.Target.Tok
	case ast.BinaryOpNode:
		c.checkExpr(d.Left)
		c.checkExpr(d.Right)
	}
}
