// Package ast defines the types used to represent the Abstract Syntax Tree (AST)
package ast

import (
	"strconv"
	"strings"

	"github.com/ninecc/ninecc/pkg/token"
)

// NodeType defines the kind of a node in the AST
type NodeType int

const (
	Number NodeType = iota
	Var
	BinaryOp
	Assign
)

// Op is the operator of a BinaryOp node. Greater-than comparisons are
// rewritten by the parser and have no Op of their own.
type Op int

const (
	Add Op = iota
	Sub
	Mul
	Div
	Eq
	Ne
	Lt
	Le
)

var opSymbols = [...]string{
	Add: "+", Sub: "-", Mul: "*", Div: "/",
	Eq: "==", Ne: "!=", Lt: "<", Le: "<=",
}

func (op Op) String() string { return opSymbols[op] }

// Node represents a node in the Abstract Syntax Tree. Each node owns its
// children exclusively.
type Node struct {
	Type NodeType
	Tok  token.Token
	Data interface{}
}

// --- Node Data Structs ---
type NumberNode struct{ Value int64 }
type VarNode struct {
	Name   string
	Offset int
}
type BinaryOpNode struct {
	Op          Op
	Left, Right *Node
}
type AssignNode struct{ Target, Value *Node }

// Program is the ordered list of top-level statements together with the
// frame that assigned their variable slots.
type Program struct {
	Stmts []*Node
	Frame *Frame
}

// --- Node Constructors ---

func NewNumber(tok token.Token, value int64) *Node {
	return &Node{Type: Number, Tok: tok, Data: NumberNode{Value: value}}
}

func NewVar(tok token.Token, name string, offset int) *Node {
	return &Node{Type: Var, Tok: tok, Data: VarNode{Name: name, Offset: offset}}
}

func NewBinaryOp(tok token.Token, op Op, left, right *Node) *Node {
	return &Node{Type: BinaryOp, Tok: tok, Data: BinaryOpNode{Op: op, Left: left, Right: right}}
}

// NewAssign panics if target is not a Var; the parser checks this first.
func NewAssign(tok token.Token, target, value *Node) *Node {
	if target.Type != Var {
		panic("ast: assignment target is not a variable")
	}
	return &Node{Type: Assign, Tok: tok, Data: AssignNode{Target: target, Value: value}}
}

// IsLValue reports whether n denotes a storage location.
func IsLValue(n *Node) bool { return n != nil && n.Type == Var }

// String renders the node as an s-expression, e.g. (= a (+ 1 2)).
func (n *Node) String() string {
	var sb strings.Builder
	n.write(&sb)
	return sb.String()
}

func (n *Node) write(sb *strings.Builder) {
	switch d := n.Data.(type) {
	case NumberNode:
		sb.WriteString(strconv.FormatInt(d.Value, 10))
	case VarNode:
		sb.WriteString(d.Name)
	case BinaryOpNode:
		sb.WriteString("(")
		sb.WriteString(d.Op.String())
		sb.WriteString(" ")
		d.Left.write(sb)
		sb.WriteString(" ")
		d.Right.write(sb)
		sb.WriteString(")")
	case AssignNode:
		sb.WriteString("(= ")
		d.Target.write(sb)
		sb.WriteString(" ")
		d.Value.write(sb)
		sb.WriteString(")")
	}
}

// String renders one statement per line.
func (p *Program) String() string {
	lines := make([]string, len(p.Stmts))
	for i, stmt := range p.Stmts {
		lines[i] = stmt.String()
	}
	return strings.Join(lines, "\n")
}
