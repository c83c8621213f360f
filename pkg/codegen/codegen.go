package codegen

import (
	"fmt"

	"github.com/ninecc/ninecc/pkg/ast"
	"github.com/ninecc/ninecc/pkg/config"
	"github.com/ninecc/ninecc/pkg/ir"
)

// Context lowers an AST program to stack machine IR. Each expression
// leaves exactly one value on the operand stack.
type Context struct {
	prog *ir.Program
	cur  *ir.Stmt
	cfg  *config.Config
}

func NewContext(cfg *config.Config) *Context {
	return &Context{cfg: cfg}
}

func (ctx *Context) emit(op ir.Op) *ir.Instruction {
	in := &ir.Instruction{Op: op}
	ctx.cur.Instructions = append(ctx.cur.Instructions, in)
	return in
}

// GenerateIR lowers every statement in order, each followed by a pop of
// its leftover value.
func (ctx *Context) GenerateIR(root *ast.Program) *ir.Program {
	ctx.prog = &ir.Program{
		FrameSize: root.Frame.Size(),
		WordSize:  ctx.cfg.WordSize,
		Slots:     make(map[int]string),
	}
	for _, name := range root.Frame.Names() {
		off, _ := root.Frame.Offset(name)
		ctx.prog.Slots[off] = name
	}

	for _, stmt := range root.Stmts {
		ctx.cur = &ir.Stmt{Source: stmt.String()}
		ctx.codegenExpr(stmt)
		ctx.emit(ir.OpPop)
		ctx.prog.Stmts = append(ctx.prog.Stmts, ctx.cur)
	}
	return ctx.prog
}

func (ctx *Context) codegenLvalue(node *ast.Node) {
	d, ok := node.Data.(ast.VarNode)
	if !ok {
		panic(fmt.Sprintf("codegen: %s is not an lvalue", node))
	}
	ctx.emit(ir.OpAddr).Offset = d.Offset
}

var binaryOps = map[ast.Op]ir.Op{
	ast.Add: ir.OpAdd,
	ast.Sub: ir.OpSub,
	ast.Mul: ir.OpMul,
	ast.Div: ir.OpDiv,
	ast.Eq:  ir.OpCEq,
	ast.Ne:  ir.OpCNe,
	ast.Lt:  ir.OpCLt,
	ast.Le:  ir.OpCLe,
}

func (ctx *Context) codegenExpr(node *ast.Node) {
	switch d := node.Data.(type) {
	case ast.NumberNode:
		ctx.emit(ir.OpPush).Imm = d.Value
	case ast.VarNode:
		ctx.codegenLvalue(node)
		ctx.emit(ir.OpLoad)
	case ast.AssignNode:
		ctx.codegenLvalue(d.Target)
		ctx.codegenExpr(d.Value)
		ctx.emit(ir.OpStore)
	case ast.BinaryOpNode:
		// left is evaluated first; the backend pops right then left
		ctx.codegenExpr(d.Left)
		ctx.codegenExpr(d.Right)
		ctx.emit(binaryOps[d.Op])
	default:
		panic(fmt.Sprintf("codegen: unexpected node type %d", node.Type))
	}
}
