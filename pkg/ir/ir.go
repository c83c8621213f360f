package ir

import (
	"fmt"
	"strings"
)

// Op is a stack machine operation. Every op pops its operands from the
// operand stack and pushes at most one result.
type Op int

const (
	OpPush  Op = iota // push Imm
	OpAddr            // push frame_base - Offset
	OpLoad            // pop address, push the word stored there
	OpStore           // pop value, pop address, store, push value
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpCEq
	OpCNe
	OpCLt
	OpCLe
	OpPop // pop the statement value into the result register
)

var opNames = [...]string{
	OpPush: "push", OpAddr: "addr", OpLoad: "load", OpStore: "store",
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div",
	OpCEq: "ceq", OpCNe: "cne", OpCLt: "clt", OpCLe: "cle",
	OpPop: "pop",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("op(%d)", int(op))
}

// IsBinary reports whether op pops two operands and pushes one result.
func (op Op) IsBinary() bool { return op >= OpAdd && op <= OpCLe }

// StackEffect is the net change in operand stack depth caused by op.
func (op Op) StackEffect() int {
	switch {
	case op == OpPush, op == OpAddr:
		return 1
	case op == OpStore, op.IsBinary(), op == OpPop:
		return -1
	default:
		return 0
	}
}

type Instruction struct {
	Op     Op
	Imm    int64
	Offset int
}

func (in *Instruction) String() string {
	switch in.Op {
	case OpPush:
		return fmt.Sprintf("%s %d", in.Op, in.Imm)
	case OpAddr:
		return fmt.Sprintf("%s %d", in.Op, in.Offset)
	default:
		return in.Op.String()
	}
}

// Stmt is the instruction sequence of one top-level statement, ending
// with OpPop.
type Stmt struct {
	Source       string
	Instructions []*Instruction
}

type Program struct {
	Stmts     []*Stmt
	FrameSize int
	WordSize  int
	// Slots lists variable names by offset for listings and backends that
	// allocate one stack object per variable.
	Slots map[int]string
}

// SlotOffsets returns the used offsets in ascending order.
func (p *Program) SlotOffsets() []int {
	var offs []int
	for off := p.WordSize; off <= p.FrameSize; off += p.WordSize {
		if _, ok := p.Slots[off]; ok {
			offs = append(offs, off)
		}
	}
	return offs
}

// String renders the program as a commented listing.
func (p *Program) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# frame %d bytes\n", p.FrameSize)
	for _, off := range p.SlotOffsets() {
		fmt.Fprintf(&sb, "#   %-4d %s\n", off, p.Slots[off])
	}
	for i, stmt := range p.Stmts {
		fmt.Fprintf(&sb, "stmt %d: %s\n", i, stmt.Source)
		for _, in := range stmt.Instructions {
			fmt.Fprintf(&sb, "  %s\n", in)
		}
	}
	return sb.String()
}
