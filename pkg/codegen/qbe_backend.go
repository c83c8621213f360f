package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ninecc/ninecc/pkg/config"
	"github.com/ninecc/ninecc/pkg/ir"
)

// qbeBackend turns the stack IR into QBE SSA by simulating the operand
// stack at compile time: every push becomes a constant or a fresh
// temporary, and every variable slot becomes one alloc8 object.
type qbeBackend struct {
	out     *strings.Builder
	prog    *ir.Program
	stack   []string
	tempNum int
	last    string
}

func NewQBEBackend() Backend { return &qbeBackend{} }

func (b *qbeBackend) GenerateIR(prog *ir.Program, cfg *config.Config) (string, error) {
	var qbeIRBuilder strings.Builder
	b.out = &qbeIRBuilder
	b.prog = prog
	b.stack = b.stack[:0]
	b.tempNum = 0
	b.last = "0"

	if err := b.gen(); err != nil {
		return "", err
	}
	return qbeIRBuilder.String(), nil
}

func (b *qbeBackend) gen() error {
	b.out.WriteString("export function l $main() {\n@start\n")

	for _, off := range b.prog.SlotOffsets() {
		fmt.Fprintf(b.out, "\t%s =l alloc8 %d\n", slotName(off), b.prog.WordSize)
	}

	for i, stmt := range b.prog.Stmts {
		fmt.Fprintf(b.out, "\t# %s\n", stmt.Source)
		for _, in := range stmt.Instructions {
			if err := b.genInstr(in); err != nil {
				return fmt.Errorf("statement %d: %w", i, err)
			}
		}
	}

	fmt.Fprintf(b.out, "\tret %s\n}\n", b.last)
	return nil
}

func slotName(off int) string { return "%s" + strconv.Itoa(off) }

func (b *qbeBackend) newTemp() string {
	b.tempNum++
	return "%t" + strconv.Itoa(b.tempNum)
}

func (b *qbeBackend) push(v string) { b.stack = append(b.stack, v) }

func (b *qbeBackend) pop() (string, error) {
	if len(b.stack) == 0 {
		return "", fmt.Errorf("qbe: operand stack underflow")
	}
	v := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	return v, nil
}

var qbeArith = map[ir.Op]string{
	ir.OpAdd: "add",
	ir.OpSub: "sub",
	ir.OpMul: "mul",
	ir.OpDiv: "div",
}

var qbeCompare = map[ir.Op]string{
	ir.OpCEq: "ceql",
	ir.OpCNe: "cnel",
	ir.OpCLt: "csltl",
	ir.OpCLe: "cslel",
}

func (b *qbeBackend) genInstr(in *ir.Instruction) error {
	switch in.Op {
	case ir.OpPush:
		b.push(strconv.FormatInt(in.Imm, 10))
	case ir.OpAddr:
		if _, ok := b.prog.Slots[in.Offset]; !ok {
			return fmt.Errorf("qbe: no slot at offset %d", in.Offset)
		}
		b.push(slotName(in.Offset))
	case ir.OpLoad:
		addr, err := b.pop()
		if err != nil {
			return err
		}
		t := b.newTemp()
		fmt.Fprintf(b.out, "\t%s =l loadl %s\n", t, addr)
		b.push(t)
	case ir.OpStore:
		val, err := b.pop()
		if err != nil {
			return err
		}
		addr, err := b.pop()
		if err != nil {
			return err
		}
		fmt.Fprintf(b.out, "\tstorel %s, %s\n", val, addr)
		b.push(val)
	case ir.OpPop:
		v, err := b.pop()
		if err != nil {
			return err
		}
		b.last = v
	default:
		rhs, err := b.pop()
		if err != nil {
			return err
		}
		lhs, err := b.pop()
		if err != nil {
			return err
		}
		if op, ok := qbeArith[in.Op]; ok {
			t := b.newTemp()
			fmt.Fprintf(b.out, "\t%s =l %s %s, %s\n", t, op, lhs, rhs)
			b.push(t)
			return nil
		}
		op, ok := qbeCompare[in.Op]
		if !ok {
			return fmt.Errorf("qbe: unsupported instruction '%s'", in)
		}
		w := b.newTemp()
		fmt.Fprintf(b.out, "\t%s =w %s %s, %s\n", w, op, lhs, rhs)
		t := b.newTemp()
		fmt.Fprintf(b.out, "\t%s =l extsw %s\n", t, w)
		b.push(t)
	}
	return nil
}
