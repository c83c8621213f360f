package codegen

import (
	"bytes"
	"fmt"
	"math"

	"github.com/ninecc/ninecc/pkg/config"
	"github.com/ninecc/ninecc/pkg/ir"
)

// amd64Backend writes Intel-syntax x86-64 assembly for a single main
// function. The operand stack is the machine stack; rax and rdi are the
// only scratch registers.
type amd64Backend struct {
	out *bytes.Buffer
}

func NewAMD64Backend() Backend { return &amd64Backend{} }

func (b *amd64Backend) GenerateIR(prog *ir.Program, cfg *config.Config) (string, error) {
	return prog.String(), nil
}

func (b *amd64Backend) Generate(prog *ir.Program, cfg *config.Config) (*bytes.Buffer, error) {
	b.out = new(bytes.Buffer)

	b.out.WriteString(".intel_syntax noprefix\n")
	b.out.WriteString(".globl main\n")
	b.out.WriteString("main:\n")

	b.line("push rbp")
	b.line("mov rbp, rsp")
	b.line("sub rsp, %d", prog.FrameSize)

	for _, stmt := range prog.Stmts {
		for _, in := range stmt.Instructions {
			if err := b.genInstr(in); err != nil {
				return nil, err
			}
		}
	}

	b.line("mov rsp, rbp")
	b.line("pop rbp")
	b.line("ret")
	return b.out, nil
}

func (b *amd64Backend) line(format string, args ...interface{}) {
	b.out.WriteString("  ")
	fmt.Fprintf(b.out, format, args...)
	b.out.WriteString("\n")
}

var amd64Setcc = map[ir.Op]string{
	ir.OpCEq: "sete",
	ir.OpCNe: "setne",
	ir.OpCLt: "setl",
	ir.OpCLe: "setle",
}

func (b *amd64Backend) genInstr(in *ir.Instruction) error {
	switch in.Op {
	case ir.OpPush:
		if in.Imm >= math.MinInt32 && in.Imm <= math.MaxInt32 {
			b.line("push %d", in.Imm)
		} else {
			b.line("movabs rax, %d", in.Imm)
			b.line("push rax")
		}
	case ir.OpAddr:
		b.line("mov rax, rbp")
		b.line("sub rax, %d", in.Offset)
		b.line("push rax")
	case ir.OpLoad:
		b.line("pop rax")
		b.line("mov rax, [rax]")
		b.line("push rax")
	case ir.OpStore:
		b.line("pop rdi")
		b.line("pop rax")
		b.line("mov [rax], rdi")
		b.line("push rdi")
	case ir.OpPop:
		b.line("pop rax")
	default:
		if !in.Op.IsBinary() {
			return fmt.Errorf("amd64: unsupported instruction '%s'", in)
		}
		b.line("pop rdi")
		b.line("pop rax")
		switch in.Op {
		case ir.OpAdd:
			b.line("add rax, rdi")
		case ir.OpSub:
			b.line("sub rax, rdi")
		case ir.OpMul:
			b.line("imul rax, rdi")
		case ir.OpDiv:
			b.line("cqo")
			b.line("idiv rdi")
		default:
			b.line("cmp rax, rdi")
			b.line("%s al", amd64Setcc[in.Op])
			b.line("movzb rax, al")
		}
		b.line("push rax")
	}
	return nil
}
