// Package vm interprets stack machine IR directly. It gives the same
// result a compiled program would leave in rax, without an assembler.
package vm

import (
	"fmt"
	"io"

	"github.com/ninecc/ninecc/pkg/ir"
)

type FaultKind int

const (
	DivideByZero FaultKind = iota
	StackUnderflow
	BadAddress
)

func (k FaultKind) String() string {
	switch k {
	case DivideByZero:
		return "division by zero"
	case StackUnderflow:
		return "stack underflow"
	case BadAddress:
		return "bad address"
	default:
		return fmt.Sprintf("fault(%d)", int(k))
	}
}

func (k FaultKind) Error() string { return k.String() }

// Fault is a runtime error raised while executing a program.
type Fault struct {
	Kind  FaultKind
	Stmt  int
	Instr ir.Instruction
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s in statement %d at '%s'", f.Kind, f.Stmt, &f.Instr)
}

// frameBase is the address the frame pointer appears to hold.
const frameBase int64 = 1 << 20

type VM struct {
	stack []int64
	frame []int64
	trace io.Writer
}

type Option func(*VM)

// WithTrace writes every executed instruction and the resulting stack to w.
func WithTrace(w io.Writer) Option {
	return func(vm *VM) { vm.trace = w }
}

func New(opts ...Option) *VM {
	vm := &VM{}
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// Run executes prog from a zeroed frame and returns the value of the last
// popped statement, or 0 for an empty program.
func (vm *VM) Run(prog *ir.Program) (int64, error) {
	word := prog.WordSize
	if word <= 0 {
		word = 8
	}
	vm.stack = vm.stack[:0]
	vm.frame = make([]int64, prog.FrameSize/word)

	var result int64
	for si, stmt := range prog.Stmts {
		for _, in := range stmt.Instructions {
			v, popped, err := vm.step(in, word)
			if err != nil {
				kind, ok := err.(FaultKind)
				if !ok {
					return 0, err
				}
				return 0, &Fault{Kind: kind, Stmt: si, Instr: *in}
			}
			if popped {
				result = v
			}
			if vm.trace != nil {
				fmt.Fprintf(vm.trace, "%-10s %v\n", in, vm.stack)
			}
		}
	}
	return result, nil
}

func (vm *VM) push(v int64) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() (int64, bool) {
	if len(vm.stack) == 0 {
		return 0, false
	}
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v, true
}

// slot maps a pointer produced by OpAddr back to its frame word.
func (vm *VM) slot(addr int64, word int) (int, bool) {
	off := frameBase - addr
	if off <= 0 || off%int64(word) != 0 || off/int64(word) > int64(len(vm.frame)) {
		return 0, false
	}
	return int(off/int64(word)) - 1, true
}

func (vm *VM) step(in *ir.Instruction, word int) (int64, bool, error) {
	switch in.Op {
	case ir.OpPush:
		vm.push(in.Imm)
	case ir.OpAddr:
		vm.push(frameBase - int64(in.Offset))
	case ir.OpLoad:
		addr, ok := vm.pop()
		if !ok {
			return 0, false, StackUnderflow
		}
		i, ok := vm.slot(addr, word)
		if !ok {
			return 0, false, BadAddress
		}
		vm.push(vm.frame[i])
	case ir.OpStore:
		val, ok := vm.pop()
		if !ok {
			return 0, false, StackUnderflow
		}
		addr, ok := vm.pop()
		if !ok {
			return 0, false, StackUnderflow
		}
		i, ok := vm.slot(addr, word)
		if !ok {
			return 0, false, BadAddress
		}
		vm.frame[i] = val
		vm.push(val)
	case ir.OpPop:
		v, ok := vm.pop()
		if !ok {
			return 0, false, StackUnderflow
		}
		return v, true, nil
	default:
		rhs, ok1 := vm.pop()
		lhs, ok2 := vm.pop()
		if !ok1 || !ok2 {
			return 0, false, StackUnderflow
		}
		v, err := binary(in.Op, lhs, rhs)
		if err != nil {
			return 0, false, err
		}
		vm.push(v)
	}
	return 0, false, nil
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func binary(op ir.Op, lhs, rhs int64) (int64, error) {
	switch op {
	case ir.OpAdd:
		return lhs + rhs, nil
	case ir.OpSub:
		return lhs - rhs, nil
	case ir.OpMul:
		return lhs * rhs, nil
	case ir.OpDiv:
		if rhs == 0 {
			return 0, DivideByZero
		}
		return lhs / rhs, nil
	case ir.OpCEq:
		return boolInt(lhs == rhs), nil
	case ir.OpCNe:
		return boolInt(lhs != rhs), nil
	case ir.OpCLt:
		return boolInt(lhs < rhs), nil
	case ir.OpCLe:
		return boolInt(lhs <= rhs), nil
	default:
		return 0, fmt.Errorf("vm: unsupported instruction '%s'", op)
	}
}
