package vm

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninecc/ninecc/pkg/codegen"
	"github.com/ninecc/ninecc/pkg/config"
	"github.com/ninecc/ninecc/pkg/ir"
	"github.com/ninecc/ninecc/pkg/lexer"
	"github.com/ninecc/ninecc/pkg/parser"
)

func compile(t *testing.T, src string) *ir.Program {
	t.Helper()
	cfg := config.NewConfig()
	toks, _, err := lexer.Tokenize(src, cfg)
	require.NoError(t, err)
	tree, err := parser.NewParser(toks, cfg).Parse()
	require.NoError(t, err)
	return codegen.NewContext(cfg).GenerateIR(tree)
}

func TestRun(t *testing.T) {
	tests := []struct {
		src  string
		want int64
	}{
		{"1+2;", 3},
		{"2+3*4;", 14},
		{"(2+3)*4;", 20},
		{"a=3;a*2;", 6},
		{"a=1;b=2;a+b;", 3},
		{"1<2;", 1},
		{"2<1;", 0},
		{"2>=2;", 1},
		{"3>2;", 1},
		{"2>3;", 0},
		{"1==1;", 1},
		{"1!=1;", 0},
		{"a=b=5;a;", 5},
		{"-3+5;", 2},
		{"-7/2;", -3},
		{"10-4-3;", 3},
		{"z=26;y=25;z-y;", 1},
		{"a=2;a=a*a;a=a*a;a;", 16},
		{"42;", 42},
		{"", 0},
		{"9223372036854775807+1;", math.MinInt64},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := New().Run(compile(t, tt.src))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnassignedVariablesAreZero(t *testing.T) {
	got, err := New().Run(compile(t, "q;"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), got)
}

func TestDivideByZero(t *testing.T) {
	_, err := New().Run(compile(t, "a=0;1;5/a;"))
	require.Error(t, err)

	var f *Fault
	require.ErrorAs(t, err, &f)
	assert.Equal(t, DivideByZero, f.Kind)
	assert.Equal(t, 2, f.Stmt)
	assert.Equal(t, "division by zero in statement 2 at 'div'", err.Error())
}

func TestMinIntDivision(t *testing.T) {
	got, err := New().Run(compile(t, "a=-9223372036854775807-1;a/-1;"))
	require.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), got)
}

func TestMalformedPrograms(t *testing.T) {
	underflow := &ir.Program{FrameSize: 208, WordSize: 8, Stmts: []*ir.Stmt{
		{Instructions: []*ir.Instruction{{Op: ir.OpPush, Imm: 1}, {Op: ir.OpAdd}}},
	}}
	_, err := New().Run(underflow)
	var f *Fault
	require.ErrorAs(t, err, &f)
	assert.Equal(t, StackUnderflow, f.Kind)

	outside := &ir.Program{FrameSize: 208, WordSize: 8, Stmts: []*ir.Stmt{
		{Instructions: []*ir.Instruction{{Op: ir.OpAddr, Offset: 216}, {Op: ir.OpLoad}, {Op: ir.OpPop}}},
	}}
	_, err = New().Run(outside)
	require.ErrorAs(t, err, &f)
	assert.Equal(t, BadAddress, f.Kind)
}

func TestReuse(t *testing.T) {
	vm := New()
	_, err := vm.Run(compile(t, "a=9;"))
	require.NoError(t, err)
	got, err := vm.Run(compile(t, "a;"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), got, "each run starts from a fresh frame")
}

func TestTrace(t *testing.T) {
	var buf bytes.Buffer
	_, err := New(WithTrace(&buf)).Run(compile(t, "1;"))
	require.NoError(t, err)
	assert.Equal(t, "push 1     [1]\npop        []\n", buf.String())
}
