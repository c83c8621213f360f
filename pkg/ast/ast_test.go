package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninecc/ninecc/pkg/token"
)

func TestFixedFrameOffsets(t *testing.T) {
	f := NewFixedFrame(26)
	for i, name := range []string{"a", "b", "z"} {
		off, err := f.Slot(name)
		require.NoError(t, err)
		want := []int{8, 16, 208}[i]
		assert.Equal(t, want, off, name)
	}

	// reuse returns the same slot
	off, err := f.Slot("b")
	require.NoError(t, err)
	assert.Equal(t, 16, off)
	assert.Equal(t, []string{"a", "b", "z"}, f.Names())
	assert.Equal(t, 208, f.Size())

	_, err = f.Slot("ab")
	assert.Error(t, err)
}

func TestDynamicFrameOffsets(t *testing.T) {
	f := NewDynamicFrame(2)
	off, err := f.Slot("zz")
	require.NoError(t, err)
	assert.Equal(t, 8, off)

	off, err = f.Slot("count")
	require.NoError(t, err)
	assert.Equal(t, 16, off)

	off, err = f.Slot("zz")
	require.NoError(t, err)
	assert.Equal(t, 8, off)

	_, err = f.Slot("third")
	assert.ErrorContains(t, err, "too many variables")

	_, ok := f.Offset("third")
	assert.False(t, ok)
}

func TestNodeString(t *testing.T) {
	a := NewVar(token.Token{}, "a", 8)
	sum := NewBinaryOp(token.Token{}, Add, NewNumber(token.Token{}, 1), NewBinaryOp(token.Token{}, Mul, NewNumber(token.Token{}, 2), NewNumber(token.Token{}, -3)))
	prog := &Program{Stmts: []*Node{NewAssign(token.Token{}, a, sum), a}}

	assert.Equal(t, "(= a (+ 1 (* 2 -3)))\na", prog.String())
}

func TestNewAssignRequiresVar(t *testing.T) {
	assert.Panics(t, func() {
		NewAssign(token.Token{}, NewNumber(token.Token{}, 1), NewNumber(token.Token{}, 2))
	})
	assert.True(t, IsLValue(NewVar(token.Token{}, "x", 8)))
	assert.False(t, IsLValue(NewNumber(token.Token{}, 1)))
}
