package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStackEffect(t *testing.T) {
	assert.Equal(t, 1, OpPush.StackEffect())
	assert.Equal(t, 1, OpAddr.StackEffect())
	assert.Equal(t, 0, OpLoad.StackEffect())
	assert.Equal(t, -1, OpStore.StackEffect())
	assert.Equal(t, -1, OpCLe.StackEffect())
	assert.Equal(t, -1, OpPop.StackEffect())
	assert.True(t, OpDiv.IsBinary())
	assert.False(t, OpPop.IsBinary())
	assert.Equal(t, "op(99)", Op(99).String())
}

func TestProgramString(t *testing.T) {
	p := &Program{
		FrameSize: 208,
		WordSize:  8,
		Slots:     map[int]string{8: "a", 24: "c"},
		Stmts: []*Stmt{{
			Source: "(= a 1)",
			Instructions: []*Instruction{
				{Op: OpAddr, Offset: 8}, {Op: OpPush, Imm: 1}, {Op: OpStore}, {Op: OpPop},
			},
		}},
	}
	assert.Equal(t, []int{8, 24}, p.SlotOffsets())
	assert.Equal(t, "# frame 208 bytes\n"+
		"#   8    a\n"+
		"#   24   c\n"+
		"stmt 0: (= a 1)\n"+
		"  addr 8\n  push 1\n  store\n  pop\n", p.String())
}
