package ast

import "fmt"

// Frame assigns local variables to 8-byte slots below the frame base. In
// the fixed layout a single letter always lands at (letter-'a'+1)*8; in
// the dynamic layout names are given the next free slot in order of
// first appearance. Either way the frame never grows past its capacity.
type Frame struct {
	capacity int
	dynamic  bool
	offsets  map[string]int
	order    []string
}

const slotSize = 8

func NewFixedFrame(capacity int) *Frame {
	return &Frame{capacity: capacity, offsets: make(map[string]int)}
}

func NewDynamicFrame(capacity int) *Frame {
	return &Frame{capacity: capacity, dynamic: true, offsets: make(map[string]int)}
}

// Slot returns the offset of name, allocating a slot on first use.
func (f *Frame) Slot(name string) (int, error) {
	if off, ok := f.offsets[name]; ok {
		return off, nil
	}

	var slot int
	if f.dynamic {
		slot = len(f.order)
	} else {
		if len(name) != 1 || name[0] < 'a' || name[0] > 'z' {
			return 0, fmt.Errorf("'%s' is not a single-letter variable", name)
		}
		slot = int(name[0] - 'a')
	}
	if slot >= f.capacity {
		return 0, fmt.Errorf("too many variables: frame holds %d slots, '%s' needs slot %d", f.capacity, name, slot+1)
	}

	off := (slot + 1) * slotSize
	f.offsets[name] = off
	f.order = append(f.order, name)
	return off, nil
}

// Size is the number of bytes reserved for the frame.
func (f *Frame) Size() int { return f.capacity * slotSize }

// Capacity is the number of slots in the frame.
func (f *Frame) Capacity() int { return f.capacity }

// Names lists the variables in order of first appearance.
func (f *Frame) Names() []string { return append([]string(nil), f.order...) }

// Offset looks up name without allocating.
func (f *Frame) Offset(name string) (int, bool) {
	off, ok := f.offsets[name]
	return off, ok
}
