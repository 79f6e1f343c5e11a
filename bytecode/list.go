package bytecode

import (
	"fmt"
	"iter"

	"github.com/hashicorp/go-multierror"
	"github.com/ilkit/ilexpr/errz"
)

// List is a doubly-linked sequence of instructions stored in an arena.
// Instructions are addressed by their arena index, which stays stable across
// splices; prev and next are indices into the same arena. Every link change
// goes through link, so both directions are always updated together.
type List struct {
	arena    []*Instruction
	head     int
	tail     int
	count    int
	size     int
	byOffset map[int]int
}

// NewList returns an empty List.
func NewList() *List {
	return &List{head: none, tail: none, byOffset: map[int]int{}}
}

// link makes b follow a. Either side may be none, in which case the head or
// tail of the list is updated instead.
func (l *List) link(a, b int) {
	if a == none {
		l.head = b
	} else {
		l.arena[a].next = b
	}
	if b == none {
		l.tail = a
	} else {
		l.arena[b].prev = a
	}
}

func (l *List) adopt(ins *Instruction) int {
	if ins.id != none {
		panic(fmt.Sprintf("bytecode: instruction %s already belongs to a list", ins))
	}
	ins.id = len(l.arena)
	ins.live = true
	l.arena = append(l.arena, ins)
	l.count++
	return ins.id
}

// Append adds an instruction at the end of the list.
func (l *List) Append(ins *Instruction) *Instruction {
	id := l.adopt(ins)
	ins.offset = l.size
	l.link(l.tail, id)
	l.link(id, none)
	l.size += ins.Length()
	l.byOffset[ins.offset] = id
	return ins
}

// InsertAfter splices ins into the list directly after at.
func (l *List) InsertAfter(at, ins *Instruction) *Instruction {
	l.mustOwn(at)
	next := at.next
	id := l.adopt(ins)
	l.link(at.id, id)
	l.link(id, next)
	l.renumber()
	return ins
}

// InsertBefore splices ins into the list directly before at.
func (l *List) InsertBefore(at, ins *Instruction) *Instruction {
	l.mustOwn(at)
	prev := at.prev
	id := l.adopt(ins)
	l.link(prev, id)
	l.link(id, at.id)
	l.renumber()
	return ins
}

// Remove unlinks ins from the list. Its arena slot is retained so that the
// indices of other instructions do not change.
func (l *List) Remove(ins *Instruction) {
	l.mustOwn(ins)
	l.link(ins.prev, ins.next)
	ins.prev, ins.next = none, none
	ins.live = false
	l.count--
	l.renumber()
}

func (l *List) mustOwn(ins *Instruction) {
	if ins.id < 0 || ins.id >= len(l.arena) || l.arena[ins.id] != ins || !ins.live {
		panic(fmt.Sprintf("bytecode: instruction %s is not in this list", ins))
	}
}

// renumber recomputes every offset by walking the chain from the head.
func (l *List) renumber() {
	clear(l.byOffset)
	offset := 0
	for id := l.head; id != none; id = l.arena[id].next {
		ins := l.arena[id]
		ins.offset = offset
		l.byOffset[offset] = id
		offset += ins.Length()
	}
	l.size = offset
}

// Head returns the first instruction, or nil if the list is empty.
func (l *List) Head() *Instruction {
	return l.At(l.head)
}

// Tail returns the last instruction, or nil if the list is empty.
func (l *List) Tail() *Instruction {
	return l.At(l.tail)
}

// Next returns the instruction following ins, or nil at the end.
func (l *List) Next(ins *Instruction) *Instruction {
	return l.At(ins.next)
}

// Prev returns the instruction preceding ins, or nil at the head.
func (l *List) Prev(ins *Instruction) *Instruction {
	return l.At(ins.prev)
}

// At returns the live instruction with the given arena index, or nil.
func (l *List) At(id int) *Instruction {
	if id < 0 || id >= len(l.arena) || !l.arena[id].live {
		return nil
	}
	return l.arena[id]
}

// Len returns the number of instructions in the list.
func (l *List) Len() int {
	return l.count
}

// Size returns the encoded size of the list in bytes.
func (l *List) Size() int {
	return l.size
}

// FindOffset returns the instruction that starts at the given byte offset.
func (l *List) FindOffset(offset int) (*Instruction, bool) {
	id, ok := l.byOffset[offset]
	if !ok {
		return nil, false
	}
	return l.arena[id], true
}

// Target returns the instruction a resolved branch points at.
func (l *List) Target(b *BranchTarget) (*Instruction, bool) {
	ins := l.At(b.Target)
	return ins, ins != nil
}

// Instructions iterates over the list in chain order.
func (l *List) Instructions() iter.Seq[*Instruction] {
	return func(yield func(*Instruction) bool) {
		for id := l.head; id != none; id = l.arena[id].next {
			if !yield(l.arena[id]) {
				return
			}
		}
	}
}

// Verify checks the structural invariants of the list: the chain is acyclic
// and consistent in both directions, visits every live instruction exactly
// once, offsets follow encoded lengths from zero, and every branch refers to
// a live instruction. All violations found are reported together.
func (l *List) Verify() error {
	var result *multierror.Error
	seen := make(map[int]bool, l.count)
	prev, offset := none, 0
	for id := l.head; id != none; id = l.arena[id].next {
		if id < 0 || id >= len(l.arena) {
			result = multierror.Append(result, errz.Malformed(offset, "link to index %d outside the arena", id))
			break
		}
		if seen[id] {
			result = multierror.Append(result, errz.Malformed(offset, "cycle through instruction %d", id))
			break
		}
		seen[id] = true
		ins := l.arena[id]
		if !ins.live {
			result = multierror.Append(result, errz.Malformed(ins.offset, "removed instruction %d is still linked", id))
		}
		if ins.prev != prev {
			result = multierror.Append(result, errz.Malformed(ins.offset, "prev link is %d, expected %d", ins.prev, prev))
		}
		if ins.offset != offset {
			result = multierror.Append(result, errz.Malformed(ins.offset, "offset should be %d", offset))
		}
		if b, ok := ins.Branch(); ok {
			if target := l.At(b.Target); target == nil {
				result = multierror.Append(result, errz.Malformed(ins.offset, "branch to %s is unresolved", b))
			}
		}
		prev, offset = id, offset+ins.Length()
	}
	if prev != l.tail {
		result = multierror.Append(result, errz.Malformed(errz.NoOffset, "tail is %d, chain ends at %d", l.tail, prev))
	}
	if len(seen) != l.count {
		result = multierror.Append(result, errz.Malformed(errz.NoOffset, "chain visits %d of %d instructions", len(seen), l.count))
	}
	return result.ErrorOrNil()
}
