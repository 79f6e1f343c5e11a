package bytecode

import (
	"fmt"

	"github.com/ilkit/ilexpr/op"
)

const none = -1

// Instruction is one decoded instruction. The opcode and operand never
// change after construction; the links and offset are owned by the List the
// instruction belongs to.
type Instruction struct {
	info    op.Info
	operand Operand

	id     int
	prev   int
	next   int
	offset int
	live   bool
}

// NewInstruction creates a detached instruction. It fails for undefined
// opcodes and for opcodes whose encoded length is not fixed.
func NewInstruction(code op.Code, operand Operand) (*Instruction, error) {
	info := op.GetInfo(code)
	if !info.Valid() {
		return nil, fmt.Errorf("undefined opcode %s", code)
	}
	if info.Length() < 0 {
		return nil, fmt.Errorf("%s has no fixed encoding", code)
	}
	return &Instruction{
		info:    info,
		operand: operand,
		id:      none,
		prev:    none,
		next:    none,
	}, nil
}

// MustInstruction is like NewInstruction but panics on error.
func MustInstruction(code op.Code, operand Operand) *Instruction {
	ins, err := NewInstruction(code, operand)
	if err != nil {
		panic(err)
	}
	return ins
}

// Code returns the opcode.
func (i *Instruction) Code() op.Code {
	return i.info.Code
}

// Info returns the static facts about the opcode.
func (i *Instruction) Info() op.Info {
	return i.info
}

// Operand returns the decoded operand, or nil for InlineNone opcodes.
func (i *Instruction) Operand() Operand {
	return i.operand
}

// ID returns the arena index of the instruction within its List.
func (i *Instruction) ID() int {
	return i.id
}

// Offset returns the byte offset of the instruction within the method body.
func (i *Instruction) Offset() int {
	return i.offset
}

// Length returns the encoded length of the instruction in bytes.
func (i *Instruction) Length() int {
	return i.info.Length()
}

// End returns the offset of the byte following the instruction.
func (i *Instruction) End() int {
	return i.offset + i.info.Length()
}

// Branch returns the branch operand, if the instruction has one.
func (i *Instruction) Branch() (*BranchTarget, bool) {
	b, ok := i.operand.(*BranchTarget)
	return b, ok
}

// Slot returns the slot an argument or local load, address, or store
// instruction refers to. The short macro forms (ldarg.0, stloc.3, ...) are
// normalized to the same SlotRef an explicit operand would carry.
func (i *Instruction) Slot() (SlotRef, bool) {
	code := i.info.Code
	switch {
	case code >= op.Ldarg0 && code <= op.Ldarg3:
		return SlotRef{Kind: SlotArg, Index: int(code - op.Ldarg0)}, true
	case code >= op.Ldloc0 && code <= op.Ldloc3:
		return SlotRef{Kind: SlotLocal, Index: int(code - op.Ldloc0)}, true
	case code >= op.Stloc0 && code <= op.Stloc3:
		return SlotRef{Kind: SlotLocal, Index: int(code - op.Stloc0)}, true
	}
	ref, ok := i.operand.(SlotRef)
	return ref, ok
}

func (i *Instruction) String() string {
	if i.operand == nil {
		return fmt.Sprintf("IL_%04x: %s", i.offset, i.info.Name)
	}
	return fmt.Sprintf("IL_%04x: %s %s", i.offset, i.info.Name, i.operand)
}
