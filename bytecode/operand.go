package bytecode

import (
	"fmt"
	"strconv"

	"github.com/ilkit/ilexpr/metadata"
)

// Operand is the decoded operand of an instruction. The set of variants is
// closed; consumers dispatch on the concrete type.
type Operand interface {
	fmt.Stringer
	operand()
}

// NoTarget is the Target of a branch that has not been resolved.
const NoTarget = -1

// BranchTarget is a branch destination. Raw is the absolute offset encoded
// in the stream (the displacement already applied to the end of the branch
// instruction). Target is the arena index of the instruction at that offset,
// set by the decoder's fix-up pass.
type BranchTarget struct {
	Raw    int
	Target int
}

// NewBranchTarget returns an unresolved branch to the given offset.
func NewBranchTarget(raw int) *BranchTarget {
	return &BranchTarget{Raw: raw, Target: NoTarget}
}

// Resolved reports whether the fix-up pass found the target instruction.
func (b *BranchTarget) Resolved() bool {
	return b.Target != NoTarget
}

func (b *BranchTarget) String() string {
	return fmt.Sprintf("IL_%04x", b.Raw)
}

func (*BranchTarget) operand() {}

// FieldRef references a field. Field is nil when the token did not resolve.
type FieldRef struct {
	Token metadata.Token
	Field *metadata.Field
}

func (r FieldRef) String() string {
	if r.Field == nil {
		return r.Token.String()
	}
	return r.Field.String()
}

func (FieldRef) operand() {}

// MethodRef references a method. Method is nil when the token did not
// resolve.
type MethodRef struct {
	Token  metadata.Token
	Method *metadata.Method
}

func (r MethodRef) String() string {
	if r.Method == nil {
		return r.Token.String()
	}
	return r.Method.String()
}

func (MethodRef) operand() {}

// TypeRef references a type. Type is nil when the token did not resolve.
type TypeRef struct {
	Token metadata.Token
	Type  *metadata.Type
}

func (r TypeRef) String() string {
	if r.Type == nil {
		return r.Token.String()
	}
	return r.Type.FullName()
}

func (TypeRef) operand() {}

// StringRef references a user string. OK is false when the token did not
// resolve.
type StringRef struct {
	Token metadata.Token
	Value string
	OK    bool
}

func (r StringRef) String() string {
	if !r.OK {
		return r.Token.String()
	}
	return strconv.Quote(r.Value)
}

func (StringRef) operand() {}

// Number is the set of immediate operand types.
type Number interface {
	~int8 | ~uint8 | ~int32 | ~int64 | ~float32 | ~float64
}

// Immediate is an inline constant.
type Immediate[T Number] struct {
	Value T
}

func (i Immediate[T]) String() string {
	return fmt.Sprint(i.Value)
}

func (Immediate[T]) operand() {}

// SlotKind distinguishes argument slots from local variable slots.
type SlotKind uint8

const (
	SlotArg SlotKind = iota
	SlotLocal
)

func (k SlotKind) String() string {
	if k == SlotLocal {
		return "loc"
	}
	return "arg"
}

// SlotRef references an argument or local variable by index.
type SlotRef struct {
	Kind  SlotKind
	Index int
}

func (r SlotRef) String() string {
	return fmt.Sprintf("%s%d", r.Kind, r.Index)
}

func (SlotRef) operand() {}

// DataBlob carries raw bytes referenced by a token, such as the call site
// signature of calli. Bytes is nil when the token did not resolve.
type DataBlob struct {
	Token metadata.Token
	Bytes []byte
}

func (b DataBlob) String() string {
	if b.Bytes == nil {
		return b.Token.String()
	}
	return fmt.Sprintf("%s [% x]", b.Token, b.Bytes)
}

func (DataBlob) operand() {}
