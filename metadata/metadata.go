// Package metadata describes the symbols a method body refers to: types,
// fields, methods, and properties, along with the resolver used to look them
// up by metadata token.
package metadata

import (
	"fmt"
	"strings"
)

// Token is a metadata token. The high byte names the table the token indexes
// and the low three bytes are the row number.
type Token uint32

// Metadata tables referenced by tokens embedded in method bodies.
const (
	TableTypeRef       = 0x01
	TableTypeDef       = 0x02
	TableField         = 0x04
	TableMethodDef     = 0x06
	TableMemberRef     = 0x0A
	TableStandAloneSig = 0x11
	TableTypeSpec      = 0x1B
	TableMethodSpec    = 0x2B
	TableUserString    = 0x70
)

// MakeToken builds a token from a table id and a row number.
func MakeToken(table byte, row uint32) Token {
	return Token(uint32(table)<<24 | row&0x00FFFFFF)
}

// Table returns the table id of the token.
func (t Token) Table() byte {
	return byte(t >> 24)
}

// Row returns the row number of the token.
func (t Token) Row() uint32 {
	return uint32(t) & 0x00FFFFFF
}

// IsType reports whether the token indexes one of the type tables.
func (t Token) IsType() bool {
	switch t.Table() {
	case TableTypeRef, TableTypeDef, TableTypeSpec:
		return true
	default:
		return false
	}
}

// IsMethod reports whether the token may name a method. MemberRef tokens
// may name either a method or a field.
func (t Token) IsMethod() bool {
	switch t.Table() {
	case TableMethodDef, TableMemberRef, TableMethodSpec:
		return true
	default:
		return false
	}
}

// IsField reports whether the token may name a field.
func (t Token) IsField() bool {
	switch t.Table() {
	case TableField, TableMemberRef:
		return true
	default:
		return false
	}
}

func (t Token) String() string {
	return fmt.Sprintf("0x%08X", uint32(t))
}

// Type describes a type referenced from a method body.
type Type struct {
	Token     Token
	Namespace string
	Name      string
	ValueType bool

	// Kind is set for the built-in primitive types.
	Kind Kind

	// Elem is the element type of an array type.
	Elem *Type
}

// FullName returns the namespace-qualified name of the type.
func (t *Type) FullName() string {
	if t == nil {
		return "<unresolved>"
	}
	if t.Elem != nil {
		return t.Elem.FullName() + "[]"
	}
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

// IsPrimitive reports whether the type is one of the built-in primitives.
func (t *Type) IsPrimitive() bool {
	return t != nil && t.Kind != KindNone
}

func (t *Type) String() string {
	if t != nil && t.Kind != KindNone {
		return t.Kind.String()
	}
	return t.FullName()
}

// Field describes a field.
type Field struct {
	Token             Token
	Name              string
	DeclaringType     *Type
	Type              *Type
	Static            bool
	CompilerGenerated bool
}

func (f *Field) String() string {
	if f == nil {
		return "<unresolved field>"
	}
	return f.DeclaringType.FullName() + "::" + f.Name
}

// Method describes a method signature. Params excludes the implicit
// receiver of instance methods.
type Method struct {
	Token             Token
	Name              string
	DeclaringType     *Type
	Params            []*Type
	ReturnType        *Type // nil for void
	Static            bool
	Virtual           bool
	Constructor       bool
	CompilerGenerated bool
}

// Arity returns the number of declared parameters, excluding the receiver.
func (m *Method) Arity() int {
	return len(m.Params)
}

// HasResult reports whether the method returns a value.
func (m *Method) HasResult() bool {
	return m.ReturnType != nil && m.ReturnType.Kind != KindVoid
}

func (m *Method) String() string {
	if m == nil {
		return "<unresolved method>"
	}
	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = p.String()
	}
	return fmt.Sprintf("%s::%s(%s)", m.DeclaringType.FullName(), m.Name, strings.Join(params, ", "))
}

// MethodBody is the compiled body of a method together with the slot layout
// needed to interpret it.
type MethodBody struct {
	Method *Method
	Locals []*Type
	Code   []byte
}

// ArgTypes returns the argument slot types in slot order. Instance methods
// have their receiver in slot 0.
func (b *MethodBody) ArgTypes() []*Type {
	m := b.Method
	if m == nil {
		return nil
	}
	args := make([]*Type, 0, len(m.Params)+1)
	if !m.Static {
		args = append(args, m.DeclaringType)
	}
	return append(args, m.Params...)
}

// Property is a declared property with optional accessor bodies.
type Property struct {
	Name          string
	DeclaringType *Type
	Type          *Type
	Getter        *MethodBody
	Setter        *MethodBody
}

func (p *Property) String() string {
	return p.DeclaringType.FullName() + "::" + p.Name
}
