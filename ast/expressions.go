package ast

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ilkit/ilexpr/bytecode"
	"github.com/ilkit/ilexpr/metadata"
)

// Constant is a literal value. Value is one of int32, int64, float32,
// float64, string, nil (the null reference), or, for loaded metadata
// handles, *metadata.Type, *metadata.Field, or *metadata.Method.
type Constant struct {
	Offset int
	Value  any
	T      *metadata.Type
}

func (x *Constant) exprNode() {}

func (x *Constant) Pos() int             { return x.Offset }
func (x *Constant) Type() *metadata.Type { return x.T }

func (x *Constant) String() string {
	switch v := x.Value.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	case float32:
		return formatFloat(float64(v), 32)
	case float64:
		return formatFloat(v, 64)
	case *metadata.Type:
		return "typeof(" + v.FullName() + ")"
	case *metadata.Field:
		return "fieldof(" + v.String() + ")"
	case *metadata.Method:
		return "methodof(" + v.String() + ")"
	default:
		return fmt.Sprint(v)
	}
}

func formatFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "+Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// Slot is the symbol for an argument or local variable. One Slot is created
// per slot per transformation and shared by every reference to it.
type Slot struct {
	Kind  bytecode.SlotKind
	Index int
	T     *metadata.Type
}

func (x *Slot) exprNode() {}

func (x *Slot) Pos() int             { return NoPos }
func (x *Slot) Type() *metadata.Type { return x.T }

func (x *Slot) String() string {
	return fmt.Sprintf("%s%d", x.Kind, x.Index)
}

// FieldAccess reads a field. X is nil for static fields.
type FieldAccess struct {
	Offset int
	X      Expr
	Field  *metadata.Field
}

func (x *FieldAccess) exprNode() {}

func (x *FieldAccess) Pos() int             { return x.Offset }
func (x *FieldAccess) Type() *metadata.Type { return x.Field.Type }

func (x *FieldAccess) String() string {
	if x.X == nil {
		return x.Field.DeclaringType.FullName() + "." + x.Field.Name
	}
	return x.X.String() + "." + x.Field.Name
}

// ArrayAccess reads an array element.
type ArrayAccess struct {
	Offset int
	X      Expr
	Index  Expr
	Elem   *metadata.Type // nil when implied by the type of X
}

func (x *ArrayAccess) exprNode() {}

func (x *ArrayAccess) Pos() int { return x.Offset }

func (x *ArrayAccess) Type() *metadata.Type {
	if x.Elem != nil {
		return x.Elem
	}
	if t := x.X.Type(); t != nil {
		return t.Elem
	}
	return nil
}

func (x *ArrayAccess) String() string {
	return x.X.String() + "[" + x.Index.String() + "]"
}

// Call invokes a method. Receiver is nil for static methods and for object
// construction, which New marks.
type Call struct {
	Offset   int
	Method   *metadata.Method
	Receiver Expr
	Args     []Expr
	Virtual  bool
	New      bool
}

func (x *Call) exprNode() {}

func (x *Call) Pos() int { return x.Offset }

func (x *Call) Type() *metadata.Type {
	if x.New {
		return x.Method.DeclaringType
	}
	return x.Method.ReturnType
}

func (x *Call) String() string {
	var out bytes.Buffer
	switch {
	case x.New:
		out.WriteString("new ")
		out.WriteString(x.Method.DeclaringType.FullName())
	case x.Receiver != nil:
		out.WriteString(x.Receiver.String())
		out.WriteString(".")
		out.WriteString(x.Method.Name)
	default:
		out.WriteString(x.Method.DeclaringType.FullName())
		out.WriteString(".")
		out.WriteString(x.Method.Name)
	}
	args := make([]string, len(x.Args))
	for i, arg := range x.Args {
		args[i] = arg.String()
	}
	out.WriteString("(")
	out.WriteString(strings.Join(args, ", "))
	out.WriteString(")")
	return out.String()
}

// Unary is a single-operand operation.
type Unary struct {
	Offset int
	Op     UnaryOp
	X      Expr
}

func (x *Unary) exprNode() {}

func (x *Unary) Pos() int { return x.Offset }

func (x *Unary) Type() *metadata.Type {
	if x.Op == ArrayLength {
		return metadata.NativeUInt
	}
	return x.X.Type()
}

func (x *Unary) String() string {
	switch x.Op {
	case Neg, Not:
		return "(" + x.Op.String() + x.X.String() + ")"
	default:
		return x.Op.String() + "(" + x.X.String() + ")"
	}
}

// Binary is a two-operand operation. X is the left operand. Unsigned marks
// the unsigned or unordered forms of the operator; Checked marks arithmetic
// that traps on overflow.
type Binary struct {
	Offset   int
	Op       BinaryOp
	X        Expr
	Y        Expr
	Unsigned bool
	Checked  bool
}

func (x *Binary) exprNode() {}

func (x *Binary) Pos() int { return x.Offset }

func (x *Binary) Type() *metadata.Type {
	if x.Op.IsComparison() {
		return metadata.Bool
	}
	return x.X.Type()
}

func (x *Binary) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	out.WriteString(x.X.String())
	out.WriteString(" ")
	out.WriteString(x.Op.String())
	if x.Unsigned {
		out.WriteString(".un")
	}
	out.WriteString(" ")
	out.WriteString(x.Y.String())
	out.WriteString(")")
	if x.Checked {
		return "checked" + out.String()
	}
	return out.String()
}

// Convert converts a value to another type.
type Convert struct {
	Offset   int
	Op       ConvertOp
	X        Expr
	To       *metadata.Type
	Checked  bool
	Unsigned bool // the source is treated as unsigned
}

func (x *Convert) exprNode() {}

func (x *Convert) Pos() int             { return x.Offset }
func (x *Convert) Type() *metadata.Type { return x.To }

func (x *Convert) String() string {
	var s string
	switch x.Op {
	case TypeAs:
		s = "(" + x.X.String() + " as " + x.To.FullName() + ")"
	case Box:
		s = "box(" + x.X.String() + ")"
	case Unbox:
		s = "unbox<" + x.To.String() + ">(" + x.X.String() + ")"
	default:
		s = "(" + x.To.String() + ")" + x.X.String()
	}
	if x.Unsigned {
		s = "unsigned" + s
	}
	if x.Checked {
		s = "checked(" + s + ")"
	}
	return s
}

// Conditional selects Then when Test is true (non-zero, non-null) and Else
// otherwise.
type Conditional struct {
	Offset int
	Test   Expr
	Then   Expr
	Else   Expr
}

func (x *Conditional) exprNode() {}

func (x *Conditional) Pos() int { return x.Offset }

func (x *Conditional) Type() *metadata.Type {
	if t := x.Then.Type(); t != nil {
		return t
	}
	return x.Else.Type()
}

func (x *Conditional) String() string {
	return "(" + x.Test.String() + " ? " + x.Then.String() + " : " + x.Else.String() + ")"
}
