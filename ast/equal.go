package ast

import "math"

// Equal reports whether two trees have the same shape and values. Positions
// are ignored; slots are equal when they name the same slot.
func Equal(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case *Constant:
		y, ok := b.(*Constant)
		return ok && x.T == y.T && sameValue(x.Value, y.Value)
	case *Slot:
		y, ok := b.(*Slot)
		return ok && x.Kind == y.Kind && x.Index == y.Index && x.T == y.T
	case *FieldAccess:
		y, ok := b.(*FieldAccess)
		return ok && x.Field == y.Field && Equal(x.X, y.X)
	case *ArrayAccess:
		y, ok := b.(*ArrayAccess)
		return ok && x.Elem == y.Elem && Equal(x.X, y.X) && Equal(x.Index, y.Index)
	case *Call:
		y, ok := b.(*Call)
		if !ok || x.Method != y.Method || x.Virtual != y.Virtual || x.New != y.New ||
			len(x.Args) != len(y.Args) || !Equal(x.Receiver, y.Receiver) {
			return false
		}
		for i := range x.Args {
			if !Equal(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	case *Unary:
		y, ok := b.(*Unary)
		return ok && x.Op == y.Op && Equal(x.X, y.X)
	case *Binary:
		y, ok := b.(*Binary)
		return ok && x.Op == y.Op && x.Unsigned == y.Unsigned && x.Checked == y.Checked &&
			Equal(x.X, y.X) && Equal(x.Y, y.Y)
	case *Convert:
		y, ok := b.(*Convert)
		return ok && x.Op == y.Op && x.To == y.To && x.Checked == y.Checked &&
			x.Unsigned == y.Unsigned && Equal(x.X, y.X)
	case *Conditional:
		y, ok := b.(*Conditional)
		return ok && Equal(x.Test, y.Test) && Equal(x.Then, y.Then) && Equal(x.Else, y.Else)
	}
	return false
}

// sameValue compares constant values. Floats compare by bit pattern, so a NaN
// constant equals itself and 0 and -0 differ.
func sameValue(a, b any) bool {
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		return ok && math.Float64bits(x) == math.Float64bits(y)
	case float32:
		y, ok := b.(float32)
		return ok && math.Float32bits(x) == math.Float32bits(y)
	}
	return a == b
}
