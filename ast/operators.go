package ast

// UnaryOp is the operator of a Unary node.
type UnaryOp uint8

const (
	Neg UnaryOp = iota + 1
	Not
	ArrayLength
	CheckFinite
)

var unaryNames = map[UnaryOp]string{
	Neg:         "-",
	Not:         "~",
	ArrayLength: "len",
	CheckFinite: "ckfinite",
}

func (o UnaryOp) String() string {
	return unaryNames[o]
}

// BinaryOp is the operator of a Binary node.
type BinaryOp uint8

const (
	Add BinaryOp = iota + 1
	Sub
	Mul
	Div
	Rem
	And
	Or
	Xor
	Shl
	Shr
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
)

var binaryNames = map[BinaryOp]string{
	Add: "+",
	Sub: "-",
	Mul: "*",
	Div: "/",
	Rem: "%",
	And: "&",
	Or:  "|",
	Xor: "^",
	Shl: "<<",
	Shr: ">>",
	Eq:  "==",
	Ne:  "!=",
	Lt:  "<",
	Le:  "<=",
	Gt:  ">",
	Ge:  ">=",
}

func (o BinaryOp) String() string {
	return binaryNames[o]
}

// IsComparison reports whether the operator yields a boolean.
func (o BinaryOp) IsComparison() bool {
	return o >= Eq && o <= Ge
}

// ConvertOp distinguishes the kinds of conversion a Convert node performs.
type ConvertOp uint8

const (
	// Numeric converts between primitive numeric types.
	Numeric ConvertOp = iota + 1
	// Cast converts to a reference type, failing if the value is not one.
	Cast
	// TypeAs converts to a reference type, yielding null on mismatch.
	TypeAs
	// Box converts a value type to its boxed form.
	Box
	// Unbox converts a boxed value back to a value type.
	Unbox
)

var convertNames = map[ConvertOp]string{
	Numeric: "numeric",
	Cast:    "cast",
	TypeAs:  "as",
	Box:     "box",
	Unbox:   "unbox",
}

func (o ConvertOp) String() string {
	return convertNames[o]
}
