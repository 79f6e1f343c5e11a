package metadata

// Kind identifies a built-in primitive type.
type Kind uint8

const (
	KindNone Kind = iota
	KindVoid
	KindBool
	KindChar
	KindInt8
	KindUInt8
	KindInt16
	KindUInt16
	KindInt32
	KindUInt32
	KindInt64
	KindUInt64
	KindNativeInt
	KindNativeUInt
	KindFloat32
	KindFloat64
	KindString
	KindObject
	KindRuntimeHandle
)

var kindNames = map[Kind]string{
	KindVoid:          "void",
	KindBool:          "bool",
	KindChar:          "char",
	KindInt8:          "int8",
	KindUInt8:         "uint8",
	KindInt16:         "int16",
	KindUInt16:        "uint16",
	KindInt32:         "int32",
	KindUInt32:        "uint32",
	KindInt64:         "int64",
	KindUInt64:        "uint64",
	KindNativeInt:     "native int",
	KindNativeUInt:    "native uint",
	KindFloat32:       "float32",
	KindFloat64:       "float64",
	KindString:        "string",
	KindObject:        "object",
	KindRuntimeHandle: "runtime handle",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "none"
}

func primitive(kind Kind, name string, valueType bool) *Type {
	return &Type{Namespace: "System", Name: name, Kind: kind, ValueType: valueType}
}

// Built-in types. These are shared, never mutated, and compared by identity.
var (
	Void          = primitive(KindVoid, "Void", true)
	Bool          = primitive(KindBool, "Boolean", true)
	Char          = primitive(KindChar, "Char", true)
	Int8          = primitive(KindInt8, "SByte", true)
	UInt8         = primitive(KindUInt8, "Byte", true)
	Int16         = primitive(KindInt16, "Int16", true)
	UInt16        = primitive(KindUInt16, "UInt16", true)
	Int32         = primitive(KindInt32, "Int32", true)
	UInt32        = primitive(KindUInt32, "UInt32", true)
	Int64         = primitive(KindInt64, "Int64", true)
	UInt64        = primitive(KindUInt64, "UInt64", true)
	NativeInt     = primitive(KindNativeInt, "IntPtr", true)
	NativeUInt    = primitive(KindNativeUInt, "UIntPtr", true)
	Float32       = primitive(KindFloat32, "Single", true)
	Float64       = primitive(KindFloat64, "Double", true)
	String        = primitive(KindString, "String", false)
	Object        = primitive(KindObject, "Object", false)
	RuntimeHandle = primitive(KindRuntimeHandle, "RuntimeHandle", true)
)

var primitivesByName = map[string]*Type{}

func init() {
	for _, t := range []*Type{
		Void, Bool, Char, Int8, UInt8, Int16, UInt16, Int32, UInt32,
		Int64, UInt64, NativeInt, NativeUInt, Float32, Float64, String,
		Object, RuntimeHandle,
	} {
		primitivesByName[t.Kind.String()] = t
		primitivesByName[t.FullName()] = t
	}
}

// Primitive returns the built-in type with the given short name ("int32")
// or full name ("System.Int32").
func Primitive(name string) (*Type, bool) {
	t, ok := primitivesByName[name]
	return t, ok
}
