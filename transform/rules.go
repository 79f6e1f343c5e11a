package transform

import (
	"github.com/ilkit/ilexpr/ast"
	"github.com/ilkit/ilexpr/metadata"
	"github.com/ilkit/ilexpr/op"
)

type binaryRule struct {
	kind     ast.BinaryOp
	unsigned bool
	checked  bool
}

var binaryRules = map[op.Code]binaryRule{
	op.Add:      {kind: ast.Add},
	op.AddOvf:   {kind: ast.Add, checked: true},
	op.AddOvfUn: {kind: ast.Add, unsigned: true, checked: true},
	op.Sub:      {kind: ast.Sub},
	op.SubOvf:   {kind: ast.Sub, checked: true},
	op.SubOvfUn: {kind: ast.Sub, unsigned: true, checked: true},
	op.Mul:      {kind: ast.Mul},
	op.MulOvf:   {kind: ast.Mul, checked: true},
	op.MulOvfUn: {kind: ast.Mul, unsigned: true, checked: true},
	op.Div:      {kind: ast.Div},
	op.DivUn:    {kind: ast.Div, unsigned: true},
	op.Rem:      {kind: ast.Rem},
	op.RemUn:    {kind: ast.Rem, unsigned: true},
	op.And:      {kind: ast.And},
	op.Or:       {kind: ast.Or},
	op.Xor:      {kind: ast.Xor},
	op.Shl:      {kind: ast.Shl},
	op.Shr:      {kind: ast.Shr},
	op.ShrUn:    {kind: ast.Shr, unsigned: true},
	op.Ceq:      {kind: ast.Eq},
	op.Cgt:      {kind: ast.Gt},
	op.CgtUn:    {kind: ast.Gt, unsigned: true},
	op.Clt:      {kind: ast.Lt},
	op.CltUn:    {kind: ast.Lt, unsigned: true},
}

// compareBranches maps each compare-and-branch opcode to the comparison that
// is true when the branch is taken.
var compareBranches = map[op.Code]binaryRule{
	op.Beq:    {kind: ast.Eq},
	op.BeqS:   {kind: ast.Eq},
	op.BneUn:  {kind: ast.Ne, unsigned: true},
	op.BneUnS: {kind: ast.Ne, unsigned: true},
	op.Bge:    {kind: ast.Ge},
	op.BgeS:   {kind: ast.Ge},
	op.BgeUn:  {kind: ast.Ge, unsigned: true},
	op.BgeUnS: {kind: ast.Ge, unsigned: true},
	op.Bgt:    {kind: ast.Gt},
	op.BgtS:   {kind: ast.Gt},
	op.BgtUn:  {kind: ast.Gt, unsigned: true},
	op.BgtUnS: {kind: ast.Gt, unsigned: true},
	op.Ble:    {kind: ast.Le},
	op.BleS:   {kind: ast.Le},
	op.BleUn:  {kind: ast.Le, unsigned: true},
	op.BleUnS: {kind: ast.Le, unsigned: true},
	op.Blt:    {kind: ast.Lt},
	op.BltS:   {kind: ast.Lt},
	op.BltUn:  {kind: ast.Lt, unsigned: true},
	op.BltUnS: {kind: ast.Lt, unsigned: true},
}

var unaryRules = map[op.Code]ast.UnaryOp{
	op.Neg:      ast.Neg,
	op.Not:      ast.Not,
	op.Ldlen:    ast.ArrayLength,
	op.Ckfinite: ast.CheckFinite,
}

type convRule struct {
	to       *metadata.Type
	checked  bool
	unsigned bool
}

var convRules = map[op.Code]convRule{
	op.ConvI1:      {to: metadata.Int8},
	op.ConvI2:      {to: metadata.Int16},
	op.ConvI4:      {to: metadata.Int32},
	op.ConvI8:      {to: metadata.Int64},
	op.ConvU1:      {to: metadata.UInt8},
	op.ConvU2:      {to: metadata.UInt16},
	op.ConvU4:      {to: metadata.UInt32},
	op.ConvU8:      {to: metadata.UInt64},
	op.ConvI:       {to: metadata.NativeInt},
	op.ConvU:       {to: metadata.NativeUInt},
	op.ConvR4:      {to: metadata.Float32},
	op.ConvR8:      {to: metadata.Float64},
	op.ConvRUn:     {to: metadata.Float64, unsigned: true},
	op.ConvOvfI1:   {to: metadata.Int8, checked: true},
	op.ConvOvfI2:   {to: metadata.Int16, checked: true},
	op.ConvOvfI4:   {to: metadata.Int32, checked: true},
	op.ConvOvfI8:   {to: metadata.Int64, checked: true},
	op.ConvOvfU1:   {to: metadata.UInt8, checked: true},
	op.ConvOvfU2:   {to: metadata.UInt16, checked: true},
	op.ConvOvfU4:   {to: metadata.UInt32, checked: true},
	op.ConvOvfU8:   {to: metadata.UInt64, checked: true},
	op.ConvOvfI:    {to: metadata.NativeInt, checked: true},
	op.ConvOvfU:    {to: metadata.NativeUInt, checked: true},
	op.ConvOvfI1Un: {to: metadata.Int8, checked: true, unsigned: true},
	op.ConvOvfI2Un: {to: metadata.Int16, checked: true, unsigned: true},
	op.ConvOvfI4Un: {to: metadata.Int32, checked: true, unsigned: true},
	op.ConvOvfI8Un: {to: metadata.Int64, checked: true, unsigned: true},
	op.ConvOvfU1Un: {to: metadata.UInt8, checked: true, unsigned: true},
	op.ConvOvfU2Un: {to: metadata.UInt16, checked: true, unsigned: true},
	op.ConvOvfU4Un: {to: metadata.UInt32, checked: true, unsigned: true},
	op.ConvOvfU8Un: {to: metadata.UInt64, checked: true, unsigned: true},
	op.ConvOvfIUn:  {to: metadata.NativeInt, checked: true, unsigned: true},
	op.ConvOvfUUn:  {to: metadata.NativeUInt, checked: true, unsigned: true},
}

// narrow reports whether a conversion to t truncates below the 32-bit
// working width of the evaluation stack.
func narrow(t *metadata.Type) bool {
	switch t.Kind {
	case metadata.KindInt8, metadata.KindUInt8, metadata.KindInt16, metadata.KindUInt16:
		return true
	default:
		return false
	}
}

// elemTypes maps the typed array load opcodes to their element types. The
// element type of ldelem.ref is taken from the array.
var elemTypes = map[op.Code]*metadata.Type{
	op.LdelemI1:  metadata.Int8,
	op.LdelemU1:  metadata.UInt8,
	op.LdelemI2:  metadata.Int16,
	op.LdelemU2:  metadata.UInt16,
	op.LdelemI4:  metadata.Int32,
	op.LdelemU4:  metadata.UInt32,
	op.LdelemI8:  metadata.Int64,
	op.LdelemI:   metadata.NativeInt,
	op.LdelemR4:  metadata.Float32,
	op.LdelemR8:  metadata.Float64,
	op.LdelemRef: nil,
}

var castRules = map[op.Code]ast.ConvertOp{
	op.Castclass: ast.Cast,
	op.Isinst:    ast.TypeAs,
	op.Box:       ast.Box,
	op.Unbox:     ast.Unbox,
	op.UnboxAny:  ast.Unbox,
}
