package transform

import (
	"math"
	"testing"

	"github.com/ilkit/ilexpr/ast"
	"github.com/ilkit/ilexpr/decoder"
	"github.com/ilkit/ilexpr/errz"
	"github.com/ilkit/ilexpr/internal/ilasm"
	"github.com/ilkit/ilexpr/metadata"
	"github.com/ilkit/ilexpr/op"
	"github.com/stretchr/testify/require"
)

const (
	tokPoint  metadata.Token = 0x02000001
	tokMath   metadata.Token = 0x02000002
	tokX      metadata.Token = 0x04000001
	tokOrigin metadata.Token = 0x04000002
	tokScale  metadata.Token = 0x06000001
	tokMax    metadata.Token = 0x06000002
	tokCtor   metadata.Token = 0x06000003
	tokReset  metadata.Token = 0x06000004
	tokStr    metadata.Token = 0x70000001
)

var (
	point   = &metadata.Type{Token: tokPoint, Namespace: "Geo", Name: "Point"}
	mathT   = &metadata.Type{Token: tokMath, Namespace: "Geo", Name: "Math"}
	xField  = &metadata.Field{Token: tokX, Name: "X", DeclaringType: point, Type: metadata.Int32}
	origin  = &metadata.Field{Token: tokOrigin, Name: "Origin", DeclaringType: point, Type: point, Static: true}
	scale   = &metadata.Method{Token: tokScale, Name: "Scale", DeclaringType: point, Params: []*metadata.Type{metadata.Float64}, ReturnType: point, Virtual: true}
	maxFn   = &metadata.Method{Token: tokMax, Name: "Max", DeclaringType: mathT, Params: []*metadata.Type{metadata.Int32, metadata.Int32}, ReturnType: metadata.Int32, Static: true}
	ctor    = &metadata.Method{Token: tokCtor, Name: ".ctor", DeclaringType: point, Params: []*metadata.Type{metadata.Int32, metadata.Int32}, Constructor: true}
	reset   = &metadata.Method{Token: tokReset, Name: "Reset", DeclaringType: point}
	symbols = newSymbols()
)

func newSymbols() *metadata.Table {
	t := metadata.NewTable()
	t.AddType(point)
	t.AddType(mathT)
	t.AddField(xField)
	t.AddField(origin)
	for _, m := range []*metadata.Method{scale, maxFn, ctor, reset} {
		t.AddMethod(m)
	}
	t.AddString(tokStr, "x")
	return t
}

func static(ret *metadata.Type, params ...*metadata.Type) *metadata.Method {
	return &metadata.Method{Name: "M", DeclaringType: mathT, Params: params, ReturnType: ret, Static: true}
}

// binaryInt is a static (int32, int32) -> int32 method.
var binaryInt = static(metadata.Int32, metadata.Int32, metadata.Int32)

func body(b *ilasm.Builder, m *metadata.Method, locals ...*metadata.Type) *metadata.MethodBody {
	return &metadata.MethodBody{Method: m, Locals: locals, Code: b.Bytes()}
}

func compile(t *testing.T, b *metadata.MethodBody) (*ast.Tree, error) {
	t.Helper()
	list, err := decoder.DecodeBody(b, symbols)
	require.NoError(t, err)
	return Transform(list, b)
}

func mustCompile(t *testing.T, b *metadata.MethodBody) *ast.Tree {
	t.Helper()
	tree, err := compile(t, b)
	require.NoError(t, err)
	return tree
}

func TestBinaryPopOrder(t *testing.T) {
	tree := mustCompile(t, body(ilasm.New().Ops(op.Ldarg0, op.Ldarg1, op.Add, op.Ret), binaryInt))
	root, ok := tree.Root.(*ast.Binary)
	require.True(t, ok)
	require.Equal(t, ast.Add, root.Op)
	require.Same(t, tree.Args[0], root.X)
	require.Same(t, tree.Args[1], root.Y)

	tree = mustCompile(t, body(ilasm.New().Ops(op.Ldarg1, op.Ldarg0, op.Sub, op.Ret), binaryInt))
	require.Equal(t, "(arg1 - arg0)", tree.String())
}

func TestSlotSymbols(t *testing.T) {
	instance := &metadata.Method{Name: "M", DeclaringType: point, Params: []*metadata.Type{metadata.Float64}, ReturnType: metadata.Float64}
	tree := mustCompile(t, body(ilasm.New().Ops(op.Ldarg1, op.Ret), instance, metadata.Int64))
	require.Len(t, tree.Args, 2)
	require.Equal(t, point, tree.Args[0].T)
	require.Equal(t, metadata.Float64, tree.Args[1].T)
	require.Len(t, tree.Locals, 1)
	require.Equal(t, metadata.Int64, tree.Locals[0].T)
	require.Same(t, tree.Args[1], tree.Root)
}

func TestExpressions(t *testing.T) {
	tests := []struct {
		name string
		code *ilasm.Builder
		want string
	}{
		{"ldc.i4.m1", ilasm.New().Ops(op.LdcI4M1, op.Ret), "-1"},
		{"ldc.i4.8", ilasm.New().Ops(op.LdcI48, op.Ret), "8"},
		{"ldc.i4.s", ilasm.New().Op(op.LdcI4S).U1(0xFD).Op(op.Ret), "-3"},
		{"ldc.i4", ilasm.New().Op(op.LdcI4).I4(100000).Op(op.Ret), "100000"},
		{"ldc.i8", ilasm.New().Op(op.LdcI8).I8(1 << 40).Op(op.Ret), "1099511627776"},
		{"ldc.r4", ilasm.New().Op(op.LdcR4).R4(1.5).Op(op.Ret), "1.5"},
		{"ldc.r8", ilasm.New().Op(op.LdcR8).R8(-2.25).Op(op.Ret), "-2.25"},
		{"ldnull", ilasm.New().Ops(op.Ldnull, op.Ret), "null"},
		{"ldstr", ilasm.New().Tok(op.Ldstr, tokStr).Op(op.Ret), `"x"`},
		{"ldarga.s", ilasm.New().Op(op.LdargaS).U1(1).Op(op.Ret), "arg1"},
		{"ldarg", ilasm.New().Op(op.Ldarg).U2(0).Op(op.Ret), "arg0"},
		{"nop and prefixes", ilasm.New().Ops(op.Nop, op.Break, op.Volatile).Tok(op.Ldsfld, tokOrigin).Op(op.Ret), "Geo.Point.Origin"},
		{"dup", ilasm.New().Ops(op.Ldarg0, op.Dup, op.Add, op.Ret), "(arg0 + arg0)"},
		{"pop", ilasm.New().Ops(op.Ldarg0, op.Ldarg1, op.Pop, op.Ret), "arg0"},
		{"starg", ilasm.New().Op(op.LdcI45).Op(op.StargS).U1(0).Ops(op.Ldarg0, op.Ret), "5"},
		{
			"stloc and ldloc",
			ilasm.New().Ops(op.Ldarg0, op.Ldarg1, op.Add, op.Stloc0, op.Ldloc0, op.Ldloc0, op.Mul, op.Ret),
			"((arg0 + arg1) * (arg0 + arg1))",
		},
		{"stloc.s", ilasm.New().Op(op.Ldarg1).Op(op.StlocS).U1(0).Op(op.LdlocaS).U1(0).Op(op.Ret), "arg1"},
		{"add.ovf", ilasm.New().Ops(op.Ldarg0, op.Ldarg1, op.AddOvf, op.Ret), "checked(arg0 + arg1)"},
		{"div.un", ilasm.New().Ops(op.Ldarg0, op.Ldarg1, op.DivUn, op.Ret), "(arg0 /.un arg1)"},
		{"shr.un", ilasm.New().Ops(op.Ldarg0, op.Ldarg1, op.ShrUn, op.Ret), "(arg0 >>.un arg1)"},
		{"xor", ilasm.New().Ops(op.Ldarg0, op.Ldarg1, op.Xor, op.Ret), "(arg0 ^ arg1)"},
		{"ceq", ilasm.New().Ops(op.Ldarg0, op.Ldarg1, op.Ceq, op.Ret), "(arg0 == arg1)"},
		{"clt", ilasm.New().Ops(op.Ldarg0, op.Ldarg1, op.Clt, op.Ret), "(arg0 < arg1)"},
		{"cgt.un", ilasm.New().Ops(op.Ldarg0, op.Ldarg1, op.CgtUn, op.Ret), "(arg0 >.un arg1)"},
		{"neg", ilasm.New().Ops(op.Ldarg0, op.Neg, op.Ret), "(-arg0)"},
		{"not", ilasm.New().Ops(op.Ldarg0, op.Not, op.Ret), "(~arg0)"},
		{"conv.i1", ilasm.New().Ops(op.Ldarg0, op.ConvI1, op.Ret), "(int32)(int8)arg0"},
		{"conv.u2", ilasm.New().Ops(op.Ldarg0, op.ConvU2, op.Ret), "(int32)(uint16)arg0"},
		{"conv.ovf.u1.un", ilasm.New().Ops(op.Ldarg0, op.ConvOvfU1Un, op.Ret), "(int32)checked(unsigned(uint8)arg0)"},
		{"conv.i8", ilasm.New().Ops(op.Ldarg0, op.ConvI8, op.Ret), "(int64)arg0"},
		{"conv.r.un", ilasm.New().Ops(op.Ldarg0, op.ConvRUn, op.Ret), "unsigned(float64)arg0"},
		{"ldfld", ilasm.New().Op(op.Ldarg0).Tok(op.Ldfld, tokX).Op(op.Ret), "arg0.X"},
		{"ldflda", ilasm.New().Op(op.Ldarg0).Tok(op.Ldflda, tokX).Op(op.Ret), "arg0.X"},
		{"ldsfld", ilasm.New().Tok(op.Ldsfld, tokOrigin).Op(op.Ret), "Geo.Point.Origin"},
		{"ldsfld then ldfld", ilasm.New().Tok(op.Ldsfld, tokOrigin).Tok(op.Ldfld, tokX).Op(op.Ret), "Geo.Point.Origin.X"},
		{"ldelem.i4", ilasm.New().Ops(op.Ldarg0, op.LdcI41, op.LdelemI4, op.Ret), "arg0[1]"},
		{"ldelem.ref", ilasm.New().Ops(op.Ldarg0, op.Ldarg1, op.LdelemRef, op.Ret), "arg0[arg1]"},
		{"ldelema", ilasm.New().Ops(op.Ldarg0, op.Ldarg1).Tok(op.Ldelema, tokPoint).Op(op.Ret), "arg0[arg1]"},
		{"ldlen", ilasm.New().Ops(op.Ldarg0, op.Ldlen, op.Ret), "len(arg0)"},
		{"ckfinite", ilasm.New().Ops(op.Ldarg0, op.Ckfinite, op.Ret), "ckfinite(arg0)"},
		{"ldobj", ilasm.New().Op(op.Ldarg0).Tok(op.Ldobj, tokPoint).Op(op.Ret), "arg0"},
		{"castclass", ilasm.New().Op(op.Ldarg0).Tok(op.Castclass, tokPoint).Op(op.Ret), "(Geo.Point)arg0"},
		{"isinst", ilasm.New().Op(op.Ldarg0).Tok(op.Isinst, tokPoint).Op(op.Ret), "(arg0 as Geo.Point)"},
		{"box", ilasm.New().Op(op.Ldarg0).Tok(op.Box, tokPoint).Op(op.Ret), "box(arg0)"},
		{"unbox.any", ilasm.New().Op(op.Ldarg0).Tok(op.UnboxAny, tokPoint).Op(op.Ret), "unbox<Geo.Point>(arg0)"},
		{"ldtoken", ilasm.New().Tok(op.Ldtoken, tokPoint).Op(op.Ret), "typeof(Geo.Point)"},
		{"call static", ilasm.New().Ops(op.Ldarg0, op.Ldarg1).Tok(op.Call, tokMax).Op(op.Ret), "Geo.Math.Max(arg0, arg1)"},
		{"callvirt", ilasm.New().Op(op.Ldarg0).Op(op.LdcR8).R8(2).Tok(op.Callvirt, tokScale).Op(op.Ret), "arg0.Scale(2.0)"},
		{"call instance", ilasm.New().Op(op.Ldarg0).Op(op.LdcR8).R8(2).Tok(op.Call, tokScale).Op(op.Ret), "arg0.Scale(2.0)"},
		{"newobj", ilasm.New().Ops(op.Ldarg0, op.Ldarg1).Tok(op.Newobj, tokCtor).Op(op.Ret), "new Geo.Point(arg0, arg1)"},
	}
	m := static(metadata.Object, metadata.Int32, metadata.Int32)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := mustCompile(t, body(tt.code, m, metadata.Int32))
			require.Equal(t, tt.want, tree.String())
		})
	}
}

func TestCallArgumentOrder(t *testing.T) {
	tree := mustCompile(t, body(ilasm.New().Ops(op.Ldarg1, op.Ldarg0).Tok(op.Call, tokMax).Op(op.Ret), binaryInt))
	call, ok := tree.Root.(*ast.Call)
	require.True(t, ok)
	require.Nil(t, call.Receiver)
	require.Same(t, tree.Args[1], call.Args[0])
	require.Same(t, tree.Args[0], call.Args[1])
	require.False(t, call.Virtual)
}

func TestVoidMethod(t *testing.T) {
	tree := mustCompile(t, body(ilasm.New().Ops(op.Ldarg0, op.Pop, op.Ret), static(nil, metadata.Int32)))
	require.Nil(t, tree.Root)

	tree = mustCompile(t, body(ilasm.New().Op(op.Ret), static(metadata.Void)))
	require.Nil(t, tree.Root)
}

func TestConditionals(t *testing.T) {
	tests := []struct {
		name   string
		code   *ilasm.Builder
		method *metadata.Method
		want   string
	}{
		{
			"ternary brtrue",
			ilasm.New().
				Op(op.Ldarg0).Br(op.BrtrueS, "a").
				Op(op.LdcI42).Br(op.BrS, "join").
				Label("a").Op(op.LdcI41).
				Label("join").Op(op.Ret),
			binaryInt,
			"(arg0 ? 1 : 2)",
		},
		{
			"ternary brfalse",
			ilasm.New().
				Op(op.Ldarg0).Br(op.Brfalse, "a").
				Op(op.LdcI41).Br(op.Br, "join").
				Label("a").Op(op.LdcI42).
				Label("join").Op(op.Ret),
			binaryInt,
			"(arg0 ? 1 : 2)",
		},
		{
			"max via compare branch",
			ilasm.New().
				Ops(op.Ldarg0, op.Ldarg1).Br(op.BgeS, "a").
				Op(op.Ldarg1).Br(op.BrS, "join").
				Label("a").Op(op.Ldarg0).
				Label("join").Op(op.Ret),
			binaryInt,
			"((arg0 >= arg1) ? arg0 : arg1)",
		},
		{
			"unsigned compare branch",
			ilasm.New().
				Ops(op.Ldarg0, op.Ldarg1).Br(op.BneUn, "a").
				Op(op.LdcI40).Op(op.Ret).
				Label("a").Op(op.LdcI41).Op(op.Ret),
			binaryInt,
			"((arg0 !=.un arg1) ? 1 : 0)",
		},
		{
			"early return",
			ilasm.New().
				Ops(op.Ldarg0, op.LdcI40).Br(op.BgeS, "pos").
				Ops(op.Ldarg0, op.Neg, op.Ret).
				Label("pos").Ops(op.Ldarg0, op.Ret),
			binaryInt,
			"((arg0 >= 0) ? arg0 : (-arg0))",
		},
		{
			"both arms return",
			ilasm.New().
				Op(op.Ldarg0).Br(op.BrfalseS, "else").
				Ops(op.Ldarg1, op.Ret).
				Label("else").Ops(op.LdcI40, op.Ret),
			binaryInt,
			"(arg0 ? arg1 : 0)",
		},
		{
			"if-then rebinding a local",
			ilasm.New().
				Ops(op.LdcI40, op.Stloc0, op.Ldarg0).Br(op.BrfalseS, "join").
				Ops(op.LdcI41, op.Stloc0).
				Label("join").Ops(op.Ldloc0, op.Ret),
			binaryInt,
			"(arg0 ? 1 : 0)",
		},
		{
			"if-then rebinding an argument",
			ilasm.New().
				Ops(op.Ldarg0, op.LdcI40).Br(op.BgeS, "join").
				Op(op.LdcI40).Op(op.StargS).U1(0).
				Label("join").Ops(op.Ldarg0, op.Ldarg1, op.Add, op.Ret),
			binaryInt,
			"(((arg0 >= 0) ? arg0 : 0) + arg1)",
		},
		{
			"null coalescing",
			ilasm.New().
				Ops(op.Ldarg0, op.Dup).Br(op.BrtrueS, "join").
				Op(op.Pop).Tok(op.Ldstr, tokStr).
				Label("join").Op(op.Ret),
			static(metadata.String, metadata.String),
			`(arg0 ? arg0 : "x")`,
		},
		{
			"nested",
			ilasm.New().
				Op(op.Ldarg0).Br(op.BrfalseS, "else").
				Op(op.Ldarg1).Br(op.BrfalseS, "else2").
				Op(op.LdcI41).Br(op.BrS, "join2").
				Label("else2").Op(op.LdcI42).
				Label("join2").Br(op.BrS, "join").
				Label("else").Op(op.LdcI43).
				Label("join").Op(op.Ret),
			binaryInt,
			"(arg0 ? (arg1 ? 1 : 2) : 3)",
		},
		{
			"return in one arm of a nested conditional",
			ilasm.New().
				Op(op.Ldarg0).Br(op.BrfalseS, "else").
				Op(op.Ldarg1).Br(op.BrfalseS, "inner").
				Ops(op.LdcI41, op.Ret).
				Label("inner").Op(op.LdcI42).Br(op.BrS, "join").
				Label("else").Op(op.LdcI43).
				Label("join").Op(op.Ret),
			binaryInt,
			"(arg0 ? (arg1 ? 1 : 2) : 3)",
		},
		{
			"short-circuit or",
			ilasm.New().
				Op(op.Ldarg0).Br(op.BrtrueS, "then").
				Op(op.Ldarg1).Br(op.BrfalseS, "else").
				Label("then").Op(op.LdcI41).Br(op.BrS, "join").
				Label("else").Op(op.LdcI42).
				Label("join").Op(op.Ret),
			binaryInt,
			"(arg0 ? 1 : (arg1 ? 1 : 2))",
		},
		{
			"short-circuit or into a local",
			ilasm.New().
				Op(op.Ldarg0).Br(op.BrtrueS, "then").
				Ops(op.Ldarg0, op.Ldarg1).Br(op.BleS, "else").
				Label("then").Op(op.Ldarg1).Op(op.Stloc0).Br(op.BrS, "join").
				Label("else").Op(op.Ldarg0).Op(op.Stloc0).
				Label("join").Ops(op.Ldloc0, op.Ret),
			binaryInt,
			"(arg0 ? arg1 : ((arg0 <= arg1) ? arg0 : arg1))",
		},
		{
			"short-circuit and",
			ilasm.New().
				Op(op.Ldarg0).Br(op.BrfalseS, "else").
				Op(op.Ldarg1).Br(op.BrfalseS, "else").
				Op(op.LdcI41).Br(op.BrS, "join").
				Label("else").Op(op.LdcI42).
				Label("join").Op(op.Ret),
			binaryInt,
			"(arg0 ? (arg1 ? 1 : 2) : 2)",
		},
		{
			"arms agree",
			ilasm.New().
				Op(op.Ldarg0).Br(op.BrtrueS, "a").
				Op(op.Ldarg1).Br(op.BrS, "join").
				Label("a").Op(op.Ldarg1).
				Label("join").Op(op.Ret),
			binaryInt,
			"arg1",
		},
		{
			"branch to next instruction",
			ilasm.New().Op(op.Ldarg0).Br(op.BrS, "next").Label("next").Op(op.Ret),
			binaryInt,
			"arg0",
		},
		{
			"empty then arm",
			ilasm.New().Op(op.Ldarg0).Br(op.BrfalseS, "join").Label("join").Ops(op.Ldarg1, op.Ret),
			binaryInt,
			"arg1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := mustCompile(t, body(tt.code, tt.method, metadata.Int32))
			require.Equal(t, tt.want, tree.String())
		})
	}
}

func TestConditionalBranchOrder(t *testing.T) {
	b := ilasm.New().
		Ops(op.Ldarg1, op.Ldarg0).Br(op.BltS, "a").
		Op(op.LdcI40).Op(op.Ret).
		Label("a").Op(op.LdcI41).Op(op.Ret)
	tree := mustCompile(t, body(b, binaryInt))
	cond, ok := tree.Root.(*ast.Conditional)
	require.True(t, ok)
	test, ok := cond.Test.(*ast.Binary)
	require.True(t, ok)
	require.Equal(t, ast.Lt, test.Op)
	require.Same(t, tree.Args[1], test.X)
	require.Same(t, tree.Args[0], test.Y)
	require.Equal(t, 2, cond.Pos())
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name   string
		code   *ilasm.Builder
		method *metadata.Method
		kind   errz.ErrorKind
		offset int
	}{
		{
			"unconditional loop",
			ilasm.New().Op(op.Nop).Label("top").Op(op.Nop).Br(op.BrS, "top").Op(op.Ret),
			binaryInt, errz.ErrUnsupportedPattern, 2,
		},
		{
			"conditional loop",
			ilasm.New().Label("top").Op(op.Ldarg0).Br(op.BrtrueS, "top").Ops(op.Ldarg1, op.Ret),
			binaryInt, errz.ErrUnsupportedPattern, 1,
		},
		{
			"branch to itself",
			ilasm.New().Label("self").Br(op.Br, "self").Op(op.Ret),
			binaryInt, errz.ErrUnsupportedPattern, 0,
		},
		{
			"unstructured forward branch",
			ilasm.New().Op(op.Ldarg0).Br(op.BrS, "skip").Op(op.Nop).Label("skip").Op(op.Ret),
			binaryInt, errz.ErrUnsupportedPattern, 1,
		},
		{
			"unbalanced branch out of an arm",
			ilasm.New().
				Op(op.Ldarg0).Br(op.BrfalseS, "else").
				Op(op.Ldarg1).Br(op.BrtrueS, "out").
				Op(op.LdcI41).Br(op.BrS, "join").
				Label("else").Op(op.LdcI42).
				Label("join").Op(op.Nop).
				Label("out").Op(op.Ret),
			binaryInt, errz.ErrMalformedBytecode, 4,
		},
		{
			"instance call without receiver",
			ilasm.New().Op(op.LdcR8).R8(1).Tok(op.Call, tokScale).Op(op.Ret),
			binaryInt, errz.ErrUnsupportedPattern, 9,
		},
		{
			"void call",
			ilasm.New().Op(op.Ldarg0).Tok(op.Callvirt, tokReset).Ops(op.LdcI40, op.Ret),
			binaryInt, errz.ErrUnsupportedPattern, 1,
		},
		{
			"field store",
			ilasm.New().Ops(op.Ldarg0, op.Ldarg1).Tok(op.Stfld, tokX).Ops(op.LdcI40, op.Ret),
			binaryInt, errz.ErrUnsupportedOpcode, 2,
		},
		{
			"indirect load",
			ilasm.New().Ops(op.Ldarg0, op.LdindI4, op.Ret),
			binaryInt, errz.ErrUnsupportedOpcode, 1,
		},
		{
			"throw",
			ilasm.New().Ops(op.Ldarg0, op.Throw),
			binaryInt, errz.ErrUnsupportedOpcode, 1,
		},
		{
			"newarr",
			ilasm.New().Op(op.Ldarg0).Tok(op.Newarr, tokPoint).Op(op.Ret),
			binaryInt, errz.ErrUnsupportedOpcode, 1,
		},
		{
			"leave",
			ilasm.New().Op(op.Nop).Br(op.LeaveS, "end").Label("end").Ops(op.Ldarg0, op.Ret),
			binaryInt, errz.ErrUnsupportedOpcode, 1,
		},
		{
			"ldftn",
			ilasm.New().Tok(op.Ldftn, tokMax).Op(op.Ret),
			binaryInt, errz.ErrUnsupportedOpcode, 0,
		},
		{
			"stack underflow",
			ilasm.New().Ops(op.Ldarg0, op.Add, op.Ret),
			binaryInt, errz.ErrMalformedBytecode, 1,
		},
		{
			"values left at return",
			ilasm.New().Ops(op.Ldarg0, op.Ldarg1, op.Ret),
			binaryInt, errz.ErrMalformedBytecode, 2,
		},
		{
			"falls off the end",
			ilasm.New().Ops(op.Ldarg0, op.Pop),
			binaryInt, errz.ErrMalformedBytecode, 1,
		},
		{
			"argument out of range",
			ilasm.New().Ops(op.Ldarg3, op.Ret),
			binaryInt, errz.ErrMalformedBytecode, 0,
		},
		{
			"local out of range",
			ilasm.New().Ops(op.Ldloc1, op.Ret),
			binaryInt, errz.ErrMalformedBytecode, 0,
		},
		{
			"unresolved field",
			ilasm.New().Op(op.Ldarg0).Tok(op.Ldfld, 0x04000099).Op(op.Ret),
			binaryInt, errz.ErrMalformedBytecode, 1,
		},
		{
			"unresolved string",
			ilasm.New().Tok(op.Ldstr, 0x70000099).Op(op.Ret),
			binaryInt, errz.ErrMalformedBytecode, 0,
		},
		{
			"unresolved method",
			ilasm.New().Tok(op.Call, 0x06000099).Op(op.Ret),
			binaryInt, errz.ErrMalformedBytecode, 0,
		},
		{
			"stack height differs at join",
			ilasm.New().Op(op.Ldarg0).Br(op.BrtrueS, "join").Op(op.LdcI41).Label("join").Ops(op.LdcI42, op.Ret),
			binaryInt, errz.ErrMalformedBytecode, 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, err := compile(t, body(tt.code, tt.method, metadata.Int32))
			require.Nil(t, tree)
			require.ErrorIs(t, err, tt.kind)
			require.Equal(t, tt.offset, errz.OffsetOf(err), err.Error())
		})
	}
}

func TestUnsupportedOpcodeAtDecodeAndTransform(t *testing.T) {
	// switch is rejected while decoding.
	code := ilasm.New().Op(op.Ldarg0).Op(op.Switch).I4(0).Op(op.Ret).Bytes()
	_, err := decoder.Decode(code, symbols)
	require.ErrorIs(t, err, errz.ErrUnsupportedOpcode)
	require.Equal(t, 1, errz.OffsetOf(err))

	// calli decodes but cannot be transformed.
	b := body(ilasm.New().Ops(op.Ldarg0, op.Ldarg1).Tok(op.Calli, 0x11000001).Op(op.Ret), binaryInt)
	list, err := decoder.DecodeBody(b, symbols)
	require.NoError(t, err)
	_, err = Transform(list, b)
	require.ErrorIs(t, err, errz.ErrUnsupportedOpcode)
	require.Equal(t, 2, errz.OffsetOf(err))
	require.Contains(t, err.Error(), "IL_0002: calli")
}

func TestIdempotent(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name string
		body *metadata.MethodBody
		want string
	}{
		{
			"calls in both arms",
			body(ilasm.New().
				Op(op.Ldarg0).
				Ops(op.Ldarg0, op.Ldarg1).Br(op.BgeS, "a").
				Op(op.Ldarg1).Tok(op.Call, tokMax).Br(op.BrS, "join").
				Label("a").Op(op.LdcI40).Tok(op.Call, tokMax).
				Label("join").Op(op.Ret), binaryInt),
			"((arg0 >= arg1) ? Geo.Math.Max(arg0, 0) : Geo.Math.Max(arg0, arg1))",
		},
		{
			"nan literal",
			body(ilasm.New().Op(op.LdcR8).R8(nan).Op(op.Ret), static(metadata.Float64)),
			"NaN",
		},
		{
			"nan in both arms",
			body(ilasm.New().
				Op(op.Ldarg0).Br(op.BrfalseS, "a").
				Op(op.LdcR8).R8(nan).Br(op.BrS, "join").
				Label("a").Op(op.LdcR8).R8(nan).
				Label("join").Op(op.Ret), static(metadata.Float64, metadata.Int32)),
			"NaN",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := decoder.DecodeBody(tt.body, symbols)
			require.NoError(t, err)
			first, err := Transform(list, tt.body)
			require.NoError(t, err)
			second, err := Transform(list, tt.body)
			require.NoError(t, err)
			require.NotSame(t, first.Root, second.Root)
			require.True(t, ast.Equal(first.Root, second.Root))
			require.Equal(t, tt.want, first.String())
			require.Equal(t, first.String(), second.String())
		})
	}
}

func TestDupSharesNode(t *testing.T) {
	tree := mustCompile(t, body(ilasm.New().
		Op(op.Ldarg0).Tok(op.Ldfld, tokX).
		Ops(op.Dup, op.Add, op.Ret), static(metadata.Int32, point)))
	root, ok := tree.Root.(*ast.Binary)
	require.True(t, ok)
	require.Same(t, root.X, root.Y)
	require.Equal(t, "(arg0.X + arg0.X)", tree.String())
}

func TestMissingDescriptor(t *testing.T) {
	list, err := decoder.Decode(ilasm.New().Op(op.Ret).Bytes(), nil)
	require.NoError(t, err)
	_, err = Transform(list, nil)
	require.ErrorIs(t, err, errz.ErrMalformedBytecode)
	_, err = Transform(nil, &metadata.MethodBody{Method: binaryInt})
	require.ErrorIs(t, err, errz.ErrMalformedBytecode)
}
