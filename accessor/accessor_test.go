package accessor

import (
	"bytes"
	"testing"

	"github.com/ilkit/ilexpr/decoder"
	"github.com/ilkit/ilexpr/internal/ilasm"
	"github.com/ilkit/ilexpr/metadata"
	"github.com/ilkit/ilexpr/op"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	tokBacking metadata.Token = 0x04000001
	tokOther   metadata.Token = 0x04000002
	tokPlain   metadata.Token = 0x04000003
	tokStatic  metadata.Token = 0x04000004
)

var (
	person  = &metadata.Type{Token: 0x02000001, Namespace: "People", Name: "Person"}
	backing = &metadata.Field{Token: tokBacking, Name: "<Name>k__BackingField", DeclaringType: person, Type: metadata.String, CompilerGenerated: true}
	other   = &metadata.Field{Token: tokOther, Name: "<Alias>k__BackingField", DeclaringType: person, Type: metadata.String, CompilerGenerated: true}
	plain   = &metadata.Field{Token: tokPlain, Name: "name", DeclaringType: person, Type: metadata.String}
	count   = &metadata.Field{Token: tokStatic, Name: "<Count>k__BackingField", DeclaringType: person, Type: metadata.Int32, Static: true, CompilerGenerated: true}
)

func symbols() *metadata.Table {
	t := metadata.NewTable()
	t.AddType(person)
	for _, f := range []*metadata.Field{backing, other, plain, count} {
		t.AddField(f)
	}
	return t
}

func getterBody(static bool, b *ilasm.Builder) *metadata.MethodBody {
	return &metadata.MethodBody{
		Method: &metadata.Method{Name: "get_Name", DeclaringType: person, ReturnType: metadata.String, Static: static},
		Code:   b.Bytes(),
	}
}

func setterBody(static bool, b *ilasm.Builder) *metadata.MethodBody {
	return &metadata.MethodBody{
		Method: &metadata.Method{Name: "set_Name", DeclaringType: person, Params: []*metadata.Type{metadata.String}, ReturnType: metadata.Void, Static: static},
		Code:   b.Bytes(),
	}
}

func trivialGetter(tok metadata.Token) *metadata.MethodBody {
	return getterBody(false, ilasm.New().Op(op.Ldarg0).Tok(op.Ldfld, tok).Op(op.Ret))
}

func trivialSetter(tok metadata.Token) *metadata.MethodBody {
	return setterBody(false, ilasm.New().Ops(op.Ldarg0, op.Ldarg1).Tok(op.Stfld, tok).Op(op.Ret))
}

func TestFindBackingField(t *testing.T) {
	tests := []struct {
		name   string
		getter *metadata.MethodBody
		setter *metadata.MethodBody
		want   *metadata.Field
	}{
		{
			name:   "getter",
			getter: trivialGetter(tokBacking),
			want:   backing,
		},
		{
			name:   "long argument load",
			getter: getterBody(false, ilasm.New().Op(op.LdargS).U1(0).Tok(op.Ldfld, tokBacking).Op(op.Ret)),
			want:   backing,
		},
		{
			name:   "extra instruction",
			getter: getterBody(false, ilasm.New().Ops(op.Nop, op.Ldarg0).Tok(op.Ldfld, tokBacking).Op(op.Ret)),
		},
		{
			name:   "extra instruction before return",
			getter: getterBody(false, ilasm.New().Op(op.Ldarg0).Tok(op.Ldfld, tokBacking).Ops(op.Nop, op.Ret)),
		},
		{
			name:   "field is not compiler generated",
			getter: trivialGetter(tokPlain),
		},
		{
			name:   "unresolved field",
			getter: trivialGetter(0x04000099),
		},
		{
			name:   "wrong receiver",
			getter: getterBody(false, ilasm.New().Op(op.Ldarg1).Tok(op.Ldfld, tokBacking).Op(op.Ret)),
		},
		{
			name:   "computed getter",
			getter: getterBody(false, ilasm.New().Op(op.Ldarg0).Tok(op.Ldfld, tokBacking).Tok(op.Ldfld, tokBacking).Op(op.Ret)),
		},
		{
			name:   "malformed getter",
			getter: getterBody(false, ilasm.New().Op(op.Ldarg0).Op(op.Ldfld).U1(1)),
		},
		{
			name:   "static getter",
			getter: getterBody(true, ilasm.New().Tok(op.Ldsfld, tokStatic).Op(op.Ret)),
			want:   count,
		},
		{
			name:   "static getter of instance field",
			getter: getterBody(true, ilasm.New().Tok(op.Ldsfld, tokBacking).Op(op.Ret)),
		},
		{
			name:   "setter only",
			setter: trivialSetter(tokBacking),
			want:   backing,
		},
		{
			name:   "static setter only",
			setter: setterBody(true, ilasm.New().Op(op.Ldarg0).Tok(op.Stsfld, tokStatic).Op(op.Ret)),
			want:   count,
		},
		{
			name:   "getter and setter agree",
			getter: trivialGetter(tokBacking),
			setter: trivialSetter(tokBacking),
			want:   backing,
		},
		{
			name:   "getter and setter disagree",
			getter: trivialGetter(tokBacking),
			setter: trivialSetter(tokOther),
		},
		{
			name:   "non-trivial setter",
			getter: trivialGetter(tokBacking),
			setter: setterBody(false, ilasm.New().Ops(op.Ldarg0, op.Ldarg1).Tok(op.Stfld, tokBacking).Ops(op.Nop, op.Ret)),
			want:   backing,
		},
		{
			name:   "non-trivial setter only",
			setter: setterBody(false, ilasm.New().Ops(op.Ldarg0, op.Ldarg0).Tok(op.Stfld, tokBacking).Op(op.Ret)),
		},
		{
			name: "no accessors",
		},
	}
	m := New(symbols())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prop := &metadata.Property{
				Name:          "Name",
				DeclaringType: person,
				Type:          metadata.String,
				Getter:        tt.getter,
				Setter:        tt.setter,
			}
			f, ok := m.FindBackingField(prop)
			require.Equal(t, tt.want != nil, ok)
			require.Equal(t, tt.want, f)
		})
	}
}

func TestNilProperty(t *testing.T) {
	f, ok := FindBackingField(nil, symbols())
	require.False(t, ok)
	require.Nil(t, f)
}

func TestMismatchIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	prop := &metadata.Property{Name: "Name", DeclaringType: person, Getter: trivialGetter(tokPlain)}
	_, ok := FindBackingField(prop, symbols(), WithLogger(logger))
	require.False(t, ok)
	require.Contains(t, buf.String(), "not compiler generated")
	require.Contains(t, buf.String(), "People.Person::Name")
}

func TestDecoderOptions(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.TraceLevel)
	prop := &metadata.Property{Name: "Name", DeclaringType: person, Getter: trivialGetter(tokBacking)}
	f, ok := FindBackingField(prop, symbols(), WithDecoderOptions(decoder.WithLogger(logger)))
	require.True(t, ok)
	require.Same(t, backing, f)
	require.Contains(t, buf.String(), `"message":"decoded"`)
	require.Contains(t, buf.String(), "ldfld")
}
