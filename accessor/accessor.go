// Package accessor finds the field a trivial property forwards to, so that a
// caller can read or write the field directly instead of calling the
// accessor.
//
// A getter matches when its body is exactly
//
//	ldarg.0
//	ldfld  F
//	ret
//
// or, for a static property, ldsfld F followed by ret. A setter matches when
// its body is exactly ldarg.0, ldarg.1, stfld F, ret (or ldarg.0, stsfld F,
// ret). In every case F must be a compiler-generated field. Any other shape
// means the property has no backing field that can be used safely.
package accessor

import (
	"github.com/ilkit/ilexpr/bytecode"
	"github.com/ilkit/ilexpr/decoder"
	"github.com/ilkit/ilexpr/metadata"
	"github.com/ilkit/ilexpr/op"
	"github.com/rs/zerolog"
)

// Matcher matches accessor bodies against the trivial field accessor idiom.
// A Matcher is safe for concurrent use if its resolver is.
type Matcher struct {
	decoder     *decoder.Decoder
	decoderOpts []decoder.Option
	logger      zerolog.Logger
}

// New returns a Matcher resolving tokens with resolver.
func New(resolver metadata.Resolver, opts ...Option) *Matcher {
	m := &Matcher{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(m)
	}
	m.decoder = decoder.New(resolver, m.decoderOpts...)
	return m
}

// FindBackingField is a convenience wrapper around New(resolver).FindBackingField.
func FindBackingField(prop *metadata.Property, resolver metadata.Resolver, opts ...Option) (*metadata.Field, bool) {
	return New(resolver, opts...).FindBackingField(prop)
}

// FindBackingField returns the field prop's accessors read and write. The
// getter decides when present; the setter is used when there is no getter
// and must agree with the getter when both exist.
func (m *Matcher) FindBackingField(prop *metadata.Property) (*metadata.Field, bool) {
	if prop == nil {
		return nil, false
	}
	log := m.logger.With().Stringer("property", prop).Logger()
	if prop.Getter == nil && prop.Setter == nil {
		log.Debug().Msg("no accessors")
		return nil, false
	}

	var getField, setField *metadata.Field
	if prop.Getter != nil {
		f, ok := m.match(prop.Getter, getter, log)
		if !ok {
			return nil, false
		}
		getField = f
	}
	if prop.Setter != nil {
		f, ok := m.match(prop.Setter, setter, log)
		switch {
		case ok:
			setField = f
		case getField == nil:
			return nil, false
		}
	}

	switch {
	case getField == nil:
		return setField, true
	case setField != nil && setField != getField:
		log.Debug().
			Stringer("getter_field", getField).
			Stringer("setter_field", setField).
			Msg("getter and setter use different fields")
		return nil, false
	}
	return getField, true
}

type role int

const (
	getter role = iota
	setter
)

func (r role) String() string {
	if r == setter {
		return "setter"
	}
	return "getter"
}

// shape is the sequence of opcodes an accessor body must consist of. The
// field operand is always the second-to-last instruction.
type shape []op.Code

var shapes = map[role]map[bool]shape{
	getter: {
		false: {op.Ldarg0, op.Ldfld, op.Ret},
		true:  {op.Ldsfld, op.Ret},
	},
	setter: {
		false: {op.Ldarg0, op.Ldarg1, op.Stfld, op.Ret},
		true:  {op.Ldarg0, op.Stsfld, op.Ret},
	},
}

func (m *Matcher) match(body *metadata.MethodBody, r role, log zerolog.Logger) (*metadata.Field, bool) {
	log = log.With().Stringer("accessor", r).Logger()
	if body.Method == nil {
		log.Debug().Msg("accessor has no method descriptor")
		return nil, false
	}
	list, err := m.decoder.Decode(body.Code)
	if err != nil {
		log.Debug().Err(err).Msg("accessor body does not decode")
		return nil, false
	}
	want := shapes[r][body.Method.Static]
	if list.Len() != len(want) {
		log.Debug().Int("instructions", list.Len()).Msg("accessor body is not a field access")
		return nil, false
	}

	var field *metadata.Field
	i := 0
	for ins := range list.Instructions() {
		if !is(ins, want[i]) {
			log.Debug().Stringer("instruction", ins).Msg("unexpected instruction in accessor")
			return nil, false
		}
		if ref, ok := ins.Operand().(bytecode.FieldRef); ok {
			field = ref.Field
		}
		i++
	}
	switch {
	case field == nil:
		log.Debug().Msg("accessor field is unresolved")
		return nil, false
	case !field.CompilerGenerated:
		log.Debug().Stringer("field", field).Msg("accessor field is not compiler generated")
		return nil, false
	case field.Static != body.Method.Static:
		log.Debug().Stringer("field", field).Msg("accessor and field disagree on static")
		return nil, false
	}
	return field, true
}

// is reports whether ins is code, treating the long and short argument
// loads as their compact forms.
func is(ins *bytecode.Instruction, code op.Code) bool {
	if ins.Code() == code {
		return true
	}
	slot, ok := ins.Slot()
	if !ok || slot.Kind != bytecode.SlotArg {
		return false
	}
	switch ins.Code() {
	case op.LdargS, op.Ldarg:
		return (code == op.Ldarg0 && slot.Index == 0) || (code == op.Ldarg1 && slot.Index == 1)
	}
	return false
}
