// Package decoder turns a raw method body into a linked instruction list.
package decoder

import (
	"encoding/binary"
	"math"

	"github.com/ilkit/ilexpr/bytecode"
	"github.com/ilkit/ilexpr/errz"
	"github.com/ilkit/ilexpr/metadata"
	"github.com/ilkit/ilexpr/op"
	"github.com/rs/zerolog"
)

// Decoder decodes method bodies against a symbol resolver. A Decoder holds
// no per-call state and may be shared between goroutines.
type Decoder struct {
	resolver   metadata.Resolver
	signatures metadata.SignatureResolver
	logger     zerolog.Logger
}

// New returns a Decoder that resolves tokens with resolver. A nil resolver
// leaves every token unresolved.
func New(resolver metadata.Resolver, opts ...Option) *Decoder {
	d := &Decoder{resolver: resolver, logger: zerolog.Nop()}
	if sigs, ok := resolver.(metadata.SignatureResolver); ok {
		d.signatures = sigs
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode decodes code with a new Decoder.
func Decode(code []byte, resolver metadata.Resolver, opts ...Option) (*bytecode.List, error) {
	return New(resolver, opts...).Decode(code)
}

// DecodeBody decodes the code of a method body with a new Decoder.
func DecodeBody(body *metadata.MethodBody, resolver metadata.Resolver, opts ...Option) (*bytecode.List, error) {
	return New(resolver, opts...).Decode(body.Code)
}

// Decode reads one instruction per step until the end of code, then
// resolves every branch to the instruction at its target offset.
func (d *Decoder) Decode(code []byte) (*bytecode.List, error) {
	if len(code) == 0 {
		return nil, errz.Malformed(errz.NoOffset, "empty method body")
	}
	list := bytecode.NewList()
	for offset := 0; offset < len(code); {
		ins, err := d.decodeOne(code, offset)
		if err != nil {
			return nil, err
		}
		list.Append(ins)
		d.logger.Trace().Int("offset", offset).Stringer("instruction", ins).Msg("decoded")
		offset += ins.Length()
	}
	if err := fixBranches(list); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *Decoder) decodeOne(code []byte, offset int) (*bytecode.Instruction, error) {
	info, n, ok := op.Lookup(code[offset:])
	if !ok {
		if n == 2 {
			return nil, errz.Malformed(offset, "unknown opcode 0x%02X 0x%02X", code[offset], code[offset+1])
		}
		if code[offset] == op.Prefix {
			return nil, errz.Malformed(offset, "truncated two-byte opcode")
		}
		return nil, errz.Malformed(offset, "unknown opcode 0x%02X", code[offset])
	}
	if info.Operand == op.InlineSwitch {
		return nil, errz.Unsupported(offset, info.Code)
	}
	end := offset + info.Length()
	if end > len(code) {
		return nil, errz.Malformed(offset, "truncated %s operand: need %d bytes, have %d",
			info.Operand, info.Operand.Width(), len(code)-offset-n).WithOpcode(info.Code)
	}
	operand, err := d.readOperand(info, code[offset+n:end], end)
	if err != nil {
		return nil, err
	}
	return bytecode.NewInstruction(info.Code, operand)
}

// readOperand decodes the operand bytes of one instruction. end is the
// offset following the instruction, which branch displacements are
// relative to.
func (d *Decoder) readOperand(info op.Info, b []byte, end int) (bytecode.Operand, error) {
	switch info.Operand {
	case op.InlineNone:
		return nil, nil
	case op.ShortInlineBrTarget:
		return bytecode.NewBranchTarget(end + int(int8(b[0]))), nil
	case op.InlineBrTarget:
		return bytecode.NewBranchTarget(end + int(int32(binary.LittleEndian.Uint32(b)))), nil
	case op.ShortInlineI:
		if info.Code == op.Unaligned {
			return bytecode.Immediate[uint8]{Value: b[0]}, nil
		}
		return bytecode.Immediate[int8]{Value: int8(b[0])}, nil
	case op.InlineI:
		return bytecode.Immediate[int32]{Value: int32(binary.LittleEndian.Uint32(b))}, nil
	case op.InlineI8:
		return bytecode.Immediate[int64]{Value: int64(binary.LittleEndian.Uint64(b))}, nil
	case op.ShortInlineR:
		return bytecode.Immediate[float32]{Value: math.Float32frombits(binary.LittleEndian.Uint32(b))}, nil
	case op.InlineR:
		return bytecode.Immediate[float64]{Value: math.Float64frombits(binary.LittleEndian.Uint64(b))}, nil
	case op.ShortInlineVar:
		return bytecode.SlotRef{Kind: slotKind(info.Code), Index: int(b[0])}, nil
	case op.InlineVar:
		return bytecode.SlotRef{Kind: slotKind(info.Code), Index: int(binary.LittleEndian.Uint16(b))}, nil
	}
	offset := end - info.Length()
	if !info.Operand.IsToken() {
		return nil, errz.Malformed(offset, "no operand reader for %s", info.Operand).WithOpcode(info.Code)
	}
	tok := metadata.Token(binary.LittleEndian.Uint32(b))
	switch info.Operand {
	case op.InlineField:
		return d.field(tok), nil
	case op.InlineMethod:
		return d.method(tok), nil
	case op.InlineType:
		return d.typ(tok), nil
	case op.InlineString:
		ref := bytecode.StringRef{Token: tok}
		if d.resolver != nil {
			ref.Value, ref.OK = d.resolver.ResolveString(tok)
		}
		d.miss(ref.OK, offset, tok)
		return ref, nil
	case op.InlineTok:
		switch {
		case tok.IsType():
			return d.typ(tok), nil
		case tok.Table() == metadata.TableField:
			return d.field(tok), nil
		case tok.Table() == metadata.TableMemberRef:
			if ref := d.field(tok); ref.Field != nil {
				return ref, nil
			}
			return d.method(tok), nil
		case tok.IsMethod():
			return d.method(tok), nil
		}
		return nil, errz.Malformed(offset, "ldtoken operand %s does not name a type, field, or method", tok).WithOpcode(info.Code)
	default: // InlineSig
		blob := bytecode.DataBlob{Token: tok}
		if d.signatures != nil {
			blob.Bytes, _ = d.signatures.ResolveSignature(tok)
		}
		d.miss(blob.Bytes != nil, offset, tok)
		return blob, nil
	}
}

func (d *Decoder) field(tok metadata.Token) bytecode.FieldRef {
	ref := bytecode.FieldRef{Token: tok}
	if d.resolver != nil {
		ref.Field, _ = d.resolver.ResolveField(tok)
	}
	return ref
}

func (d *Decoder) method(tok metadata.Token) bytecode.MethodRef {
	ref := bytecode.MethodRef{Token: tok}
	if d.resolver != nil {
		ref.Method, _ = d.resolver.ResolveMethod(tok)
	}
	return ref
}

func (d *Decoder) typ(tok metadata.Token) bytecode.TypeRef {
	ref := bytecode.TypeRef{Token: tok}
	if d.resolver != nil {
		ref.Type, _ = d.resolver.ResolveType(tok)
	}
	return ref
}

func (d *Decoder) miss(ok bool, offset int, tok metadata.Token) {
	if !ok {
		d.logger.Debug().Int("offset", offset).Stringer("token", tok).Msg("unresolved token")
	}
}

func slotKind(code op.Code) bytecode.SlotKind {
	switch code {
	case op.LdargS, op.LdargaS, op.StargS, op.Ldarg, op.Ldarga, op.Starg:
		return bytecode.SlotArg
	default:
		return bytecode.SlotLocal
	}
}

// fixBranches resolves each branch's raw offset to the instruction that
// starts there.
func fixBranches(list *bytecode.List) error {
	for ins := range list.Instructions() {
		b, ok := ins.Branch()
		if !ok {
			continue
		}
		target, ok := list.FindOffset(b.Raw)
		if !ok {
			return errz.Malformed(ins.Offset(), "dangling branch to %s", b).WithOpcode(ins.Code())
		}
		b.Target = target.ID()
	}
	return nil
}
