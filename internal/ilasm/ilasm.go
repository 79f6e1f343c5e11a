// Package ilasm assembles method bodies from opcodes and symbolic labels. It
// exists to build fixtures for tests and examples.
package ilasm

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ilkit/ilexpr/metadata"
	"github.com/ilkit/ilexpr/op"
)

type fixup struct {
	at    int // offset of the displacement
	end   int // offset following the branch instruction
	width int
	label string
}

// Builder accumulates an encoded method body.
type Builder struct {
	code   []byte
	labels map[string]int
	fixups []fixup
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{labels: map[string]int{}}
}

// Op emits an opcode with no operand bytes.
func (b *Builder) Op(code op.Code) *Builder {
	if code>>8 == op.Prefix {
		b.code = append(b.code, op.Prefix, byte(code))
	} else {
		b.code = append(b.code, byte(code))
	}
	return b
}

// Ops emits several operand-less opcodes.
func (b *Builder) Ops(codes ...op.Code) *Builder {
	for _, code := range codes {
		b.Op(code)
	}
	return b
}

// U1 emits a one-byte operand.
func (b *Builder) U1(v uint8) *Builder {
	b.code = append(b.code, v)
	return b
}

// U2 emits a two-byte operand.
func (b *Builder) U2(v uint16) *Builder {
	b.code = binary.LittleEndian.AppendUint16(b.code, v)
	return b
}

// I4 emits a four-byte integer operand.
func (b *Builder) I4(v int32) *Builder {
	b.code = binary.LittleEndian.AppendUint32(b.code, uint32(v))
	return b
}

// I8 emits an eight-byte integer operand.
func (b *Builder) I8(v int64) *Builder {
	b.code = binary.LittleEndian.AppendUint64(b.code, uint64(v))
	return b
}

// R4 emits a single precision operand.
func (b *Builder) R4(v float32) *Builder {
	b.code = binary.LittleEndian.AppendUint32(b.code, math.Float32bits(v))
	return b
}

// R8 emits a double precision operand.
func (b *Builder) R8(v float64) *Builder {
	b.code = binary.LittleEndian.AppendUint64(b.code, math.Float64bits(v))
	return b
}

// Tok emits an opcode followed by a metadata token.
func (b *Builder) Tok(code op.Code, tok metadata.Token) *Builder {
	b.Op(code)
	b.code = binary.LittleEndian.AppendUint32(b.code, uint32(tok))
	return b
}

// Label binds name to the current offset.
func (b *Builder) Label(name string) *Builder {
	if _, dup := b.labels[name]; dup {
		panic(fmt.Sprintf("ilasm: label %q defined twice", name))
	}
	b.labels[name] = len(b.code)
	return b
}

// Br emits a branch opcode whose target is the label name. The label may be
// defined before or after the branch.
func (b *Builder) Br(code op.Code, name string) *Builder {
	info := op.GetInfo(code)
	var width int
	switch info.Operand {
	case op.ShortInlineBrTarget:
		width = 1
	case op.InlineBrTarget:
		width = 4
	default:
		panic(fmt.Sprintf("ilasm: %s is not a branch", code))
	}
	b.Op(code)
	b.fixups = append(b.fixups, fixup{at: len(b.code), end: len(b.code) + width, width: width, label: name})
	b.code = append(b.code, make([]byte, width)...)
	return b
}

// Offset returns the current offset.
func (b *Builder) Offset() int {
	return len(b.code)
}

// Bytes resolves every branch and returns the encoded body.
func (b *Builder) Bytes() []byte {
	code := append([]byte(nil), b.code...)
	for _, f := range b.fixups {
		target, ok := b.labels[f.label]
		if !ok {
			panic(fmt.Sprintf("ilasm: undefined label %q", f.label))
		}
		disp := target - f.end
		if f.width == 1 {
			if disp < math.MinInt8 || disp > math.MaxInt8 {
				panic(fmt.Sprintf("ilasm: label %q is out of short branch range", f.label))
			}
			code[f.at] = byte(int8(disp))
		} else {
			binary.LittleEndian.PutUint32(code[f.at:], uint32(int32(disp)))
		}
	}
	return code
}
