package cil

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Label marks a branch target inside an Assembler stream.
type Label int

type fixup struct {
	at    int // position of the operand slot
	width int // 1 or 4
	base  int // offset the branch is relative to (end of instruction)
	label Label
}

// Assembler builds an instruction stream. The first misuse is recorded and
// returned from Bytes; later calls are ignored.
type Assembler struct {
	buf    []byte
	labels []int
	fixups []fixup
	err    error
}

// NewAssembler returns an empty Assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Offset returns the offset the next instruction will be written at.
func (a *Assembler) Offset() int {
	return len(a.buf)
}

func (a *Assembler) fail(format string, args ...any) *Assembler {
	if a.err == nil {
		a.err = fmt.Errorf("assembler: "+format, args...)
	}
	return a
}

func (a *Assembler) opcode(op OpCode, want ...OperandType) bool {
	if a.err != nil {
		return false
	}

	ok := false
	for _, w := range want {
		if op.Operand == w {
			ok = true
			break
		}
	}
	if !ok {
		a.fail("%s takes a %s operand at IL_%04X", op, op.Operand, len(a.buf))
		return false
	}

	if op.Size == 2 {
		a.buf = append(a.buf, EscapeByte)
	}
	a.buf = append(a.buf, op.Key())

	return true
}

// Emit writes an instruction without operand.
func (a *Assembler) Emit(op OpCode) *Assembler {
	a.opcode(op, InlineNone)
	return a
}

// EmitField writes a field-reference instruction.
func (a *Assembler) EmitField(op OpCode, tok FieldToken) *Assembler {
	if a.opcode(op, InlineField) {
		a.buf = binary.LittleEndian.AppendUint32(a.buf, uint32(tok))
	}
	return a
}

// EmitToken writes an instruction carrying any 4-byte metadata token.
func (a *Assembler) EmitToken(op OpCode, tok uint32) *Assembler {
	if a.opcode(op, InlineField, InlineMethod, InlineType, InlineTok, InlineString, InlineSig) {
		a.buf = binary.LittleEndian.AppendUint32(a.buf, tok)
	}
	return a
}

// EmitInt writes an integer immediate, sized by the opcode.
func (a *Assembler) EmitInt(op OpCode, v int64) *Assembler {
	if !a.opcode(op, ShortInlineI, InlineI, InlineI8) {
		return a
	}

	switch op.Operand {
	case ShortInlineI:
		if v < math.MinInt8 || v > math.MaxInt8 {
			return a.fail("%s immediate %d out of range", op, v)
		}
		a.buf = append(a.buf, byte(int8(v)))
	case InlineI:
		if v < math.MinInt32 || v > math.MaxInt32 {
			return a.fail("%s immediate %d out of range", op, v)
		}
		a.buf = binary.LittleEndian.AppendUint32(a.buf, uint32(int32(v)))
	default:
		a.buf = binary.LittleEndian.AppendUint64(a.buf, uint64(v))
	}
	return a
}

// EmitFloat writes a floating point immediate.
func (a *Assembler) EmitFloat(op OpCode, v float64) *Assembler {
	if !a.opcode(op, ShortInlineR, InlineR) {
		return a
	}

	if op.Operand == ShortInlineR {
		a.buf = binary.LittleEndian.AppendUint32(a.buf, math.Float32bits(float32(v)))
	} else {
		a.buf = binary.LittleEndian.AppendUint64(a.buf, math.Float64bits(v))
	}
	return a
}

// EmitVar writes a local or argument index.
func (a *Assembler) EmitVar(op OpCode, index int) *Assembler {
	if !a.opcode(op, ShortInlineVar, InlineVar) {
		return a
	}

	if op.Operand == ShortInlineVar {
		if index < 0 || index > math.MaxUint8 {
			return a.fail("%s index %d out of range", op, index)
		}
		a.buf = append(a.buf, byte(index))
	} else {
		if index < 0 || index > math.MaxUint16 {
			return a.fail("%s index %d out of range", op, index)
		}
		a.buf = binary.LittleEndian.AppendUint16(a.buf, uint16(index))
	}
	return a
}

// DefineLabel allocates an unmarked label.
func (a *Assembler) DefineLabel() Label {
	a.labels = append(a.labels, -1)
	return Label(len(a.labels) - 1)
}

// MarkLabel binds l to the current offset.
func (a *Assembler) MarkLabel(l Label) *Assembler {
	if int(l) < 0 || int(l) >= len(a.labels) {
		return a.fail("unknown label %d", l)
	}
	if a.labels[l] >= 0 {
		return a.fail("label %d marked twice", l)
	}
	a.labels[l] = len(a.buf)
	return a
}

// EmitBranch writes a branch to l.
func (a *Assembler) EmitBranch(op OpCode, l Label) *Assembler {
	if !a.opcode(op, ShortInlineBrTarget, InlineBrTarget) {
		return a
	}

	width := 4
	if op.Operand == ShortInlineBrTarget {
		width = 1
	}

	at := len(a.buf)
	a.buf = append(a.buf, make([]byte, width)...)
	a.fixups = append(a.fixups, fixup{at: at, width: width, base: len(a.buf), label: l})
	return a
}

// EmitSwitch writes a jump table over labels.
func (a *Assembler) EmitSwitch(labels ...Label) *Assembler {
	if !a.opcode(Switch, InlineSwitch) {
		return a
	}

	a.buf = binary.LittleEndian.AppendUint32(a.buf, uint32(len(labels)))
	first := len(a.buf)
	a.buf = append(a.buf, make([]byte, 4*len(labels))...)

	base := len(a.buf)
	for i, l := range labels {
		a.fixups = append(a.fixups, fixup{at: first + 4*i, width: 4, base: base, label: l})
	}
	return a
}

// Bytes resolves branch targets and returns the stream.
func (a *Assembler) Bytes() ([]byte, error) {
	if a.err != nil {
		return nil, a.err
	}

	out := make([]byte, len(a.buf))
	copy(out, a.buf)

	for _, f := range a.fixups {
		if int(f.label) < 0 || int(f.label) >= len(a.labels) || a.labels[f.label] < 0 {
			return nil, fmt.Errorf("assembler: label %d never marked", f.label)
		}

		delta := a.labels[f.label] - f.base
		if f.width == 1 {
			if delta < math.MinInt8 || delta > math.MaxInt8 {
				return nil, fmt.Errorf("assembler: short branch at IL_%04X cannot reach IL_%04X", f.at, a.labels[f.label])
			}
			out[f.at] = byte(int8(delta))
			continue
		}

		binary.LittleEndian.PutUint32(out[f.at:], uint32(int32(delta)))
	}

	return out, nil
}

// MustBytes is Bytes for streams known to be well formed.
func (a *Assembler) MustBytes() []byte {
	b, err := a.Bytes()
	if err != nil {
		panic(err)
	}
	return b
}
