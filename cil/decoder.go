package cil

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// ErrMalformedInstructionStream is returned for unknown opcodes and for
// operands that would run past the end of the stream.
var ErrMalformedInstructionStream = errors.New("malformed instruction stream")

// DecodeError reports where decoding stopped.
type DecodeError struct {
	Offset int
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s at IL_%04X: %s", ErrMalformedInstructionStream, e.Offset, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return ErrMalformedInstructionStream
}

// Metadata table ids found in the high byte of a token.
const (
	TableField     byte = 0x04
	TableMethodDef byte = 0x06
	TableTypeRef   byte = 0x01
	TableTypeDef   byte = 0x02
	TableMemberRef byte = 0x0A
	TableSignature byte = 0x11
	TableString    byte = 0x70
)

// FieldToken names a field within the metadata of its owning module.
type FieldToken uint32

// MakeToken combines a table id and a 1-based row id.
func MakeToken(table byte, rid uint32) FieldToken {
	return FieldToken(uint32(table)<<24 | rid&0x00FFFFFF)
}

// Table returns the metadata table id.
func (t FieldToken) Table() byte {
	return byte(t >> 24)
}

// RID returns the row id within the table.
func (t FieldToken) RID() uint32 {
	return uint32(t) & 0x00FFFFFF
}

func (t FieldToken) String() string {
	return fmt.Sprintf("0x%08X", uint32(t))
}

// Instruction is one decoded instruction.
type Instruction struct {
	Offset  int
	OpCode  OpCode
	Operand []byte
}

// Len returns the encoded length including the opcode bytes.
func (in Instruction) Len() int {
	return in.OpCode.Size + len(in.Operand)
}

// FieldToken returns the field token for field-reference instructions.
func (in Instruction) FieldToken() (FieldToken, bool) {
	if in.OpCode.Operand != InlineField {
		return 0, false
	}

	return FieldToken(binary.LittleEndian.Uint32(in.Operand)), true
}

// Int returns the operand as a signed integer. Floats return their raw bits
// and switch operands return the target count.
func (in Instruction) Int() int64 {
	switch len(in.Operand) {
	case 0:
		return 0
	case 1:
		if in.OpCode.Operand == ShortInlineVar {
			return int64(in.Operand[0])
		}
		return int64(int8(in.Operand[0]))
	case 2:
		return int64(binary.LittleEndian.Uint16(in.Operand))
	case 8:
		return int64(binary.LittleEndian.Uint64(in.Operand))
	default:
		return int64(int32(binary.LittleEndian.Uint32(in.Operand)))
	}
}

// Targets returns absolute branch targets for branch and switch instructions.
func (in Instruction) Targets() []int {
	next := in.Offset + in.Len()

	switch in.OpCode.Operand {
	case ShortInlineBrTarget:
		return []int{next + int(int8(in.Operand[0]))}

	case InlineBrTarget:
		return []int{next + int(int32(binary.LittleEndian.Uint32(in.Operand)))}

	case InlineSwitch:
		n := int(binary.LittleEndian.Uint32(in.Operand))
		targets := make([]int, n)
		for i := range n {
			at := 4 + 4*i
			targets[i] = next + int(int32(binary.LittleEndian.Uint32(in.Operand[at:])))
		}
		return targets

	default:
		return nil
	}
}

// Decoder walks an instruction stream sequentially from offset zero.
type Decoder struct {
	table *Table
	code  []byte
	pos   int
}

// NewDecoder returns a decoder over code using the default table.
func NewDecoder(code []byte) *Decoder {
	return defaultTable.NewDecoder(code)
}

// NewDecoder returns a decoder over code using this table.
func (t *Table) NewDecoder(code []byte) *Decoder {
	return &Decoder{table: t, code: code}
}

// Offset returns the position of the next instruction.
func (d *Decoder) Offset() int {
	return d.pos
}

// More reports whether any bytes remain.
func (d *Decoder) More() bool {
	return d.pos < len(d.code)
}

// Next decodes the instruction at the current offset and advances past it.
// It returns io.EOF once the stream is exhausted.
func (d *Decoder) Next() (Instruction, error) {
	if !d.More() {
		return Instruction{}, io.EOF
	}

	start := d.pos
	op, err := d.readOpCode(start)
	if err != nil {
		return Instruction{}, err
	}

	operandStart := start + op.Size
	n, err := d.operandLen(op, start, operandStart)
	if err != nil {
		return Instruction{}, err
	}

	d.pos = operandStart + n

	return Instruction{
		Offset:  start,
		OpCode:  op,
		Operand: d.code[operandStart:d.pos:d.pos],
	}, nil
}

func (d *Decoder) readOpCode(at int) (OpCode, error) {
	first := d.code[at]

	if first == EscapeByte {
		if at+1 >= len(d.code) {
			return OpCode{}, &DecodeError{Offset: at, Reason: "truncated two-byte opcode"}
		}

		op, ok := d.table.TwoByte(d.code[at+1])
		if !ok {
			return OpCode{}, &DecodeError{Offset: at, Reason: fmt.Sprintf("unknown opcode 0x%02X 0x%02X", first, d.code[at+1])}
		}

		return op, nil
	}

	op, ok := d.table.OneByte(first)
	if !ok {
		return OpCode{}, &DecodeError{Offset: at, Reason: fmt.Sprintf("unknown opcode 0x%02X", first)}
	}

	return op, nil
}

// operandLen applies the operand-type length rule and checks the operand
// fits in the remaining stream.
func (d *Decoder) operandLen(op OpCode, instrStart, operandStart int) (int, error) {
	remaining := len(d.code) - operandStart

	need := func(n int) (int, error) {
		if n > remaining {
			return 0, &DecodeError{
				Offset: instrStart,
				Reason: fmt.Sprintf("%s operand needs %d bytes, %d left", op, n, remaining),
			}
		}
		return n, nil
	}

	switch op.Operand {
	case InlineNone:
		return 0, nil

	case ShortInlineBrTarget, ShortInlineI, ShortInlineVar:
		return need(1)

	case InlineVar:
		return need(2)

	case InlineBrTarget, InlineField, InlineMethod, InlineType, InlineTok,
		InlineString, InlineSig, InlineI, ShortInlineR:
		return need(4)

	case InlineI8, InlineR:
		return need(8)

	case InlineSwitch:
		if _, err := need(4); err != nil {
			return 0, err
		}

		count := uint64(binary.LittleEndian.Uint32(d.code[operandStart:]))
		total := 4 + 4*count
		if total > math.MaxInt32 {
			return 0, &DecodeError{Offset: instrStart, Reason: fmt.Sprintf("switch with %d targets", count)}
		}

		return need(int(total))

	default:
		return 0, &DecodeError{Offset: instrStart, Reason: fmt.Sprintf("unsupported operand type %s", op.Operand)}
	}
}

// Decode decodes the whole stream.
func Decode(code []byte) ([]Instruction, error) {
	return defaultTable.Decode(code)
}

// Decode decodes the whole stream using this table.
func (t *Table) Decode(code []byte) ([]Instruction, error) {
	var out []Instruction

	d := t.NewDecoder(code)
	for d.More() {
		in, err := d.Next()
		if err != nil {
			return nil, err
		}

		out = append(out, in)
	}

	return out, nil
}

// FieldTokens returns every field token referenced by the stream, in
// reference order with duplicates preserved.
func FieldTokens(code []byte) ([]FieldToken, error) {
	return defaultTable.FieldTokens(code)
}

// FieldTokens returns every field token referenced by the stream.
func (t *Table) FieldTokens(code []byte) ([]FieldToken, error) {
	var tokens []FieldToken

	d := t.NewDecoder(code)
	for d.More() {
		in, err := d.Next()
		if err != nil {
			return nil, err
		}

		if tok, ok := in.FieldToken(); ok {
			tokens = append(tokens, tok)
		}
	}

	return tokens, nil
}
