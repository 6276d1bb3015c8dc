package cil

import (
	"errors"
	"fmt"
)

// ErrUnrepresentableInstructionSet is returned when an opcode cannot be
// classified as a one-byte or escaped two-byte opcode.
var ErrUnrepresentableInstructionSet = errors.New("unrepresentable instruction set")

// Table holds read-only lookups for an instruction set, keyed by the final
// significant byte of each opcode.
type Table struct {
	oneByte map[byte]OpCode
	twoByte map[byte]OpCode
	byName  map[string]OpCode
}

// NewTable classifies ops by encoded size.
func NewTable(ops []OpCode) (*Table, error) {
	t := &Table{
		oneByte: make(map[byte]OpCode),
		twoByte: make(map[byte]OpCode),
		byName:  make(map[string]OpCode, len(ops)),
	}

	for _, op := range ops {
		var target map[byte]OpCode

		switch op.Size {
		case 1:
			if op.Value > 0xFF {
				return nil, fmt.Errorf("%w: one-byte opcode %s has value 0x%04X", ErrUnrepresentableInstructionSet, op, op.Value)
			}
			target = t.oneByte

		case 2:
			if byte(op.Value>>8) != EscapeByte {
				return nil, fmt.Errorf("%w: two-byte opcode %s does not start with 0x%02X", ErrUnrepresentableInstructionSet, op, EscapeByte)
			}
			target = t.twoByte

		default:
			return nil, fmt.Errorf("%w: unexpected size %d for %s", ErrUnrepresentableInstructionSet, op.Size, op)
		}

		if prev, ok := target[op.Key()]; ok {
			return nil, fmt.Errorf("%w: %s and %s share encoding 0x%04X", ErrUnrepresentableInstructionSet, prev, op, op.Value)
		}

		target[op.Key()] = op
		t.byName[op.Name] = op
	}

	return t, nil
}

// OneByte looks up a one-byte opcode.
func (t *Table) OneByte(b byte) (OpCode, bool) {
	op, ok := t.oneByte[b]
	return op, ok
}

// TwoByte looks up a two-byte opcode by the byte following the escape.
func (t *Table) TwoByte(b byte) (OpCode, bool) {
	op, ok := t.twoByte[b]
	return op, ok
}

// ByName looks up an opcode by mnemonic.
func (t *Table) ByName(name string) (OpCode, bool) {
	op, ok := t.byName[name]
	return op, ok
}

// Len returns the number of opcodes in the table.
func (t *Table) Len() int {
	return len(t.oneByte) + len(t.twoByte)
}

var defaultTable = mustTable(InstructionSet())

func mustTable(ops []OpCode) *Table {
	t, err := NewTable(ops)
	if err != nil {
		panic(fmt.Sprintf("cil: %v", err))
	}

	return t
}

// DefaultTable returns the table for the full instruction set.
func DefaultTable() *Table {
	return defaultTable
}
