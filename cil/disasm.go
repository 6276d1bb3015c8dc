package cil

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Disassemble returns a human-readable listing of the stream.
func Disassemble(code []byte) (string, error) {
	instrs, err := Decode(code)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, in := range instrs {
		sb.WriteString(FormatInstruction(in))
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

// FormatInstruction renders one instruction, e.g. "IL_0001: ldfld 0x04000002".
func FormatInstruction(in Instruction) string {
	head := fmt.Sprintf("IL_%04X: %s", in.Offset, in.OpCode)

	switch in.OpCode.Operand {
	case InlineNone:
		return head

	case ShortInlineBrTarget, InlineBrTarget, InlineSwitch:
		targets := in.Targets()
		parts := make([]string, len(targets))
		for i, t := range targets {
			parts[i] = fmt.Sprintf("IL_%04X", t)
		}
		if in.OpCode.Operand == InlineSwitch {
			return head + " (" + strings.Join(parts, ", ") + ")"
		}
		return head + " " + parts[0]

	case InlineField, InlineMethod, InlineType, InlineTok, InlineString, InlineSig:
		return fmt.Sprintf("%s 0x%08X", head, binary.LittleEndian.Uint32(in.Operand))

	case ShortInlineR:
		return fmt.Sprintf("%s %g", head, math.Float32frombits(binary.LittleEndian.Uint32(in.Operand)))

	case InlineR:
		return fmt.Sprintf("%s %g", head, math.Float64frombits(binary.LittleEndian.Uint64(in.Operand)))

	default:
		return fmt.Sprintf("%s %d", head, in.Int())
	}
}
