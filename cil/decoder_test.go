package cil

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldTokens_AutoPropertyGetter(t *testing.T) {
	t.Parallel()

	// ldarg.0; ldfld 0x04000001; ret
	code := []byte{0x02, 0x7B, 0x01, 0x00, 0x00, 0x04, 0x2A}

	tokens, err := FieldTokens(code)
	require.NoError(t, err)
	assert.Equal(t, []FieldToken{0x04000001}, tokens)
	assert.Equal(t, TableField, tokens[0].Table())
	assert.Equal(t, uint32(1), tokens[0].RID())
}

func TestFieldTokens_OrderAndDuplicates(t *testing.T) {
	t.Parallel()

	a := MakeToken(TableField, 2)
	b := MakeToken(TableField, 1)

	code := NewAssembler().
		Emit(Ldarg0).EmitField(Ldfld, a).
		Emit(Ldarg0).EmitField(Ldfld, b).
		Emit(Add).
		Emit(Ldarg0).EmitField(Ldflda, a).
		Emit(Pop).
		EmitField(Ldsfld, MakeToken(TableMemberRef, 7)).
		Emit(Add).
		Emit(Ret).
		MustBytes()

	tokens, err := FieldTokens(code)
	require.NoError(t, err)
	assert.Equal(t, []FieldToken{a, b, a, MakeToken(TableMemberRef, 7)}, tokens)
}

func TestDecode_OperandLengths(t *testing.T) {
	t.Parallel()

	asm := NewAssembler()
	end := asm.DefineLabel()
	asm.EmitInt(LdcI4S, -3).
		EmitInt(LdcI4, 1<<20).
		EmitInt(LdcI8, 1<<40).
		EmitFloat(LdcR4, 1.5).
		EmitFloat(LdcR8, 2.5).
		EmitVar(LdlocS, 4).
		EmitVar(Ldloc, 300).
		EmitToken(Ldstr, 0x70000001).
		EmitToken(Call, 0x06000003).
		EmitBranch(BrS, end).
		EmitBranch(Br, end).
		Emit(Ceq).
		MarkLabel(end).
		Emit(Ret)

	code, err := asm.Bytes()
	require.NoError(t, err)

	instrs, err := Decode(code)
	require.NoError(t, err)

	var lengths []int
	for _, in := range instrs {
		lengths = append(lengths, in.Len())
	}
	assert.Equal(t, []int{2, 5, 9, 5, 9, 2, 4, 5, 5, 2, 5, 2, 1}, lengths)

	assert.Equal(t, int64(-3), instrs[0].Int())
	assert.Equal(t, int64(1<<20), instrs[1].Int())
	assert.Equal(t, int64(1<<40), instrs[2].Int())
	assert.Equal(t, int64(4), instrs[5].Int())
	assert.Equal(t, int64(300), instrs[6].Int())

	retOffset := instrs[len(instrs)-1].Offset
	assert.Equal(t, []int{retOffset}, instrs[9].Targets())
	assert.Equal(t, []int{retOffset}, instrs[10].Targets())

	// offsets are strictly sequential
	next := 0
	for _, in := range instrs {
		assert.Equal(t, next, in.Offset)
		next += in.Len()
	}
	assert.Equal(t, len(code), next)
}

func TestDecode_Switch(t *testing.T) {
	t.Parallel()

	asm := NewAssembler()
	l1, l2, l3 := asm.DefineLabel(), asm.DefineLabel(), asm.DefineLabel()
	asm.Emit(Ldarg1).
		EmitSwitch(l1, l2, l3).
		MarkLabel(l1).Emit(Ldarg0).EmitField(Ldfld, MakeToken(TableField, 1)).Emit(Ret).
		MarkLabel(l2).Emit(Ldarg0).EmitField(Ldfld, MakeToken(TableField, 2)).Emit(Ret).
		MarkLabel(l3).Emit(Ldnull).Emit(Ret)

	code, err := asm.Bytes()
	require.NoError(t, err)

	instrs, err := Decode(code)
	require.NoError(t, err)
	require.Equal(t, Switch, instrs[1].OpCode)
	assert.Equal(t, 1+4+4*3, instrs[1].Len())
	assert.Equal(t, []int{instrs[2].Offset, instrs[5].Offset, instrs[8].Offset}, instrs[1].Targets())

	tokens, err := FieldTokens(code)
	require.NoError(t, err)
	assert.Equal(t, []FieldToken{MakeToken(TableField, 1), MakeToken(TableField, 2)}, tokens)
}

func TestDecode_EmptySwitch(t *testing.T) {
	t.Parallel()

	code := []byte{0x45, 0, 0, 0, 0, 0x2A}
	instrs, err := Decode(code)
	require.NoError(t, err)
	require.Len(t, instrs, 2)
	assert.Equal(t, 5, instrs[0].Len())
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		code   []byte
		offset int
	}{
		{"unknown one-byte opcode", []byte{0x00, 0x24}, 1},
		{"unknown two-byte opcode", []byte{0xFE, 0x08}, 0},
		{"truncated escape", []byte{0x02, 0xFE}, 1},
		{"truncated field token", []byte{0x02, 0x7B, 0x01, 0x00}, 1},
		{"truncated i8", []byte{0x21, 1, 2, 3, 4, 5, 6, 7}, 0},
		{"truncated switch count", []byte{0x45, 0x01}, 0},
		{"switch targets past end", []byte{0x45, 0x02, 0, 0, 0, 0, 0, 0, 0}, 0},
		{"huge switch count", []byte{0x45, 0xFF, 0xFF, 0xFF, 0xFF}, 0},
		{"truncated short branch", []byte{0x2B}, 0},
		{"truncated var", []byte{0xFE, 0x0C, 0x01}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Decode(tt.code)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedInstructionStream)

			var de *DecodeError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.offset, de.Offset)

			_, err = FieldTokens(tt.code)
			assert.ErrorIs(t, err, ErrMalformedInstructionStream)
		})
	}
}

func TestDecode_PhiIsUnsupported(t *testing.T) {
	t.Parallel()

	table, err := NewTable([]OpCode{{Name: "phi", Value: 0x70, Size: 1, Operand: InlinePhi}})
	require.NoError(t, err)

	_, err = table.Decode([]byte{0x70})
	assert.ErrorIs(t, err, ErrMalformedInstructionStream)
}

func TestDecoder_Next(t *testing.T) {
	t.Parallel()

	d := NewDecoder([]byte{0x00, 0x2A})

	in, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, Nop, in.OpCode)
	assert.Equal(t, 1, d.Offset())

	in, err = d.Next()
	require.NoError(t, err)
	assert.Equal(t, Ret, in.OpCode)

	_, err = d.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.False(t, d.More())
}

func TestDecode_Empty(t *testing.T) {
	t.Parallel()

	instrs, err := Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, instrs)

	tokens, err := FieldTokens([]byte{})
	require.NoError(t, err)
	assert.Empty(t, tokens)
}
