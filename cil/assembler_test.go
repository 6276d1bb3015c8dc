package cil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembler_Branches(t *testing.T) {
	t.Parallel()

	asm := NewAssembler()
	top := asm.DefineLabel()
	asm.MarkLabel(top).
		Emit(Nop).
		EmitBranch(BrS, top)

	code, err := asm.Bytes()
	require.NoError(t, err)
	// br.s back over itself and the nop: -3
	assert.Equal(t, []byte{0x00, 0x2B, 0xFD}, code)
}

func TestAssembler_TwoByteOpcodes(t *testing.T) {
	t.Parallel()

	code := NewAssembler().Emit(Ceq).EmitVar(Ldarg, 1).MustBytes()
	assert.Equal(t, []byte{0xFE, 0x01, 0xFE, 0x09, 0x01, 0x00}, code)
}

func TestAssembler_Errors(t *testing.T) {
	t.Parallel()

	t.Run("wrong operand kind", func(t *testing.T) {
		t.Parallel()

		_, err := NewAssembler().Emit(Ldfld).Bytes()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ldfld")
	})

	t.Run("unmarked label", func(t *testing.T) {
		t.Parallel()

		asm := NewAssembler()
		asm.EmitBranch(Br, asm.DefineLabel())
		_, err := asm.Bytes()
		require.Error(t, err)
	})

	t.Run("label marked twice", func(t *testing.T) {
		t.Parallel()

		asm := NewAssembler()
		l := asm.DefineLabel()
		asm.MarkLabel(l).MarkLabel(l)
		_, err := asm.Bytes()
		require.Error(t, err)
	})

	t.Run("short branch out of range", func(t *testing.T) {
		t.Parallel()

		asm := NewAssembler()
		far := asm.DefineLabel()
		asm.EmitBranch(BrS, far)
		for range 200 {
			asm.Emit(Nop)
		}
		asm.MarkLabel(far)
		_, err := asm.Bytes()
		require.Error(t, err)
	})

	t.Run("immediate out of range", func(t *testing.T) {
		t.Parallel()

		_, err := NewAssembler().EmitInt(LdcI4S, 300).Bytes()
		require.Error(t, err)
	})
}

func TestDisassemble(t *testing.T) {
	t.Parallel()

	asm := NewAssembler()
	done := asm.DefineLabel()
	asm.Emit(Ldarg0).
		EmitField(Ldfld, MakeToken(TableField, 2)).
		Emit(Dup).
		EmitBranch(BrtrueS, done).
		Emit(Pop).
		EmitToken(Ldstr, 0x70000001).
		MarkLabel(done).
		Emit(Ret)

	listing, err := Disassemble(asm.MustBytes())
	require.NoError(t, err)

	expected := "IL_0000: ldarg.0\n" +
		"IL_0001: ldfld 0x04000002\n" +
		"IL_0006: dup\n" +
		"IL_0007: brtrue.s IL_000F\n" +
		"IL_0009: pop\n" +
		"IL_000A: ldstr 0x70000001\n" +
		"IL_000F: ret\n"
	assert.Equal(t, expected, listing)
}

func TestDisassemble_Malformed(t *testing.T) {
	t.Parallel()

	_, err := Disassemble([]byte{0x7B, 0x01})
	assert.ErrorIs(t, err, ErrMalformedInstructionStream)
}
