package cil

//go:generate go tool stringer -type=OperandType -output=operandtype_string.go

// OperandType describes the shape and length of the operand following an opcode.
type OperandType int

const (
	InlineNone          OperandType = iota // no operand
	InlineBrTarget                         // 4-byte branch offset
	ShortInlineBrTarget                    // 1-byte branch offset
	InlineSwitch                           // 4-byte count N, then N 4-byte offsets
	InlineField                            // 4-byte field token
	InlineMethod                           // 4-byte method token
	InlineType                             // 4-byte type token
	InlineTok                              // 4-byte field, method or type token
	InlineString                           // 4-byte user string token
	InlineSig                              // 4-byte signature token
	InlineI                                // 4-byte integer
	InlineI8                               // 8-byte integer
	InlineR                                // 8-byte float
	ShortInlineI                           // 1-byte integer
	ShortInlineR                           // 4-byte float
	InlineVar                              // 2-byte variable index
	ShortInlineVar                         // 1-byte variable index
	InlinePhi                              // reserved, never emitted
)

// EscapeByte prefixes every two-byte opcode.
const EscapeByte byte = 0xFE

// OpCode identifies one instruction of the instruction set.
type OpCode struct {
	Name    string
	Value   uint16 // two-byte opcodes carry the escape byte in the high byte
	Size    int
	Operand OperandType
}

// String returns the mnemonic.
func (op OpCode) String() string {
	return op.Name
}

// Key is the final significant byte of the encoding.
func (op OpCode) Key() byte {
	return byte(op.Value & 0xFF)
}

func op1(name string, value byte, operand OperandType) OpCode {
	return OpCode{Name: name, Value: uint16(value), Size: 1, Operand: operand}
}

func op2(name string, value byte, operand OperandType) OpCode {
	return OpCode{Name: name, Value: uint16(EscapeByte)<<8 | uint16(value), Size: 2, Operand: operand}
}

// One-byte opcodes.
var (
	Nop       = op1("nop", 0x00, InlineNone)
	Break     = op1("break", 0x01, InlineNone)
	Ldarg0    = op1("ldarg.0", 0x02, InlineNone)
	Ldarg1    = op1("ldarg.1", 0x03, InlineNone)
	Ldarg2    = op1("ldarg.2", 0x04, InlineNone)
	Ldarg3    = op1("ldarg.3", 0x05, InlineNone)
	Ldloc0    = op1("ldloc.0", 0x06, InlineNone)
	Ldloc1    = op1("ldloc.1", 0x07, InlineNone)
	Ldloc2    = op1("ldloc.2", 0x08, InlineNone)
	Ldloc3    = op1("ldloc.3", 0x09, InlineNone)
	Stloc0    = op1("stloc.0", 0x0A, InlineNone)
	Stloc1    = op1("stloc.1", 0x0B, InlineNone)
	Stloc2    = op1("stloc.2", 0x0C, InlineNone)
	Stloc3    = op1("stloc.3", 0x0D, InlineNone)
	LdargS    = op1("ldarg.s", 0x0E, ShortInlineVar)
	LdargaS   = op1("ldarga.s", 0x0F, ShortInlineVar)
	StargS    = op1("starg.s", 0x10, ShortInlineVar)
	LdlocS    = op1("ldloc.s", 0x11, ShortInlineVar)
	LdlocaS   = op1("ldloca.s", 0x12, ShortInlineVar)
	StlocS    = op1("stloc.s", 0x13, ShortInlineVar)
	Ldnull    = op1("ldnull", 0x14, InlineNone)
	LdcI4M1   = op1("ldc.i4.m1", 0x15, InlineNone)
	LdcI40    = op1("ldc.i4.0", 0x16, InlineNone)
	LdcI41    = op1("ldc.i4.1", 0x17, InlineNone)
	LdcI42    = op1("ldc.i4.2", 0x18, InlineNone)
	LdcI43    = op1("ldc.i4.3", 0x19, InlineNone)
	LdcI44    = op1("ldc.i4.4", 0x1A, InlineNone)
	LdcI45    = op1("ldc.i4.5", 0x1B, InlineNone)
	LdcI46    = op1("ldc.i4.6", 0x1C, InlineNone)
	LdcI47    = op1("ldc.i4.7", 0x1D, InlineNone)
	LdcI48    = op1("ldc.i4.8", 0x1E, InlineNone)
	LdcI4S    = op1("ldc.i4.s", 0x1F, ShortInlineI)
	LdcI4     = op1("ldc.i4", 0x20, InlineI)
	LdcI8     = op1("ldc.i8", 0x21, InlineI8)
	LdcR4     = op1("ldc.r4", 0x22, ShortInlineR)
	LdcR8     = op1("ldc.r8", 0x23, InlineR)
	Dup       = op1("dup", 0x25, InlineNone)
	Pop       = op1("pop", 0x26, InlineNone)
	Jmp       = op1("jmp", 0x27, InlineMethod)
	Call      = op1("call", 0x28, InlineMethod)
	Calli     = op1("calli", 0x29, InlineSig)
	Ret       = op1("ret", 0x2A, InlineNone)
	BrS       = op1("br.s", 0x2B, ShortInlineBrTarget)
	BrfalseS  = op1("brfalse.s", 0x2C, ShortInlineBrTarget)
	BrtrueS   = op1("brtrue.s", 0x2D, ShortInlineBrTarget)
	BeqS      = op1("beq.s", 0x2E, ShortInlineBrTarget)
	BgeS      = op1("bge.s", 0x2F, ShortInlineBrTarget)
	BgtS      = op1("bgt.s", 0x30, ShortInlineBrTarget)
	BleS      = op1("ble.s", 0x31, ShortInlineBrTarget)
	BltS      = op1("blt.s", 0x32, ShortInlineBrTarget)
	BneUnS    = op1("bne.un.s", 0x33, ShortInlineBrTarget)
	BgeUnS    = op1("bge.un.s", 0x34, ShortInlineBrTarget)
	BgtUnS    = op1("bgt.un.s", 0x35, ShortInlineBrTarget)
	BleUnS    = op1("ble.un.s", 0x36, ShortInlineBrTarget)
	BltUnS    = op1("blt.un.s", 0x37, ShortInlineBrTarget)
	Br        = op1("br", 0x38, InlineBrTarget)
	Brfalse   = op1("brfalse", 0x39, InlineBrTarget)
	Brtrue    = op1("brtrue", 0x3A, InlineBrTarget)
	Beq       = op1("beq", 0x3B, InlineBrTarget)
	Bge       = op1("bge", 0x3C, InlineBrTarget)
	Bgt       = op1("bgt", 0x3D, InlineBrTarget)
	Ble       = op1("ble", 0x3E, InlineBrTarget)
	Blt       = op1("blt", 0x3F, InlineBrTarget)
	BneUn     = op1("bne.un", 0x40, InlineBrTarget)
	BgeUn     = op1("bge.un", 0x41, InlineBrTarget)
	BgtUn     = op1("bgt.un", 0x42, InlineBrTarget)
	BleUn     = op1("ble.un", 0x43, InlineBrTarget)
	BltUn     = op1("blt.un", 0x44, InlineBrTarget)
	Switch    = op1("switch", 0x45, InlineSwitch)
	LdindI1   = op1("ldind.i1", 0x46, InlineNone)
	LdindU1   = op1("ldind.u1", 0x47, InlineNone)
	LdindI2   = op1("ldind.i2", 0x48, InlineNone)
	LdindU2   = op1("ldind.u2", 0x49, InlineNone)
	LdindI4   = op1("ldind.i4", 0x4A, InlineNone)
	LdindU4   = op1("ldind.u4", 0x4B, InlineNone)
	LdindI8   = op1("ldind.i8", 0x4C, InlineNone)
	LdindI    = op1("ldind.i", 0x4D, InlineNone)
	LdindR4   = op1("ldind.r4", 0x4E, InlineNone)
	LdindR8   = op1("ldind.r8", 0x4F, InlineNone)
	LdindRef  = op1("ldind.ref", 0x50, InlineNone)
	StindRef  = op1("stind.ref", 0x51, InlineNone)
	StindI1   = op1("stind.i1", 0x52, InlineNone)
	StindI2   = op1("stind.i2", 0x53, InlineNone)
	StindI4   = op1("stind.i4", 0x54, InlineNone)
	StindI8   = op1("stind.i8", 0x55, InlineNone)
	StindR4   = op1("stind.r4", 0x56, InlineNone)
	StindR8   = op1("stind.r8", 0x57, InlineNone)
	Add       = op1("add", 0x58, InlineNone)
	Sub       = op1("sub", 0x59, InlineNone)
	Mul       = op1("mul", 0x5A, InlineNone)
	Div       = op1("div", 0x5B, InlineNone)
	DivUn     = op1("div.un", 0x5C, InlineNone)
	Rem       = op1("rem", 0x5D, InlineNone)
	RemUn     = op1("rem.un", 0x5E, InlineNone)
	And       = op1("and", 0x5F, InlineNone)
	Or        = op1("or", 0x60, InlineNone)
	Xor       = op1("xor", 0x61, InlineNone)
	Shl       = op1("shl", 0x62, InlineNone)
	Shr       = op1("shr", 0x63, InlineNone)
	ShrUn     = op1("shr.un", 0x64, InlineNone)
	Neg       = op1("neg", 0x65, InlineNone)
	Not       = op1("not", 0x66, InlineNone)
	ConvI1    = op1("conv.i1", 0x67, InlineNone)
	ConvI2    = op1("conv.i2", 0x68, InlineNone)
	ConvI4    = op1("conv.i4", 0x69, InlineNone)
	ConvI8    = op1("conv.i8", 0x6A, InlineNone)
	ConvR4    = op1("conv.r4", 0x6B, InlineNone)
	ConvR8    = op1("conv.r8", 0x6C, InlineNone)
	ConvU4    = op1("conv.u4", 0x6D, InlineNone)
	ConvU8    = op1("conv.u8", 0x6E, InlineNone)
	Callvirt  = op1("callvirt", 0x6F, InlineMethod)
	Cpobj     = op1("cpobj", 0x70, InlineType)
	Ldobj     = op1("ldobj", 0x71, InlineType)
	Ldstr     = op1("ldstr", 0x72, InlineString)
	Newobj    = op1("newobj", 0x73, InlineMethod)
	Castclass = op1("castclass", 0x74, InlineType)
	Isinst    = op1("isinst", 0x75, InlineType)
	ConvRUn   = op1("conv.r.un", 0x76, InlineNone)
	Unbox     = op1("unbox", 0x79, InlineType)
	Throw     = op1("throw", 0x7A, InlineNone)
	Ldfld     = op1("ldfld", 0x7B, InlineField)
	Ldflda    = op1("ldflda", 0x7C, InlineField)
	Stfld     = op1("stfld", 0x7D, InlineField)
	Ldsfld    = op1("ldsfld", 0x7E, InlineField)
	Ldsflda   = op1("ldsflda", 0x7F, InlineField)
	Stsfld    = op1("stsfld", 0x80, InlineField)
	Stobj     = op1("stobj", 0x81, InlineType)

	ConvOvfI1Un = op1("conv.ovf.i1.un", 0x82, InlineNone)
	ConvOvfI2Un = op1("conv.ovf.i2.un", 0x83, InlineNone)
	ConvOvfI4Un = op1("conv.ovf.i4.un", 0x84, InlineNone)
	ConvOvfI8Un = op1("conv.ovf.i8.un", 0x85, InlineNone)
	ConvOvfU1Un = op1("conv.ovf.u1.un", 0x86, InlineNone)
	ConvOvfU2Un = op1("conv.ovf.u2.un", 0x87, InlineNone)
	ConvOvfU4Un = op1("conv.ovf.u4.un", 0x88, InlineNone)
	ConvOvfU8Un = op1("conv.ovf.u8.un", 0x89, InlineNone)
	ConvOvfIUn  = op1("conv.ovf.i.un", 0x8A, InlineNone)
	ConvOvfUUn  = op1("conv.ovf.u.un", 0x8B, InlineNone)

	Box       = op1("box", 0x8C, InlineType)
	Newarr    = op1("newarr", 0x8D, InlineType)
	Ldlen     = op1("ldlen", 0x8E, InlineNone)
	Ldelema   = op1("ldelema", 0x8F, InlineType)
	LdelemI1  = op1("ldelem.i1", 0x90, InlineNone)
	LdelemU1  = op1("ldelem.u1", 0x91, InlineNone)
	LdelemI2  = op1("ldelem.i2", 0x92, InlineNone)
	LdelemU2  = op1("ldelem.u2", 0x93, InlineNone)
	LdelemI4  = op1("ldelem.i4", 0x94, InlineNone)
	LdelemU4  = op1("ldelem.u4", 0x95, InlineNone)
	LdelemI8  = op1("ldelem.i8", 0x96, InlineNone)
	LdelemI   = op1("ldelem.i", 0x97, InlineNone)
	LdelemR4  = op1("ldelem.r4", 0x98, InlineNone)
	LdelemR8  = op1("ldelem.r8", 0x99, InlineNone)
	LdelemRef = op1("ldelem.ref", 0x9A, InlineNone)
	StelemI   = op1("stelem.i", 0x9B, InlineNone)
	StelemI1  = op1("stelem.i1", 0x9C, InlineNone)
	StelemI2  = op1("stelem.i2", 0x9D, InlineNone)
	StelemI4  = op1("stelem.i4", 0x9E, InlineNone)
	StelemI8  = op1("stelem.i8", 0x9F, InlineNone)
	StelemR4  = op1("stelem.r4", 0xA0, InlineNone)
	StelemR8  = op1("stelem.r8", 0xA1, InlineNone)
	StelemRef = op1("stelem.ref", 0xA2, InlineNone)
	Ldelem    = op1("ldelem", 0xA3, InlineType)
	Stelem    = op1("stelem", 0xA4, InlineType)
	UnboxAny  = op1("unbox.any", 0xA5, InlineType)

	ConvOvfI1 = op1("conv.ovf.i1", 0xB3, InlineNone)
	ConvOvfU1 = op1("conv.ovf.u1", 0xB4, InlineNone)
	ConvOvfI2 = op1("conv.ovf.i2", 0xB5, InlineNone)
	ConvOvfU2 = op1("conv.ovf.u2", 0xB6, InlineNone)
	ConvOvfI4 = op1("conv.ovf.i4", 0xB7, InlineNone)
	ConvOvfU4 = op1("conv.ovf.u4", 0xB8, InlineNone)
	ConvOvfI8 = op1("conv.ovf.i8", 0xB9, InlineNone)
	ConvOvfU8 = op1("conv.ovf.u8", 0xBA, InlineNone)

	Refanyval  = op1("refanyval", 0xC2, InlineType)
	Ckfinite   = op1("ckfinite", 0xC3, InlineNone)
	Mkrefany   = op1("mkrefany", 0xC6, InlineType)
	Ldtoken    = op1("ldtoken", 0xD0, InlineTok)
	ConvU2     = op1("conv.u2", 0xD1, InlineNone)
	ConvU1     = op1("conv.u1", 0xD2, InlineNone)
	ConvI      = op1("conv.i", 0xD3, InlineNone)
	ConvOvfI   = op1("conv.ovf.i", 0xD4, InlineNone)
	ConvOvfU   = op1("conv.ovf.u", 0xD5, InlineNone)
	AddOvf     = op1("add.ovf", 0xD6, InlineNone)
	AddOvfUn   = op1("add.ovf.un", 0xD7, InlineNone)
	MulOvf     = op1("mul.ovf", 0xD8, InlineNone)
	MulOvfUn   = op1("mul.ovf.un", 0xD9, InlineNone)
	SubOvf     = op1("sub.ovf", 0xDA, InlineNone)
	SubOvfUn   = op1("sub.ovf.un", 0xDB, InlineNone)
	Endfinally = op1("endfinally", 0xDC, InlineNone)
	Leave      = op1("leave", 0xDD, InlineBrTarget)
	LeaveS     = op1("leave.s", 0xDE, ShortInlineBrTarget)
	StindI     = op1("stind.i", 0xDF, InlineNone)
	ConvU      = op1("conv.u", 0xE0, InlineNone)
)

// Two-byte opcodes, all prefixed by EscapeByte.
var (
	Arglist     = op2("arglist", 0x00, InlineNone)
	Ceq         = op2("ceq", 0x01, InlineNone)
	Cgt         = op2("cgt", 0x02, InlineNone)
	CgtUn       = op2("cgt.un", 0x03, InlineNone)
	Clt         = op2("clt", 0x04, InlineNone)
	CltUn       = op2("clt.un", 0x05, InlineNone)
	Ldftn       = op2("ldftn", 0x06, InlineMethod)
	Ldvirtftn   = op2("ldvirtftn", 0x07, InlineMethod)
	Ldarg       = op2("ldarg", 0x09, InlineVar)
	Ldarga      = op2("ldarga", 0x0A, InlineVar)
	Starg       = op2("starg", 0x0B, InlineVar)
	Ldloc       = op2("ldloc", 0x0C, InlineVar)
	Ldloca      = op2("ldloca", 0x0D, InlineVar)
	Stloc       = op2("stloc", 0x0E, InlineVar)
	Localloc    = op2("localloc", 0x0F, InlineNone)
	Endfilter   = op2("endfilter", 0x11, InlineNone)
	Unaligned   = op2("unaligned.", 0x12, ShortInlineI)
	Volatile    = op2("volatile.", 0x13, InlineNone)
	Tailcall    = op2("tail.", 0x14, InlineNone)
	Initobj     = op2("initobj", 0x15, InlineType)
	Constrained = op2("constrained.", 0x16, InlineType)
	Cpblk       = op2("cpblk", 0x17, InlineNone)
	Initblk     = op2("initblk", 0x18, InlineNone)
	No          = op2("no.", 0x19, ShortInlineI)
	Rethrow     = op2("rethrow", 0x1A, InlineNone)
	Sizeof      = op2("sizeof", 0x1C, InlineType)
	Refanytype  = op2("refanytype", 0x1D, InlineNone)
	Readonly    = op2("readonly.", 0x1E, InlineNone)
)

// InstructionSet returns every opcode of the instruction set.
func InstructionSet() []OpCode {
	return []OpCode{
		Nop, Break, Ldarg0, Ldarg1, Ldarg2, Ldarg3, Ldloc0, Ldloc1, Ldloc2, Ldloc3,
		Stloc0, Stloc1, Stloc2, Stloc3, LdargS, LdargaS, StargS, LdlocS, LdlocaS, StlocS,
		Ldnull, LdcI4M1, LdcI40, LdcI41, LdcI42, LdcI43, LdcI44, LdcI45, LdcI46, LdcI47,
		LdcI48, LdcI4S, LdcI4, LdcI8, LdcR4, LdcR8, Dup, Pop, Jmp, Call, Calli, Ret,
		BrS, BrfalseS, BrtrueS, BeqS, BgeS, BgtS, BleS, BltS, BneUnS, BgeUnS, BgtUnS, BleUnS, BltUnS,
		Br, Brfalse, Brtrue, Beq, Bge, Bgt, Ble, Blt, BneUn, BgeUn, BgtUn, BleUn, BltUn,
		Switch, LdindI1, LdindU1, LdindI2, LdindU2, LdindI4, LdindU4, LdindI8, LdindI,
		LdindR4, LdindR8, LdindRef, StindRef, StindI1, StindI2, StindI4, StindI8, StindR4, StindR8,
		Add, Sub, Mul, Div, DivUn, Rem, RemUn, And, Or, Xor, Shl, Shr, ShrUn, Neg, Not,
		ConvI1, ConvI2, ConvI4, ConvI8, ConvR4, ConvR8, ConvU4, ConvU8,
		Callvirt, Cpobj, Ldobj, Ldstr, Newobj, Castclass, Isinst, ConvRUn, Unbox, Throw,
		Ldfld, Ldflda, Stfld, Ldsfld, Ldsflda, Stsfld, Stobj,
		ConvOvfI1Un, ConvOvfI2Un, ConvOvfI4Un, ConvOvfI8Un, ConvOvfU1Un, ConvOvfU2Un,
		ConvOvfU4Un, ConvOvfU8Un, ConvOvfIUn, ConvOvfUUn,
		Box, Newarr, Ldlen, Ldelema, LdelemI1, LdelemU1, LdelemI2, LdelemU2, LdelemI4,
		LdelemU4, LdelemI8, LdelemI, LdelemR4, LdelemR8, LdelemRef,
		StelemI, StelemI1, StelemI2, StelemI4, StelemI8, StelemR4, StelemR8, StelemRef,
		Ldelem, Stelem, UnboxAny,
		ConvOvfI1, ConvOvfU1, ConvOvfI2, ConvOvfU2, ConvOvfI4, ConvOvfU4, ConvOvfI8, ConvOvfU8,
		Refanyval, Ckfinite, Mkrefany, Ldtoken, ConvU2, ConvU1, ConvI, ConvOvfI, ConvOvfU,
		AddOvf, AddOvfUn, MulOvf, MulOvfUn, SubOvf, SubOvfUn, Endfinally, Leave, LeaveS, StindI, ConvU,

		Arglist, Ceq, Cgt, CgtUn, Clt, CltUn, Ldftn, Ldvirtftn, Ldarg, Ldarga, Starg,
		Ldloc, Ldloca, Stloc, Localloc, Endfilter, Unaligned, Volatile, Tailcall, Initobj,
		Constrained, Cpblk, Initblk, No, Rethrow, Sizeof, Refanytype, Readonly,
	}
}
