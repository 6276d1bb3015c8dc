// Package cil decodes compiled accessor bodies encoded in the ECMA-335
// common intermediate language.
//
// Instructions are variable length: a one-byte opcode, or the escape byte
// 0xFE followed by a second byte, then an operand whose length depends on
// the opcode's OperandType. Streams can therefore only be walked forwards
// from offset zero.
//
// Key types:
//   - OpCode / OperandType: the fixed instruction set
//   - Table: one-byte and two-byte opcode lookups
//   - Decoder / Instruction: sequential decoding and field-token extraction
//   - Assembler: label-based emitter for building streams
package cil
