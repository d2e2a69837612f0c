// Package cpu implements the processor and assembler for the nibble system.
//
// The CPU consists of sixteen 8-bit memory cells shared by code and data, an
// 8-bit accumulator register, the BCD display latch, a 4-bit program counter
// and a zero flag. Each instruction is a single byte: a 3-bit opcode in bits
// 6..4 and a 4-bit operand in bits 3..0. Bit 7 is ignored on fetch, so every
// byte decodes to some instruction.
//
// The assembler provides a small assembly language for the instruction set,
// supporting macros, labels, equates, and compile-time expression evaluation.
package cpu
