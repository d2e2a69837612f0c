package cpu

import (
	"errors"
	"fmt"
)

const (
	OPERAND_MAX  = 0xf  // Largest operand that fits the 4-bit field.
	OPERAND_MASK = 0x0f // Operand bits of an instruction word.
	OPCODE_SHIFT = 4    // Position of the opcode bits.
	WORD_MASK    = 0x7f // Significant bits of an instruction word.
)

// Op is an instruction operation.
type Op int

//go:generate go tool stringer -linecomment -type=Op
const (
	OP_ADD  = Op(0) // add
	OP_AND  = Op(1) // and
	OP_SHL  = Op(2) // shl
	OP_DISP = Op(3) // disp
	OP_LOAD = Op(4) // load
	OP_STR  = Op(5) // str
	OP_JMP  = Op(6) // jmp
	OP_JZ   = Op(7) // jz
	OP_NOP  = Op(8) // nop
)

// Jump returns true if the operation may set the program counter.
func (op Op) Jump() bool {
	return op == OP_JMP || op == OP_JZ
}

// Address returns true if the operand is a memory address.
func (op Op) Address() bool {
	switch op {
	case OP_SHL, OP_DISP, OP_LOAD, OP_STR:
		return true
	}
	return false
}

// Code is a single decoded instruction.
type Code struct {
	Op      Op
	Operand int8
}

// MakeCode creates an instruction.
func MakeCode(op Op, operand int8) Code {
	return Code{Op: op, Operand: operand}
}

// MakeCodeNop creates the padding instruction.
func MakeCodeNop() Code {
	return Code{Op: OP_NOP}
}

// Decode decodes any instruction word. Bit 7 is ignored.
func Decode(word int8) (code Code) {
	value := uint8(word) & WORD_MASK
	code.Op = Op(value >> OPCODE_SHIFT)
	code.Operand = int8(value & OPERAND_MASK)
	return
}

// Encode returns the instruction word for the code.
func (code Code) Encode() (word int8, err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode(code), err)
		}
	}()

	switch {
	case code.Op == OP_NOP:
		if code.Operand != 0 {
			err = ErrOperandOutOfRange
		}
		return
	case code.Op < OP_ADD || code.Op > OP_JZ:
		err = ErrOpcodeInvalid
		return
	case code.Operand < 0 || code.Operand > OPERAND_MAX:
		err = ErrOperandOutOfRange
		return
	}

	word = int8(code.Op)<<OPCODE_SHIFT | code.Operand
	return
}

// String returns the assembly language representation of this instruction.
func (code Code) String() string {
	if code.Op == OP_NOP {
		return code.Op.String()
	}

	return fmt.Sprintf("%v %d", code.Op, code.Operand)
}
