package cpu

import (
	"errors"
	"strings"
)

// Image is a complete memory image, ready to load.
type Image [MEMORY_SIZE]int8

// LoadImage encodes exactly MEMORY_SIZE codes into a memory image.
func LoadImage(codes []Code) (image Image, err error) {
	if len(codes) != MEMORY_SIZE {
		err = ErrProgramSizeMismatch
		return
	}

	for n, code := range codes {
		image[n], err = code.Encode()
		if err != nil {
			err = &ErrCell{Cell: n, Err: err}
			return
		}
	}

	return
}

// Opcode represents a line of assembled code with its source location and
// generated memory cell.
type Opcode struct {
	LineNo    int
	Ip        int
	Words     []string
	Code      Code
	Data      bool // If set, Word is raw data rather than the encoded Code.
	Word      int8
	LinkLabel string
}

type Program struct {
	Opcodes []Opcode
}

// NewProgram creates a program from a literal list of instructions,
// one per cell starting at address 0.
func NewProgram(codes ...Code) (prog *Program) {
	prog = &Program{}
	for ip, code := range codes {
		prog.Opcodes = append(prog.Opcodes, Opcode{Ip: ip, Code: code})
	}

	return
}

type Debug struct {
	*Opcode
}

func (prog *Program) Debug(ip uint8) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if int(ip) == op.Ip {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
			}
			break
		}
	}

	return
}

// Codes returns one code per memory cell, padding unused cells with nop.
func (prog *Program) Codes() (codes []Code, err error) {
	codes = make([]Code, MEMORY_SIZE)
	for n := range codes {
		codes[n] = MakeCodeNop()
	}

	for _, op := range prog.Opcodes {
		if op.Ip < 0 || op.Ip >= MEMORY_SIZE {
			err = ErrProgramSizeMismatch
			return
		}
		if op.Data {
			continue
		}
		codes[op.Ip] = op.Code
	}

	return
}

// Image returns the memory image of the program.
func (prog *Program) Image() (image Image, err error) {
	codes, err := prog.Codes()
	if err != nil {
		return
	}

	image, err = LoadImage(codes)
	if err != nil {
		var cell *ErrCell
		if errors.As(err, &cell) {
			if dbg := prog.Debug(uint8(cell.Cell)); dbg.Opcode != nil && dbg.LineNo > 0 {
				err = &ErrSyntax{LineNo: dbg.LineNo, Line: dbg.Opcode.String(), Err: err}
			}
		}
		return
	}

	for _, op := range prog.Opcodes {
		if op.Data {
			image[op.Ip] = op.Word
		}
	}

	return
}

// String returns the source words of the opcode.
func (op *Opcode) String() string {
	return strings.Join(op.Words, " ")
}
