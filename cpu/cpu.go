package cpu

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"
	"strings"

	"github.com/ezrec/nibble/io"
)

// Latch is a display device interface.
type Latch io.Latch

const (
	MEMORY_SIZE = 16 // Memory cells, shared by code and data.
)

var _cpu_defines = map[string]string{
	"MEMORY_SIZE": fmt.Sprintf("%d", MEMORY_SIZE),
	"OPERAND_MAX": fmt.Sprintf("%d", OPERAND_MAX),
}

// State is a read-only snapshot of the machine, taken between cycles.
type State struct {
	Memory   [MEMORY_SIZE]int8
	Register int8
	Bcd      int8
	Pc       uint8
	Zero     bool
	Halted   bool
	Ticks    int
}

// Code returns the instruction at the program counter.
func (st State) Code() Code {
	return Decode(st.Memory[st.Pc%MEMORY_SIZE])
}

// Cpu is the simulation context for the nibble processor.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Memory   [MEMORY_SIZE]int8 // Unified code and data memory.
	Register int8              // Accumulator.
	Bcd      int8              // Display latch.
	Pc       uint8             // Program counter, 0..15.
	Zero     bool              // Set when the last register write was zero.
	Halted   bool              // Set after a jump to its own address.

	Ticks int // CPU ticks counter.

	display Latch
}

// NewCpu creates a new CPU with cleared state.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{}

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	regs := []string{
		"pc",
		"reg",
		"bcd",
		"zero",
		"halt",
		"ticks",
		"mem",
	}
	for _, reg := range regs {
		var strval string
		switch reg {
		case "pc":
			strval = fmt.Sprintf("%X", cpu.Pc)
		case "reg":
			strval = fmt.Sprintf("%02X (%d)", uint8(cpu.Register), cpu.Register)
		case "bcd":
			strval = fmt.Sprintf("%02X (%d)", uint8(cpu.Bcd), cpu.Bcd)
		case "zero":
			strval = fmt.Sprintf("%v", cpu.Zero)
		case "halt":
			strval = fmt.Sprintf("%v", cpu.Halted)
		case "ticks":
			strval = fmt.Sprintf("%d", cpu.Ticks)
		case "mem":
			cells := make([]string, len(cpu.Memory))
			for n, word := range cpu.Memory {
				cells[n] = fmt.Sprintf("%02X", uint8(word))
			}
			strval = strings.Join(cells, " ")
		}
		text += fmt.Sprintf("% 5s: %v\n", reg, strval)
	}

	return
}

// Reset the CPU state.
// - Clears the memory and registers.
// - Zeros the tick counter.
// - Rewinds the display device.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	clear(cpu.Memory[:])
	cpu.Register = 0
	cpu.Bcd = 0
	cpu.Pc = 0
	cpu.Zero = false
	cpu.Halted = false
	cpu.Ticks = 0

	if cpu.display != nil {
		cpu.display.Rewind()
	}
}

// Load copies a memory image into the CPU memory.
func (cpu *Cpu) Load(image Image) {
	cpu.Memory = image
}

// SetDisplay attaches the display device, or detaches it when nil.
func (cpu *Cpu) SetDisplay(display Latch) {
	cpu.display = display
}

// State returns a snapshot of the CPU.
func (cpu *Cpu) State() State {
	return State{
		Memory:   cpu.Memory,
		Register: cpu.Register,
		Bcd:      cpu.Bcd,
		Pc:       cpu.Pc,
		Zero:     cpu.Zero,
		Halted:   cpu.Halted,
		Ticks:    cpu.Ticks,
	}
}

// FetchCode fetches and decodes the instruction at the program counter.
func (cpu *Cpu) FetchCode() (code Code, word int8) {
	word = cpu.Memory[cpu.Pc%MEMORY_SIZE]
	code = Decode(word)
	return
}

// Tick executes a single CPU instruction cycle.
func (cpu *Cpu) Tick() (err error) {
	if cpu.Halted {
		err = ErrHalted
		return
	}

	code, _ := cpu.FetchCode()

	err = cpu.Execute(code)
	return
}

// setRegister writes the accumulator and updates the zero flag.
func (cpu *Cpu) setRegister(value int8) {
	cpu.Register = value
	cpu.Zero = value == 0
}

// Execute executes a single decoded instruction at the program counter.
func (cpu *Cpu) Execute(code Code) (err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode(code), err)
		}
	}()
	if cpu.Verbose {
		log.Printf("%X: %v", cpu.Pc, code)
	}

	if code.Operand < 0 || code.Operand > OPERAND_MAX {
		err = ErrOperandOutOfRange
		return
	}

	n := uint8(code.Operand)
	ip := cpu.Pc % MEMORY_SIZE
	next_pc := (ip + 1) % MEMORY_SIZE

	switch code.Op {
	case OP_ADD:
		cpu.setRegister(cpu.Register + code.Operand)
	case OP_AND:
		cpu.setRegister(cpu.Register & code.Operand)
	case OP_SHL:
		cpu.Memory[n] <<= 1
	case OP_DISP:
		cpu.Bcd = cpu.Memory[n]
		if cpu.display != nil {
			// pc stays on the disp so it can be retried.
			err = cpu.display.Send(cpu.Bcd)
			if err != nil {
				return
			}
		}
	case OP_LOAD:
		cpu.setRegister(cpu.Memory[n])
	case OP_STR:
		cpu.Memory[n] = cpu.Register
	case OP_JMP:
		next_pc = n
	case OP_JZ:
		if cpu.Zero {
			next_pc = n
		}
	case OP_NOP:
		// pass
	default:
		err = ErrOpcodeInvalid
		return
	}

	// A taken jump to itself can never change the machine again.
	if code.Op.Jump() && next_pc == ip {
		cpu.Halted = true
		if cpu.Verbose {
			log.Printf("cpu: halt at %X", ip)
		}
	}

	cpu.Pc = next_pc
	cpu.Ticks += 1

	return
}
