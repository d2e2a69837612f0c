// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"errors"
	"fmt"
	"iter"
	"maps"

	"github.com/ezrec/nibble/cpu"
	"github.com/ezrec/nibble/internal"
	"github.com/ezrec/nibble/io"
)

const (
	DEFAULT_MAX_TICKS = 48 // Tick bound used by NewEmulator.
)

var _emulator_defines = map[string]string{
	"DEFAULT_MAX_TICKS": fmt.Sprintf("%d", DEFAULT_MAX_TICKS),
}

// Reporter observes the machine after every cycle.
type Reporter interface {
	Report(state cpu.State) error
}

// ReporterFunc adapts a function to a Reporter.
type ReporterFunc func(state cpu.State) error

func (rf ReporterFunc) Report(state cpu.State) error {
	return rf(state)
}

// Emulator state. CPU + program + display.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently running program listing.

	Display io.Display // Display latch device.

	MaxTicks int // Tick bound; zero runs until halted.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu:      cpu.NewCpu(),
		Program:  &cpu.Program{},
		MaxTicks: DEFAULT_MAX_TICKS,
	}

	emu.Cpu.SetDisplay(&emu.Display)

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
	)
}

// Reset the machine and load the program.
func (emu *Emulator) Reset() (err error) {
	if emu.Program == nil {
		err = ErrProgramMissing
		return
	}

	image, err := emu.Program.Image()
	if err != nil {
		return
	}

	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Reset()
	emu.Cpu.Load(image)

	return
}

// Ticks returns the total ticks since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// Pc returns current program counter.
func (emu *Emulator) Pc() int {
	return int(emu.Cpu.Pc)
}

// Code returns the current instruction code.
func (emu *Emulator) Code() cpu.Code {
	code, _ := emu.Cpu.FetchCode()
	return code
}

// LineNo returns the source line number of the cell at the program counter,
// or 0 when the cell did not come from source.
func (emu *Emulator) LineNo() int {
	if emu.Program == nil {
		return 0
	}

	dbg := emu.Program.Debug(emu.Cpu.Pc)
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.LineNo
}

// Done returns true when the emulator will not tick again.
func (emu *Emulator) Done() bool {
	if emu.Cpu.Halted {
		return true
	}

	return emu.MaxTicks > 0 && emu.Cpu.Ticks >= emu.MaxTicks
}

// Tick performs a single tick of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	if emu.Done() {
		done = true
		return
	}

	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: lineno, Err: err}
		}
	}()

	err = emu.Cpu.Tick()
	if errors.Is(err, cpu.ErrHalted) {
		err = nil
		done = true
		return
	}
	if err != nil {
		return
	}

	done = emu.Done()

	return
}

// Run ticks until done, reporting the machine state after every cycle.
// A nil reporter is allowed.
func (emu *Emulator) Run(reporter Reporter) (err error) {
	for !emu.Done() {
		_, err = emu.Tick()
		if err != nil {
			return
		}
		if reporter != nil {
			err = reporter.Report(emu.Cpu.State())
			if err != nil {
				return
			}
		}
	}

	return
}
