// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Command nibble assembles and runs programs on the sixteen cell nibble
// computer, reporting the machine state after every cycle.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ezrec/nibble/cpu"
	"github.com/ezrec/nibble/emulator"
	"github.com/ezrec/nibble/report"
)

var (
	errQuit   = errors.New("quit")
	errReload = errors.New("reload")
)

// defineList collects -D NAME=VALUE assembler predefines.
type defineList map[string]string

func (dl defineList) String() string {
	var defs []string
	for name, value := range dl {
		defs = append(defs, name+"="+value)
	}
	sort.Strings(defs)
	return strings.Join(defs, ",")
}

func (dl defineList) Set(text string) error {
	name, value, ok := strings.Cut(text, "=")
	if !ok {
		value = "1"
	}
	if len(name) == 0 || len(value) == 0 {
		return fmt.Errorf("empty define in %q", text)
	}
	dl[name] = value
	return nil
}

// demoProgram is run when no source is given: it latches its own first
// cell forever.
func demoProgram() *cpu.Program {
	codes := [cpu.MEMORY_SIZE]cpu.Code{
		cpu.MakeCode(cpu.OP_ADD, 15),
		cpu.MakeCode(cpu.OP_DISP, 0),
		cpu.MakeCode(cpu.OP_JMP, 0),
	}
	for n := 3; n < len(codes); n++ {
		codes[n] = cpu.MakeCodeNop()
	}

	return cpu.NewProgram(codes[:]...)
}

// assemble parses a source file.
func assemble(source string, defines defineList) (prog *cpu.Program, err error) {
	inf, err := os.Open(source)
	if err != nil {
		return
	}
	defer inf.Close()

	asm := &cpu.Assembler{}
	for name, value := range defines {
		asm.Predefine(name, value)
	}

	prog, err = asm.Parse(inf)
	if err != nil {
		err = fmt.Errorf("%v: %w", source, err)
	}
	return
}

// stepper paces the emulator, and interrupts it for reloads or quit.
type stepper struct {
	reporter emulator.Reporter
	delay    time.Duration
	reloads  <-chan *cpu.Program
	quit     <-chan struct{}

	pending *cpu.Program
}

func (st *stepper) Report(state cpu.State) (err error) {
	if st.reporter != nil {
		err = st.reporter.Report(state)
		if err != nil {
			return
		}
	}

	if st.delay <= 0 {
		select {
		case <-st.quit:
			err = errQuit
		case st.pending = <-st.reloads:
			err = errReload
		default:
		}
		return
	}

	select {
	case <-st.quit:
		err = errQuit
	case st.pending = <-st.reloads:
		err = errReload
	case <-time.After(st.delay):
	}

	return
}

// wait blocks until a reload arrives, or quit.
func (st *stepper) wait() (err error) {
	select {
	case <-st.quit:
		err = errQuit
	case st.pending = <-st.reloads:
		err = errReload
	}
	return
}

// run drives the emulator until it is done, reloading programs as they
// arrive when watching a source.
func run(emu *emulator.Emulator, st *stepper) (err error) {
	for {
		err = emu.Run(st)
		if st.reloads == nil {
			if errors.Is(err, errQuit) {
				err = nil
			}
			return
		}

		if !errors.Is(err, errReload) && !errors.Is(err, errQuit) {
			if err != nil {
				log.Printf("%v", err)
			}
			log.Printf("stopped after %d ticks, waiting for changes", emu.Ticks())
			err = st.wait()
		}

		for errors.Is(err, errReload) {
			emu.Program = st.pending
			err = emu.Reset()
			if err == nil {
				log.Printf("reset")
				break
			}
			log.Printf("%v", err)
			err = st.wait()
		}

		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			return
		}
	}
}

func main() {
	log.SetPrefix("nibble: ")
	log.SetFlags(0)

	var compile string
	var ticks int
	var delay time.Duration
	var output string
	var verbose bool
	var quiet bool
	var tui bool
	var watch bool
	defines := defineList{}

	flag.StringVar(&compile, "c", "", ".nb file to assemble (default: built-in demo)")
	flag.IntVar(&ticks, "n", emulator.DEFAULT_MAX_TICKS, "Maximum ticks, 0 runs until halted")
	flag.DurationVar(&delay, "delay", 0, "Delay between cycles")
	flag.StringVar(&output, "o", "", "Display latch output file, - for stdout")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.BoolVar(&quiet, "q", false, "Quiet, only report the final state")
	flag.BoolVar(&tui, "tui", false, "Terminal user interface")
	flag.BoolVar(&watch, "w", false, "Watch the -c source, and reload on change")
	flag.Var(defines, "D", "Assembler predefine NAME=VALUE (repeatable)")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if watch && len(compile) == 0 {
		log.Fatalf("-w needs a -c source")
	}

	prog := demoProgram()

	if len(compile) != 0 {
		var err error
		prog, err = assemble(compile, defines)
		if err != nil {
			log.Fatal(err)
		}
	}

	emu := emulator.NewEmulator()
	emu.Program = prog
	emu.Verbose = verbose
	emu.MaxTicks = ticks

	switch output {
	case "":
	case "-":
		emu.Display.Output = os.Stdout
	default:
		ouf, err := os.Create(output)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		defer ouf.Close()
		emu.Display.Output = ouf
	}

	err := emu.Reset()
	if err != nil {
		log.Fatal(err)
	}

	st := &stepper{
		delay: delay,
	}

	if watch {
		var stop func()
		st.reloads, stop, err = watchSource(compile, defines)
		if err != nil {
			log.Fatal(err)
		}
		defer stop()
	}

	if tui {
		ui := report.NewTui()
		st.reporter = ui
		quit := make(chan struct{})
		st.quit = quit

		log.SetPrefix("")
		log.SetOutput(ui.Log())
		go func() {
			err := run(emu, st)
			if err != nil {
				log.Printf("%v", err)
			} else {
				log.Printf("done after %d ticks", emu.Ticks())
			}
		}()
		err = ui.Run()
		close(quit)
		log.SetOutput(os.Stderr)
		log.SetPrefix("nibble: ")
		if err != nil {
			log.Fatal(err)
		}
		return
	}

	text := &report.Text{Output: os.Stdout}
	if !quiet {
		st.reporter = text
	}

	err = run(emu, st)
	if err != nil {
		log.Fatal(err)
	}

	if quiet {
		text.Report(emu.Cpu.State())
	}
}
