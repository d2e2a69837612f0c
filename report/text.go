// Package report renders machine state for people watching a program run.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/ezrec/nibble/cpu"
)

const (
	COLUMNS = 4 // Memory cells per rendered row.
)

// Text writes a plain text dump of the machine after every cycle.
type Text struct {
	Output io.Writer
}

// Report writes the state to the output.
func (tr *Text) Report(state cpu.State) (err error) {
	_, err = io.WriteString(tr.Output, Format(state))
	return
}

func bit(set bool) int {
	if set {
		return 1
	}
	return 0
}

// Header returns the one line register summary of the state.
func Header(state cpu.State) string {
	text := fmt.Sprintf("tick %3d  pc %X  reg %4d  bcd %4d  z %d  %v",
		state.Ticks, state.Pc, state.Register, state.Bcd, bit(state.Zero), state.Code())
	if state.Halted {
		text += "  [halt]"
	}
	return text
}

// Cell returns the rendering of one memory cell. The cell at the program
// counter is bracketed.
func Cell(state cpu.State, n int) string {
	text := fmt.Sprintf("%02X", uint8(state.Memory[n]))
	if n == int(state.Pc) {
		return "[" + text + "]"
	}
	return " " + text + " "
}

// Format returns the full text rendering of the state.
func Format(state cpu.State) string {
	var b strings.Builder

	b.WriteString(Header(state))
	b.WriteByte('\n')
	for n := range cpu.MEMORY_SIZE {
		b.WriteString(Cell(state, n))
		if n%COLUMNS == COLUMNS-1 {
			b.WriteByte('\n')
		}
	}

	return b.String()
}
