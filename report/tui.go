package report

import (
	"fmt"
	"io"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/ezrec/nibble/cpu"
)

// Tui is a terminal user interface reporter: a memory table, a state line
// and a scrolling log.
type Tui struct {
	memory *tview.Table
	state  *tview.TextView
	log    *tview.TextView
	cols   *tview.Flex
	rows   *tview.Flex
	app    *tview.Application
}

// NewTui creates the terminal interface. It does not draw until Run.
func NewTui() *Tui {
	tu := &Tui{
		memory: tview.NewTable().
			SetBorders(true),
		state: tview.NewTextView().
			SetWrap(false),
		log: tview.NewTextView().
			SetMaxLines(1000),
		cols: tview.NewFlex(),
		rows: tview.NewFlex().
			SetDirection(tview.FlexRow),
		app: tview.NewApplication(),
	}
	tu.log.SetChangedFunc(func() { tu.app.Draw() })
	tu.state.SetBackgroundColor(tcell.ColorDarkGrey)
	tu.memory.SetTitle(" memory ").SetBorder(true)
	tu.log.SetTitle(" log ").SetBorder(true)
	tu.cols.
		AddItem(tu.memory, 0, 1, false).
		AddItem(tu.log, 0, 1, false)
	tu.rows.
		AddItem(tu.cols, 0, 1, false).
		AddItem(tu.state, 1, 0, false)
	tu.app.SetRoot(tu.rows, true)

	tu.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape || event.Rune() == 'q' {
			tu.app.Stop()
			return nil
		}
		return event
	})

	tu.draw(cpu.State{})

	return tu
}

// Run runs the interface until Stop, or the user quits.
func (tu *Tui) Run() error { return tu.app.Run() }

// Stop closes the interface.
func (tu *Tui) Stop() { tu.app.Stop() }

// Log returns a writer that appends to the log pane.
func (tu *Tui) Log() io.Writer { return tu.log }

// Report queues a redraw with the new state.
func (tu *Tui) Report(state cpu.State) error {
	tu.app.QueueUpdateDraw(func() {
		tu.draw(state)
	})
	return nil
}

func (tu *Tui) draw(state cpu.State) {
	for n, word := range state.Memory {
		text := fmt.Sprintf("%X: %02X %v", n, uint8(word), cpu.Decode(word))
		cell := tview.NewTableCell(text).
			SetExpansion(1)
		if n == int(state.Pc) {
			cell.SetTextColor(tcell.ColorYellow).
				SetBackgroundColor(tcell.ColorDarkBlue)
		}
		tu.memory.SetCell(n/COLUMNS, n%COLUMNS, cell)
	}

	switch {
	case state.Halted:
		tu.state.SetTextColor(tcell.ColorWhite)
		tu.state.SetBackgroundColor(tcell.ColorDarkRed)
	default:
		tu.state.SetTextColor(tcell.ColorBlack)
		tu.state.SetBackgroundColor(tcell.ColorDarkGrey)
	}
	tu.state.SetText(Header(state))
}
