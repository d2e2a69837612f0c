package io

import (
	"errors"
	"fmt"
	"io"
)

// Display is the BCD display latch. Every value sent to it is written as a
// decimal line to Output when Output is set, and kept in History once the
// write succeeds.
type Display struct {
	Output io.Writer // Optional output for latched values.

	History []int8 // Every value latched since the last Rewind.
}

var _ Latch = (*Display)(nil)

// Rewind clears the latch history.
func (dc *Display) Rewind() {
	dc.History = dc.History[:0]
}

// Send latches a value.
func (dc *Display) Send(value int8) (err error) {
	if dc.Output != nil {
		_, err = fmt.Fprintf(dc.Output, "%d\n", value)
		if err != nil {
			err = errors.Join(ErrDisplayWrite, err)
			return
		}
	}

	dc.History = append(dc.History, value)

	return
}

// Value returns the most recently latched value.
func (dc *Display) Value() (value int8, ok bool) {
	if len(dc.History) == 0 {
		return
	}

	return dc.History[len(dc.History)-1], true
}

// Changes returns the number of times the latched value differed from
// the one before it.
func (dc *Display) Changes() (count int) {
	var last int8
	for n, value := range dc.History {
		if n == 0 || value != last {
			count++
		}
		last = value
	}

	return
}
