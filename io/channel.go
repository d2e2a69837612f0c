// Package io provides the output devices for the nibble emulator.
// The only device is the display latch, which mirrors whatever value the
// CPU's disp instruction last copied out of memory.
package io

// Latch defines the interface the CPU publishes display values to.
type Latch interface {
	// Rewind resets the device to its power-on state.
	Rewind()
	// Send latches a single value.
	Send(value int8) error
}
