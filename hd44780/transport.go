// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

// Transport is the low level link to an HD44780 controller that is already
// in its final interface mode. It moves whole instruction and data bytes;
// how they reach the controller pins is up to the implementation.
type Transport interface {
	// WriteCommand sends an instruction byte (RS low). Implementations
	// must wait out the execution time of clear and home.
	WriteCommand(cmd byte) error
	// WriteData sends a byte to CGRAM or DDRAM (RS high).
	WriteData(data byte) error
	// BacklightOn and BacklightOff switch the backlight. The state must be
	// carried by every later write.
	BacklightOn() error
	BacklightOff() error
}

// Initializer is the display layer a transport hands over to once the
// controller has been forced into 4-bit mode, and before the final function
// set is sent.
type Initializer interface {
	Init(t Transport, rows, cols int) error
}

// HD44780 instruction set. Each instruction is the base value OR'ed with its
// flags.
const (
	CmdClear byte = 0x01
	CmdHome  byte = 0x02

	CmdEntryMode   byte = 0x04
	EntryIncrement byte = 0x02
	EntryShift     byte = 0x01

	CmdDisplayControl byte = 0x08
	DisplayOn         byte = 0x04
	DisplayCursor     byte = 0x02
	DisplayBlink      byte = 0x01

	CmdShift     byte = 0x10
	ShiftDisplay byte = 0x08
	ShiftRight   byte = 0x04

	CmdFunction      byte = 0x20
	Function8Bit     byte = 0x10
	Function2Lines   byte = 0x08
	Function5x10Dots byte = 0x04
	// CmdFunctionReset is the function set sent blind during the power-on
	// handshake. Only its high nibble reaches the controller.
	CmdFunctionReset byte = CmdFunction | Function8Bit

	CmdSetCGRAM byte = 0x40
	CmdSetDDRAM byte = 0x80
)

// DDRAMAddress returns the DDRAM address of the 0-based position row, col on
// a display with cols columns. Odd rows start at 0x40; rows 2 and 3 continue
// rows 0 and 1 after the first cols characters.
func DDRAMAddress(row, col, cols int) byte {
	addr := col & 0x3f
	if row&1 != 0 {
		addr += 0x40
	}
	if row&2 != 0 {
		addr += cols
	}
	return byte(addr)
}
