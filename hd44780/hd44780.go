// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hd44780 controls the Hitachi LCD display chipset HD-44780
//
// The package is split in two layers. A Transport moves instruction and data
// bytes to the controller; MCP23008Backpack is the transport for displays
// driven through an MCP23008 I²C expander. HD44780 implements the display
// vocabulary (clear, cursor, custom characters, text) on top of any
// Transport.
//
// # Datasheet
//
// https://www.sparkfun.com/datasheets/LCD/HD44780.pdf
package hd44780

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
)

const (
	packageName = "hd44780"

	// The controller has 80 bytes of DDRAM.
	maxCells = 80
	maxRows  = 4
)

var (
	ErrInvalidGeometry = errors.New("hd44780: invalid display geometry")
	ErrNotImplemented  = fmt.Errorf("%s: %w", packageName, display.ErrNotImplemented)
	ErrNotInitialized  = errors.New("hd44780: display not initialized")
)

func wrap(err error) error {
	if err == nil || strings.HasPrefix(err.Error(), packageName) {
		return err
	}
	return fmt.Errorf("%s: %w", packageName, err)
}

func checkGeometry(rows, cols int) error {
	if rows < 1 || cols < 1 || rows > maxRows || rows*cols > maxCells {
		return fmt.Errorf("%w: %d rows, %d cols", ErrInvalidGeometry, rows, cols)
	}
	return nil
}

// HD44780 is a character display driven through a Transport.
//
// HD44780 tracks the cursor itself, so text written past the end of a row
// continues on the next row, and '\n' starts a new row.
//
// Implements periph.io/conn/x/display/TextDisplay and display.DisplayBacklight
type HD44780 struct {
	mu        sync.Mutex
	t         Transport
	rows      int
	cols      int
	on        bool
	cursor    bool
	blink     bool
	scroll    bool
	backlight bool
	// 0 based cursor position.
	row int
	col int
	// Set when the last character filled a row, so a following '\n'
	// doesn't skip a row.
	impliedNewline bool
}

// New returns a display on a transport whose controller is already in its
// final interface mode.
func New(t Transport, rows, cols int) (*HD44780, error) {
	lcd := &HD44780{}
	if err := lcd.Init(t, rows, cols); err != nil {
		return nil, err
	}
	return lcd, nil
}

// Init implements Initializer. It turns the display off, the backlight on,
// clears the display, selects left to right entry and turns the display
// back on with the cursor hidden.
func (lcd *HD44780) Init(t Transport, rows, cols int) error {
	if err := checkGeometry(rows, cols); err != nil {
		return err
	}
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	lcd.t = t
	lcd.rows = rows
	lcd.cols = cols
	lcd.on = false
	lcd.cursor = false
	lcd.blink = false
	lcd.scroll = false

	err := lcd.displayControl()
	if err == nil {
		err = lcd.setBacklight(true)
	}
	if err == nil {
		err = lcd.clear()
	}
	if err == nil {
		err = lcd.entryMode()
	}
	if err == nil {
		lcd.on = true
		err = lcd.displayControl()
	}
	return wrap(err)
}

// AutoScroll makes the display shift with each character written, so the
// cursor stays put and the text moves.
func (lcd *HD44780) AutoScroll(enabled bool) error {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	if lcd.t == nil {
		return ErrNotInitialized
	}
	lcd.scroll = enabled
	return wrap(lcd.entryMode())
}

// Clears the screen and moves the cursor to the first position.
func (lcd *HD44780) Clear() error {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	if lcd.t == nil {
		return ErrNotInitialized
	}
	return wrap(lcd.clear())
}

// Return the number of columns the display supports
func (lcd *HD44780) Cols() int {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	return lcd.cols
}

// Set the cursor mode. You can pass multiple arguments.
// Cursor(CursorOff, CursorUnderline)
//
// The HD44780 has no separate block cursor; CursorBlock and CursorBlink both
// select the blinking block.
func (lcd *HD44780) Cursor(modes ...display.CursorMode) error {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	if lcd.t == nil {
		return ErrNotInitialized
	}
	cursor, blink := lcd.cursor, lcd.blink
	for _, mode := range modes {
		switch mode {
		case display.CursorOff:
			cursor = false
			blink = false
		case display.CursorUnderline:
			cursor = true
		case display.CursorBlock, display.CursorBlink:
			blink = true
		default:
			return fmt.Errorf("%s: unexpected cursor: %d", packageName, mode)
		}
	}
	lcd.cursor, lcd.blink = cursor, blink
	return wrap(lcd.displayControl())
}

// Move the cursor home (MinRow(),MinCol())
func (lcd *HD44780) Home() error {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	if lcd.t == nil {
		return ErrNotInitialized
	}
	lcd.row, lcd.col = 0, 0
	lcd.impliedNewline = false
	return wrap(lcd.t.WriteCommand(CmdHome))
}

// Return the min column position.
func (lcd *HD44780) MinCol() int {
	return 1
}

// Return the min row position.
func (lcd *HD44780) MinRow() int {
	return 1
}

// Move the cursor one position. Forward and Backward wrap between rows; Up
// and Down stop at the first and last row.
func (lcd *HD44780) Move(dir display.CursorDirection) error {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	if lcd.t == nil {
		return ErrNotInitialized
	}
	row, col := lcd.row, lcd.col
	switch dir {
	case display.Backward:
		col--
		if col < 0 {
			col = lcd.cols - 1
			row = (row + lcd.rows - 1) % lcd.rows
		}
	case display.Forward:
		col++
		if col >= lcd.cols {
			col = 0
			row = (row + 1) % lcd.rows
		}
	case display.Up:
		if row > 0 {
			row--
		}
	case display.Down:
		if row < lcd.rows-1 {
			row++
		}
	default:
		return ErrNotImplemented
	}
	lcd.impliedNewline = false
	return wrap(lcd.moveTo(row, col))
}

// Move the cursor to arbitrary position.
func (lcd *HD44780) MoveTo(row, col int) error {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	if lcd.t == nil {
		return ErrNotInitialized
	}
	if row < lcd.MinRow() || row > lcd.rows || col < lcd.MinCol() || col > lcd.cols {
		return fmt.Errorf("%s: MoveTo(%d,%d) value out of range", packageName, row, col)
	}
	lcd.impliedNewline = false
	return wrap(lcd.moveTo(row-1, col-1))
}

// Return the number of rows the display supports.
func (lcd *HD44780) Rows() int {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	return lcd.rows
}

// Return info about the display.
func (lcd *HD44780) String() string {
	return fmt.Sprintf("HD44780::%v - Rows: %d, Cols: %d", lcd.t, lcd.rows, lcd.cols)
}

// Turn the display on / off
func (lcd *HD44780) Display(on bool) error {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	if lcd.t == nil {
		return ErrNotInitialized
	}
	lcd.on = on
	return wrap(lcd.displayControl())
}

// ShiftDisplay moves the whole display contents one position. The cursor
// moves with it.
func (lcd *HD44780) ShiftDisplay(right bool) error {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	if lcd.t == nil {
		return ErrNotInitialized
	}
	cmd := CmdShift | ShiftDisplay
	if right {
		cmd |= ShiftRight
	}
	return wrap(lcd.t.WriteCommand(cmd))
}

// CreateChar stores a 5x8 glyph in CGRAM slot location (0-7). Row 0 is the
// top of the glyph and bits 4..0 are the pixels from left to right. The
// glyph is displayed by writing the byte location.
func (lcd *HD44780) CreateChar(location int, bitmap [8]byte) error {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	if lcd.t == nil {
		return ErrNotInitialized
	}
	if location < 0 || location > 7 {
		return fmt.Errorf("%s: CreateChar location %d out of range", packageName, location)
	}
	if err := lcd.t.WriteCommand(CmdSetCGRAM | byte(location)<<3); err != nil {
		return wrap(err)
	}
	for _, line := range bitmap {
		if err := lcd.t.WriteData(line & 0x1f); err != nil {
			return wrap(err)
		}
	}
	// Data writes go to CGRAM until a DDRAM address is set again.
	return wrap(lcd.moveTo(lcd.row, lcd.col))
}

// Write a set of bytes to the display at the cursor. Bytes are sent as is,
// except '\n' which moves to the start of the next row.
func (lcd *HD44780) Write(p []byte) (n int, err error) {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	if lcd.t == nil {
		return 0, ErrNotInitialized
	}
	for _, b := range p {
		if err = lcd.putByte(b); err != nil {
			return n, wrap(err)
		}
		n++
	}
	return n, nil
}

// Write a string output to the display. The text is first folded to the
// printable ASCII range the controller's character ROM shares with Unicode;
// see Fold.
func (lcd *HD44780) WriteString(text string) (int, error) {
	return lcd.Write([]byte(Fold(text)))
}

// Halt clears the display, turns the backlight off, and turns the display off.
func (lcd *HD44780) Halt() error {
	return errors.Join(lcd.Clear(), lcd.Backlight(0), lcd.Display(false))
}

// Turn the display's backlight on or off. Any intensity above zero is on.
func (lcd *HD44780) Backlight(intensity display.Intensity) error {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	if lcd.t == nil {
		return ErrNotInitialized
	}
	return wrap(lcd.setBacklight(intensity > 0))
}

func (lcd *HD44780) setBacklight(on bool) error {
	lcd.backlight = on
	if on {
		return lcd.t.BacklightOn()
	}
	return lcd.t.BacklightOff()
}

func (lcd *HD44780) clear() error {
	lcd.row, lcd.col = 0, 0
	lcd.impliedNewline = false
	return lcd.t.WriteCommand(CmdClear)
}

func (lcd *HD44780) entryMode() error {
	cmd := CmdEntryMode | EntryIncrement
	if lcd.scroll {
		cmd |= EntryShift
	}
	return lcd.t.WriteCommand(cmd)
}

func (lcd *HD44780) displayControl() error {
	cmd := CmdDisplayControl
	if lcd.on {
		cmd |= DisplayOn
	}
	if lcd.cursor {
		cmd |= DisplayCursor
	}
	if lcd.blink {
		cmd |= DisplayBlink
	}
	return lcd.t.WriteCommand(cmd)
}

// moveTo sets the DDRAM address for the 0 based row and col.
func (lcd *HD44780) moveTo(row, col int) error {
	lcd.row, lcd.col = row, col
	return lcd.t.WriteCommand(CmdSetDDRAM | DDRAMAddress(row, col, lcd.cols))
}

// putByte writes one character and keeps the tracked cursor in step with
// the controller's address counter.
func (lcd *HD44780) putByte(b byte) error {
	if b == '\n' {
		if lcd.impliedNewline {
			// The previous character already wrapped.
			lcd.impliedNewline = false
			return nil
		}
		lcd.col = lcd.cols
	} else {
		if err := lcd.t.WriteData(b); err != nil {
			return err
		}
		lcd.col++
		lcd.impliedNewline = false
	}
	if lcd.col < lcd.cols {
		return nil
	}
	lcd.impliedNewline = b != '\n'
	row := lcd.row + 1
	if row >= lcd.rows {
		row = 0
	}
	// Rows aren't contiguous in DDRAM, so the address has to be set.
	return lcd.moveTo(row, 0)
}

var _ display.TextDisplay = &HD44780{}
var _ display.DisplayBacklight = &HD44780{}
var _ conn.Resource = &HD44780{}
var _ Initializer = &HD44780{}
