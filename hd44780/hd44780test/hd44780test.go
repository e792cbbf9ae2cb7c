// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hd44780test is meant to be used to test drivers for HD44780
// displays behind an MCP23008 backpack without the hardware.
//
// Backpack is an i2c.Bus with a single MCP23008 on it, wired to an emulated
// HD44780 the way the Adafruit I²C/SPI backpack is. It decodes every falling
// edge of E into a controller instruction and keeps the display RAM, so a
// test can check what the glass would show.
package hd44780test

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/GermanBionicSystems/lcdbackpack/hd44780"
	"github.com/GermanBionicSystems/lcdbackpack/mcp23xxx"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// Expander pins of the Adafruit backpack.
const (
	pinRS        byte = 1 << 1
	pinE         byte = 1 << 2
	shiftData         = 3
	pinBacklight byte = 1 << 7
)

const (
	ddramSize = 0x80
	cgramSize = 0x40
	lineLen   = 40 // DDRAM per line in 2-line mode.
	line1     = 0x40
)

// ErrInjected is returned by Tx once FailAfter transactions went through.
var ErrInjected = errors.New("hd44780test: injected bus failure")

// Instruction is one byte latched by the controller.
type Instruction struct {
	RS    bool // Data (true) or instruction (false).
	Value byte
}

func (i Instruction) String() string {
	if i.RS {
		return fmt.Sprintf("data 0x%02x", i.Value)
	}
	v := i.Value
	switch {
	case v&hd44780.CmdSetDDRAM != 0:
		return fmt.Sprintf("set DDRAM 0x%02x", v&0x7f)
	case v&hd44780.CmdSetCGRAM != 0:
		return fmt.Sprintf("set CGRAM 0x%02x", v&0x3f)
	case v&hd44780.CmdFunction != 0:
		return fmt.Sprintf("function set 0x%02x", v)
	case v&hd44780.CmdShift != 0:
		return fmt.Sprintf("shift 0x%02x", v)
	case v&hd44780.CmdDisplayControl != 0:
		return fmt.Sprintf("display control 0x%02x", v)
	case v&hd44780.CmdEntryMode != 0:
		return fmt.Sprintf("entry mode 0x%02x", v)
	case v&hd44780.CmdHome != 0:
		return "home"
	case v&hd44780.CmdClear != 0:
		return "clear"
	}
	return "nop"
}

// Backpack is an emulated MCP23008 backpack and HD44780 display.
//
// The zero value answers at mcp23xxx.DefaultAddress and shows a 2x16
// display. Backpack is safe for concurrent use.
type Backpack struct {
	// Addr is the address the expander answers on. Zero means
	// mcp23xxx.DefaultAddress.
	Addr uint16
	// Rows and Cols of the glass. Zero means 2 and 16.
	Rows, Cols int
	// FailAfter, when positive, makes every transaction after the first
	// FailAfter ones fail with ErrInjected.
	FailAfter int
	// Log receives every decoded instruction at debug level. Nil means the
	// logrus standard logger.
	Log logrus.FieldLogger

	mu      sync.Mutex
	powered bool
	txCount int

	// Expander.
	regs    [mcp23xxx.RegisterCount]byte
	pointer mcp23xxx.Register
	lastE   bool

	// Controller.
	fourBit      bool
	haveHigh     bool
	high         byte
	twoLines     bool
	ddram        [ddramSize]byte
	cgram        [cgramSize]byte
	addr         byte
	inCGRAM      bool
	increment    bool
	shiftOnEntry bool
	displayOn    bool
	cursorOn     bool
	blinkOn      bool
	shift        int
	instructions []Instruction
}

// New returns an emulated backpack for a rows x cols display at address.
func New(address uint16, rows, cols int) *Backpack {
	return &Backpack{Addr: address, Rows: rows, Cols: cols}
}

// String implements i2c.Bus.
func (b *Backpack) String() string {
	return fmt.Sprintf("hd44780test.Backpack(0x%02x)", b.address())
}

// SetSpeed implements i2c.Bus.
func (b *Backpack) SetSpeed(f physic.Frequency) error {
	return nil
}

// Tx implements i2c.Bus. The first written byte sets the register pointer;
// following written bytes, then read bytes, use consecutive registers unless
// IOCON.SEQOP is set.
func (b *Backpack) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.powerOn()
	b.txCount++
	if b.FailAfter > 0 && b.txCount > b.FailAfter {
		return ErrInjected
	}
	if addr != b.address() {
		return fmt.Errorf("hd44780test: no device at 0x%02x", addr)
	}
	if len(w) > 0 {
		if int(w[0]) >= mcp23xxx.RegisterCount {
			return fmt.Errorf("hd44780test: invalid register 0x%02x", w[0])
		}
		b.pointer = mcp23xxx.Register(w[0])
		for _, v := range w[1:] {
			b.writeRegister(b.pointer, v)
			b.advance()
		}
	}
	for ix := range r {
		r[ix] = b.readRegister(b.pointer)
		b.advance()
	}
	return nil
}

// Lines returns what the display shows, one string per row. A display that
// is turned off shows blank rows. Custom characters show as '#'.
func (b *Backpack) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.powerOn()
	rows, cols := b.geometry()
	lines := make([]string, rows)
	for row := range rows {
		var sb strings.Builder
		for col := range cols {
			if !b.displayOn {
				sb.WriteByte(' ')
				continue
			}
			sb.WriteRune(romRune(b.ddram[b.cellAddress(row, col)]))
		}
		lines[row] = sb.String()
	}
	return lines
}

// Cell returns the raw DDRAM byte shown at the 0 based row and col.
func (b *Backpack) Cell(row, col int) byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.powerOn()
	return b.ddram[b.cellAddress(row, col)]
}

// Glyph returns the 5x8 bitmap of custom character n (0-7).
func (b *Backpack) Glyph(n int) [8]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	var g [8]byte
	copy(g[:], b.cgram[(n&7)*8:])
	return g
}

// Backlight reports whether the backlight pin is driven high.
func (b *Backpack) Backlight() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.powerOn()
	return b.pins()&pinBacklight != 0
}

// DisplayOn reports the display on/off flag.
func (b *Backpack) DisplayOn() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.displayOn
}

// Cursor reports the cursor and blink flags.
func (b *Backpack) Cursor() (underline, blink bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cursorOn, b.blinkOn
}

// FourBit reports whether the controller is in 4-bit interface mode.
func (b *Backpack) FourBit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fourBit
}

// TwoLines reports the line mode selected by the last function set.
func (b *Backpack) TwoLines() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.twoLines
}

// Register returns the current value of an expander register.
func (b *Backpack) Register(reg mcp23xxx.Register) byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.powerOn()
	return b.regs[reg]
}

// Instructions returns every byte latched by the controller so far.
func (b *Backpack) Instructions() []Instruction {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Instruction(nil), b.instructions...)
}

func (b *Backpack) address() uint16 {
	if b.Addr == 0 {
		return mcp23xxx.DefaultAddress
	}
	return b.Addr
}

func (b *Backpack) geometry() (rows, cols int) {
	rows, cols = b.Rows, b.Cols
	if rows == 0 {
		rows = 2
	}
	if cols == 0 {
		cols = 16
	}
	return rows, cols
}

func (b *Backpack) logger() logrus.FieldLogger {
	if b.Log == nil {
		return logrus.StandardLogger()
	}
	return b.Log
}

// powerOn puts the expander and the controller in their reset state the
// first time the backpack is used. The controller wakes up in 8-bit mode.
func (b *Backpack) powerOn() {
	if b.powered {
		return
	}
	b.powered = true
	b.regs = mcp23xxx.PowerOnState
	for ix := range b.ddram {
		b.ddram[ix] = ' '
	}
	b.increment = true
}

func (b *Backpack) advance() {
	if b.regs[mcp23xxx.IOCON]&mcp23xxx.IOCONSeqop != 0 {
		return
	}
	b.pointer = mcp23xxx.Register((int(b.pointer) + 1) % mcp23xxx.RegisterCount)
}

// pins returns the level of each pin as seen by the display. Inputs float;
// they are read as low.
func (b *Backpack) pins() byte {
	return b.regs[mcp23xxx.OLAT] &^ b.regs[mcp23xxx.IODIR]
}

func (b *Backpack) writeRegister(reg mcp23xxx.Register, v byte) {
	switch reg {
	case mcp23xxx.INTF, mcp23xxx.INTCAP:
		// Read only.
		return
	case mcp23xxx.GPIO:
		reg = mcp23xxx.OLAT
	}
	b.regs[reg] = v
	b.update()
}

func (b *Backpack) readRegister(reg mcp23xxx.Register) byte {
	if reg == mcp23xxx.GPIO {
		// Outputs read back their latch, pulled-up inputs read high.
		iodir := b.regs[mcp23xxx.IODIR]
		return b.pins() | (b.regs[mcp23xxx.GPPU] & iodir)
	}
	return b.regs[reg]
}

// update latches a nibble on a falling edge of E.
func (b *Backpack) update() {
	p := b.pins()
	e := p&pinE != 0
	if b.lastE && !e {
		b.latch((p>>shiftData)&0x0f, p&pinRS != 0)
	}
	b.lastE = e
}

func (b *Backpack) latch(nibble byte, rs bool) {
	if !b.fourBit {
		// D0..D3 aren't wired and read as low.
		b.execute(rs, nibble<<4)
		return
	}
	if !b.haveHigh {
		b.high = nibble
		b.haveHigh = true
		return
	}
	b.haveHigh = false
	b.execute(rs, b.high<<4|nibble)
}

func (b *Backpack) execute(rs bool, v byte) {
	instr := Instruction{RS: rs, Value: v}
	b.instructions = append(b.instructions, instr)
	b.logger().WithFields(logrus.Fields{
		"rs":    rs,
		"value": fmt.Sprintf("0x%02x", v),
	}).Debug(instr.String())

	if rs {
		b.writeData(v)
		return
	}
	switch {
	case v&hd44780.CmdSetDDRAM != 0:
		b.addr = v &^ hd44780.CmdSetDDRAM
		b.inCGRAM = false
	case v&hd44780.CmdSetCGRAM != 0:
		b.addr = v &^ hd44780.CmdSetCGRAM
		b.inCGRAM = true
	case v&hd44780.CmdFunction != 0:
		b.fourBit = v&hd44780.Function8Bit == 0
		b.twoLines = v&hd44780.Function2Lines != 0
		b.haveHigh = false
	case v&hd44780.CmdShift != 0:
		right := v&hd44780.ShiftRight != 0
		if v&hd44780.ShiftDisplay != 0 {
			b.shiftDisplay(right)
		} else {
			b.moveAddress(right)
		}
	case v&hd44780.CmdDisplayControl != 0:
		b.displayOn = v&hd44780.DisplayOn != 0
		b.cursorOn = v&hd44780.DisplayCursor != 0
		b.blinkOn = v&hd44780.DisplayBlink != 0
	case v&hd44780.CmdEntryMode != 0:
		b.increment = v&hd44780.EntryIncrement != 0
		b.shiftOnEntry = v&hd44780.EntryShift != 0
	case v&hd44780.CmdHome != 0:
		b.addr = 0
		b.inCGRAM = false
		b.shift = 0
	case v&hd44780.CmdClear != 0:
		for ix := range b.ddram {
			b.ddram[ix] = ' '
		}
		b.addr = 0
		b.inCGRAM = false
		b.shift = 0
		b.increment = true
	}
}

func (b *Backpack) writeData(v byte) {
	if b.inCGRAM {
		b.cgram[b.addr&(cgramSize-1)] = v & 0x1f
		if b.increment {
			b.addr = (b.addr + 1) & (cgramSize - 1)
		} else {
			b.addr = (b.addr - 1) & (cgramSize - 1)
		}
		return
	}
	b.ddram[b.addr&(ddramSize-1)] = v
	b.moveAddress(b.increment)
	if b.shiftOnEntry {
		// Incrementing entry shifts the display left, so the cursor stays.
		b.shiftDisplay(!b.increment)
	}
}

// moveAddress steps the DDRAM address counter, skipping the gap between the
// two lines in 2-line mode.
func (b *Backpack) moveAddress(forward bool) {
	if b.inCGRAM {
		if forward {
			b.addr = (b.addr + 1) & (cgramSize - 1)
		} else {
			b.addr = (b.addr - 1) & (cgramSize - 1)
		}
		return
	}
	if !b.twoLines {
		const last = 2*lineLen - 1
		switch {
		case forward && b.addr >= last:
			b.addr = 0
		case forward:
			b.addr++
		case b.addr == 0:
			b.addr = last
		default:
			b.addr--
		}
		return
	}
	const end0, end1 = lineLen - 1, line1 + lineLen - 1
	switch {
	case forward && b.addr == end0:
		b.addr = line1
	case forward && b.addr >= end1:
		b.addr = 0
	case forward:
		b.addr++
	case b.addr == 0:
		b.addr = end1
	case b.addr == line1:
		b.addr = end0
	default:
		b.addr--
	}
}

func (b *Backpack) shiftDisplay(right bool) {
	if right {
		b.shift--
	} else {
		b.shift++
	}
}

// cellAddress returns the DDRAM address shown at row, col, taking the
// display shift into account.
func (b *Backpack) cellAddress(row, col int) int {
	_, cols := b.geometry()
	if !b.twoLines {
		n := 2 * lineLen
		return mod(int(hd44780.DDRAMAddress(row, col, cols))+b.shift, n)
	}
	base := 0
	if row&1 != 0 {
		base = line1
	}
	offset := int(hd44780.DDRAMAddress(row, col, cols)) - base
	return base + mod(offset+b.shift, lineLen)
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}

// romRune maps a byte of the A00 character ROM to the closest rune.
func romRune(c byte) rune {
	switch {
	case c < 0x10:
		return '#'
	case c == 0x5c:
		return '¥'
	case c == 0x7e:
		return '→'
	case c == 0x7f:
		return '←'
	case c == 0xdf:
		return '°'
	case c >= 0x20 && c < 0x7e:
		return rune(c)
	}
	return '?'
}

var _ i2c.Bus = &Backpack{}
