// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"fmt"
	"sync"
	"time"

	"github.com/GermanBionicSystems/lcdbackpack/mcp23xxx"
	"periph.io/x/conn/v3/i2c"
)

const (
	// Name is the LCD pin name, and the integer value is the GPIO
	// number (not physical) of the MCP23008 I2C GPIO Expander.
	d4           = 3
	d5           = 4
	d6           = 5
	d7           = 6
	rsPin        = 1
	enablePin    = 2
	backlightPin = 7
	// GP0 isn't wired to the display. It stays an input.
	sparePin = 0
)

// Layout of the byte written to the expander GPIO register.
const (
	maskRS         byte = 1 << rsPin
	maskE          byte = 1 << enablePin
	shiftData           = d4
	maskData       byte = 0x0f << shiftData
	shiftBacklight      = backlightPin
	maskBacklight  byte = 1 << shiftBacklight
	inputPins      byte = 1 << sparePin
)

// Minimum waits from the HD44780 datasheet, figure 24.
const (
	delayPowerUp    = 20 * time.Millisecond
	delayFirstReset = 5 * time.Millisecond // busy for up to 4.1ms
	delayReset      = time.Millisecond
	delayClearHome  = 5 * time.Millisecond // clear and home take up to 4.1ms

	// Instructions up to this value are clear (0x01) or home (0x02, 0x03).
	lastSlowCommand byte = 0x03
)

// MCP23008Backpack is a Transport for an HD44780 wired to an MCP23008 the
// way the Adafruit I²C/SPI backpack does it: D4..D7 on GP3..GP6, RS on GP1,
// E on GP2 and the backlight on GP7. R/W is tied low, so the busy flag can't
// be read and the transport relies on fixed delays and bus latency.
//
// Every nibble is two GPIO writes, E high then E low; the controller latches
// on the falling edge. Each WriteCommand/WriteData call holds the backpack
// lock for all four writes.
type MCP23008Backpack struct {
	mu        sync.Mutex
	dev       *mcp23xxx.Dev
	backlight bool
	sleep     func(time.Duration)
}

// NewMCP23008Backpack returns a display configured to use the Adafruit
// I2C/SPI LCD Backpack.
//
// # Product Information
//
// https://www.adafruit.com/product/292
//
// The I2C side of this backpack uses an MCP23008 I/O expander. address is
// 0x20 to 0x27 depending on the A0..A2 jumpers. The controller is reset and
// initialized before the function returns; any bus error aborts creation.
func NewMCP23008Backpack(bus i2c.Bus, address uint16, rows, cols int) (*HD44780, error) {
	lcd := &HD44780{}
	if _, err := NewBackpackTransport(bus, address, lcd, rows, cols); err != nil {
		return nil, err
	}
	return lcd, nil
}

// NewBackpackTransport resets the expander and the controller, hands the
// transport to base (which may be nil), and finally selects 4-bit mode with
// the line count for rows.
func NewBackpackTransport(bus i2c.Bus, address uint16, base Initializer, rows, cols int) (*MCP23008Backpack, error) {
	return newBackpackTransport(bus, address, base, rows, cols, time.Sleep)
}

func newBackpackTransport(bus i2c.Bus, address uint16, base Initializer, rows, cols int, sleep func(time.Duration)) (*MCP23008Backpack, error) {
	if err := checkGeometry(rows, cols); err != nil {
		return nil, err
	}
	dev, err := mcp23xxx.NewI2C(bus, mcp23xxx.MCP23008, address)
	if err != nil {
		return nil, wrap(err)
	}
	bp := &MCP23008Backpack{dev: dev, sleep: sleep}
	if err = bp.init(base, rows, cols); err != nil {
		return nil, wrap(err)
	}
	return bp, nil
}

// init runs the power-on handshake. Until the function nibble has been sent
// the controller may be in 8-bit mode, so only single nibbles are written.
func (bp *MCP23008Backpack) init(base Initializer, rows, cols int) error {
	if err := bp.reset(); err != nil {
		return err
	}
	if base != nil {
		if err := base.Init(bp, rows, cols); err != nil {
			return err
		}
	}
	cmd := CmdFunction
	if rows > 1 {
		cmd |= Function2Lines
	}
	return bp.WriteCommand(cmd)
}

func (bp *MCP23008Backpack) reset() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	// Seed the power-on register state; it matters after a warm restart.
	if err := bp.dev.Reset(); err != nil {
		return err
	}
	if err := bp.dev.WriteRegister(mcp23xxx.IODIR, inputPins); err != nil {
		return err
	}
	bp.sleep(delayPowerUp)

	steps := []struct {
		nibble byte
		wait   time.Duration
	}{
		{CmdFunctionReset, delayFirstReset},
		{CmdFunctionReset, delayReset},
		{CmdFunctionReset, delayReset},
		{CmdFunction, delayReset},
	}
	for _, step := range steps {
		if err := bp.writeInitNibble(step.nibble); err != nil {
			return err
		}
		bp.sleep(step.wait)
	}
	return nil
}

// writeInitNibble clocks the high nibble of cmd with RS and the backlight
// low.
func (bp *MCP23008Backpack) writeInitNibble(cmd byte) error {
	return bp.strobe(((cmd >> 4) & 0x0f) << shiftData)
}

// strobe presents b with E high, then again with E low.
func (bp *MCP23008Backpack) strobe(b byte) error {
	if err := bp.dev.WriteGPIO(b | maskE); err != nil {
		return err
	}
	return bp.dev.WriteGPIO(b &^ maskE)
}

// compose builds the GPIO byte for one nibble from the current backlight
// state.
func (bp *MCP23008Backpack) compose(nibble byte, rs bool) byte {
	b := (nibble & 0x0f) << shiftData
	if bp.backlight {
		b |= maskBacklight
	}
	if rs {
		b |= maskRS
	}
	return b
}

func (bp *MCP23008Backpack) write(value byte, rs bool) error {
	if err := bp.strobe(bp.compose(value>>4, rs)); err != nil {
		return err
	}
	return bp.strobe(bp.compose(value, rs))
}

// WriteCommand implements Transport.
func (bp *MCP23008Backpack) WriteCommand(cmd byte) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if err := bp.write(cmd, false); err != nil {
		return wrap(err)
	}
	if cmd <= lastSlowCommand {
		bp.sleep(delayClearHome)
	}
	return nil
}

// WriteData implements Transport.
func (bp *MCP23008Backpack) WriteData(data byte) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return wrap(bp.write(data, true))
}

// BacklightOn implements Transport.
func (bp *MCP23008Backpack) BacklightOn() error {
	return bp.setBacklight(true)
}

// BacklightOff implements Transport.
func (bp *MCP23008Backpack) BacklightOff() error {
	return bp.setBacklight(false)
}

// The backlight is a plain output level, so no strobe is needed.
func (bp *MCP23008Backpack) setBacklight(on bool) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	bp.backlight = on
	var b byte
	if on {
		b = maskBacklight
	}
	return wrap(bp.dev.WriteGPIO(b))
}

// Backlight reports the backlight state carried by the next write.
func (bp *MCP23008Backpack) Backlight() bool {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.backlight
}

func (bp *MCP23008Backpack) String() string {
	return fmt.Sprintf("MCP23008Backpack{%s}", bp.dev)
}

var _ Transport = &MCP23008Backpack{}
