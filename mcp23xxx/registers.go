// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mcp23xxx

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
)

// Register is the address of an MCP23008 control register.
type Register uint8

// MCP23008 register addresses with IOCON.BANK cleared (the power-on default).
const (
	IODIR   Register = 0x00 // I/O direction. 1 = input, 0 = output.
	IPOL    Register = 0x01 // Input polarity.
	GPINTEN Register = 0x02 // Interrupt-on-change enable.
	DEFVAL  Register = 0x03 // Default compare value for interrupt-on-change.
	INTCON  Register = 0x04 // Interrupt control.
	IOCON   Register = 0x05 // Configuration.
	GPPU    Register = 0x06 // Pull-up resistor enable.
	INTF    Register = 0x07 // Interrupt flags. Read only.
	INTCAP  Register = 0x08 // Interrupt capture. Read only.
	GPIO    Register = 0x09 // Port. Writes go to OLAT.
	OLAT    Register = 0x0A // Output latch.

	// RegisterCount is the number of registers. The sequential address
	// pointer wraps to IODIR after OLAT.
	RegisterCount = int(OLAT) + 1
)

// IOCON bits.
const (
	IOCONIntPol byte = 1 << 1 // INT pin active high.
	IOCONOdr    byte = 1 << 2 // INT pin open drain.
	IOCONHaen   byte = 1 << 3 // Hardware address enable. MCP23S08 only.
	IOCONDisslw byte = 1 << 4 // Slew rate control disabled.
	IOCONSeqop  byte = 1 << 5 // Sequential operation disabled.
)

// PowerOnState holds the register values the expander takes after a
// power-on reset, indexed by Register. All pins are inputs and every other
// register is cleared.
var PowerOnState = [RegisterCount]byte{IODIR: 0xff}

var registerNames = [RegisterCount]string{
	"IODIR", "IPOL", "GPINTEN", "DEFVAL", "INTCON", "IOCON",
	"GPPU", "INTF", "INTCAP", "GPIO", "OLAT",
}

func (r Register) String() string {
	if int(r) < RegisterCount {
		return registerNames[r]
	}
	return fmt.Sprintf("Register(0x%02x)", uint8(r))
}

// registerCache keeps the last value written to or read from a register so
// configuration registers aren't rewritten needlessly.
type registerCache struct {
	i2c     *i2c.Dev
	address Register
	got     bool
	cache   uint8
}

func newRegister(i2c *i2c.Dev, address Register) registerCache {
	return registerCache{
		i2c:     i2c,
		address: address,
		got:     false,
	}
}

func (r *registerCache) readRegister() (uint8, error) {
	rx := make([]byte, 1)
	err := r.i2c.Tx([]byte{byte(r.address)}, rx)
	return rx[0], err
}

func (r *registerCache) writeRegister(value uint8) error {
	return r.i2c.Tx([]byte{byte(r.address), value}, nil)
}

func (r *registerCache) readValue(cached bool) (uint8, error) {
	if cached && r.got {
		return r.cache, nil
	}
	v, err := r.readRegister()
	if err == nil {
		r.got = true
		r.cache = v
	}
	return v, err
}

func (r *registerCache) writeValue(value uint8, cached bool) error {
	if cached && r.got && value == r.cache {
		return nil
	}

	err := r.writeRegister(value)
	if err != nil {
		r.got = false
		return err
	}
	r.got = true
	r.cache = value
	return nil
}

// invalidate forgets the cached value. Used after a raw write that may have
// touched the register behind the cache's back.
func (r *registerCache) invalidate() {
	r.got = false
}
