// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mcp23xxx

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
)

// Variant is the type denoting a specific chip of the family.
type Variant string

const (
	MCP23008 Variant = "MCP23008" // 8 pins, push-pull outputs.
	MCP23009 Variant = "MCP23009" // 8 pins, open-drain outputs.

	// DefaultAddress is the address with A0..A2 tied low. Backpacks usually
	// expose A0..A2 as solder jumpers, giving DefaultAddress..MaxAddress.
	DefaultAddress uint16 = 0x20
	MaxAddress     uint16 = 0x27

	packageName = "mcp23xxx"
)

var (
	ErrInvalidAddress     = errors.New("mcp23xxx: address not supported by device")
	ErrUnsupportedVariant = errors.New("mcp23xxx: unsupported variant")
)

type variant struct {
	addStart uint16
	addEnd   uint16
	pins     int
}

var variants = map[Variant]variant{
	MCP23008: {addStart: DefaultAddress, addEnd: MaxAddress, pins: 8},
	MCP23009: {addStart: DefaultAddress, addEnd: MaxAddress, pins: 8},
}

func (v variant) isAddrInvalid(addr uint16) bool {
	return addr < v.addStart || v.addEnd < addr
}

// Dev is an MCP23008 class I/O expander on an I²C bus.
//
// Dev serializes its own transactions but does not lock across calls. A
// driver that needs several writes to land back to back, like an LCD strobe,
// must hold its own lock around them.
type Dev struct {
	variant Variant

	mu    sync.Mutex
	d     *i2c.Dev
	iodir registerCache
	gppu  registerCache
}

func wrap(err error) error {
	if err == nil || strings.HasPrefix(err.Error(), packageName) {
		return err
	}
	return fmt.Errorf("%s: %w", packageName, err)
}

// NewI2C returns an expander at address on bus. No bus traffic is generated.
func NewI2C(bus i2c.Bus, variant Variant, address uint16) (*Dev, error) {
	v, found := variants[variant]
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVariant, string(variant))
	}
	if v.isAddrInvalid(address) {
		return nil, fmt.Errorf("%w: %s at 0x%02x", ErrInvalidAddress, variant, address)
	}
	d := &i2c.Dev{Bus: bus, Addr: address}
	return &Dev{
		variant: variant,
		d:       d,
		iodir:   newRegister(d, IODIR),
		gppu:    newRegister(d, GPPU),
	}, nil
}

// Write performs a raw write. p[0] sets the register pointer and each
// following byte goes to the next register, as long as IOCON.SEQOP is clear.
func (dev *Dev) Write(p []byte) (int, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if err := dev.d.Tx(p, nil); err != nil {
		return 0, wrap(err)
	}
	// The write may have covered cached registers.
	dev.iodir.invalidate()
	dev.gppu.invalidate()
	return len(p), nil
}

// Reset writes the power-on register values (all pins input, everything else
// cleared) in one sequential transaction starting at IODIR.
//
// The expander is only reset by a power cycle, so a host that restarts
// without one finds whatever the previous owner left behind. Reset restores
// a known state in that case and is harmless after a cold start.
func (dev *Dev) Reset() error {
	// OLAT is left out; it's already don't-care with every pin an input.
	w := make([]byte, 0, RegisterCount)
	w = append(w, byte(IODIR))
	w = append(w, PowerOnState[IODIR:OLAT]...)
	_, err := dev.Write(w)
	return err
}

// WriteRegister writes value to reg. The write is never skipped.
func (dev *Dev) WriteRegister(reg Register, value byte) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	switch reg {
	case IODIR:
		return wrap(dev.iodir.writeValue(value, false))
	case GPPU:
		return wrap(dev.gppu.writeValue(value, false))
	}
	return wrap(dev.d.Tx([]byte{byte(reg), value}, nil))
}

// ReadRegister reads the current value of reg from the device.
func (dev *Dev) ReadRegister(reg Register) (byte, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	switch reg {
	case IODIR:
		v, err := dev.iodir.readValue(false)
		return v, wrap(err)
	case GPPU:
		v, err := dev.gppu.readValue(false)
		return v, wrap(err)
	}
	r := make([]byte, 1)
	err := dev.d.Tx([]byte{byte(reg)}, r)
	return r[0], wrap(err)
}

// SetDirection configures the pins set in inputs as inputs and every other
// pin as an output. The write is skipped if IODIR already holds that value.
func (dev *Dev) SetDirection(inputs byte) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return wrap(dev.iodir.writeValue(inputs, true))
}

// SetPullUps enables the 100kΩ pull-up on the pins set in mask.
func (dev *Dev) SetPullUps(mask byte) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return wrap(dev.gppu.writeValue(mask, true))
}

// WriteGPIO sets the output latch of every output pin. The value is always
// sent to the device.
func (dev *Dev) WriteGPIO(value byte) error {
	return dev.WriteRegister(GPIO, value)
}

// ReadGPIO returns the level of all eight pins.
func (dev *Dev) ReadGPIO() (byte, error) {
	return dev.ReadRegister(GPIO)
}

// Addr returns the bus address of the device.
func (dev *Dev) Addr() uint16 {
	return dev.d.Addr
}

// Halt implements conn.Resource. The expander has no running operation to
// stop, so it does nothing.
func (dev *Dev) Halt() error {
	return nil
}

func (dev *Dev) String() string {
	return fmt.Sprintf("%s_%x", dev.variant, dev.d.Addr)
}

var _ conn.Resource = &Dev{}
