// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mcp23xxx

import (
	"errors"
	"strings"
	"testing"

	"periph.io/x/conn/v3/i2c/i2ctest"
)

const addr uint16 = 0x20

func TestNewI2CAddress(t *testing.T) {
	for a := DefaultAddress; a <= MaxAddress; a++ {
		if _, err := NewI2C(&i2ctest.Playback{}, MCP23008, a); err != nil {
			t.Errorf("NewI2C(0x%02x) unexpected error %v", a, err)
		}
	}
	for _, a := range []uint16{0x00, 0x1f, 0x28, 0x3f, 0x70} {
		_, err := NewI2C(&i2ctest.Playback{}, MCP23008, a)
		if !errors.Is(err, ErrInvalidAddress) {
			t.Errorf("NewI2C(0x%02x) expected ErrInvalidAddress, got %v", a, err)
		}
	}
	_, err := NewI2C(&i2ctest.Playback{}, Variant("MCP23017"), addr)
	if !errors.Is(err, ErrUnsupportedVariant) {
		t.Errorf("expected ErrUnsupportedVariant, got %v", err)
	}
}

func TestReset(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: addr, W: []byte{0x00, 0xff, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}},
		},
		DontPanic: true,
	}
	dev, err := NewI2C(bus, MCP23008, addr)
	if err != nil {
		t.Fatal(err)
	}
	if err = dev.Reset(); err != nil {
		t.Fatal(err)
	}
	if err = bus.Close(); err != nil {
		t.Error(err)
	}
}

func TestDirectionCache(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: addr, W: []byte{byte(IODIR), 0x01}},
			// The second SetDirection(0x01) is skipped. Reset invalidates
			// the cache, so the one after it is not.
			{Addr: addr, W: []byte{0x00, 0xff, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}},
			{Addr: addr, W: []byte{byte(IODIR), 0x01}},
			{Addr: addr, W: []byte{byte(GPPU), 0x01}},
		},
		DontPanic: true,
	}
	dev, err := NewI2C(bus, MCP23008, addr)
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range []func() error{
		func() error { return dev.SetDirection(0x01) },
		func() error { return dev.SetDirection(0x01) },
		dev.Reset,
		func() error { return dev.SetDirection(0x01) },
		func() error { return dev.SetPullUps(0x01) },
		func() error { return dev.SetPullUps(0x01) },
	} {
		if err := f(); err != nil {
			t.Fatal(err)
		}
	}
	if err = bus.Close(); err != nil {
		t.Error(err)
	}
}

func TestGPIOIsNeverCached(t *testing.T) {
	bus := &i2ctest.Record{}
	dev, err := NewI2C(bus, MCP23008, addr)
	if err != nil {
		t.Fatal(err)
	}
	for range 3 {
		if err := dev.WriteGPIO(0x80); err != nil {
			t.Fatal(err)
		}
	}
	if len(bus.Ops) != 3 {
		t.Fatalf("expected 3 writes, got %d", len(bus.Ops))
	}
	for _, op := range bus.Ops {
		if op.Addr != addr || len(op.W) != 2 || op.W[0] != byte(GPIO) || op.W[1] != 0x80 {
			t.Errorf("unexpected op %#v", op)
		}
	}
}

func TestReadRegister(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: addr, W: []byte{byte(GPIO)}, R: []byte{0x5a}},
			{Addr: addr, W: []byte{byte(IODIR)}, R: []byte{0xff}},
		},
		DontPanic: true,
	}
	dev, _ := NewI2C(bus, MCP23008, addr)
	v, err := dev.ReadGPIO()
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x5a {
		t.Errorf("ReadGPIO() expected 0x5a got 0x%02x", v)
	}
	v, err = dev.ReadRegister(IODIR)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0xff {
		t.Errorf("ReadRegister(IODIR) expected 0xff got 0x%02x", v)
	}
}

func TestBusErrorIsWrapped(t *testing.T) {
	bus := &i2ctest.Playback{DontPanic: true}
	dev, _ := NewI2C(bus, MCP23008, addr)
	err := dev.WriteGPIO(0)
	if err == nil {
		t.Fatal("expected an error from an empty playback")
	}
	if !strings.HasPrefix(err.Error(), packageName+": ") {
		t.Errorf("error not wrapped: %v", err)
	}
	if _, err = dev.Write([]byte{0x00, 0xff}); err == nil {
		t.Error("expected an error from Write")
	}
}

func TestRegisterString(t *testing.T) {
	if s := IODIR.String(); s != "IODIR" {
		t.Errorf("IODIR.String() = %q", s)
	}
	if s := OLAT.String(); s != "OLAT" {
		t.Errorf("OLAT.String() = %q", s)
	}
	if s := Register(0x0b).String(); s != "Register(0x0b)" {
		t.Errorf("Register(0x0b).String() = %q", s)
	}
	dev, _ := NewI2C(&i2ctest.Playback{}, MCP23008, 0x27)
	if s := dev.String(); s != "MCP23008_27" {
		t.Errorf("dev.String() = %q", s)
	}
}
