// Copyright 2020 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mcp23xxx provides register level access to the 8 bit I²C members of
// the MCP23XXX family of GPIO expanders. The MCP23008 is the expander found on
// the Adafruit I²C/SPI character LCD backpack; the MCP23009 is its open-drain
// sibling and shares the register map.
//
// The package exposes the register map and the two kinds of bus transaction
// the expander understands: a raw write, where the first byte sets the
// register pointer and any following bytes are written to consecutive
// registers, and a single register write.
//
// # Datasheet
//
// https://ww1.microchip.com/downloads/en/DeviceDoc/20001919F.pdf
package mcp23xxx
