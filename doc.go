// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcdbackpack is a container for the HD44780 character display
// driver and the MCP23008 I²C backpack it is wired through.
//
// See hd44780.NewMCP23008Backpack to drive a display, hd44780test for an
// emulated backpack, and cmd/lcdctl for a command line tool.
package lcdbackpack
