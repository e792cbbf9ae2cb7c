// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// lcdctl writes text to an HD44780 display on an MCP23008 backpack.
//
// Each argument is written on its own row:
//
//	lcdctl -addr 0x20 -rows 2 -cols 16 "Hello" "world"
//
// With -emulate no hardware is touched; the emulated display is drawn on the
// console and optionally saved as a PNG.
package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/GermanBionicSystems/lcdbackpack/hd44780"
	"github.com/GermanBionicSystems/lcdbackpack/hd44780/hd44780test"
	"github.com/GermanBionicSystems/lcdbackpack/mcp23xxx"
	"github.com/GermanBionicSystems/lcdbackpack/textimage"
	"github.com/GermanBionicSystems/lcdbackpack/textscreen"
	"github.com/antongulenko/golib"
	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

var (
	busName    = ""
	addr       = uint(mcp23xxx.DefaultAddress)
	rows       = 2
	cols       = 16
	emulate    bool
	backlight  = true
	cursor     = "off"
	console    = true
	pngPath    = ""
	clearFirst bool

	cursorModes = map[string]display.CursorMode{
		"off":       display.CursorOff,
		"underline": display.CursorUnderline,
		"block":     display.CursorBlock,
		"blink":     display.CursorBlink,
	}
)

func main() {
	flag.StringVar(&busName, "bus", busName, "I²C bus name, empty for the first one")
	flag.UintVar(&addr, "addr", addr, "I²C address of the backpack (0x20..0x27)")
	flag.IntVar(&rows, "rows", rows, "Number of display rows")
	flag.IntVar(&cols, "cols", cols, "Number of display columns")
	flag.BoolVar(&emulate, "emulate", emulate, "Use an emulated backpack instead of the I²C bus")
	flag.BoolVar(&backlight, "backlight", backlight, "Turn the backlight on")
	flag.StringVar(&cursor, "cursor", cursor, "Cursor mode: off, underline, block or blink")
	flag.BoolVar(&console, "console", console, "Draw the emulated display on the console (-emulate)")
	flag.StringVar(&pngPath, "png", pngPath, "Save the emulated display to this PNG file (-emulate)")
	flag.BoolVar(&clearFirst, "clear", clearFirst, "Clear the display before writing")
	golib.RegisterLogFlags()
	flag.Parse()
	golib.ConfigureLogging()
	golib.Checkerr(doMain())
}

func doMain() error {
	mode, ok := cursorModes[cursor]
	if !ok {
		return fmt.Errorf("unknown cursor mode %q", cursor)
	}
	if addr > uint(mcp23xxx.MaxAddress) {
		return fmt.Errorf("address 0x%x out of range", addr)
	}

	var bus i2c.Bus
	var emulated *hd44780test.Backpack
	if emulate {
		emulated = hd44780test.New(uint16(addr), rows, cols)
		emulated.Log = log.StandardLogger()
		bus = emulated
	} else {
		if _, err := host.Init(); err != nil {
			return err
		}
		b, err := i2creg.Open(busName)
		if err != nil {
			return err
		}
		defer b.Close()
		bus = b
	}
	log.Printf("Initializing %dx%d display at 0x%02x on %v", rows, cols, addr, bus)

	lcd, err := hd44780.NewMCP23008Backpack(bus, uint16(addr), rows, cols)
	if err != nil {
		return err
	}
	if err := writeDisplay(lcd, mode, flag.Args()); err != nil {
		return err
	}
	if emulated == nil {
		return nil
	}
	return render(emulated)
}

func writeDisplay(lcd *hd44780.HD44780, mode display.CursorMode, lines []string) error {
	if clearFirst {
		if err := lcd.Clear(); err != nil {
			return err
		}
	}
	var intensity display.Intensity
	if backlight {
		intensity = 0xff
	}
	if err := lcd.Backlight(intensity); err != nil {
		return err
	}
	if len(lines) > lcd.Rows() {
		log.Warnf("Only the first %d of %d lines fit the display", lcd.Rows(), len(lines))
		lines = lines[:lcd.Rows()]
	}
	for ix, line := range lines {
		if err := lcd.MoveTo(ix+1, 1); err != nil {
			return err
		}
		folded := hd44780.Fold(line)
		if len(folded) > lcd.Cols() {
			folded = folded[:lcd.Cols()]
		}
		log.Debugf("Row %d: %q", ix+1, folded)
		if _, err := lcd.WriteString(folded); err != nil {
			return err
		}
	}
	return lcd.Cursor(mode)
}

func render(emulated *hd44780test.Backpack) error {
	if console {
		screen := textscreen.New(nil)
		if err := screen.Render(emulated); err != nil {
			return err
		}
		golib.Printerr(screen.Halt())
	}
	if pngPath != "" {
		if err := textimage.SavePNG(pngPath, emulated, nil); err != nil {
			return err
		}
		log.Println("Saved display to", pngPath)
	}
	log.Debugln("Instructions:", strings.Join(instructionNames(emulated), ", "))
	return nil
}

func instructionNames(emulated *hd44780test.Backpack) []string {
	var names []string
	for _, i := range emulated.Instructions() {
		names = append(names, i.String())
	}
	return names
}
