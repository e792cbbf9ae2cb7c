// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780_test

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/GermanBionicSystems/lcdbackpack/hd44780"
	"github.com/GermanBionicSystems/lcdbackpack/hd44780/hd44780test"
	"github.com/GermanBionicSystems/lcdbackpack/mcp23xxx"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/display/displaytest"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// Create a new HD44780 that uses the Adafruit I2C/SPI Backpack.
func ExampleNewMCP23008Backpack() {
	// Make sure periph is initialized.
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}

	// Open default I²C bus.
	bus, err := i2creg.Open("")
	if err != nil {
		log.Fatalf("failed to open I²C: %v", err)
	}
	defer bus.Close()
	lcd, err := hd44780.NewMCP23008Backpack(bus, mcp23xxx.DefaultAddress, 4, 20)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(lcd.String())
	_, _ = lcd.WriteString("Hello")
	_ = lcd.MoveTo(2, 2)
	_, _ = lcd.WriteString("Line 2")
	time.Sleep(5 * time.Second)

	fmt.Println("calling TestTextDisplay")
	errs := displaytest.TestTextDisplay(lcd, true)
	for _, e := range errs {
		if !errors.Is(e, display.ErrNotImplemented) {
			log.Println(e)
		}
	}
	_ = lcd.Halt()
}

// A display can be driven without hardware through the emulated backpack.
func ExampleNewMCP23008Backpack_emulated() {
	bus := hd44780test.New(mcp23xxx.DefaultAddress, 2, 16)
	lcd, err := hd44780.NewMCP23008Backpack(bus, mcp23xxx.DefaultAddress, 2, 16)
	if err != nil {
		log.Fatal(err)
	}
	_, _ = lcd.WriteString("Hello\nworld")
	for _, line := range bus.Lines() {
		fmt.Printf("|%s|\n", line)
	}
	// Output:
	// |Hello           |
	// |world           |
}

// The transport can be used on its own, or with another Initializer.
func ExampleNewBackpackTransport() {
	bus := hd44780test.New(mcp23xxx.DefaultAddress, 2, 16)
	bp, err := hd44780.NewBackpackTransport(bus, mcp23xxx.DefaultAddress, nil, 2, 16)
	if err != nil {
		log.Fatal(err)
	}
	_ = bp.WriteCommand(hd44780.CmdDisplayControl | hd44780.DisplayOn)
	_ = bp.BacklightOn()
	for _, c := range []byte("raw") {
		_ = bp.WriteData(c)
	}
	fmt.Println(strings.TrimSpace(bus.Lines()[0]))
	fmt.Println(bp.Backlight())
	// Output:
	// raw
	// true
}

func ExampleFold() {
	fmt.Println(hd44780.Fold("Café ①"))
	// Output:
	// Cafe 1
}
