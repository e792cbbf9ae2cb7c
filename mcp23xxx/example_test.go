// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mcp23xxx_test

import (
	"fmt"
	"log"

	"github.com/GermanBionicSystems/lcdbackpack/mcp23xxx"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

func Example() {
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

	dev, err := mcp23xxx.NewI2C(bus, mcp23xxx.MCP23008, mcp23xxx.DefaultAddress)
	if err != nil {
		log.Fatal(err)
	}
	if err = dev.Reset(); err != nil {
		log.Fatal(err)
	}
	// GP0 is an input, the rest drive outputs.
	if err = dev.SetDirection(0x01); err != nil {
		log.Fatal(err)
	}
	if err = dev.WriteGPIO(0x80); err != nil {
		log.Fatal(err)
	}
	v, err := dev.ReadGPIO()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s GPIO=0x%02x\n", dev, v)
}
