// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package textscreen renders a character display to a terminal using ANSI
// escape codes.
//
// Useful with the emulated backpack in hd44780test, while the real display
// is still on its way.
package textscreen

import (
	"bytes"
	"fmt"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// Screen is what a character display shows.
type Screen interface {
	// Lines returns one string per row, as shown on the glass.
	Lines() []string
	// Backlight reports whether the backlight is lit.
	Backlight() bool
}

// Opts represents the options available for this display.
type Opts struct {
	// Bezel is the colour of the frame drawn left and right of the text. The
	// zero value selects DefaultOpts.Bezel.
	Bezel color.NRGBA
	// Palette used to draw the bezel. Defaults to ansi256.Default.
	Palette *ansi256.Palette
	// NoColor strips every escape sequence from the output.
	NoColor bool
	// Redraw moves the terminal cursor back up after each render, so the next
	// one overwrites it.
	Redraw bool

	_ struct{}
}

// DefaultOpts draws a dark green bezel.
var DefaultOpts = Opts{Bezel: color.NRGBA{R: 0x10, G: 0x40, B: 0x10, A: 0xff}}

const (
	sgrReset = "\033[0m"
	sgrLit   = "\033[1;97;44m" // bright white on blue
	sgrUnlit = "\033[2;37;40m" // dim grey on black
)

// Dev draws a Screen at the console.
type Dev struct {
	w       io.Writer
	opts    Opts
	palette ansi256.Palette

	rendered int
	buf      bytes.Buffer
}

// New returns a Dev that draws on stdout. opts may be nil.
func New(opts *Opts) *Dev {
	return NewWriter(colorable.NewColorableStdout(), opts)
}

// NewWriter returns a Dev that draws on w. opts may be nil.
func NewWriter(w io.Writer, opts *Opts) *Dev {
	if opts == nil {
		opts = &DefaultOpts
	}
	o := *opts
	if o.Bezel == (color.NRGBA{}) {
		o.Bezel = DefaultOpts.Bezel
	}
	p := o.Palette
	if p == nil {
		p = ansi256.Default
	}
	if o.NoColor {
		w = colorable.NewNonColorable(w)
	}
	return &Dev{w: w, opts: o, palette: *p}
}

func (d *Dev) String() string {
	return "TextScreen"
}

// Halt resets the terminal attributes.
func (d *Dev) Halt() error {
	_, err := io.WriteString(d.w, sgrReset+"\n")
	return err
}

// Render draws every line of s, framed by the bezel. The text is bright when
// the backlight is lit and dim otherwise.
func (d *Dev) Render(s Screen) error {
	lines := s.Lines()
	sgr := sgrUnlit
	if s.Backlight() {
		sgr = sgrLit
	}
	bezel := d.palette.Block(d.opts.Bezel)

	d.buf.Reset()
	if d.opts.Redraw && d.rendered > 0 {
		fmt.Fprintf(&d.buf, "\033[%dA", d.rendered)
	}
	for _, line := range lines {
		_, _ = d.buf.WriteString("\r" + sgrReset)
		_, _ = d.buf.WriteString(bezel)
		_, _ = d.buf.WriteString(sgr)
		_, _ = d.buf.WriteString(line)
		_, _ = d.buf.WriteString(sgrReset)
		_, _ = d.buf.WriteString(bezel)
		_, _ = d.buf.WriteString(sgrReset + "\n")
	}
	d.rendered = len(lines)
	_, err := d.buf.WriteTo(d.w)
	return err
}
