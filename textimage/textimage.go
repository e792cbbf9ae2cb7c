// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package textimage renders a character display to an image, for
// screenshots of an emulated display.
package textimage

import (
	"errors"
	"image"
	"image/color"
	"io"
	"sync"
	"unicode/utf8"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
)

// Screen is what a character display shows.
type Screen interface {
	Lines() []string
	Backlight() bool
}

// Opts controls the look of the rendered display.
type Opts struct {
	// Size is the font size in points.
	Size float64
	// Margin in pixels between the image edge and the text. Half of it is
	// bezel.
	Margin int
	Bezel  color.Color
	// Lit and Unlit are the panel colours with the backlight on and off.
	Lit   color.Color
	Unlit color.Color
	Ink   color.Color
}

// DefaultOpts looks like a blue STN panel.
var DefaultOpts = Opts{
	Size:   24,
	Margin: 16,
	Bezel:  color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff},
	Lit:    color.NRGBA{R: 0x20, G: 0x50, B: 0xe0, A: 0xff},
	Unlit:  color.NRGBA{R: 0x10, G: 0x18, B: 0x40, A: 0xff},
	Ink:    color.NRGBA{R: 0xf0, G: 0xf0, B: 0xff, A: 0xff},
}

var errEmpty = errors.New("textimage: screen has no lines")

var loadFont = sync.OnceValues(func() (*truetype.Font, error) {
	return truetype.Parse(gomono.TTF)
})

func (o *Opts) withDefaults() Opts {
	r := DefaultOpts
	if o == nil {
		return r
	}
	if o.Size > 0 {
		r.Size = o.Size
	}
	if o.Margin > 0 {
		r.Margin = o.Margin
	}
	if o.Bezel != nil {
		r.Bezel = o.Bezel
	}
	if o.Lit != nil {
		r.Lit = o.Lit
	}
	if o.Unlit != nil {
		r.Unlit = o.Unlit
	}
	if o.Ink != nil {
		r.Ink = o.Ink
	}
	return r
}

// Render draws s in a monospaced font. opts may be nil.
func Render(s Screen, opts *Opts) (image.Image, error) {
	dc, err := draw(s, opts)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// WritePNG renders s and encodes it as PNG to w.
func WritePNG(w io.Writer, s Screen, opts *Opts) error {
	dc, err := draw(s, opts)
	if err != nil {
		return err
	}
	return dc.EncodePNG(w)
}

// SavePNG renders s to the PNG file at path.
func SavePNG(path string, s Screen, opts *Opts) error {
	dc, err := draw(s, opts)
	if err != nil {
		return err
	}
	return dc.SavePNG(path)
}

func draw(s Screen, opts *Opts) (*gg.Context, error) {
	o := opts.withDefaults()
	lines := s.Lines()
	if len(lines) == 0 {
		return nil, errEmpty
	}
	f, err := loadFont()
	if err != nil {
		return nil, err
	}
	face := truetype.NewFace(f, &truetype.Options{Size: o.Size, Hinting: font.HintingFull})
	defer face.Close()

	cols := 0
	for _, l := range lines {
		cols = max(cols, utf8.RuneCountInString(l))
	}
	cellW := font.MeasureString(face, "M").Ceil()
	m := face.Metrics()
	lineH := m.Height.Ceil()
	w := 2*o.Margin + cols*cellW
	h := 2*o.Margin + len(lines)*lineH

	dc := gg.NewContext(w, h)
	dc.SetColor(o.Bezel)
	dc.Clear()
	panel := o.Unlit
	if s.Backlight() {
		panel = o.Lit
	}
	half := float64(o.Margin / 2)
	dc.SetColor(panel)
	dc.DrawRectangle(half, half, float64(w)-2*half, float64(h)-2*half)
	dc.Fill()

	dc.SetFontFace(face)
	dc.SetColor(o.Ink)
	for row, l := range lines {
		y := float64(o.Margin + row*lineH + m.Ascent.Ceil())
		for col, r := range []rune(l) {
			if r == ' ' {
				continue
			}
			dc.DrawString(string(r), float64(o.Margin+col*cellW), y)
		}
	}
	return dc, nil
}
