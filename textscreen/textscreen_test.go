// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package textscreen

import (
	"bytes"
	"image/color"
	"strings"
	"testing"

	"github.com/GermanBionicSystems/lcdbackpack/hd44780"
	"github.com/GermanBionicSystems/lcdbackpack/hd44780/hd44780test"
	"github.com/GermanBionicSystems/lcdbackpack/mcp23xxx"
	"github.com/maruel/ansi256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScreen struct {
	lines []string
	lit   bool
}

func (f *fakeScreen) Lines() []string { return f.lines }
func (f *fakeScreen) Backlight() bool { return f.lit }

func TestRenderPlain(t *testing.T) {
	var buf bytes.Buffer
	d := NewWriter(&buf, &Opts{NoColor: true})
	require.NoError(t, d.Render(&fakeScreen{lines: []string{"Hello   ", "world   "}, lit: true}))
	out := buf.String()
	assert.NotContains(t, out, "\033[")
	assert.Contains(t, out, "Hello   ")
	assert.Contains(t, out, "world   ")
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestRenderBacklight(t *testing.T) {
	var buf bytes.Buffer
	d := NewWriter(&buf, nil)
	s := &fakeScreen{lines: []string{"ab"}, lit: true}
	require.NoError(t, d.Render(s))
	assert.Contains(t, buf.String(), sgrLit+"ab"+sgrReset)

	buf.Reset()
	s.lit = false
	require.NoError(t, d.Render(s))
	assert.Contains(t, buf.String(), sgrUnlit+"ab"+sgrReset)
}

func TestBezel(t *testing.T) {
	red := color.NRGBA{R: 0xff, A: 0xff}
	var buf bytes.Buffer
	d := NewWriter(&buf, &Opts{Bezel: red})
	require.NoError(t, d.Render(&fakeScreen{lines: []string{"ab"}}))
	block := ansi256.Default.Block(red)
	assert.Equal(t, 2, strings.Count(buf.String(), block))

	buf.Reset()
	d = NewWriter(&buf, &Opts{})
	require.NoError(t, d.Render(&fakeScreen{lines: []string{"ab"}}))
	assert.Contains(t, buf.String(), ansi256.Default.Block(DefaultOpts.Bezel))
}

func TestRedraw(t *testing.T) {
	var buf bytes.Buffer
	d := NewWriter(&buf, &Opts{Redraw: true})
	s := &fakeScreen{lines: []string{"a", "b", "c"}}
	require.NoError(t, d.Render(s))
	assert.NotContains(t, buf.String(), "\033[3A")
	buf.Reset()
	require.NoError(t, d.Render(s))
	assert.True(t, strings.HasPrefix(buf.String(), "\033[3A"))
}

func TestHalt(t *testing.T) {
	var buf bytes.Buffer
	d := NewWriter(&buf, nil)
	require.NoError(t, d.Halt())
	assert.Equal(t, sgrReset+"\n", buf.String())
	assert.Equal(t, "TextScreen", d.String())
}

func TestRenderEmulated(t *testing.T) {
	bus := hd44780test.New(mcp23xxx.DefaultAddress, 2, 16)
	lcd, err := hd44780.NewMCP23008Backpack(bus, mcp23xxx.DefaultAddress, 2, 16)
	require.NoError(t, err)
	_, err = lcd.WriteString("Temp 21°C\nOK")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf, &Opts{NoColor: true}).Render(bus))
	assert.Contains(t, buf.String(), "Temp 21C        ")
	assert.Contains(t, buf.String(), "OK              ")
}
