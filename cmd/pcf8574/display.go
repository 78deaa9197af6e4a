// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"fmt"
	"image/color"
	"io"

	"github.com/GermanBionicSystems/expander/pcf8574"
	"github.com/maruel/ansi256"
)

var (
	colorHigh = color.NRGBA{R: 0x00, G: 0xc0, B: 0x00, A: 0xff}
	colorLow  = color.NRGBA{R: 0xc0, G: 0x00, B: 0x00, A: 0xff}
)

// display prints the eight pins on one line, GPIO7 first, as colored blocks
// followed by the binary value.
type display struct {
	w       io.Writer
	color   bool
	palette *ansi256.Palette
	buf     bytes.Buffer
}

func newDisplay(w io.Writer, colored bool) *display {
	return &display{w: w, color: colored, palette: ansi256.Default}
}

func (d *display) show(v byte) error {
	d.buf.Reset()
	if d.color {
		_, _ = d.buf.WriteString("\033[0m")
		for b := pcf8574.NumPins - 1; b >= 0; b-- {
			c := colorLow
			if v&(1<<b) != 0 {
				c = colorHigh
			}
			_, _ = io.WriteString(&d.buf, d.palette.Block(c))
		}
		_, _ = d.buf.WriteString("\033[0m ")
	}
	_, _ = fmt.Fprintf(&d.buf, "%08b %#02x\n", v, v)
	_, err := d.buf.WriteTo(d.w)
	return err
}
