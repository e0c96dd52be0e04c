// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package envbar draws temperature/humidity readings on one terminal line
// using ANSI 256 color codes.
//
// The temperature is shown as a single block shaded from blue (cold) to red
// (hot), followed by a humidity gauge and the numeric values. Each Show
// overwrites the previous line.
package envbar

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"strings"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
)

// ColorMode selects whether ANSI color codes are written.
type ColorMode int

const (
	// Auto enables colors when the output is a terminal.
	Auto ColorMode = iota
	Always
	Never
)

// Opts represents the options available for the bar.
type Opts struct {
	// Width is the number of cells of the humidity gauge. Defaults to 20.
	Width   int
	Palette *ansi256.Palette
	Color   ColorMode
	// Cold and Hot bound the temperature shading. Default to -10°C and 40°C.
	Cold, Hot physic.Temperature

	_ struct{}
}

// Dev renders readings to a terminal.
type Dev struct {
	w         io.Writer
	width     int
	palette   *ansi256.Palette
	color     bool
	cold, hot float64

	buf bytes.Buffer
}

var (
	humidityOn  = color.NRGBA{0, 128, 255, 255}
	humidityOff = color.NRGBA{48, 48, 48, 255}
)

// New returns a Dev that displays at the console.
func New(opts *Opts) *Dev {
	return newDev(colorable.NewColorableStdout(), isTerminal(os.Stdout), opts)
}

// NewWriter returns a Dev writing to w. Auto color mode enables colors only
// when w is a terminal.
func NewWriter(w io.Writer, opts *Opts) *Dev {
	tty := false
	if f, ok := w.(*os.File); ok {
		tty = isTerminal(f)
	}
	return newDev(w, tty, opts)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func newDev(w io.Writer, tty bool, opts *Opts) *Dev {
	if opts == nil {
		opts = &Opts{}
	}
	d := &Dev{
		w:       w,
		width:   opts.Width,
		palette: opts.Palette,
		cold:    -10,
		hot:     40,
	}
	if d.width <= 0 {
		d.width = 20
	}
	if d.palette == nil {
		d.palette = ansi256.Default
	}
	if opts.Cold != 0 || opts.Hot != 0 {
		d.cold, d.hot = opts.Cold.Celsius(), opts.Hot.Celsius()
	}
	switch opts.Color {
	case Always:
		d.color = true
	case Never:
		d.color = false
	default:
		d.color = tty
	}
	return d
}

func (d *Dev) String() string {
	return "EnvBar"
}

// Halt implements conn.Resource.
//
// It moves to the next line and resets the terminal attributes.
func (d *Dev) Halt() error {
	s := "\n"
	if d.color {
		s = "\n\033[0m"
	}
	_, err := io.WriteString(d.w, s)
	return err
}

// Show redraws the line for e.
func (d *Dev) Show(e physic.Env) error {
	// This code is designed to minimize the amount of memory allocated per call.
	d.buf.Reset()
	c := e.Temperature.Celsius()
	rh := float64(e.Humidity) / float64(physic.PercentRH)
	filled := int(math.Round(clamp(rh/100) * float64(d.width)))
	if d.color {
		_, _ = d.buf.WriteString("\r\033[0m")
		_, _ = io.WriteString(&d.buf, d.palette.Block(d.temperatureColor(c)))
		_, _ = d.buf.WriteString("\033[0m ")
		for i := 0; i < d.width; i++ {
			cell := humidityOff
			if i < filled {
				cell = humidityOn
			}
			_, _ = io.WriteString(&d.buf, d.palette.Block(cell))
		}
		_, _ = d.buf.WriteString("\033[0m")
	} else {
		_, _ = d.buf.WriteString("\r[")
		_, _ = d.buf.WriteString(strings.Repeat("#", filled))
		_, _ = d.buf.WriteString(strings.Repeat(".", d.width-filled))
		_, _ = d.buf.WriteString("]")
	}
	_, _ = fmt.Fprintf(&d.buf, " %7.2f°C %6.2f%%RH ", c, rh)
	_, err := d.buf.WriteTo(d.w)
	return err
}

func (d *Dev) temperatureColor(c float64) color.NRGBA {
	f := clamp((c - d.cold) / (d.hot - d.cold))
	return color.NRGBA{R: uint8(255 * f), G: 64, B: uint8(255 * (1 - f)), A: 255}
}

func clamp(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}

var _ conn.Resource = &Dev{}
