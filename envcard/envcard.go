// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package envcard renders a temperature/humidity reading to an image, for
// display on a small screen like an SSD1306 or an e-paper panel, or for
// saving as PNG.
//
// The card shows the temperature on the first line, the relative humidity on
// the second, and a humidity gauge along the bottom edge.
package envcard

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
)

// Opts represents the options available for rendering.
type Opts struct {
	// W and H default to 128x64, the most common SSD1306 geometry.
	W, H int
	// FontSize in points. Defaults to H/4.
	FontSize   float64
	Foreground color.Color
	Background color.Color
}

// DefaultOpts is white on black at 128x64.
var DefaultOpts = Opts{
	W:          128,
	H:          64,
	Foreground: color.White,
	Background: color.Black,
}

var goRegular = sync.OnceValues(func() (*truetype.Font, error) {
	return truetype.Parse(goregular.TTF)
})

func face(size float64) (font.Face, error) {
	f, err := goRegular()
	if err != nil {
		return nil, fmt.Errorf("envcard: parse font: %w", err)
	}
	return truetype.NewFace(f, &truetype.Options{Size: size}), nil
}

func (o *Opts) withDefaults() Opts {
	r := DefaultOpts
	if o == nil {
		return r
	}
	if o.W > 0 && o.H > 0 {
		r.W, r.H = o.W, o.H
	}
	if o.FontSize > 0 {
		r.FontSize = o.FontSize
	}
	if o.Foreground != nil {
		r.Foreground = o.Foreground
	}
	if o.Background != nil {
		r.Background = o.Background
	}
	return r
}

// Render returns the card for e. opts can be nil.
func Render(e physic.Env, opts *Opts) (image.Image, error) {
	o := opts.withDefaults()
	size := o.FontSize
	if size <= 0 {
		size = float64(o.H) / 4
	}
	ff, err := face(size)
	if err != nil {
		return nil, err
	}
	defer ff.Close()

	w, h := float64(o.W), float64(o.H)
	rh := float64(e.Humidity) / float64(physic.PercentRH)
	barH := math.Max(1, math.Round(h/10))

	dc := gg.NewContext(o.W, o.H)
	dc.SetColor(o.Background)
	dc.Clear()
	dc.SetColor(o.Foreground)
	dc.SetFontFace(ff)
	dc.DrawStringAnchored(fmt.Sprintf("%.1f°C", e.Temperature.Celsius()), w/2, (h-barH)/3, 0.5, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%.1f%%RH", rh), w/2, 2*(h-barH)/3, 0.5, 0.5)
	dc.DrawRectangle(0, h-barH, w*math.Max(0, math.Min(1, rh/100)), barH)
	dc.Fill()
	return dc.Image(), nil
}

// Draw renders e at the size of d and draws it. The opts size is ignored.
func Draw(d display.Drawer, e physic.Env, opts *Opts) error {
	o := opts.withDefaults()
	b := d.Bounds()
	o.W, o.H = b.Dx(), b.Dy()
	img, err := Render(e, &o)
	if err != nil {
		return err
	}
	if err := d.Draw(b, img, image.Point{}); err != nil {
		return fmt.Errorf("envcard: draw on %s: %w", d, err)
	}
	return nil
}

// SavePNG renders e and writes it to path.
func SavePNG(path string, e physic.Env, opts *Opts) error {
	img, err := Render(e, opts)
	if err != nil {
		return err
	}
	if err := gg.SavePNG(path, img); err != nil {
		return fmt.Errorf("envcard: %w", err)
	}
	return nil
}
