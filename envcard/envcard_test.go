// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package envcard

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
)

var env = physic.Env{
	Temperature: physic.ZeroCelsius + 21320*physic.MilliKelvin,
	Humidity:    4318 * physic.PercentRH / 100,
}

func gray(c color.Color) uint8 {
	return color.GrayModel.Convert(c).(color.Gray).Y
}

func TestRender(t *testing.T) {
	img, err := Render(env, nil)
	require.NoError(t, err)
	b := img.Bounds()
	assert.Equal(t, image.Rect(0, 0, 128, 64), b)

	// The humidity gauge covers 43% of the bottom edge.
	assert.Equal(t, uint8(255), gray(img.At(1, 63)))
	assert.Equal(t, uint8(0), gray(img.At(126, 63)))

	// Some text was drawn above the gauge.
	lit := 0
	for y := 0; y < 56; y++ {
		for x := 0; x < 128; x++ {
			if gray(img.At(x, y)) > 128 {
				lit++
			}
		}
	}
	assert.Greater(t, lit, 50)
}

func TestRenderSize(t *testing.T) {
	img, err := Render(env, &Opts{W: 250, H: 122, Foreground: color.Black, Background: color.White})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 250, 122), img.Bounds())
	assert.Equal(t, uint8(255), gray(img.At(249, 0)))
}

// drawer is a display.Drawer that keeps the last image.
type drawer struct {
	bounds image.Rectangle
	img    image.Image
	err    error
}

func (d *drawer) String() string          { return "drawer" }
func (d *drawer) Halt() error             { return nil }
func (d *drawer) ColorModel() color.Model { return color.GrayModel }
func (d *drawer) Bounds() image.Rectangle { return d.bounds }
func (d *drawer) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	d.img = src
	return d.err
}

func TestDraw(t *testing.T) {
	d := &drawer{bounds: image.Rect(0, 0, 128, 32)}
	require.NoError(t, Draw(d, env, &Opts{W: 10, H: 10}))
	require.NotNil(t, d.img)
	assert.Equal(t, d.bounds, d.img.Bounds())

	d.err = errors.New("i2c nack")
	assert.ErrorIs(t, Draw(d, env, nil), d.err)
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "card.png")
	require.NoError(t, SavePNG(path, env, nil))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 128, 64), img.Bounds())
}
