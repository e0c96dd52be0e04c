// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package envbar

import (
	"bytes"
	"image/color"
	"strings"
	"testing"

	"github.com/maruel/ansi256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
)

var env = physic.Env{
	Temperature: physic.ZeroCelsius + 21320*physic.MilliKelvin,
	Humidity:    4318 * physic.PercentRH / 100,
}

func TestShowPlain(t *testing.T) {
	var buf bytes.Buffer
	d := NewWriter(&buf, &Opts{Width: 10})
	require.NoError(t, d.Show(env))
	assert.Equal(t, "\r[####......]   21.32°C  43.18%RH ", buf.String())

	buf.Reset()
	require.NoError(t, d.Show(physic.Env{Temperature: physic.ZeroCelsius, Humidity: 100 * physic.PercentRH}))
	assert.Contains(t, buf.String(), "[##########]")

	buf.Reset()
	require.NoError(t, d.Halt())
	assert.Equal(t, "\n", buf.String())
}

func TestShowColor(t *testing.T) {
	var buf bytes.Buffer
	d := NewWriter(&buf, &Opts{Width: 4, Color: Always})
	require.NoError(t, d.Show(env))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\r\033[0m"))
	assert.Equal(t, 2, strings.Count(out, ansi256.Default.Block(humidityOn)))
	assert.Contains(t, out, ansi256.Default.Block(d.temperatureColor(21.32)))
	assert.Contains(t, out, "21.32°C")

	buf.Reset()
	require.NoError(t, d.Halt())
	assert.Equal(t, "\n\033[0m", buf.String())
}

func TestTemperatureColor(t *testing.T) {
	d := NewWriter(&bytes.Buffer{}, &Opts{Cold: physic.ZeroCelsius, Hot: physic.ZeroCelsius + 50*physic.Kelvin})
	assert.Equal(t, color.NRGBA{0, 64, 255, 255}, d.temperatureColor(-45))
	assert.Equal(t, color.NRGBA{255, 64, 0, 255}, d.temperatureColor(130))
	mid := d.temperatureColor(25)
	assert.InDelta(t, 127, int(mid.R), 1)
	assert.InDelta(t, 127, int(mid.B), 1)
}
