// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package busadapt

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// tinyBus records transactions the way a TinyGo machine.I2C would perform
// them.
type tinyBus struct {
	addr uint16
	w    []byte
	resp []byte
	err  error
}

func (b *tinyBus) Tx(addr uint16, w, r []byte) error {
	b.addr = addr
	b.w = append([]byte(nil), w...)
	copy(r, b.resp)
	return b.err
}

func (b *tinyBus) ReadRegister(addr uint8, r uint8, buf []byte) error {
	return b.Tx(uint16(addr), []byte{r}, buf)
}

func (b *tinyBus) WriteRegister(addr uint8, r uint8, buf []byte) error {
	return b.Tx(uint16(addr), append([]byte{r}, buf...), nil)
}

func TestTinyGo(t *testing.T) {
	tb := &tinyBus{resp: []byte{0x80, 0x10, 0xe1}}
	bus := TinyGo(tb, "")
	assert.Equal(t, "tinygo", bus.String())

	d := i2c.Dev{Bus: bus, Addr: 0x44}
	r := make([]byte, 3)
	require.NoError(t, d.Tx([]byte{0xf3, 0x2d}, r))
	assert.Equal(t, uint16(0x44), tb.addr)
	assert.Equal(t, []byte{0xf3, 0x2d}, tb.w)
	assert.Equal(t, []byte{0x80, 0x10, 0xe1}, r)

	tb.err = errors.New("nack")
	err := d.Tx([]byte{0x24, 0x00}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, tb.err)

	assert.Error(t, bus.SetSpeed(100*physic.KiloHertz))
}

// sysfsDev emulates a gobot sysfs device with one slave.
type sysfsDev struct {
	addrs   []int
	written bytes.Buffer
	resp    *bytes.Reader
	closed  bool
	short   bool
	// chunk limits the bytes returned by a single Read.
	chunk int
	reads int
}

func (s *sysfsDev) SetAddress(address int) error {
	s.addrs = append(s.addrs, address)
	return nil
}

func (s *sysfsDev) Write(b []byte) (int, error) {
	if s.short {
		return len(b) - 1, nil
	}
	return s.written.Write(b)
}

func (s *sysfsDev) Read(b []byte) (int, error) {
	s.reads++
	if s.chunk > 0 && len(b) > s.chunk {
		b = b[:s.chunk]
	}
	return s.resp.Read(b)
}

func (s *sysfsDev) Close() error {
	s.closed = true
	return nil
}

func TestGobot(t *testing.T) {
	dev := &sysfsDev{resp: bytes.NewReader([]byte{0x61, 0x03, 0x73, 0x6e, 0x8b, 0x29})}
	bus := Gobot(dev, "/dev/i2c-1")
	assert.Equal(t, "/dev/i2c-1", bus.String())

	require.NoError(t, bus.Tx(0x44, []byte{0x24, 0x00}, nil))
	r := make([]byte, 6)
	require.NoError(t, bus.Tx(0x44, nil, r))
	assert.Equal(t, []byte{0x61, 0x03, 0x73, 0x6e, 0x8b, 0x29}, r)
	assert.Equal(t, []byte{0x24, 0x00}, dev.written.Bytes())

	// The address is only set when it changes.
	require.NoError(t, bus.Tx(0x45, []byte{0x30, 0xa2}, nil))
	assert.Equal(t, []int{0x44, 0x45}, dev.addrs)

	// The response is exhausted.
	err := bus.Tx(0x45, nil, make([]byte, 3))
	assert.ErrorIs(t, err, io.EOF)

	dev.short = true
	assert.ErrorIs(t, bus.Tx(0x45, []byte{0x30, 0x41}, nil), io.ErrShortWrite)

	assert.Error(t, bus.SetSpeed(400*physic.KiloHertz))
	require.NoError(t, bus.Close())
	assert.True(t, dev.closed)
}

func TestGobotShortRead(t *testing.T) {
	dev := &sysfsDev{resp: bytes.NewReader([]byte{0x61, 0x03, 0x73, 0x6e, 0x8b, 0x29}), chunk: 4}
	bus := Gobot(dev, "")
	err := bus.Tx(0x44, nil, make([]byte, 6))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	// The frame is not completed by a second transfer.
	assert.Equal(t, 1, dev.reads)
}
