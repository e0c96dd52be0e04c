// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package busadapt exposes I²C buses from other Go hardware stacks as a
// periph i2c.Bus, so the drivers in this module run on them unchanged.
//
// TinyGo wraps any tinygo.org/x/drivers.I2C. Gobot wraps a gobot sysfs
// device, i.e. a Linux /dev/i2c-N character device.
package busadapt

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"gobot.io/x/gobot/sysfs"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"
)

var errSpeed = errors.New("busadapt: SetSpeed is not supported")

// TinyGoBus is an i2c.Bus backed by a TinyGo drivers.I2C.
type TinyGoBus struct {
	b    drivers.I2C
	name string
}

// TinyGo returns an i2c.Bus that forwards transactions to b.
func TinyGo(b drivers.I2C, name string) *TinyGoBus {
	if name == "" {
		name = "tinygo"
	}
	return &TinyGoBus{b: b, name: name}
}

func (t *TinyGoBus) String() string {
	return t.name
}

// Tx implements i2c.Bus.
func (t *TinyGoBus) Tx(addr uint16, w, r []byte) error {
	if err := t.b.Tx(addr, w, r); err != nil {
		return fmt.Errorf("busadapt: %s: %w", t.name, err)
	}
	return nil
}

// SetSpeed implements i2c.Bus. The TinyGo bus is configured by its owner.
func (t *TinyGoBus) SetSpeed(f physic.Frequency) error {
	return errSpeed
}

// SysfsDevice is the part of a gobot sysfs I²C device used by GobotBus.
type SysfsDevice interface {
	io.ReadWriteCloser
	SetAddress(address int) error
}

// GobotBus is an i2c.BusCloser backed by a gobot sysfs device. The device
// holds a single slave address, so transactions are serialised and the
// address is only changed when it differs from the previous one.
type GobotBus struct {
	name string

	mu   sync.Mutex
	dev  SysfsDevice
	addr int
}

// OpenGobot opens the Linux I²C character device at location, e.g.
// "/dev/i2c-1".
func OpenGobot(location string) (*GobotBus, error) {
	dev, err := sysfs.NewI2cDevice(location)
	if err != nil {
		return nil, fmt.Errorf("busadapt: open %s: %w", location, err)
	}
	return Gobot(dev, location), nil
}

// Gobot returns an i2c.BusCloser over dev.
func Gobot(dev SysfsDevice, name string) *GobotBus {
	if name == "" {
		name = "gobot"
	}
	return &GobotBus{dev: dev, name: name, addr: -1}
}

func (g *GobotBus) String() string {
	return g.name
}

// Tx implements i2c.Bus. The write and the read are separate transfers with a
// stop condition in between.
func (g *GobotBus) Tx(addr uint16, w, r []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if int(addr) != g.addr {
		if err := g.dev.SetAddress(int(addr)); err != nil {
			return fmt.Errorf("busadapt: %s: set address %#x: %w", g.name, addr, err)
		}
		g.addr = int(addr)
	}
	if len(w) != 0 {
		n, err := g.dev.Write(w)
		if err == nil && n != len(w) {
			err = io.ErrShortWrite
		}
		if err != nil {
			return fmt.Errorf("busadapt: %s: write: %w", g.name, err)
		}
	}
	if len(r) != 0 {
		// One read(2) is one I²C transfer; a second one would restart the
		// response.
		n, err := g.dev.Read(r)
		if err == nil && n != len(r) {
			err = io.ErrUnexpectedEOF
		}
		if err != nil {
			return fmt.Errorf("busadapt: %s: read %d of %d bytes: %w", g.name, n, len(r), err)
		}
	}
	return nil
}

// SetSpeed implements i2c.Bus. The speed of a Linux I²C adapter is set by the
// kernel.
func (g *GobotBus) SetSpeed(f physic.Frequency) error {
	return errSpeed
}

// Close implements io.Closer.
func (g *GobotBus) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dev.Close()
}

var _ i2c.Bus = &TinyGoBus{}
var _ i2c.BusCloser = &GobotBus{}
