// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sht3x_test

import (
	"errors"
	"log"
	"time"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/sht3x/sht3x"
)

// Example shows creating an SHT-3X sensor and reading from it.
func Example() {
	if _, err := host.Init(); err != nil {
		log.Fatal("Error calling host.init()")
	}
	bus, err := i2creg.Open("")
	if err != nil {
		log.Fatal(err)
	}
	defer bus.Close()

	dev, err := sht3x.New(bus, sht3x.DefaultAddress, nil)
	if err != nil {
		log.Fatal(err)
	}

	env := &physic.Env{}

	for range 10 {
		err = dev.Sense(env)
		if errors.Is(err, sht3x.ErrCRC) {
			log.Println("corrupted frame, retrying:", err)
		} else if err != nil {
			log.Fatal(err)
		} else {
			log.Printf("Temperature: %s   Humidity: %s\n", env.Temperature, env.Humidity)
		}
		time.Sleep(time.Second)
	}
}

// ExampleDev_Measure reads both quantities from the same frame with clock
// stretching and medium repeatability.
func ExampleDev_Measure() {
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}
	bus, err := i2creg.Open("")
	if err != nil {
		log.Fatal(err)
	}
	defer bus.Close()

	opts := sht3x.DefaultOpts
	opts.Repeatability = sht3x.RepeatabilityMedium
	opts.Mode = sht3x.ClockStretching
	dev, err := sht3x.New(bus, sht3x.AlternateAddress, &opts)
	if err != nil {
		log.Fatal(err)
	}
	r, err := dev.Measure()
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("%.2f°C %.2f%%RH", r.Celsius(), r.Percent())
}
