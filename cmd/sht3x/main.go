// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// sht3x reads temperature and relative humidity from a Sensirion SHT-3X
// sensor.
//
// Settings come from an optional YAML file (-config) overridden by flags:
//
//	backend: periph          # or gobot
//	bus: ""                  # periph bus name, or /dev/i2c-N for gobot
//	address: 0x44
//	repeatability: high      # high, medium or low
//	clock_stretching: false
//	heater: false
//	count: 1                 # 0 runs until interrupted
//	interval: 2s
//	format: text             # text, json, yaml, cbor or bar
//	png: ""                  # card of the last reading
//	metrics: ""              # Prometheus textfile written on exit
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/sht3x/busadapt"
	"github.com/GermanBionicSystems/sht3x/envcard"
	"github.com/GermanBionicSystems/sht3x/sht3x"
	"github.com/GermanBionicSystems/sht3x/sht3x/sht3xprom"
)

func openBus(cfg *config) (i2c.BusCloser, error) {
	switch cfg.Backend {
	case "gobot":
		location := cfg.Bus
		if location == "" {
			location = "/dev/i2c-1"
		}
		return busadapt.OpenGobot(location)
	default:
		if _, err := host.Init(); err != nil {
			return nil, err
		}
		return i2creg.Open(cfg.Bus)
	}
}

// sample reads the sensor cfg.Count times, or until ctx is done when Count
// is 0. CRC failures are logged and skipped, bus failures abort. It fails when
// no sample passed its CRC check.
func sample(ctx context.Context, cfg *config, s sht3xprom.Sensor, out output, log zerolog.Logger) error {
	written := 0
	var lastCRC error
loop:
	for i := 0; cfg.Count == 0 || i < cfg.Count; i++ {
		if i != 0 {
			select {
			case <-ctx.Done():
				break loop
			case <-time.After(cfg.Interval):
			}
		}
		r, err := s.Measure()
		if errors.Is(err, sht3x.ErrCRC) {
			log.Warn().Err(err).Int("sample", i).Msg("discarded")
			lastCRC = err
			continue
		}
		if err != nil {
			return err
		}
		if err := out.write(time.Now(), r); err != nil {
			return err
		}
		written++
	}
	if written == 0 && lastCRC != nil {
		return fmt.Errorf("no valid sample: %w", lastCRC)
	}
	return nil
}

func run(ctx context.Context, cfg *config, bus i2c.Bus, stdout io.Writer, log zerolog.Logger) error {
	opts := cfg.opts()
	opts.Logger = &log
	dev, err := sht3x.New(bus, i2c.Addr(cfg.Address), &opts)
	if err != nil {
		return err
	}
	defer dev.Halt()
	if sn, err := dev.SerialNumber(); err == nil {
		log.Info().Str("serial", fmt.Sprintf("%08x", sn)).Msg("found sensor")
	} else {
		log.Debug().Err(err).Msg("serial number unavailable")
	}
	if cfg.Heater {
		if err := dev.SetHeater(true); err != nil {
			return err
		}
		defer func() {
			if err := dev.SetHeater(false); err != nil {
				log.Error().Err(err).Msg("heater left on")
			}
		}()
	}

	out, err := newOutput(cfg.Format, stdout)
	if err != nil {
		return err
	}
	coll := sht3xprom.NewCollector(dev, nil)
	err = sample(ctx, cfg, coll, out, log)
	if err2 := out.close(); err == nil {
		err = err2
	}

	if status, err2 := dev.ReadStatus(); err2 == nil {
		log.Debug().Stringer("status", status).Msg("done")
	}
	if cfg.Metrics != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(coll)
		if err2 := prometheus.WriteToTextfile(cfg.Metrics, reg); err2 != nil && err == nil {
			err = err2
		}
	}
	if last, ok := dev.Last(); ok && cfg.PNG != "" {
		env := physic.Env{Temperature: last.Temperature, Humidity: last.Humidity}
		if err2 := envcard.SavePNG(cfg.PNG, env, nil); err2 != nil && err == nil {
			err = err2
		}
	}
	return err
}

func mainImpl() error {
	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		return err
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(zerolog.InfoLevel)
	if cfg.Verbose {
		log = log.Level(zerolog.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	bus, err := openBus(&cfg)
	if err != nil {
		return err
	}
	defer bus.Close()
	log.Debug().Stringer("bus", bus).Str("backend", cfg.Backend).Msg("opened")
	return run(ctx, &cfg, bus, os.Stdout, log)
}

func main() {
	if err := mainImpl(); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "sht3x: %s.\n", err)
		os.Exit(1)
	}
}
