// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/GermanBionicSystems/sht3x/sht3x"
)

// config is the merged result of the YAML config file and the command line.
// Flags given explicitly win over the file.
type config struct {
	Backend       string        `yaml:"backend"`
	Bus           string        `yaml:"bus"`
	Address       uint16        `yaml:"address"`
	Repeatability string        `yaml:"repeatability"`
	Stretch       bool          `yaml:"clock_stretching"`
	Heater        bool          `yaml:"heater"`
	Count         int           `yaml:"count"`
	Interval      time.Duration `yaml:"interval"`
	Format        string        `yaml:"format"`
	PNG           string        `yaml:"png"`
	Metrics       string        `yaml:"metrics"`
	Verbose       bool          `yaml:"verbose"`
}

func defaultConfig() config {
	return config{
		Backend:       "periph",
		Address:       uint16(sht3x.DefaultAddress),
		Repeatability: "high",
		Count:         1,
		Interval:      2 * time.Second,
		Format:        "text",
	}
}

var formats = map[string]bool{"text": true, "json": true, "yaml": true, "cbor": true, "bar": true}

var repeatabilities = map[string]sht3x.Repeatability{
	"high":   sht3x.RepeatabilityHigh,
	"medium": sht3x.RepeatabilityMedium,
	"low":    sht3x.RepeatabilityLow,
}

// parseConfig parses args. The file named by -config is loaded first, then
// every flag set on the command line is applied on top of it.
func parseConfig(args []string) (config, error) {
	def := defaultConfig()
	fl := def
	fs := flag.NewFlagSet("sht3x", flag.ContinueOnError)
	path := fs.String("config", "", "YAML config file")
	fs.StringVar(&fl.Backend, "backend", def.Backend, "bus backend: periph or gobot")
	fs.StringVar(&fl.Bus, "bus", def.Bus, "I²C bus to use; periph name or gobot device path")
	addr := fs.Uint("addr", uint(def.Address), "I²C device address")
	fs.StringVar(&fl.Repeatability, "repeatability", def.Repeatability, "high, medium or low")
	fs.BoolVar(&fl.Stretch, "stretch", def.Stretch, "use clock stretching instead of polling")
	fs.BoolVar(&fl.Heater, "heater", def.Heater, "switch the heater on while measuring")
	fs.IntVar(&fl.Count, "n", def.Count, "number of samples; 0 runs until interrupted")
	fs.DurationVar(&fl.Interval, "interval", def.Interval, "time between samples")
	fs.StringVar(&fl.Format, "format", def.Format, "output format: text, json, yaml, cbor or bar")
	fs.StringVar(&fl.PNG, "png", def.PNG, "write a card of the last reading to this PNG file")
	fs.StringVar(&fl.Metrics, "metrics", def.Metrics, "write Prometheus metrics to this textfile on exit")
	fs.BoolVar(&fl.Verbose, "v", def.Verbose, "verbose mode")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	if fs.NArg() != 0 {
		return config{}, fmt.Errorf("unexpected argument: %q", fs.Arg(0))
	}
	fl.Address = uint16(*addr)

	cfg := def
	if *path != "" {
		var err error
		if cfg, err = loadConfig(*path); err != nil {
			return config{}, err
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Backend = fl.Backend
		case "bus":
			cfg.Bus = fl.Bus
		case "addr":
			cfg.Address = fl.Address
		case "repeatability":
			cfg.Repeatability = fl.Repeatability
		case "stretch":
			cfg.Stretch = fl.Stretch
		case "heater":
			cfg.Heater = fl.Heater
		case "n":
			cfg.Count = fl.Count
		case "interval":
			cfg.Interval = fl.Interval
		case "format":
			cfg.Format = fl.Format
		case "png":
			cfg.PNG = fl.PNG
		case "metrics":
			cfg.Metrics = fl.Metrics
		case "v":
			cfg.Verbose = fl.Verbose
		}
	})
	return cfg, cfg.validate()
}

// loadConfig reads a YAML file over the defaults. Unknown keys are rejected.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *config) validate() error {
	if c.Backend != "periph" && c.Backend != "gobot" {
		return fmt.Errorf("invalid backend %q", c.Backend)
	}
	if c.Address < 0x08 || c.Address > 0x77 {
		return fmt.Errorf("invalid address %#x", c.Address)
	}
	if _, ok := repeatabilities[c.Repeatability]; !ok {
		return fmt.Errorf("invalid repeatability %q", c.Repeatability)
	}
	if !formats[c.Format] {
		return fmt.Errorf("invalid format %q", c.Format)
	}
	if c.Count < 0 {
		return fmt.Errorf("invalid sample count %d", c.Count)
	}
	if c.Count != 1 && c.Interval <= 0 {
		return errors.New("interval must be positive")
	}
	return nil
}

func (c *config) opts() sht3x.Opts {
	o := sht3x.DefaultOpts
	o.Repeatability = repeatabilities[c.Repeatability]
	if c.Stretch {
		o.Mode = sht3x.ClockStretching
	}
	return o
}
