// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/sht3x/envbar"
	"github.com/GermanBionicSystems/sht3x/sht3x"
)

// record is one sample as emitted by the structured formats.
type record struct {
	Time     time.Time `json:"time" yaml:"time" cbor:"time"`
	Celsius  float64   `json:"celsius" yaml:"celsius" cbor:"celsius"`
	Humidity float64   `json:"humidity_percent" yaml:"humidity_percent" cbor:"humidity_percent"`
}

func newRecord(t time.Time, r sht3x.Reading) record {
	return record{Time: t.UTC(), Celsius: r.Celsius(), Humidity: r.Percent()}
}

type output interface {
	write(t time.Time, r sht3x.Reading) error
	close() error
}

func newOutput(format string, w io.Writer) (output, error) {
	switch format {
	case "text":
		return &textOutput{w: w}, nil
	case "json":
		return &encOutput{enc: json.NewEncoder(w)}, nil
	case "yaml":
		enc := yaml.NewEncoder(w)
		return &encOutput{enc: enc, closer: enc}, nil
	case "cbor":
		return &encOutput{enc: cbor.NewEncoder(w)}, nil
	case "bar":
		return &barOutput{d: envbar.NewWriter(w, nil)}, nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

type textOutput struct {
	w io.Writer
}

func (o *textOutput) write(t time.Time, r sht3x.Reading) error {
	_, err := fmt.Fprintf(o.w, "%s %8s %9s\n", t.Format(time.RFC3339), r.Temperature, r.Humidity)
	return err
}

func (o *textOutput) close() error {
	return nil
}

type encoder interface {
	Encode(v any) error
}

// encOutput writes one document per sample.
type encOutput struct {
	enc    encoder
	closer io.Closer
}

func (o *encOutput) write(t time.Time, r sht3x.Reading) error {
	return o.enc.Encode(newRecord(t, r))
}

func (o *encOutput) close() error {
	if o.closer == nil {
		return nil
	}
	return o.closer.Close()
}

type barOutput struct {
	d *envbar.Dev
}

func (o *barOutput) write(t time.Time, r sht3x.Reading) error {
	return o.d.Show(physic.Env{Temperature: r.Temperature, Humidity: r.Humidity})
}

func (o *barOutput) close() error {
	return o.d.Halt()
}
