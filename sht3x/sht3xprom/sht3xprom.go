// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sht3xprom exports SHT-3X readings as Prometheus metrics.
//
// A Collector wraps the sensor. Measurements made through it update the
// exported gauges and error counters; with MeasureOnCollect set, every scrape
// also performs a measurement. A failed measurement only updates the error
// counter, so the gauges always hold the last valid frame.
package sht3xprom

import (
	"errors"
	"math"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/GermanBionicSystems/sht3x/sht3x"
)

// Sensor is implemented by *sht3x.Dev.
type Sensor interface {
	Measure() (sht3x.Reading, error)
}

// Opts holds the metric naming options.
type Opts struct {
	Namespace   string
	Subsystem   string
	ConstLabels prometheus.Labels
	// MeasureOnCollect performs a measurement on each scrape.
	MeasureOnCollect bool
}

// DefaultOpts names the metrics sensors_sht3x_*.
var DefaultOpts = Opts{
	Namespace: "sensors",
	Subsystem: "sht3x",
}

// Collector is a prometheus.Collector recording the measurements of a Sensor.
type Collector struct {
	s         Sensor
	onCollect bool

	temperature *prometheus.Desc
	humidity    *prometheus.Desc
	reads       prometheus.Counter
	errors      *prometheus.CounterVec

	mu    sync.Mutex
	last  sht3x.Reading
	valid bool
}

// NewCollector returns a Collector for s. opts can be nil.
func NewCollector(s Sensor, opts *Opts) *Collector {
	if opts == nil {
		opts = &DefaultOpts
	}
	return &Collector{
		s:         s,
		onCollect: opts.MeasureOnCollect,
		temperature: prometheus.NewDesc(
			prometheus.BuildFQName(opts.Namespace, opts.Subsystem, "temperature_celsius"),
			"Temperature of the last valid frame.", nil, opts.ConstLabels),
		humidity: prometheus.NewDesc(
			prometheus.BuildFQName(opts.Namespace, opts.Subsystem, "humidity_percent"),
			"Relative humidity of the last valid frame.", nil, opts.ConstLabels),
		reads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Subsystem:   opts.Subsystem,
			Name:        "reads_total",
			Help:        "Successful measurements.",
			ConstLabels: opts.ConstLabels,
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Subsystem:   opts.Subsystem,
			Name:        "read_errors_total",
			Help:        "Failed measurements by kind.",
			ConstLabels: opts.ConstLabels,
		}, []string{"kind"}),
	}
}

// Measure measures through the wrapped Sensor and records the outcome.
func (c *Collector) Measure() (sht3x.Reading, error) {
	r, err := c.s.Measure()
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.errors.WithLabelValues(errorKind(err)).Inc()
		return r, err
	}
	c.reads.Inc()
	c.last = r
	c.valid = true
	return r, nil
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.temperature
	ch <- c.humidity
	c.reads.Describe(ch)
	c.errors.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.onCollect {
		_, _ = c.Measure()
	}
	c.mu.Lock()
	if c.valid {
		ch <- prometheus.MustNewConstMetric(c.temperature, prometheus.GaugeValue, round(c.last.Celsius()))
		ch <- prometheus.MustNewConstMetric(c.humidity, prometheus.GaugeValue, round(c.last.Percent()))
	}
	c.mu.Unlock()
	c.reads.Collect(ch)
	c.errors.Collect(ch)
}

// Errors returns the counter for kind, one of "crc", "bus" or "other".
func (c *Collector) Errors(kind string) prometheus.Counter {
	return c.errors.WithLabelValues(kind)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, sht3x.ErrCRC):
		return "crc"
	case errors.Is(err, sht3x.ErrBus):
		return "bus"
	default:
		return "other"
	}
}

func round(v float64) float64 {
	return math.Round(v*100) / 100
}

var _ prometheus.Collector = &Collector{}
var _ Sensor = &Collector{}
