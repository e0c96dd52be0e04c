// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package devices is a container for the Sensirion SHT3x driver and the
// helpers built around it.
//
// The driver itself lives in package sht3x. Bus adapters for non periph hosts
// are in busadapt, and envbar and envcard render readings to a terminal or an
// image. The sht3x command ties them together.
package devices
