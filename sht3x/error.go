// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sht3x

import (
	"errors"
	"fmt"
)

var (
	// ErrCRC matches any *CRCError with errors.Is.
	ErrCRC = errors.New("sht3x: crc mismatch")
	// ErrBus matches any *BusError with errors.Is.
	ErrBus = errors.New("sht3x: bus error")
)

// Quantity identifies the 16 bit field a CRC protects.
type Quantity int

const (
	QuantityTemperature Quantity = iota
	QuantityHumidity
	QuantityStatus
	QuantitySerialNumber
)

func (q Quantity) String() string {
	switch q {
	case QuantityTemperature:
		return "temperature"
	case QuantityHumidity:
		return "humidity"
	case QuantityStatus:
		return "status"
	case QuantitySerialNumber:
		return "serial number"
	default:
		return fmt.Sprintf("Quantity(%d)", int(q))
	}
}

// CRCError is returned when the CRC sent by the sensor after a word does not
// match the CRC calculated over that word. The whole frame is discarded.
type CRCError struct {
	Quantity Quantity
	// Got is the CRC byte received from the sensor.
	Got byte
	// Want is the CRC calculated over the received word.
	Want byte
}

func (e *CRCError) Error() string {
	return fmt.Sprintf("sht3x: %s crc mismatch: received 0x%02x, calculated 0x%02x", e.Quantity, e.Got, e.Want)
}

func (e *CRCError) Is(target error) bool {
	return target == ErrCRC
}

// BusError wraps a failure of the underlying I²C transaction.
type BusError struct {
	Op  string
	Err error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("sht3x: %s: %v", e.Op, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}

func (e *BusError) Is(target error) bool {
	return target == ErrBus
}
