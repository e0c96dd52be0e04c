// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains the framing helpers shared by Sensirion style
// sensors: the CRC-8 that protects every 16 bit word on the wire and the
// big-endian word assembly.
package common

// CRC8Polynomial is x^8 + x^5 + x^4 + 1. x^8 is omitted due to byte size.
const CRC8Polynomial byte = 0x31

// CRC8Init is the accumulator seed used by Sensirion and TI sensors.
const CRC8Init byte = 0xff

// CRC8 calculates the 8-bit CRC of the byte slice parameter and returns the
// calculated value. CRC bytes are used in sensors from TI and Sensirion.
func CRC8(bytes []byte) byte {
	crc := CRC8Init
	for _, val := range bytes {
		crc ^= val
		for range 8 {
			if (crc & 0x80) == 0 {
				crc <<= 1
			} else {
				crc = (byte)((crc << 1) ^ CRC8Polynomial)
			}
		}
	}
	return crc
}

// Word assembles the first two bytes of b into a 16 bit value, most
// significant byte first.
func Word(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}
