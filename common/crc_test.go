// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package common

import "testing"

func TestCRC8(t *testing.T) {
	var tests = []struct {
		bytes  []byte
		result byte
	}{
		{bytes: []byte{0xbe, 0xef}, result: 0x92},
		{bytes: []byte{0x01, 0xa4}, result: 0x4d},
		{bytes: []byte{0xab, 0xcd}, result: 0x6f},
		{bytes: []byte{0x61, 0x03}, result: 0x73},
		{bytes: []byte{0x6e, 0x8b}, result: 0x29},
		{bytes: []byte{0x00, 0x00}, result: 0x81},
		{bytes: []byte{0xff, 0xff}, result: 0xac},
		{bytes: []byte{}, result: 0xff},
	}
	for _, test := range tests {
		res := CRC8(test.bytes)
		if res != test.result {
			t.Errorf("CRC8(%#v)!=0x%02x received 0x%02x", test.bytes, test.result, res)
		}
	}
}

func TestCRC8Deterministic(t *testing.T) {
	b := []byte{0xbe, 0xef}
	first := CRC8(b)
	for range 16 {
		if got := CRC8(b); got != first {
			t.Fatalf("CRC8 changed between calls: 0x%02x then 0x%02x", first, got)
		}
	}
	if b[0] != 0xbe || b[1] != 0xef {
		t.Errorf("CRC8 modified its input: %#v", b)
	}
}

func TestWord(t *testing.T) {
	if w := Word([]byte{0x61, 0x03, 0x73}); w != 0x6103 {
		t.Errorf("Word()=0x%04x expected 0x6103", w)
	}
}
