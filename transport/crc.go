// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transport

// crc16 is CRC-16/CCITT-FALSE: polynomial 0x1021, initial value
// 0xFFFF, no reflection, no final XOR. Running it over data followed
// by its own big-endian CRC yields zero.
type crc16 uint16

const crcInitial crc16 = 0xFFFF

var crcTable = func() (table [256]uint16) {
	for i := range table {
		value := uint16(i) << 8
		for bit := 0; bit < 8; bit++ {
			if value&0x8000 != 0 {
				value = value<<1 ^ 0x1021
			} else {
				value <<= 1
			}
		}
		table[i] = value
	}
	return table
}()

func (c crc16) update(data []byte) crc16 {
	value := uint16(c)
	for _, b := range data {
		value = value<<8 ^ crcTable[byte(value>>8)^b]
	}
	return crc16(value)
}
