// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package recorder

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/zeebo/blake3"
)

// magic opens every recording.
var magic = [8]byte{'C', 'Y', 'P', 'H', 'R', 'E', 'C', 1}

const blockHeaderSize = 1 + 4 + 4 + 4 + digestSize

// maxBlockSize bounds the sizes a reader will allocate for.
const maxBlockSize = 64 << 20

// ErrCorrupt means a recording failed an integrity check.
var ErrCorrupt = errors.New("recorder: corrupt recording")

// Digest is a BLAKE3 keyed hash of a block's uncompressed bytes.
type Digest [digestSize]byte

const digestSize = 32

// blockDomainKey separates block digests from any other BLAKE3 use.
// ASCII of the domain name, zero-padded to 32 bytes.
var blockDomainKey = [32]byte{
	'c', 'y', 'p', 'h', 'a', 'l', '-', 'b', 'r', 'i', 'd', 'g', 'e', '.',
	'r', 'e', 'c', 'o', 'r', 'd', 'e', 'r', '.', 'b', 'l', 'o', 'c', 'k',
	0, 0, 0, 0,
}

func digestBlock(data []byte) Digest {
	// NewKeyed only fails for a key that is not 32 bytes.
	hasher, err := blake3.NewKeyed(blockDomainKey[:])
	if err != nil {
		panic("recorder: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest
}

type blockHeader struct {
	compression  Compression
	records      uint32
	uncompressed uint32
	stored       uint32
	digest       Digest
}

func (h blockHeader) encode() []byte {
	buffer := make([]byte, blockHeaderSize)
	buffer[0] = byte(h.compression)
	binary.LittleEndian.PutUint32(buffer[1:5], h.records)
	binary.LittleEndian.PutUint32(buffer[5:9], h.uncompressed)
	binary.LittleEndian.PutUint32(buffer[9:13], h.stored)
	copy(buffer[13:], h.digest[:])
	return buffer
}

func parseBlockHeader(buffer []byte) (blockHeader, error) {
	header := blockHeader{
		compression:  Compression(buffer[0]),
		records:      binary.LittleEndian.Uint32(buffer[1:5]),
		uncompressed: binary.LittleEndian.Uint32(buffer[5:9]),
		stored:       binary.LittleEndian.Uint32(buffer[9:13]),
	}
	copy(header.digest[:], buffer[13:])
	if header.uncompressed > maxBlockSize || header.stored > maxBlockSize {
		return header, fmt.Errorf("%w: block sizes %d/%d exceed limit",
			ErrCorrupt, header.stored, header.uncompressed)
	}
	return header, nil
}
