package hll

import (
	"encoding/binary"
	"fmt"
)

const sparseEntrySize = 3 // byteIndex(2) | value(1)

// Serialize encodes the sketch into its wire form: a 7-byte header followed
// by a sparse entry list when 1 to DenseThreshold-1 registers are non-zero,
// or by the full dense payload otherwise. This package always writes
// the current header layout, never the legacy one Parse still accepts.
func (s *Sketch) Serialize() []byte {
	header := encodeHeaderV1(decodedHeader{
		registerOffset:      s.registerOffset,
		numNonZeroRegisters: s.numNonZeroRegisters,
		maxOverflowValue:    s.maxOverflowValue,
		maxOverflowRegister: s.maxOverflowRegister,
	})

	// A sketch with zero non-zero registers always serializes dense: an
	// untouched sketch's canonical wire form is the all-zero dense buffer,
	// not a zero-length sparse entry list.
	if s.numNonZeroRegisters == 0 || s.numNonZeroRegisters >= DenseThreshold {
		dense := s.dense
		if dense == nil {
			dense = expandToDense(s.sparse)
		}
		buf := make([]byte, 0, len(header)+len(dense))
		buf = append(buf, header...)
		return append(buf, dense...)
	}

	entries := s.sparse
	if entries == nil {
		entries = buildSparse(s.dense)
	}
	buf := make([]byte, 0, len(header)+sparseEntrySize*len(entries))
	buf = append(buf, header...)
	for _, e := range entries {
		// The wire format stores each triple's position as an absolute
		// offset into the whole buffer, not payload-relative, so a parser
		// never needs to know the header size to walk the entry list.
		var eb [sparseEntrySize]byte
		binary.BigEndian.PutUint16(eb[:2], e.byteIndex+uint16(layoutV1.size))
		eb[2] = e.value
		buf = append(buf, eb[:]...)
	}
	return buf
}

// Parse decodes a serialized sketch, accepting either the current 7-byte
// header or the legacy 3-byte one. A legacy sketch is upgraded to the
// current layout in memory; Serialize never writes the legacy layout back
// out, so round-tripping a V0 sketch through this package silently migrates
// it.
func Parse(data []byte) (*Sketch, error) {
	layout := detectLayout(len(data))
	if len(data) < layout.size {
		return nil, fmt.Errorf("%w: %d bytes shorter than %d-byte header", ErrCorrupt, len(data), layout.size)
	}
	if data[0] != layout.version {
		return nil, fmt.Errorf("%w: unexpected version byte 0x%02x", ErrCorrupt, data[0])
	}

	h := decodeHeader(layout, data)
	payload := data[layout.size:]

	s := &Sketch{
		registerOffset:      h.registerOffset,
		maxOverflowValue:    h.maxOverflowValue,
		maxOverflowRegister: h.maxOverflowRegister,
	}

	if len(payload) == numBytesForBuckets {
		dense := make([]byte, numBytesForBuckets)
		copy(dense, payload)
		s.dense = dense
		s.denseOwned = true
		s.numNonZeroRegisters = resolveNonZeroDense(h, dense)
		return s, nil
	}

	entries, err := decodeSparseEntries(payload, layout.size)
	if err != nil {
		return nil, err
	}
	s.sparse = entries
	s.numNonZeroRegisters = resolveNonZeroSparse(h, entries)
	return s, nil
}

// ParseUnsafe decodes a serialized sketch the same way Parse does, except a
// dense payload is referenced directly out of data instead of copied: the
// caller must not mutate or reuse data afterward. Sparse payloads are
// always copied, since they're small and the copy-avoidance only matters
// for the 1024-byte dense case.
func ParseUnsafe(data []byte) (*Sketch, error) {
	layout := detectLayout(len(data))
	if len(data) < layout.size {
		return nil, fmt.Errorf("%w: %d bytes shorter than %d-byte header", ErrCorrupt, len(data), layout.size)
	}
	if data[0] != layout.version {
		return nil, fmt.Errorf("%w: unexpected version byte 0x%02x", ErrCorrupt, data[0])
	}

	h := decodeHeader(layout, data)
	payload := data[layout.size:]

	if len(payload) != numBytesForBuckets {
		return Parse(data)
	}

	return &Sketch{
		registerOffset:      h.registerOffset,
		maxOverflowValue:    h.maxOverflowValue,
		maxOverflowRegister: h.maxOverflowRegister,
		dense:               payload,
		denseOwned:          false,
		numNonZeroRegisters: resolveNonZeroDense(h, payload),
	}, nil
}

// decodeSparseEntries reads the wire's absolute byte positions back into
// payload-relative ones by subtracting headerSize, the inverse of the
// shift Serialize applies.
func decodeSparseEntries(payload []byte, headerSize int) ([]sparseEntry, error) {
	if len(payload)%sparseEntrySize != 0 {
		return nil, fmt.Errorf("%w: sparse payload length %d not a multiple of %d", ErrCorrupt, len(payload), sparseEntrySize)
	}
	n := len(payload) / sparseEntrySize
	entries := make([]sparseEntry, n)
	for i := 0; i < n; i++ {
		off := i * sparseEntrySize
		absolutePosition := binary.BigEndian.Uint16(payload[off:])
		if int(absolutePosition) < headerSize {
			return nil, fmt.Errorf("%w: sparse entry position %d precedes payload", ErrCorrupt, absolutePosition)
		}
		byteIndex := absolutePosition - uint16(headerSize)
		if int(byteIndex) >= numBytesForBuckets {
			return nil, fmt.Errorf("%w: sparse entry byte index %d out of range", ErrCorrupt, byteIndex)
		}
		entries[i] = sparseEntry{byteIndex: byteIndex, value: payload[off+2]}
	}
	return entries, nil
}

// resolveNonZeroDense trusts a header-carried non-zero count when present
// (current layout) and recomputes it from the payload otherwise (legacy
// layout, which never persisted it).
func resolveNonZeroDense(h decodedHeader, dense []byte) uint16 {
	if h.numNonZeroKnown {
		return h.numNonZeroRegisters
	}
	return countAllNonZero(dense)
}

func resolveNonZeroSparse(h decodedHeader, entries []sparseEntry) uint16 {
	if h.numNonZeroKnown {
		return h.numNonZeroRegisters
	}
	var n uint16
	for _, e := range entries {
		n += countNonZeroNibbles(e.value)
	}
	return n
}
