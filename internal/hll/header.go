package hll

import "encoding/binary"

// currentVersion is the only header layout this package ever writes.
// legacyVersion identifies the older, narrower on-disk layout that this
// package still accepts on Parse.
const (
	currentVersion byte = 0x01
	legacyVersion  byte = 0x00
)

// headerLayout is the tagged-variant descriptor mentioned in the design
// notes: rather than an inheritance hierarchy of header subtypes, each wire
// version is described by one of these value structs, and the payload
// decoding logic downstream is identical regardless of which one applies.
//
// A field offset of -1 means the version's header does not carry that field
// at all; the decoder falls back to a version-appropriate default (always
// zero, since the only version missing fields is the legacy one, which
// predates the overflow slot and does not persist a running non-zero count).
type headerLayout struct {
	version              byte
	size                 int
	registerOffsetPos    int
	numNonZeroPos        int // 2 bytes, big-endian, or -1
	maxOverflowValuePos  int // 1 byte, or -1
	maxOverflowRegPos    int // 2 bytes, big-endian, or -1
}

var (
	// layoutV1 is the current 7-byte header:
	// version(1) | registerOffset(1) | numNonZeroRegisters(2) | maxOverflowValue(1) | maxOverflowRegister(2)
	layoutV1 = headerLayout{
		version:             currentVersion,
		size:                7,
		registerOffsetPos:   1,
		numNonZeroPos:       2,
		maxOverflowValuePos: 4,
		maxOverflowRegPos:   5,
	}

	// layoutV0 is the legacy 3-byte header: version(1) | registerOffset(1) | reserved(1).
	// It predates the overflow slot and the persisted non-zero-register count,
	// so both are treated as absent and recovered from the payload on parse.
	layoutV0 = headerLayout{
		version:             legacyVersion,
		size:                3,
		registerOffsetPos:   1,
		numNonZeroPos:       -1,
		maxOverflowValuePos: -1,
		maxOverflowRegPos:   -1,
	}
)

// detectLayout implements the version-sniffing rule from the wire format:
// remaining length divisible by 3, or exactly the empty dense legacy size
// (3-byte header + 1024-byte payload), identifies the legacy layout;
// everything else is current.
func detectLayout(remaining int) headerLayout {
	if remaining%3 == 0 || remaining == layoutV0.size+numBytesForBuckets {
		return layoutV0
	}
	return layoutV1
}

// decodedHeader is the in-memory, version-independent view of a sketch's
// header fields, produced by decoding whichever wire layout was detected.
type decodedHeader struct {
	registerOffset      byte
	numNonZeroRegisters uint16 // meaningful only when numNonZeroKnown
	numNonZeroKnown     bool
	maxOverflowValue    byte
	maxOverflowRegister uint16
}

// decodeHeader reads the fields present in layout out of data, which must
// be at least layout.size bytes long. Fields the layout does not carry are
// left at their zero value with numNonZeroKnown = false.
func decodeHeader(layout headerLayout, data []byte) decodedHeader {
	h := decodedHeader{
		registerOffset: data[layout.registerOffsetPos],
	}
	if layout.numNonZeroPos >= 0 {
		h.numNonZeroRegisters = binary.BigEndian.Uint16(data[layout.numNonZeroPos:])
		h.numNonZeroKnown = true
	}
	if layout.maxOverflowValuePos >= 0 {
		h.maxOverflowValue = data[layout.maxOverflowValuePos]
	}
	if layout.maxOverflowRegPos >= 0 {
		h.maxOverflowRegister = binary.BigEndian.Uint16(data[layout.maxOverflowRegPos:])
	}
	return h
}

// encodeHeaderV1 writes the current 7-byte header layout for h into a fresh
// buffer. This package never emits the legacy layout.
func encodeHeaderV1(h decodedHeader) []byte {
	buf := make([]byte, layoutV1.size)
	buf[0] = currentVersion
	buf[layoutV1.registerOffsetPos] = h.registerOffset
	binary.BigEndian.PutUint16(buf[layoutV1.numNonZeroPos:], h.numNonZeroRegisters)
	buf[layoutV1.maxOverflowValuePos] = h.maxOverflowValue
	binary.BigEndian.PutUint16(buf[layoutV1.maxOverflowRegPos:], h.maxOverflowRegister)
	return buf
}
