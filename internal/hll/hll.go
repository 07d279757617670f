// Package hll implements a nibble-packed HyperLogLog cardinality sketch
// tuned for columnar/analytic storage engines: a fixed-size, mergeable
// probabilistic counter that estimates the number of distinct values seen
// in a stream, with two on-wire representations chosen to keep low-
// cardinality sketches small.
//
// The Algorithm
// =============
//
// Each observed value is reduced, by the caller, to a hashed byte string of
// at least 10 bytes. This package treats that hashing as somebody else's
// job (see "Out of Scope" below) and only interprets the fixed fields of
// the hashed value:
//
//  1. The last two bytes, masked to 11 bits, select one of 2048 registers
//     ("buckets").
//  2. The leading 8 bytes are scanned for the position of the first set
//     bit (1-based; 64 if all 8 bytes happen to be zero). Each register
//     tracks the maximum position ever observed for values hashing to it.
//
// A register's true value is rarely small once a sketch has seen enough
// data, so instead of storing the raw position, every register stores the
// position minus a shared, sketch-wide baseline: registerOffset. Because
// the spread of positions above the baseline is narrow in practice, the
// difference fits in 4 bits (a nibble) for all but at most one outlier
// register per sketch, which is instead tracked out-of-band in a single
// "overflow" slot. When even the 4-bit window fills up (every register
// non-zero), the baseline is bumped by one and every stored nibble is
// decremented to match — a bulk rebase that keeps the 4-bit encoding valid
// as the sketch's cardinality grows.
//
// Representations
// ================
//
// A sketch holds its 2048 registers one of two ways:
//
//   - Dense: exactly 1024 bytes, two 4-bit registers per byte.
//   - Sparse: a list of (byte index, byte value) pairs for the non-zero
//     payload bytes only (sorted by index when built by this package;
//     Parse keeps the wire order). Cheap when few registers have been
//     touched.
//
// Mutating a sparse sketch always first expands it to dense; serializing a
// dense sketch with few non-zero registers downgrades it back to sparse.
// See codec.go for the exact thresholds and wire layout.
//
// Versions
// ========
//
// Two on-wire header layouts exist: the current 7-byte layout (registerOffset,
// non-zero count, and overflow slot all persisted) and a legacy 3-byte
// layout that predates the overflow slot. Parse accepts both; this package
// never writes the legacy layout. See header.go.
//
// Out of Scope
// =============
//
// This package does not hash values, does not know about the aggregation
// framework that would call Add once per row, and does not do any
// transport or JSON encoding of its own — callers pass it opaque byte
// strings and get opaque byte strings back. A Sketch is also not safe for
// concurrent mutation: it is written with the same single-writer assumption
// as the sketch this design is descended from ("if you have multiple
// threads calling methods on this concurrently, I hope you manage to get
// correct behavior").
package hll

import "strconv"

const (
	// BitsForBuckets is the number of low bits of a hashed value's trailing
	// 16 bits used to select a register.
	BitsForBuckets = 11

	// NumBuckets is the number of registers in a sketch (2^BitsForBuckets).
	NumBuckets = 1 << BitsForBuckets

	// NumBytesForBuckets is the size of the dense payload: two 4-bit
	// registers packed per byte.
	NumBytesForBuckets = NumBuckets / 2

	// DenseThreshold is the number of non-zero registers at or above which
	// Serialize emits the dense wire form instead of sparse.
	DenseThreshold = 128

	// BitsPerBucket is the width of one packed register.
	BitsPerBucket = 4

	// Range is the span of values representable by one 4-bit register
	// above registerOffset: [registerOffset+1, registerOffset+Range].
	Range = (1 << BitsPerBucket) - 1

	// MinHashLen is the minimum length, in bytes, of a value passed to Add.
	MinHashLen = 10

	numBytesForBuckets = NumBytesForBuckets // lowercase alias used by other files in this package
	bitsPerBucket       = BitsPerBucket
	bucketMask           = uint16(NumBuckets - 1)
)

// sparseEntry is one non-zero byte of the conceptual 1024-byte dense
// payload, kept in a slice when the sketch is in sparse form.
// byteIndex addresses the payload byte (which holds two adjacent buckets,
// 2*byteIndex and 2*byteIndex+1), not an individual bucket.
type sparseEntry struct {
	byteIndex uint16
	value     byte
}

// Sketch is a single HyperLogLog cardinality sketch. It owns its own
// register storage; the zero value is not usable, use New or Parse.
//
// A Sketch is not safe for concurrent mutation. Reading an immutable
// Sketch from multiple goroutines is fine as long as none of them mutate
// it.
type Sketch struct {
	registerOffset      byte
	numNonZeroRegisters uint16
	maxOverflowValue    byte
	maxOverflowRegister uint16

	dense      []byte        // exactly NumBytesForBuckets when non-nil
	denseOwned bool          // false only right after ParseUnsafe on a dense payload
	sparse     []sparseEntry // wire order after Parse, which does not sort; nil when dense is in use

	cachedEstimate float64
	cacheValid     bool
}

// New returns an empty sketch: zero registers, zero offset, no overflow, in
// sparse form.
func New() *Sketch {
	return &Sketch{
		sparse:     make([]sparseEntry, 0, 8),
		cacheValid: true, // estimate of an empty sketch is 0 and needs no computation
	}
}

// isDense reports whether the sketch is currently in dense representation.
func (s *Sketch) isDense() bool {
	return s.dense != nil
}

// invalidateCache marks the cached estimate stale. Called by every mutating
// operation.
func (s *Sketch) invalidateCache() {
	s.cacheValid = false
}

// String renders diagnostic state, mirroring the fields the sketch this
// design is descended from exposes for debugging.
func (s *Sketch) String() string {
	rep := "sparse"
	if s.isDense() {
		rep = "dense"
	}
	return "hll.Sketch{" +
		"representation=" + rep +
		", registerOffset=" + strconv.Itoa(int(s.registerOffset)) +
		", numNonZeroRegisters=" + strconv.Itoa(int(s.numNonZeroRegisters)) +
		", maxOverflowValue=" + strconv.Itoa(int(s.maxOverflowValue)) +
		", maxOverflowRegister=" + strconv.Itoa(int(s.maxOverflowRegister)) +
		"}"
}

// Compare orders two sketches, breaking ties among equal-cardinality
// sketches the way the aggregation framework that owns this sketch would:
// first by registerOffset, then by non-zero register count, then by
// estimate. The source this design is descended from compared a sketch to
// itself here by mistake (always yielding 0, since it compared lhs against
// its own receiver instead of rhs) — that has been fixed, per the design
// note in SPEC_FULL.md.
func Compare(lhs, rhs *Sketch) int {
	if lhs.registerOffset != rhs.registerOffset {
		if lhs.registerOffset < rhs.registerOffset {
			return -1
		}
		return 1
	}
	if lhs.numNonZeroRegisters != rhs.numNonZeroRegisters {
		if lhs.numNonZeroRegisters < rhs.numNonZeroRegisters {
			return -1
		}
		return 1
	}
	le, re := lhs.Estimate(), rhs.Estimate()
	switch {
	case le < re:
		return -1
	case le > re:
		return 1
	default:
		return 0
	}
}
