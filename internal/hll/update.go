package hll

import (
	"encoding/binary"
	"fmt"
)

// hashToBucketAndPosition splits a hashed value into the register it
// belongs to and the position of the first set bit in its leading 8 bytes.
//
// The bucket comes from the trailing two bytes, masked to BitsForBuckets
// bits. The position comes from scanning the leading 8 bytes for the first
// non-zero one: an all-zero byte contributes 8 (all 8 of its bits were
// leading zeros) and scanning continues into the next byte; a non-zero byte
// contributes the 1-based position of its topmost set bit and scanning
// stops. If all 8 leading bytes are zero the result is 64.
func hashToBucketAndPosition(hashed []byte) (bucket uint16, positionOf1 byte) {
	bucket = binary.BigEndian.Uint16(hashed[len(hashed)-2:]) & bucketMask

	for i := 0; i < 8; i++ {
		lookup := leadingOneLookup[hashed[i]]
		if lookup == 0 {
			positionOf1 += 8
			continue
		}
		positionOf1 += lookup
		break
	}
	return bucket, positionOf1
}

// Add folds a hashed value into the sketch. hashed must be at least
// MinHashLen bytes; only its trailing two bytes and leading eight bytes are
// examined. Producing hashed from an application value is the caller's
// responsibility — this package treats hashing as an external concern.
func (s *Sketch) Add(hashed []byte) error {
	if len(hashed) < MinHashLen {
		return fmt.Errorf("%w: need %d bytes, got %d", ErrShortHash, MinHashLen, len(hashed))
	}
	bucket, positionOf1 := hashToBucketAndPosition(hashed)
	s.AddRaw(bucket, positionOf1)
	return nil
}

// AddRaw updates a single register directly, given an already-computed
// bucket and position-of-first-one. It is the low-level counterpart to Add,
// useful for tests and for callers that split a foreign hash themselves; it
// is also how Fold merges the overflow slot of the sketch being absorbed.
func (s *Sketch) AddRaw(bucket uint16, positionOf1 byte) {
	s.invalidateCache()

	offset := s.registerOffset
	switch {
	case positionOf1 <= offset:
		// Below the window this sketch currently tracks; discard.
		return

	case int(positionOf1) > int(offset)+Range:
		// Above the 4-bit window: the single out-of-band overflow slot only
		// ever remembers the largest such outlier.
		if positionOf1 > s.maxOverflowValue {
			s.maxOverflowValue = positionOf1
			s.maxOverflowRegister = bucket
		}
		return

	default:
		s.ensureDense()
		v := positionOf1 - offset
		if setNibbleMax(s.dense, bucket, v) {
			s.numNonZeroRegisters++
		}
		if s.numNonZeroRegisters == NumBuckets {
			s.registerOffset++
			s.numNonZeroRegisters = decrementAllNibbles(s.dense)
		}
	}
}

// ensureWritable clones the dense payload if it currently aliases an
// external buffer (produced by ParseUnsafe), so it is safe to mutate
// in-place. A no-op once the sketch owns its own storage.
func (s *Sketch) ensureWritable() {
	if s.dense != nil && !s.denseOwned {
		clone := make([]byte, len(s.dense))
		copy(clone, s.dense)
		s.dense = clone
		s.denseOwned = true
	}
}

// ensureDense guarantees the sketch is both writable and in dense
// representation, expanding from sparse if necessary. Every payload
// mutation goes through this first.
func (s *Sketch) ensureDense() {
	if s.sparse != nil {
		s.convertToDense()
		return
	}
	s.ensureWritable()
}
