package hll

// getNibble reads the 4-bit register stored for bucket out of a dense
// payload. bucket 0 lives in the upper nibble of dense[0], bucket 1 in its
// lower nibble, bucket 2 in the upper nibble of dense[1], and so on.
func getNibble(dense []byte, bucket uint16) byte {
	b := dense[bucket>>1]
	if bucket&1 == 0 {
		return b >> bitsPerBucket
	}
	return b & 0x0f
}

// setNibbleMax stores max(existing, v) into the register for bucket,
// reports whether that register transitioned from zero to non-zero.
func setNibbleMax(dense []byte, bucket uint16, v byte) (becameNonZero bool) {
	idx := bucket >> 1
	b := dense[idx]
	if bucket&1 == 0 {
		old := b >> bitsPerBucket
		nv := old
		if v > old {
			nv = v
		}
		dense[idx] = (nv << bitsPerBucket) | (b & 0x0f)
		return old == 0 && nv > 0
	}
	old := b & 0x0f
	nv := old
	if v > old {
		nv = v
	}
	dense[idx] = (b & 0xf0) | nv
	return old == 0 && nv > 0
}

// countNonZeroNibbles reports how many of a byte's two packed registers are
// non-zero (0, 1, or 2).
func countNonZeroNibbles(b byte) uint16 {
	var n uint16
	if b&0xf0 != 0 {
		n++
	}
	if b&0x0f != 0 {
		n++
	}
	return n
}

// countAllNonZero scans a full dense payload and counts its non-zero
// registers. Used to recover numNonZeroRegisters when it isn't carried in
// the wire header (legacy layout).
func countAllNonZero(dense []byte) uint16 {
	var n uint16
	for _, b := range dense {
		n += countNonZeroNibbles(b)
	}
	return n
}

// decrementAllNibbles bulk-decrements every register by 1 when the shared
// registerOffset slides up by one, per the offset-rebase invariant: it is
// only called when every register is non-zero (numNonZeroRegisters ==
// NumBuckets), so a plain byte subtraction of 0x11 can never borrow across
// the nibble boundary. Returns the recomputed non-zero count.
func decrementAllNibbles(dense []byte) uint16 {
	var n uint16
	for i, b := range dense {
		nb := b - 0x11
		dense[i] = nb
		n += countNonZeroNibbles(nb)
	}
	return n
}
