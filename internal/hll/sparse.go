package hll

// expandToDense materializes the conceptual 1024-byte dense payload out of
// a list of sparse entries, in any order. Byte positions not present in entries
// are left zero.
func expandToDense(entries []sparseEntry) []byte {
	dense := make([]byte, numBytesForBuckets)
	for _, e := range entries {
		dense[e.byteIndex] = e.value
	}
	return dense
}

// buildSparse extracts the non-zero payload bytes of dense into a sorted
// sparseEntry list, the representation Serialize emits when occupancy is
// below DenseThreshold.
func buildSparse(dense []byte) []sparseEntry {
	entries := make([]sparseEntry, 0, DenseThreshold)
	for i, b := range dense {
		if b != 0 {
			entries = append(entries, sparseEntry{byteIndex: uint16(i), value: b})
		}
	}
	return entries
}

// convertToDense expands the sketch's sparse payload into dense form
// in-place. Called before any mutation, per the invariant that mutation
// always operates on a dense payload.
func (s *Sketch) convertToDense() {
	s.dense = expandToDense(s.sparse)
	s.denseOwned = true
	s.sparse = nil
}
