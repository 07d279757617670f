package hll

import (
	"strings"
	"testing"
)

func TestNewIsEmptySparse(t *testing.T) {
	s := New()
	if s.isDense() {
		t.Fatal("New() sketch should start sparse")
	}
	if !s.cacheValid {
		t.Fatal("New() sketch should start with a valid (zero) cached estimate")
	}
	if got := s.Estimate(); got != 0 {
		t.Fatalf("New() sketch estimate = %v, want 0", got)
	}
}

func TestInvalidateCache(t *testing.T) {
	s := New()
	s.cacheValid = true
	s.cachedEstimate = 42
	s.invalidateCache()
	if s.cacheValid {
		t.Fatal("invalidateCache should clear cacheValid")
	}
}

func TestStringReportsRepresentation(t *testing.T) {
	s := New()
	if got := s.String(); !strings.Contains(got, "representation=sparse") {
		t.Fatalf("String() of a new sketch = %q, want it to report representation=sparse", got)
	}
	s.AddRaw(5, 3)
	got := s.String()
	if !s.isDense() {
		t.Fatal("AddRaw should have converted the sketch to dense")
	}
	if !strings.Contains(got, "representation=dense") {
		t.Fatalf("String() after mutation = %q, want it to report representation=dense", got)
	}
}

func TestCompareOrdersByOffsetThenCountThenEstimate(t *testing.T) {
	low := New()
	high := New()
	high.registerOffset = 1

	if got := Compare(low, high); got != -1 {
		t.Fatalf("Compare(low offset, high offset) = %d, want -1", got)
	}
	if got := Compare(high, low); got != 1 {
		t.Fatalf("Compare(high offset, low offset) = %d, want 1", got)
	}

	fewer := New()
	fewer.AddRaw(1, 3)
	more := New()
	more.AddRaw(1, 3)
	more.AddRaw(2, 3)

	if got := Compare(fewer, more); got != -1 {
		t.Fatalf("Compare(fewer non-zero, more non-zero) = %d, want -1", got)
	}

	a := New()
	a.AddRaw(1, 3)
	b := New()
	b.AddRaw(1, 3)
	if got := Compare(a, b); got != 0 {
		t.Fatalf("Compare(identical sketches) = %d, want 0", got)
	}
}

func TestCompareIsNotSelfReferential(t *testing.T) {
	// Regression test for the source's self-comparison bug (spec.md §9): the
	// non-zero count step must compare lhs against rhs. Here lhs has fewer
	// non-zero registers but the higher estimate, so a comparison that read
	// lhs's count twice would tie on count and report 1 from the estimate.
	fewer := New()
	for bucket := uint16(0); bucket < 1500; bucket++ {
		fewer.AddRaw(bucket, 15)
	}
	more := New()
	for bucket := uint16(0); bucket < 1600; bucket++ {
		more.AddRaw(bucket, 1)
	}
	if fewer.Estimate() <= more.Estimate() {
		t.Fatalf("test setup invalid: want fewer's estimate %v above more's %v", fewer.Estimate(), more.Estimate())
	}
	if got := Compare(fewer, more); got != -1 {
		t.Fatalf("Compare(fewer non-zero, more non-zero) = %d, want -1 (count decides before estimate)", got)
	}

	// Equal offset and non-zero count must fall through to comparing each
	// side's own estimate.
	a := New()
	for bucket := uint16(0); bucket < 50; bucket++ {
		a.AddRaw(bucket, 5)
	}
	b := New()
	for bucket := uint16(0); bucket < 50; bucket++ {
		b.AddRaw(bucket+1000, 5)
	}
	if a.numNonZeroRegisters != b.numNonZeroRegisters {
		t.Fatalf("test setup invalid: non-zero counts differ (%d vs %d)", a.numNonZeroRegisters, b.numNonZeroRegisters)
	}
	// Same offset, same count: comparison must be driven by estimate, and
	// here the estimates are identical too (same shape, different buckets),
	// so this exercises the "reaches the estimate tie-break and returns 0
	// for the right reason" path rather than short-circuiting earlier.
	if got := Compare(a, b); got != 0 {
		t.Fatalf("Compare(a, b) = %d, want 0 (estimates should match)", got)
	}
}
