package frame

import "testing"

// TestBitmapWordBoundaries exercises set/clear/has around the 64-bit word
// boundary, where index math bugs would hide.
func TestBitmapWordBoundaries(t *testing.T) {
	t.Parallel()

	b := newBitmap(130)
	for _, i := range []int{0, 63, 64, 127, 128, 129} {
		if b.has(i) {
			t.Fatalf("bit %d set in fresh bitmap", i)
		}
		b.set(i)
		if !b.has(i) {
			t.Fatalf("bit %d not set after set", i)
		}
		b.clear(i)
		if b.has(i) {
			t.Fatalf("bit %d still set after clear", i)
		}
	}
	if b.any() {
		t.Fatalf("any=true after clearing everything")
	}
	b.set(65)
	if !b.any() {
		t.Fatalf("any=false with bit 65 set")
	}
}

// TestBitmapOutOfRange verifies out-of-range and negative indices are inert
// rather than panicking.
func TestBitmapOutOfRange(t *testing.T) {
	t.Parallel()

	b := newBitmap(4)
	b.set(-1)
	b.set(100)
	b.clear(-1)
	b.clear(100)
	if b.has(-1) || b.has(100) {
		t.Fatalf("out-of-range has should be false")
	}
	if b.any() {
		t.Fatalf("out-of-range set mutated the bitmap")
	}

	z := newBitmap(0)
	z.set(0)
	if z.has(0) || z.any() {
		t.Fatalf("zero-length bitmap should stay empty")
	}
}
