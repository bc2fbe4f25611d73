package frame

// bitmap is a fixed-size bitset backed by a slice of uint64 words. Frames use
// one per column to track null cells: bit i set means row i holds a null.
type bitmap struct {
	data []uint64
}

// newBitmap allocates a bitmap covering row indices [0, n).
func newBitmap(n int) *bitmap {
	if n <= 0 {
		return &bitmap{data: nil}
	}
	nWords := (n + 63) / 64
	return &bitmap{data: make([]uint64, nWords)}
}

// set marks the bit for i. Out-of-range indices are ignored.
func (b *bitmap) set(i int) {
	if i < 0 {
		return
	}
	word := i / 64
	if word >= len(b.data) {
		return
	}
	b.data[word] |= 1 << uint(i%64)
}

// clear unmarks the bit for i.
func (b *bitmap) clear(i int) {
	if i < 0 {
		return
	}
	word := i / 64
	if word >= len(b.data) {
		return
	}
	b.data[word] &^= 1 << uint(i%64)
}

// has reports whether the bit for i is set.
func (b *bitmap) has(i int) bool {
	if i < 0 {
		return false
	}
	word := i / 64
	if word >= len(b.data) {
		return false
	}
	return (b.data[word] & (1 << uint(i%64))) != 0
}

// any reports whether at least one bit is set.
func (b *bitmap) any() bool {
	for _, w := range b.data {
		if w != 0 {
			return true
		}
	}
	return false
}

// clone returns an independent copy.
func (b *bitmap) clone() *bitmap {
	out := &bitmap{data: make([]uint64, len(b.data))}
	copy(out.data, b.data)
	return out
}
