package disruptor

// isPowerOfTwo reports whether n is a positive power of two.
func isPowerOfTwo(n int64) bool {
	return n > 0 && n&(n-1) == 0
}

// log2 returns k such that n == 1<<k.
// n must already be validated as a power of two.
func log2(n int64) uint {
	var k uint
	for n > 1 {
		n >>= 1
		k++
	}
	return k
}

// minCursorSequence returns the minimum value across the given sequences,
// starting from fallback. With an empty slice it returns fallback, which
// callers use to gate a producer against its own cursor when no consumers
// are registered.
func minCursorSequence(sequences []*Sequence, fallback int64) int64 {
	minimum := fallback
	for _, s := range sequences {
		if seq := s.Get(); seq < minimum {
			minimum = seq
		}
	}
	return minimum
}
