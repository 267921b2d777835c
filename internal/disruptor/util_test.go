package disruptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPowerOfTwo(t *testing.T) {
	tests := []struct {
		n    int64
		want bool
	}{
		{0, false},
		{1, true},
		{2, true},
		{3, false},
		{4, true},
		{6, false},
		{100, false},
		{1024, true},
		{-8, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, isPowerOfTwo(tt.n), "isPowerOfTwo(%d)", tt.n)
	}
}

func TestLog2(t *testing.T) {
	tests := []struct {
		n    int64
		want uint
	}{
		{1, 0},
		{2, 1},
		{8, 3},
		{1024, 10},
		{8192, 13},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, log2(tt.n), "log2(%d)", tt.n)
	}
}

func TestMinCursorSequence(t *testing.T) {
	a := NewSequence(5)
	b := NewSequence(3)
	c := NewSequence(9)

	assert.Equal(t, int64(3), minCursorSequence([]*Sequence{a, b, c}, 100))
	assert.Equal(t, int64(2), minCursorSequence([]*Sequence{a, b, c}, 2),
		"fallback below all sequences wins")
	assert.Equal(t, int64(7), minCursorSequence(nil, 7),
		"empty set returns the fallback")
}
