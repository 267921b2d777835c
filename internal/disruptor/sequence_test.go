package disruptor

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequence_InitialValue(t *testing.T) {
	s := NewSequence(InitialSequence)
	assert.Equal(t, int64(-1), s.Get())
}

func TestSequence_SetGet(t *testing.T) {
	s := NewSequence(InitialSequence)
	s.Set(42)
	assert.Equal(t, int64(42), s.Get())
}

func TestSequence_CompareAndSwap(t *testing.T) {
	s := NewSequence(5)

	require.True(t, s.CompareAndSwap(5, 6), "swap from current value should succeed")
	assert.Equal(t, int64(6), s.Get())

	require.False(t, s.CompareAndSwap(5, 7), "swap from stale value should fail")
	assert.Equal(t, int64(6), s.Get())
}

func TestSequence_IncrementAndGet(t *testing.T) {
	s := NewSequence(InitialSequence)
	assert.Equal(t, int64(0), s.IncrementAndGet(1))
	assert.Equal(t, int64(4), s.IncrementAndGet(4))
	assert.Equal(t, int64(4), s.Get())
}

func TestSequence_ConcurrentIncrement(t *testing.T) {
	s := NewSequence(InitialSequence)

	const goroutines = 8
	const perGoroutine = 1000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				s.IncrementAndGet(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(goroutines*perGoroutine-1), s.Get())
}

func TestRelaxedSequence_Counter(t *testing.T) {
	s := NewRelaxedSequence(InitialSequence)
	assert.Equal(t, int64(-1), s.Get())

	s.Set(10)
	assert.Equal(t, int64(10), s.Get())

	assert.Equal(t, int64(13), s.IncrementAndGet(3))

	require.True(t, s.CompareAndSwap(13, 14))
	require.False(t, s.CompareAndSwap(13, 15))
	assert.Equal(t, int64(14), s.Get())
}

// Both counter types must satisfy the shared contract.
var (
	_ Counter = (*Sequence)(nil)
	_ Counter = (*RelaxedSequence)(nil)
)
