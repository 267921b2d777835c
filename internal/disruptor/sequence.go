package disruptor

import "sync/atomic"

const (
	// InitialSequence is the value of every sequence before anything has
	// been produced or consumed.
	InitialSequence int64 = -1

	// cacheLineSize is the assumed CPU cache line size in bytes.
	cacheLineSize = 64
)

// Counter is the contract shared by the ordered and relaxed sequence types.
//
// Every counter in the engine is one of the two implementations below.
// Which one is used at a given site is a correctness decision, not a
// performance detail: substituting RelaxedSequence where Sequence is
// required introduces a data race.
type Counter interface {
	Get() int64
	Set(value int64)
	CompareAndSwap(expected, next int64) bool
	IncrementAndGet(delta int64) int64
}

// Sequence is an ordered, monotonically non-decreasing counter shared
// across goroutines.
//
// Loads carry at-least-acquire and stores at-least-release semantics
// (Go's sync/atomic is sequentially consistent, which is stronger), so a
// consumer that observes an updated sequence also observes every slot
// write that happened before the corresponding Set.
//
// Padding keeps each counter on its own cache line so that a hot producer
// cursor and a hot consumer sequence never cause false sharing.
type Sequence struct {
	_     [cacheLineSize]byte
	value atomic.Int64
	_     [cacheLineSize - 8]byte
}

// NewSequence returns a sequence initialized to the given value.
func NewSequence(initial int64) *Sequence {
	s := &Sequence{}
	s.value.Store(initial)
	return s
}

// Get atomically loads the current value (acquire).
func (s *Sequence) Get() int64 {
	return s.value.Load()
}

// Set atomically stores the value (release).
func (s *Sequence) Set(value int64) {
	s.value.Store(value)
}

// CompareAndSwap atomically replaces expected with next.
// Returns true if the swap happened.
func (s *Sequence) CompareAndSwap(expected, next int64) bool {
	return s.value.CompareAndSwap(expected, next)
}

// IncrementAndGet atomically adds delta and returns the new value.
func (s *Sequence) IncrementAndGet(delta int64) int64 {
	return s.value.Add(delta)
}

// RelaxedSequence is a counter with no cross-goroutine ordering guarantees.
//
// It must only be used for counters that are both written and read by a
// single goroutine: the single-producer sequencer's claim cursor and cached
// gate, or a processor's private statistics before its goroutine is joined.
// Publishing a RelaxedSequence value to another goroutine without an
// intervening synchronization point is a data race.
type RelaxedSequence struct {
	value int64
}

// NewRelaxedSequence returns a relaxed counter initialized to the given value.
func NewRelaxedSequence(initial int64) *RelaxedSequence {
	return &RelaxedSequence{value: initial}
}

// Get returns the current value. Plain load, no ordering.
func (s *RelaxedSequence) Get() int64 {
	return s.value
}

// Set stores the value. Plain store, no ordering.
func (s *RelaxedSequence) Set(value int64) {
	s.value = value
}

// CompareAndSwap replaces expected with next. Without atomicity this is
// only meaningful on the owning goroutine; it exists to satisfy Counter.
func (s *RelaxedSequence) CompareAndSwap(expected, next int64) bool {
	if s.value != expected {
		return false
	}
	s.value = next
	return true
}

// IncrementAndGet adds delta and returns the new value.
func (s *RelaxedSequence) IncrementAndGet(delta int64) int64 {
	s.value += delta
	return s.value
}
