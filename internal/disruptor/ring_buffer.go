package disruptor

// ProducerMode selects the claim protocol.
type ProducerMode int

const (
	// SingleProducer skips the CAS claim loop. Exactly one goroutine may
	// claim and publish.
	SingleProducer ProducerMode = iota

	// MultiProducer coordinates concurrent claims with a CAS loop and
	// per-slot availability tracking.
	MultiProducer
)

// String implements fmt.Stringer.
func (m ProducerMode) String() string {
	switch m {
	case SingleProducer:
		return "single"
	case MultiProducer:
		return "multi"
	default:
		return "unknown"
	}
}

// Config holds ring buffer configuration.
type Config struct {
	// Capacity is the number of slots. Must be a power of 2.
	Capacity int64

	// WaitStrategy selects how consumers wait for new sequences.
	WaitStrategy WaitStrategyKind

	// Producers selects single- or multi-producer claim coordination.
	Producers ProducerMode
}

// DefaultConfig returns reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Capacity:     8192,
		WaitStrategy: Yielding,
		Producers:    SingleProducer,
	}
}

// SequenceRange is a contiguous claimed range of sequences, inclusive on
// both ends. Lo == Hi for single-slot claims.
type SequenceRange struct {
	Lo int64
	Hi int64
}

// Len returns the number of sequences in the range.
func (r SequenceRange) Len() int64 {
	return r.Hi - r.Lo + 1
}

// RingBuffer is the pre-allocated slot storage plus its Sequencer.
//
// Slots are value-typed and reused in place: a producer has exclusive
// write access to a slot between claim and publish, after which the slot
// is read-only for consumers until the ring wraps and the backpressure
// gate allows a future claim to overwrite it. No lock ever protects slot
// contents.
type RingBuffer[T any] struct {
	entries   []T
	mask      int64
	capacity  int64
	sequencer Sequencer
}

// NewRingBuffer creates a ring buffer. It fails with a ConfigError if the
// capacity is zero or not a power of two; no partial buffer is created.
func NewRingBuffer[T any](config Config) (*RingBuffer[T], error) {
	if !isPowerOfTwo(config.Capacity) {
		return nil, &ConfigError{
			Field:  "Capacity",
			Value:  config.Capacity,
			Reason: "must be a positive power of 2",
		}
	}

	wait := config.WaitStrategy.New()

	var sequencer Sequencer
	switch config.Producers {
	case MultiProducer:
		sequencer = newMultiProducerSequencer(config.Capacity, wait)
	default:
		sequencer = newSingleProducerSequencer(config.Capacity, wait)
	}

	return &RingBuffer[T]{
		entries:   make([]T, config.Capacity),
		mask:      config.Capacity - 1,
		capacity:  config.Capacity,
		sequencer: sequencer,
	}, nil
}

// Get returns the slot for the given sequence. The caller must hold the
// claim (producer between claim and publish) or have observed the sequence
// through a barrier (consumer).
func (rb *RingBuffer[T]) Get(sequence int64) *T {
	return &rb.entries[sequence&rb.mask]
}

// Capacity returns the fixed slot count.
func (rb *RingBuffer[T]) Capacity() int64 {
	return rb.capacity
}

// Claim reserves n contiguous slots, blocking while the ring is full
// relative to the slowest consumer. Returns ErrAlerted once halted.
func (rb *RingBuffer[T]) Claim(n int64) (SequenceRange, error) {
	hi, err := rb.sequencer.Next(n)
	if err != nil {
		return SequenceRange{}, err
	}
	return SequenceRange{Lo: hi - n + 1, Hi: hi}, nil
}

// TryClaim reserves n contiguous slots without blocking. Returns
// ErrInsufficientCapacity when the ring is full.
func (rb *RingBuffer[T]) TryClaim(n int64) (SequenceRange, error) {
	hi, err := rb.sequencer.TryNext(n)
	if err != nil {
		return SequenceRange{}, err
	}
	return SequenceRange{Lo: hi - n + 1, Hi: hi}, nil
}

// Publish makes a claimed range visible to consumers.
func (rb *RingBuffer[T]) Publish(r SequenceRange) {
	rb.sequencer.Publish(r.Lo, r.Hi)
}

// RemainingCapacity returns the number of slots a producer could still
// claim without blocking.
func (rb *RingBuffer[T]) RemainingCapacity() int64 {
	return rb.sequencer.RemainingCapacity()
}

// NewBarrier builds a consumer barrier over the producer cursor and the
// given upstream sequences. Pass no dependents for a first-stage consumer.
func (rb *RingBuffer[T]) NewBarrier(dependents ...*Sequence) *SequenceBarrier {
	return rb.sequencer.NewBarrier(dependents...)
}

// AddGatingSequences registers consumer sequences for backpressure.
func (rb *RingBuffer[T]) AddGatingSequences(sequences ...*Sequence) {
	rb.sequencer.AddGatingSequences(sequences...)
}

// RemoveGatingSequence deregisters a consumer sequence.
func (rb *RingBuffer[T]) RemoveGatingSequence(sequence *Sequence) bool {
	return rb.sequencer.RemoveGatingSequence(sequence)
}

// Halt makes pending and future claims return ErrAlerted.
func (rb *RingBuffer[T]) Halt() {
	rb.sequencer.Halt()
}

// Cursor exposes the producer cursor, mainly for tests and diagnostics.
func (rb *RingBuffer[T]) Cursor() *Sequence {
	return rb.sequencer.Cursor()
}
