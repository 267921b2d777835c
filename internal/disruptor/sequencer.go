package disruptor

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Sequencer is the producer-side coordinator: it claims slots, tracks the
// published cursor, and gates claims on the slowest registered consumer so
// unconsumed data is never overwritten.
//
// Next and Publish never fail during normal operation; a producer facing a
// full ring blocks (spins) until consumers advance. Once Halt is called,
// pending and future claims return ErrAlerted.
type Sequencer interface {
	// Next reserves n contiguous slots and returns the end sequence of the
	// range (the start is end-n+1). Blocks while the ring is full.
	Next(n int64) (int64, error)

	// TryNext is the non-blocking variant: it returns
	// ErrInsufficientCapacity instead of waiting for consumers.
	TryNext(n int64) (int64, error)

	// Publish makes the slots in [lo, hi] visible to consumers and wakes
	// any blocking waiters.
	Publish(lo, hi int64)

	// Cursor returns the sequence wait strategies observe for this ring.
	Cursor() *Sequence

	// AddGatingSequences registers consumer sequences producers must stay
	// at most one ring-length ahead of.
	AddGatingSequences(sequences ...*Sequence)

	// RemoveGatingSequence deregisters a consumer sequence. Returns true
	// if it was registered.
	RemoveGatingSequence(sequence *Sequence) bool

	// RemainingCapacity returns how many slots can still be claimed before
	// the ring is full relative to the slowest gating sequence.
	RemainingCapacity() int64

	// Halt makes pending and future claims return ErrAlerted.
	Halt()

	// NewBarrier builds a barrier over the producer cursor and the given
	// upstream consumer sequences.
	NewBarrier(dependents ...*Sequence) *SequenceBarrier

	publishedResolver
}

// gatingSequences is a copy-on-write set of consumer sequences. The hot
// path loads the slice with a single atomic read; registration is rare and
// serialized by the mutex.
type gatingSequences struct {
	mu   sync.Mutex
	list atomic.Pointer[[]*Sequence]
}

func (g *gatingSequences) load() []*Sequence {
	if p := g.list.Load(); p != nil {
		return *p
	}
	return nil
}

func (g *gatingSequences) add(sequences ...*Sequence) {
	g.mu.Lock()
	defer g.mu.Unlock()
	current := g.load()
	next := make([]*Sequence, 0, len(current)+len(sequences))
	next = append(next, current...)
	next = append(next, sequences...)
	g.list.Store(&next)
}

func (g *gatingSequences) remove(sequence *Sequence) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	current := g.load()
	next := make([]*Sequence, 0, len(current))
	found := false
	for _, s := range current {
		if s == sequence {
			found = true
			continue
		}
		next = append(next, s)
	}
	if found {
		g.list.Store(&next)
	}
	return found
}

// singleProducerSequencer claims without any CAS: exactly one goroutine may
// call Next/TryNext/Publish. nextValue and cachedGate are RelaxedSequences:
// they are owned by the producer goroutine and nothing else orders against
// them; cross-thread publication happens only through the cursor store in
// Publish.
type singleProducerSequencer struct {
	bufferSize int64
	wait       WaitStrategy
	cursor     *Sequence
	gating     gatingSequences
	halted     atomic.Bool

	nextValue  *RelaxedSequence
	cachedGate *RelaxedSequence
}

func newSingleProducerSequencer(bufferSize int64, wait WaitStrategy) *singleProducerSequencer {
	return &singleProducerSequencer{
		bufferSize: bufferSize,
		wait:       wait,
		cursor:     NewSequence(InitialSequence),
		nextValue:  NewRelaxedSequence(InitialSequence),
		cachedGate: NewRelaxedSequence(InitialSequence),
	}
}

func (s *singleProducerSequencer) Next(n int64) (int64, error) {
	if s.halted.Load() {
		return 0, ErrAlerted
	}
	next := s.nextValue.Get() + n
	wrapPoint := next - s.bufferSize

	// Capacity gate: a claim may not lap the slowest consumer. The cached
	// gate avoids re-reading every gating sequence on each claim.
	if wrapPoint > s.cachedGate.Get() {
		for {
			minimum := minCursorSequence(s.gating.load(), s.nextValue.Get())
			if wrapPoint <= minimum {
				s.cachedGate.Set(minimum)
				break
			}
			if s.halted.Load() {
				return 0, ErrAlerted
			}
			runtime.Gosched()
		}
	}

	s.nextValue.Set(next)
	return next, nil
}

func (s *singleProducerSequencer) TryNext(n int64) (int64, error) {
	if s.halted.Load() {
		return 0, ErrAlerted
	}
	next := s.nextValue.Get() + n
	wrapPoint := next - s.bufferSize
	if wrapPoint > s.cachedGate.Get() {
		minimum := minCursorSequence(s.gating.load(), s.nextValue.Get())
		if wrapPoint > minimum {
			return 0, ErrInsufficientCapacity
		}
		s.cachedGate.Set(minimum)
	}
	s.nextValue.Set(next)
	return next, nil
}

// Publish stores the cursor with release ordering: every slot write before
// this call is visible to a consumer that observes the new cursor.
func (s *singleProducerSequencer) Publish(_, hi int64) {
	s.cursor.Set(hi)
	s.wait.SignalAllWhenBlocking()
}

func (s *singleProducerSequencer) Cursor() *Sequence { return s.cursor }

func (s *singleProducerSequencer) AddGatingSequences(sequences ...*Sequence) {
	s.gating.add(sequences...)
}

func (s *singleProducerSequencer) RemoveGatingSequence(sequence *Sequence) bool {
	return s.gating.remove(sequence)
}

func (s *singleProducerSequencer) RemainingCapacity() int64 {
	produced := s.nextValue.Get()
	consumed := minCursorSequence(s.gating.load(), produced)
	return s.bufferSize - (produced - consumed)
}

func (s *singleProducerSequencer) Halt() {
	s.halted.Store(true)
	s.wait.SignalAllWhenBlocking()
}

func (s *singleProducerSequencer) NewBarrier(dependents ...*Sequence) *SequenceBarrier {
	return newSequenceBarrier(s.cursor, dependents, s.wait, s)
}

// A single producer publishes in claim order, so the cursor frontier is
// exactly the published frontier.
func (s *singleProducerSequencer) highestPublishedSequence(_, available int64) int64 {
	return available
}

// multiProducerSequencer lets any number of goroutines claim concurrently.
// The cursor is the claim counter, advanced with a CAS loop so two
// producers can never claim the same slot. Because claim order and publish
// order may differ, publication is tracked per slot in availableBuffer:
// each slot stores the "lap number" (sequence >> log2(capacity)) of the
// latest sequence published into it. Consumers follow the contiguous
// published frontier via highestPublishedSequence, so a slow producer
// never makes a consumer observe a gap.
type multiProducerSequencer struct {
	bufferSize int64
	wait       WaitStrategy
	cursor     *Sequence
	gating     gatingSequences
	halted     atomic.Bool

	// gateCache is shared by all producers, hence an ordered Sequence.
	gateCache *Sequence

	availableBuffer []int32
	indexMask       int64
	indexShift      uint
}

func newMultiProducerSequencer(bufferSize int64, wait WaitStrategy) *multiProducerSequencer {
	s := &multiProducerSequencer{
		bufferSize:      bufferSize,
		wait:            wait,
		cursor:          NewSequence(InitialSequence),
		gateCache:       NewSequence(InitialSequence),
		availableBuffer: make([]int32, bufferSize),
		indexMask:       bufferSize - 1,
		indexShift:      log2(bufferSize),
	}
	for i := range s.availableBuffer {
		s.availableBuffer[i] = -1
	}
	return s
}

func (s *multiProducerSequencer) Next(n int64) (int64, error) {
	for {
		if s.halted.Load() {
			return 0, ErrAlerted
		}
		current := s.cursor.Get()
		next := current + n
		wrapPoint := next - s.bufferSize

		cachedGate := s.gateCache.Get()
		if wrapPoint > cachedGate || cachedGate > current {
			minimum := minCursorSequence(s.gating.load(), current)
			if wrapPoint > minimum {
				runtime.Gosched()
				continue
			}
			s.gateCache.Set(minimum)
			continue
		}

		if s.cursor.CompareAndSwap(current, next) {
			return next, nil
		}
		// Lost the claim race, retry.
	}
}

func (s *multiProducerSequencer) TryNext(n int64) (int64, error) {
	for {
		if s.halted.Load() {
			return 0, ErrAlerted
		}
		current := s.cursor.Get()
		next := current + n
		wrapPoint := next - s.bufferSize

		if minimum := minCursorSequence(s.gating.load(), current); wrapPoint > minimum {
			return 0, ErrInsufficientCapacity
		}

		if s.cursor.CompareAndSwap(current, next) {
			return next, nil
		}
	}
}

// Publish marks each slot in [lo, hi] available. The atomic lap-flag store
// is the release barrier making the slot write visible; claim order does
// not constrain publish order here.
func (s *multiProducerSequencer) Publish(lo, hi int64) {
	for seq := lo; seq <= hi; seq++ {
		s.setAvailable(seq)
	}
	s.wait.SignalAllWhenBlocking()
}

func (s *multiProducerSequencer) setAvailable(sequence int64) {
	index := sequence & s.indexMask
	flag := int32(sequence >> s.indexShift)
	atomic.StoreInt32(&s.availableBuffer[index], flag)
}

func (s *multiProducerSequencer) isAvailable(sequence int64) bool {
	index := sequence & s.indexMask
	flag := int32(sequence >> s.indexShift)
	return atomic.LoadInt32(&s.availableBuffer[index]) == flag
}

func (s *multiProducerSequencer) Cursor() *Sequence { return s.cursor }

func (s *multiProducerSequencer) AddGatingSequences(sequences ...*Sequence) {
	s.gating.add(sequences...)
}

func (s *multiProducerSequencer) RemoveGatingSequence(sequence *Sequence) bool {
	return s.gating.remove(sequence)
}

func (s *multiProducerSequencer) RemainingCapacity() int64 {
	produced := s.cursor.Get()
	consumed := minCursorSequence(s.gating.load(), produced)
	return s.bufferSize - (produced - consumed)
}

func (s *multiProducerSequencer) Halt() {
	s.halted.Store(true)
	s.wait.SignalAllWhenBlocking()
}

func (s *multiProducerSequencer) NewBarrier(dependents ...*Sequence) *SequenceBarrier {
	return newSequenceBarrier(s.cursor, dependents, s.wait, s)
}

func (s *multiProducerSequencer) highestPublishedSequence(lowerBound, available int64) int64 {
	for sequence := lowerBound; sequence <= available; sequence++ {
		if !s.isAvailable(sequence) {
			return sequence - 1
		}
	}
	return available
}
