package disruptor

import "sync/atomic"

// EventHandler consumes published events, one call per slot.
//
// sequence is the global sequence of the event; endOfBatch is true for the
// last sequence of the contiguous batch the processor obtained from its
// barrier, which is the natural point for flush-style handlers to do
// their expensive work.
//
// A panic inside OnEvent does not crash the process: the processor halts
// and the fault is reported through the Executor.
type EventHandler[T any] interface {
	OnEvent(event *T, sequence int64, endOfBatch bool)
}

// EventHandlerFunc adapts a function to the EventHandler interface.
type EventHandlerFunc[T any] func(event *T, sequence int64, endOfBatch bool)

// OnEvent implements EventHandler.
func (f EventHandlerFunc[T]) OnEvent(event *T, sequence int64, endOfBatch bool) {
	f(event, sequence, endOfBatch)
}

// Processor lifecycle states. Halted is terminal; a processor cannot be
// restarted.
const (
	stateIdle int32 = iota
	stateRunning
	stateHalted
)

// ProcessorStats is a snapshot of a processor's private counters. Only
// meaningful after the processor has halted and its goroutine joined.
type ProcessorStats struct {
	Batches      int64
	MaxBatchSize int64
}

// EventProcessor is the consumer run loop: wait on the barrier, hand every
// newly available sequence to the handler in increasing order, advance the
// own sequence, repeat.
//
// The processor's sequence is ordered because it is read by producers (as
// a gating sequence) and by downstream barriers. The batch statistics are
// RelaxedSequences: they are touched only by the run goroutine and read
// after join.
type EventProcessor[T any] struct {
	name     string
	ring     *RingBuffer[T]
	barrier  *SequenceBarrier
	handler  EventHandler[T]
	sequence *Sequence
	state    atomic.Int32

	batches  *RelaxedSequence
	maxBatch *RelaxedSequence
}

func newEventProcessor[T any](name string, ring *RingBuffer[T], barrier *SequenceBarrier, handler EventHandler[T]) *EventProcessor[T] {
	return &EventProcessor[T]{
		name:     name,
		ring:     ring,
		barrier:  barrier,
		handler:  handler,
		sequence: NewSequence(InitialSequence),
		batches:  NewRelaxedSequence(0),
		maxBatch: NewRelaxedSequence(0),
	}
}

// Name returns the processor's registered name.
func (p *EventProcessor[T]) Name() string { return p.name }

// Sequence returns the processor's progress counter. It gates producers
// and any downstream processors registered with this processor as a
// dependency.
func (p *EventProcessor[T]) Sequence() *Sequence { return p.sequence }

// Halt requests a cooperative stop. The in-flight batch is finished before
// the run loop exits; the alert only short-circuits the next wait.
func (p *EventProcessor[T]) Halt() {
	p.state.Store(stateHalted)
	p.barrier.Alert()
}

// Halted reports whether the processor has stopped (requested or faulted).
func (p *EventProcessor[T]) Halted() bool {
	return p.state.Load() == stateHalted
}

// Stats returns the processor's batch counters. Call after the executor
// has stopped; values observed while running are unsynchronized.
func (p *EventProcessor[T]) Stats() ProcessorStats {
	return ProcessorStats{
		Batches:      p.batches.Get(),
		MaxBatchSize: p.maxBatch.Get(),
	}
}

// run executes the processing loop until halted. Returns a HandlerFault if
// the handler panicked, nil on clean shutdown. Run at most once.
func (p *EventProcessor[T]) run() *HandlerFault {
	if !p.state.CompareAndSwap(stateIdle, stateRunning) {
		// Already running or halted before start.
		return nil
	}
	defer p.state.Store(stateHalted)

	next := p.sequence.Get() + 1
	for {
		available, err := p.barrier.WaitFor(next)
		if err != nil {
			// Alerted: the previous batch is already complete, exit.
			return nil
		}
		if available < next {
			// Multi-producer ring with a claimed-but-unpublished slot at
			// the frontier; nothing consumable yet.
			continue
		}

		if fault := p.processBatch(next, available); fault != nil {
			return fault
		}

		// Ordered store: this sequence gates producers and downstream
		// stages, and its visibility implies visibility of every slot
		// read above.
		p.sequence.Set(available)

		size := available - next + 1
		p.batches.IncrementAndGet(1)
		if size > p.maxBatch.Get() {
			p.maxBatch.Set(size)
		}

		next = available + 1
	}
}

// processBatch invokes the handler for every sequence in [next, available]
// in increasing order, converting a handler panic into a HandlerFault.
func (p *EventProcessor[T]) processBatch(next, available int64) (fault *HandlerFault) {
	sequence := next
	defer func() {
		if r := recover(); r != nil {
			// Count everything up to the faulting sequence as consumed so
			// producers and downstream stages are not gated on a slot
			// that will never be re-processed.
			p.sequence.Set(sequence)
			fault = &HandlerFault{
				Processor: p.name,
				Sequence:  sequence,
				Recovered: r,
			}
		}
	}()

	for ; sequence <= available; sequence++ {
		p.handler.OnEvent(p.ring.Get(sequence), sequence, sequence == available)
	}
	return nil
}
