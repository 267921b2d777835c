package disruptor

import (
	"log/slog"
	"sync"
)

// Executor owns every EventProcessor registered against a ring and runs
// each one on its own goroutine (the thread-per-processor model: no
// cooperative scheduling on the hot path).
//
// Lifecycle: Register all processors, Start once, Stop once (extra calls
// are no-ops). Stop halts producers first, alerts every processor, lets
// in-flight batches drain, and joins the goroutines.
type Executor[T any] struct {
	ring *RingBuffer[T]
	log  *slog.Logger

	mu         sync.Mutex
	processors []*EventProcessor[T]
	faults     []*HandlerFault

	started sync.Once
	stopped sync.Once
	wg      sync.WaitGroup
}

// ExecutorOption customizes an Executor.
type ExecutorOption[T any] func(*Executor[T])

// WithLogger sets the executor's logger. Defaults to slog.Default().
func WithLogger[T any](log *slog.Logger) ExecutorOption[T] {
	return func(e *Executor[T]) { e.log = log }
}

// NewExecutor creates an executor for the given ring.
func NewExecutor[T any](ring *RingBuffer[T], opts ...ExecutorOption[T]) *Executor[T] {
	e := &Executor[T]{
		ring: ring,
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register creates a processor for handler and registers its sequence as a
// gating sequence for producers. Dependencies express multi-stage
// pipelines: the new processor never observes a sequence any of its
// dependencies has not finished.
//
// Must be called before Start.
func (e *Executor[T]) Register(name string, handler EventHandler[T], dependencies ...*EventProcessor[T]) *EventProcessor[T] {
	depSequences := make([]*Sequence, len(dependencies))
	for i, dep := range dependencies {
		depSequences[i] = dep.Sequence()
	}

	barrier := e.ring.NewBarrier(depSequences...)
	p := newEventProcessor(name, e.ring, barrier, handler)
	e.ring.AddGatingSequences(p.Sequence())

	e.mu.Lock()
	e.processors = append(e.processors, p)
	e.mu.Unlock()
	return p
}

// Start launches one goroutine per registered processor. Idempotent.
func (e *Executor[T]) Start() {
	e.started.Do(func() {
		e.mu.Lock()
		processors := make([]*EventProcessor[T], len(e.processors))
		copy(processors, e.processors)
		e.mu.Unlock()

		for _, p := range processors {
			e.wg.Add(1)
			go func(p *EventProcessor[T]) {
				defer e.wg.Done()
				if fault := p.run(); fault != nil {
					e.recordFault(p, fault)
				}
			}(p)
		}
		e.log.Info("executor started", "processors", len(processors))
	})
}

// Stop drains and joins: producers are halted, every processor is alerted,
// in-flight batches finish, and all goroutines are joined before Stop
// returns. Safe to call multiple times.
func (e *Executor[T]) Stop() {
	e.stopped.Do(func() {
		// Halt the producer side first so claims stop flowing in while
		// consumers drain their final batches.
		e.ring.Halt()

		e.mu.Lock()
		processors := make([]*EventProcessor[T], len(e.processors))
		copy(processors, e.processors)
		e.mu.Unlock()

		for _, p := range processors {
			p.Halt()
		}
		e.wg.Wait()
		e.log.Info("executor stopped", "processors", len(processors), "faults", len(e.Faults()))
	})
}

// Faults returns the handler faults recorded so far. A faulted processor
// has halted and its gating sequence has been removed, so producers do not
// stall behind it.
func (e *Executor[T]) Faults() []*HandlerFault {
	e.mu.Lock()
	defer e.mu.Unlock()
	faults := make([]*HandlerFault, len(e.faults))
	copy(faults, e.faults)
	return faults
}

func (e *Executor[T]) recordFault(p *EventProcessor[T], fault *HandlerFault) {
	// A dead gating sequence would gate producers forever; drop it before
	// reporting.
	e.ring.RemoveGatingSequence(p.Sequence())

	e.mu.Lock()
	e.faults = append(e.faults, fault)
	e.mu.Unlock()

	e.log.Error("event processor faulted",
		"processor", fault.Processor,
		"sequence", fault.Sequence,
		"recovered", fault.Recovered)
}
