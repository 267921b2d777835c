package disruptor

import (
	"runtime"
	"sync"
	"time"
)

// Alerter exposes a barrier's cooperative shutdown signal to wait
// strategies. CheckAlert returns ErrAlerted once the barrier is alerted.
type Alerter interface {
	CheckAlert() error
}

// WaitStrategy decides how a consumer waits for a sequence to become
// available. It owns the latency/CPU trade-off; correctness requirements
// are the same for every variant:
//
//   - availability is re-checked after every wake (no spurious-wakeup bugs)
//   - the alert flag is honored promptly, returning ErrAlerted instead of
//     waiting forever, so shutdown never hangs
//
// The returned sequence is min(cursor, dependents...) at the moment the
// wait completed and is always >= the requested sequence on success.
type WaitStrategy interface {
	WaitFor(sequence int64, cursor *Sequence, dependents []*Sequence, barrier Alerter) (int64, error)

	// SignalAllWhenBlocking wakes waiters parked on a condition variable.
	// Producers call it after advancing the cursor; it is a no-op for the
	// polling strategies.
	SignalAllWhenBlocking()
}

// WaitStrategyKind selects one of the built-in wait strategies.
type WaitStrategyKind int

const (
	// BusySpin polls in a tight loop. Lowest latency, burns a full core.
	BusySpin WaitStrategyKind = iota

	// Yielding polls but yields the goroutine between checks.
	Yielding

	// Sleeping spins briefly, yields, then sleeps with increasing backoff.
	Sleeping

	// Blocking parks on a condition variable until a producer signals.
	Blocking
)

// String implements fmt.Stringer.
func (k WaitStrategyKind) String() string {
	switch k {
	case BusySpin:
		return "busy-spin"
	case Yielding:
		return "yielding"
	case Sleeping:
		return "sleeping"
	case Blocking:
		return "blocking"
	default:
		return "unknown"
	}
}

// New constructs a fresh strategy instance of this kind. Blocking
// strategies carry per-ring state (the condvar) and must not be shared
// across rings.
func (k WaitStrategyKind) New() WaitStrategy {
	switch k {
	case BusySpin:
		return &busySpinWaitStrategy{}
	case Yielding:
		return &yieldingWaitStrategy{spinTries: 100}
	case Sleeping:
		return &sleepingWaitStrategy{retries: 200, maxBackoff: time.Millisecond}
	case Blocking:
		return newBlockingWaitStrategy()
	default:
		return &yieldingWaitStrategy{spinTries: 100}
	}
}

// barrierMinimum is the highest sequence safe for a consumer behind the
// given cursor and dependents: min over all of them.
func barrierMinimum(cursor *Sequence, dependents []*Sequence) int64 {
	minimum := cursor.Get()
	for _, d := range dependents {
		if seq := d.Get(); seq < minimum {
			minimum = seq
		}
	}
	return minimum
}

// busySpinWaitStrategy polls as fast as possible. The occasional Gosched
// keeps a spinning consumer from starving the producer on a loaded
// scheduler; it is not a latency mechanism.
type busySpinWaitStrategy struct{}

const goschedEvery = 64

func (busySpinWaitStrategy) WaitFor(sequence int64, cursor *Sequence, dependents []*Sequence, barrier Alerter) (int64, error) {
	var spins uint32
	for {
		if available := barrierMinimum(cursor, dependents); available >= sequence {
			return available, nil
		}
		if err := barrier.CheckAlert(); err != nil {
			return 0, err
		}
		spins++
		if spins%goschedEvery == 0 {
			runtime.Gosched()
		}
	}
}

func (busySpinWaitStrategy) SignalAllWhenBlocking() {}

// yieldingWaitStrategy spins a bounded number of times, then yields the
// goroutine on every further check.
type yieldingWaitStrategy struct {
	spinTries uint32
}

func (y *yieldingWaitStrategy) WaitFor(sequence int64, cursor *Sequence, dependents []*Sequence, barrier Alerter) (int64, error) {
	counter := y.spinTries
	for {
		if available := barrierMinimum(cursor, dependents); available >= sequence {
			return available, nil
		}
		if err := barrier.CheckAlert(); err != nil {
			return 0, err
		}
		if counter > 0 {
			counter--
		} else {
			runtime.Gosched()
		}
	}
}

func (y *yieldingWaitStrategy) SignalAllWhenBlocking() {}

// sleepingWaitStrategy degrades from spinning to yielding to sleeping with
// doubling backoff. CPU-friendly for idle consumers at the cost of wake
// latency up to maxBackoff.
type sleepingWaitStrategy struct {
	retries    int32
	maxBackoff time.Duration
}

func (s *sleepingWaitStrategy) WaitFor(sequence int64, cursor *Sequence, dependents []*Sequence, barrier Alerter) (int64, error) {
	counter := s.retries
	backoff := time.Microsecond
	for {
		if available := barrierMinimum(cursor, dependents); available >= sequence {
			return available, nil
		}
		if err := barrier.CheckAlert(); err != nil {
			return 0, err
		}
		switch {
		case counter > 100:
			counter--
		case counter > 0:
			counter--
			runtime.Gosched()
		default:
			time.Sleep(backoff)
			if backoff < s.maxBackoff {
				backoff *= 2
			}
		}
	}
}

func (s *sleepingWaitStrategy) SignalAllWhenBlocking() {}

// blockingWaitStrategy parks on a condition variable until the publish
// path (or an alert) broadcasts. The mutex guards only the idle-wait
// handshake, never slot data.
type blockingWaitStrategy struct {
	mu   sync.Mutex
	cond *sync.Cond
}

func newBlockingWaitStrategy() *blockingWaitStrategy {
	b := &blockingWaitStrategy{}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *blockingWaitStrategy) WaitFor(sequence int64, cursor *Sequence, dependents []*Sequence, barrier Alerter) (int64, error) {
	// Park until the producer cursor reaches the target. Availability is
	// re-checked after every wake; a broadcast is only a hint.
	if cursor.Get() < sequence {
		b.mu.Lock()
		for cursor.Get() < sequence {
			if err := barrier.CheckAlert(); err != nil {
				b.mu.Unlock()
				return 0, err
			}
			b.cond.Wait()
		}
		b.mu.Unlock()
	}

	// Dependent sequences advance without signaling, so poll them.
	var spins uint32
	for {
		if available := barrierMinimum(cursor, dependents); available >= sequence {
			return available, nil
		}
		if err := barrier.CheckAlert(); err != nil {
			return 0, err
		}
		spins++
		if spins%goschedEvery == 0 {
			runtime.Gosched()
		}
	}
}

func (b *blockingWaitStrategy) SignalAllWhenBlocking() {
	b.mu.Lock()
	b.cond.Broadcast()
	b.mu.Unlock()
}
