package disruptor

import "sync/atomic"

// publishedResolver maps the cursor frontier seen by a wait strategy to the
// highest sequence that is actually published. For a single producer the
// two are identical; a multi-producer sequencer may have claimed-but-
// unpublished sequences below the cursor.
type publishedResolver interface {
	highestPublishedSequence(lowerBound, available int64) int64
}

// SequenceBarrier computes the highest sequence currently safe for a
// consumer to read: the minimum over the producer cursor and every
// upstream consumer sequence the barrier depends on. The actual waiting is
// delegated to the ring's WaitStrategy.
//
// The barrier is stateless beyond its reference list and the alert flag;
// the minimum is recomputed on every wait.
type SequenceBarrier struct {
	cursor     *Sequence
	dependents []*Sequence
	wait       WaitStrategy
	resolver   publishedResolver
	alerted    atomic.Bool
}

func newSequenceBarrier(cursor *Sequence, dependents []*Sequence, wait WaitStrategy, resolver publishedResolver) *SequenceBarrier {
	return &SequenceBarrier{
		cursor:     cursor,
		dependents: dependents,
		wait:       wait,
		resolver:   resolver,
	}
}

// WaitFor blocks until sequence is available and returns the greatest
// published sequence, which may exceed the request (the consumer then
// drains the whole batch) or, for multi-producer rings, fall short of it
// when a claimed slot below the frontier is still unpublished. Callers
// must re-wait in that case.
//
// Returns ErrAlerted once the barrier has been alerted.
func (b *SequenceBarrier) WaitFor(sequence int64) (int64, error) {
	if err := b.CheckAlert(); err != nil {
		return 0, err
	}

	available, err := b.wait.WaitFor(sequence, b.cursor, b.dependents, b)
	if err != nil {
		return 0, err
	}

	return b.resolver.highestPublishedSequence(sequence, available), nil
}

// Available returns min(cursor, dependents...) without waiting. May be
// InitialSequence when nothing is published yet. On multi-producer rings
// the cursor tracks claims, so WaitFor is authoritative for what is
// actually published.
func (b *SequenceBarrier) Available() int64 {
	return barrierMinimum(b.cursor, b.dependents)
}

// Alert signals every goroutine waiting on this barrier to stop waiting.
func (b *SequenceBarrier) Alert() {
	b.alerted.Store(true)
	b.wait.SignalAllWhenBlocking()
}

// ClearAlert resets the alert flag.
func (b *SequenceBarrier) ClearAlert() {
	b.alerted.Store(false)
}

// IsAlerted reports whether the barrier is in alert state.
func (b *SequenceBarrier) IsAlerted() bool {
	return b.alerted.Load()
}

// CheckAlert implements Alerter.
func (b *SequenceBarrier) CheckAlert() error {
	if b.alerted.Load() {
		return ErrAlerted
	}
	return nil
}
