// Package disruptor implements the LMAX Disruptor pattern: a fixed-capacity
// ring buffer coordinating producers and consumers purely through
// monotonically increasing sequence counters.
//
// The pattern achieves high throughput through:
//  1. Pre-allocated slot storage to eliminate GC pressure
//  2. Lock-free producer coordination (CAS only in multi-producer mode)
//  3. Cache-aligned sequence counters to prevent false sharing
//  4. Batched consumption: a consumer drains every published sequence it can
//     see in one pass before touching shared state again
//
// Producers claim slots through a Sequencer, write into the slot, and
// publish. Each EventProcessor runs on its own goroutine, waits on a
// SequenceBarrier for new sequences, and invokes its handler once per slot
// in strictly increasing order. A processor's own sequence becomes a gating
// sequence: producers never overwrite a slot the slowest consumer has not
// passed, and downstream processors never read ahead of the stages they
// depend on.
//
// How a waiting goroutine burns (or does not burn) CPU is owned entirely by
// the configured WaitStrategy; slot contents are never protected by a lock.
//
// Reference: https://lmax-exchange.github.io/disruptor/
package disruptor
