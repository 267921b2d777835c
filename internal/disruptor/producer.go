package disruptor

// Producer is a convenience handle bundling the claim/write/publish steps.
// In MultiProducer mode any number of Producers (or goroutines sharing
// one) may publish concurrently; in SingleProducer mode exactly one
// goroutine may.
type Producer[T any] struct {
	ring *RingBuffer[T]
}

// NewProducer returns a producer handle for the ring.
func NewProducer[T any](ring *RingBuffer[T]) *Producer[T] {
	return &Producer[T]{ring: ring}
}

// Publish claims one slot, lets write fill it, and publishes it. Blocks
// while the ring is full; returns ErrAlerted once the ring is halted.
// The returned sequence is the slot's global sequence.
func (p *Producer[T]) Publish(write func(slot *T)) (int64, error) {
	r, err := p.ring.Claim(1)
	if err != nil {
		return 0, err
	}
	write(p.ring.Get(r.Hi))
	p.ring.Publish(r)
	return r.Hi, nil
}

// PublishBatch claims n contiguous slots, lets write fill each one, and
// publishes the whole range at once. Slots become visible to consumers
// together, not one by one.
func (p *Producer[T]) PublishBatch(n int64, write func(slot *T, sequence int64)) (SequenceRange, error) {
	r, err := p.ring.Claim(n)
	if err != nil {
		return SequenceRange{}, err
	}
	for seq := r.Lo; seq <= r.Hi; seq++ {
		write(p.ring.Get(seq), seq)
	}
	p.ring.Publish(r)
	return r, nil
}

// TryPublish is the non-blocking variant of Publish. Returns
// ErrInsufficientCapacity when the ring is full.
func (p *Producer[T]) TryPublish(write func(slot *T)) (int64, error) {
	r, err := p.ring.TryClaim(1)
	if err != nil {
		return 0, err
	}
	write(p.ring.Get(r.Hi))
	p.ring.Publish(r)
	return r.Hi, nil
}
