package disruptor

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAlert implements Alerter for exercising strategies in isolation.
type stubAlert struct {
	alerted atomic.Bool
}

func (a *stubAlert) CheckAlert() error {
	if a.alerted.Load() {
		return ErrAlerted
	}
	return nil
}

var allWaitKinds = []WaitStrategyKind{BusySpin, Yielding, Sleeping, Blocking}

func TestWaitStrategy_ReturnsWhenCursorAdvances(t *testing.T) {
	for _, kind := range allWaitKinds {
		t.Run(kind.String(), func(t *testing.T) {
			strategy := kind.New()
			cursor := NewSequence(InitialSequence)
			alert := &stubAlert{}

			type result struct {
				seq int64
				err error
			}
			done := make(chan result, 1)
			go func() {
				seq, err := strategy.WaitFor(3, cursor, nil, alert)
				done <- result{seq, err}
			}()

			// Let the waiter park, then publish.
			time.Sleep(5 * time.Millisecond)
			cursor.Set(3)
			strategy.SignalAllWhenBlocking()

			select {
			case r := <-done:
				require.NoError(t, r.err)
				assert.GreaterOrEqual(t, r.seq, int64(3))
			case <-time.After(2 * time.Second):
				t.Fatal("waiter never woke after cursor advanced")
			}
		})
	}
}

func TestWaitStrategy_ImmediateWhenAlreadyAvailable(t *testing.T) {
	for _, kind := range allWaitKinds {
		t.Run(kind.String(), func(t *testing.T) {
			strategy := kind.New()
			cursor := NewSequence(10)

			seq, err := strategy.WaitFor(4, cursor, nil, &stubAlert{})
			require.NoError(t, err)
			assert.Equal(t, int64(10), seq, "should report the full frontier, not just the target")
		})
	}
}

func TestWaitStrategy_GatedByDependents(t *testing.T) {
	for _, kind := range allWaitKinds {
		t.Run(kind.String(), func(t *testing.T) {
			strategy := kind.New()
			cursor := NewSequence(10)
			dependent := NewSequence(2)

			done := make(chan int64, 1)
			go func() {
				seq, err := strategy.WaitFor(5, cursor, []*Sequence{dependent}, &stubAlert{})
				if err == nil {
					done <- seq
				}
			}()

			// Cursor is already past the target; the dependent is not.
			select {
			case seq := <-done:
				t.Fatalf("waiter returned %d while dependent was behind", seq)
			case <-time.After(20 * time.Millisecond):
			}

			dependent.Set(7)
			strategy.SignalAllWhenBlocking()

			select {
			case seq := <-done:
				assert.Equal(t, int64(7), seq, "frontier is the dependent minimum")
			case <-time.After(2 * time.Second):
				t.Fatal("waiter never woke after dependent advanced")
			}
		})
	}
}

func TestWaitStrategy_AlertReturnsPromptly(t *testing.T) {
	for _, kind := range allWaitKinds {
		t.Run(kind.String(), func(t *testing.T) {
			strategy := kind.New()
			cursor := NewSequence(InitialSequence)
			alert := &stubAlert{}

			done := make(chan error, 1)
			go func() {
				_, err := strategy.WaitFor(100, cursor, nil, alert)
				done <- err
			}()

			time.Sleep(5 * time.Millisecond)
			alert.alerted.Store(true)
			strategy.SignalAllWhenBlocking()

			select {
			case err := <-done:
				assert.ErrorIs(t, err, ErrAlerted)
			case <-time.After(2 * time.Second):
				t.Fatal("waiter ignored the alert")
			}
		})
	}
}

func TestWaitStrategyKind_String(t *testing.T) {
	assert.Equal(t, "busy-spin", BusySpin.String())
	assert.Equal(t, "yielding", Yielding.String())
	assert.Equal(t, "sleeping", Sleeping.String())
	assert.Equal(t, "blocking", Blocking.String())
}
