package disruptor

import (
	"errors"
	"fmt"
)

// ErrAlerted is returned from wait and claim operations once the owning
// component has been halted. It is a cooperative shutdown signal, not a
// failure: callers should stop submitting or consuming and tear down.
var ErrAlerted = errors.New("disruptor: alerted")

// ErrInsufficientCapacity is returned by non-blocking claims when the ring
// has no room left relative to the slowest gating sequence.
var ErrInsufficientCapacity = errors.New("disruptor: insufficient capacity")

// ConfigError reports an invalid ring buffer configuration.
//
// It is fatal at construction time: no partial buffer is created and the
// error is returned synchronously to the caller.
type ConfigError struct {
	// Field names the offending configuration field.
	Field string

	// Value is the rejected value.
	Value int64

	// Reason is a human-readable description.
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("disruptor: invalid config: %s=%d: %s", e.Field, e.Value, e.Reason)
}

// IsConfigError returns true if err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// HandlerFault reports a panic raised inside a registered event handler.
//
// The fault is caught at the EventProcessor boundary: the processor marks
// itself halted and the Executor removes its gating sequence so producers
// do not stall behind a consumer that will never advance.
type HandlerFault struct {
	// Processor is the name of the faulting processor.
	Processor string

	// Sequence is the sequence being processed when the handler panicked.
	Sequence int64

	// Recovered is the value recovered from the panic.
	Recovered any
}

// Error implements the error interface.
func (f *HandlerFault) Error() string {
	return fmt.Sprintf("disruptor: handler fault in %q at sequence %d: %v", f.Processor, f.Sequence, f.Recovered)
}

// IsHandlerFault returns true if err is (or wraps) a HandlerFault.
func IsHandlerFault(err error) bool {
	var hf *HandlerFault
	return errors.As(err, &hf)
}
