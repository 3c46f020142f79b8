// Package output defines the tri-state result type carried by every
// watchable input and by pipeline evaluations: a success value, an error
// message, or "pending" (no value computed yet).
//
// Pending is not an error. It flows through an evaluation as an incomplete
// result and never stops the re-evaluation loop. Error carries a
// human-readable diagnostic and is stored and propagated as data, not as a
// Go error value.
package output

import "fmt"

// State identifies which arm of an Output is populated.
type State int

const (
	// StatePending means no value has been computed yet.
	StatePending State = iota
	// StateOk means the Output holds a success value.
	StateOk
	// StateError means the Output holds an error message.
	StateError
)

// String returns the lowercase state name used in logs and the history store.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateOk:
		return "ok"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Output is a tagged union over T: Ok(value) | Error(message) | Pending.
//
// The zero value is Pending. Outputs are immutable; all mutating flows
// replace the whole value.
type Output[T any] struct {
	state State
	value T
	msg   string
}

// Ok wraps a success value.
func Ok[T any](v T) Output[T] {
	return Output[T]{state: StateOk, value: v}
}

// Error wraps a human-readable diagnostic.
func Error[T any](msg string) Output[T] {
	return Output[T]{state: StateError, msg: msg}
}

// Errorf wraps a formatted diagnostic.
func Errorf[T any](format string, args ...any) Output[T] {
	return Output[T]{state: StateError, msg: fmt.Sprintf(format, args...)}
}

// Pending is the "no value yet" Output.
func Pending[T any]() Output[T] {
	return Output[T]{state: StatePending}
}

// State reports which arm is populated.
func (o Output[T]) State() State { return o.state }

// Value returns the success value. The bool is false unless the state is Ok.
func (o Output[T]) Value() (T, bool) {
	return o.value, o.state == StateOk
}

// ErrorMessage returns the diagnostic. The bool is false unless the state
// is Error.
func (o Output[T]) ErrorMessage() (string, bool) {
	if o.state != StateError {
		return "", false
	}
	return o.msg, true
}

// IsPending reports whether no value has been computed yet.
func (o Output[T]) IsPending() bool { return o.state == StatePending }

// String renders the Output for logs and traces: "pending",
// "error: <msg>", or "ok: <value>".
func (o Output[T]) String() string {
	switch o.state {
	case StateOk:
		return fmt.Sprintf("ok: %v", o.value)
	case StateError:
		return "error: " + o.msg
	default:
		return "pending"
	}
}

// Equal compares two Outputs for change detection, using eq for Ok values.
//
// Pending equals Pending. Two Errors are equal iff their messages are
// equal, so a changed diagnostic counts as a change and wakes watchers.
// Outputs in different states are never equal.
func Equal[T any](a, b Output[T], eq func(T, T) bool) bool {
	if a.state != b.state {
		return false
	}
	switch a.state {
	case StateOk:
		return eq(a.value, b.value)
	case StateError:
		return a.msg == b.msg
	default:
		return true
	}
}
