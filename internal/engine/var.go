package engine

import (
	"sync"

	"github.com/rillflow/rill/internal/output"
)

// Var is a mutable reactive cell holding one Output value: the baseline
// implementation of the watch contract, and the natural leaf input for
// values the program itself controls.
//
// Thread-safety model:
//   - Set/Update/Get: safe from any goroutine (one mutex guards the cell)
//   - Update is read-modify-write atomic with respect to other writers
//   - watchers are woken by condition-variable broadcast; equality
//     filtering happens on the waiter side, never at the writer
type Var[T any] struct {
	name string
	eq   func(T, T) bool

	mu      sync.Mutex
	cond    *sync.Cond
	current output.Output[T]
}

// NewVar creates a Var starting in the Pending state. The eq function
// defines change detection over Ok values; Pending and Error states
// compare by tag and message (see output.Equal).
func NewVar[T any](name string, eq func(T, T) bool) *Var[T] {
	v := &Var[T]{
		name:    name,
		eq:      eq,
		current: output.Pending[T](),
	}
	v.cond = sync.NewCond(&v.mu)
	return v
}

// Name returns the display name given at creation.
func (v *Var[T]) Name() string { return v.name }

// Get returns the current snapshot and a Watch whose Changed fires the
// first time the stored value differs, per the Var's equality, from the
// snapshot observed here.
func (v *Var[T]) Get() (output.Output[T], Watch) {
	v.mu.Lock()
	snap := v.current
	v.mu.Unlock()
	return snap, &varWatch[T]{v: v, seen: snap}
}

// Input adapts the Var to the Input contract.
func (v *Var[T]) Input() Input[T] {
	return func() (output.Output[T], []Watch) {
		o, w := v.Get()
		return o, []Watch{w}
	}
}

// Set stores o unconditionally and wakes all waiters, even when o equals
// the previous value. Waiters re-compare against their own snapshot, so a
// same-value Set is a spurious wakeup they filter out themselves.
func (v *Var[T]) Set(o output.Output[T]) {
	v.mu.Lock()
	v.current = o
	v.cond.Broadcast()
	v.mu.Unlock()
}

// SetValue is shorthand for Set(output.Ok(val)).
func (v *Var[T]) SetValue(val T) {
	v.Set(output.Ok(val))
}

// Update replaces the value with f(current), atomically with respect to
// other writers. f runs with the Var's lock held and must not call back
// into the Var.
func (v *Var[T]) Update(f func(output.Output[T]) output.Output[T]) {
	v.mu.Lock()
	v.current = f(v.current)
	v.cond.Broadcast()
	v.mu.Unlock()
}

// varWatch resolves once the cell's value differs from the snapshot taken
// at Get time. The waiter goroutine is started lazily on the first Changed
// call and loops through spurious wakeups by re-comparing; Release reaps a
// still-pending waiter so abandoned watches do not leak goroutines.
type varWatch[T any] struct {
	v    *Var[T]
	seen output.Output[T]

	once sync.Once
	ch   chan struct{}

	released bool // guarded by v.mu
}

func (w *varWatch[T]) Describe() string { return "var:" + w.v.name }

func (w *varWatch[T]) Changed() <-chan struct{} {
	w.once.Do(func() {
		w.ch = make(chan struct{})
		go func() {
			v := w.v
			v.mu.Lock()
			for !w.released && output.Equal(v.current, w.seen, v.eq) {
				v.cond.Wait()
			}
			released := w.released
			v.mu.Unlock()
			if !released {
				close(w.ch)
			}
		}()
	})
	return w.ch
}

func (w *varWatch[T]) Cancel() {}

// Release is a no-op for the Var itself; it only marks this watch done so
// a waiter that never fired can exit.
func (w *varWatch[T]) Release() {
	w.v.mu.Lock()
	w.released = true
	w.v.cond.Broadcast()
	w.v.mu.Unlock()
}
