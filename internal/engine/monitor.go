package engine

import (
	"context"
	"sync"

	"github.com/rillflow/rill/internal/output"
)

// Driver adapts one external resource for a Monitor.
//
// Read produces the resource's current value; failures are reported as
// output.Error, never as a Go error, so they flow into the pipeline result
// like any other value. Watch registers notify to be invoked whenever the
// resource may have changed and returns the matching deregistration
// action. notify may be called from any goroutine, at any time, including
// while a Read is in flight; it must never block. A driver that cannot
// establish a subscription should return a no-op unwatch and surface the
// problem through Read.
type Driver[T any] interface {
	Describe() string
	Read(ctx context.Context) output.Output[T]
	Watch(notify func()) (unwatch func())
}

// Monitor turns a Driver into a cached, ref-counted, de-duplicated input.
// N concurrent consumers share exactly one live subscription and one
// cached value; at most one background goroutine per Monitor exists at any
// time, no matter the subscribe/unsubscribe interleaving.
//
// Consumers never touch Monitor state directly: they read the cached value
// through Get and signal intent through watch Release. Everything else
// happens on the background goroutine, which cycles through installing the
// subscription, reading, idling until a refresh or the last unsubscribe,
// and uninstalling.
//
// Invariants:
//   - refCount >= 0 (underflow panics; it means a Release was double-counted)
//   - active == false implies the cached value is Pending, so a
//     reactivated Monitor never serves a snapshot from before the gap
//   - every refresh notification is followed by exactly one read that
//     observes it; a notification racing a read in flight simply schedules
//     one more pass
type Monitor[T any] struct {
	driver Driver[T]
	ctx    context.Context // bounds background reads

	mu          sync.Mutex
	internal    *sync.Cond    // wakes the background goroutine
	changed     chan struct{} // closed and replaced on every store; subscriber broadcast
	value       output.Output[T]
	refCount    int
	active      bool
	needRefresh bool
}

// NewMonitor creates an inactive Monitor. The background goroutine is
// spawned lazily by the first Get and exits when the last watch is
// released; ctx is handed to background Reads.
func NewMonitor[T any](ctx context.Context, driver Driver[T]) *Monitor[T] {
	m := &Monitor[T]{
		driver:  driver,
		ctx:     ctx,
		changed: make(chan struct{}),
		value:   output.Pending[T](),
	}
	m.internal = sync.NewCond(&m.mu)
	return m
}

// Describe returns the driver's description.
func (m *Monitor[T]) Describe() string { return m.driver.Describe() }

// Get returns the cached value and a fresh Watch, incrementing the
// subscriber ref count. The first Get (or the first after a full
// deactivation) observes Pending and spawns the background goroutine; the
// returned Watch fires on the next completed read.
func (m *Monitor[T]) Get() (output.Output[T], Watch) {
	m.mu.Lock()
	m.refCount++
	if !m.active {
		m.active = true
		m.needRefresh = true
		go m.run()
	}
	snap := m.value
	w := &monitorWatch[T]{m: m, ch: m.changed}
	m.mu.Unlock()
	return snap, w
}

// Input adapts the Monitor to the Input contract.
func (m *Monitor[T]) Input() Input[T] {
	return func() (output.Output[T], []Watch) {
		o, w := m.Get()
		return o, []Watch{w}
	}
}

// refresh is the notify callback handed to the driver's Watch. Safe from
// any goroutine; marks the cache stale and wakes the background goroutine.
func (m *Monitor[T]) refresh() {
	m.mu.Lock()
	m.needRefresh = true
	m.internal.Broadcast()
	m.mu.Unlock()
}

// run is the background goroutine: install the subscription, then loop
// between reading and idling until the last subscriber leaves, then
// uninstall. Driver calls happen outside the lock; every re-acquisition
// re-evaluates the guards, which is what makes notifications racing a read
// safe (they set needRefresh again and force one more pass).
func (m *Monitor[T]) run() {
	unwatch := m.driver.Watch(m.refresh)

	m.mu.Lock()
	for {
		switch {
		case m.refCount == 0:
			m.mu.Unlock()
			unwatch()
			m.mu.Lock()
			if m.refCount > 0 {
				// A consumer subscribed while unwatching was in
				// flight: re-install and force a fresh read.
				m.mu.Unlock()
				unwatch = m.driver.Watch(m.refresh)
				m.mu.Lock()
				m.needRefresh = true
				continue
			}
			m.value = output.Pending[T]()
			m.active = false
			m.mu.Unlock()
			return

		case m.needRefresh:
			m.needRefresh = false
			m.mu.Unlock()
			v := m.driver.Read(m.ctx)
			m.mu.Lock()
			m.value = v
			close(m.changed)
			m.changed = make(chan struct{})

		default:
			m.internal.Wait()
		}
	}
}

// monitorWatch fires when the Monitor next stores a freshly read value.
// The broadcast channel is captured at Get time, so a watch observes
// exactly the first store after its snapshot.
type monitorWatch[T any] struct {
	m        *Monitor[T]
	ch       <-chan struct{}
	released bool // guarded by m.mu
}

func (w *monitorWatch[T]) Describe() string { return w.m.driver.Describe() }

func (w *monitorWatch[T]) Changed() <-chan struct{} { return w.ch }

func (w *monitorWatch[T]) Cancel() {}

// Release decrements the subscriber ref count, waking the background
// goroutine when it reaches zero. Releasing the same watch twice, or
// releasing past zero, panics: it indicates a watch lifecycle bug in the
// caller and must not corrupt the subscription state.
func (w *monitorWatch[T]) Release() {
	m := w.m
	m.mu.Lock()
	if w.released {
		m.mu.Unlock()
		panic("engine: monitor watch released twice: " + m.driver.Describe())
	}
	w.released = true
	if m.refCount <= 0 {
		m.mu.Unlock()
		panic("engine: monitor ref count underflow: " + m.driver.Describe())
	}
	m.refCount--
	if m.refCount == 0 {
		m.internal.Broadcast()
	}
	m.mu.Unlock()
}
