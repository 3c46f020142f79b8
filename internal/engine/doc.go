// Package engine implements the reactive re-evaluation core: watchable
// inputs, the Var reactive cell, the Monitor subscription state machine,
// and the evaluate/wait/re-evaluate run loop.
//
// The unit of reactivity is the Watch: a one-shot change-notification
// handle returned alongside every input snapshot. An evaluation collects
// the Watches of every input it touched; the Engine then blocks until the
// first of them fires and evaluates again. Expensive or external resources
// are adapted into cheap, ref-counted, de-duplicated inputs by Monitor,
// which keeps at most one background goroutine per resource alive no
// matter how many consumers subscribe.
package engine
